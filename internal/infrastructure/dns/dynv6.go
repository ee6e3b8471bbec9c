package dns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lite-lake/zonesync/internal/domain"
	"github.com/lite-lake/zonesync/internal/domain/contract"
	"github.com/lite-lake/zonesync/internal/domain/entity"
	"github.com/lite-lake/zonesync/internal/domain/retry"
	"github.com/lite-lake/zonesync/internal/infrastructure/logger"
)

const (
	DefaultBaseURL      = "https://dynv6.com/api/v2"
	DefaultCallAttempts = domain.DefaultRetryMaxAttempts
	DefaultTimeout      = 30 * time.Second

	userAgent = "zonesync"
)

var _ contract.ZoneClient = (*Dynv6Client)(nil)

type Dynv6Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	attempts   int
	retryDelay time.Duration

	// zone id -> zone name, for turning absolute record names relative
	zoneNames sync.Map
}

type Option func(*Dynv6Client)

func WithBaseURL(u string) Option {
	return func(c *Dynv6Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Dynv6Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit caps requests per second. Zero or less means unlimited.
func WithRateLimit(rps float64) Option {
	return func(c *Dynv6Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithCallAttempts(n int) Option {
	return func(c *Dynv6Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Dynv6Client) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

func NewDynv6Client(token string, opts ...Option) *Dynv6Client {
	c := &Dynv6Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Inf, 0),
		attempts:   DefaultCallAttempts,
		retryDelay: domain.DefaultRetryInitialDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Dynv6Client) Name() string {
	return "dynv6"
}

type request struct {
	method string
	path   string
	body   any
	out    any
	// idempotent requests are retried on any transient error; the rest
	// only when the provider throttled them.
	idempotent bool
}

func (c *Dynv6Client) do(ctx context.Context, req request) error {
	isRetryable := IsRetryableError
	if !req.idempotent {
		isRetryable = isThrottled
	}
	return retry.Do(ctx, func() error {
		return c.send(ctx, req)
	},
		retry.WithMaxAttempts(c.attempts),
		retry.WithInitialDelay(c.retryDelay),
		retry.WithIsRetryable(isRetryable),
		retry.WithOnRetry(func(attempt int, delay time.Duration, err error) {
			logger.FromContext(ctx).Warn("retrying provider call",
				"provider", c.Name(), "method", req.method, "path", req.path,
				"attempt", attempt, "delay", delay, "error", err)
		}),
	)
}

func (c *Dynv6Client) send(ctx context.Context, req request) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", req.method, req.path, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", req.method, req.path, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s: %w", req.method, req.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var we wireError
		_ = json.Unmarshal(data, &we)
		return &APIError{Method: req.method, Path: req.path, StatusCode: resp.StatusCode, Message: we.text()}
	}

	if req.out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, req.out); err != nil {
			return fmt.Errorf("decoding %s %s: %w: %w", req.method, req.path, domain.ErrProvider, err)
		}
	}
	return nil
}

func (c *Dynv6Client) LookupZone(ctx context.Context, name string) (entity.ZoneNode, error) {
	logger.FromContext(ctx).Debug("looking up zone", "provider", c.Name(), "zone", name)

	var z wireZone
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/zones/by-name/" + url.PathEscape(name),
		out:        &z,
		idempotent: true,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return entity.ZoneNode{}, fmt.Errorf("%s: %w", name, domain.ErrZoneNotFound)
		}
		return entity.ZoneNode{}, domain.WrapOp("lookup zone", err)
	}

	node, err := zoneFromWire(z)
	if err != nil {
		return entity.ZoneNode{}, domain.WrapOp("lookup zone", err)
	}
	c.zoneNames.Store(node.ID, node.Name)
	return node, nil
}

func (c *Dynv6Client) GetZone(ctx context.Context, zoneID string) (entity.ZoneValue, error) {
	var z wireZone
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/zones/" + url.PathEscape(zoneID),
		out:        &z,
		idempotent: true,
	})
	if err != nil {
		return entity.ZoneValue{}, domain.WrapOp("get zone", err)
	}

	node, err := zoneFromWire(z)
	if err != nil {
		return entity.ZoneValue{}, domain.WrapOp("get zone", err)
	}
	if node.Name != "" {
		c.zoneNames.Store(zoneID, node.Name)
	}
	return node.Value, nil
}

func (c *Dynv6Client) ListRecords(ctx context.Context, zoneID string) ([]entity.RecordNode, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing DNS records", "provider", c.Name(), "zone_id", zoneID)

	var raw []wireRecord
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/zones/" + url.PathEscape(zoneID) + "/records",
		out:        &raw,
		idempotent: true,
	})
	if err != nil {
		return nil, domain.WrapOp("list records", err)
	}

	zoneName := ""
	if v, ok := c.zoneNames.Load(zoneID); ok {
		zoneName = v.(string)
	}

	records := make([]entity.RecordNode, 0, len(raw))
	for _, r := range raw {
		node, ok, err := recordFromWire(r, zoneName)
		if err != nil {
			return nil, domain.WrapOp("list records", err)
		}
		if !ok {
			log.Debug("skipping unmanaged record type", "id", r.ID, "type", r.Type, "name", r.Name)
			continue
		}
		records = append(records, node)
	}

	log.Debug("listed DNS records", "provider", c.Name(), "zone_id", zoneID, "count", len(records))
	return records, nil
}

func (c *Dynv6Client) CreateRecord(ctx context.Context, zoneID string, record entity.Record) error {
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/zones/" + url.PathEscape(zoneID) + "/records",
		body:   recordToWire(record),
	})
	if err != nil {
		return domain.WrapOp("create record", err)
	}
	logger.FromContext(ctx).Info("DNS record created", "provider", c.Name(), "zone_id", zoneID, "record", record.String())
	return nil
}

func (c *Dynv6Client) DeleteRecord(ctx context.Context, zoneID string, recordID string) error {
	err := c.do(ctx, request{
		method:     http.MethodDelete,
		path:       "/zones/" + url.PathEscape(zoneID) + "/records/" + url.PathEscape(recordID),
		idempotent: true,
	})
	if err != nil {
		return domain.WrapOp("delete record", err)
	}
	logger.FromContext(ctx).Info("DNS record deleted", "provider", c.Name(), "zone_id", zoneID, "record_id", recordID)
	return nil
}

func (c *Dynv6Client) UpdateRecord(ctx context.Context, zoneID string, recordID string, record entity.Record) error {
	err := c.do(ctx, request{
		method:     http.MethodPatch,
		path:       "/zones/" + url.PathEscape(zoneID) + "/records/" + url.PathEscape(recordID),
		body:       recordToWire(record),
		idempotent: true,
	})
	if err != nil {
		return domain.WrapOp("update record", err)
	}
	logger.FromContext(ctx).Info("DNS record updated", "provider", c.Name(), "zone_id", zoneID, "record_id", recordID, "record", record.String())
	return nil
}

func (c *Dynv6Client) UpdateZone(ctx context.Context, zoneID string, zone entity.ZoneValue) error {
	err := c.do(ctx, request{
		method:     http.MethodPatch,
		path:       "/zones/" + url.PathEscape(zoneID),
		body:       zonePatch(zone),
		idempotent: true,
	})
	if err != nil {
		return domain.WrapOp("update zone", err)
	}
	logger.FromContext(ctx).Info("DNS zone updated", "provider", c.Name(), "zone_id", zoneID, "zone", zone.String())
	return nil
}
