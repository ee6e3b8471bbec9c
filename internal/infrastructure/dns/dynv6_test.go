package dns

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"

	"github.com/lite-lake/zonesync/internal/domain"
	"github.com/lite-lake/zonesync/internal/domain/entity"
)

var addrComparer = cmp.Comparer(func(a, b netip.Addr) bool { return a == b })

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Dynv6Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithBaseURL(srv.URL), WithRetryDelay(time.Millisecond)}, opts...)
	return NewDynv6Client("test-token", opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestDynv6Client_LookupZone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/zones/by-name/example.dynv6.net":
			writeJSON(w, http.StatusOK, map[string]any{
				"id": 42, "name": "example.dynv6.net", "ipv4address": "192.0.2.1", "ipv6prefix": "2001:db8:1::",
			})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "zone not found"})
		}
	})

	zone, err := c.LookupZone(context.Background(), "example.dynv6.net")
	if err != nil {
		t.Fatalf("LookupZone() error: %v", err)
	}
	want := entity.ZoneNode{
		ID:   "42",
		Name: "example.dynv6.net",
		Value: entity.ZoneValue{
			IPv4:       netip.MustParseAddr("192.0.2.1"),
			IPv6Prefix: "2001:db8:1::",
		},
	}
	if diff := cmp.Diff(want, zone, addrComparer); diff != "" {
		t.Errorf("LookupZone() mismatch (-want +got):\n%s", diff)
	}

	_, err = c.LookupZone(context.Background(), "missing.dynv6.net")
	if !errors.Is(err, domain.ErrZoneNotFound) {
		t.Errorf("expected ErrZoneNotFound, got %v", err)
	}
}

func TestDynv6Client_GetZoneWithoutAddress(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "name": "example.dynv6.net", "ipv4address": "", "ipv6prefix": ""})
	})

	zone, err := c.GetZone(context.Background(), "7")
	if err != nil {
		t.Fatalf("GetZone() error: %v", err)
	}
	if zone.IPv4.IsValid() || zone.IPv6Prefix != "" {
		t.Errorf("expected empty zone value, got %s", zone)
	}
}

func TestDynv6Client_ListRecords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/zones/by-name/example.dynv6.net":
			writeJSON(w, http.StatusOK, map[string]any{"id": 1, "name": "example.dynv6.net"})
		case "/zones/1/records":
			writeJSON(w, http.StatusOK, []map[string]any{
				{"id": 10, "type": "A", "name": "www", "data": "192.0.2.10"},
				{"id": 11, "type": "AAAA", "name": "", "data": "2001:db8::1"},
				{"id": 12, "type": "CNAME", "name": "blog.example.dynv6.net", "data": "www.example.dynv6.net."},
				{"id": 13, "type": "SRV", "name": "_sip._tcp", "data": "sip.example.net", "priority": 10, "weight": 5, "port": 5060},
				{"id": 14, "type": "TXT", "name": "txt", "data": "v=spf1 -all"},
				{"id": 15, "type": "MX", "name": "", "data": "mail.example.net", "priority": 10},
			})
		default:
			http.NotFound(w, r)
		}
	})

	if _, err := c.LookupZone(context.Background(), "example.dynv6.net"); err != nil {
		t.Fatal(err)
	}
	got, err := c.ListRecords(context.Background(), "1")
	if err != nil {
		t.Fatalf("ListRecords() error: %v", err)
	}

	want := []entity.RecordNode{
		{ID: "10", Record: entity.Record{Name: "www", Value: entity.AValue(netip.MustParseAddr("192.0.2.10"))}},
		{ID: "11", Record: entity.Record{Name: "", Value: entity.AAAAValue(netip.MustParseAddr("2001:db8::1"))}},
		{ID: "12", Record: entity.Record{Name: "blog", Value: entity.CNAMEValue("www.example.dynv6.net")}},
		{ID: "13", Record: entity.Record{Name: "_sip._tcp", Value: entity.SRVValue("sip.example.net", 10, 5, 5060)}},
		{ID: "14", Record: entity.Record{Name: "txt", Value: entity.TXTValue("v=spf1 -all")}},
	}
	if diff := cmp.Diff(want, got, addrComparer); diff != "" {
		t.Errorf("ListRecords() mismatch (-want +got):\n%s", diff)
	}
}

func TestDynv6Client_ListRecordsBadAddress(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "type": "A", "name": "x", "data": "2001:db8::1"}})
	})
	_, err := c.ListRecords(context.Background(), "1")
	if !errors.Is(err, domain.ErrInvalidIP) {
		t.Errorf("expected ErrInvalidIP, got %v", err)
	}
}

func TestDynv6Client_Mutations(t *testing.T) {
	type call struct {
		method string
		path   string
		body   map[string]any
	}
	var calls []call

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		if len(data) > 0 {
			if err := json.Unmarshal(data, &body); err != nil {
				t.Errorf("bad request body: %v", err)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
		}
		calls = append(calls, call{r.Method, r.URL.Path, body})
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusOK, map[string]any{"id": 99})
		}
	})
	ctx := context.Background()

	srv := entity.Record{Name: "_xmpp._tcp", Value: entity.SRVValue("xmpp.example.net", 5, 0, 5222)}
	if err := c.CreateRecord(ctx, "1", srv); err != nil {
		t.Fatalf("CreateRecord() error: %v", err)
	}
	txt := entity.Record{Name: "txt", Value: entity.TXTValue("hello")}
	if err := c.UpdateRecord(ctx, "1", "12", txt); err != nil {
		t.Fatalf("UpdateRecord() error: %v", err)
	}
	if err := c.DeleteRecord(ctx, "1", "13"); err != nil {
		t.Fatalf("DeleteRecord() error: %v", err)
	}
	zone := entity.ZoneValue{IPv4: netip.MustParseAddr("198.51.100.4")}
	if err := c.UpdateZone(ctx, "1", zone); err != nil {
		t.Fatalf("UpdateZone() error: %v", err)
	}

	want := []call{
		{http.MethodPost, "/zones/1/records", map[string]any{
			"type": "SRV", "name": "_xmpp._tcp", "data": "xmpp.example.net",
			"priority": float64(5), "weight": float64(0), "port": float64(5222),
		}},
		{http.MethodPatch, "/zones/1/records/12", map[string]any{"type": "TXT", "name": "txt", "data": "hello"}},
		{http.MethodDelete, "/zones/1/records/13", nil},
		{http.MethodPatch, "/zones/1", map[string]any{"ipv4address": "198.51.100.4", "ipv6prefix": ""}},
	}
	if diff := cmp.Diff(want, calls, cmp.AllowUnexported(call{})); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestDynv6Client_Retry(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		call      func(*Dynv6Client) error
		wantCalls int32
	}{
		{
			name:   "list retried on server error",
			status: http.StatusBadGateway,
			call: func(c *Dynv6Client) error {
				_, err := c.ListRecords(context.Background(), "1")
				return err
			},
			wantCalls: 3,
		},
		{
			name:   "create not retried on server error",
			status: http.StatusInternalServerError,
			call: func(c *Dynv6Client) error {
				return c.CreateRecord(context.Background(), "1", entity.Record{Name: "t", Value: entity.TXTValue("x")})
			},
			wantCalls: 1,
		},
		{
			name:   "create retried when throttled",
			status: http.StatusTooManyRequests,
			call: func(c *Dynv6Client) error {
				return c.CreateRecord(context.Background(), "1", entity.Record{Name: "t", Value: entity.TXTValue("x")})
			},
			wantCalls: 3,
		},
		{
			name:   "client error not retried",
			status: http.StatusUnauthorized,
			call: func(c *Dynv6Client) error {
				return c.DeleteRecord(context.Background(), "1", "2")
			},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				n.Add(1)
				writeJSON(w, tt.status, map[string]string{"message": "nope"})
			}, WithCallAttempts(3))

			err := tt.call(c)
			if !errors.Is(err, domain.ErrProvider) {
				t.Errorf("expected ErrProvider, got %v", err)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
				t.Errorf("expected APIError with status %d, got %v", tt.status, err)
			}
			if got := n.Load(); got != tt.wantCalls {
				t.Errorf("server saw %d calls, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestDynv6Client_RecoversAfterTransientFailure(t *testing.T) {
	var n atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{})
	})

	records, err := c.ListRecords(context.Background(), "1")
	if err != nil {
		t.Fatalf("ListRecords() error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %v", records)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"throttled", &APIError{StatusCode: 429}, true},
		{"server error", &APIError{StatusCode: 503}, true},
		{"not found", &APIError{StatusCode: 404}, false},
		{"canceled", context.Canceled, false},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err); got != tt.want {
				t.Errorf("IsRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRelativeName(t *testing.T) {
	tests := []struct {
		name, zone, want string
	}{
		{"", "example.dynv6.net", ""},
		{"@", "example.dynv6.net", ""},
		{"www", "example.dynv6.net", "www"},
		{"www.example.dynv6.net", "example.dynv6.net", "www"},
		{"www.example.dynv6.net.", "example.dynv6.net", "www"},
		{"Example.Dynv6.Net", "example.dynv6.net", ""},
		{"a.b.example.dynv6.net", "example.dynv6.net.", "a.b"},
		{"www.other.net", "example.dynv6.net", "www.other.net"},
		{"www.example.dynv6.net", "", "www.example.dynv6.net"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelativeName(tt.name, tt.zone); got != tt.want {
				t.Errorf("RelativeName(%q, %q) = %q, want %q", tt.name, tt.zone, got, tt.want)
			}
		})
	}
}

func TestWithRateLimit(t *testing.T) {
	c := NewDynv6Client("t", WithRateLimit(0.5))
	if c.limiter.Burst() != 1 {
		t.Errorf("expected burst 1, got %d", c.limiter.Burst())
	}
	c = NewDynv6Client("t", WithRateLimit(0))
	if c.limiter.Limit() != rate.Inf {
		t.Errorf("expected unlimited limiter, got %v", c.limiter.Limit())
	}
}
