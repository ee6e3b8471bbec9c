package dns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"

	mdns "github.com/miekg/dns"

	"github.com/lite-lake/zonesync/internal/domain"
	"github.com/lite-lake/zonesync/internal/domain/entity"
)

// APIError is a non-2xx answer from the provider.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return domain.ErrProvider
}

func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection reset", "connection refused", "broken pipe"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// isThrottled narrows retries for calls that are unsafe to repeat after the
// provider may already have applied them.
func isThrottled(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

type wireZone struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	IPv4Address string `json:"ipv4address"`
	IPv6Prefix  string `json:"ipv6prefix"`
}

type wireZonePatch struct {
	IPv4Address string `json:"ipv4address"`
	IPv6Prefix  string `json:"ipv6prefix"`
}

type wireRecord struct {
	ID       int64  `json:"id,omitempty"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Data     string `json:"data"`
	Priority *int   `json:"priority,omitempty"`
	Weight   *int   `json:"weight,omitempty"`
	Port     *int   `json:"port,omitempty"`
}

type wireError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e wireError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func zoneFromWire(z wireZone) (entity.ZoneNode, error) {
	node := entity.ZoneNode{
		ID:   fmt.Sprint(z.ID),
		Name: z.Name,
		Value: entity.ZoneValue{
			IPv6Prefix: z.IPv6Prefix,
		},
	}
	if z.IPv4Address != "" {
		addr, err := netip.ParseAddr(z.IPv4Address)
		if err != nil || !addr.Is4() {
			return entity.ZoneNode{}, fmt.Errorf("%w: zone %s ipv4address %q", domain.ErrInvalidIP, z.Name, z.IPv4Address)
		}
		node.Value.IPv4 = addr
	}
	return node, nil
}

func zonePatch(z entity.ZoneValue) wireZonePatch {
	patch := wireZonePatch{IPv6Prefix: z.IPv6Prefix}
	if z.IPv4.IsValid() {
		patch.IPv4Address = z.IPv4.String()
	}
	return patch
}

// RelativeName maps a provider record name to a name relative to zone,
// with the apex as the empty string.
func RelativeName(name, zone string) string {
	name = strings.TrimSuffix(name, ".")
	zone = strings.TrimSuffix(zone, ".")
	if name == "" || name == "@" {
		return ""
	}
	fqdn, zoneFqdn := mdns.Fqdn(strings.ToLower(name)), mdns.Fqdn(strings.ToLower(zone))
	if fqdn == zoneFqdn {
		return ""
	}
	if zone != "" && mdns.IsSubDomain(zoneFqdn, fqdn) {
		return name[:len(name)-len(zone)-1]
	}
	return name
}

func intPtr(v uint16) *int {
	i := int(v)
	return &i
}

func toUint16(p *int) uint16 {
	if p == nil || *p < 0 || *p > 0xffff {
		return 0
	}
	return uint16(*p)
}

// recordFromWire converts a provider record. ok is false for record types
// this tool does not manage.
func recordFromWire(r wireRecord, zone string) (entity.RecordNode, bool, error) {
	node := entity.RecordNode{
		ID:     fmt.Sprint(r.ID),
		Record: entity.Record{Name: RelativeName(r.Name, zone)},
	}

	switch entity.DNSRecordType(strings.ToUpper(r.Type)) {
	case entity.DNSRecordTypeA, entity.DNSRecordTypeAAAA:
		addr, err := netip.ParseAddr(r.Data)
		if err != nil {
			return entity.RecordNode{}, false, fmt.Errorf("%w: record %d data %q", domain.ErrInvalidIP, r.ID, r.Data)
		}
		if strings.EqualFold(r.Type, "A") {
			if !addr.Is4() {
				return entity.RecordNode{}, false, fmt.Errorf("%w: A record %d data %q", domain.ErrInvalidIP, r.ID, r.Data)
			}
			node.Record.Value = entity.AValue(addr)
		} else {
			node.Record.Value = entity.AAAAValue(addr)
		}
	case entity.DNSRecordTypeCNAME:
		node.Record.Value = entity.CNAMEValue(r.Data)
	case entity.DNSRecordTypeSRV:
		node.Record.Value = entity.SRVValue(r.Data, toUint16(r.Priority), toUint16(r.Weight), toUint16(r.Port))
	case entity.DNSRecordTypeTXT:
		node.Record.Value = entity.TXTValue(r.Data)
	default:
		return entity.RecordNode{}, false, nil
	}
	return node, true, nil
}

func recordToWire(r entity.Record) wireRecord {
	w := wireRecord{
		Type: string(r.Type()),
		Name: r.Name,
	}
	switch r.Type() {
	case entity.DNSRecordTypeA, entity.DNSRecordTypeAAAA:
		w.Data = r.Value.Addr.String()
	case entity.DNSRecordTypeSRV:
		w.Data = r.Value.Data
		w.Priority = intPtr(r.Value.Priority)
		w.Weight = intPtr(r.Value.Weight)
		w.Port = intPtr(r.Value.Port)
	default:
		w.Data = r.Value.Data
	}
	return w
}
