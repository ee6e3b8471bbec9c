package entity

import (
	"fmt"
	"net/netip"
	"strings"
)

type DNSRecordType string

const (
	DNSRecordTypeA     DNSRecordType = "A"
	DNSRecordTypeAAAA  DNSRecordType = "AAAA"
	DNSRecordTypeCNAME DNSRecordType = "CNAME"
	DNSRecordTypeSRV   DNSRecordType = "SRV"
	DNSRecordTypeTXT   DNSRecordType = "TXT"
)

func (t DNSRecordType) Valid() bool {
	switch t {
	case DNSRecordTypeA, DNSRecordTypeAAAA, DNSRecordTypeCNAME, DNSRecordTypeSRV, DNSRecordTypeTXT:
		return true
	}
	return false
}

// RecordValue is the typed payload of a record. Only the fields relevant to
// Type are set, so two values are equal exactly when == says so.
type RecordValue struct {
	Type     DNSRecordType
	Addr     netip.Addr
	Data     string
	Priority uint16
	Weight   uint16
	Port     uint16
}

func AValue(addr netip.Addr) RecordValue {
	return RecordValue{Type: DNSRecordTypeA, Addr: addr}
}

func AAAAValue(addr netip.Addr) RecordValue {
	return RecordValue{Type: DNSRecordTypeAAAA, Addr: addr}
}

func CNAMEValue(domain string) RecordValue {
	return RecordValue{Type: DNSRecordTypeCNAME, Data: TargetName(domain)}
}

func SRVValue(domain string, priority, weight, port uint16) RecordValue {
	return RecordValue{Type: DNSRecordTypeSRV, Data: TargetName(domain), Priority: priority, Weight: weight, Port: port}
}

// TargetName drops the trailing dot of a fully qualified target so that
// "host.example.org." and "host.example.org" compare equal. The root "."
// is kept as is.
func TargetName(domain string) string {
	if domain == "." {
		return domain
	}
	return strings.TrimSuffix(domain, ".")
}

func TXTValue(data string) RecordValue {
	return RecordValue{Type: DNSRecordTypeTXT, Data: data}
}

func (v RecordValue) String() string {
	switch v.Type {
	case DNSRecordTypeA, DNSRecordTypeAAAA:
		return fmt.Sprintf("%s %s", v.Type, v.Addr)
	case DNSRecordTypeSRV:
		return fmt.Sprintf("SRV %d %d %d %s", v.Priority, v.Weight, v.Port, v.Data)
	case DNSRecordTypeCNAME, DNSRecordTypeTXT:
		return fmt.Sprintf("%s %q", v.Type, v.Data)
	default:
		return fmt.Sprintf("%s ?", v.Type)
	}
}

// Record is a resolved record: a name relative to the zone plus its value.
// The empty name denotes the zone apex.
type Record struct {
	Name  string
	Value RecordValue
}

func (r Record) Type() DNSRecordType { return r.Value.Type }

func (r Record) String() string {
	name := r.Name
	if name == "" {
		name = "@"
	}
	return fmt.Sprintf("%s %s", name, r.Value)
}

// IsZoneAddress reports whether the record stands for the zone's own IPv4
// address rather than an ordinary record.
func (r Record) IsZoneAddress() bool {
	return r.Name == "" && r.Value.Type == DNSRecordTypeA
}

// RecordNode is a record held by the provider, carrying its provider-assigned id.
type RecordNode struct {
	ID     string
	Record Record
}

func (n RecordNode) String() string {
	return fmt.Sprintf("[%s] %s", n.ID, n.Record)
}
