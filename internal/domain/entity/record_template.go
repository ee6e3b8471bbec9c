package entity

import (
	"fmt"

	"github.com/lite-lake/zonesync/internal/domain"
)

// RecordTemplate is one desired record as written in the config document:
// a name template plus exactly one typed value block, e.g.
//
//	{"name": "www", "A": {"addr": "${ipv4}"}}
type RecordTemplate struct {
	Name  string          `json:"name" yaml:"name"`
	A     *AddrTemplate   `json:"A,omitempty" yaml:"A,omitempty"`
	AAAA  *AddrTemplate   `json:"AAAA,omitempty" yaml:"AAAA,omitempty"`
	CNAME *DomainTemplate `json:"CNAME,omitempty" yaml:"CNAME,omitempty"`
	SRV   *SRVTemplate    `json:"SRV,omitempty" yaml:"SRV,omitempty"`
	TXT   *TextTemplate   `json:"TXT,omitempty" yaml:"TXT,omitempty"`
}

type AddrTemplate struct {
	Addr string `json:"addr" yaml:"addr"`
}

type DomainTemplate struct {
	Domain string `json:"domain" yaml:"domain"`
}

type SRVTemplate struct {
	Domain   string `json:"domain" yaml:"domain"`
	Priority string `json:"priority" yaml:"priority"`
	Weight   string `json:"weight" yaml:"weight"`
	Port     string `json:"port" yaml:"port"`
}

type TextTemplate struct {
	Data string `json:"data" yaml:"data"`
}

// Type returns the record type selected by the template, or "" when no
// value block is set.
func (t *RecordTemplate) Type() DNSRecordType {
	switch {
	case t.A != nil:
		return DNSRecordTypeA
	case t.AAAA != nil:
		return DNSRecordTypeAAAA
	case t.CNAME != nil:
		return DNSRecordTypeCNAME
	case t.SRV != nil:
		return DNSRecordTypeSRV
	case t.TXT != nil:
		return DNSRecordTypeTXT
	}
	return ""
}

func (t *RecordTemplate) Validate() error {
	set := 0
	for _, present := range []bool{t.A != nil, t.AAAA != nil, t.CNAME != nil, t.SRV != nil, t.TXT != nil} {
		if present {
			set++
		}
	}
	switch set {
	case 0:
		return fmt.Errorf("%w: record %q has no value block", domain.ErrInvalidType, t.Name)
	case 1:
		return nil
	default:
		return fmt.Errorf("%w: record %q has %d value blocks", domain.ErrInvalidType, t.Name, set)
	}
}
