package entity

import (
	"fmt"
	"net/netip"
)

// ZoneValue holds provider-level zone settings. A zero IPv4 means unset.
type ZoneValue struct {
	IPv4       netip.Addr
	IPv6Prefix string
}

func (z ZoneValue) String() string {
	ipv4 := "-"
	if z.IPv4.IsValid() {
		ipv4 = z.IPv4.String()
	}
	prefix := "-"
	if z.IPv6Prefix != "" {
		prefix = z.IPv6Prefix
	}
	return fmt.Sprintf("ipv4=%s ipv6prefix=%s", ipv4, prefix)
}

type ZoneNode struct {
	ID    string
	Name  string
	Value ZoneValue
}
