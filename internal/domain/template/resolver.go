// Package template resolves ${name} placeholders against a variable store
// and parses the result into a typed record field.
package template

import (
	"fmt"
	"net/netip"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lite-lake/zonesync/internal/domain"
)

// Passes is the number of substitution sweeps. Values that need more levels
// of indirection are left partially substituted.
const Passes = 5

type Kind int

const (
	KindString Kind = iota
	KindIPv4
	KindIPv6
	KindUint16
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindIPv4:
		return "ipv4"
	case KindIPv6:
		return "ipv6"
	case KindUint16:
		return "uint16"
	default:
		return "unknown"
	}
}

// Template is a single templated field with the kind it must parse into.
type Template struct {
	Expr string
	Kind Kind
}

func String(expr string) Template { return Template{Expr: expr, Kind: KindString} }
func IPv4(expr string) Template   { return Template{Expr: expr, Kind: KindIPv4} }
func IPv6(expr string) Template   { return Template{Expr: expr, Kind: KindIPv6} }
func Uint16(expr string) Template { return Template{Expr: expr, Kind: KindUint16} }

type ResolutionError struct {
	Template string
	Kind     Kind
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q as %s: %v", e.Template, e.Kind, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

var placeholderPattern = regexp.MustCompile(`\$\{([^{}]*)\}`)

var parsers = map[Kind]func(string) (any, error){
	KindString: func(s string) (any, error) { return s, nil },
	KindIPv4: func(s string) (any, error) {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, err
		}
		if !addr.Is4() {
			return nil, fmt.Errorf("%w: %s is not an IPv4 address", domain.ErrInvalidIP, s)
		}
		return addr, nil
	},
	KindIPv6: func(s string) (any, error) {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, err
		}
		if !addr.Is6() || addr.Zone() != "" {
			return nil, fmt.Errorf("%w: %s is not an IPv6 address", domain.ErrInvalidIP, s)
		}
		return addr, nil
	},
	KindUint16: func(s string) (any, error) {
		n, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return nil, err
		}
		return uint16(n), nil
	},
}

// Substitute replaces every ${key} of vars in expr, sweeping Passes times so
// that substituted values may expose further placeholders. Cycles are not
// detected; they simply stop making progress.
func Substitute(expr string, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := expr
	for pass := 0; pass < Passes; pass++ {
		for _, k := range keys {
			out = strings.ReplaceAll(out, "${"+k+"}", vars[k])
		}
	}
	return out
}

// Resolve substitutes t against vars and parses the result into t.Kind.
// A placeholder naming a variable absent from vars fails with
// domain.ErrVariableNotFound; a value that does not parse fails with
// domain.ErrTemplateParse. Both come wrapped in *ResolutionError.
func Resolve(t Template, vars map[string]string) (any, error) {
	replaced := Substitute(t.Expr, vars)

	for _, m := range placeholderPattern.FindAllStringSubmatch(replaced, -1) {
		if _, ok := vars[m[1]]; !ok {
			return nil, &ResolutionError{
				Template: t.Expr,
				Kind:     t.Kind,
				Err:      fmt.Errorf("%w: %s", domain.ErrVariableNotFound, m[1]),
			}
		}
	}

	parse, ok := parsers[t.Kind]
	if !ok {
		return nil, &ResolutionError{Template: t.Expr, Kind: t.Kind, Err: domain.ErrInvalidType}
	}
	v, err := parse(replaced)
	if err != nil {
		return nil, &ResolutionError{
			Template: t.Expr,
			Kind:     t.Kind,
			Err:      fmt.Errorf("%w: %w", domain.ErrTemplateParse, err),
		}
	}
	return v, nil
}

func ResolveString(expr string, vars map[string]string) (string, error) {
	v, err := Resolve(String(expr), vars)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func ResolveIPv4(expr string, vars map[string]string) (netip.Addr, error) {
	v, err := Resolve(IPv4(expr), vars)
	if err != nil {
		return netip.Addr{}, err
	}
	return v.(netip.Addr), nil
}

func ResolveIPv6(expr string, vars map[string]string) (netip.Addr, error) {
	v, err := Resolve(IPv6(expr), vars)
	if err != nil {
		return netip.Addr{}, err
	}
	return v.(netip.Addr), nil
}

func ResolveUint16(expr string, vars map[string]string) (uint16, error) {
	v, err := Resolve(Uint16(expr), vars)
	if err != nil {
		return 0, err
	}
	return v.(uint16), nil
}
