package entity

import (
	"fmt"
	"sort"

	"github.com/lite-lake/zonesync/internal/domain"
)

// Variables is the flat name to value store that templates resolve against.
type Variables map[string]string

type VariableUpdate struct {
	Key   string
	Value string
}

func (v Variables) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v Variables) Clone() Variables {
	out := make(Variables, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Set replaces the value of an existing key and returns the previous value.
// Unknown keys are rejected: updates never introduce new variables.
func (v Variables) Set(key, value string) (string, error) {
	old, ok := v[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrVariableNotFound, key)
	}
	v[key] = value
	return old, nil
}
