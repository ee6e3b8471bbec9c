package orchestrator

import (
	"fmt"
	"strings"

	"github.com/lite-lake/zonesync/internal/domain"
	"github.com/lite-lake/zonesync/internal/domain/entity"
)

// ParseVariableUpdates turns "key=value" arguments into updates. The value
// may itself contain '='.
func ParseVariableUpdates(args []string) ([]entity.VariableUpdate, error) {
	updates := make([]entity.VariableUpdate, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: update %q must be key=value", domain.ErrInvalidArgument, arg)
		}
		updates = append(updates, entity.VariableUpdate{Key: key, Value: value})
	}
	return updates, nil
}

// applyUpdates mutates a copy of vars; an unknown key leaves vars untouched.
func applyUpdates(vars entity.Variables, updates []entity.VariableUpdate) (entity.Variables, map[string]string, error) {
	out := vars.Clone()
	previous := make(map[string]string, len(updates))
	for _, u := range updates {
		old, err := out.Set(u.Key, u.Value)
		if err != nil {
			return nil, nil, err
		}
		if _, seen := previous[u.Key]; !seen {
			previous[u.Key] = old
		}
	}
	return out, previous, nil
}
