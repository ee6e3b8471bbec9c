package repository

import (
	"context"

	"github.com/lite-lake/zonesync/internal/domain/entity"
)

// VariableRepository persists the variable store as a whole document:
// Save always replaces what Load returned.
type VariableRepository interface {
	Load(ctx context.Context) (entity.Variables, error)
	Save(ctx context.Context, vars entity.Variables) error
}
