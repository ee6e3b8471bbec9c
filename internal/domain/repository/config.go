package repository

import (
	"context"

	"github.com/lite-lake/zonesync/internal/domain/entity"
)

type ConfigLoader interface {
	Load(ctx context.Context, path string) (*entity.Config, error)
	Validate(cfg *entity.Config) error
	LoadToken(ctx context.Context, cfg *entity.Config) (string, error)
}
