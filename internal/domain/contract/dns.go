package contract

import (
	"context"

	"github.com/lite-lake/zonesync/internal/domain/entity"
)

// ZoneClient is the provider surface the reconciler needs. Each call is
// atomic on the provider side and may fail independently of the others.
type ZoneClient interface {
	// LookupZone returns domain.ErrZoneNotFound when no zone has that name.
	LookupZone(ctx context.Context, name string) (entity.ZoneNode, error)
	GetZone(ctx context.Context, zoneID string) (entity.ZoneValue, error)
	ListRecords(ctx context.Context, zoneID string) ([]entity.RecordNode, error)
	CreateRecord(ctx context.Context, zoneID string, record entity.Record) error
	DeleteRecord(ctx context.Context, zoneID string, recordID string) error
	UpdateRecord(ctx context.Context, zoneID string, recordID string, record entity.Record) error
	UpdateZone(ctx context.Context, zoneID string, zone entity.ZoneValue) error
}
