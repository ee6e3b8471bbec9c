package orchestrator

import (
	"context"
	"fmt"

	"github.com/lite-lake/zonesync/internal/domain/contract"
	"github.com/lite-lake/zonesync/internal/domain/entity"
	"github.com/lite-lake/zonesync/internal/infrastructure/logger"
)

type StateFetcher struct {
	client contract.ZoneClient
}

func NewStateFetcher(client contract.ZoneClient) *StateFetcher {
	return &StateFetcher{client: client}
}

// FetchZone resolves the configured domain to the provider's zone.
func (f *StateFetcher) FetchZone(ctx context.Context, name string) (entity.ZoneNode, error) {
	log := logger.FromContext(ctx)
	log.Info("get zone information", "zone", name)

	zone, err := f.client.LookupZone(ctx, name)
	if err != nil {
		return entity.ZoneNode{}, fmt.Errorf("lookup zone %s: %w", name, err)
	}

	log.Debug("zone found", "zone", zone.Name, "id", zone.ID, "value", zone.Value.String())
	return zone, nil
}

// Snapshot returns the zone together with its current records.
func (f *StateFetcher) Snapshot(ctx context.Context, name string) (entity.ZoneNode, []entity.RecordNode, error) {
	zone, err := f.FetchZone(ctx, name)
	if err != nil {
		return entity.ZoneNode{}, nil, err
	}
	records, err := f.client.ListRecords(ctx, zone.ID)
	if err != nil {
		return entity.ZoneNode{}, nil, fmt.Errorf("list records of %s: %w", name, err)
	}
	return zone, records, nil
}
