package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lite-lake/zonesync/internal/domain"
	"github.com/lite-lake/zonesync/internal/domain/entity"
	"github.com/lite-lake/zonesync/internal/domain/service"
	"github.com/lite-lake/zonesync/internal/domain/valueobject"
)

// fakeZone is an in-memory provider that applies writes to its own state.
type fakeZone struct {
	mu      sync.Mutex
	zone    entity.ZoneValue
	records []entity.RecordNode
	nextID  int

	// fail makes matching writes fail; return true to fail.
	fail func(op string, record entity.Record, id string) bool
	// frozen discards successful writes, so the state never converges.
	frozen bool

	getZoneCalls atomic.Int32
	listCalls    atomic.Int32
	writeCalls   atomic.Int32
	inFlight     atomic.Int32
	maxInFlight  atomic.Int32
	writeDelay   time.Duration
	listErr      error
	getZoneErr   error
}

func (f *fakeZone) LookupZone(ctx context.Context, name string) (entity.ZoneNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return entity.ZoneNode{ID: "1", Name: name, Value: f.zone}, nil
}

func (f *fakeZone) GetZone(ctx context.Context, zoneID string) (entity.ZoneValue, error) {
	f.getZoneCalls.Add(1)
	if f.getZoneErr != nil {
		return entity.ZoneValue{}, f.getZoneErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.zone, nil
}

func (f *fakeZone) ListRecords(ctx context.Context, zoneID string) ([]entity.RecordNode, error) {
	f.listCalls.Add(1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.RecordNode, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeZone) write(op string, record entity.Record, id string, apply func()) error {
	f.writeCalls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.writeDelay > 0 {
		time.Sleep(f.writeDelay)
	}

	if f.fail != nil && f.fail(op, record, id) {
		return fmt.Errorf("%s %s: %w", op, id, domain.ErrProvider)
	}
	if f.frozen {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	apply()
	return nil
}

func (f *fakeZone) CreateRecord(ctx context.Context, zoneID string, record entity.Record) error {
	return f.write("create", record, "", func() {
		f.nextID++
		f.records = append(f.records, entity.RecordNode{ID: fmt.Sprintf("new-%d", f.nextID), Record: record})
	})
}

func (f *fakeZone) DeleteRecord(ctx context.Context, zoneID string, recordID string) error {
	return f.write("delete", entity.Record{}, recordID, func() {
		for i, n := range f.records {
			if n.ID == recordID {
				f.records = append(f.records[:i], f.records[i+1:]...)
				return
			}
		}
	})
}

func (f *fakeZone) UpdateRecord(ctx context.Context, zoneID string, recordID string, record entity.Record) error {
	return f.write("update", record, recordID, func() {
		for i, n := range f.records {
			if n.ID == recordID {
				f.records[i].Record = record
				return
			}
		}
	})
}

func (f *fakeZone) UpdateZone(ctx context.Context, zoneID string, zone entity.ZoneValue) error {
	return f.write("zone", entity.Record{}, zoneID, func() {
		f.zone = zone
	})
}

func a(name, addr string) entity.Record {
	return entity.Record{Name: name, Value: entity.AValue(netip.MustParseAddr(addr))}
}

func txt(name, data string) entity.Record {
	return entity.Record{Name: name, Value: entity.TXTValue(data)}
}

func newTestReconciler(t *testing.T, f *fakeZone, desired []entity.Record, desiredZone *entity.ZoneValue, retry int) *Reconciler {
	t.Helper()
	zone, _ := f.LookupZone(context.Background(), "example.dynv6.net")
	r, err := NewReconciler(ReconcilerConfig{
		Client:      f,
		Zone:        zone,
		Desired:     desired,
		DesiredZone: desiredZone,
		Retry:       retry,
	})
	if err != nil {
		t.Fatalf("NewReconciler() error: %v", err)
	}
	return r
}

func TestReconciler_AlreadyConverged(t *testing.T) {
	f := &fakeZone{records: []entity.RecordNode{{ID: "1", Record: a("www", "192.0.2.1")}}}
	r := newTestReconciler(t, f, []entity.Record{a("www", "192.0.2.1")}, nil, 3)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !res.Converged || res.Rounds != 0 {
		t.Errorf("expected converged without rounds, got %+v", res)
	}
	if got := f.getZoneCalls.Load(); got != 0 {
		t.Errorf("round 0 must reuse the looked-up zone, GetZone called %d times", got)
	}
	if got := f.writeCalls.Load(); got != 0 {
		t.Errorf("expected no writes, got %d", got)
	}
}

func TestReconciler_Converges(t *testing.T) {
	f := &fakeZone{
		zone: entity.ZoneValue{IPv4: netip.MustParseAddr("192.0.2.200")},
		records: []entity.RecordNode{
			{ID: "1", Record: a("www", "192.0.2.1")},
			{ID: "2", Record: txt("old", "stale")},
			{ID: "3", Record: txt("gone", "bye")},
		},
	}
	desired := []entity.Record{a("www", "192.0.2.2"), txt("new", "fresh"), a("api", "192.0.2.3")}
	desiredZone := &entity.ZoneValue{IPv4: netip.MustParseAddr("198.51.100.1")}
	r := newTestReconciler(t, f, desired, desiredZone, 2)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !res.Converged {
		t.Fatal("expected convergence")
	}
	if res.Rounds != 1 {
		t.Errorf("expected 1 execute round, got %d", res.Rounds)
	}
	if got := res.History[0].Plan.CountByKind()[valueobject.OperationZoneUpdate]; got != 1 {
		t.Errorf("expected one zone update, got %d", got)
	}
	if f.zone != *desiredZone {
		t.Errorf("zone = %s, want %s", f.zone, desiredZone)
	}

	if got := f.getZoneCalls.Load(); got != 1 {
		t.Errorf("expected GetZone only on round 1, got %d calls", got)
	}
}

func TestReconciler_PlanDoesNotExecute(t *testing.T) {
	f := &fakeZone{records: []entity.RecordNode{{ID: "1", Record: txt("old", "x")}}}
	r := newTestReconciler(t, f, []entity.Record{txt("new", "x"), a("www", "192.0.2.1")}, nil, 1)

	plan, err := r.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	counts := plan.CountByKind()
	if counts[valueobject.OperationPatch] != 1 || counts[valueobject.OperationCreate] != 1 {
		t.Errorf("unexpected plan: %v", counts)
	}
	if got := f.writeCalls.Load(); got != 0 {
		t.Errorf("Plan() must not write, got %d writes", got)
	}
}

func TestReconciler_RetryExhausted(t *testing.T) {
	f := &fakeZone{frozen: true}
	r := newTestReconciler(t, f, []entity.Record{txt("t", "x")}, nil, 2)

	res, err := r.Run(context.Background())
	if !errors.Is(err, domain.ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if res.Converged {
		t.Error("must not report convergence")
	}
	if res.Rounds != 2 {
		t.Errorf("expected 2 execute rounds, got %d", res.Rounds)
	}
	if got := f.listCalls.Load(); got != 3 {
		t.Errorf("expected 3 fetches, got %d", got)
	}
	if got := f.writeCalls.Load(); got != 2 {
		t.Errorf("expected 2 writes, got %d", got)
	}
	if res.History[0].Repeated {
		t.Error("first round cannot repeat a previous plan")
	}
	if !res.History[1].Repeated {
		t.Error("second round re-plans the same operations and should be flagged")
	}
}

func TestReconciler_ZeroRetry(t *testing.T) {
	f := &fakeZone{}
	r := newTestReconciler(t, f, []entity.Record{txt("t", "x")}, nil, 0)

	_, err := r.Run(context.Background())
	if !errors.Is(err, domain.ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if got := f.writeCalls.Load(); got != 0 {
		t.Errorf("retry 0 must not execute, got %d writes", got)
	}
}

func TestReconciler_PartialFailureDoesNotCancelSiblings(t *testing.T) {
	var failedOnce atomic.Bool
	f := &fakeZone{
		fail: func(op string, record entity.Record, id string) bool {
			return record.Name == "b" && failedOnce.CompareAndSwap(false, true)
		},
	}
	desired := []entity.Record{txt("a", "1"), txt("b", "2"), txt("c", "3")}
	r := newTestReconciler(t, f, desired, nil, 3)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Rounds != 2 {
		t.Fatalf("expected 2 rounds, got %d", res.Rounds)
	}

	first := res.History[0]
	if len(first.Results) != 3 {
		t.Fatalf("expected all 3 operations attempted, got %d", len(first.Results))
	}
	if first.Failed() != 1 {
		t.Errorf("expected 1 failure in round 1, got %d", first.Failed())
	}
	for _, r := range first.Results {
		if r.Error != nil && !errors.Is(r.Error, domain.ErrProvider) {
			t.Errorf("failure should wrap ErrProvider: %v", r.Error)
		}
	}

	second := res.History[1]
	if second.Plan.Len() != 1 || second.Plan.Operations()[0].Record().Name != "b" {
		t.Errorf("round 2 should only retry the failed create, got %d operations", second.Plan.Len())
	}
	if second.Repeated {
		t.Error("round 2 plan differs from round 1 and must not be flagged")
	}
}

func TestReconciler_FetchErrorIsFatal(t *testing.T) {
	listErr := fmt.Errorf("list: %w", domain.ErrProvider)
	f := &fakeZone{listErr: listErr}
	r := newTestReconciler(t, f, []entity.Record{txt("t", "x")}, nil, 3)

	_, err := r.Run(context.Background())
	if !errors.Is(err, domain.ErrProvider) {
		t.Errorf("expected provider error, got %v", err)
	}
	if got := f.writeCalls.Load(); got != 0 {
		t.Errorf("expected no writes, got %d", got)
	}
}

func TestReconciler_ConcurrencyLimit(t *testing.T) {
	f := &fakeZone{writeDelay: 5 * time.Millisecond}
	desired := []entity.Record{txt("a", "1"), txt("b", "2"), txt("c", "3"), txt("d", "4"), txt("e", "5")}
	zone, _ := f.LookupZone(context.Background(), "example.dynv6.net")
	r, err := NewReconciler(ReconcilerConfig{
		Client:      f,
		Zone:        zone,
		Desired:     desired,
		Retry:       1,
		Concurrency: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := f.maxInFlight.Load(); got > 2 {
		t.Errorf("expected at most 2 concurrent writes, saw %d", got)
	}
}

func TestNewReconciler_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  ReconcilerConfig
	}{
		{"no client", ReconcilerConfig{}},
		{"negative retry", ReconcilerConfig{Client: &fakeZone{}, Retry: -1}},
		{"negative concurrency", ReconcilerConfig{Client: &fakeZone{}, Concurrency: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewReconciler(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewReconciler_DefaultPolicy(t *testing.T) {
	r, err := NewReconciler(ReconcilerConfig{Client: &fakeZone{}})
	if err != nil {
		t.Fatal(err)
	}
	if r.cfg.PatchPolicy != service.PatchAny {
		t.Errorf("expected PatchAny, got %q", r.cfg.PatchPolicy)
	}
}
