package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lite-lake/zonesync/internal/domain"
	"github.com/lite-lake/zonesync/internal/domain/contract"
	"github.com/lite-lake/zonesync/internal/domain/entity"
	"github.com/lite-lake/zonesync/internal/domain/service"
	"github.com/lite-lake/zonesync/internal/domain/valueobject"
	"github.com/lite-lake/zonesync/internal/infrastructure/logger"
)

type ReconcilerConfig struct {
	Client      contract.ZoneClient
	Zone        entity.ZoneNode
	Desired     []entity.Record
	DesiredZone *entity.ZoneValue
	// Retry is the number of execute phases allowed before the run gives up.
	Retry int
	// Concurrency bounds in-flight operations per round; 0 means unbounded.
	Concurrency int
	PatchPolicy service.PatchPolicy
}

type OperationResult struct {
	Operation *valueobject.Operation
	Error     error
	Duration  time.Duration
}

type RoundResult struct {
	Round   int
	Plan    *valueobject.Plan
	Results []*OperationResult
	// Repeated is set when the plan equals the previous round's, meaning
	// the last execute phase changed nothing the diff can see.
	Repeated bool
}

func (r *RoundResult) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Error != nil {
			n++
		}
	}
	return n
}

type Result struct {
	// Rounds counts execute phases that ran.
	Rounds    int
	Converged bool
	History   []*RoundResult
}

type Reconciler struct {
	cfg ReconcilerConfig
}

func NewReconciler(cfg ReconcilerConfig) (*Reconciler, error) {
	if cfg.Client == nil {
		return nil, domain.RequiredField("client")
	}
	if cfg.Retry < 0 {
		return nil, fmt.Errorf("%w: retry %d", domain.ErrInvalidArgument, cfg.Retry)
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("%w: concurrency %d", domain.ErrInvalidArgument, cfg.Concurrency)
	}
	if cfg.PatchPolicy == "" {
		cfg.PatchPolicy = service.PatchAny
	}
	return &Reconciler{cfg: cfg}, nil
}

// fetch reads the provider's current state. Round 0 reuses the zone value
// from the lookup instead of asking again.
func (r *Reconciler) fetch(ctx context.Context, round int) (entity.ZoneValue, []entity.RecordNode, error) {
	zone := r.cfg.Zone.Value
	if round > 0 {
		var err error
		zone, err = r.cfg.Client.GetZone(ctx, r.cfg.Zone.ID)
		if err != nil {
			return entity.ZoneValue{}, nil, domain.WrapOp("fetch zone", err)
		}
	}
	records, err := r.cfg.Client.ListRecords(ctx, r.cfg.Zone.ID)
	if err != nil {
		return entity.ZoneValue{}, nil, domain.WrapOp("fetch records", err)
	}
	return zone, records, nil
}

// Plan runs a single fetch and diff without executing anything.
func (r *Reconciler) Plan(ctx context.Context) (*valueobject.Plan, error) {
	zone, records, err := r.fetch(ctx, 0)
	if err != nil {
		return nil, err
	}
	return service.PlanRound(zone, records, r.cfg.DesiredZone, service.CloneRecords(r.cfg.Desired), r.cfg.PatchPolicy), nil
}

// Run drives actual state towards desired: fetch, diff, and execute the
// round's operations concurrently until nothing is left to do or the
// retry budget is spent. Operation failures are logged and left for the
// next round's diff; fetch failures end the run.
func (r *Reconciler) Run(ctx context.Context) (*Result, error) {
	ctx = logger.WithOperation(ctx, "reconcile")
	log := logger.FromContext(ctx)
	result := &Result{}

	log.Info("starting reconciliation",
		"zone", r.cfg.Zone.Name,
		"desired_records", len(r.cfg.Desired),
		"retry", r.cfg.Retry,
	)

	var prev *valueobject.Plan
	for t := 0; ; t++ {
		roundCtx := logger.WithRound(ctx, t)
		roundLog := logger.FromContext(roundCtx)

		zone, records, err := r.fetch(roundCtx, t)
		if err != nil {
			logger.RecordRun("error")
			return result, err
		}
		roundLog.Debug("fetched actual state", "zone", zone.String(), "records", len(records))

		plan := service.PlanRound(zone, records, r.cfg.DesiredZone, service.CloneRecords(r.cfg.Desired), r.cfg.PatchPolicy)
		if !plan.HasChanges() {
			roundLog.Info("no change")
			result.Converged = true
			logger.RecordRun("converged")
			return result, nil
		}

		if t >= r.cfg.Retry {
			roundLog.Error("retry limit reached", "pending", plan.Len())
			logger.RecordRun("exhausted")
			return result, fmt.Errorf("%w: %d operations pending after %d rounds", domain.ErrRetryExhausted, plan.Len(), t)
		}

		repeated := plan.Equals(prev)
		if repeated {
			roundLog.Warn("pending operations unchanged since last round", "operations", plan.Len())
		}
		prev = plan

		roundLog.Info("sync round", "round", t+1, "operations", plan.Len())
		logger.RecordRound()

		round := &RoundResult{Round: t + 1, Plan: plan, Repeated: repeated, Results: r.execute(roundCtx, plan)}
		result.History = append(result.History, round)
		result.Rounds++

		if failed := round.Failed(); failed > 0 {
			roundLog.Error("some operations failed", "failed", failed, "total", len(round.Results))
		} else {
			roundLog.Info("all operations succeeded", "total", len(round.Results))
		}

		if err := ctx.Err(); err != nil {
			logger.RecordRun("canceled")
			return result, err
		}
	}
}

// execute issues every operation of a round and waits for all of them. A
// failure never cancels its siblings.
func (r *Reconciler) execute(ctx context.Context, plan *valueobject.Plan) []*OperationResult {
	ops := plan.Operations()
	results := make([]*OperationResult, len(ops))

	var g errgroup.Group
	if r.cfg.Concurrency > 0 {
		g.SetLimit(r.cfg.Concurrency)
	}
	for i, op := range ops {
		i, op := i, op
		g.Go(func() error {
			results[i] = r.apply(ctx, op)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Reconciler) apply(ctx context.Context, op *valueobject.Operation) *OperationResult {
	log := logger.FromContext(ctx)
	log.Info("execute operation", "op", op.String())

	start := time.Now()
	err := logger.TimedOperation(ctx, opName(op.Kind()), func() error {
		return r.dispatch(ctx, op)
	})
	res := &OperationResult{Operation: op, Error: err, Duration: time.Since(start)}

	if err != nil {
		if !errors.Is(err, domain.ErrProvider) {
			err = fmt.Errorf("%w: %w", domain.ErrProvider, err)
			res.Error = err
		}
		log.Error("operation failed", "op", op.String(), "error", err)
	} else {
		log.Info("operation succeeded", "op", op.String())
	}
	return res
}

func (r *Reconciler) dispatch(ctx context.Context, op *valueobject.Operation) error {
	zoneID := r.cfg.Zone.ID
	switch op.Kind() {
	case valueobject.OperationZoneUpdate:
		return r.cfg.Client.UpdateZone(ctx, zoneID, op.Zone())
	case valueobject.OperationCreate:
		return r.cfg.Client.CreateRecord(ctx, zoneID, op.Record())
	case valueobject.OperationDelete:
		return r.cfg.Client.DeleteRecord(ctx, zoneID, op.Target().ID)
	case valueobject.OperationPatch:
		return r.cfg.Client.UpdateRecord(ctx, zoneID, op.Target().ID, op.Record())
	default:
		return fmt.Errorf("%w: operation kind %v", domain.ErrInvalidType, op.Kind())
	}
}

func opName(k valueobject.OperationKind) string {
	switch k {
	case valueobject.OperationZoneUpdate:
		return "update_zone"
	case valueobject.OperationCreate:
		return "create_record"
	case valueobject.OperationDelete:
		return "delete_record"
	case valueobject.OperationPatch:
		return "update_record"
	default:
		return "unknown"
	}
}
