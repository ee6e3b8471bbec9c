package orchestrator

import (
	"context"
	"fmt"

	"github.com/lite-lake/zonesync/internal/application/usecase"
	"github.com/lite-lake/zonesync/internal/domain/contract"
	"github.com/lite-lake/zonesync/internal/domain/entity"
	"github.com/lite-lake/zonesync/internal/domain/repository"
	"github.com/lite-lake/zonesync/internal/domain/service"
	"github.com/lite-lake/zonesync/internal/domain/valueobject"
	"github.com/lite-lake/zonesync/internal/infrastructure/dns"
	"github.com/lite-lake/zonesync/internal/infrastructure/logger"
	"github.com/lite-lake/zonesync/internal/infrastructure/persistence"
	"github.com/lite-lake/zonesync/internal/infrastructure/state"
)

// ClientFactory builds the provider client for a loaded config.
type ClientFactory func(cfg *entity.Config, token string) contract.ZoneClient

func NewDynv6Client(cfg *entity.Config, token string) contract.ZoneClient {
	return dns.NewDynv6Client(token,
		dns.WithBaseURL(cfg.Endpoint),
		dns.WithRateLimit(cfg.RateLimit),
		dns.WithCallAttempts(cfg.CallAttempts),
	)
}

type Workflow struct {
	loader    repository.ConfigLoader
	vars      repository.VariableRepository
	newClient ClientFactory
}

type Option func(*Workflow)

func WithConfigLoader(l repository.ConfigLoader) Option {
	return func(w *Workflow) { w.loader = l }
}

func WithVariableRepository(r repository.VariableRepository) Option {
	return func(w *Workflow) { w.vars = r }
}

func WithClientFactory(f ClientFactory) Option {
	return func(w *Workflow) { w.newClient = f }
}

func NewWorkflow(varsPath string, opts ...Option) *Workflow {
	w := &Workflow{
		loader:    persistence.NewConfigLoader(),
		vars:      state.NewFileStore(varsPath),
		newClient: NewDynv6Client,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type RunOptions struct {
	ConfigPath string
	Updates    []entity.VariableUpdate
	// NoSync stops after the variable store is saved.
	NoSync bool
}

func (w *Workflow) LoadVariables(ctx context.Context) (entity.Variables, error) {
	vars, err := w.vars.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load variables: %w", err)
	}
	return vars, nil
}

// UpdateVariables applies updates and persists the store. The store is
// saved even without updates so that every run rewrites it once.
func (w *Workflow) UpdateVariables(ctx context.Context, updates []entity.VariableUpdate) (entity.Variables, error) {
	log := logger.FromContext(ctx)

	vars, err := w.LoadVariables(ctx)
	if err != nil {
		return nil, err
	}

	updated, previous, err := applyUpdates(vars, updates)
	if err != nil {
		return nil, fmt.Errorf("update variables: %w", err)
	}
	for _, u := range updates {
		log.Info("variable updated", "key", u.Key, "old", previous[u.Key], "new", updated[u.Key])
	}

	if err := w.vars.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("save variables: %w", err)
	}
	return updated, nil
}

func (w *Workflow) LoadAndValidate(ctx context.Context, path string) (*entity.Config, error) {
	cfg, err := w.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := w.loader.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Prepare resolves desired state, connects to the provider and looks up
// the zone. No provider call happens when templates fail to resolve.
func (w *Workflow) Prepare(ctx context.Context, cfg *entity.Config, vars entity.Variables) (*usecase.Reconciler, error) {
	log := logger.FromContext(ctx)

	desired, desiredZone, err := service.BuildDesiredState(cfg.Records, vars)
	if err != nil {
		return nil, fmt.Errorf("build desired state: %w", err)
	}
	log.Debug("desired state built", "records", len(desired), "zone_address", desiredZone != nil)

	token, err := w.loader.LoadToken(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}

	client := w.newClient(cfg, token)
	zone, err := NewStateFetcher(client).FetchZone(ctx, cfg.Domain)
	if err != nil {
		return nil, err
	}

	return usecase.NewReconciler(usecase.ReconcilerConfig{
		Client:      client,
		Zone:        zone,
		Desired:     desired,
		DesiredZone: desiredZone,
		Retry:       cfg.Retry,
		Concurrency: cfg.Concurrency,
		PatchPolicy: service.PatchPolicy(cfg.EffectivePatchPolicy()),
	})
}

// Run is one full invocation: update and save variables, then reconcile
// unless NoSync is set.
func (w *Workflow) Run(ctx context.Context, opts RunOptions) (*usecase.Result, error) {
	vars, err := w.UpdateVariables(ctx, opts.Updates)
	if err != nil {
		return nil, err
	}
	if opts.NoSync {
		logger.FromContext(ctx).Info("no sync")
		return nil, nil
	}

	cfg, err := w.LoadAndValidate(ctx, opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	reconciler, err := w.Prepare(ctx, cfg, vars)
	if err != nil {
		return nil, err
	}
	return reconciler.Run(ctx)
}

// Plan computes what a run would do right now without changing anything,
// the variable store included.
func (w *Workflow) Plan(ctx context.Context, configPath string) (*valueobject.Plan, *entity.Config, error) {
	vars, err := w.LoadVariables(ctx)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := w.LoadAndValidate(ctx, configPath)
	if err != nil {
		return nil, nil, err
	}
	reconciler, err := w.Prepare(ctx, cfg, vars)
	if err != nil {
		return nil, nil, err
	}
	p, err := reconciler.Plan(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("plan: %w", err)
	}
	return p, cfg, nil
}

// Records lists the provider's current records for the configured zone.
func (w *Workflow) Records(ctx context.Context, configPath string) (entity.ZoneNode, []entity.RecordNode, error) {
	cfg, err := w.LoadAndValidate(ctx, configPath)
	if err != nil {
		return entity.ZoneNode{}, nil, err
	}
	token, err := w.loader.LoadToken(ctx, cfg)
	if err != nil {
		return entity.ZoneNode{}, nil, fmt.Errorf("load token: %w", err)
	}
	return NewStateFetcher(w.newClient(cfg, token)).Snapshot(ctx, cfg.Domain)
}
