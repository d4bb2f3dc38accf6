package schema

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethpandaops/stitchoor/pkg/config"
	"github.com/ethpandaops/stitchoor/pkg/fixture"
	"github.com/ethpandaops/stitchoor/pkg/harness"
	"github.com/sirupsen/logrus"
)

// Registry manages strategy builders.
type Registry interface {
	Get(strategy Strategy) (Builder, error)
	Register(builder Builder)
	List() []Strategy

	// Build constructs the target described by cfg. Failures are returned
	// as *harness.ConstructionError.
	Build(ctx context.Context, cfg *config.TargetConfig, ds *fixture.Dataset) (harness.Target, error)

	// BuildAll constructs every target in order and stops at the first failure.
	BuildAll(ctx context.Context, cfgs []config.TargetConfig, ds *fixture.Dataset) ([]harness.Target, error)
}

// NewRegistry creates a registry with all supported strategies.
func NewRegistry(log logrus.FieldLogger) Registry {
	r := &registry{
		log:      log.WithField("component", "schema"),
		builders: make(map[Strategy]Builder, 5),
	}

	// Register all supported strategies.
	r.Register(NewDirectBuilder())
	r.Register(NewMergedBuilder())
	r.Register(NewDelegatedBuilder())
	r.Register(NewTransformedBuilder())
	r.Register(NewRemoteBuilder())

	return r
}

type registry struct {
	log      logrus.FieldLogger
	mu       sync.RWMutex
	builders map[Strategy]Builder
}

// Ensure interface compliance.
var _ Registry = (*registry)(nil)

// Get returns the builder for the given strategy.
func (r *registry) Get(strategy Strategy) (Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	builder, ok := r.builders[strategy]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", strategy)
	}

	return builder, nil
}

// Register adds a builder to the registry.
func (r *registry) Register(builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.builders[builder.Strategy()] = builder
}

// List returns all registered strategies, sorted by name.
func (r *registry) List() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategies := make([]Strategy, 0, len(r.builders))
	for s := range r.builders {
		strategies = append(strategies, s)
	}

	sort.Slice(strategies, func(i, j int) bool {
		return strategies[i] < strategies[j]
	})

	return strategies
}

// Build constructs a single target.
func (r *registry) Build(
	ctx context.Context,
	cfg *config.TargetConfig,
	ds *fixture.Dataset,
) (harness.Target, error) {
	constructionErr := func(err error) error {
		return &harness.ConstructionError{
			Label:    cfg.Label,
			Strategy: cfg.Strategy,
			Err:      err,
		}
	}

	builder, err := r.Get(Strategy(cfg.Strategy))
	if err != nil {
		return harness.Target{}, constructionErr(err)
	}

	exec, err := builder.Build(ctx, cfg, ds)
	if err != nil {
		return harness.Target{}, constructionErr(err)
	}

	r.log.WithFields(logrus.Fields{
		"target":   cfg.Label,
		"strategy": cfg.Strategy,
	}).Debug("Target built")

	return harness.Target{Label: cfg.Label, Handle: exec}, nil
}

// BuildAll constructs all targets in configuration order.
func (r *registry) BuildAll(
	ctx context.Context,
	cfgs []config.TargetConfig,
	ds *fixture.Dataset,
) ([]harness.Target, error) {
	targets := make([]harness.Target, 0, len(cfgs))

	for i := range cfgs {
		target, err := r.Build(ctx, &cfgs[i], ds)
		if err != nil {
			return nil, err
		}

		targets = append(targets, target)
	}

	return targets, nil
}
