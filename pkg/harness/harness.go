// Package harness times a fixed GraphQL query against interchangeable
// executable targets, either one call after another or all at once.
package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethpandaops/stitchoor/pkg/gqlresp"
	"github.com/sirupsen/logrus"
)

// Discipline is the invocation pattern a target is timed with.
type Discipline string

const (
	// Consecutive starts each call only after the previous one completed.
	Consecutive Discipline = "consecutive"
	// Concurrent dispatches every call before awaiting any of them.
	Concurrent Discipline = "concurrent"
)

// AllDisciplines returns the disciplines in suite order.
func AllDisciplines() []Discipline {
	return []Discipline{Consecutive, Concurrent}
}

// ParseDiscipline converts a configuration string into a Discipline.
func ParseDiscipline(s string) (Discipline, error) {
	switch Discipline(s) {
	case Consecutive, Concurrent:
		return Discipline(s), nil
	default:
		return "", fmt.Errorf("unknown discipline %q", s)
	}
}

// Executable is a prepared schema that can answer a query.
type Executable interface {
	Execute(ctx context.Context, query string) (*gqlresp.Response, error)
}

// ExecutableFunc adapts a plain function to the Executable interface.
type ExecutableFunc func(ctx context.Context, query string) (*gqlresp.Response, error)

// Execute calls f(ctx, query).
func (f ExecutableFunc) Execute(ctx context.Context, query string) (*gqlresp.Response, error) {
	return f(ctx, query)
}

// Target is a labeled executable benchmarked as a unit.
type Target struct {
	Label  string
	Handle Executable
}

// TimingResult is the elapsed wall-clock time of one (target, discipline) pair.
type TimingResult struct {
	Label      string        `json:"label"`
	Discipline Discipline    `json:"discipline"`
	Calls      int           `json:"calls"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// ElapsedMillis returns the elapsed time in fractional milliseconds.
func (r *TimingResult) ElapsedMillis() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

// Config controls a benchmark run.
type Config struct {
	Calls       int
	Query       string
	CallTimeout time.Duration // zero disables the per-call deadline
	Disciplines []Discipline  // empty means all, always run in suite order
	Validator   gqlresp.Validator
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Calls < 1 {
		return fmt.Errorf("calls must be at least 1, got %d", c.Calls)
	}

	if c.Query == "" {
		return fmt.Errorf("query is required")
	}

	if c.CallTimeout < 0 {
		return fmt.Errorf("call timeout must not be negative")
	}

	for _, d := range c.Disciplines {
		if _, err := ParseDiscipline(string(d)); err != nil {
			return err
		}
	}

	return nil
}

// Harness runs targets in the consecutive and concurrent disciplines.
type Harness interface {
	// RunConsecutive invokes the target Calls times, one after another.
	RunConsecutive(ctx context.Context, target Target) (*TimingResult, error)

	// RunConcurrent dispatches Calls invocations at once and joins them.
	RunConcurrent(ctx context.Context, target Target) (*TimingResult, error)

	// RunSuite runs every target consecutively, then every target
	// concurrently. Failed pairs are reported and skipped. The returned
	// error is only ever a context error.
	RunSuite(ctx context.Context, targets []Target) ([]TimingResult, error)
}

// NewHarness creates a new harness. A nil reporter discards all events and a
// nil validator falls back to gqlresp.DefaultValidator.
func NewHarness(log logrus.FieldLogger, cfg *Config, reporter Reporter) (Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid harness config: %w", err)
	}

	if reporter == nil {
		reporter = NopReporter{}
	}

	validator := cfg.Validator
	if validator == nil {
		validator = gqlresp.DefaultValidator()
	}

	return &harness{
		log:       log.WithField("component", "harness"),
		cfg:       cfg,
		reporter:  reporter,
		validator: validator,
	}, nil
}

type harness struct {
	log       logrus.FieldLogger
	cfg       *Config
	reporter  Reporter
	validator gqlresp.Validator
}

// Ensure interface compliance.
var _ Harness = (*harness)(nil)

// RunSuite runs all configured disciplines over all targets.
func (h *harness) RunSuite(ctx context.Context, targets []Target) ([]TimingResult, error) {
	phases := h.phases()
	results := make([]TimingResult, 0, len(targets)*len(phases))

	for _, discipline := range phases {
		h.reporter.StartSection(discipline, h.cfg.Calls)

		for _, target := range targets {
			if err := ctx.Err(); err != nil {
				return results, err
			}

			result, err := h.run(ctx, discipline, target)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return results, ctxErr
				}

				h.log.WithError(err).WithFields(logrus.Fields{
					"target":     target.Label,
					"discipline": discipline,
				}).Warn("Benchmark failed, continuing with next target")

				// Continue with next target on failure.
				continue
			}

			results = append(results, *result)
		}
	}

	return results, nil
}

func (h *harness) run(ctx context.Context, discipline Discipline, target Target) (*TimingResult, error) {
	if discipline == Concurrent {
		return h.RunConcurrent(ctx, target)
	}

	return h.RunConsecutive(ctx, target)
}

// phases returns the configured disciplines in suite order.
func (h *harness) phases() []Discipline {
	if len(h.cfg.Disciplines) == 0 {
		return AllDisciplines()
	}

	enabled := make(map[Discipline]struct{}, len(h.cfg.Disciplines))
	for _, d := range h.cfg.Disciplines {
		enabled[d] = struct{}{}
	}

	phases := make([]Discipline, 0, len(enabled))

	for _, d := range AllDisciplines() {
		if _, ok := enabled[d]; ok {
			phases = append(phases, d)
		}
	}

	return phases
}

// invoke executes a single call against the target and validates the response.
func (h *harness) invoke(
	ctx context.Context,
	target Target,
	discipline Discipline,
	call int,
) error {
	if h.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, h.cfg.CallTimeout)
		defer cancel()
	}

	resp, err := target.Handle.Execute(ctx, h.cfg.Query)
	if err == nil {
		err = h.validator.Validate(target.Label, resp)
	}

	if err != nil {
		return &ExecutionError{
			Label:      target.Label,
			Discipline: discipline,
			Call:       call,
			Err:        err,
		}
	}

	return nil
}

// fail reports an execution failure. Context errors of the caller are
// returned untouched and not reported.
func (h *harness) fail(ctx context.Context, target Target, discipline Discipline, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		err = &ExecutionError{
			Label:      target.Label,
			Discipline: discipline,
			Call:       -1,
			Err:        err,
		}
	}

	h.reporter.Failure(target.Label, discipline, err)

	return err
}

func checkTarget(target Target) error {
	if target.Handle == nil {
		return fmt.Errorf("target has no executable handle")
	}

	return nil
}
