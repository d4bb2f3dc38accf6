package harness

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RunConsecutive invokes the target Calls times. Each call starts after the
// previous one returned; the first failure discards the partial timing.
func (h *harness) RunConsecutive(ctx context.Context, target Target) (*TimingResult, error) {
	if err := checkTarget(target); err != nil {
		return nil, h.fail(ctx, target, Consecutive, err)
	}

	log := h.log.WithFields(logrus.Fields{
		"target":     target.Label,
		"discipline": Consecutive,
		"calls":      h.cfg.Calls,
	})

	log.Debug("Timer started")

	start := time.Now()

	for i := 0; i < h.cfg.Calls; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := h.invoke(ctx, target, Consecutive, i); err != nil {
			log.WithError(err).Debug("Timer discarded")

			return nil, h.fail(ctx, target, Consecutive, err)
		}
	}

	result := &TimingResult{
		Label:      target.Label,
		Discipline: Consecutive,
		Calls:      h.cfg.Calls,
		Elapsed:    time.Since(start),
	}

	log.WithField("elapsed", result.Elapsed).Debug("Timer stopped")
	h.reporter.Record(*result)

	return result, nil
}

// RunConcurrent dispatches all Calls invocations before awaiting any and
// reports the time from first dispatch to last completion. The first
// failure cancels the remaining calls; all of them are still joined.
func (h *harness) RunConcurrent(ctx context.Context, target Target) (*TimingResult, error) {
	if err := checkTarget(target); err != nil {
		return nil, h.fail(ctx, target, Concurrent, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := h.log.WithFields(logrus.Fields{
		"target":     target.Label,
		"discipline": Concurrent,
		"calls":      h.cfg.Calls,
	})

	log.Debug("Timer started")

	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()

	for i := 0; i < h.cfg.Calls; i++ {
		g.Go(func() error {
			return h.invoke(gctx, target, Concurrent, i)
		})
	}

	err := g.Wait()
	elapsed := time.Since(start)

	if err != nil {
		log.WithError(err).Debug("Timer discarded")

		return nil, h.fail(ctx, target, Concurrent, err)
	}

	result := &TimingResult{
		Label:      target.Label,
		Discipline: Concurrent,
		Calls:      h.cfg.Calls,
		Elapsed:    elapsed,
	}

	log.WithField("elapsed", result.Elapsed).Debug("Timer stopped")
	h.reporter.Record(*result)

	return result, nil
}
