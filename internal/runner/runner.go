// Package runner drives an Estimator at a fixed interval and hands each
// cycle's estimate to the registered sinks.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/anchor-pose/internal/filter"
	"github.com/banshee-data/anchor-pose/internal/timeutil"
)

// DefaultInterval is the tick period used when Config.Interval is zero.
const DefaultInterval = 100 * time.Millisecond

// EstimateSink receives the estimate of every cycle.
type EstimateSink interface {
	RecordEstimate(ctx context.Context, e filter.Estimate) error
}

// SinkFunc adapts a function to EstimateSink.
type SinkFunc func(ctx context.Context, e filter.Estimate) error

// RecordEstimate calls f.
func (f SinkFunc) RecordEstimate(ctx context.Context, e filter.Estimate) error {
	return f(ctx, e)
}

// Config controls the tick loop.
type Config struct {
	Interval time.Duration
	// MaxTicks stops Run after this many cycles. Zero runs until the
	// context is cancelled.
	MaxTicks int
	// Field is used to validate every estimate.
	Field filter.FieldSize
}

// Runner owns the tick loop around one Estimator. It is the only caller of
// CalculatePose, so the estimator needs no locking.
type Runner struct {
	est   filter.Estimator
	clock timeutil.Clock
	sinks []EstimateSink
	cfg   Config

	ticks   int
	invalid int
	lastTS  int64
}

// New creates a Runner. clock may be nil to use the wall clock.
func New(est filter.Estimator, clock timeutil.Clock, cfg Config, sinks ...EstimateSink) (*Runner, error) {
	if est == nil {
		return nil, errors.New("runner: estimator is required")
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("runner: interval must be non-negative, got %s", cfg.Interval)
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Runner{est: est, clock: clock, sinks: sinks, cfg: cfg}, nil
}

// Ticks returns the number of completed cycles.
func (r *Runner) Ticks() int { return r.ticks }

// Invalid returns how many estimates failed validation.
func (r *Runner) Invalid() int { return r.invalid }

// Step runs one cycle at now. Timestamps that do not advance past the
// previous cycle (sub-millisecond ticks, clock steps) are bumped by one
// millisecond.
func (r *Runner) Step(ctx context.Context, now time.Time) (filter.Estimate, error) {
	ts := timeutil.UnixMillis(now)
	if r.ticks > 0 && ts <= r.lastTS {
		filter.Diagf("tick at %d does not advance past %d, using %d", ts, r.lastTS, r.lastTS+1)
		ts = r.lastTS + 1
	}

	pose, err := r.est.CalculatePose(ts)
	if err != nil {
		return filter.Estimate{}, fmt.Errorf("tick %d: %w", r.ticks, err)
	}
	r.lastTS = ts
	r.ticks++

	e := filter.Estimate{
		Timestamp:  ts,
		Pose:       pose,
		Validation: filter.ValidatePose(pose, r.cfg.Field),
	}
	if !e.Validation.Valid {
		r.invalid++
		filter.Opsf("estimate at %d failed validation: %v", ts, e.Validation.Issues)
	}

	for _, s := range r.sinks {
		if err := s.RecordEstimate(ctx, e); err != nil {
			return e, fmt.Errorf("record estimate at %d: %w", ts, err)
		}
	}
	return e, nil
}

// Run ticks until ctx is cancelled or MaxTicks cycles have completed. It
// returns nil in both cases and the first cycle or sink error otherwise.
func (r *Runner) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	filter.Opsf("runner started: interval=%s max_ticks=%d", r.cfg.Interval, r.cfg.MaxTicks)
	for {
		if r.cfg.MaxTicks > 0 && r.ticks >= r.cfg.MaxTicks {
			filter.Opsf("runner finished after %d ticks (%d invalid)", r.ticks, r.invalid)
			return nil
		}
		select {
		case <-ctx.Done():
			filter.Opsf("runner stopped after %d ticks: %v", r.ticks, ctx.Err())
			return nil
		case now := <-ticker.C():
			if _, err := r.Step(ctx, now); err != nil {
				return err
			}
		}
	}
}
