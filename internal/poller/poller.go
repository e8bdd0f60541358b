// Package poller implements the client-side refresh contract for progress
// projections: a fixed-interval fetch that runs while any submission is in
// flight, never overlaps itself, and stops on cancellation.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/playperu/cityhunt/internal/cityhunt"
)

// DefaultInterval matches the reference client refresh period.
const DefaultInterval = 10 * time.Second

// maxBackoffTicks caps how many ticks are skipped after repeated fetch errors.
const maxBackoffTicks = 8

// FetchFunc retrieves the current progress projection for one hunt+team pair.
type FetchFunc func(ctx context.Context) (cityhunt.Progress, error)

type Poller struct {
	interval time.Duration
	fetch    FetchFunc
	onUpdate func(cityhunt.Progress)
	logger   *slog.Logger
}

// New builds a poller. onUpdate receives every successful fetch result and
// may be nil. A non-positive interval falls back to DefaultInterval.
func New(interval time.Duration, fetch FetchFunc, onUpdate func(cityhunt.Progress), logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if onUpdate == nil {
		onUpdate = func(cityhunt.Progress) {}
	}
	return &Poller{
		interval: interval,
		fetch:    fetch,
		onUpdate: onUpdate,
		logger:   logger,
	}
}

// Run fetches immediately and then once per tick until no submission is in
// flight or ctx is cancelled. Fetches run on the loop goroutine, so two can
// never overlap; a tick that queued while a slow fetch ran is drained, not
// replayed. Transport errors are logged and retried with a growing number of
// skipped ticks; they never end the loop on their own.
func (p *Poller) Run(ctx context.Context) error {
	errs := 0

	runFetch := func() (stop bool) {
		progress, err := p.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			errs++
			p.logger.Warn("progress fetch failed", "attempt", errs, "error", err)
			return false
		}
		errs = 0
		p.onUpdate(progress)
		return !progress.InFlight()
	}

	if runFetch() {
		return ctx.Err()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	skip := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if skip > 0 {
				skip--
				continue
			}
			if runFetch() {
				return ctx.Err()
			}
			// Drop the tick that may have queued during a slow fetch.
			select {
			case <-ticker.C:
			default:
			}
			if errs > 0 {
				skip = min(errs, maxBackoffTicks)
			}
		}
	}
}
