// Package watcher keeps the content pipeline correct across SPA navigations,
// where the URL and DOM change without any page-load signal.
package watcher

import (
	"context"
	"time"

	"marketpilot/internal/types"
)

// DefaultSettleDelay is how long a detected navigation is given to finish
// rendering before extraction runs. A fixed delay is simpler than a
// mutation-quiescence heuristic; the trade-off is extracting from a
// half-rendered page on slow transitions, or re-running on trivial DOM churn
// that also changed the URL.
const DefaultSettleDelay = time.Second

// PageURL supplies the live page's current location.
type PageURL interface {
	CurrentURL(ctx context.Context) (string, error)
}

// Watcher owns the last-seen URL for one content session and re-runs the
// pipeline when a mutation signal reveals the URL changed. It is driven from
// a single goroutine; scheduled re-runs fire on their own timers.
//
// Deliberately not reentrancy-guarded: two URL changes inside the settle
// window schedule two re-runs and both fire. Downstream consumers tolerate
// duplicate announcements.
type Watcher struct {
	page    PageURL
	settle  time.Duration
	run     func(ctx context.Context)
	logger  types.Logger
	lastURL string
}

// New creates a watcher that invokes run for every settled navigation.
// A non-positive settle falls back to DefaultSettleDelay.
func New(page PageURL, settle time.Duration, run func(ctx context.Context), logger types.Logger) *Watcher {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Watcher{page: page, settle: settle, run: run, logger: logger}
}

// Start runs the pipeline once immediately, then consumes mutation signals
// until the context ends or the channel closes.
func (w *Watcher) Start(ctx context.Context, mutations <-chan struct{}) {
	if u, err := w.page.CurrentURL(ctx); err == nil {
		w.lastURL = u
	}
	w.run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-mutations:
			if !ok {
				return
			}
			w.OnMutation(ctx)
		}
	}
}

// OnMutation handles one mutation signal: the DOM changed, so the URL may
// have too. Only an actual URL change schedules a re-run, after the settle
// delay, so the SPA can finish rendering first.
func (w *Watcher) OnMutation(ctx context.Context) {
	current, err := w.page.CurrentURL(ctx)
	if err != nil {
		w.logger.Debugf("failed to read current url: %v", err)
		return
	}
	if current == "" || current == w.lastURL {
		return
	}
	w.lastURL = current
	w.logger.Debugf("navigation detected: %s", current)
	time.AfterFunc(w.settle, func() {
		w.run(ctx)
	})
}
