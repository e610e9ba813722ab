// internal/common/flight/guard.go
package flight

import (
	"context"
	"sync/atomic"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/metrics"

	"golang.org/x/sync/semaphore"
)

// Guard allows at most one in-flight mutating request per form. A second
// attempt while one is running fails fast instead of queueing.
type Guard struct {
	form string
	sem  *semaphore.Weighted
	busy atomic.Bool
}

func NewGuard(form string) *Guard {
	return &Guard{form: form, sem: semaphore.NewWeighted(1)}
}

// Do runs fn if no other call is in flight for this form.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if !g.sem.TryAcquire(1) {
		return errors.NewRequestInFlightError(g.form)
	}
	defer g.sem.Release(1)
	g.busy.Store(true)
	defer g.busy.Store(false)

	inFlight := metrics.SubmissionsInFlight.WithLabelValues(g.form)
	inFlight.Inc()
	defer inFlight.Dec()
	return fn(ctx)
}

// Busy reports whether a request is currently in flight.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
