package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBatchInterval is the minimum spacing between provider batches.
const DefaultBatchInterval = time.Second

// Pacer spaces out provider batches with a token bucket and keeps at most
// one batch in flight. The first batch runs immediately; each later batch
// starts no sooner than one interval after the previous one started.
type Pacer struct {
	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewPacer creates a pacer allowing one batch per interval.
// A non-positive interval disables pacing but still serialises batches.
func NewPacer(interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{limiter: rate.NewLimiter(limit, 1)}
}

// Do waits for the next slot and runs fn while holding it.
func (p *Pacer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}
