package fetch

import (
	"context"
	"sync"
	"time"
)

// DefaultPaceInterval is the minimum spacing between network fetches.
const DefaultPaceInterval = 1 * time.Second

// Pacer enforces a minimum wall-clock interval between network calls.
// It owns the "time of last network call" explicitly so the budget is
// shared across every caller rather than living in package state, and
// stays shared if processing is ever parallelized.
//
// Cache hits never touch the pacer; only real network fetches pay the
// interval.
type Pacer struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a pacer with the given minimum interval. A zero or
// negative interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Wait blocks until at least the configured interval has elapsed since
// the previous network call, then records the current call. It returns
// early with the context error on cancellation.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.interval > 0 && !p.last.IsZero() {
		elapsed := p.now().Sub(p.last)
		if remaining := p.interval - elapsed; remaining > 0 {
			if err := p.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}

	p.last = p.now()
	return nil
}
