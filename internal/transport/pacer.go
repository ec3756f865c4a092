package transport

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces outgoing requests by a fixed delay. The first request goes
// out immediately.
type Pacer struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time
	now   func() time.Time
}

// NewPacer creates a pacer. A zero delay never waits.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay, now: time.Now}
}

// Delay returns the configured delay.
func (p *Pacer) Delay() time.Duration {
	return p.delay
}

// Wait blocks until the delay since the previous request has passed or ctx
// is done.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.delay > 0 && !p.last.IsZero() {
		if wait := p.delay - p.now().Sub(p.last); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	p.last = p.now()
	return nil
}
