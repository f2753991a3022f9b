package crawler

import (
	"context"
	"math/rand"
	"time"
)

// Pacer waits a random duration in [Min, Max]
type Pacer struct {
	Min time.Duration
	Max time.Duration
}

// Delay picks the next delay
func (p Pacer) Delay() time.Duration {
	if p.Max <= p.Min {
		return p.Min
	}
	return p.Min + time.Duration(rand.Int63n(int64(p.Max-p.Min)+1))
}

// Wait sleeps for Delay or until ctx is done
func (p Pacer) Wait(ctx context.Context) error {
	return sleep(ctx, p.Delay())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
