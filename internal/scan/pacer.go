package scan

import (
	"context"
	"time"
)

// Pacer spaces out per-target work so one cycle stays inside upstream rate
// limits. Every Wait sleeps the full delay.
type Pacer struct {
	delay time.Duration
}

func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

func (p *Pacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
