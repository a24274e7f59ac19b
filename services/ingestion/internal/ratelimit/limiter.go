package ratelimit

import (
	"context"
	"time"
)

// Pacer blocks between successive upstream calls.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Delay is a fixed blocking pause, cut short only by ctx.
type Delay struct {
	d time.Duration
}

func NewDelay(d time.Duration) *Delay {
	return &Delay{d: d}
}

func (l *Delay) Wait(ctx context.Context) error {
	if l == nil || l.d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(l.d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
