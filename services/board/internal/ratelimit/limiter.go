// Package ratelimit throttles user actions with fixed-window counters keyed
// by caller identity.
//
// Backends: Redis INCR+EXPIRE (env REDIS_DSN), shared across instances.
// Fallback: a process-local map that resets on restart (single instance only).
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/findme-platform/internal/platform/apperr"
)

const (
	DefaultLimit  = 20
	DefaultWindow = 5 * time.Minute
)

// Limiter decides whether one more action is allowed for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Enforce returns a RateLimit error when key is over its budget. Backend
// failures are logged and the action is allowed.
func Enforce(ctx context.Context, l Limiter, log *zap.Logger, key string) error {
	if l == nil {
		return nil
	}
	ok, err := l.Allow(ctx, key)
	if err != nil {
		if log != nil {
			log.Warn("rate limiter unavailable, allowing action", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	if !ok {
		return apperr.RateLimited("too many actions, try again later")
	}
	return nil
}

type window struct {
	start time.Time
	count int
}

// Memory is a fixed-window limiter held in process memory.
type Memory struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	windows map[string]*window
	now     func() time.Time
}

func NewMemory(limit int, period time.Duration) *Memory {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if period <= 0 {
		period = DefaultWindow
	}
	return &Memory{
		limit:   limit,
		period:  period,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= m.period {
		m.sweep(now)
		m.windows[key] = &window{start: now, count: 1}
		return true, nil
	}
	if w.count >= m.limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// sweep drops expired windows so idle keys do not accumulate.
func (m *Memory) sweep(now time.Time) {
	for k, w := range m.windows {
		if now.Sub(w.start) >= m.period {
			delete(m.windows, k)
		}
	}
}
