package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/example/findme-platform/internal/platform/apperr"
)

func TestMemory_FixedWindow(t *testing.T) {
	m := NewMemory(3, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := range 3 {
		if ok, _ := m.Allow(ctx, "u1"); !ok {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if ok, _ := m.Allow(ctx, "u1"); ok {
		t.Fatal("4th call should be denied")
	}
	if ok, _ := m.Allow(ctx, "u2"); !ok {
		t.Fatal("other key must have its own budget")
	}

	now = now.Add(time.Minute)
	if ok, _ := m.Allow(ctx, "u1"); !ok {
		t.Fatal("new window should allow again")
	}
}

func TestRedis_FixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 2, 5*time.Minute)
	ctx := context.Background()

	for i := range 2 {
		ok, err := r.Allow(ctx, "u1")
		if err != nil || !ok {
			t.Fatalf("call %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, _ := r.Allow(ctx, "u1"); ok {
		t.Fatal("3rd call should be denied")
	}
	if ttl := mr.TTL("findme:ratelimit:u1"); ttl != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %s", ttl)
	}

	mr.FastForward(5 * time.Minute)
	if ok, _ := r.Allow(ctx, "u1"); !ok {
		t.Fatal("expired window should allow again")
	}
}

func TestRedis_CounterWithoutTTLRecovers(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 2, time.Minute)
	ctx := context.Background()

	// a counter left over limit with no expiry
	if err := mr.Set("findme:ratelimit:u2", "7"); err != nil {
		t.Fatal(err)
	}
	if ok, err := r.Allow(ctx, "u2"); ok || err != nil {
		t.Fatalf("expected deny, ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL("findme:ratelimit:u2"); ttl != time.Minute {
		t.Fatalf("expected ttl re-armed to 1m, got %s", ttl)
	}

	mr.FastForward(time.Minute)
	if ok, err := r.Allow(ctx, "u2"); !ok || err != nil {
		t.Fatalf("window should reset, ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL("findme:ratelimit:u2"); ttl != time.Minute {
		t.Fatalf("new window must carry a ttl, got %s", ttl)
	}
}

func TestRedis_DSNParsing(t *testing.T) {
	mr := miniredis.RunT(t)
	for _, dsn := range []string{mr.Addr(), "redis://" + mr.Addr() + "/0"} {
		r := NewRedis(dsn, 1, time.Minute)
		if err := r.Ping(context.Background()); err != nil {
			t.Fatalf("%s: %v", dsn, err)
		}
		_ = r.Close()
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestEnforce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(1, time.Minute)

	if err := Enforce(ctx, m, nil, "u1"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := Enforce(ctx, m, nil, "u1"); apperr.KindOf(err) != apperr.KindRateLimit {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if err := Enforce(ctx, failingLimiter{}, nil, "u1"); err != nil {
		t.Fatalf("backend failure should allow, got %v", err)
	}
	if err := Enforce(ctx, nil, nil, "u1"); err != nil {
		t.Fatalf("nil limiter should allow, got %v", err)
	}
}
