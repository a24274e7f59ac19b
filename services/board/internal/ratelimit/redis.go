package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter shared by every instance pointing at the
// same Redis.
// incrWindow bumps the counter and arms its expiry in one step. A counter
// found without a TTL gets one, so a key can never outlive its window.
var incrWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 or redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

type Redis struct {
	client *redis.Client
	limit  int
	period time.Duration
	prefix string
}

// NewRedis parses dsn as a redis:// URL, falling back to a bare host:port.
func NewRedis(dsn string, limit int, period time.Duration) *Redis {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		opts = &redis.Options{Addr: dsn}
	}
	return NewRedisWithClient(redis.NewClient(opts), limit, period)
}

func NewRedisWithClient(client *redis.Client, limit int, period time.Duration) *Redis {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if period <= 0 {
		period = DefaultWindow
	}
	return &Redis{client: client, limit: limit, period: period, prefix: "findme:ratelimit:"}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	n, err := incrWindow.Run(ctx, r.client, []string{r.prefix + key}, r.period.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n <= int64(r.limit), nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
