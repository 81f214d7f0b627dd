package server

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces a per-user message budget over a fixed one-minute
// window via Redis INCR/EXPIRE. A nil client or zero limit disables limiting,
// so single-node dev setups run without Redis.
type RateLimiter struct {
	Rdb      *redis.Client
	PerMin   int
	KeySpace string
}

func NewRateLimiter(rdb *redis.Client, perMinute int) *RateLimiter {
	return &RateLimiter{Rdb: rdb, PerMin: perMinute, KeySpace: "mindwell:ratelimit"}
}

// Allow reports whether the user may post another message this minute.
// Redis errors fail open: losing the limiter must not take down messaging.
func (r *RateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	if r == nil || r.Rdb == nil || r.PerMin <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("%s:%s:%s", r.KeySpace, userID, time.Now().UTC().Format("200601021504"))
	count, err := r.Rdb.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		_ = r.Rdb.Expire(ctx, key, 2*time.Minute).Err()
	}
	return count <= int64(r.PerMin), nil
}
