// Package cache keeps short-lived Redis projections of per-account call
// lists. The source of truth is Postgres; everything here may vanish at any
// moment, so callers treat a miss and an error the same way and fall through
// to the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"receptionist-platform/internal/store"
	"receptionist-platform/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 30 * time.Second

// Calls caches call-list projections keyed by account. Keys carry a version
// segment so a struct change never deserializes stale shapes.
type Calls struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCalls(rdb *redis.Client, ttl time.Duration) *Calls {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Calls{rdb: rdb, ttl: ttl}
}

func callsKey(userID string) string {
	return fmt.Sprintf("calls:v1:user:%s", userID)
}

// Get returns the cached list for an account, or ok=false on miss, error, or
// when no filter-free projection was stored.
func (c *Calls) Get(ctx context.Context, userID string) ([]store.Call, bool) {
	if c == nil || c.rdb == nil || userID == "" {
		return nil, false
	}
	b, err := c.rdb.Get(ctx, callsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.From(ctx).Warn("cache read failed", "error", err)
		return nil, false
	}
	var calls []store.Call
	if err := json.Unmarshal(b, &calls); err != nil {
		// Stale shape from an older build; drop it.
		_ = c.rdb.Del(ctx, callsKey(userID)).Err()
		return nil, false
	}
	return calls, true
}

// Set stores the list for an account. Failures are logged and swallowed.
func (c *Calls) Set(ctx context.Context, userID string, calls []store.Call) {
	if c == nil || c.rdb == nil || userID == "" {
		return
	}
	b, err := json.Marshal(calls)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, callsKey(userID), b, c.ttl).Err(); err != nil {
		logger.From(ctx).Warn("cache write failed", "error", err)
	}
}

// InvalidateCalls drops the account's projection after any call write.
func (c *Calls) InvalidateCalls(ctx context.Context, userID string) {
	if c == nil || c.rdb == nil || userID == "" {
		return
	}
	if err := c.rdb.Del(ctx, callsKey(userID)).Err(); err != nil {
		logger.From(ctx).Warn("cache invalidation failed", "error", err, "user_id", userID)
	}
}
