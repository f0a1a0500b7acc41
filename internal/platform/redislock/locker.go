// Package redislock implements the ReconcileLocker interface with Redis.
// A SETNX key with a TTL serializes reconciliation attempts for one order,
// so a webhook delivery racing a synchronous verify call on the same session
// cannot interleave read-modify-write cycles.
package redislock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a crashed reconciliation can hold a lock.
const DefaultTTL = 30 * time.Second

// Locker implements domain.ReconcileLocker.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker creates a reconciliation locker on the given Redis client.
// A non-positive ttl falls back to DefaultTTL.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Locker{client: client, ttl: ttl}
}

// Acquire takes the lock for the given key. Returns false when another
// reconciliation currently holds it.
func (l *Locker) Acquire(ctx context.Context, key string) (bool, error) {
	return l.client.SetNX(ctx, lockKey(key), "1", l.ttl).Result()
}

// Release frees the lock for the given key.
func (l *Locker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, lockKey(key)).Err()
}

func lockKey(key string) string {
	return "reconcile:" + key
}
