package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// lockHolder is the opaque marker stored under the lock key.
const lockHolder = "LOCKED"

// Locker implements repository.Locker on Redis SETNX. The TTL bounds how
// long a crashed holder can block others.
type Locker struct {
	client *redis.Client
}

// NewLocker creates a new Redis-backed lock coordinator.
func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client}
}

// Acquire attempts to take the lock with a single atomic SET NX EX. It never
// reads before writing, so two concurrent acquirers cannot both succeed.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, lockHolder, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx lock: %w", err)
	}
	return ok, nil
}

// Release unconditionally deletes the lock key.
func (l *Locker) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del lock: %w", err)
	}
	return nil
}
