// Package lock provides the per-campaign dispatch lease. At most one
// dispatch loop may be in flight per campaign id: a rapid double-start must
// not double-send.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker hands out single-holder leases keyed by campaign id. Leases carry a
// TTL so a crashed loop owner is recovered after expiry; a live owner
// refreshes its lease every iteration.
type Locker interface {
	// Acquire returns true when the lease was obtained, false when another
	// holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Refresh extends a held lease. No-op when the lease expired meanwhile.
	Refresh(ctx context.Context, key string, ttl time.Duration) error

	Release(ctx context.Context, key string) error
}

const keyPrefix = "lock:campaign:"

// RedisLocker is the production Locker: SET NX PX on a namespaced key.
type RedisLocker struct {
	rds *redis.Client
}

func NewRedisLocker(rds *redis.Client) *RedisLocker {
	return &RedisLocker{rds: rds}
}

var _ Locker = (*RedisLocker)(nil)

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rds.SetNX(ctx, keyPrefix+key, 1, ttl).Result()
}

func (l *RedisLocker) Refresh(ctx context.Context, key string, ttl time.Duration) error {
	return l.rds.PExpire(ctx, keyPrefix+key, ttl).Err()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.rds.Del(ctx, keyPrefix+key).Err()
}

// MemoryLocker keeps leases in process memory. Used in tests and single-node
// deployments running without redis.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]time.Time // expiry per key
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{leases: make(map[string]time.Time)}
}

var _ Locker = (*MemoryLocker)(nil)

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if exp, held := l.leases[key]; held && time.Now().Before(exp) {
		return false, nil
	}
	l.leases[key] = time.Now().Add(ttl)
	return true, nil
}

func (l *MemoryLocker) Refresh(_ context.Context, key string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.leases[key]; held {
		l.leases[key] = time.Now().Add(ttl)
	}
	return nil
}

func (l *MemoryLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.leases, key)
	return nil
}
