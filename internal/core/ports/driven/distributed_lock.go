package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates work across instances.
// The sales sync uses it to keep two processes from replacing the same
// store window at once; the scheduler uses it to enqueue a due task only once.
type DistributedLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns false when another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock. Safe to call when the lock is not held.
	Release(ctx context.Context, name string) error

	// Extend extends the TTL of a currently held lock.
	// Not every backend supports TTLs (PostgreSQL advisory locks do not).
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
