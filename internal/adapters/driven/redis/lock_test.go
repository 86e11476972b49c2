package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const syncLockName = "sales-sync:saron1:2024-01-01:2024-01-31"

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestLock_OwnerIDsDiffer(t *testing.T) {
	client, _ := newTestClient(t)

	a, b := NewLock(client), NewLock(client)
	assert.NotEmpty(t, a.OwnerID())
	assert.NotEqual(t, a.OwnerID(), b.OwnerID())
}

func TestLock_AcquireStoresOwnerWithTTL(t *testing.T) {
	client, mr := newTestClient(t)
	lock := NewLock(client)

	ok, err := lock.Acquire(context.Background(), syncLockName, 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	val, err := mr.Get(lockPrefix + syncLockName)
	require.NoError(t, err)
	assert.Equal(t, lock.OwnerID(), val)
	assert.Equal(t, 30*time.Minute, mr.TTL(lockPrefix+syncLockName))
}

func TestLock_SecondProcessRejected(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	first, second := NewLock(client), NewLock(client)

	ok, err := first.Acquire(ctx, syncLockName, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx, syncLockName, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// not reentrant either
	ok, err = first.Acquire(ctx, syncLockName, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLock_DistinctWindowsIndependent(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	lock := NewLock(client)

	for _, name := range []string{
		"sales-sync:saron1:2024-01-01:2024-01-31",
		"sales-sync:saron2:2024-01-01:2024-01-31",
		"sales-sync:saron1:2024-02-01:2024-02-29",
	} {
		ok, err := lock.Acquire(ctx, name, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}
}

func TestLock_ReleaseOnlyByOwner(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()
	owner, other := NewLock(client), NewLock(client)

	_, err := owner.Acquire(ctx, syncLockName, time.Minute)
	require.NoError(t, err)

	require.NoError(t, other.Release(ctx, syncLockName))
	assert.True(t, mr.Exists(lockPrefix+syncLockName))

	require.NoError(t, owner.Release(ctx, syncLockName))
	assert.False(t, mr.Exists(lockPrefix+syncLockName))

	ok, err := other.Acquire(ctx, syncLockName, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_ReleaseNotHeld(t *testing.T) {
	client, _ := newTestClient(t)
	assert.NoError(t, NewLock(client).Release(context.Background(), "scheduler"))
}

func TestLock_ExpiredLockCanBeRetaken(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()
	first, second := NewLock(client), NewLock(client)

	_, err := first.Acquire(ctx, "scheduler", 10*time.Second)
	require.NoError(t, err)
	mr.FastForward(11 * time.Second)

	ok, err := second.Acquire(ctx, "scheduler", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_Extend(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()
	owner, other := NewLock(client), NewLock(client)

	_, err := owner.Acquire(ctx, "scheduler", time.Minute)
	require.NoError(t, err)

	require.NoError(t, owner.Extend(ctx, "scheduler", 5*time.Minute))
	assert.Equal(t, 5*time.Minute, mr.TTL(lockPrefix+"scheduler"))

	assert.Error(t, other.Extend(ctx, "scheduler", time.Hour))
	assert.Error(t, owner.Extend(ctx, "missing", time.Hour))
}

func TestLock_Ping(t *testing.T) {
	client, mr := newTestClient(t)
	lock := NewLock(client)

	assert.NoError(t, lock.Ping(context.Background()))
	mr.Close()
	assert.Error(t, lock.Ping(context.Background()))
}
