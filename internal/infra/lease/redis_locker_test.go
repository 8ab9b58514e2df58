package lease

import (
	"context"
	"testing"
	"time"

	"recurring_ledger/internal/domain/runmarker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRedisLocker_Integration requires a running Redis.
// We skip if connection fails.
func TestRedisLocker_Integration(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	locker := NewRedisLocker(client)
	owner := "test-owner-" + uuid.NewString()
	defer client.Del(ctx, leaseKey(owner))

	first, err := locker.TryAcquire(ctx, owner, time.Second)
	require.NoError(t, err)

	_, err = locker.TryAcquire(ctx, owner, time.Second)
	assert.ErrorIs(t, err, runmarker.ErrLeaseHeld)

	// Let the lease expire and be taken over; the stale holder must not free the new lease.
	time.Sleep(1100 * time.Millisecond)
	second, err := locker.TryAcquire(ctx, owner, time.Minute)
	require.NoError(t, err)
	require.NoError(t, first.Release(ctx))

	_, err = locker.TryAcquire(ctx, owner, time.Minute)
	assert.ErrorIs(t, err, runmarker.ErrLeaseHeld)

	require.NoError(t, second.Release(ctx))
	third, err := locker.TryAcquire(ctx, owner, time.Minute)
	require.NoError(t, err)
	assert.NoError(t, third.Release(ctx))
}
