package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRedisRunMarkerStore_Integration requires a running Redis.
// We skip if connection fails.
func TestRedisRunMarkerStore_Integration(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, "localhost:6379", "", 0)
	if err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}
	defer client.Close()

	store := NewRedisRunMarkerStore(client)
	owner := "test-owner-" + uuid.NewString()
	defer client.Del(ctx, runMarkerKey(owner))

	_, ok, err := store.Get(ctx, owner)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 4, 20, 10, 30, 0, 123, time.UTC)
	require.NoError(t, store.Set(ctx, owner, at))
	got, ok, err := store.Get(ctx, owner)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.Equal(got))

	require.NoError(t, store.Clear(ctx, owner))
	_, ok, err = store.Get(ctx, owner)
	require.NoError(t, err)
	assert.False(t, ok)
}
