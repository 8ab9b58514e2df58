package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRunMarkerStore(t *testing.T) {
	db, err := NewSQLiteConnection(filepath.Join(t.TempDir(), "state", "runmarker.db"))
	require.NoError(t, err)
	defer db.Close()

	store, err := NewSQLiteRunMarkerStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.False(t, ok)

	first := time.Date(2024, 4, 20, 8, 30, 0, 0, time.UTC)
	require.NoError(t, store.Set(ctx, "owner-1", first))
	second := first.Add(26 * time.Hour)
	require.NoError(t, store.Set(ctx, "owner-1", second))

	got, ok, err := store.Get(ctx, "owner-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, second.Equal(got))

	_, ok, err = store.Get(ctx, "owner-2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Clear(ctx, "owner-1"))
	_, ok, err = store.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Migration is idempotent.
	_, err = NewSQLiteRunMarkerStore(db)
	require.NoError(t, err)
}
