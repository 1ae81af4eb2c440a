package ingest_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdocs/backend/features/ingest"
	"chatdocs/backend/internal/testutils"
)

func TestPostgresStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	store := ingest.NewPostgresStore(suite.DB)
	ctx := context.Background()

	t.Run("Create And Get", func(t *testing.T) {
		f, err := store.Create(ctx, "report.md")
		require.NoError(t, err)
		require.NotEmpty(t, f.FileID)
		assert.Equal(t, ingest.StatusProcessing, f.Status)

		got, err := store.Get(ctx, f.FileID)
		require.NoError(t, err)
		assert.Equal(t, "report.md", got.Name)
		assert.Equal(t, 0, got.ChunkCount)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("Advance Is Monotonic", func(t *testing.T) {
		f, err := store.Create(ctx, "doc.txt")
		require.NoError(t, err)

		require.NoError(t, store.Advance(ctx, f.FileID, 3))
		require.NoError(t, store.Advance(ctx, f.FileID, 1)) // stale update

		got, err := store.Get(ctx, f.FileID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.ChunkCount)
	})

	t.Run("Complete Then Advance Rejected", func(t *testing.T) {
		f, err := store.Create(ctx, "doc.txt")
		require.NoError(t, err)

		require.NoError(t, store.Complete(ctx, f.FileID, 5))
		assert.ErrorIs(t, store.Advance(ctx, f.FileID, 6), ingest.ErrTerminal)

		got, err := store.Get(ctx, f.FileID)
		require.NoError(t, err)
		assert.Equal(t, ingest.StatusReady, got.Status)
		assert.Equal(t, 5, got.ChunkCount)
	})

	t.Run("Complete Is Idempotent", func(t *testing.T) {
		f, err := store.Create(ctx, "doc.txt")
		require.NoError(t, err)

		require.NoError(t, store.Complete(ctx, f.FileID, 2))
		assert.NoError(t, store.Complete(ctx, f.FileID, 2))
	})

	t.Run("Conflicting Terminal States", func(t *testing.T) {
		f, err := store.Create(ctx, "doc.txt")
		require.NoError(t, err)

		require.NoError(t, store.Fail(ctx, f.FileID, "extraction failed"))
		assert.ErrorIs(t, store.Complete(ctx, f.FileID, 2), ingest.ErrConflict)

		got, err := store.Get(ctx, f.FileID)
		require.NoError(t, err)
		assert.Equal(t, ingest.StatusFailed, got.Status)
		assert.Equal(t, "extraction failed", got.Reason)
	})

	t.Run("Get Unknown Is NotFound", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ingest.ErrNotFound)
	})

	t.Run("Count", func(t *testing.T) {
		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Greater(t, n, 0)
	})
}
