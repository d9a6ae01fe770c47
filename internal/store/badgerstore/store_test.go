package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	missing, err := store.Existing(ctx, "https://example.com", "chrome")
	require.NoError(t, err)
	assert.Nil(t, missing)

	rec := bookmark.Enriched{
		URL: "https://example.com", Name: "Example", Folder: "Tech",
		Source: "chrome", Summary: "A summary stored in badger.",
		BodyText: "Some body text.",
	}
	result, err := store.UpsertBatch(ctx, []bookmark.Enriched{rec})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)
	assert.Empty(t, result.Failed)

	stored, err := store.Existing(ctx, "https://example.com", "chrome")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, bookmark.ID("https://example.com", "chrome"), stored.ID)
	assert.Equal(t, rec.Summary, stored.Record.Summary)
	assert.Equal(t, rec.BodyText, stored.Record.BodyText)
}

func TestBadgerStoreUpsertIdempotent(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	first := bookmark.Enriched{URL: "https://example.com", Source: "chrome", Summary: "first version"}
	second := bookmark.Enriched{URL: "https://example.com", Source: "chrome", Summary: "second version"}

	_, err := store.UpsertBatch(ctx, []bookmark.Enriched{first})
	require.NoError(t, err)
	_, err = store.UpsertBatch(ctx, []bookmark.Enriched{second})
	require.NoError(t, err)

	stored, err := store.Existing(ctx, "https://example.com", "chrome")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "second version", stored.Record.Summary)
}

func TestBadgerStoreGetUnknownID(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	rec, err := store.Get(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestBadgerStoreOnDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := Open(dir, nil)
	require.NoError(t, err)

	_, err = store.UpsertBatch(context.Background(), []bookmark.Enriched{{
		URL: "https://example.com/persist", Source: "chrome", Summary: "survives reopen",
	}})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	stored, err := reopened.Existing(context.Background(), "https://example.com/persist", "chrome")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "survives reopen", stored.Record.Summary)
}
