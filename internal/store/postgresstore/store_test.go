package postgresstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
)

func TestUpsertBatchInsertsRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "bookmarks", nil)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rec := bookmark.Enriched{
		URL: "https://example.com", Name: "Example", Folder: "Tech",
		Source: "chrome", Summary: "A stored summary.", BodyText: "Body.",
		FetchedAt: now,
	}
	id := bookmark.ID(rec.URL, rec.Source)

	mock.ExpectExec("INSERT INTO bookmarks").
		WithArgs(id, rec.URL, rec.Name, rec.Folder, rec.Source, rec.Summary, rec.BodyText, rec.FetchedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	result, err := store.UpsertBatch(context.Background(), []bookmark.Enriched{rec})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)
	assert.Empty(t, result.Failed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatchReportsFailedRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "bookmarks", nil)
	require.NoError(t, err)

	bad := bookmark.Enriched{URL: "https://example.com/bad", Source: "chrome"}
	good := bookmark.Enriched{URL: "https://example.com/good", Source: "chrome"}

	mock.ExpectExec("INSERT INTO bookmarks").
		WithArgs(bookmark.ID(bad.URL, bad.Source), bad.URL, bad.Name, bad.Folder, bad.Source, bad.Summary, bad.BodyText, bad.FetchedAt).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectExec("INSERT INTO bookmarks").
		WithArgs(bookmark.ID(good.URL, good.Source), good.URL, good.Name, good.Folder, good.Source, good.Summary, good.BodyText, good.FetchedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	result, err := store.UpsertBatch(context.Background(), []bookmark.Enriched{bad, good})
	require.NoError(t, err, "one bad row must not abort the batch")
	assert.Equal(t, 1, result.Stored)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "https://example.com/bad", result.Failed[0].URL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistingReturnsStoredRecord(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "bookmarks", nil)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	id := bookmark.ID("https://example.com", "chrome")
	rows := pgxmock.NewRows([]string{"id", "url", "name", "folder", "source", "summary", "body_text", "fetched_at"}).
		AddRow(id, "https://example.com", "Example", "Tech", "chrome", "A stored summary.", "Body.", now)

	mock.ExpectQuery("SELECT id, url, name, folder, source, summary, body_text, fetched_at").
		WithArgs(id).
		WillReturnRows(rows)

	stored, err := store.Existing(context.Background(), "https://example.com", "chrome")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, id, stored.ID)
	assert.Equal(t, "A stored summary.", stored.Record.Summary)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistingMissingRowReturnsNil(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "bookmarks", nil)
	require.NoError(t, err)

	id := bookmark.ID("https://example.com/missing", "chrome")
	mock.ExpectQuery("SELECT id, url, name, folder, source, summary, body_text, fetched_at").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	stored, err := store.Existing(context.Background(), "https://example.com/missing", "chrome")
	require.NoError(t, err)
	assert.Nil(t, stored)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolValidatesTableName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "bad;drop table", nil)
	require.Error(t, err)

	store, err := NewWithPool(mock, "", nil)
	require.NoError(t, err)
	assert.NotNil(t, store)
}
