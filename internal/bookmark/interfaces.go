package bookmark

import (
	"context"
	"time"
)

// DocumentStore persists enriched records keyed by the (url, source)
// identity digest. Implementations must make UpsertBatch idempotent so
// re-running a batch after a crash never duplicates rows.
type DocumentStore interface {
	// Existing returns the stored record for (url, source), or nil if
	// the pair has never been stored.
	Existing(ctx context.Context, url, source string) (*StoredRecord, error)
	// UpsertBatch writes records one at a time and reports how many
	// were persisted plus the identities of those that were not.
	UpsertBatch(ctx context.Context, records []Enriched) (UpsertResult, error)
	// Get fetches a record by its identity digest.
	Get(ctx context.Context, id string) (*StoredRecord, error)
	Close() error
}

// UpsertResult reports the outcome of a batch upsert. Stored counts the
// records persisted; Failed identifies the ones that were not so the
// caller can keep them out of the processed-URL ledger.
type UpsertResult struct {
	Stored int
	Failed []UpsertFailure
}

// UpsertFailure names a record that could not be persisted.
type UpsertFailure struct {
	URL    string
	Source string
	Err    error
}

// Ledger is the append-only set of URLs already processed. It is
// independent of document-store state and is consulted before any
// network work is scheduled.
type Ledger interface {
	IsProcessed(url string) bool
	AddMany(urls []string) error
}

// RecordLog appends enriched records, one JSON object per line.
type RecordLog interface {
	Append(ctx context.Context, rec Enriched) error
}

// ErrorLog appends failure entries, one JSON object per line.
type ErrorLog interface {
	Append(ctx context.Context, entry ErrorEntry) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
