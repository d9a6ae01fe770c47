// Package memory provides an in-process document store used in tests
// and for dry runs.
package memory

import (
	"context"
	"sync"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
)

// Store keeps records in a map keyed by identity digest.
type Store struct {
	mu      sync.RWMutex
	records map[string]bookmark.Enriched
}

var _ bookmark.DocumentStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{records: make(map[string]bookmark.Enriched)}
}

// Existing returns the record stored for (url, source), or nil.
func (s *Store) Existing(_ context.Context, url, source string) (*bookmark.StoredRecord, error) {
	return s.get(bookmark.ID(url, source))
}

// Get returns the record with the given identity digest, or nil.
func (s *Store) Get(_ context.Context, id string) (*bookmark.StoredRecord, error) {
	return s.get(id)
}

func (s *Store) get(id string) (*bookmark.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &bookmark.StoredRecord{ID: id, Record: rec}, nil
}

// UpsertBatch stores each record under its identity digest,
// overwriting any earlier version.
func (s *Store) UpsertBatch(_ context.Context, records []bookmark.Enriched) (bookmark.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.records[bookmark.ID(rec.URL, rec.Source)] = rec
	}
	return bookmark.UpsertResult{Stored: len(records)}, nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
