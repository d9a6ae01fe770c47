// Package badgerstore persists enriched bookmarks in an embedded
// BadgerDB, the default backend for single-machine use.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
)

const recordPrefix = "bmrec:"

// Store wraps a BadgerDB instance. Records are stored as JSON values
// under keys derived from the identity digest.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

var _ bookmark.DocumentStore = (*Store)(nil)

// badgerLoggerAdapter routes BadgerDB's internal logging through zap.
type badgerLoggerAdapter struct {
	logger *zap.SugaredLogger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any)   { bl.logger.Errorf(msg, items...) }
func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) { bl.logger.Warnf(msg, items...) }
func (bl *badgerLoggerAdapter) Infof(msg string, items ...any)    { bl.logger.Debugf(msg, items...) }
func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any)   { bl.logger.Debugf(msg, items...) }

// Open opens (or creates) a store at path. An empty path opens an
// in-memory database, which tests use to avoid disk setup.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &badgerLoggerAdapter{logger: logger.Sugar()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func recordKey(id string) []byte {
	return []byte(recordPrefix + id)
}

// Existing returns the record stored for (url, source), or nil.
func (s *Store) Existing(ctx context.Context, url, source string) (*bookmark.StoredRecord, error) {
	return s.Get(ctx, bookmark.ID(url, source))
}

// Get returns the record with the given identity digest, or nil.
func (s *Store) Get(_ context.Context, id string) (*bookmark.StoredRecord, error) {
	var rec bookmark.Enriched
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(recordKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return &bookmark.StoredRecord{ID: id, Record: rec}, nil
}

// UpsertBatch writes records one transaction at a time so one bad
// record cannot sink the rest of the batch.
func (s *Store) UpsertBatch(_ context.Context, records []bookmark.Enriched) (bookmark.UpsertResult, error) {
	var result bookmark.UpsertResult
	for _, rec := range records {
		id := bookmark.ID(rec.URL, rec.Source)
		value, err := json.Marshal(rec)
		if err != nil {
			result.Failed = append(result.Failed, bookmark.UpsertFailure{URL: rec.URL, Source: rec.Source, Err: err})
			continue
		}
		err = s.db.Update(func(tx *badger.Txn) error {
			return tx.Set(recordKey(id), value)
		})
		if err != nil {
			s.logger.Warn("badger upsert failed", zap.String("url", rec.URL), zap.Error(err))
			result.Failed = append(result.Failed, bookmark.UpsertFailure{URL: rec.URL, Source: rec.Source, Err: err})
			continue
		}
		result.Stored++
	}
	return result, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
