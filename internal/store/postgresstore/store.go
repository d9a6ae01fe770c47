// Package postgresstore persists enriched bookmarks in Postgres for
// deployments where several processes share one document store.
package postgresstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// Store writes bookmark rows into Postgres keyed by identity digest.
type Store struct {
	pool   querier
	table  string
	logger *zap.Logger
}

var _ bookmark.DocumentStore = (*Store)(nil)

// New creates a Postgres-backed store using the provided config.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewWithPool(pool, cfg.Table, logger)
}

// NewWithPool constructs a store from an existing pool (primarily for
// testing).
func NewWithPool(pool querier, table string, logger *zap.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "bookmarks"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, table: table, logger: logger}, nil
}

// Existing returns the record stored for (url, source), or nil.
func (s *Store) Existing(ctx context.Context, url, source string) (*bookmark.StoredRecord, error) {
	return s.Get(ctx, bookmark.ID(url, source))
}

// Get returns the record with the given identity digest, or nil.
func (s *Store) Get(ctx context.Context, id string) (*bookmark.StoredRecord, error) {
	query := fmt.Sprintf(`
SELECT id, url, name, folder, source, summary, body_text, fetched_at
FROM %s WHERE id = $1`, s.table)

	var rec bookmark.StoredRecord
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.Record.URL,
		&rec.Record.Name,
		&rec.Record.Folder,
		&rec.Record.Source,
		&rec.Record.Summary,
		&rec.Record.BodyText,
		&rec.Record.FetchedAt,
	)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("select bookmark: %w", err)
	}
	return &rec, nil
}

// UpsertBatch upserts records one at a time; a failed row is reported
// and does not abort the remainder of the batch.
func (s *Store) UpsertBatch(ctx context.Context, records []bookmark.Enriched) (bookmark.UpsertResult, error) {
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, url, name, folder, source, summary, body_text, fetched_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	folder = EXCLUDED.folder,
	summary = EXCLUDED.summary,
	body_text = EXCLUDED.body_text,
	fetched_at = EXCLUDED.fetched_at`, s.table)

	var result bookmark.UpsertResult
	for _, rec := range records {
		id := bookmark.ID(rec.URL, rec.Source)
		args := []any{
			id,
			rec.URL,
			rec.Name,
			rec.Folder,
			rec.Source,
			rec.Summary,
			rec.BodyText,
			rec.FetchedAt,
		}
		if _, err := s.pool.Exec(ctx, query, args...); err != nil {
			s.logger.Warn("postgres upsert failed", zap.String("url", rec.URL), zap.Error(err))
			result.Failed = append(result.Failed, bookmark.UpsertFailure{URL: rec.URL, Source: rec.Source, Err: err})
			continue
		}
		result.Stored++
	}
	return result, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
