package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// File is a ledger persisted as a JSON array of URLs. The whole set is
// loaded at open and rewritten on every addition; the file stays small
// (one line per few thousand bookmarks) and human-inspectable.
type File struct {
	path   string
	logger *zap.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// OpenFile loads the ledger at path, creating parent directories as
// needed. A missing file is an empty ledger; a corrupt file is an
// error rather than silent data loss.
func OpenFile(path string, logger *zap.Logger) (*File, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	f := &File{
		path:   path,
		logger: logger,
		seen:   make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	for _, u := range urls {
		f.seen[u] = struct{}{}
	}
	logger.Debug("ledger loaded", zap.String("path", path), zap.Int("urls", len(f.seen)))
	return f, nil
}

// IsProcessed reports whether url was recorded by a previous run.
func (f *File) IsProcessed(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[url]
	return ok
}

// AddMany records the URLs and persists the ledger once. Already
// recorded URLs are ignored; an empty batch is a no-op.
func (f *File) AddMany(urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	added := 0
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := f.seen[u]; !ok {
			f.seen[u] = struct{}{}
			added++
		}
	}
	if added == 0 {
		return nil
	}
	if err := f.persistLocked(); err != nil {
		return err
	}
	f.logger.Debug("ledger updated", zap.Int("added", added), zap.Int("total", len(f.seen)))
	return nil
}

// persistLocked writes the sorted URL set via a temp-file rename so a
// crash mid-write never truncates the ledger. Caller holds f.mu.
func (f *File) persistLocked() error {
	urls := make([]string, 0, len(f.seen))
	for u := range f.seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	data, err := json.MarshalIndent(urls, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger temp file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace ledger %s: %w", f.path, err)
	}
	return nil
}

// Len returns the number of recorded URLs.
func (f *File) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}
