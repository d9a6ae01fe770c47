package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
)

// jsonlFile is an append-only JSONL writer shared by both log kinds.
type jsonlFile struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

func openJSONL(path string) (*jsonlFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	return &jsonlFile{file: file, enc: json.NewEncoder(file)}, nil
}

func (j *jsonlFile) write(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(v); err != nil {
		return fmt.Errorf("append log line: %w", err)
	}
	return nil
}

func (j *jsonlFile) close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// RecordLog appends every enriched record, valid or placeholder, to a
// JSONL audit trail independent of the document store.
type RecordLog struct {
	f *jsonlFile
}

// OpenRecordLog opens (or creates) the record log at path.
func OpenRecordLog(path string) (*RecordLog, error) {
	f, err := openJSONL(path)
	if err != nil {
		return nil, err
	}
	return &RecordLog{f: f}, nil
}

// Append writes one enriched record as a single JSON line.
func (l *RecordLog) Append(ctx context.Context, rec bookmark.Enriched) error {
	return l.f.write(ctx, rec)
}

// Close flushes and closes the underlying file.
func (l *RecordLog) Close() error {
	return l.f.close()
}

// ErrorLog appends storable failure entries to a JSONL file.
type ErrorLog struct {
	f *jsonlFile
}

// OpenErrorLog opens (or creates) the error log at path.
func OpenErrorLog(path string) (*ErrorLog, error) {
	f, err := openJSONL(path)
	if err != nil {
		return nil, err
	}
	return &ErrorLog{f: f}, nil
}

// Append writes one failure entry as a single JSON line.
func (l *ErrorLog) Append(ctx context.Context, entry bookmark.ErrorEntry) error {
	return l.f.write(ctx, entry)
}

// Close flushes and closes the underlying file.
func (l *ErrorLog) Close() error {
	return l.f.close()
}
