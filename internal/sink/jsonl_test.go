package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestRecordLogAppendsOneJSONObjectPerLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.jsonl")
	log, err := OpenRecordLog(path)
	require.NoError(t, err)

	recs := []bookmark.Enriched{
		{URL: "https://example.com/a", Source: "chrome", Summary: "First summary."},
		{URL: "https://example.com/b", Source: "firefox", Summary: "Second summary."},
	}
	for _, rec := range recs {
		require.NoError(t, log.Append(context.Background(), rec))
	}
	require.NoError(t, log.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	for i, line := range lines {
		var got bookmark.Enriched
		require.NoError(t, json.Unmarshal([]byte(line), &got))
		assert.Equal(t, recs[i].URL, got.URL)
		assert.Equal(t, recs[i].Summary, got.Summary)
	}
}

func TestRecordLogAppendsAcrossReopens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.jsonl")

	log, err := OpenRecordLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(context.Background(), bookmark.Enriched{URL: "https://example.com/1"}))
	require.NoError(t, log.Close())

	log, err = OpenRecordLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(context.Background(), bookmark.Enriched{URL: "https://example.com/2"}))
	require.NoError(t, log.Close())

	assert.Len(t, readLines(t, path), 2, "reopening must append, not truncate")
}

func TestErrorLogAppend(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "errors.jsonl")
	log, err := OpenErrorLog(path)
	require.NoError(t, err)

	entry := bookmark.ErrorEntry{
		URL:       "https://example.com/private",
		Name:      "Private",
		Reason:    "Authentication required or access denied",
		Timestamp: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, log.Append(context.Background(), entry))
	require.NoError(t, log.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	var got bookmark.ErrorEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, entry, got)
}

func TestAppendHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.jsonl")
	log, err := OpenRecordLog(path)
	require.NoError(t, err)
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, log.Append(ctx, bookmark.Enriched{URL: "https://example.com"}))
}

func TestOpenCreatesParentDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deep", "logs", "errors.jsonl")
	log, err := OpenErrorLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)
}
