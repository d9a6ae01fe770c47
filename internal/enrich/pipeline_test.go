package enrich

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
	"github.com/droidnext/bookmark-geni-mcp/internal/ledger"
	"github.com/droidnext/bookmark-geni-mcp/internal/progress"
	"github.com/droidnext/bookmark-geni-mcp/internal/store/memory"
)

const samplePage = `<html><head>
<meta name="description" content="A practical walkthrough of worker pools in Go.">
<title>Worker Pools</title>
</head><body><article>
<p>Worker pools bound the number of goroutines doing expensive work at any moment.</p>
</article></body></html>`

type pipelineHarness struct {
	pipeline *Pipeline
	store    *memory.Store
	ledger   *ledger.Memory
	recLog   *captureRecordLog
	errLog   *captureErrorLog
	emitter  *captureEmitter
	fetches  *atomic.Int32
}

func newPipelineHarness(t *testing.T, fetch fetcherFunc) *pipelineHarness {
	t.Helper()

	h := &pipelineHarness{
		store:   memory.New(),
		ledger:  ledger.NewMemory(),
		recLog:  &captureRecordLog{},
		errLog:  &captureErrorLog{},
		emitter: newCaptureEmitter(),
		fetches: &atomic.Int32{},
	}
	counted := fetcherFunc(func(ctx context.Context, rawURL string) (string, error) {
		h.fetches.Add(1)
		return fetch(ctx, rawURL)
	})

	cfg := testWorkerConfig()
	pipeline, err := New(cfg, Deps{
		Store:     h.store,
		Ledger:    h.ledger,
		RecordLog: h.recLog,
		ErrorLog:  h.errLog,
		Fetcher:   counted,
		Emitter:   h.emitter,
		Clock:     &fakeClock{now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	h.pipeline = pipeline
	return h
}

func TestPipelineEndToEnd(t *testing.T) {
	t.Parallel()

	h := newPipelineHarness(t, func(context.Context, string) (string, error) {
		return samplePage, nil
	})

	batch := []bookmark.Candidate{
		{URL: "https://example.com/pools", Name: "Pools", Folder: "Go", Source: "chrome"},
		{URL: "https://example.com/other", Name: "Other", Source: "chrome"},
	}
	result, err := h.pipeline.EnrichBatch(context.Background(), batch)
	require.NoError(t, err)

	require.Len(t, result.Enriched, 2)
	assert.Empty(t, result.Failures)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, 2, result.Stored)
	assert.Equal(t, "A practical walkthrough of worker pools in Go.", result.Enriched[0].Summary)
	assert.NotEmpty(t, result.Enriched[0].BodyText)

	assert.Equal(t, 2, h.store.Len())
	assert.True(t, h.ledger.IsProcessed("https://example.com/pools"))
	assert.Len(t, h.recLog.records, 2)
}

func TestPipelineSecondRunSkipsWithoutFetching(t *testing.T) {
	t.Parallel()

	h := newPipelineHarness(t, func(context.Context, string) (string, error) {
		return samplePage, nil
	})
	batch := []bookmark.Candidate{{URL: "https://example.com/once", Source: "chrome"}}

	_, err := h.pipeline.EnrichBatch(context.Background(), batch)
	require.NoError(t, err)
	require.Equal(t, int32(1), h.fetches.Load())

	result, err := h.pipeline.EnrichBatch(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, int32(1), h.fetches.Load(), "an idempotent re-run must not touch the network")
	assert.Empty(t, result.Enriched)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, SkipReasonProcessed, result.Skipped[0].Reason)
}

func TestPipelineAuthFailureFlow(t *testing.T) {
	t.Parallel()

	h := newPipelineHarness(t, func(context.Context, string) (string, error) {
		return "", &FetchError{Class: ClassAuthOrAccessDenied, Reason: "Authentication required or access denied"}
	})

	result, err := h.pipeline.EnrichBatch(context.Background(), []bookmark.Candidate{
		{URL: "https://example.com/private", Name: "Private", Source: "chrome"},
	})
	require.NoError(t, err, "per-record failures never surface as a batch error")

	require.Len(t, result.Failures, 1)
	assert.Equal(t, bookmark.ClassificationTerminal, result.Failures[0].Classification)
	require.Len(t, result.Enriched, 1, "auth failures still store a placeholder")
	assert.Equal(t, 1, result.Stored)
	require.Len(t, h.errLog.entries, 1)
	assert.Equal(t, "Authentication required or access denied", h.errLog.entries[0].Reason)
}

func TestPipelineTransientFailureNotStored(t *testing.T) {
	t.Parallel()

	h := newPipelineHarness(t, func(context.Context, string) (string, error) {
		return "", &FetchError{Class: ClassTransientNetwork, Reason: "Connection error"}
	})

	result, err := h.pipeline.EnrichBatch(context.Background(), []bookmark.Candidate{
		{URL: "https://example.com/flaky", Source: "chrome"},
	})
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	assert.Empty(t, result.Enriched)
	assert.Equal(t, 0, result.Stored)
	assert.Empty(t, h.errLog.entries, "transient failures stay out of the error log")
	assert.False(t, h.ledger.IsProcessed("https://example.com/flaky"),
		"failed candidates stay eligible for the next run")
}

func TestPipelineEmitsRunEvents(t *testing.T) {
	t.Parallel()

	h := newPipelineHarness(t, func(context.Context, string) (string, error) {
		return samplePage, nil
	})
	_, err := h.pipeline.EnrichBatch(context.Background(), []bookmark.Candidate{
		{URL: "https://example.com/a", Source: "chrome"},
	})
	require.NoError(t, err)

	events := h.emitter.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, progress.StageRunStart, events[0].Stage)
	assert.Equal(t, progress.StageRunDone, events[len(events)-1].Stage)

	var enrichDone int
	for _, evt := range events {
		if evt.Stage == progress.StageEnrichDone {
			enrichDone++
			assert.Equal(t, progress.ResultSuccess, evt.Result)
		}
	}
	assert.Equal(t, 1, enrichDone)
}

func TestPipelineRequiresStore(t *testing.T) {
	t.Parallel()

	_, err := New(testWorkerConfig(), Deps{})
	require.Error(t, err)
}
