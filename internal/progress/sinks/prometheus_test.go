package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidnext/bookmark-geni-mcp/internal/progress"
)

func TestPrometheusSinkRunLifecycle(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	now := time.Now().UTC()

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: now, Stage: progress.StageRunStart},
	}))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.runsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.runsRunning))

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: now, Stage: progress.StageRunDone, Dur: 3 * time.Second},
	}))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.runsRunning))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("success")))
}

func TestPrometheusSinkDeduplicatesRunStarts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	now := time.Now().UTC()
	start := progress.Event{RunID: runID, TS: now, Stage: progress.StageRunStart}

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{start, start}))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.runsRunning), "replayed starts must not inflate the gauge")
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.runsStarted))
}

func TestPrometheusSinkRecordCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	now := time.Now().UTC()
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: now, Stage: progress.StageEnrichDone, Source: "chrome", Result: progress.ResultSuccess, Dur: 200 * time.Millisecond},
		{RunID: runID, TS: now, Stage: progress.StageEnrichDone, Source: "chrome", Result: progress.ResultFailure},
		{RunID: runID, TS: now, Stage: progress.StageEnrichDone, Result: progress.ResultSuccess},
	}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.recordsEnriched.WithLabelValues("chrome", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.recordsEnriched.WithLabelValues("chrome", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.recordsEnriched.WithLabelValues("unknown", "success")),
		"missing source falls back to unknown")
}

func TestPrometheusSinkDoubleRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err, "the same registry cannot host the collectors twice")
}
