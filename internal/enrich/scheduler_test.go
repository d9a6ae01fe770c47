package enrich

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
	"github.com/droidnext/bookmark-geni-mcp/internal/progress"
)

type enricherFunc func(ctx context.Context, candidate bookmark.Candidate) Outcome

func (f enricherFunc) Enrich(ctx context.Context, candidate bookmark.Candidate) Outcome {
	return f(ctx, candidate)
}

// captureEmitter records every event synchronously.
type captureEmitter struct {
	mu     chan struct{}
	events []progress.Event
}

func newCaptureEmitter() *captureEmitter {
	e := &captureEmitter{mu: make(chan struct{}, 1)}
	e.mu <- struct{}{}
	return e
}

func (e *captureEmitter) Emit(evt progress.Event) {
	<-e.mu
	e.events = append(e.events, evt)
	e.mu <- struct{}{}
}

func (e *captureEmitter) Events() []progress.Event {
	<-e.mu
	defer func() { e.mu <- struct{}{} }()
	out := make([]progress.Event, len(e.events))
	copy(out, e.events)
	return out
}

func batchOf(n int) []bookmark.Candidate {
	batch := make([]bookmark.Candidate, n)
	for i := range batch {
		batch[i] = bookmark.Candidate{
			URL:    fmt.Sprintf("https://example.com/%d", i),
			Source: "chrome",
		}
	}
	return batch
}

func TestSchedulerPreservesInputOrder(t *testing.T) {
	t.Parallel()

	enricher := enricherFunc(func(_ context.Context, c bookmark.Candidate) Outcome {
		// Finish in reverse order to prove collection order is positional.
		time.Sleep(time.Duration(len(c.URL)%3) * time.Millisecond)
		return Outcome{Candidate: c, Enriched: &bookmark.Enriched{URL: c.URL, Source: c.Source}}
	})
	s := NewScheduler(enricher, 4, nil, &fakeClock{now: time.Now()}, nil)

	batch := batchOf(12)
	outcomes, err := s.Run(context.Background(), uuid.New(), batch)
	require.NoError(t, err)
	require.Len(t, outcomes, len(batch))
	for i, out := range outcomes {
		assert.Equal(t, batch[i].URL, out.Candidate.URL, "outcome %d out of order", i)
		assert.False(t, out.Empty())
	}
}

func TestSchedulerBoundsConcurrency(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	enricher := enricherFunc(func(_ context.Context, c bookmark.Candidate) Outcome {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return Outcome{Candidate: c, Enriched: &bookmark.Enriched{URL: c.URL}}
	})
	s := NewScheduler(enricher, 2, nil, &fakeClock{now: time.Now()}, nil)

	_, err := s.Run(context.Background(), uuid.New(), batchOf(8))
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2), "no more than the configured workers may run at once")
}

func TestSchedulerEmitsPerRecordEvents(t *testing.T) {
	t.Parallel()

	emitter := newCaptureEmitter()
	enricher := enricherFunc(func(_ context.Context, c bookmark.Candidate) Outcome {
		if c.URL == "https://example.com/1" {
			return Outcome{Candidate: c, Failure: &bookmark.Failure{URL: c.URL, Reason: "Connection error"}}
		}
		return Outcome{Candidate: c, Enriched: &bookmark.Enriched{URL: c.URL}}
	})
	s := NewScheduler(enricher, 2, emitter, &fakeClock{now: time.Now()}, nil)

	_, err := s.Run(context.Background(), uuid.New(), batchOf(3))
	require.NoError(t, err)

	events := emitter.Events()
	require.Len(t, events, 3)
	var failures int
	for _, evt := range events {
		assert.Equal(t, progress.StageEnrichDone, evt.Stage)
		if evt.Result == progress.ResultFailure {
			failures++
		}
	}
	assert.Equal(t, 1, failures)
}

func TestSchedulerCancellationLeavesUnstartedEmpty(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var started atomic.Int32
	enricher := enricherFunc(func(_ context.Context, c bookmark.Candidate) Outcome {
		if started.Add(1) == 1 {
			cancel()
		}
		time.Sleep(10 * time.Millisecond)
		return Outcome{Candidate: c, Enriched: &bookmark.Enriched{URL: c.URL}}
	})
	s := NewScheduler(enricher, 1, nil, &fakeClock{now: time.Now()}, nil)

	outcomes, err := s.Run(ctx, uuid.New(), batchOf(6))
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, outcomes, 6)

	var completed, empty int
	for _, out := range outcomes {
		if out.Empty() {
			empty++
		} else {
			completed++
		}
	}
	assert.GreaterOrEqual(t, completed, 1, "in-flight work finishes naturally")
	assert.GreaterOrEqual(t, empty, 1, "unstarted candidates are discarded")
}

func TestSchedulerEmptyBatch(t *testing.T) {
	t.Parallel()

	s := NewScheduler(enricherFunc(func(_ context.Context, c bookmark.Candidate) Outcome {
		t.Fatal("must not be called")
		return Outcome{}
	}), 2, nil, &fakeClock{now: time.Now()}, nil)

	outcomes, err := s.Run(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}
