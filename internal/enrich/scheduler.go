package enrich

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
	"github.com/droidnext/bookmark-geni-mcp/internal/progress"
)

// progressLogEvery throttles the periodic completion log line.
const progressLogEvery = 10

// Enricher produces the Outcome for a single candidate.
type Enricher interface {
	Enrich(ctx context.Context, candidate bookmark.Candidate) Outcome
}

// Scheduler runs the enricher over a working set under a bounded
// in-flight count and collects every Outcome in input order.
type Scheduler struct {
	enricher    Enricher
	concurrency int
	emitter     progress.Emitter
	clock       bookmark.Clock
	logger      *zap.Logger
}

// NewScheduler constructs a Scheduler. A nil emitter disables progress
// events; the completion counter still drives periodic log lines.
func NewScheduler(enricher Enricher, concurrency int, emitter progress.Emitter, clock bookmark.Clock, logger *zap.Logger) *Scheduler {
	if concurrency <= 0 {
		concurrency = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		enricher:    enricher,
		concurrency: concurrency,
		emitter:     emitter,
		clock:       clock,
		logger:      logger,
	}
}

// Run enriches the batch and returns one Outcome per candidate, in
// input order regardless of completion order. On cancellation the
// workers already in flight finish naturally; candidates not yet
// started are left as empty Outcomes and the context error is
// returned alongside the partial results.
func (s *Scheduler) Run(ctx context.Context, runID uuid.UUID, batch []bookmark.Candidate) ([]Outcome, error) {
	outcomes := make([]Outcome, len(batch))
	if len(batch) == 0 {
		return outcomes, nil
	}

	pool, err := ants.NewPool(s.concurrency)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	// In-flight work runs on a detached context so a batch-level
	// cancel never leaves a half-written record behind.
	taskCtx := context.WithoutCancel(ctx)

	var (
		wg        sync.WaitGroup
		completed atomic.Int64
	)
	total := len(batch)

	for i, candidate := range batch {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			started := s.clock.Now()
			outcomes[i] = s.enricher.Enrich(taskCtx, candidate)
			if n := completed.Add(1); n%progressLogEvery == 0 {
				s.logger.Info("enrichment progress",
					zap.Int64("completed", n),
					zap.Int("total", total),
				)
			}
			s.emit(runID, outcomes[i], started)
		})
		if submitErr != nil {
			wg.Done()
			s.logger.Error("worker pool submit failed",
				zap.String("url", candidate.URL),
				zap.Error(submitErr),
			)
			break
		}
	}

	wg.Wait()
	return outcomes, ctx.Err()
}

func (s *Scheduler) emit(runID uuid.UUID, out Outcome, started time.Time) {
	if s.emitter == nil {
		return
	}
	result := progress.ResultSuccess
	switch {
	case out.Empty():
		result = progress.ResultDiscarded
	case out.Failure != nil:
		result = progress.ResultFailure
	}
	now := s.clock.Now()
	s.emitter.Emit(progress.Event{
		RunID:  progress.UUIDToBytes(runID),
		TS:     now,
		Stage:  progress.StageEnrichDone,
		URL:    out.Candidate.URL,
		Source: out.Candidate.Source,
		Result: result,
		Dur:    now.Sub(started),
	})
}
