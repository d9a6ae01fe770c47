package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
	"github.com/droidnext/bookmark-geni-mcp/internal/clock/system"
	"github.com/droidnext/bookmark-geni-mcp/internal/progress"
)

// Deps wires the external collaborators into the pipeline. Store is
// required; the rest may be nil (the corresponding sink or signal is
// skipped). Fetcher and Extractor default to the Colly fetcher and the
// HTML extractor when unset.
type Deps struct {
	Store     bookmark.DocumentStore
	Ledger    bookmark.Ledger
	RecordLog bookmark.RecordLog
	ErrorLog  bookmark.ErrorLog
	Fetcher   Fetcher
	Extractor Extractor
	Emitter   progress.Emitter
	Clock     bookmark.Clock
	Logger    *zap.Logger
}

// BatchResult is the report returned for one enrichment run.
type BatchResult struct {
	Enriched   []bookmark.Enriched `json:"enriched"`
	Failures   []bookmark.Failure  `json:"failures"`
	Skipped    []Skipped           `json:"skipped"`
	Stored     int                 `json:"stored"`
	Discarded  int                 `json:"discarded"`
	SinkErrors int                 `json:"sink_errors"`
}

// Pipeline is the single entry point of the enrichment core: dedup
// gate, bounded-concurrency scheduler, and result router composed
// behind EnrichBatch.
type Pipeline struct {
	cfg       Config
	gate      *Gate
	scheduler *Scheduler
	router    *Router
	emitter   progress.Emitter
	clock     bookmark.Clock
	logger    *zap.Logger
}

// New builds a Pipeline from configuration and collaborators.
func New(cfg Config, deps Deps) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("enrich config: %w", err)
	}
	if deps.Store == nil {
		return nil, errors.New("document store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := deps.Clock
	if clk == nil {
		clk = system.New()
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		var err error
		fetcher, err = NewCollyFetcher(cfg, nil, logger)
		if err != nil {
			return nil, fmt.Errorf("init fetcher: %w", err)
		}
	}
	extractor := deps.Extractor
	if extractor == nil {
		extractor = NewHTMLExtractor(cfg, logger)
	}

	worker := NewWorker(fetcher, extractor, clk, cfg, logger)
	return &Pipeline{
		cfg:       cfg,
		gate:      NewGate(deps.Store, deps.Ledger, cfg.URLLimit, logger),
		scheduler: NewScheduler(worker, cfg.Concurrency, deps.Emitter, clk, logger),
		router:    NewRouter(deps.Store, deps.Ledger, deps.RecordLog, deps.ErrorLog, clk, logger),
		emitter:   deps.Emitter,
		clock:     clk,
		logger:    logger,
	}, nil
}

// EnrichBatch runs the full pipeline over the candidates. Per-record
// failures never surface as an error; the error return covers only
// batch-level cancellation, in which case the partial report is still
// returned and everything already enriched has been routed to the
// sinks.
func (p *Pipeline) EnrichBatch(ctx context.Context, candidates []bookmark.Candidate) (BatchResult, error) {
	runID := uuid.New()
	started := p.clock.Now()
	p.emitRun(runID, progress.StageRunStart, 0, "")

	working, skipped := p.gate.Filter(ctx, candidates)
	p.logger.Info("working set selected",
		zap.String("run_id", runID.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("working", len(working)),
		zap.Int("skipped", len(skipped)),
	)

	outcomes, runErr := p.scheduler.Run(ctx, runID, working)

	// Routing happens on a detached context so records enriched before
	// a cancellation still reach the sinks in the required order.
	stats := p.router.Route(context.WithoutCancel(ctx), outcomes)

	result := BatchResult{
		Skipped:    skipped,
		Stored:     stats.Stored,
		Discarded:  stats.Discarded,
		SinkErrors: stats.SinkErrors,
	}
	for _, out := range outcomes {
		if out.Enriched != nil {
			result.Enriched = append(result.Enriched, *out.Enriched)
		}
		if out.Failure != nil {
			result.Failures = append(result.Failures, *out.Failure)
		}
	}

	elapsed := p.clock.Now().Sub(started)
	stage := progress.StageRunDone
	note := ""
	if runErr != nil {
		stage = progress.StageRunError
		note = runErr.Error()
	}
	p.emitRun(runID, stage, elapsed, note)

	p.logger.Info("enrichment run finished",
		zap.String("run_id", runID.String()),
		zap.Int("stored", result.Stored),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failures", len(result.Failures)),
		zap.Int("discarded", result.Discarded),
		zap.Duration("elapsed", elapsed),
	)
	return result, runErr
}

func (p *Pipeline) emitRun(runID uuid.UUID, stage progress.Stage, dur time.Duration, note string) {
	if p.emitter == nil {
		return
	}
	p.emitter.Emit(progress.Event{
		RunID: progress.UUIDToBytes(runID),
		TS:    p.clock.Now(),
		Stage: stage,
		Dur:   dur,
		Note:  note,
	})
}
