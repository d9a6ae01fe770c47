package enrich

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
)

// enrichState tracks a candidate through the fetch-and-extract state
// machine. Modeling the nested retry budgets as explicit states keeps
// the backoff/attempt accounting testable in isolation.
type enrichState int

const (
	statePending enrichState = iota
	stateFetching
	stateExtracting
	stateRetryScheduled
	stateSucceeded
	stateFailed
)

// Worker composes the fetcher and extractor for a single candidate,
// producing either an enriched record or a classified failure.
type Worker struct {
	fetcher   Fetcher
	extractor Extractor
	clock     bookmark.Clock
	cfg       Config
	logger    *zap.Logger
}

// NewWorker constructs a Worker.
func NewWorker(fetcher Fetcher, extractor Extractor, clock bookmark.Clock, cfg Config, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		fetcher:   fetcher,
		extractor: extractor,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Enrich runs the state machine for one candidate. The whole
// fetch-and-extract sequence is re-run when extraction yields nothing,
// up to the enrichment attempt budget, with backoff scaled by attempt
// number. The fetcher holds its own inner attempt budget, so failure
// at either layer gets its own bounded patience.
func (w *Worker) Enrich(ctx context.Context, candidate bookmark.Candidate) Outcome {
	if !w.cfg.IncludeContent || candidate.URL == "" {
		return Outcome{Candidate: candidate, Enriched: w.record(candidate, "", "")}
	}

	var (
		state    = statePending
		attempt  int
		content  string
		bodyText string
		summary  string
		failErr  error
	)

loop:
	for {
		switch state {
		case statePending:
			attempt++
			state = stateFetching

		case stateRetryScheduled:
			if err := w.sleep(ctx, w.cfg.RetryDelay*time.Duration(attempt)); err != nil {
				failErr = err
				state = stateFailed
				continue
			}
			attempt++
			state = stateFetching

		case stateFetching:
			var err error
			content, err = w.fetcher.Fetch(ctx, candidate.URL)
			if err != nil {
				failErr = err
				state = stateFailed
				continue
			}
			state = stateExtracting

		case stateExtracting:
			bodyText, summary = w.extractor.Extract(content, candidate.URL)
			if bodyText == "" && summary == "" {
				if attempt < w.cfg.EnrichAttempts {
					w.logger.Debug("no content extracted, rescheduling",
						zap.String("url", candidate.URL),
						zap.Int("attempt", attempt),
					)
					state = stateRetryScheduled
					continue
				}
				failErr = &FetchError{Class: ClassExtractionEmpty, Reason: reasonNoContent}
				state = stateFailed
				continue
			}
			state = stateSucceeded

		case stateSucceeded, stateFailed:
			break loop
		}
	}

	if state == stateFailed {
		return w.failureOutcome(candidate, failErr)
	}
	return Outcome{Candidate: candidate, Enriched: w.record(candidate, bodyText, summary)}
}

// failureOutcome builds the Outcome for a definitive failure. The
// auth/not-found family additionally yields a storable placeholder
// record; this dual-emit behavior is intentional so the caller can
// persist the bookmark and still audit the failure.
func (w *Worker) failureOutcome(candidate bookmark.Candidate, err error) Outcome {
	var fe *FetchError
	if !errors.As(err, &fe) {
		reason := reasonFetchFailed
		if err != nil {
			reason = truncateRunes("Error: "+err.Error(), 100)
		}
		fe = &FetchError{Class: ClassTransientNetwork, Reason: reason, Err: err}
	}

	w.logger.Warn("enrichment failed",
		zap.String("url", candidate.URL),
		zap.String("reason", fe.Reason),
	)

	out := Outcome{
		Candidate: candidate,
		Failure: &bookmark.Failure{
			URL:            candidate.URL,
			Name:           candidate.Name,
			Reason:         fe.Reason,
			Classification: fe.Class.Classification(),
		},
	}
	if fe.Class.StorePlaceholder() {
		out.Enriched = w.record(candidate, "", "")
	}
	return out
}

// record materializes the enriched record, keeping any pre-existing
// summary or body text when this run produced nothing for that field.
func (w *Worker) record(candidate bookmark.Candidate, bodyText, summary string) *bookmark.Enriched {
	rec := &bookmark.Enriched{
		URL:       candidate.URL,
		Name:      candidate.Name,
		Folder:    candidate.Folder,
		Source:    candidate.Source,
		Summary:   candidate.Summary,
		BodyText:  candidate.BodyText,
		FetchedAt: w.clock.Now(),
	}
	if summary != "" {
		rec.Summary = summary
	}
	if bodyText != "" {
		rec.BodyText = bodyText
	}
	return rec
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
