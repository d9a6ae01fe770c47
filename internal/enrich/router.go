package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
)

// RouteStats summarizes what the router managed to persist.
type RouteStats struct {
	Stored        int
	LoggedRecords int
	LoggedErrors  int
	SinkErrors    int
	Discarded     int
}

// Router partitions outcomes across the three downstream sinks. A
// write failure to one sink is caught and logged without preventing
// the other sinks from being attempted for the same record or for
// subsequent records.
type Router struct {
	store     bookmark.DocumentStore
	ledger    bookmark.Ledger
	recordLog bookmark.RecordLog
	errorLog  bookmark.ErrorLog
	clock     bookmark.Clock
	logger    *zap.Logger
}

// NewRouter constructs a Router.
func NewRouter(
	store bookmark.DocumentStore,
	ledger bookmark.Ledger,
	recordLog bookmark.RecordLog,
	errorLog bookmark.ErrorLog,
	clock bookmark.Clock,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		store:     store,
		ledger:    ledger,
		recordLog: recordLog,
		errorLog:  errorLog,
		clock:     clock,
		logger:    logger,
	}
}

// Route fans the outcome list out to the sinks. Every enriched record
// is appended to the record log and upserted into the store; its URL
// is added to the processed ledger only after the upsert succeeded, so
// a crash between the two leaves the record eligible for reprocessing
// rather than silently lost. Terminal failures in the
// auth/access-denied/not-found family are appended to the error log.
func (r *Router) Route(ctx context.Context, outcomes []Outcome) RouteStats {
	var stats RouteStats
	storable := make([]bookmark.Enriched, 0, len(outcomes))

	for _, out := range outcomes {
		if out.Empty() {
			stats.Discarded++
			continue
		}
		if out.Failure != nil {
			r.routeFailure(ctx, *out.Failure, &stats)
		}
		if out.Enriched != nil {
			if r.appendRecord(ctx, *out.Enriched) {
				stats.LoggedRecords++
			} else {
				stats.SinkErrors++
			}
			storable = append(storable, *out.Enriched)
		}
	}

	if len(storable) == 0 {
		return stats
	}

	result, err := r.store.UpsertBatch(ctx, storable)
	if err != nil {
		stats.SinkErrors++
		r.logger.Error("document store upsert failed", zap.Error(err))
		return stats
	}
	stats.Stored = result.Stored
	stats.SinkErrors += len(result.Failed)

	failed := make(map[string]struct{}, len(result.Failed))
	for _, f := range result.Failed {
		r.logger.Error("record not persisted",
			zap.String("url", f.URL),
			zap.String("source", f.Source),
			zap.Error(f.Err),
		)
		failed[f.URL] = struct{}{}
	}

	processed := make([]string, 0, len(storable))
	for _, rec := range storable {
		if _, ok := failed[rec.URL]; ok {
			continue
		}
		processed = append(processed, rec.URL)
	}
	if len(processed) > 0 && r.ledger != nil {
		if err := r.ledger.AddMany(processed); err != nil {
			// Records stay re-fetchable; at-least-once toward the
			// ledger is acceptable, losing them silently is not.
			stats.SinkErrors++
			r.logger.Error("ledger update failed", zap.Error(err))
		}
	}
	return stats
}

func (r *Router) routeFailure(ctx context.Context, failure bookmark.Failure, stats *RouteStats) {
	if !storableFailureReason(failure.Reason) {
		r.logger.Warn("enrichment failure",
			zap.String("url", failure.URL),
			zap.String("reason", failure.Reason),
			zap.String("classification", string(failure.Classification)),
		)
		return
	}
	if r.errorLog == nil {
		return
	}
	entry := bookmark.ErrorEntry{
		URL:       failure.URL,
		Name:      failure.Name,
		Reason:    failure.Reason,
		Timestamp: r.clock.Now(),
	}
	if err := r.errorLog.Append(ctx, entry); err != nil {
		stats.SinkErrors++
		r.logger.Error("error log append failed",
			zap.String("url", failure.URL),
			zap.Error(err),
		)
		return
	}
	stats.LoggedErrors++
}

func (r *Router) appendRecord(ctx context.Context, rec bookmark.Enriched) bool {
	if r.recordLog == nil {
		return false
	}
	if err := r.recordLog.Append(ctx, rec); err != nil {
		r.logger.Error("record log append failed",
			zap.String("url", rec.URL),
			zap.Error(err),
		)
		return false
	}
	return true
}
