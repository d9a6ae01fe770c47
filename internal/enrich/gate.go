package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
)

// Skip reasons reported for candidates filtered out by the gate.
const (
	SkipReasonProcessed    = "already processed"
	SkipReasonValidSummary = "existing valid summary"
)

// Skipped names a candidate the gate filtered out and why.
type Skipped struct {
	URL    string `json:"url"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Gate filters a candidate batch against the processed-URL ledger and
// the document store's existing-summary state.
type Gate struct {
	store  bookmark.DocumentStore
	ledger bookmark.Ledger
	limit  int
	logger *zap.Logger
}

// NewGate constructs a Gate. A limit of zero or below means no cap.
func NewGate(store bookmark.DocumentStore, ledger bookmark.Ledger, limit int, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		store:  store,
		ledger: ledger,
		limit:  limit,
		logger: logger,
	}
}

// Filter returns the subset of candidates requiring enrichment plus
// the skipped entries. The ledger is consulted first because it is a
// cheap in-memory set; only survivors incur a store lookup. A stored
// record whose summary fails the validity predicate is reprocessed,
// which is how previously failed enrichments self-heal. The cap is
// applied only after filtering so its budget is always spent on
// genuinely new work.
func (g *Gate) Filter(ctx context.Context, candidates []bookmark.Candidate) ([]bookmark.Candidate, []Skipped) {
	working := make([]bookmark.Candidate, 0, len(candidates))
	var skipped []Skipped

	for _, candidate := range candidates {
		if candidate.URL == "" {
			continue
		}
		if g.ledger != nil && g.ledger.IsProcessed(candidate.URL) {
			skipped = append(skipped, Skipped{
				URL:    candidate.URL,
				Name:   candidate.Name,
				Reason: SkipReasonProcessed,
			})
			continue
		}
		if g.hasValidSummary(ctx, candidate) {
			skipped = append(skipped, Skipped{
				URL:    candidate.URL,
				Name:   candidate.Name,
				Reason: SkipReasonValidSummary,
			})
			continue
		}
		working = append(working, candidate)
	}

	if g.limit > 0 && len(working) > g.limit {
		g.logger.Warn("limiting working set",
			zap.Int("limit", g.limit),
			zap.Int("filtered", len(working)),
		)
		working = working[:g.limit]
	}
	return working, skipped
}

func (g *Gate) hasValidSummary(ctx context.Context, candidate bookmark.Candidate) bool {
	if g.store == nil {
		return false
	}
	stored, err := g.store.Existing(ctx, candidate.URL, candidate.Source)
	if err != nil {
		// A store lookup failure must never silently drop a candidate;
		// treat it as not-yet-stored and let the upsert sort it out.
		g.logger.Error("store lookup failed",
			zap.String("url", candidate.URL),
			zap.Error(err),
		)
		return false
	}
	if stored == nil {
		return false
	}
	if bookmark.ValidSummary(stored.Record.Summary) {
		return true
	}
	g.logger.Debug("stored summary invalid, reprocessing",
		zap.String("url", candidate.URL))
	return false
}
