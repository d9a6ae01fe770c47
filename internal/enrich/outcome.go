package enrich

import "github.com/droidnext/bookmark-geni-mcp/internal/bookmark"

// Outcome is the per-candidate result of one enrichment run. At most
// one success and one failure are populated; the auth/not-found
// dual-emit case carries both so the router can persist a placeholder
// and keep an audit trail. An empty Outcome marks a candidate that was
// discarded before its worker started (batch cancellation).
type Outcome struct {
	Candidate bookmark.Candidate
	Enriched  *bookmark.Enriched
	Failure   *bookmark.Failure
}

// Empty reports whether the candidate never produced a result.
func (o Outcome) Empty() bool {
	return o.Enriched == nil && o.Failure == nil
}
