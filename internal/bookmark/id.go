package bookmark

import (
	"crypto/md5" //nolint:gosec // identity digest, not a security boundary
	"encoding/hex"
	"fmt"
	"strings"
)

// ID derives the document-store identity digest for a (url, source)
// pair. The digest is deterministic so upserts stay idempotent across
// process restarts.
func ID(url, source string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%s", url, source))) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// summary markers that flag a stored summary as a recorded failure
// rather than real content.
var invalidSummaryMarkers = []string{
	"skipped:",
	"summary unavailable",
	"summary generation failed",
	"failed to fetch",
	"no meaningful text",
	"authentication",
	"access denied",
	"not accessible",
}

// ValidSummary reports whether a stored summary is good enough to skip
// reprocessing: non-empty, longer than ten characters, and free of
// failure markers. Invalid-but-present summaries are reprocessed on the
// next run, which is how failed enrichments self-heal.
func ValidSummary(summary string) bool {
	trimmed := strings.TrimSpace(summary)
	if trimmed == "" {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range invalidSummaryMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return len(trimmed) > 10
}
