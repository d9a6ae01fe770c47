package enrich

import (
	"fmt"
	"strings"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
)

// FailureClass identifies why a fetch or extraction failed. The class
// decides retryability, the FailureRecord classification, and whether
// the candidate still produces a storable placeholder record.
type FailureClass int

// Failure classes, spanning the network and extraction layers.
const (
	ClassTransientNetwork FailureClass = iota
	ClassAuthOrAccessDenied
	ClassNotFound
	ClassUnsupportedContentType
	ClassTLSError
	ClassExtractionEmpty
)

// Terminal reports whether the class must never be retried within a
// run. Certificate problems do not self-resolve on retry, so TLS
// errors are terminal alongside the HTTP-level rejections.
func (c FailureClass) Terminal() bool {
	switch c {
	case ClassAuthOrAccessDenied, ClassNotFound, ClassUnsupportedContentType, ClassTLSError:
		return true
	default:
		return false
	}
}

// StorePlaceholder reports whether a failure of this class still
// yields a storable record so the caller can persist a placeholder and
// keep an audit trail at the same time.
func (c FailureClass) StorePlaceholder() bool {
	return c == ClassAuthOrAccessDenied || c == ClassNotFound
}

// Classification maps the class onto the coarse FailureRecord
// partition.
func (c FailureClass) Classification() bookmark.Classification {
	if c.Terminal() {
		return bookmark.ClassificationTerminal
	}
	return bookmark.ClassificationTransientExhausted
}

// Failure reasons surfaced to the error log and skip reports. These
// strings are externally visible: the dedup gate's validity predicate
// matches against them on later runs.
const (
	reasonAuthDenied  = "Authentication required or access denied"
	reasonNotFound    = "URL not found"
	reasonTimeout     = "Request timeout"
	reasonTLS         = "SSL certificate error"
	reasonConnection  = "Connection error"
	reasonNoContent   = "No content extracted from HTML"
	reasonFetchFailed = "Failed to fetch HTML content"
)

// FetchError carries the classification and human-readable reason for
// a failed fetch or extraction attempt.
type FetchError struct {
	Class  FailureClass
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// storableFailureReason reports whether a failure reason belongs to
// the auth/access-denied/not-found family that is both stored as a
// placeholder and appended to the error log.
func storableFailureReason(reason string) bool {
	lower := strings.ToLower(reason)
	return strings.Contains(lower, "authentication") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "not found")
}
