// Package bookmark defines core types shared across subsystems.
package bookmark

import "time"

// Candidate is a raw bookmark record produced by an upstream source
// parser. Summary and BodyText are optional pre-existing metadata; the
// enrichment worker never overwrites them with empty values.
type Candidate struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Folder   string `json:"folder"`
	Source   string `json:"source"`
	Summary  string `json:"summary,omitempty"`
	BodyText string `json:"body_text,omitempty"`
}

// Enriched is a candidate that has passed through the enrichment
// pipeline. It is immutable once handed to the result router.
type Enriched struct {
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	Folder    string    `json:"folder"`
	Source    string    `json:"source"`
	Summary   string    `json:"summary"`
	BodyText  string    `json:"body_text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Classification partitions failures by whether retrying within the
// same run could ever have helped.
type Classification string

// Failure classifications recorded on FailureRecords.
const (
	ClassificationTerminal           Classification = "terminal"
	ClassificationTransientExhausted Classification = "transient-exhausted"
)

// Failure records a candidate that could not be enriched this run.
type Failure struct {
	URL            string         `json:"url"`
	Name           string         `json:"name"`
	Reason         string         `json:"reason"`
	Classification Classification `json:"classification"`
}

// StoredRecord is a document-store row keyed by the identity digest.
type StoredRecord struct {
	ID     string   `json:"id"`
	Record Enriched `json:"record"`
}

// ErrorEntry is one line of the append-only error log.
type ErrorEntry struct {
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
