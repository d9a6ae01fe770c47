// Package progress defines the event structures emitted by the
// enrichment pipeline and the hub that fans them out to sinks.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart   Stage = "RUN_START"
	StageRunDone    Stage = "RUN_DONE"
	StageRunError   Stage = "RUN_ERROR"
	StageEnrichDone Stage = "ENRICH_DONE"
)

// Result is the coarse per-record outcome label.
type Result string

// Supported per-record results.
const (
	ResultSuccess   Result = "success"
	ResultFailure   Result = "failure"
	ResultDiscarded Result = "discarded"
)

// Event captures a single component of enrichment progress.
type Event struct {
	// RunID uniquely identifies one batch run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle or per-record milestone occurred.
	Stage Stage
	// URL is the optional bookmark URL; it should not contain credentials.
	URL string
	// Source labels the browser the bookmark came from.
	Source string
	// Result partitions ENRICH_DONE events by outcome.
	Result Result
	// Dur captures execution latency for records and whole runs.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
	case StageEnrichDone:
		if e.Result == "" {
			return errors.New("enrich done requires a result")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
