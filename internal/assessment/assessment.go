// ABOUTME: Assessment snapshot type and the Lookup collaborator interface
// ABOUTME: Conversations denormalize a point-in-time copy of assessment classification data

package assessment

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no assessment exists for the given ID
var ErrNotFound = errors.New("assessment not found")

// Snapshot is a denormalized, point-in-time copy of an assessment's
// classification fields. It is captured onto a conversation at link time so
// the assessment is not re-fetched on every read.
type Snapshot struct {
	ID          string            `json:"id"`
	Pattern     string            `json:"pattern"` // cycle classification, e.g. "regular", "irregular"
	Attributes  map[string]string `json:"attributes,omitempty"`
	CollectedAt time.Time         `json:"collected_at"`
}

// Lookup fetches assessment snapshots by ID. The assessment-intake side of
// the application owns the records; this core only reads them.
type Lookup interface {
	FetchSnapshot(ctx context.Context, assessmentID string) (*Snapshot, error)
}
