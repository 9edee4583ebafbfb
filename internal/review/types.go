// Package review provides storage for human review decisions on safety
// findings. Clinicians can dismiss a finding (with a reason) or confirm
// it; the API layer consults these decisions to suppress dismissed
// findings on re-evaluation, keeping the engine core itself pure.
package review

import (
	"context"
	"io"
	"time"
)

// Status represents a reviewer's decision on a finding.
type Status string

const (
	StatusDismissed Status = "dismissed"
	StatusConfirmed Status = "confirmed"
)

// IsValid validates the status.
func (s Status) IsValid() bool {
	return s == StatusDismissed || s == StatusConfirmed
}

// Review represents one human decision about a finding. FindingKey is the
// finding's stable identity, so the decision survives re-evaluation as long
// as the same finding recurs.
type Review struct {
	ID          int64     `json:"id,omitempty"`
	PatientID   string    `json:"patient_id"`
	FindingKey  string    `json:"finding_key"`
	FindingType string    `json:"finding_type"`
	Severity    string    `json:"severity"`
	Status      Status    `json:"status"`
	Reviewer    string    `json:"reviewer"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store defines the interface for review storage operations.
type Store interface {
	// Save stores or updates a review decision.
	// A decision for the same patient+finding_key is updated in place.
	Save(ctx context.Context, review *Review) error

	// Get retrieves the decision for a patient's finding, or nil.
	Get(ctx context.Context, patientID, findingKey string) (*Review, error)

	// ListForPatient returns a patient's decisions, most recent first.
	ListForPatient(ctx context.Context, patientID string, limit, offset int) ([]*Review, error)

	// Count returns the total number of review decisions.
	Count(ctx context.Context) (int64, error)

	// Delete removes a review decision by ID.
	Delete(ctx context.Context, id int64) error

	// ExportJSON exports all decisions to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports decisions from a JSON reader.
	// Returns the number of imported and skipped entries.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Reviews    []*Review `json:"reviews"`
}

// Dismissed builds the set of dismissed finding keys for a patient.
func Dismissed(ctx context.Context, store Store, patientID string) (map[string]bool, error) {
	reviews, err := store.ListForPatient(ctx, patientID, 10000, 0)
	if err != nil {
		return nil, err
	}
	dismissed := make(map[string]bool)
	for _, r := range reviews {
		if r.Status == StatusDismissed {
			dismissed[r.FindingKey] = true
		}
	}
	return dismissed, nil
}
