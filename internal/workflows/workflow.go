// Package workflows implements the approval workflow domain for Countersign.
// A workflow tracks one document through sequential internal and external
// approval: created into PendingInternalReview, advanced to
// PendingExternalReview by the assigned internal reviewer, and completed by
// the external reviewer named on the workflow. Once completed, the document
// behind the workflow becomes read-only.
package workflows

import (
	"time"

	"github.com/google/uuid"
)

// Workflow represents a document moving through the approval pipeline.
// ExternalReviewerEmail is the scoping key for all external access and is
// immutable after creation.
type Workflow struct {
	ID                    uuid.UUID  `json:"id"`
	Title                 string     `json:"title"`
	StorageKey            string     `json:"storage_key"`
	Filename              string     `json:"filename"`
	CreatedBy             uuid.UUID  `json:"created_by"`
	InternalReviewerID    uuid.UUID  `json:"internal_reviewer_id"`
	ExternalReviewerEmail string     `json:"external_reviewer_email"`
	Status                Status     `json:"status"`
	InternalApprovedAt    *time.Time `json:"internal_approved_at,omitempty"`
	ExternalApprovedAt    *time.Time `json:"external_approved_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             *time.Time `json:"updated_at,omitempty"`
}

// CreateCommand carries the data needed to open a new workflow.
// Data holds the raw PDF bytes to place under review.
type CreateCommand struct {
	Title                 string
	Data                  []byte
	Filename              string
	CreatedBy             uuid.UUID
	InternalReviewerID    uuid.UUID
	ExternalReviewerEmail string
}

// Summary is the reduced workflow view returned to external reviewers,
// who must not see internal assignment details beyond the reviewer name.
type Summary struct {
	ID                    uuid.UUID `json:"id"`
	Title                 string    `json:"title"`
	Status                Status    `json:"status"`
	InternalReviewerName  string    `json:"internal_reviewer_name"`
	ExternalReviewerEmail string    `json:"external_reviewer_email"`
	Filename              string    `json:"filename"`
}
