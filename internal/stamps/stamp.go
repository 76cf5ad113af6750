// Package stamps implements the approval stamp records for Countersign.
// A stamp is an immutable page-coordinate marker persisted once per approval
// action; internal approvals record the acting reviewer, external approvals
// record no actor.
package stamps

import (
	"time"

	"github.com/google/uuid"
)

// Stamp is an immutable record of an approval mark placed on a document page.
// UserID is nil for external approvals, which are anonymous.
type Stamp struct {
	ID         uuid.UUID  `json:"id"`
	WorkflowID uuid.UUID  `json:"workflow_id"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	Label      string     `json:"label"`
	PageNumber int        `json:"page_number"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	AppliedAt  time.Time  `json:"applied_at"`
}

// CreateCommand carries the data needed to record a stamp.
type CreateCommand struct {
	WorkflowID uuid.UUID  `json:"workflow_id"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	Label      string     `json:"label"`
	PageNumber int        `json:"page_number"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
}
