package workflows

// Status is the position of a workflow in the two-party approval pipeline.
// Statuses serialize as their ordinal value; the numbering is a wire contract
// shared with existing clients and must not be reordered.
type Status int

const (
	StatusDraft                 Status = 0
	StatusPendingInternalReview Status = 1
	StatusInternalApproved      Status = 2
	StatusPendingExternalReview Status = 3
	StatusCompleted             Status = 4
	StatusRejected              Status = 5
)

// String returns the status name for logging and error messages.
func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusPendingInternalReview:
		return "PendingInternalReview"
	case StatusInternalApproved:
		return "InternalApproved"
	case StatusPendingExternalReview:
		return "PendingExternalReview"
	case StatusCompleted:
		return "Completed"
	case StatusRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft,
		StatusPendingInternalReview,
		StatusInternalApproved,
		StatusPendingExternalReview,
		StatusCompleted,
		StatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusRejected:
		return true
	case StatusDraft,
		StatusPendingInternalReview,
		StatusInternalApproved,
		StatusPendingExternalReview:
		return false
	default:
		return false
	}
}

// CanTransition reports whether the pipeline permits moving from s to next.
// Forward movement only, except that Rejected is reachable from any
// non-terminal status.
func (s Status) CanTransition(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s.Terminal() {
		return false
	}
	if next == StatusRejected {
		return true
	}

	switch s {
	case StatusDraft:
		return next == StatusPendingInternalReview
	case StatusPendingInternalReview:
		// Internal approval advances directly to PendingExternalReview;
		// InternalApproved exists as an intermediate for callers that pause.
		return next == StatusInternalApproved || next == StatusPendingExternalReview
	case StatusInternalApproved:
		return next == StatusPendingExternalReview
	case StatusPendingExternalReview:
		return next == StatusCompleted
	default:
		return false
	}
}
