package workflows

import (
	"context"

	"github.com/google/uuid"

	"github.com/inklane/countersign/internal/stamps"
	"github.com/inklane/countersign/pkg/pagination"
	"github.com/inklane/countersign/pkg/storage"
)

// System defines the public contract for workflow domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Workflow], error)

	Find(ctx context.Context, id uuid.UUID) (*Workflow, error)
	Create(ctx context.Context, cmd CreateCommand) (*Workflow, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// ListForReviewer returns workflows assigned to the given internal
	// reviewer that still await internal action.
	ListForReviewer(ctx context.Context, reviewerID uuid.UUID) ([]Workflow, error)

	// ListForExternalEmail returns workflows scoped to the given external
	// reviewer email, restricted to the statuses an external party may see
	// (PendingExternalReview and Completed).
	ListForExternalEmail(ctx context.Context, email string) ([]Workflow, error)

	// FindByStorageKey resolves the workflow owning a document reference,
	// falling back from an exact key match to a filename-suffix match when
	// the stored key format differs from the requested one.
	FindByStorageKey(ctx context.Context, key string) (*Workflow, error)

	// IsReadOnly reports whether the document behind the given reference may
	// no longer be mutated. It fails open: when no owning workflow can be
	// resolved the document remains editable.
	IsReadOnly(ctx context.Context, key string) bool

	// DownloadDocument streams the workflow's PDF content.
	DownloadDocument(ctx context.Context, id uuid.UUID) (*Workflow, *storage.DownloadResult, error)

	// SaveDocument replaces the workflow's PDF content, refusing with
	// ErrReadOnly once the workflow has completed.
	SaveDocument(ctx context.Context, id uuid.UUID, data []byte) error

	// ListStamps returns the approval stamps recorded against a workflow.
	ListStamps(ctx context.Context, id uuid.UUID) ([]stamps.Stamp, error)

	// Summarize maps a workflow to its external-facing summary, resolving
	// the internal reviewer's display name.
	Summarize(ctx context.Context, w *Workflow) Summary
}
