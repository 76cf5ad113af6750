package identities

import (
	"context"

	"github.com/google/uuid"

	"github.com/inklane/countersign/pkg/pagination"
)

// System defines the public contract for identity domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Identity], error)

	Find(ctx context.Context, id uuid.UUID) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	Create(ctx context.Context, cmd CreateCommand) (*Identity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
