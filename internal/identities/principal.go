package identities

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated identity attached to a request. The auth
// package builds one from a verified session token; handlers read it from
// the request context to enforce role requirements.
type Principal struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  Role      `json:"role"`
}

// Admin reports whether the principal carries the admin role.
func (p *Principal) Admin() bool {
	return p.Role == RoleAdmin
}

type contextKey struct{}

// WithPrincipal returns a context carrying the given principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFrom extracts the authenticated principal from the request
// context. The second return is false when the request was not
// authenticated.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(*Principal)
	return p, ok
}
