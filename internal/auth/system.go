// Package auth implements session authentication for Countersign. Internal
// users log in with email and password and receive a signed bearer token;
// the middleware resolves that token into an identities.Principal that
// downstream handlers read from the request context. External reviewers
// never log in here, they act through one-time review credentials instead.
package auth

import (
	"context"
	"net/http"

	"github.com/inklane/countersign/internal/identities"
)

// System defines the public contract for authentication operations.
type System interface {
	Handler() *Handler

	// Login verifies an email/password pair against the identity store and
	// returns a signed session for active identities.
	Login(ctx context.Context, cmd LoginCommand) (*Session, error)

	// Verify parses and validates a bearer token, returning the principal
	// encoded in its claims.
	Verify(token string) (*identities.Principal, error)

	// Middleware resolves the Authorization header into a request principal.
	// Requests without a valid token pass through unauthenticated; handlers
	// that require a principal enforce that themselves.
	Middleware(next http.Handler) http.Handler
}

// LoginCommand carries a login attempt.
type LoginCommand struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string                `json:"token"`
	ExpiresAt int64                 `json:"expires_at"`
	Principal *identities.Principal `json:"principal"`
}
