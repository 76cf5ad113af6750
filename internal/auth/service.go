package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/inklane/countersign/internal/identities"
)

type service struct {
	identities identities.System
	logger     *slog.Logger
	secret     []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

// New creates an auth service implementing the System interface.
func New(
	ids identities.System,
	logger *slog.Logger,
	secret string,
	issuer string,
	ttl time.Duration,
) System {
	return &service{
		identities: ids,
		logger:     logger.With("system", "auth"),
		secret:     []byte(secret),
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  int    `json:"role"`
}

func (s *service) Login(ctx context.Context, cmd LoginCommand) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" || cmd.Password == "" {
		return nil, ErrInvalidRequest
	}

	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identities.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !identity.Active {
		return nil, ErrInvalidCredentials
	}

	supplied := identities.HashPassword(cmd.Password)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(identity.PasswordHash)) != 1 {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	expires := now.Add(s.ttl)

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
		Email: identity.Email,
		Name:  identity.FullName,
		Role:  int(identity.Role),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	s.logger.Info("identity logged in", "id", identity.ID, "role", identity.Role)

	return &Session{
		Token:     token,
		ExpiresAt: expires.Unix(),
		Principal: &identities.Principal{
			ID:    identity.ID,
			Email: identity.Email,
			Name:  identity.FullName,
			Role:  identity.Role,
		},
	}, nil
}

func (s *service) Verify(token string) (*identities.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	role := identities.Role(claims.Role)
	if !role.Valid() {
		return nil, ErrInvalidToken
	}

	return &identities.Principal{
		ID:    id,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  role,
	}, nil
}

// Middleware resolves the Authorization bearer token, when present, into a
// request principal. A missing or invalid token leaves the request
// unauthenticated rather than rejecting it, since some routes are public.
func (s *service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := s.Verify(token)
		if err != nil {
			s.logger.Debug("rejected bearer token", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(identities.WithPrincipal(r.Context(), principal)))
	})
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
