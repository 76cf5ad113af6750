// Package credentials manages the one-time access credentials that bridge an
// anonymous external reviewer to a workflow. A credential pairs an opaque
// URL-safe token with a 6-digit passcode; only the passcode's hash is stored.
// Credentials are issued at internal approval, expire after a configured TTL,
// and are never deleted so the audit trail stays intact.
package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Credential is a persisted external access credential. The passcode is
// never stored, only its hash.
type Credential struct {
	ID         uuid.UUID  `json:"id"`
	WorkflowID uuid.UUID  `json:"workflow_id"`
	Token      string     `json:"token"`
	OTPHash    string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Used       bool       `json:"used"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Expired reports whether the credential's expiry has passed at the given
// instant.
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// IssuedCredential carries the secrets of a freshly minted credential for
// one-time delivery. The passcode exists in memory only here; it cannot be
// recovered afterward.
type IssuedCredential struct {
	Token     string
	Passcode  string
	ExpiresAt time.Time
}

// GenerateToken returns an opaque URL-safe token with 128 bits of entropy.
func GenerateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GeneratePasscode returns a 6-digit numeric passcode drawn from a
// cryptographically secure source, uniform over [100000, 999999].
func GeneratePasscode() (string, error) {
	// Rejection sampling keeps the distribution uniform over 900000 values.
	const span = 900000
	max := uint64(1<<64 - 1)
	limit := max - max%span

	for {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("generate passcode: %w", err)
		}
		v := binary.BigEndian.Uint64(buf[:])
		if v >= limit {
			continue
		}
		return fmt.Sprintf("%06d", 100000+v%span), nil
	}
}

// HashPasscode returns the stable one-way hash stored for a passcode:
// base64(SHA-256(passcode)). The algorithm must not change without a
// migration path for outstanding credentials.
func HashPasscode(passcode string) string {
	sum := sha256.Sum256([]byte(passcode))
	return base64.StdEncoding.EncodeToString(sum[:])
}
