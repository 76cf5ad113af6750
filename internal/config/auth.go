package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvAuthSecret     = "COUNTERSIGN_AUTH_SECRET"
	EnvAuthIssuer     = "COUNTERSIGN_AUTH_ISSUER"
	EnvAuthSessionTTL = "COUNTERSIGN_AUTH_SESSION_TTL"
)

// AuthConfig holds session token signing parameters.
type AuthConfig struct {
	Secret     string `toml:"secret"`
	Issuer     string `toml:"issuer"`
	SessionTTL string `toml:"session_ttl"`
}

// SessionTTLDuration returns SessionTTL as a time.Duration.
func (c *AuthConfig) SessionTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.SessionTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AuthConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	if overlay.Secret != "" {
		c.Secret = overlay.Secret
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.SessionTTL != "" {
		c.SessionTTL = overlay.SessionTTL
	}
}

func (c *AuthConfig) loadDefaults() {
	if c.Issuer == "" {
		c.Issuer = "countersign"
	}
	if c.SessionTTL == "" {
		c.SessionTTL = "8h"
	}
}

func (c *AuthConfig) loadEnv() {
	if v := os.Getenv(EnvAuthSecret); v != "" {
		c.Secret = v
	}
	if v := os.Getenv(EnvAuthIssuer); v != "" {
		c.Issuer = v
	}
	if v := os.Getenv(EnvAuthSessionTTL); v != "" {
		c.SessionTTL = v
	}
}

func (c *AuthConfig) validate() error {
	if c.Secret == "" {
		return fmt.Errorf("auth secret is required")
	}
	if _, err := time.ParseDuration(c.SessionTTL); err != nil {
		return fmt.Errorf("invalid session_ttl: %w", err)
	}
	return nil
}
