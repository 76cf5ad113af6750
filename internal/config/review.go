package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvReviewCredentialTTL = "COUNTERSIGN_REVIEW_CREDENTIAL_TTL"
	EnvReviewFrontendURL   = "COUNTERSIGN_REVIEW_FRONTEND_URL"
)

// ReviewConfig holds approval pipeline parameters: how long external access
// credentials stay valid and where emailed review links point.
type ReviewConfig struct {
	CredentialTTL string `toml:"credential_ttl"`
	FrontendURL   string `toml:"frontend_url"`
}

// CredentialTTLDuration returns CredentialTTL as a time.Duration.
func (c *ReviewConfig) CredentialTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CredentialTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ReviewConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ReviewConfig) Merge(overlay *ReviewConfig) {
	if overlay.CredentialTTL != "" {
		c.CredentialTTL = overlay.CredentialTTL
	}
	if overlay.FrontendURL != "" {
		c.FrontendURL = overlay.FrontendURL
	}
}

func (c *ReviewConfig) loadDefaults() {
	if c.CredentialTTL == "" {
		c.CredentialTTL = "24h"
	}
	if c.FrontendURL == "" {
		c.FrontendURL = "http://localhost:4200"
	}
}

func (c *ReviewConfig) loadEnv() {
	if v := os.Getenv(EnvReviewCredentialTTL); v != "" {
		c.CredentialTTL = v
	}
	if v := os.Getenv(EnvReviewFrontendURL); v != "" {
		c.FrontendURL = v
	}
}

func (c *ReviewConfig) validate() error {
	ttl, err := time.ParseDuration(c.CredentialTTL)
	if err != nil {
		return fmt.Errorf("invalid credential_ttl: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("credential_ttl must be positive")
	}
	return nil
}
