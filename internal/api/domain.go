package api

import (
	"github.com/inklane/countersign/internal/auth"
	"github.com/inklane/countersign/internal/config"
	"github.com/inklane/countersign/internal/credentials"
	"github.com/inklane/countersign/internal/identities"
	"github.com/inklane/countersign/internal/review"
	"github.com/inklane/countersign/internal/workflows"
	"github.com/inklane/countersign/pkg/stamper"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Identities identities.System
	Workflows  workflows.System
	Review     review.System
	Auth       auth.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	identitiesSystem := identities.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	workflowsSystem := workflows.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Mailer,
		identitiesSystem,
		runtime.Logger,
		runtime.Pagination,
		cfg.Review.FrontendURL,
	)

	reviewSystem := review.New(
		runtime.Database.Connection(),
		workflowsSystem,
		identitiesSystem,
		credentials.New(runtime.Database.Connection()),
		stamper.New(runtime.Storage, runtime.Logger),
		runtime.Mailer,
		runtime.Logger,
		cfg.Review.CredentialTTLDuration(),
		cfg.Review.FrontendURL,
	)

	authSystem := auth.New(
		identitiesSystem,
		runtime.Logger,
		cfg.Auth.Secret,
		cfg.Auth.Issuer,
		cfg.Auth.SessionTTLDuration(),
	)

	return &Domain{
		Identities: identitiesSystem,
		Workflows:  workflowsSystem,
		Review:     reviewSystem,
		Auth:       authSystem,
	}
}
