// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/inklane/countersign/internal/config"
	"github.com/inklane/countersign/internal/infrastructure"
	"github.com/inklane/countersign/pkg/middleware"
	"github.com/inklane/countersign/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))
	m.Use(domain.Auth.Middleware)

	return m, nil
}
