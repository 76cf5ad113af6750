package api

import (
	"net/http"

	"github.com/inklane/countersign/internal/config"
	"github.com/inklane/countersign/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Auth.Handler().Routes(),
		domain.Identities.Handler().Routes(),
		domain.Workflows.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Review.Handler().Routes(),
	)

	mux.HandleFunc("GET /openapi.json", newSpecHandler(cfg, runtime))
}
