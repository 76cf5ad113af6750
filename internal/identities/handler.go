package identities

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/inklane/countersign/pkg/handlers"
	"github.com/inklane/countersign/pkg/pagination"
	"github.com/inklane/countersign/pkg/routes"
)

// Handler provides HTTP endpoints for identity administration.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "identities"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for identity endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/identities",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List returns a paginated list of identities with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireInternal(w, r); !ok {
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single identity by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireInternal(w, r); !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	identity, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, identity)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching identities.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireInternal(w, r); !ok {
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Create registers a new identity. Restricted to admins.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var cmd CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	identity, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, identity)
}

// Delete removes an identity by its UUID path parameter. Restricted to admins.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireInternal enforces an authenticated admin or internal principal,
// writing the error response itself when the requirement fails.
func (h *Handler) requireInternal(w http.ResponseWriter, r *http.Request) (*Principal, bool) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized)
		return nil, false
	}
	if principal.Role != RoleAdmin && principal.Role != RoleInternal {
		handlers.RespondError(w, h.logger, http.StatusForbidden, ErrForbidden)
		return nil, false
	}
	return principal, true
}

// requireAdmin enforces an authenticated admin principal.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	principal, ok := h.requireInternal(w, r)
	if !ok {
		return false
	}
	if !principal.Admin() {
		handlers.RespondError(w, h.logger, http.StatusForbidden, ErrForbidden)
		return false
	}
	return true
}
