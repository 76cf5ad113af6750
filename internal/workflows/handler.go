package workflows

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/inklane/countersign/internal/auth"
	"github.com/inklane/countersign/internal/identities"
	"github.com/inklane/countersign/pkg/handlers"
	"github.com/inklane/countersign/pkg/pagination"
	"github.com/inklane/countersign/pkg/routes"
)

// Handler provides HTTP endpoints for workflow operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "workflows"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for workflow endpoints.
// The read-only check is unauthenticated so document tooling can call
// it before opening a file; everything else requires a session.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/workflows",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/assigned", Handler: h.Assigned},
			{Method: "GET", Pattern: "/read-only", Handler: h.ReadOnly},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/document", Handler: h.Download},
			{Method: "PUT", Pattern: "/{id}/document", Handler: h.Save},
			{Method: "GET", Pattern: "/{id}/stamps", Handler: h.Stamps},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List returns a paginated list of workflows with optional query parameter filters.
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

// Assigned returns the workflows awaiting internal action by the
// authenticated reviewer.
func (h *Handler) Assigned(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireInternal(w, r)
	if !ok {
		return
	}

	result, err := h.sys.ListForReviewer(r.Context(), principal.ID)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// ReadOnly reports whether the document behind the given storage key may
// still be edited.
func (h *Handler) ReadOnly(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]bool{
		"read_only": h.sys.IsReadOnly(r.Context(), key),
	})
}

// Find returns a single workflow by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireInternal(w, r); !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	workflow, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, workflow)
}

// Download streams the workflow's PDF document.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireInternal(w, r); !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	workflow, result, err := h.sys.DownloadDocument(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer result.Body.Close()

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", "inline; filename=\""+workflow.Filename+"\"")
	if result.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(result.ContentLength, 10))
	}

	if _, err := io.Copy(w, result.Body); err != nil {
		h.logger.Warn("interrupted document stream", "workflow", workflow.ID, "error", err)
	}
}

// Save replaces the workflow's PDF document with the request body.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireInternal(w, r); !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrInvalidRequest)
		return
	}

	if err := h.sys.SaveDocument(r.Context(), id, data); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stamps returns the approval stamps recorded against a workflow.
func (h *Handler) Stamps(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireInternal(w, r); !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	result, err := h.sys.ListStamps(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching workflows.
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

// Create processes a multipart form upload containing the document PDF and
// workflow metadata, opening the workflow in the pending internal review
// state.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireInternal(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrInvalidRequest)
		return
	}

	title := r.FormValue("title")
	externalEmail := r.FormValue("external_reviewer_email")

	reviewerID, err := uuid.Parse(r.FormValue("internal_reviewer_id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	if _, err := api.PageCount(bytes.NewReader(data), nil); err != nil {
		h.logger.Warn("rejected non-PDF upload", "filename", header.Filename, "error", err)
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	cmd := CreateCommand{
		Title:                 title,
		Data:                  data,
		Filename:              header.Filename,
		CreatedBy:             principal.ID,
		InternalReviewerID:    reviewerID,
		ExternalReviewerEmail: externalEmail,
	}

	workflow, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, workflow)
}

// Delete removes a workflow by its UUID path parameter. Restricted to admins.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireInternal(w, r)
	if !ok {
		return
	}
	if !principal.Admin() {
		handlers.RespondError(w, h.logger, http.StatusForbidden, auth.ErrForbidden)
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
func (h *Handler) requireInternal(w http.ResponseWriter, r *http.Request) (*identities.Principal, bool) {
	principal, ok := identities.PrincipalFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrUnauthorized)
		return nil, false
	}
	if principal.Role != identities.RoleAdmin && principal.Role != identities.RoleInternal {
		handlers.RespondError(w, h.logger, http.StatusForbidden, auth.ErrForbidden)
		return nil, false
	}
	return principal, true
}
