package review

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/inklane/countersign/internal/auth"
	"github.com/inklane/countersign/internal/identities"
	"github.com/inklane/countersign/pkg/handlers"
	"github.com/inklane/countersign/pkg/routes"
)

// Handler provides HTTP endpoints for approval orchestration. Internal
// endpoints require a session; external endpoints authenticate through the
// one-time access token carried in the request.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "review"),
	}
}

// ExternalApproveRequest is the body of a token-based external approval.
type ExternalApproveRequest struct {
	Token      string        `json:"token"`
	WorkflowID *uuid.UUID    `json:"workflow_id,omitempty"`
	Stamp      *StampCommand `json:"stamp,omitempty"`
}

// SessionApproveRequest is the body of a session-based external approval.
type SessionApproveRequest struct {
	Stamp *StampCommand `json:"stamp,omitempty"`
}

// ValidatePasscodeRequest is the body of an advisory passcode check.
type ValidatePasscodeRequest struct {
	Token    string `json:"token"`
	Passcode string `json:"passcode"`
}

// Routes returns the route group definition for review endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/review",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/internal/{id}/approve", Handler: h.ApproveInternal},
			{Method: "POST", Pattern: "/external/approve", Handler: h.ApproveExternal},
			{Method: "POST", Pattern: "/external/{id}/approve", Handler: h.ApproveExternalBySession},
			{Method: "POST", Pattern: "/external/validate", Handler: h.ValidatePasscode},
			{Method: "GET", Pattern: "/external/workflow", Handler: h.WorkflowForToken},
			{Method: "GET", Pattern: "/external/workflows", Handler: h.WorkflowsForToken},
			{Method: "GET", Pattern: "/external/user", Handler: h.ExternalUserForToken},
		},
	}
}

// ApproveInternal records the internal approval of a workflow by the
// authenticated reviewer.
func (h *Handler) ApproveInternal(w http.ResponseWriter, r *http.Request) {
	principal, ok := identities.PrincipalFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrUnauthorized)
		return
	}
	if principal.Role != identities.RoleAdmin && principal.Role != identities.RoleInternal {
		handlers.RespondError(w, h.logger, http.StatusForbidden, auth.ErrForbidden)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	var stamp StampCommand
	if err := json.NewDecoder(r.Body).Decode(&stamp); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	receipt, err := h.sys.ApproveInternal(r.Context(), principal.ID, id, stamp)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, receipt)
}

// ApproveExternal completes a workflow through a one-time access token.
func (h *Handler) ApproveExternal(w http.ResponseWriter, r *http.Request) {
	var req ExternalApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	receipt, err := h.sys.ApproveExternal(r.Context(), req.Token, req.WorkflowID, req.Stamp)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, receipt)
}

// ApproveExternalBySession completes a workflow for an authenticated
// external reviewer.
func (h *Handler) ApproveExternalBySession(w http.ResponseWriter, r *http.Request) {
	principal, ok := identities.PrincipalFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrUnauthorized)
		return
	}
	if principal.Role != identities.RoleExternal {
		handlers.RespondError(w, h.logger, http.StatusForbidden, auth.ErrForbidden)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	var req SessionApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	receipt, err := h.sys.ApproveExternalBySession(r.Context(), principal.ID, principal.Email, id, req.Stamp)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, receipt)
}

// ValidatePasscode performs the advisory passcode check for a token.
func (h *Handler) ValidatePasscode(w http.ResponseWriter, r *http.Request) {
	var req ValidatePasscodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	valid, err := h.sys.ValidatePasscode(r.Context(), req.Token, req.Passcode)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// WorkflowForToken returns the workflow summary visible through a token.
// An optional workflow_id query parameter requests a specific workflow,
// subject to reviewer scoping.
func (h *Handler) WorkflowForToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	var workflowID *uuid.UUID
	if raw := r.URL.Query().Get("workflow_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
			return
		}
		workflowID = &id
	}

	summary, err := h.sys.WorkflowForToken(r.Context(), token, workflowID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, summary)
}

// WorkflowsForToken lists the workflow summaries scoped to the token's
// external reviewer.
func (h *Handler) WorkflowsForToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	summaries, err := h.sys.WorkflowsForToken(r.Context(), token)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, summaries)
}

// ExternalUserForToken identifies the external reviewer behind a token.
func (h *Handler) ExternalUserForToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	user, err := h.sys.ExternalUserForToken(r.Context(), token)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, user)
}
