package handler

import (
	"net/http"

	"github.com/civicgraph/backend/internal/contextkeys"
	"github.com/civicgraph/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// APIKeyHandler manages API keys for plans with API access.
type APIKeyHandler struct {
	svc *service.APIKeyService
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(svc *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{svc: svc}
}

// CreateKeyRequest is the validated input for creating a key.
type CreateKeyRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

// Create handles POST /api/apikeys.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextkeys.UserIDFrom(r.Context())
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req CreateKeyRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	key, decision, err := h.svc.CreateKey(r.Context(), userID, req.Name)
	if err != nil {
		Error(w, err)
		return
	}
	if !decision.Allowed {
		Denied(w, decision)
		return
	}
	JSON(w, http.StatusCreated, key)
}

// List handles GET /api/apikeys.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextkeys.UserIDFrom(r.Context())
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	keys, err := h.svc.ListKeys(r.Context(), userID)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, keys)
}

// Delete handles DELETE /api/apikeys/{id}.
func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextkeys.UserIDFrom(r.Context())
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if err := h.svc.DeleteKey(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}
