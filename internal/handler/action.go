package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/civicgraph/backend/internal/contextkeys"
	"github.com/civicgraph/backend/internal/domain"
	"github.com/civicgraph/backend/internal/service"
)

// ActionHandler handles civic action endpoints.
type ActionHandler struct {
	svc *service.ActionService
}

// NewActionHandler creates a new ActionHandler.
func NewActionHandler(svc *service.ActionService) *ActionHandler {
	return &ActionHandler{svc: svc}
}

// Create handles POST /api/actions and POST /api/v1/actions.
func (h *ActionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextkeys.UserIDFrom(r.Context())
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req domain.CreateActionRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	action, decision, err := h.svc.LogAction(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			JSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		Error(w, err)
		return
	}
	if !decision.Allowed {
		Denied(w, decision)
		return
	}

	JSON(w, http.StatusCreated, action)
}

// List handles GET /api/actions.
func (h *ActionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextkeys.UserIDFrom(r.Context())
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	actions, err := h.svc.ListActions(r.Context(), userID, limit)
	if err != nil {
		Error(w, err)
		return
	}
	if actions == nil {
		actions = []*domain.CivicAction{}
	}
	JSON(w, http.StatusOK, actions)
}

// Leaderboard handles GET /api/leaderboard (public).
func (h *ActionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.svc.Leaderboard(r.Context(), limit)
	if err != nil {
		Error(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	JSON(w, http.StatusOK, entries)
}

// Categories handles GET /api/actions/categories (public).
func (h *ActionHandler) Categories(w http.ResponseWriter, r *http.Request) {
	type category struct {
		Name   string `json:"name"`
		Points int    `json:"points"`
	}
	var categories []category
	for _, name := range domain.ActionCategories() {
		categories = append(categories, category{Name: name, Points: domain.PointsForCategory(name)})
	}
	JSON(w, http.StatusOK, categories)
}

// Export handles GET /api/export?format=csv|json.
func (h *ActionHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextkeys.UserIDFrom(r.Context())
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	data, contentType, decision, err := h.svc.Export(r.Context(), userID, r.URL.Query().Get("format"))
	if err != nil {
		Error(w, err)
		return
	}
	if !decision.Allowed {
		Denied(w, decision)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="civic-actions"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
