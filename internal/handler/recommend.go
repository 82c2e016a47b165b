package handler

import (
	"errors"
	"net/http"

	"github.com/civicgraph/backend/internal/contextkeys"
	"github.com/civicgraph/backend/internal/domain"
	"github.com/civicgraph/backend/internal/service"
)

// RecommendHandler serves AI-generated action suggestions.
type RecommendHandler struct {
	svc *service.RecommendationService
}

// NewRecommendHandler creates a new RecommendHandler.
func NewRecommendHandler(svc *service.RecommendationService) *RecommendHandler {
	return &RecommendHandler{svc: svc}
}

// RecommendRequest is the input for POST /api/recommendations.
type RecommendRequest struct {
	Location string `json:"location" validate:"omitempty,max=120"`
}

// Create handles POST /api/recommendations.
func (h *RecommendHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextkeys.UserIDFrom(r.Context())
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req RecommendRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	resp, decision, err := h.svc.Recommend(r.Context(), userID, req.Location)
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
	JSON(w, http.StatusOK, resp)
}
