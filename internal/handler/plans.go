package handler

import (
	"net/http"

	"github.com/civicgraph/backend/internal/domain"
)

// PlansHandler serves the public tier catalog.
type PlansHandler struct {
	tiers *domain.TierTable
}

// NewPlansHandler creates a new PlansHandler.
func NewPlansHandler(tiers *domain.TierTable) *PlansHandler {
	return &PlansHandler{tiers: tiers}
}

// List handles GET /api/plans.
func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.tiers.All())
}
