package handler

import (
	"errors"
	"net/http"

	"github.com/civicgraph/backend/internal/contextkeys"
	"github.com/civicgraph/backend/internal/domain"
	"github.com/civicgraph/backend/internal/service"
)

// UsageHandler serves the usage-vs-limit meter.
type UsageHandler struct {
	entitlements *service.EntitlementService
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(entitlements *service.EntitlementService) *UsageHandler {
	return &UsageHandler{entitlements: entitlements}
}

// Get handles GET /api/usage.
func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextkeys.UserIDFrom(r.Context())
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	summary, err := h.entitlements.GetUsageSummary(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			JSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, summary)
}
