package handler

import (
	"log"
	"net/http"

	"github.com/civicgraph/backend/internal/repository"
	"github.com/civicgraph/backend/internal/service"
)

// AdminHandler serves platform-wide metrics and user management.
type AdminHandler struct {
	users   *repository.UserRepository
	actions *repository.ActionRepository
	authSvc *service.AuthService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(users *repository.UserRepository, actions *repository.ActionRepository, authSvc *service.AuthService) *AdminHandler {
	return &AdminHandler{users: users, actions: actions, authSvc: authSvc}
}

// GetStats handles GET /api/admin/stats.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	usersCount, err := h.users.CountAll(ctx)
	if err != nil {
		log.Printf("admin: failed to count users: %v", err)
	}
	actionsCount, err := h.actions.CountAll(ctx)
	if err != nil {
		log.Printf("admin: failed to count actions: %v", err)
	}
	subsCount, err := h.users.CountActiveSubscriptions(ctx)
	if err != nil {
		log.Printf("admin: failed to count subscriptions: %v", err)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"users":         usersCount,
		"actions":       actionsCount,
		"subscriptions": subsCount,
	})
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authSvc.ListUsers(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, users)
}
