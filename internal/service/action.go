package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/civicgraph/backend/internal/domain"
)

// ActionStore persists and queries civic actions.
type ActionStore interface {
	Insert(ctx context.Context, a *domain.CivicAction) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.CivicAction, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// Broadcaster pushes newly logged actions to connected feed clients.
type Broadcaster interface {
	BroadcastAction(a *domain.CivicAction)
}

// ActionService logs civic actions under the quota entitlement and
// serves action listings, the leaderboard, and data export.
type ActionService struct {
	entitlements *EntitlementService
	actions      ActionStore
	feed         Broadcaster
	now          func() time.Time
}

// NewActionService creates an ActionService. feed may be nil when no
// realtime hub is running.
func NewActionService(entitlements *EntitlementService, actions ActionStore, feed Broadcaster) *ActionService {
	return &ActionService{
		entitlements: entitlements,
		actions:      actions,
		feed:         feed,
		now:          time.Now,
	}
}

// LogAction checks the civic_action entitlement and, if permitted,
// appends a usage record and broadcasts it to the activity feed. A
// denied decision is returned as data with a nil action.
func (s *ActionService) LogAction(ctx context.Context, userID string, req *domain.CreateActionRequest) (*domain.CivicAction, domain.Decision, error) {
	decision, err := s.entitlements.CheckPermission(ctx, userID, domain.ActionCivicAction)
	if err != nil {
		return nil, domain.Decision{}, err
	}
	if !decision.Allowed {
		return nil, decision, nil
	}

	action := &domain.CivicAction{
		ID:           domain.NewActionID(),
		UserID:       userID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		ImpactPoints: domain.PointsForCategory(req.Category),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.actions.Insert(ctx, action); err != nil {
		return nil, domain.Decision{}, fmt.Errorf("failed to record action: %w", err)
	}

	if s.feed != nil {
		s.feed.BroadcastAction(action)
	}
	return action, decision, nil
}

// ListActions returns the user's most recent actions.
func (s *ActionService) ListActions(ctx context.Context, userID string, limit int) ([]*domain.CivicAction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.actions.ListByUser(ctx, userID, limit)
}

// Leaderboard returns the top users by total impact points.
func (s *ActionService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.actions.Leaderboard(ctx, limit)
}

// Export renders the user's action history as CSV or JSON, gated by the
// data export entitlement.
func (s *ActionService) Export(ctx context.Context, userID, format string) ([]byte, string, domain.Decision, error) {
	decision, err := s.entitlements.CheckPermission(ctx, userID, domain.ActionExport)
	if err != nil {
		return nil, "", domain.Decision{}, err
	}
	if !decision.Allowed {
		return nil, "", decision, nil
	}

	actions, err := s.actions.ListByUser(ctx, userID, 10000)
	if err != nil {
		return nil, "", domain.Decision{}, err
	}

	switch format {
	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"id", "title", "description", "category", "impact_points", "verified", "created_at"})
		for _, a := range actions {
			_ = w.Write([]string{
				a.ID, a.Title, a.Description, a.Category,
				strconv.Itoa(a.ImpactPoints), strconv.FormatBool(a.Verified),
				a.CreatedAt.Format(time.RFC3339),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, "", domain.Decision{}, fmt.Errorf("failed to write csv: %w", err)
		}
		return buf.Bytes(), "text/csv", decision, nil

	case "", "json":
		data, err := json.MarshalIndent(actions, "", "  ")
		if err != nil {
			return nil, "", domain.Decision{}, fmt.Errorf("failed to marshal export: %w", err)
		}
		return data, "application/json", decision, nil
	}

	return nil, "", domain.Decision{}, domain.ErrBadRequest("unsupported export format, use csv or json")
}
