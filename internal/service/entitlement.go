package service

import (
	"context"
	"fmt"
	"time"

	"github.com/civicgraph/backend/internal/domain"
)

// PlanStore reads the plan state the billing event processor writes.
type PlanStore interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// UsageStore counts a user's usage records from a given instant.
type UsageStore interface {
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// EntitlementService answers "is this user allowed to do X right now"
// against the tier table and live usage counts. It is a pure read: the
// caller records usage after the action succeeds, so two racing checks
// can both pass and overshoot a finite quota by a few actions. That is
// an accepted soft limit, not a bug to serialize away.
type EntitlementService struct {
	tiers *domain.TierTable
	users PlanStore
	usage UsageStore
	now   func() time.Time
}

// NewEntitlementService creates an EntitlementService.
func NewEntitlementService(tiers *domain.TierTable, users PlanStore, usage UsageStore) *EntitlementService {
	return &EntitlementService{
		tiers: tiers,
		users: users,
		usage: usage,
		now:   time.Now,
	}
}

// capabilityFor maps flag-gated action kinds to their tier capability.
func capabilityFor(kind domain.ActionKind) (domain.Capability, bool) {
	switch kind {
	case domain.ActionAIRequest:
		return domain.CapabilityAIRecommendations, true
	case domain.ActionExport:
		return domain.CapabilityDataExport, true
	case domain.ActionAPICall:
		return domain.CapabilityAPIAccess, true
	}
	return "", false
}

// featureLabels for upgrade messaging.
var featureLabels = map[domain.ActionKind]string{
	domain.ActionAIRequest: "AI recommendations are",
	domain.ActionExport:    "Data export is",
	domain.ActionAPICall:   "API access is",
}

// CheckPermission resolves the user's tier and decides whether the
// action kind is permitted. Denial is returned as a Decision; errors are
// reserved for missing users, tier-table drift, and store failures.
func (s *EntitlementService) CheckPermission(ctx context.Context, userID string, kind domain.ActionKind) (domain.Decision, error) {
	tier, err := s.resolveTier(ctx, userID)
	if err != nil {
		return domain.Decision{}, err
	}

	switch kind {
	case domain.ActionCivicAction:
		limit := tier.Limits.ActionsPerMonth
		if limit.Unlimited() {
			return domain.Permit(), nil
		}
		used, err := s.usage.CountSince(ctx, userID, monthStart(s.now()))
		if err != nil {
			return domain.Decision{}, fmt.Errorf("failed to count usage: %w", err)
		}
		if !limit.Allows(used) {
			return domain.Decision{
				Allowed: false,
				Reason:  domain.DenyQuotaExceeded,
				Limit:   int(limit),
				Message: fmt.Sprintf("You've reached your monthly limit of %d actions. Upgrade to Pro for unlimited actions!", int(limit)),
			}, nil
		}
		return domain.Permit(), nil

	case domain.ActionAIRequest, domain.ActionExport, domain.ActionAPICall:
		capability, _ := capabilityFor(kind)
		if tier.Limits.Has(capability) {
			return domain.Permit(), nil
		}
		minTier, ok := s.tiers.MinimumTierWith(capability)
		if !ok {
			// No tier carries the capability; misconfigured table.
			return domain.Decision{}, fmt.Errorf("%w: no tier grants %s", domain.ErrUnknownTier, capability)
		}
		return domain.Decision{
			Allowed:      false,
			Reason:       domain.DenyCapabilityNotInPlan,
			RequiredTier: minTier.Name,
			Message:      fmt.Sprintf("%s only available on %s and higher plans. Upgrade now!", featureLabels[kind], minTier.Name),
		}, nil
	}

	return domain.Decision{}, fmt.Errorf("unknown action kind %q", kind)
}

// GetUsageSummary reports usage-vs-limit for display. Percentage is 0
// for unlimited quotas and otherwise unclamped, so soft-limit overage
// shows as >100.
func (s *EntitlementService) GetUsageSummary(ctx context.Context, userID string) (*domain.UsageSummary, error) {
	tier, err := s.resolveTier(ctx, userID)
	if err != nil {
		return nil, err
	}

	used, err := s.usage.CountSince(ctx, userID, monthStart(s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to count usage: %w", err)
	}

	limit := tier.Limits.ActionsPerMonth
	summary := &domain.UsageSummary{
		Tier:  tier.Name,
		Used:  used,
		Limit: limit,
	}
	if !limit.Unlimited() {
		summary.Percentage = 100 * float64(used) / float64(limit)
	}
	return summary, nil
}

func (s *EntitlementService) resolveTier(ctx context.Context, userID string) (domain.Tier, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return domain.Tier{}, fmt.Errorf("failed to load plan record: %w", err)
	}
	if user == nil {
		return domain.Tier{}, domain.ErrUserNotFound
	}

	name := user.Tier
	if name == "" {
		name = domain.TierFree
	}
	tier, ok := s.tiers.Lookup(name)
	if !ok {
		return domain.Tier{}, fmt.Errorf("%w: %q", domain.ErrUnknownTier, name)
	}
	return tier, nil
}

// monthStart returns the start of the current calendar month in UTC.
// Quota periods are calendar-month aligned, not provider-cycle aligned.
func monthStart(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
}
