package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/civicgraph/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planStoreStub struct {
	user *domain.User
	err  error
}

func (s *planStoreStub) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.user, s.err
}

type usageStoreStub struct {
	count int
	err   error

	calls     int
	lastSince time.Time
}

func (s *usageStoreStub) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	s.calls++
	s.lastSince = since
	return s.count, s.err
}

func newTestEntitlements(tier string, used int) (*EntitlementService, *usageStoreStub) {
	usage := &usageStoreStub{count: used}
	svc := NewEntitlementService(
		domain.NewTierTable(),
		&planStoreStub{user: &domain.User{ID: "u1", Tier: tier}},
		usage,
	)
	return svc, usage
}

func TestCheckPermissionQuotaUnderLimit(t *testing.T) {
	svc, _ := newTestEntitlements(domain.TierFree, 9)

	decision, err := svc.CheckPermission(context.Background(), "u1", domain.ActionCivicAction)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCheckPermissionQuotaAtLimit(t *testing.T) {
	svc, _ := newTestEntitlements(domain.TierFree, 10)

	decision, err := svc.CheckPermission(context.Background(), "u1", domain.ActionCivicAction)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.DenyQuotaExceeded, decision.Reason)
	assert.Equal(t, 10, decision.Limit)
	assert.Contains(t, decision.Message, "10")
}

func TestCheckPermissionUnlimitedSkipsCounting(t *testing.T) {
	svc, usage := newTestEntitlements(domain.TierPro, 0)
	usage.err = errors.New("must not be called")

	decision, err := svc.CheckPermission(context.Background(), "u1", domain.ActionCivicAction)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Zero(t, usage.calls)
}

func TestCheckPermissionQuotaWindowIsCalendarMonthUTC(t *testing.T) {
	svc, usage := newTestEntitlements(domain.TierFree, 0)
	svc.now = func() time.Time {
		return time.Date(2026, time.January, 31, 23, 59, 59, 0, time.UTC)
	}

	_, err := svc.CheckPermission(context.Background(), "u1", domain.ActionCivicAction)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), usage.lastSince)
}

func TestCheckPermissionCapabilityDenied(t *testing.T) {
	tests := []struct {
		kind         domain.ActionKind
		requiredTier string
	}{
		{domain.ActionAIRequest, domain.TierPro},
		{domain.ActionExport, domain.TierPro},
		{domain.ActionAPICall, domain.TierTeam},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			svc, _ := newTestEntitlements(domain.TierFree, 0)

			decision, err := svc.CheckPermission(context.Background(), "u1", tt.kind)
			require.NoError(t, err)
			assert.False(t, decision.Allowed)
			assert.Equal(t, domain.DenyCapabilityNotInPlan, decision.Reason)
			assert.Equal(t, tt.requiredTier, decision.RequiredTier)
			assert.Contains(t, decision.Message, tt.requiredTier)
		})
	}
}

func TestCheckPermissionCapabilityAllowed(t *testing.T) {
	svc, _ := newTestEntitlements(domain.TierPro, 0)

	decision, err := svc.CheckPermission(context.Background(), "u1", domain.ActionAIRequest)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCheckPermissionUnknownKind(t *testing.T) {
	svc, _ := newTestEntitlements(domain.TierFree, 0)

	_, err := svc.CheckPermission(context.Background(), "u1", domain.ActionKind("teleport"))
	assert.Error(t, err)
}

func TestCheckPermissionUserNotFound(t *testing.T) {
	svc := NewEntitlementService(domain.NewTierTable(), &planStoreStub{}, &usageStoreStub{})

	_, err := svc.CheckPermission(context.Background(), "missing", domain.ActionCivicAction)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCheckPermissionUnknownTier(t *testing.T) {
	svc := NewEntitlementService(
		domain.NewTierTable(),
		&planStoreStub{user: &domain.User{ID: "u1", Tier: "Platinum"}},
		&usageStoreStub{},
	)

	_, err := svc.CheckPermission(context.Background(), "u1", domain.ActionCivicAction)
	assert.ErrorIs(t, err, domain.ErrUnknownTier)
}

func TestCheckPermissionEmptyTierDefaultsToFree(t *testing.T) {
	svc := NewEntitlementService(
		domain.NewTierTable(),
		&planStoreStub{user: &domain.User{ID: "u1"}},
		&usageStoreStub{count: 10},
	)

	decision, err := svc.CheckPermission(context.Background(), "u1", domain.ActionCivicAction)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.DenyQuotaExceeded, decision.Reason)
}

func TestGetUsageSummary(t *testing.T) {
	svc, _ := newTestEntitlements(domain.TierFree, 7)

	summary, err := svc.GetUsageSummary(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, summary.Tier)
	assert.Equal(t, 7, summary.Used)
	assert.Equal(t, domain.Quota(10), summary.Limit)
	assert.InDelta(t, 70.0, summary.Percentage, 0.01)
}

func TestGetUsageSummaryOverageNotClamped(t *testing.T) {
	svc, _ := newTestEntitlements(domain.TierFree, 12)

	summary, err := svc.GetUsageSummary(context.Background(), "u1")
	require.NoError(t, err)
	assert.InDelta(t, 120.0, summary.Percentage, 0.01)
}

func TestGetUsageSummaryUnlimited(t *testing.T) {
	svc, _ := newTestEntitlements(domain.TierPro, 5000)

	summary, err := svc.GetUsageSummary(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, summary.Limit.Unlimited())
	assert.Zero(t, summary.Percentage)
}
