package service

import (
	"context"

	"github.com/civicgraph/backend/internal/domain"
	"github.com/civicgraph/backend/internal/repository"
	"github.com/civicgraph/backend/pkg/payment"
)

// SubscriptionService drives the checkout and portal flows and exposes
// the user's current plan state. Plan writes still flow exclusively
// through webhook events; checkout only opens the provider session.
type SubscriptionService struct {
	userRepo *repository.UserRepository
	tiers    *domain.TierTable
	gateway  payment.Gateway
	appURL   string
}

// NewSubscriptionService creates a SubscriptionService.
func NewSubscriptionService(userRepo *repository.UserRepository, tiers *domain.TierTable, gateway payment.Gateway, appURL string) *SubscriptionService {
	return &SubscriptionService{
		userRepo: userRepo,
		tiers:    tiers,
		gateway:  gateway,
		appURL:   appURL,
	}
}

// CreateCheckout creates a provider checkout session for a paid tier.
// The session metadata carries userId and planName so the webhook can
// correlate the resulting events back to this user.
func (s *SubscriptionService) CreateCheckout(ctx context.Context, userID, planName string) (*payment.CheckoutSession, error) {
	tier, ok := s.tiers.Lookup(planName)
	if !ok {
		return nil, domain.ErrBadRequest("unknown plan")
	}
	if tier.PriceID == "" {
		return nil, domain.ErrBadRequest("plan has no checkout price")
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutParams{
		PriceID:    tier.PriceID,
		UserID:     userID,
		PlanName:   tier.Name,
		SuccessURL: s.appURL + "/dashboard?success=true",
		CancelURL:  s.appURL + "/pricing?canceled=true",
	})
	if err != nil {
		return nil, domain.ErrInternal("failed to create checkout session", err)
	}
	return session, nil
}

// CreatePortal creates a billing-portal session for a provider customer.
func (s *SubscriptionService) CreatePortal(ctx context.Context, customerID string) (string, error) {
	if customerID == "" {
		return "", domain.ErrBadRequest("customer id is required")
	}
	url, err := s.gateway.CreatePortalSession(ctx, customerID, s.appURL+"/dashboard")
	if err != nil {
		return "", domain.ErrInternal("failed to create portal session", err)
	}
	return url, nil
}

// CurrentPlan returns the user's plan state.
func (s *SubscriptionService) CurrentPlan(ctx context.Context, userID string) (*domain.PlanState, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}
	return &domain.PlanState{
		Tier:           user.Tier,
		Status:         user.Status,
		SubscriptionID: user.SubscriptionID,
	}, nil
}

// SimulateUpgrade instantly applies a plan, bypassing the provider.
// Admin-only, for development environments.
func (s *SubscriptionService) SimulateUpgrade(ctx context.Context, userID, planName string) error {
	if _, ok := s.tiers.Lookup(planName); !ok {
		return domain.ErrBadRequest("unknown plan")
	}
	return s.userRepo.UpdatePlan(ctx, userID, domain.PlanState{
		Tier:   planName,
		Status: domain.StatusActive,
	})
}
