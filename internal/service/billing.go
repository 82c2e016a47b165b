package service

import (
	"context"
	"fmt"
	"log"

	"github.com/civicgraph/backend/internal/domain"
	"github.com/civicgraph/backend/pkg/payment"
)

// PlanWriter applies plan state transitions. The billing event processor
// is the sole writer of plan state.
type PlanWriter interface {
	UpdatePlan(ctx context.Context, userID string, state domain.PlanState) error
	UpdatePlanStatus(ctx context.Context, userID string, status domain.SubscriptionStatus) error
}

// BillingService keeps local plan state consistent with the payment
// provider under at-least-once, possibly reordered event delivery.
// Every transition is an absolute assignment, so redelivery is safe
// without deduplication bookkeeping.
type BillingService struct {
	users   PlanWriter
	gateway payment.Gateway
}

// NewBillingService creates a BillingService.
func NewBillingService(users PlanWriter, gateway payment.Gateway) *BillingService {
	return &BillingService{users: users, gateway: gateway}
}

// HandleEvent verifies, parses, and applies one provider event.
//
// It returns domain.ErrInvalidSignature or domain.ErrMalformedPayload
// when the transport boundary must reject (non-2xx, so the provider
// redelivers), a wrapped store error when an apply write fails (also
// redelivered), and nil for everything else — including unknown event
// types and events that cannot be correlated to a user, which a retry
// could never fix.
func (s *BillingService) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	if err := s.gateway.VerifySignature(payload, signatureHeader); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	event, err := payment.ParseEvent(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	switch event.Type {
	case payment.EventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, event.CheckoutCompleted)
	case payment.EventSubscriptionUpdated:
		return s.applySubscriptionUpdated(ctx, event.SubscriptionUpdated)
	case payment.EventSubscriptionDeleted:
		return s.applySubscriptionDeleted(ctx, event.SubscriptionDeleted)
	case payment.EventInvoicePaymentFailed:
		return s.applyPaymentFailed(ctx, event.PaymentFailed)
	default:
		log.Printf("billing: ignoring event type %s", event.RawType)
		return nil
	}
}

func (s *BillingService) applyCheckoutCompleted(ctx context.Context, ev *payment.CheckoutCompletedEvent) error {
	if ev.UserID == "" {
		log.Printf("billing: checkout completed without userId metadata, cannot correlate (sub %s)", ev.SubscriptionID)
		return nil
	}

	var subID *string
	if ev.SubscriptionID != "" {
		subID = &ev.SubscriptionID
	}
	if err := s.users.UpdatePlan(ctx, ev.UserID, domain.PlanState{
		Tier:           ev.PlanName,
		Status:         domain.StatusActive,
		SubscriptionID: subID,
	}); err != nil {
		return err
	}
	log.Printf("billing: subscription activated for user %s (tier %s)", ev.UserID, ev.PlanName)
	return nil
}

func (s *BillingService) applySubscriptionUpdated(ctx context.Context, ev *payment.SubscriptionUpdatedEvent) error {
	if ev.UserID == "" {
		log.Printf("billing: subscription update without userId metadata (sub %s)", ev.SubscriptionID)
		return nil
	}

	status := mapProviderStatus(ev.Status)
	if err := s.users.UpdatePlanStatus(ctx, ev.UserID, status); err != nil {
		return err
	}
	log.Printf("billing: subscription updated for user %s (status %s)", ev.UserID, status)
	return nil
}

func (s *BillingService) applySubscriptionDeleted(ctx context.Context, ev *payment.SubscriptionDeletedEvent) error {
	if ev.UserID == "" {
		log.Printf("billing: subscription delete without userId metadata (sub %s)", ev.SubscriptionID)
		return nil
	}

	// Downgrade, not deletion: historical usage records stay.
	if err := s.users.UpdatePlan(ctx, ev.UserID, domain.PlanState{
		Tier:           domain.TierFree,
		Status:         domain.StatusCanceled,
		SubscriptionID: nil,
	}); err != nil {
		return err
	}
	log.Printf("billing: subscription canceled for user %s", ev.UserID)
	return nil
}

func (s *BillingService) applyPaymentFailed(ctx context.Context, ev *payment.PaymentFailedEvent) error {
	userID := ev.UserID
	if userID == "" {
		if ev.SubscriptionID == "" {
			log.Printf("billing: payment failed event without subscription reference")
			return nil
		}
		meta, err := s.gateway.SubscriptionMetadata(ctx, ev.SubscriptionID)
		if err != nil {
			log.Printf("billing: failed to resolve subscription %s: %v", ev.SubscriptionID, err)
			return nil
		}
		userID = meta["userId"]
	}
	if userID == "" {
		log.Printf("billing: payment failed for subscription %s with no userId metadata", ev.SubscriptionID)
		return nil
	}

	// Grace period: tier keeps its capabilities until an explicit
	// cancellation event arrives.
	if err := s.users.UpdatePlanStatus(ctx, userID, domain.StatusPastDue); err != nil {
		return err
	}
	log.Printf("billing: payment failed for user %s, marked past_due", userID)
	return nil
}

// mapProviderStatus maps the provider's status vocabulary to the local
// enumeration. Unrecognized statuses map to past_due, never active:
// fail closed.
func mapProviderStatus(status string) domain.SubscriptionStatus {
	switch status {
	case "active", "trialing":
		return domain.StatusActive
	case "canceled":
		return domain.StatusCanceled
	case "past_due":
		return domain.StatusPastDue
	default:
		return domain.StatusPastDue
	}
}
