package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/civicgraph/backend/internal/domain"
	"github.com/civicgraph/backend/pkg/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

type planWriterRec struct {
	plans    map[string]domain.PlanState
	statuses map[string]domain.SubscriptionStatus
	err      error
	writes   int
}

func newPlanWriterRec() *planWriterRec {
	return &planWriterRec{
		plans:    make(map[string]domain.PlanState),
		statuses: make(map[string]domain.SubscriptionStatus),
	}
}

func (r *planWriterRec) UpdatePlan(ctx context.Context, userID string, state domain.PlanState) error {
	if r.err != nil {
		return r.err
	}
	r.writes++
	r.plans[userID] = state
	r.statuses[userID] = state.Status
	return nil
}

func (r *planWriterRec) UpdatePlanStatus(ctx context.Context, userID string, status domain.SubscriptionStatus) error {
	if r.err != nil {
		return r.err
	}
	r.writes++
	r.statuses[userID] = status
	return nil
}

type gatewayStub struct {
	metadata map[string]string
	metaErr  error
}

func (g *gatewayStub) CreateCheckoutSession(ctx context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error) {
	return &payment.CheckoutSession{ID: "cs_test", URL: "https://checkout.example/cs_test"}, nil
}

func (g *gatewayStub) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	return "https://portal.example", nil
}

func (g *gatewayStub) SubscriptionMetadata(ctx context.Context, subscriptionID string) (map[string]string, error) {
	return g.metadata, g.metaErr
}

func (g *gatewayStub) VerifySignature(payload []byte, header string) error {
	return payment.VerifyPayload(testSecret, payload, header, time.Now(), payment.DefaultTolerance)
}

func signed(payload string) (body []byte, header string) {
	b := []byte(payload)
	return b, payment.SignPayload(testSecret, time.Now(), b)
}

func checkoutPayload(userID, plan, subID string) string {
	return fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"subscription": %q,
			"metadata": {"userId": %q, "planName": %q}
		}}
	}`, subID, userID, plan)
}

func TestHandleEventRejectsBadSignature(t *testing.T) {
	writer := newPlanWriterRec()
	svc := NewBillingService(writer, &gatewayStub{})

	payloadBytes := []byte(checkoutPayload("u1", "Pro", "sub_1"))
	header := payment.SignPayload("wrong-secret", time.Now(), payloadBytes)

	err := svc.HandleEvent(context.Background(), payloadBytes, header)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	assert.Zero(t, writer.writes)
}

func TestHandleEventRejectsMalformedPayload(t *testing.T) {
	writer := newPlanWriterRec()
	svc := NewBillingService(writer, &gatewayStub{})

	body, header := signed(`{"id": "evt_1"}`)
	err := svc.HandleEvent(context.Background(), body, header)
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
	assert.Zero(t, writer.writes)
}

func TestHandleEventCheckoutCompleted(t *testing.T) {
	writer := newPlanWriterRec()
	svc := NewBillingService(writer, &gatewayStub{})

	body, header := signed(checkoutPayload("u1", "Pro", "sub_1"))
	require.NoError(t, svc.HandleEvent(context.Background(), body, header))

	state := writer.plans["u1"]
	assert.Equal(t, "Pro", state.Tier)
	assert.Equal(t, domain.StatusActive, state.Status)
	require.NotNil(t, state.SubscriptionID)
	assert.Equal(t, "sub_1", *state.SubscriptionID)
}

func TestHandleEventCheckoutWithoutUserIDIsAbsorbed(t *testing.T) {
	writer := newPlanWriterRec()
	svc := NewBillingService(writer, &gatewayStub{})

	body, header := signed(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "subscription": "sub_1", "metadata": {}}}
	}`)
	assert.NoError(t, svc.HandleEvent(context.Background(), body, header))
	assert.Zero(t, writer.writes)
}

func TestHandleEventSubscriptionDeletedDowngradesToFree(t *testing.T) {
	writer := newPlanWriterRec()
	svc := NewBillingService(writer, &gatewayStub{})

	body, header := signed(`{
		"id": "evt_2",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_1", "status": "canceled", "metadata": {"userId": "u1"}}}
	}`)
	require.NoError(t, svc.HandleEvent(context.Background(), body, header))

	state := writer.plans["u1"]
	assert.Equal(t, domain.TierFree, state.Tier)
	assert.Equal(t, domain.StatusCanceled, state.Status)
	assert.Nil(t, state.SubscriptionID)
}

func TestHandleEventRedeliveryConverges(t *testing.T) {
	writer := newPlanWriterRec()
	svc := NewBillingService(writer, &gatewayStub{})

	cancel := `{
		"id": "evt_2",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_1", "metadata": {"userId": "u1"}}}
	}`

	// checkout, cancel, then the cancel redelivered
	for _, payload := range []string{checkoutPayload("u1", "Pro", "sub_1"), cancel, cancel} {
		body, header := signed(payload)
		require.NoError(t, svc.HandleEvent(context.Background(), body, header))
	}

	state := writer.plans["u1"]
	assert.Equal(t, domain.TierFree, state.Tier)
	assert.Equal(t, domain.StatusCanceled, state.Status)
}

func TestHandleEventSubscriptionUpdatedStatusMapping(t *testing.T) {
	tests := []struct {
		provider string
		want     domain.SubscriptionStatus
	}{
		{"active", domain.StatusActive},
		{"trialing", domain.StatusActive},
		{"canceled", domain.StatusCanceled},
		{"past_due", domain.StatusPastDue},
		{"incomplete_expired", domain.StatusPastDue}, // fail closed
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			writer := newPlanWriterRec()
			svc := NewBillingService(writer, &gatewayStub{})

			body, header := signed(fmt.Sprintf(`{
				"id": "evt_3",
				"type": "customer.subscription.updated",
				"data": {"object": {"id": "sub_1", "status": %q, "metadata": {"userId": "u1"}}}
			}`, tt.provider))
			require.NoError(t, svc.HandleEvent(context.Background(), body, header))
			assert.Equal(t, tt.want, writer.statuses["u1"])
		})
	}
}

func TestHandleEventSubscriptionUpdatedKeepsTier(t *testing.T) {
	writer := newPlanWriterRec()
	svc := NewBillingService(writer, &gatewayStub{})

	body, header := signed(checkoutPayload("u1", "Team", "sub_1"))
	require.NoError(t, svc.HandleEvent(context.Background(), body, header))

	body, header = signed(`{
		"id": "evt_3",
		"type": "customer.subscription.updated",
		"data": {"object": {"id": "sub_1", "status": "past_due", "metadata": {"userId": "u1"}}}
	}`)
	require.NoError(t, svc.HandleEvent(context.Background(), body, header))

	// status flips, tier untouched
	assert.Equal(t, "Team", writer.plans["u1"].Tier)
	assert.Equal(t, domain.StatusPastDue, writer.statuses["u1"])
}

func TestHandleEventPaymentFailedResolvesUserViaGateway(t *testing.T) {
	writer := newPlanWriterRec()
	svc := NewBillingService(writer, &gatewayStub{metadata: map[string]string{"userId": "u9"}})

	body, header := signed(`{
		"id": "evt_4",
		"type": "invoice.payment_failed",
		"data": {"object": {"id": "in_1", "subscription": "sub_9", "metadata": {}}}
	}`)
	require.NoError(t, svc.HandleEvent(context.Background(), body, header))
	assert.Equal(t, domain.StatusPastDue, writer.statuses["u9"])
}

func TestHandleEventPaymentFailedLookupFailureIsAbsorbed(t *testing.T) {
	writer := newPlanWriterRec()
	svc := NewBillingService(writer, &gatewayStub{metaErr: errors.New("provider down")})

	body, header := signed(`{
		"id": "evt_4",
		"type": "invoice.payment_failed",
		"data": {"object": {"id": "in_1", "subscription": "sub_9", "metadata": {}}}
	}`)
	assert.NoError(t, svc.HandleEvent(context.Background(), body, header))
	assert.Zero(t, writer.writes)
}

func TestHandleEventUnknownTypeAcknowledged(t *testing.T) {
	writer := newPlanWriterRec()
	svc := NewBillingService(writer, &gatewayStub{})

	body, header := signed(`{
		"id": "evt_5",
		"type": "customer.updated",
		"data": {"object": {}}
	}`)
	assert.NoError(t, svc.HandleEvent(context.Background(), body, header))
	assert.Zero(t, writer.writes)
}

func TestHandleEventStoreFailurePropagates(t *testing.T) {
	writer := newPlanWriterRec()
	writer.err = errors.New("db down")
	svc := NewBillingService(writer, &gatewayStub{})

	body, header := signed(checkoutPayload("u1", "Pro", "sub_1"))
	err := svc.HandleEvent(context.Background(), body, header)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidSignature)
	assert.NotErrorIs(t, err, domain.ErrMalformedPayload)
}
