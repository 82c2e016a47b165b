package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/civicgraph/backend/internal/domain"
	"github.com/civicgraph/backend/internal/service"
	"github.com/civicgraph/backend/pkg/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_handler_test"

type planWriterStub struct {
	plans map[string]domain.PlanState
}

func (s *planWriterStub) UpdatePlan(ctx context.Context, userID string, state domain.PlanState) error {
	s.plans[userID] = state
	return nil
}

func (s *planWriterStub) UpdatePlanStatus(ctx context.Context, userID string, status domain.SubscriptionStatus) error {
	st := s.plans[userID]
	st.Status = status
	s.plans[userID] = st
	return nil
}

type gatewayStub struct{}

func (gatewayStub) CreateCheckoutSession(ctx context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error) {
	return &payment.CheckoutSession{ID: "cs_test", URL: "https://checkout.example"}, nil
}

func (gatewayStub) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	return "https://portal.example", nil
}

func (gatewayStub) SubscriptionMetadata(ctx context.Context, subscriptionID string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (gatewayStub) VerifySignature(payload []byte, header string) error {
	return payment.VerifyPayload(webhookSecret, payload, header, time.Now(), payment.DefaultTolerance)
}

func newWebhookHandler() (*PaymentHandler, *planWriterStub) {
	writer := &planWriterStub{plans: make(map[string]domain.PlanState)}
	billing := service.NewBillingService(writer, gatewayStub{})
	return NewPaymentHandler(nil, billing), writer
}

func postWebhook(h *PaymentHandler, payload, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", strings.NewReader(payload))
	if header != "" {
		req.Header.Set("Payment-Signature", header)
	}
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	return rec
}

func TestWebhookAcknowledgesValidEvent(t *testing.T) {
	h, writer := newWebhookHandler()

	payload := `{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"subscription": "sub_1",
			"metadata": {"userId": "u1", "planName": "Pro"}
		}}
	}`
	header := payment.SignPayload(webhookSecret, time.Now(), []byte(payload))

	rec := postWebhook(h, payload, header)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received": true}`, rec.Body.String())

	state := writer.plans["u1"]
	assert.Equal(t, "Pro", state.Tier)
	assert.Equal(t, domain.StatusActive, state.Status)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h, writer := newWebhookHandler()

	payload := `{"id": "evt_1", "type": "checkout.session.completed", "data": {"object": {}}}`
	header := payment.SignPayload("wrong-secret", time.Now(), []byte(payload))

	rec := postWebhook(h, payload, header)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, writer.plans)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	h, _ := newWebhookHandler()

	rec := postWebhook(h, `{"id": "evt_1", "type": "x", "data": {"object": {}}}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	h, _ := newWebhookHandler()

	payload := `{"id": "evt_1"}`
	header := payment.SignPayload(webhookSecret, time.Now(), []byte(payload))

	rec := postWebhook(h, payload, header)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookAcknowledgesUnknownEventType(t *testing.T) {
	h, writer := newWebhookHandler()

	payload := `{"id": "evt_2", "type": "charge.refunded", "data": {"object": {}}}`
	header := payment.SignPayload(webhookSecret, time.Now(), []byte(payload))

	rec := postWebhook(h, payload, header)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, writer.plans)
}

func TestWebhookIsIdempotentUnderRedelivery(t *testing.T) {
	h, writer := newWebhookHandler()

	payload := fmt.Sprintf(`{
		"id": "evt_3",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_1", "metadata": {"userId": %q}}}
	}`, "u1")
	header := payment.SignPayload(webhookSecret, time.Now(), []byte(payload))

	for i := 0; i < 3; i++ {
		rec := postWebhook(h, payload, header)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	state := writer.plans["u1"]
	assert.Equal(t, domain.TierFree, state.Tier)
	assert.Equal(t, domain.StatusCanceled, state.Status)
}
