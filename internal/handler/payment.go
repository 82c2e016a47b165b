package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/civicgraph/backend/internal/contextkeys"
	"github.com/civicgraph/backend/internal/domain"
	"github.com/civicgraph/backend/internal/service"
)

// maxWebhookBody bounds webhook payload reads.
const maxWebhookBody = 1 << 20

// signatureHeader is the provider's webhook signature header.
const signatureHeader = "Payment-Signature"

// PaymentHandler handles checkout, portal, plan state, and the inbound
// billing webhook.
type PaymentHandler struct {
	subs    *service.SubscriptionService
	billing *service.BillingService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(subs *service.SubscriptionService, billing *service.BillingService) *PaymentHandler {
	return &PaymentHandler{subs: subs, billing: billing}
}

// CheckoutRequest is the validated input for starting a checkout.
type CheckoutRequest struct {
	Plan string `json:"plan" validate:"required"`
}

// PortalRequest is the validated input for opening the billing portal.
type PortalRequest struct {
	CustomerID string `json:"customerId" validate:"required"`
}

// CreateCheckout handles POST /api/payment/checkout.
func (h *PaymentHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextkeys.UserIDFrom(r.Context())
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req CheckoutRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	session, err := h.subs.CreateCheckout(r.Context(), userID, req.Plan)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, session)
}

// CreatePortal handles POST /api/payment/portal.
func (h *PaymentHandler) CreatePortal(w http.ResponseWriter, r *http.Request) {
	var req PortalRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	url, err := h.subs.CreatePortal(r.Context(), req.CustomerID)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"url": url})
}

// GetSubscription handles GET /api/payment/subscription.
func (h *PaymentHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextkeys.UserIDFrom(r.Context())
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	plan, err := h.subs.CurrentPlan(r.Context(), userID)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, plan)
}

// Webhook handles POST /api/payment/webhook. The endpoint is public and
// authenticated solely by the payload signature: 200 with
// {"received": true} once an event is handled or deliberately ignored,
// 400 for signature or parse failures so the provider redelivers
// nothing it shouldn't, 500 when an apply write fails so it redelivers
// what it should.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		JSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read body"})
		return
	}

	err = h.billing.HandleEvent(r.Context(), payload, r.Header.Get(signatureHeader))
	switch {
	case err == nil:
		JSON(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, domain.ErrInvalidSignature):
		log.Printf("webhook: signature verification failed: %v", err)
		JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid signature"})
	case errors.Is(err, domain.ErrMalformedPayload):
		log.Printf("webhook: malformed payload: %v", err)
		JSON(w, http.StatusBadRequest, map[string]string{"error": "malformed payload"})
	default:
		log.Printf("webhook: handler error: %v", err)
		JSON(w, http.StatusInternalServerError, map[string]string{"error": "webhook handler failed"})
	}
}

// Simulate handles POST /api/payment/simulate (admin only, gated in router).
func (h *PaymentHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextkeys.UserIDFrom(r.Context())
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req CheckoutRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	if err := h.subs.SimulateUpgrade(r.Context(), userID, req.Plan); err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}
