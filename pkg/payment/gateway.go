package payment

import "context"

// Gateway defines the surface of the payment provider the backend needs.
// The provider itself is opaque: it hosts checkout, owns subscription
// lifecycle state, and pushes signed events back at the webhook endpoint.
type Gateway interface {
	// CreateCheckoutSession creates a hosted checkout session for a plan.
	// The session metadata must carry the user id and plan name so that
	// webhook events can be correlated back to a local user.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// CreatePortalSession creates a billing-portal session where the user
	// manages an existing subscription. Returns the portal URL.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)

	// SubscriptionMetadata fetches the metadata attached to a provider
	// subscription. Used to resolve the user id for event types that do
	// not embed it directly (invoice.payment_failed).
	SubscriptionMetadata(ctx context.Context, subscriptionID string) (map[string]string, error)

	// VerifySignature checks the webhook signature header against the raw
	// payload using the shared signing secret.
	VerifySignature(payload []byte, header string) error
}

// CheckoutParams describes a checkout session to create.
type CheckoutParams struct {
	PriceID    string
	UserID     string
	PlanName   string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the created hosted checkout session.
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}
