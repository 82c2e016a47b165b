package payment

import (
	"encoding/json"
	"fmt"
)

// EventType discriminates provider lifecycle events. The provider's
// vocabulary is a superset of what we handle; anything else parses as
// EventUnknown and is acknowledged without effect.
type EventType string

const (
	EventCheckoutCompleted    EventType = "checkout.session.completed"
	EventSubscriptionUpdated  EventType = "customer.subscription.updated"
	EventSubscriptionDeleted  EventType = "customer.subscription.deleted"
	EventInvoicePaymentFailed EventType = "invoice.payment_failed"
	EventUnknown              EventType = "unknown"
)

// Event is a parsed provider event. Exactly one of the typed bodies is
// set, matching Type; for EventUnknown all bodies are nil and RawType
// holds the provider's type string.
type Event struct {
	ID      string
	Type    EventType
	RawType string

	CheckoutCompleted   *CheckoutCompletedEvent
	SubscriptionUpdated *SubscriptionUpdatedEvent
	SubscriptionDeleted *SubscriptionDeletedEvent
	PaymentFailed       *PaymentFailedEvent
}

// CheckoutCompletedEvent signals a finished checkout: the user now has a
// provider subscription. UserID and PlanName come from the session
// metadata written at checkout creation.
type CheckoutCompletedEvent struct {
	UserID         string
	PlanName       string
	SubscriptionID string
}

// SubscriptionUpdatedEvent carries the provider's current status string
// for an existing subscription.
type SubscriptionUpdatedEvent struct {
	UserID         string
	SubscriptionID string
	Status         string
}

// SubscriptionDeletedEvent signals cancellation.
type SubscriptionDeletedEvent struct {
	UserID         string
	SubscriptionID string
}

// PaymentFailedEvent signals a failed invoice payment. UserID may be
// empty; the processor then resolves it via the subscription metadata.
type PaymentFailedEvent struct {
	UserID         string
	SubscriptionID string
}

// rawEvent is the provider's envelope: a type discriminator plus a
// type-specific object under data.object.
type rawEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutObject struct {
	ID           string            `json:"id"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionObject struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

type invoiceObject struct {
	ID           string            `json:"id"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// ParseEvent decodes a verified webhook payload into a typed event.
// Unrecognized event types are not an error.
func ParseEvent(payload []byte) (*Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode event envelope: %w", err)
	}
	if raw.Type == "" {
		return nil, fmt.Errorf("event has no type")
	}

	ev := &Event{ID: raw.ID, RawType: raw.Type}

	switch EventType(raw.Type) {
	case EventCheckoutCompleted:
		var obj checkoutObject
		if err := json.Unmarshal(raw.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		ev.Type = EventCheckoutCompleted
		ev.CheckoutCompleted = &CheckoutCompletedEvent{
			UserID:         obj.Metadata["userId"],
			PlanName:       obj.Metadata["planName"],
			SubscriptionID: obj.Subscription,
		}

	case EventSubscriptionUpdated:
		var obj subscriptionObject
		if err := json.Unmarshal(raw.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		ev.Type = EventSubscriptionUpdated
		ev.SubscriptionUpdated = &SubscriptionUpdatedEvent{
			UserID:         obj.Metadata["userId"],
			SubscriptionID: obj.ID,
			Status:         obj.Status,
		}

	case EventSubscriptionDeleted:
		var obj subscriptionObject
		if err := json.Unmarshal(raw.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		ev.Type = EventSubscriptionDeleted
		ev.SubscriptionDeleted = &SubscriptionDeletedEvent{
			UserID:         obj.Metadata["userId"],
			SubscriptionID: obj.ID,
		}

	case EventInvoicePaymentFailed:
		var obj invoiceObject
		if err := json.Unmarshal(raw.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
		ev.Type = EventInvoicePaymentFailed
		ev.PaymentFailed = &PaymentFailedEvent{
			UserID:         obj.Metadata["userId"],
			SubscriptionID: obj.Subscription,
		}

	default:
		ev.Type = EventUnknown
	}

	return ev, nil
}
