package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventCheckoutCompleted(t *testing.T) {
	ev, err := ParseEvent([]byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"subscription": "sub_1",
			"metadata": {"userId": "u1", "planName": "Pro"}
		}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	require.NotNil(t, ev.CheckoutCompleted)
	assert.Equal(t, "u1", ev.CheckoutCompleted.UserID)
	assert.Equal(t, "Pro", ev.CheckoutCompleted.PlanName)
	assert.Equal(t, "sub_1", ev.CheckoutCompleted.SubscriptionID)
}

func TestParseEventSubscriptionUpdated(t *testing.T) {
	ev, err := ParseEvent([]byte(`{
		"id": "evt_2",
		"type": "customer.subscription.updated",
		"data": {"object": {"id": "sub_1", "status": "past_due", "metadata": {"userId": "u1"}}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, EventSubscriptionUpdated, ev.Type)
	require.NotNil(t, ev.SubscriptionUpdated)
	assert.Equal(t, "past_due", ev.SubscriptionUpdated.Status)
	assert.Equal(t, "sub_1", ev.SubscriptionUpdated.SubscriptionID)
}

func TestParseEventInvoicePaymentFailed(t *testing.T) {
	ev, err := ParseEvent([]byte(`{
		"id": "evt_3",
		"type": "invoice.payment_failed",
		"data": {"object": {"id": "in_1", "subscription": "sub_1", "metadata": {}}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, EventInvoicePaymentFailed, ev.Type)
	require.NotNil(t, ev.PaymentFailed)
	assert.Empty(t, ev.PaymentFailed.UserID)
	assert.Equal(t, "sub_1", ev.PaymentFailed.SubscriptionID)
}

func TestParseEventUnknownTypeIsNotAnError(t *testing.T) {
	ev, err := ParseEvent([]byte(`{
		"id": "evt_4",
		"type": "customer.updated",
		"data": {"object": {"whatever": true}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, EventUnknown, ev.Type)
	assert.Equal(t, "customer.updated", ev.RawType)
	assert.Nil(t, ev.CheckoutCompleted)
	assert.Nil(t, ev.SubscriptionUpdated)
	assert.Nil(t, ev.SubscriptionDeleted)
	assert.Nil(t, ev.PaymentFailed)
}

func TestParseEventMissingType(t *testing.T) {
	_, err := ParseEvent([]byte(`{"id": "evt_5"}`))
	assert.Error(t, err)
}

func TestParseEventInvalidJSON(t *testing.T) {
	_, err := ParseEvent([]byte(`not json`))
	assert.Error(t, err)
}
