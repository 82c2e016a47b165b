package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyPayloadRoundTrip(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	header := SignPayload("secret", now, payload)

	require.NoError(t, VerifyPayload("secret", payload, header, now, DefaultTolerance))
}

func TestVerifyPayloadRejectsTamperedPayload(t *testing.T) {
	now := time.Now()
	header := SignPayload("secret", now, []byte(`{"amount":100}`))

	err := VerifyPayload("secret", []byte(`{"amount":999}`), header, now, DefaultTolerance)
	assert.Error(t, err)
}

func TestVerifyPayloadRejectsWrongSecret(t *testing.T) {
	now := time.Now()
	payload := []byte(`{}`)
	header := SignPayload("secret", now, payload)

	err := VerifyPayload("other-secret", payload, header, now, DefaultTolerance)
	assert.Error(t, err)
}

func TestVerifyPayloadRejectsStaleTimestamp(t *testing.T) {
	now := time.Now()
	payload := []byte(`{}`)
	header := SignPayload("secret", now.Add(-10*time.Minute), payload)

	err := VerifyPayload("secret", payload, header, now, DefaultTolerance)
	assert.Error(t, err)
}

func TestVerifyPayloadAcceptsWithinTolerance(t *testing.T) {
	now := time.Now()
	payload := []byte(`{}`)
	header := SignPayload("secret", now.Add(-4*time.Minute), payload)

	assert.NoError(t, VerifyPayload("secret", payload, header, now, DefaultTolerance))
}

func TestVerifyPayloadRejectsMissingHeader(t *testing.T) {
	err := VerifyPayload("secret", []byte(`{}`), "", time.Now(), DefaultTolerance)
	assert.Error(t, err)
}

func TestVerifyPayloadRejectsGarbageHeader(t *testing.T) {
	err := VerifyPayload("secret", []byte(`{}`), "not-a-signature", time.Now(), DefaultTolerance)
	assert.Error(t, err)
}
