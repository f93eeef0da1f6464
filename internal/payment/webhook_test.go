package payment

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testSecret = "whsec_test_secret"

func completedPayload(orderID string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_1",
  "object": "event",
  "api_version": "2025-02-24.acacia",
  "type": "checkout.session.completed",
  "data": {
    "object": {
      "id": "cs_test_1",
      "object": "checkout.session",
      "payment_intent": "pi_123",
      "metadata": {"order_id": %q}
    }
  }
}`, orderID))
}

func TestWebhookVerifier_Signed(t *testing.T) {
	payload := completedPayload("order-1")
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})

	v := WebhookVerifier{Secret: testSecret}
	event, err := v.Parse(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutSessionCompleted, string(event.Type))

	checkout, err := CheckoutFromEvent(event)
	require.NoError(t, err)
	assert.Equal(t, "order-1", checkout.OrderID)
	assert.Equal(t, "pi_123", checkout.PaymentIntent)
	assert.Equal(t, "cs_test_1", checkout.SessionID)
}

func TestWebhookVerifier_BadSignature(t *testing.T) {
	v := WebhookVerifier{Secret: testSecret}
	_, err := v.Parse(completedPayload("order-1"), "t=1,v1=deadbeef")

	var whErr *WebhookError
	require.True(t, errors.As(err, &whErr))
	assert.Equal(t, 400, whErr.StatusCode)
	assert.Equal(t, "Webhook signature verification failed", whErr.PublicError)
}

func TestWebhookVerifier_UnsignedDevelopment(t *testing.T) {
	v := WebhookVerifier{}
	event, err := v.Parse(completedPayload("order-2"), "")
	require.NoError(t, err)

	checkout, err := CheckoutFromEvent(event)
	require.NoError(t, err)
	assert.Equal(t, "order-2", checkout.OrderID)

	_, err = v.Parse([]byte("not json"), "")
	assert.Error(t, err)
}

func TestCheckoutFromEvent_MissingOrderID(t *testing.T) {
	event, err := WebhookVerifier{}.Parse([]byte(`{"id":"evt_2","type":"checkout.session.completed","data":{"object":{"id":"cs_2","metadata":{}}}}`), "")
	require.NoError(t, err)

	_, err = CheckoutFromEvent(event)
	assert.Error(t, err)
}

func TestSessionParams(t *testing.T) {
	params := sessionParams(SessionRequest{
		OrderID:       "order-9",
		CustomerEmail: "pat@example.org",
		Items:         []LineItem{{Name: "Individual Ticket", UnitPriceCents: 7500, Quantity: 2}},
		DonationCents: 1000,
		SuccessURL:    "https://gala.example.org/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     "https://gala.example.org/cancel?order_id=order-9",
	}, "usd")

	require.Len(t, params.LineItems, 2)
	assert.Equal(t, int64(7500), *params.LineItems[0].PriceData.UnitAmount)
	assert.Nil(t, params.LineItems[0].PriceData.ProductData.Description)
	assert.Equal(t, donationLineName, *params.LineItems[1].PriceData.ProductData.Name)
	assert.Equal(t, int64(1000), *params.LineItems[1].PriceData.UnitAmount)
	assert.Equal(t, "order-9", params.Metadata["order_id"])
	assert.Equal(t, "payment", *params.Mode)
}
