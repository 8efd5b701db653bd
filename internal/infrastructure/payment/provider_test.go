package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := NewClient("https://example.com", "sk_test", "whsec_test")
	body := []byte(`{"type":"charge.succeeded","data":{"charge_id":"ch_1"}}`)

	assert.True(t, client.VerifyWebhookSignature(body, sign("whsec_test", body)))
	assert.False(t, client.VerifyWebhookSignature(body, sign("wrong-secret", body)))
	assert.False(t, client.VerifyWebhookSignature(body, "not-hex"))
	assert.False(t, client.VerifyWebhookSignature([]byte(`tampered`), sign("whsec_test", body)))
}

func TestParseWebhookEvent(t *testing.T) {
	event, err := ParseWebhookEvent([]byte(`{"type":"charge.succeeded","data":{"charge_id":"ch_9"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventChargeSucceeded, event.Type)
	assert.Equal(t, "ch_9", event.Data.ChargeID)

	_, err = ParseWebhookEvent([]byte(`{broken`))
	require.Error(t, err)
}
