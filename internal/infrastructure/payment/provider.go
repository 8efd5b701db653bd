// Package payment wraps the card payment provider's REST API. The provider
// is an external collaborator: we create charges and consume its signed
// webhook events; charge semantics beyond that stay on its side.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	EventChargeSucceeded = "charge.succeeded"
	EventChargeFailed    = "charge.failed"
)

type Card struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	CVC      string `json:"cvc"`
}

type chargeRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Card        Card   `json:"card"`
}

type chargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// WebhookEvent is the provider's asynchronous confirmation payload.
type WebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ChargeID string `json:"charge_id"`
	} `json:"data"`
}

type Client struct {
	httpClient    *http.Client
	baseURL       string
	serverKey     string
	webhookSecret string
}

func NewClient(baseURL, serverKey, webhookSecret string) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		baseURL:       baseURL,
		serverKey:     serverKey,
		webhookSecret: webhookSecret,
	}
}

// Charge runs a synchronous card charge and returns the provider's
// transaction ID.
func (c *Client) Charge(ctx context.Context, amount int64, currency, description string, card Card) (string, error) {
	payload, err := json.Marshal(chargeRequest{
		Amount:      amount,
		Currency:    currency,
		Description: description,
		Card:        card,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.serverKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("charge request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("failed to read charge response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("payment provider returned %d: %s", resp.StatusCode, string(body))
	}

	var charge chargeResponse
	if err := json.Unmarshal(body, &charge); err != nil {
		return "", fmt.Errorf("failed to decode charge response: %w", err)
	}
	if charge.Status != "succeeded" {
		return "", fmt.Errorf("charge %s ended in status %q", charge.ID, charge.Status)
	}
	return charge.ID, nil
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 the provider puts in its
// signature header against the raw request body.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhookEvent decodes a verified webhook body.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook event: %w", err)
	}
	return &event, nil
}
