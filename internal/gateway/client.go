// Package gateway talks to the external payment provider. The reconciler
// never trusts a webhook body's status field; it always fetches the
// canonical payment record from here by id.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Payment statuses reported by the provider.
const (
	StatusApproved    = "approved"
	StatusPending     = "pending"
	StatusInProcess   = "in_process"
	StatusInMediation = "in_mediation"
	StatusRejected    = "rejected"
	StatusCancelled   = "cancelled"
	StatusRefunded    = "refunded"
	StatusChargedBack = "charged_back"
)

var (
	// ErrNotConfigured means the access credentials are missing. This is a
	// transient condition from the webhook sender's point of view: the
	// delivery should be retried once the deployment is fixed.
	ErrNotConfigured = errors.New("payment gateway credentials not configured")

	// ErrPaymentNotFound means the provider has no payment under the given
	// id. Retrying a spoofed or stale notification will not help, so
	// callers acknowledge it.
	ErrPaymentNotFound = errors.New("payment not found at gateway")
)

// Payment is the canonical payment record fetched from the provider.
type Payment struct {
	ID                string  `json:"id"`
	Status            string  `json:"status"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
}

// PaymentGateway fetches canonical payment state. Implemented by the HTTP
// client below and by fakes in tests; services receive it injected, never
// as a package-level singleton.
type PaymentGateway interface {
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

// Config holds the provider endpoint and credentials.
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// Client is the HTTP implementation of PaymentGateway.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a gateway client with a bounded request timeout.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetPayment fetches the payment record by id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if c.cfg.AccessToken == "" || c.cfg.BaseURL == "" {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/v1/payments/%s", c.cfg.BaseURL, paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrPaymentNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: gateway returned %d", ErrNotConfigured, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("gateway returned unexpected status %d", resp.StatusCode)
	}

	var payment Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return &payment, nil
}
