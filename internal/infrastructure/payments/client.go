// Package payments implements ports.PaymentProvider against a hosted-checkout
// HTTP API and verifies the provider's webhook signatures.
package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gradeidea/roast-service/internal/core/ports"
)

const defaultTimeout = 15 * time.Second

// Config controls the checkout client.
type Config struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Timeout       time.Duration
}

// Client is an HTTP client for the hosted checkout provider.
type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	successURL    string
	cancelURL     string
	httpClient    *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

type createSessionReq struct {
	ClientReferenceID string `json:"client_reference_id"`
	SuccessURL        string `json:"success_url"`
	CancelURL         string `json:"cancel_url"`
}

type sessionResp struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
}

// CreateSession opens a checkout session referencing the job id.
func (c *Client) CreateSession(ctx context.Context, jobID string) (*ports.CheckoutSession, error) {
	body, err := json.Marshal(createSessionReq{
		ClientReferenceID: jobID,
		SuccessURL:        c.successURL,
		CancelURL:         c.cancelURL,
	})
	if err != nil {
		return nil, err
	}

	var decoded sessionResp
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", body, &decoded); err != nil {
		return nil, err
	}
	if decoded.ID == "" || decoded.URL == "" {
		return nil, errors.New("payments: incomplete session response")
	}
	return &ports.CheckoutSession{ID: decoded.ID, URL: decoded.URL}, nil
}

// SessionPaid reports whether the session has been paid.
func (c *Client) SessionPaid(ctx context.Context, sessionID string) (bool, error) {
	var decoded sessionResp
	if err := c.do(ctx, http.MethodGet, "/v1/sessions/"+sessionID, nil, &decoded); err != nil {
		return false, err
	}
	return decoded.PaymentStatus == "paid", nil
}

// VerifySignature checks the webhook's HMAC-SHA256 hex signature over the raw
// request body.
func (c *Client) VerifySignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if strings.TrimSpace(c.apiKey) == "" {
		return errors.New("payments: api key is required")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("payments: %s", msg)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
