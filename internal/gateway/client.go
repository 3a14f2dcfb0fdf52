package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tardieats/payments-relay/internal/metrics"
)

// APIError carries a non-2xx gateway reply verbatim. Gateway errors are
// authoritative: callers forward StatusCode and Body unmodified.
type APIError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned %d", e.StatusCode)
}

// ChargeData is the data object of a successful charge response. Fees come
// back in minor units; conversion happens at record-build time, not here.
type ChargeData struct {
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	TransactionDate string `json:"transaction_date"`
	Status          string `json:"status"`
	Channel         string `json:"channel"`
	Message         string `json:"message"`
	Fees            int64  `json:"fees"`
	GatewayResponse string `json:"gateway_response"`
	Metadata        struct {
		UserID string `json:"user_id"`
	} `json:"metadata"`
}

type chargeEnvelope struct {
	Status  bool       `json:"status"`
	Message string     `json:"message"`
	Data    ChargeData `json:"data"`
}

// Client talks to the payment gateway with a fixed bearer credential. No
// retries and no response validation beyond pass-through; a non-2xx reply
// surfaces as *APIError.
type Client struct {
	BaseURL string
	secret  string
	httpc   *http.Client
}

func NewClient(baseURL, secret string) *Client {
	return &Client{
		BaseURL: baseURL,
		secret:  secret,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) InitializeTransaction(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/transaction/initialize", payload)
}

func (c *Client) VerifyTransaction(ctx context.Context, reference string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
}

func (c *Client) SubmitOTP(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/charge/submit_otp", payload)
}

// CreateCharge posts the charge payload verbatim and decodes the data object
// the checkout flow derives its records from.
func (c *Client) CreateCharge(ctx context.Context, payload json.RawMessage) (ChargeData, error) {
	body, err := c.do(ctx, http.MethodPost, "/charge", payload)
	if err != nil {
		return ChargeData{}, err
	}
	var env chargeEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ChargeData{}, fmt.Errorf("decode charge response: %w", err)
	}
	return env.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload json.RawMessage) (json.RawMessage, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	metrics.GatewayRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("gateway request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}
