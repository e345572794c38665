package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Gateway is the payment provider surface the service depends on.
type Gateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
	// FetchPayment reads a payment record back from the provider. Used to
	// cross-check the paid amount during checkout verification, since the
	// checkout signature covers only the order and payment ids.
	FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
}

// GatewayOrderRequest is the order the provider is asked to open. Amount is
// in the currency's smallest unit.
type GatewayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// GatewayOrder is the provider's order record.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// GatewayPayment is the provider's payment record.
type GatewayPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// RazorpayClient talks to the Razorpay REST API over basic auth. All calls
// go through a circuit breaker so a provider outage fails fast instead of
// tying up request handlers for the full timeout.
type RazorpayClient struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
}

func NewRazorpayClient(cfg Config) *RazorpayClient {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "razorpay",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &RazorpayClient{
		baseURL:   cfg.RazorpayBaseURL,
		keyID:     cfg.RazorpayKeyID,
		keySecret: cfg.RazorpayKeySecret,
		http:      &http.Client{Timeout: cfg.GatewayTimeout},
		breaker:   breaker,
	}
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/orders", payload)
	if err != nil {
		return nil, err
	}

	var order GatewayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, errors.Join(ErrGatewayFailure, err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: response missing order id", ErrGatewayFailure)
	}
	return &order, nil
}

func (c *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error) {
	body, err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		return nil, err
	}

	var payment GatewayPayment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, errors.Join(ErrGatewayFailure, err)
	}
	if payment.ID == "" {
		return nil, fmt.Errorf("%w: response missing payment id", ErrGatewayFailure)
	}
	return &payment, nil
}

func (c *RazorpayClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.Join(ErrGatewayFailure, err)
		}
		return nil, err
	}
	return body, nil
}

func (c *RazorpayClient) roundTrip(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrGatewayFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a bounded amount so the connection can be reused; the
		// provider's error body is not surfaced to callers.
		io.CopyN(io.Discard, resp.Body, 4<<10)
		return nil, fmt.Errorf("%w: status %d", ErrGatewayFailure, resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
