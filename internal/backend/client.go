// Package backend is the HTTP client for the order/payment API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RaikyD/storefront-bff/internal/domain"
	"github.com/RaikyD/storefront-bff/internal/logger"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

type Client struct {
	baseURL string
	http    *http.Client
	catalog *gobreaker.CircuitBreaker[[]byte]
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient talks to baseURL, e.g. http://localhost:4001/api. The timeout is
// the only bound on a request; nothing here cancels or retries.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	c.catalog = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// 4xx are the caller's problem, not an unhealthy backend
			var apiErr *APIError
			return err == nil || (errors.As(err, &apiErr) && apiErr.Status < 500)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type itemsResponse struct {
	Items []domain.Item `json:"items"`
}

type itemResponse struct {
	Item domain.Item `json:"item"`
}

// ListItems calls GET /items.
func (c *Client) ListItems(ctx context.Context) ([]domain.Item, error) {
	raw, err := c.catalog.Execute(func() ([]byte, error) {
		return c.do(ctx, http.MethodGet, "/items", nil, nil)
	})
	if err != nil {
		return nil, err
	}
	var out itemsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return out.Items, nil
}

// GetItem calls GET /items/{id}.
func (c *Client) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	raw, err := c.catalog.Execute(func() ([]byte, error) {
		return c.do(ctx, http.MethodGet, fmt.Sprintf("/items/%d", id), nil, nil)
	})
	if err != nil {
		return nil, err
	}
	var out itemResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return &out.Item, nil
}

// CreateOrder calls POST /orders without payment. Not idempotent.
func (c *Client) CreateOrder(ctx context.Context, sub domain.OrderSubmission) (*domain.OrderResult, error) {
	sub.SourceID = ""
	raw, err := c.do(ctx, http.MethodPost, "/orders", sub, nil)
	if err != nil {
		return nil, err
	}
	var out domain.OrderResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return &out, nil
}

// ProcessPayment calls POST /payment/process, which captures the payment and
// creates the order in one step. It is sent exactly once per call.
func (c *Client) ProcessPayment(ctx context.Context, sub domain.OrderSubmission) (*domain.PaymentResult, error) {
	if sub.SourceID == "" {
		return nil, fmt.Errorf("process payment: missing source id")
	}
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	raw, err := c.do(ctx, http.MethodPost, "/payment/process", sub, headers)
	if err != nil {
		return nil, err
	}
	var out domain.PaymentResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode payment result: %w", err)
	}
	if !out.Success {
		return nil, ErrPaymentDeclined
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, safeJSON(raw))
	}
	return raw, nil
}

// safeJSON keeps non-JSON error bodies as {"raw": text}.
func safeJSON(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return m
}
