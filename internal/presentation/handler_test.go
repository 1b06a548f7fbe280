package presentation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RaikyD/storefront-bff/internal/application"
	"github.com/RaikyD/storefront-bff/internal/backend"
	"github.com/RaikyD/storefront-bff/internal/checkout"
	"github.com/RaikyD/storefront-bff/internal/domain"
	"github.com/RaikyD/storefront-bff/internal/payment"
	"github.com/RaikyD/storefront-bff/internal/session"
	"github.com/RaikyD/storefront-bff/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	items map[int64]domain.Item
}

func (f *fakeCatalog) ListItems(context.Context) ([]domain.Item, error) {
	out := make([]domain.Item, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeCatalog) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, &backend.APIError{Status: http.StatusNotFound, Message: "Item not found"}
	}
	return &it, nil
}

type fakeGateway struct {
	mu     sync.Mutex
	nextID int64
	err    error
}

func (g *fakeGateway) ProcessPayment(_ context.Context, sub domain.OrderSubmission) (*domain.PaymentResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.nextID++
	total := sub.ShippingCents + sub.TaxCents
	return &domain.PaymentResult{
		Success: true,
		Order: domain.OrderResult{
			OrderID: g.nextID,
			Totals:  domain.Totals{ShippingCents: sub.ShippingCents, TotalCents: total, Currency: sub.Currency},
		},
		Payment: domain.PaymentConfirmation{ID: "pay_" + fmt.Sprint(g.nextID), Status: "COMPLETED"},
	}, nil
}

type apiClient struct {
	t   *testing.T
	srv *httptest.Server
	hc  *http.Client
	gw  *fakeGateway
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	receipts := application.NewReceiptsService(nil)
	gw := &fakeGateway{nextID: 100}
	sessions := session.NewManager(session.Config{
		Storage:     storage.NewMemoryStorage(),
		Gateway:     gw,
		Credentials: payment.Credentials{ApplicationID: "sandbox-sq0idb-test", LocationID: "L1", Environment: payment.EnvSandbox},
		Pricing:     checkout.DefaultPricing(),
		Receipts:    receipts,
	})
	catalog := &fakeCatalog{items: map[int64]domain.Item{
		1: {ID: 1, Title: "Mug", PriceCents: 500, Currency: "USD", IsActive: true},
		2: {ID: 2, Title: "Bowl", PriceCents: 1200, Currency: "USD", IsActive: true},
		3: {ID: 3, Title: "Retired vase", PriceCents: 9900, Currency: "USD", IsActive: false},
	}}

	r := chi.NewRouter()
	NewHandler(sessions, catalog, receipts, "USD").Register(r)
	require.NoError(t, MountStatic(r))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{t: t, srv: srv, hc: &http.Client{Jar: jar, Timeout: 5 * time.Second}, gw: gw}
}

func (c *apiClient) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, rd)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.hc.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(c.t, err)
	if len(raw) == 0 {
		return res.StatusCode, nil
	}
	var out map[string]any
	require.NoError(c.t, json.Unmarshal(raw, &out), string(raw))
	return res.StatusCode, out
}

func formatted(v map[string]any, key string) string {
	return v[key].(map[string]any)["formatted"].(string)
}

func TestCart_AddUpdateRemove(t *testing.T) {
	api := newAPI(t)

	status, body := api.do(http.MethodPost, "/api/cart/items", map[string]any{"itemId": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, status)
	status, body = api.do(http.MethodPost, "/api/cart/items", map[string]any{"itemId": 2, "quantity": 1})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["totalItems"])
	assert.Equal(t, "$22.00", formatted(body, "subtotal"))

	status, body = api.do(http.MethodPatch, "/api/cart/items/1", map[string]any{"quantity": 4})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(5), body["totalItems"])

	status, body = api.do(http.MethodPatch, "/api/cart/items/1", map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["lines"], 1)

	status, body = api.do(http.MethodDelete, "/api/cart/items/2", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["lines"])
}

func TestCart_LimitRejectedWithNotification(t *testing.T) {
	api := newAPI(t)

	status, body := api.do(http.MethodPost, "/api/cart/items", map[string]any{"itemId": 1, "quantity": 11})
	require.Equal(t, http.StatusConflict, status)
	cart := body["cart"].(map[string]any)
	assert.Empty(t, cart["lines"])

	status, body = api.do(http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, status)
	list := body["notifications"].([]any)
	require.Len(t, list, 1)
	n := list[0].(map[string]any)
	assert.Equal(t, "warning", n["severity"])
	assert.Equal(t, "/contact", n["linkTo"])

	status, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/notifications/%v", n["id"]), nil)
	assert.Equal(t, http.StatusNoContent, status)
	_, body = api.do(http.MethodGet, "/api/notifications", nil)
	assert.Empty(t, body["notifications"])
}

func TestCart_HugeQuantityRejected(t *testing.T) {
	api := newAPI(t)
	status, _ := api.do(http.MethodPost, "/api/cart/items", map[string]any{"itemId": 1, "quantity": 1})
	require.Equal(t, http.StatusOK, status)

	status, body := api.do(http.MethodPost, "/api/cart/items", map[string]any{"itemId": 1, "quantity": math.MaxInt64})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, float64(1), body["cart"].(map[string]any)["totalItems"])

	_, body = api.do(http.MethodGet, "/api/cart", nil)
	assert.Equal(t, float64(1), body["totalItems"])
	assert.Equal(t, "$5.00", formatted(body, "subtotal"))
}

func TestCart_BadRequests(t *testing.T) {
	api := newAPI(t)

	status, body := api.do(http.MethodPost, "/api/cart/items", map[string]any{"itemId": 0, "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "itemId", body["field"])

	status, _ = api.do(http.MethodPost, "/api/cart/items", map[string]any{"itemId": 1, "quantity": 1, "priceCents": 1})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodPost, "/api/cart/items", map[string]any{"itemId": 42, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = api.do(http.MethodPost, "/api/cart/items", map[string]any{"itemId": 3, "quantity": 1})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = api.do(http.MethodPatch, "/api/cart/items/abc", map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodPatch, "/api/cart/items/9", map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusConflict, status)
}

func TestCart_IsolatedPerSession(t *testing.T) {
	a := newAPI(t)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	b := &apiClient{t: t, srv: a.srv, hc: &http.Client{Jar: jar}}

	status, _ := a.do(http.MethodPost, "/api/cart/items", map[string]any{"itemId": 1, "quantity": 1})
	require.Equal(t, http.StatusOK, status)

	_, body := b.do(http.MethodGet, "/api/cart", nil)
	assert.Empty(t, body["lines"])
	_, body = a.do(http.MethodGet, "/api/cart", nil)
	assert.Len(t, body["lines"], 1)
}

func TestCheckout_EndToEnd(t *testing.T) {
	api := newAPI(t)
	status, _ := api.do(http.MethodPost, "/api/cart/items", map[string]any{"itemId": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodPut, "/api/checkout/email", map[string]any{"email": "not-an-email"})
	require.Equal(t, http.StatusOK, status)
	status, body := api.do(http.MethodPost, "/api/checkout/email/blur", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "email", body["field"])

	api.do(http.MethodPut, "/api/checkout/email", map[string]any{"email": "a@b.co"})
	api.do(http.MethodPut, "/api/checkout/shipping", map[string]any{
		"name": "Ann", "line1": "1 Main St", "city": "NYC", "state": "NY", "zip": "",
	})
	status, body = api.do(http.MethodPost, "/api/checkout/proceed", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "zip", body["field"])

	status, _ = api.do(http.MethodPatch, "/api/checkout/shipping/zip", map[string]any{"value": "10001"})
	require.Equal(t, http.StatusOK, status)
	status, body = api.do(http.MethodPost, "/api/checkout/proceed", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "payment", body["step"])

	status, body = api.do(http.MethodPost, "/api/checkout/payment/token", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Card number is required.", body["error"])

	status, _ = api.do(http.MethodPost, "/api/checkout/payment/card", map[string]any{
		"number": "4111111111111111", "expMonth": 12, "expYear": time.Now().Year() + 1, "cvv": "123",
	})
	require.Equal(t, http.StatusNoContent, status)
	status, body = api.do(http.MethodPost, "/api/checkout/payment/token", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "confirm", body["step"])
	assert.Equal(t, "1111", body["card"].(map[string]any)["last4"])
	assert.Equal(t, "$15.00", formatted(body["quote"].(map[string]any), "total"))

	status, body = api.do(http.MethodPost, "/api/checkout/confirm", nil)
	require.Equal(t, http.StatusOK, status)
	result := body["result"].(map[string]any)
	orderID := result["order"].(map[string]any)["orderId"]
	assert.Equal(t, float64(101), orderID)
	assert.Empty(t, body["cart"].(map[string]any)["lines"])

	status, _ = api.do(http.MethodPost, "/api/checkout/confirm", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, body = api.do(http.MethodGet, "/api/orders/101", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a@b.co", body["email"])

	status, body = api.do(http.MethodPost, "/api/checkout/abandon", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "review", body["step"])
	assert.Nil(t, body["result"])
}

func TestCheckout_PaymentFailureReturnsToPayment(t *testing.T) {
	api := newAPI(t)
	api.gw.err = &backend.APIError{Status: http.StatusBadRequest, Message: "Card declined"}
	api.do(http.MethodPost, "/api/cart/items", map[string]any{"itemId": 2, "quantity": 1})
	api.do(http.MethodPut, "/api/checkout/email", map[string]any{"email": "a@b.co"})
	api.do(http.MethodPut, "/api/checkout/shipping", map[string]any{
		"name": "Ann", "line1": "1 Main St", "city": "NYC", "state": "NY", "zip": "10001",
	})
	api.do(http.MethodPost, "/api/checkout/proceed", nil)
	api.do(http.MethodPost, "/api/checkout/payment/card", map[string]any{
		"number": "4111111111111111", "expMonth": 12, "expYear": time.Now().Year() + 1, "cvv": "123",
	})
	status, _ := api.do(http.MethodPost, "/api/checkout/payment/token", nil)
	require.Equal(t, http.StatusOK, status)

	status, body := api.do(http.MethodPost, "/api/checkout/confirm", nil)
	require.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "Card declined", body["error"])

	_, body = api.do(http.MethodGet, "/api/checkout", nil)
	assert.Equal(t, "payment", body["step"])
	assert.Equal(t, false, body["hasToken"])
	assert.Len(t, body["cart"].(map[string]any)["lines"], 1)
}

func TestCheckout_CardOutsidePaymentStep(t *testing.T) {
	api := newAPI(t)
	status, _ := api.do(http.MethodPost, "/api/checkout/payment/card", map[string]any{
		"number": "4111111111111111", "expMonth": 12, "expYear": 2030, "cvv": "123",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, body := api.do(http.MethodPost, "/api/checkout/payment/card", map[string]any{
		"number": "4111111111111111", "expMonth": 13, "expYear": 2030, "cvv": "123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "expMonth", body["field"])

	status, _ = api.do(http.MethodPost, "/api/checkout/back", nil)
	assert.Equal(t, http.StatusConflict, status)
}

// placeOrder runs a full sandbox checkout and returns the order id.
func (c *apiClient) placeOrder() int64 {
	c.t.Helper()
	status, _ := c.do(http.MethodPost, "/api/cart/items", map[string]any{"itemId": 2, "quantity": 1})
	require.Equal(c.t, http.StatusOK, status)
	c.do(http.MethodPut, "/api/checkout/email", map[string]any{"email": "a@b.co"})
	c.do(http.MethodPut, "/api/checkout/shipping", map[string]any{
		"name": "Ann", "line1": "1 Main St", "city": "NYC", "state": "NY", "zip": "10001",
	})
	status, _ = c.do(http.MethodPost, "/api/checkout/proceed", nil)
	require.Equal(c.t, http.StatusOK, status)
	status, _ = c.do(http.MethodPost, "/api/checkout/payment/card", map[string]any{
		"number": "4111111111111111", "expMonth": 12, "expYear": time.Now().Year() + 1, "cvv": "123",
	})
	require.Equal(c.t, http.StatusNoContent, status)
	status, _ = c.do(http.MethodPost, "/api/checkout/payment/token", nil)
	require.Equal(c.t, http.StatusOK, status)

	status, body := c.do(http.MethodPost, "/api/checkout/confirm", nil)
	require.Equal(c.t, http.StatusOK, status)
	order := body["result"].(map[string]any)["order"].(map[string]any)
	return int64(order["orderId"].(float64))
}

func TestReceipt_OnlyVisibleToPlacingSession(t *testing.T) {
	a := newAPI(t)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	b := &apiClient{t: t, srv: a.srv, hc: &http.Client{Jar: jar}}

	orderID := a.placeOrder()
	path := fmt.Sprintf("/api/orders/%d", orderID)

	status, body := a.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a@b.co", body["email"])
	assert.NotContains(t, body, "shopperId")

	status, body = b.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "receipt not found", body["error"])

	// a bare client without any cookie is no better off
	res, err := http.Get(a.srv.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestReceipt_NotFound(t *testing.T) {
	api := newAPI(t)
	status, _ := api.do(http.MethodGet, "/api/orders/7", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStaticIndex(t *testing.T) {
	api := newAPI(t)
	res, err := api.hc.Get(api.srv.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, strings.Contains(string(raw), "<title>Storefront</title>"))
}
