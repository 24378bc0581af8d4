package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"matchbook/internal/engine"
	"matchbook/internal/service"
	"matchbook/internal/store"
)

func newTestRouter() chi.Router {
	books := engine.NewBookRegistry()
	orders := store.NewOrderStore()
	trades := store.NewTradeStore()
	matcher := engine.NewMatcher(books, orders, trades)
	svc := service.NewBookService(matcher, orders, trades)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(svc, 10, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON response: %v (%s)", err, rec.Body.String())
	}
	return m
}

func submitOrder(t *testing.T, router http.Handler, userID, symbol, side, price string, qty int64) string {
	t.Helper()
	body := fmt.Sprintf(`{"user_id":%q,"symbol":%q,"side":%q,"price":%q,"quantity":%d}`,
		userID, symbol, side, price, qty)
	rec := doJSON(t, router, http.MethodPost, "/orders", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	order := resp["order"].(map[string]any)
	return order["order_id"].(string)
}

func TestSubmitOrder_Created(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/orders",
		`{"user_id":"u1","symbol":"AAPL","side":"buy","price":"150.00","quantity":100}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	resp := decodeBody(t, rec)
	order := resp["order"].(map[string]any)
	if order["order_id"] == "" {
		t.Error("expected order_id to be assigned")
	}
	if order["status"] != "pending" {
		t.Errorf("expected status pending, got %v", order["status"])
	}
	if trades := resp["trades"].([]any); len(trades) != 0 {
		t.Errorf("expected no trades, got %d", len(trades))
	}
}

func TestSubmitOrder_MatchReturnsTrades(t *testing.T) {
	router := newTestRouter()

	submitOrder(t, router, "u1", "AAPL", "buy", "150.00", 100)
	rec := doJSON(t, router, http.MethodPost, "/orders",
		`{"user_id":"u2","symbol":"AAPL","side":"sell","price":"150.00","quantity":100}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decodeBody(t, rec)
	order := resp["order"].(map[string]any)
	if order["status"] != "filled" {
		t.Errorf("expected status filled, got %v", order["status"])
	}
	trades := resp["trades"].([]any)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	trade := trades[0].(map[string]any)
	if trade["price"] != "150" {
		t.Errorf("expected trade price 150, got %v", trade["price"])
	}
}

func TestSubmitOrder_ValidationError(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name string
		body string
	}{
		{"zero quantity", `{"user_id":"u1","symbol":"AAPL","side":"buy","price":"150.00","quantity":0}`},
		{"zero price", `{"user_id":"u1","symbol":"AAPL","side":"buy","price":"0","quantity":10}`},
		{"negative price", `{"user_id":"u1","symbol":"AAPL","side":"buy","price":"-5","quantity":10}`},
		{"bad side", `{"user_id":"u1","symbol":"AAPL","side":"hold","price":"150.00","quantity":10}`},
		{"missing user", `{"symbol":"AAPL","side":"buy","price":"150.00","quantity":10}`},
		{"missing symbol", `{"user_id":"u1","side":"buy","price":"150.00","quantity":10}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/orders", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
			}
			resp := decodeBody(t, rec)
			if resp["error"] != "validation_error" {
				t.Errorf("expected validation_error, got %v", resp["error"])
			}
		})
	}
}

func TestSubmitOrder_MalformedRequests(t *testing.T) {
	router := newTestRouter()

	// Missing content type: rejected by the middleware before any handler.
	req := httptest.NewRequest(http.MethodPost, "/orders",
		bytes.NewReader([]byte(`{"user_id":"u1"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing content type, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "invalid_request" {
		t.Errorf("expected invalid_request, got %v", resp["error"])
	}

	// Malformed JSON with a valid content type: rejected by body decoding.
	rec = doJSON(t, router, http.MethodPost, "/orders", `{"user_id":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["message"] != "request body is not valid JSON" {
		t.Errorf("unexpected decode error message: %v", resp["message"])
	}

	// Unknown field.
	rec = doJSON(t, router, http.MethodPost, "/orders", `{"user_id":"u1","bogus":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestGetOrder(t *testing.T) {
	router := newTestRouter()

	orderID := submitOrder(t, router, "u1", "AAPL", "buy", "150.00", 100)

	rec := doJSON(t, router, http.MethodGet, "/orders/"+orderID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["order_id"] != orderID {
		t.Errorf("expected order %s, got %v", orderID, resp["order_id"])
	}

	rec = doJSON(t, router, http.MethodGet, "/orders/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown order, got %d", rec.Code)
	}
}

func TestCancelOrder(t *testing.T) {
	router := newTestRouter()

	orderID := submitOrder(t, router, "u1", "MSFT", "buy", "380", 50)

	rec := doJSON(t, router, http.MethodDelete, "/orders/"+orderID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["status"] != "cancelled" {
		t.Errorf("expected cancelled, got %v", resp["status"])
	}

	// Idempotent repeat.
	rec = doJSON(t, router, http.MethodDelete, "/orders/"+orderID, "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 on repeated cancel, got %d", rec.Code)
	}

	// Unknown order.
	rec = doJSON(t, router, http.MethodDelete, "/orders/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown order, got %d", rec.Code)
	}
}

func TestCancelOrder_Filled(t *testing.T) {
	router := newTestRouter()

	orderID := submitOrder(t, router, "u1", "AAPL", "buy", "150", 10)
	submitOrder(t, router, "u2", "AAPL", "sell", "150", 10)

	rec := doJSON(t, router, http.MethodDelete, "/orders/"+orderID, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for filled order, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["error"] != "order_not_cancellable" {
		t.Errorf("expected order_not_cancellable, got %v", resp["error"])
	}
}

func TestGetQuote(t *testing.T) {
	router := newTestRouter()

	submitOrder(t, router, "u1", "AAPL", "buy", "150.00", 100)
	submitOrder(t, router, "u2", "AAPL", "sell", "155.00", 50)

	rec := doJSON(t, router, http.MethodGet, "/instruments/AAPL/quote", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["best_bid"] != "150" {
		t.Errorf("expected best_bid 150, got %v", resp["best_bid"])
	}
	if resp["best_ask"] != "155" {
		t.Errorf("expected best_ask 155, got %v", resp["best_ask"])
	}

	rec = doJSON(t, router, http.MethodGet, "/instruments/NOPE/quote", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown symbol, got %d", rec.Code)
	}
}

func TestGetQuote_EmptySides(t *testing.T) {
	router := newTestRouter()

	orderID := submitOrder(t, router, "u1", "AAPL", "buy", "150.00", 100)
	doJSON(t, router, http.MethodDelete, "/orders/"+orderID, "")

	rec := doJSON(t, router, http.MethodGet, "/instruments/AAPL/quote", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["best_bid"] != nil {
		t.Errorf("expected null best_bid after cancellation, got %v", resp["best_bid"])
	}
	if resp["best_ask"] != nil {
		t.Errorf("expected null best_ask, got %v", resp["best_ask"])
	}
}

func TestGetBook(t *testing.T) {
	router := newTestRouter()

	submitOrder(t, router, "u1", "AAPL", "buy", "150", 100)
	submitOrder(t, router, "u2", "AAPL", "buy", "150", 50)
	submitOrder(t, router, "u3", "AAPL", "sell", "155", 30)

	rec := doJSON(t, router, http.MethodGet, "/instruments/AAPL/book", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	bids := resp["bids"].([]any)
	if len(bids) != 1 {
		t.Fatalf("expected 1 bid level, got %d", len(bids))
	}
	level := bids[0].(map[string]any)
	if level["quantity"] != float64(150) || level["orders"] != float64(2) {
		t.Errorf("unexpected bid level: %v", level)
	}
}

func TestGetTrades(t *testing.T) {
	router := newTestRouter()

	submitOrder(t, router, "u1", "AAPL", "buy", "150", 10)
	submitOrder(t, router, "u2", "AAPL", "sell", "150", 10)

	rec := doJSON(t, router, http.MethodGet, "/instruments/AAPL/trades", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	trades := resp["trades"].([]any)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
}

func TestListUserOrders(t *testing.T) {
	router := newTestRouter()

	submitOrder(t, router, "u1", "AAPL", "buy", "150", 10)
	submitOrder(t, router, "u1", "GOOGL", "sell", "2800", 5)
	submitOrder(t, router, "u2", "AAPL", "buy", "149", 1)

	rec := doJSON(t, router, http.MethodGet, "/users/u1/orders", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	orders := resp["orders"].([]any)
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}

	// Unknown user gets an empty list, not an error.
	rec = doJSON(t, router, http.MethodGet, "/users/nobody/orders", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp = decodeBody(t, rec)
	if orders := resp["orders"].([]any); len(orders) != 0 {
		t.Errorf("expected empty list, got %d", len(orders))
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
