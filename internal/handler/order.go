package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"matchbook/internal/domain"
	"matchbook/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	books *service.BookService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(books *service.BookService) *OrderHandler {
	return &OrderHandler{books: books}
}

// submitOrderRequest is the JSON request body for POST /orders.
type submitOrderRequest struct {
	UserID   string          `json:"user_id"`
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// orderResponse is the JSON representation of an order snapshot.
type orderResponse struct {
	OrderID           string          `json:"order_id"`
	UserID            string          `json:"user_id"`
	Symbol            string          `json:"symbol"`
	Side              string          `json:"side"`
	Price             decimal.Decimal `json:"price"`
	Quantity          int64           `json:"quantity"`
	FilledQuantity    int64           `json:"filled_quantity"`
	RemainingQuantity int64           `json:"remaining_quantity"`
	Status            string          `json:"status"`
	SubmittedAt       string          `json:"submitted_at"`
}

// tradeResponse is a single trade in the submission response.
type tradeResponse struct {
	TradeID     string          `json:"trade_id"`
	Symbol      string          `json:"symbol"`
	BuyOrderID  string          `json:"buy_order_id"`
	SellOrderID string          `json:"sell_order_id"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	ExecutedAt  string          `json:"executed_at"`
}

// submitOrderResponse is the JSON response for POST /orders.
type submitOrderResponse struct {
	Order  orderResponse   `json:"order"`
	Trades []tradeResponse `json:"trades"`
}

// SubmitOrder handles POST /orders.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	side, ok := domain.ParseSide(req.Side)
	if !ok && req.Side != "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "side must be buy or sell")
		return
	}

	result, err := h.books.SubmitOrder(service.SubmitOrderRequest{
		UserID:   req.UserID,
		Symbol:   req.Symbol,
		Side:     side,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
			return
		}
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	WriteJSON(w, http.StatusCreated, submitOrderResponse{
		Order:  buildOrderResponse(result.Order),
		Trades: buildTradeResponses(result.Trades),
	})
}

// GetOrder handles GET /orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	view, ok := h.books.GetOrder(orderID)
	if !ok {
		WriteError(w, http.StatusNotFound, "order_not_found", domain.ErrOrderNotFound.Error())
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(view))
}

// CancelOrder handles DELETE /orders/{order_id}.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	if _, ok := h.books.GetOrderStatus(orderID); !ok {
		WriteError(w, http.StatusNotFound, "order_not_found", domain.ErrOrderNotFound.Error())
		return
	}

	if !h.books.CancelOrder(orderID) {
		WriteError(w, http.StatusConflict, "order_not_cancellable", "order is already fully filled")
		return
	}

	view, _ := h.books.GetOrder(orderID)
	WriteJSON(w, http.StatusOK, buildOrderResponse(view))
}

// buildOrderResponse converts an order snapshot to its JSON form.
func buildOrderResponse(v domain.OrderView) orderResponse {
	return orderResponse{
		OrderID:           v.OrderID,
		UserID:            v.UserID,
		Symbol:            v.Symbol,
		Side:              string(v.Side),
		Price:             v.Price,
		Quantity:          v.Quantity,
		FilledQuantity:    v.FilledQuantity,
		RemainingQuantity: v.RemainingQuantity,
		Status:            string(v.Status),
		SubmittedAt:       v.SubmittedAt.UTC().Format(time.RFC3339Nano),
	}
}

// buildTradeResponses converts domain trades to response trades.
func buildTradeResponses(trades []*domain.Trade) []tradeResponse {
	result := make([]tradeResponse, len(trades))
	for i, t := range trades {
		result[i] = tradeResponse{
			TradeID:     t.TradeID,
			Symbol:      t.Symbol,
			BuyOrderID:  t.BuyOrderID,
			SellOrderID: t.SellOrderID,
			Price:       t.Price,
			Quantity:    t.Quantity,
			ExecutedAt:  t.ExecutedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	return result
}
