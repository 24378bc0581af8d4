package service

import (
	"time"

	"github.com/shopspring/decimal"

	"matchbook/internal/domain"
	"matchbook/internal/engine"
	"matchbook/internal/metrics"
	"matchbook/internal/store"
)

// SubmitOrderRequest carries the caller-supplied fields of a new order.
type SubmitOrderRequest struct {
	UserID   string
	Symbol   string
	Side     domain.Side
	Price    decimal.Decimal
	Quantity int64
}

// SubmitOrderResult is the outcome of an accepted submission: the
// order's state after the matching pass and the trades it produced.
type SubmitOrderResult struct {
	Order  domain.OrderView
	Trades []*domain.Trade
}

// BookService is the public operation surface of the order book. It
// validates inputs, delegates to the matching engine, and records
// metrics. Validation failures are reported before any state mutation.
type BookService struct {
	matcher *engine.Matcher
	orders  *store.OrderStore
	trades  *store.TradeStore
}

// NewBookService creates a BookService.
func NewBookService(matcher *engine.Matcher, orders *store.OrderStore, trades *store.TradeStore) *BookService {
	return &BookService{
		matcher: matcher,
		orders:  orders,
		trades:  trades,
	}
}

// validateSubmit checks a submission request. A non-nil return means
// the request is rejected with no side effects.
func validateSubmit(req SubmitOrderRequest) *domain.ValidationError {
	if req.UserID == "" {
		return &domain.ValidationError{Message: "user_id is required"}
	}
	if req.Symbol == "" {
		return &domain.ValidationError{Message: "symbol is required"}
	}
	if req.Side != domain.SideBuy && req.Side != domain.SideSell {
		return &domain.ValidationError{Message: "side must be buy or sell"}
	}
	if req.Price.Sign() <= 0 {
		return &domain.ValidationError{Message: "price must be greater than zero"}
	}
	if req.Quantity <= 0 {
		return &domain.ValidationError{Message: "quantity must be greater than zero"}
	}
	return nil
}

// SubmitOrder validates and submits a new limit order, returning its
// post-matching state and any trades executed against it.
func (s *BookService) SubmitOrder(req SubmitOrderRequest) (SubmitOrderResult, error) {
	if verr := validateSubmit(req); verr != nil {
		metrics.IncOrdersRejected()
		return SubmitOrderResult{}, verr
	}

	start := time.Now()
	order, trades := s.matcher.Submit(req.UserID, req.Symbol, req.Side, req.Price, req.Quantity)
	metrics.ObserveSubmitLatency(time.Since(start))

	metrics.IncOrdersSubmitted(req.Symbol, string(req.Side))
	metrics.AddTradesExecuted(req.Symbol, len(trades))

	return SubmitOrderResult{
		Order:  order.Snapshot(),
		Trades: trades,
	}, nil
}

// CancelOrder cancels an order by ID. Returns false for an unknown ID
// or a fully filled order; cancelling an already-cancelled order
// returns true.
func (s *BookService) CancelOrder(orderID string) bool {
	cancelled := s.matcher.Cancel(orderID)
	if cancelled {
		metrics.IncOrdersCancelled()
	}
	return cancelled
}

// GetOrderStatus returns the order's current status. This is a pure
// directory read that does not take the symbol lock.
func (s *BookService) GetOrderStatus(orderID string) (domain.OrderStatus, bool) {
	order, ok := s.orders.Get(orderID)
	if !ok {
		return "", false
	}
	return order.Status(), true
}

// GetOrder returns a point-in-time snapshot of the order.
func (s *BookService) GetOrder(orderID string) (domain.OrderView, bool) {
	order, ok := s.orders.Get(orderID)
	if !ok {
		return domain.OrderView{}, false
	}
	return order.Snapshot(), true
}

// KnownSymbol reports whether any order has ever been submitted for
// the symbol.
func (s *BookService) KnownSymbol(symbol string) bool {
	return s.matcher.Known(symbol)
}

// GetBestBid returns the highest live bid price for the symbol.
func (s *BookService) GetBestBid(symbol string) (decimal.Decimal, bool) {
	return s.matcher.BestBid(symbol)
}

// GetBestAsk returns the lowest live ask price for the symbol.
func (s *BookService) GetBestAsk(symbol string) (decimal.Decimal, bool) {
	return s.matcher.BestAsk(symbol)
}

// GetUserOrders returns snapshots of all orders the user has submitted,
// in submission order. Each snapshot is internally consistent; the list
// as a whole is not atomic with respect to concurrent matching.
func (s *BookService) GetUserOrders(userID string) []domain.OrderView {
	orders := s.orders.ListByUser(userID)
	views := make([]domain.OrderView, len(orders))
	for i, o := range orders {
		views[i] = o.Snapshot()
	}
	return views
}

// GetDepth returns up to limit aggregated live price levels per side.
func (s *BookService) GetDepth(symbol string, limit int) (bids, asks []engine.PriceLevel) {
	bids = s.matcher.Depth(symbol, domain.SideBuy, limit)
	asks = s.matcher.Depth(symbol, domain.SideSell, limit)
	return bids, asks
}

// GetTrades returns the symbol's executed trades in chronological order.
func (s *BookService) GetTrades(symbol string) []*domain.Trade {
	return s.trades.BySymbol(symbol)
}
