package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Side indicates whether an order buys or sells the instrument.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// ParseSide converts a string into a Side. The second return value is
// false for anything other than "buy" or "sell".
func ParseSide(s string) (Side, bool) {
	switch Side(s) {
	case SideBuy, SideSell:
		return Side(s), true
	}
	return "", false
}

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// Terminal reports whether the status is final. Terminal orders never
// participate in matching and their fill state never changes again.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCancelled
}

// Order is a limit order submitted by a user. Identity fields (OrderID
// through SubmittedAt) are set once at submission and never change.
// Fill state (filled quantity and status) is guarded by an internal
// mutex so that readers outside the symbol lock always observe a
// consistent (status, filled) pair.
type Order struct {
	OrderID     string
	UserID      string
	Symbol      string
	Side        Side
	Price       decimal.Decimal
	Quantity    int64
	Seq         uint64 // per-process arrival sequence, total time-priority tie-break
	SubmittedAt time.Time

	mu     sync.Mutex
	filled int64
	status OrderStatus
}

// NewOrder creates an order in the pending state with zero filled quantity.
func NewOrder(orderID, userID, symbol string, side Side, price decimal.Decimal, quantity int64, seq uint64, submittedAt time.Time) *Order {
	return &Order{
		OrderID:     orderID,
		UserID:      userID,
		Symbol:      symbol,
		Side:        side,
		Price:       price,
		Quantity:    quantity,
		Seq:         seq,
		SubmittedAt: submittedAt,
		status:      OrderStatusPending,
	}
}

// Status returns the current order status.
func (o *Order) Status() OrderStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// FilledQuantity returns the quantity matched so far.
func (o *Order) FilledQuantity() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.filled
}

// Fill records qty matched against this order and advances its status.
// The caller must hold the symbol lock. A fill on a terminal order or a
// fill that exceeds the requested quantity is a matching-logic bug that
// would corrupt the book, so both panic.
func (o *Order) Fill(qty int64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if qty <= 0 {
		panic(fmt.Sprintf("order %s: non-positive fill quantity %d", o.OrderID, qty))
	}
	if o.status.Terminal() {
		panic(fmt.Sprintf("order %s: fill on terminal order (status=%s)", o.OrderID, o.status))
	}
	if o.filled+qty > o.Quantity {
		panic(fmt.Sprintf("order %s: fill overflow: filled=%d qty=%d requested=%d", o.OrderID, o.filled, qty, o.Quantity))
	}

	o.filled += qty
	if o.filled == o.Quantity {
		o.status = OrderStatusFilled
	} else {
		o.status = OrderStatusPartiallyFilled
	}
}

// Cancel transitions the order to cancelled. The caller must hold the
// symbol lock. Returns false if the order is already fully filled;
// cancelling an already-cancelled order is idempotent and returns true.
func (o *Order) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.status {
	case OrderStatusFilled:
		return false
	case OrderStatusCancelled:
		return true
	}
	o.status = OrderStatusCancelled
	return true
}

// OrderView is an immutable point-in-time copy of an order, safe to
// hand to callers outside any lock.
type OrderView struct {
	OrderID           string
	UserID            string
	Symbol            string
	Side              Side
	Price             decimal.Decimal
	Quantity          int64
	FilledQuantity    int64
	RemainingQuantity int64
	Status            OrderStatus
	SubmittedAt       time.Time
}

// Snapshot returns a consistent copy of the order. Status and filled
// quantity are read together under the order's mutex.
func (o *Order) Snapshot() OrderView {
	o.mu.Lock()
	filled := o.filled
	status := o.status
	o.mu.Unlock()

	return OrderView{
		OrderID:           o.OrderID,
		UserID:            o.UserID,
		Symbol:            o.Symbol,
		Side:              o.Side,
		Price:             o.Price,
		Quantity:          o.Quantity,
		FilledQuantity:    filled,
		RemainingQuantity: o.Quantity - filled,
		Status:            status,
		SubmittedAt:       o.SubmittedAt,
	}
}
