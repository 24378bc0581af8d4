package engine

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"matchbook/internal/domain"
	"matchbook/internal/store"
)

// PriceLevel is an aggregated view of the live entries at one price.
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity int64
	Orders   int
}

// Matcher implements price-time priority matching over per-symbol
// order books. Submission, matching, and cancellation for a symbol are
// serialized by that symbol's lock; operations on different symbols
// never contend.
type Matcher struct {
	books  *BookRegistry
	orders *store.OrderStore
	trades *store.TradeStore
	seq    atomic.Uint64
}

// NewMatcher creates a new Matcher with the given dependencies.
func NewMatcher(books *BookRegistry, orders *store.OrderStore, trades *store.TradeStore) *Matcher {
	return &Matcher{
		books:  books,
		orders: orders,
		trades: trades,
	}
}

// Submit registers a new limit order and immediately matches it against
// the opposite side of the book. The whole sequence — create the order
// record, enqueue its match-candidate, run the match loop, settle its
// final status — is one critical section under the symbol lock.
//
// The caller is responsible for input validation; Submit assumes a
// positive price and quantity.
//
// Finding no counter-order is a normal outcome, not a failure: the
// order simply rests on its own side with status pending.
func (m *Matcher) Submit(userID, symbol string, side domain.Side, price decimal.Decimal, quantity int64) (*domain.Order, []*domain.Trade) {
	book := m.books.GetOrCreate(symbol)

	book.Lock()
	defer book.Unlock()

	order := domain.NewOrder(
		uuid.New().String(),
		userID,
		symbol,
		side,
		price,
		quantity,
		m.seq.Add(1),
		time.Now(),
	)
	m.orders.Create(order)

	// Enqueue before matching: if the order fills completely, its entry
	// becomes a tombstone; otherwise the remainder is already resting.
	entry := &BookEntry{
		OrderID:   order.OrderID,
		Side:      side,
		Price:     price,
		Remaining: quantity,
		Seq:       order.Seq,
	}
	book.Enqueue(entry)

	trades := m.match(book, order, entry)
	return order, trades
}

// match walks the opposite side of the book applying price-time
// priority until the incoming order is exhausted or no eligible
// counter-order remains. Caller must hold the symbol lock.
func (m *Matcher) match(book *OrderBook, incoming *domain.Order, incomingEntry *BookEntry) []*domain.Trade {
	opp := incoming.Side.Opposite()
	executedAt := time.Now()

	var trades []*domain.Trade
	for incomingEntry.Remaining > 0 {
		head, resting, ok := m.liveHead(book, opp)
		if !ok {
			break
		}
		if !crosses(incoming.Side, incoming.Price, head.Price) {
			break
		}

		qty := min(incomingEntry.Remaining, head.Remaining)

		// Fill panics on overfill or terminal-state fills; either would
		// mean the book's invariants are already broken.
		resting.Fill(qty)
		incoming.Fill(qty)
		head.Remaining -= qty
		incomingEntry.Remaining -= qty

		// A fully consumed resting order leaves the book immediately; a
		// partial fill keeps its price-time priority at the head.
		if head.Remaining == 0 {
			book.PopBest(opp)
		}

		var buyID, sellID string
		if incoming.Side == domain.SideBuy {
			buyID, sellID = incoming.OrderID, resting.OrderID
		} else {
			buyID, sellID = resting.OrderID, incoming.OrderID
		}
		trade := &domain.Trade{
			TradeID:     uuid.New().String(),
			Symbol:      incoming.Symbol,
			BuyOrderID:  buyID,
			SellOrderID: sellID,
			Price:       head.Price, // resting order's limit price
			Quantity:    qty,
			ExecutedAt:  executedAt,
		}
		m.trades.Append(trade)
		trades = append(trades, trade)
	}

	return trades
}

// liveHead returns the best live entry on the given side, lazily
// evicting tombstones (entries whose owning order is missing, terminal,
// or has nothing left to match). Caller must hold the symbol lock.
func (m *Matcher) liveHead(book *OrderBook, side domain.Side) (*BookEntry, *domain.Order, bool) {
	for {
		entry, ok := book.Best(side)
		if !ok {
			return nil, nil, false
		}
		order, ok := m.orders.Get(entry.OrderID)
		if !ok || order.Status().Terminal() || entry.Remaining <= 0 {
			book.PopBest(side)
			continue
		}
		return entry, order, true
	}
}

// crosses reports whether an incoming order at incomingPrice can trade
// against a resting counter-order at headPrice.
func crosses(side domain.Side, incomingPrice, headPrice decimal.Decimal) bool {
	if side == domain.SideBuy {
		return headPrice.Cmp(incomingPrice) <= 0
	}
	return headPrice.Cmp(incomingPrice) >= 0
}

// Cancel cancels an order by ID. It returns false if the order does
// not exist or is already fully filled, and true otherwise; repeated
// cancellation is idempotent. The symbol lock is taken so cancellation
// never races an in-flight match on the same symbol. The order's book
// entry is not touched — it becomes a tombstone skipped on next access.
func (m *Matcher) Cancel(orderID string) bool {
	order, ok := m.orders.Get(orderID)
	if !ok {
		return false
	}

	book := m.books.GetOrCreate(order.Symbol)
	book.Lock()
	defer book.Unlock()

	return order.Cancel()
}

// Known reports whether at least one order has ever been submitted for
// the symbol. Books are never removed, so this only grows.
func (m *Matcher) Known(symbol string) bool {
	_, ok := m.books.Get(symbol)
	return ok
}

// BestBid returns the highest live bid price for the symbol, after
// lazy cleanup of dead entries at the head of the bid queue.
func (m *Matcher) BestBid(symbol string) (decimal.Decimal, bool) {
	return m.bestPrice(symbol, domain.SideBuy)
}

// BestAsk returns the lowest live ask price for the symbol, after
// lazy cleanup of dead entries at the head of the ask queue.
func (m *Matcher) BestAsk(symbol string) (decimal.Decimal, bool) {
	return m.bestPrice(symbol, domain.SideSell)
}

func (m *Matcher) bestPrice(symbol string, side domain.Side) (decimal.Decimal, bool) {
	book, ok := m.books.Get(symbol)
	if !ok {
		return decimal.Decimal{}, false
	}

	book.Lock()
	defer book.Unlock()

	entry, _, ok := m.liveHead(book, side)
	if !ok {
		return decimal.Decimal{}, false
	}
	return entry.Price, true
}

// Depth returns up to n aggregated price levels for one side of the
// symbol's book, skipping tombstoned entries. Levels are ordered best
// price first.
func (m *Matcher) Depth(symbol string, side domain.Side, n int) []PriceLevel {
	book, ok := m.books.Get(symbol)
	if !ok || n <= 0 {
		return nil
	}

	book.Lock()
	defer book.Unlock()

	var levels []PriceLevel
	book.Ascend(side, func(entry *BookEntry) bool {
		order, ok := m.orders.Get(entry.OrderID)
		if !ok || order.Status().Terminal() || entry.Remaining <= 0 {
			return true // tombstone, skip without evicting mid-tree
		}
		if len(levels) > 0 && levels[len(levels)-1].Price.Equal(entry.Price) {
			levels[len(levels)-1].Quantity += entry.Remaining
			levels[len(levels)-1].Orders++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:    entry.Price,
			Quantity: entry.Remaining,
			Orders:   1,
		})
		return true
	})
	return levels
}
