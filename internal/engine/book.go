package engine

import (
	"sync"

	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"matchbook/internal/domain"
)

// BookEntry is a lightweight match-candidate resting on one side of the
// book. Remaining is decremented in place as matches consume it; Price
// and Seq never change after insertion, so mutating Remaining does not
// disturb the tree ordering. An entry whose owning order has reached a
// terminal state is a tombstone: it stays in the tree until lazy
// cleanup evicts it from the head.
type BookEntry struct {
	OrderID   string
	Side      domain.Side
	Price     decimal.Decimal
	Remaining int64
	Seq       uint64
}

// bidLess orders the bid side: price descending, then arrival sequence
// ascending. Min() returns the best bid (highest price, earliest arrival).
func bidLess(a, b *BookEntry) bool {
	if c := a.Price.Cmp(b.Price); c != 0 {
		return c > 0
	}
	return a.Seq < b.Seq
}

// askLess orders the ask side: price ascending, then arrival sequence
// ascending. Min() returns the best ask (lowest price, earliest arrival).
func askLess(a, b *BookEntry) bool {
	if c := a.Price.Cmp(b.Price); c != 0 {
		return c < 0
	}
	return a.Seq < b.Seq
}

// OrderBook holds the bid and ask sides for a single symbol plus the
// symbol's lock. All mutation (enqueue, matching, tombstone eviction)
// and best-price reads happen while mu is held.
type OrderBook struct {
	symbol string
	mu     sync.Mutex
	bids   *btree.BTreeG[*BookEntry]
	asks   *btree.BTreeG[*BookEntry]
}

// NewOrderBook creates an order book for the given symbol.
func NewOrderBook(symbol string) *OrderBook {
	const degree = 32
	return &OrderBook{
		symbol: symbol,
		bids:   btree.NewG(degree, bidLess),
		asks:   btree.NewG(degree, askLess),
	}
}

// Lock acquires the symbol lock.
func (ob *OrderBook) Lock() {
	ob.mu.Lock()
}

// Unlock releases the symbol lock.
func (ob *OrderBook) Unlock() {
	ob.mu.Unlock()
}

func (ob *OrderBook) tree(side domain.Side) *btree.BTreeG[*BookEntry] {
	if side == domain.SideBuy {
		return ob.bids
	}
	return ob.asks
}

// Enqueue inserts an entry on its own side. Caller must hold the lock.
func (ob *OrderBook) Enqueue(e *BookEntry) {
	ob.tree(e.Side).ReplaceOrInsert(e)
}

// Best returns the highest-priority entry on the given side without
// removing it. Caller must hold the lock.
func (ob *OrderBook) Best(side domain.Side) (*BookEntry, bool) {
	return ob.tree(side).Min()
}

// PopBest removes and returns the highest-priority entry on the given
// side. Caller must hold the lock.
func (ob *OrderBook) PopBest(side domain.Side) (*BookEntry, bool) {
	return ob.tree(side).DeleteMin()
}

// Ascend iterates the given side in priority order. The callback
// returns true to continue, false to stop. Caller must hold the lock.
func (ob *OrderBook) Ascend(side domain.Side, fn func(*BookEntry) bool) {
	ob.tree(side).Ascend(fn)
}

// Len returns the number of entries on the given side, tombstones
// included. Caller must hold the lock.
func (ob *OrderBook) Len(side domain.Side) int {
	return ob.tree(side).Len()
}

// BookRegistry owns one OrderBook per symbol. Books are created lazily
// through a single synchronized get-or-create path so two concurrent
// submissions for a new symbol never race to create two locks.
type BookRegistry struct {
	mu    sync.RWMutex
	books map[string]*OrderBook
}

// NewBookRegistry creates an empty BookRegistry.
func NewBookRegistry() *BookRegistry {
	return &BookRegistry{
		books: make(map[string]*OrderBook),
	}
}

// GetOrCreate returns the order book for the given symbol, creating
// one if it doesn't already exist.
func (r *BookRegistry) GetOrCreate(symbol string) *OrderBook {
	r.mu.RLock()
	book, ok := r.books[symbol]
	r.mu.RUnlock()
	if ok {
		return book
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Double-check after acquiring write lock.
	if book, ok = r.books[symbol]; ok {
		return book
	}
	book = NewOrderBook(symbol)
	r.books[symbol] = book
	return book
}

// Get returns the order book for the given symbol, or false if no
// order has ever been submitted for it. Read paths use this so that
// queries against unknown symbols don't allocate books.
func (r *BookRegistry) Get(symbol string) (*OrderBook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	book, ok := r.books[symbol]
	return book, ok
}
