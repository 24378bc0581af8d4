package store

import (
	"sync"

	"matchbook/internal/domain"
)

// OrderStore is the order directory: a thread-safe in-memory store with
// a primary index by order_id and a secondary append-only index by
// user_id. Orders are inserted once at submission and never removed, so
// status queries work indefinitely after an order reaches a terminal
// state.
type OrderStore struct {
	mu         sync.RWMutex
	orders     map[string]*domain.Order
	userOrders map[string][]*domain.Order // user_id → orders in submission order
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:     make(map[string]*domain.Order),
		userOrders: make(map[string][]*domain.Order),
	}
}

// Create adds an order to the directory and appends it to the user's
// secondary index.
func (s *OrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.OrderID] = o
	s.userOrders[o.UserID] = append(s.userOrders[o.UserID], o)
}

// Get retrieves an order by ID. The second return value is false if
// the order does not exist.
func (s *OrderStore) Get(id string) (*domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	return o, ok
}

// ListByUser returns a snapshot of the user's orders in submission
// order. The returned slice is a copy; the orders themselves are live
// and reflect whatever fill state they have at read time.
func (s *OrderStore) ListByUser(userID string) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.userOrders[userID]
	result := make([]*domain.Order, len(all))
	copy(result, all)
	return result
}
