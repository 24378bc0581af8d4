package store

import (
	"sync"

	"matchbook/internal/domain"
)

// TradeStore records executed trades per symbol. Trades are appended
// under the symbol lock during matching, so within a symbol the slice
// is already in execution order; the store never reorders or removes.
type TradeStore struct {
	mu     sync.RWMutex
	trades map[string][]*domain.Trade
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		trades: make(map[string][]*domain.Trade),
	}
}

// Append records a trade under its own symbol.
func (s *TradeStore) Append(t *domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades[t.Symbol] = append(s.trades[t.Symbol], t)
}

// BySymbol returns the symbol's trades in execution order. A symbol
// that has never traded yields an empty, non-nil slice. The slice is a
// copy; callers may not reach the store's internal state through it.
func (s *TradeStore) BySymbol(symbol string) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.trades[symbol]
	if trades == nil {
		return []*domain.Trade{}
	}

	result := make([]*domain.Trade, len(trades))
	copy(result, trades)
	return result
}
