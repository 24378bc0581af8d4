package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents a matched execution between a buy and a sell order.
// The execution price is the resting order's limit price.
type Trade struct {
	TradeID     string
	Symbol      string
	BuyOrderID  string
	SellOrderID string
	Price       decimal.Decimal
	Quantity    int64
	ExecutedAt  time.Time
}
