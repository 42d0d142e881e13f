package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade is one executed fill. Total is always Quantity × Price.
type Trade struct {
	ID       uuid.UUID       `json:"id"`
	Time     time.Time       `json:"time"`
	Side     Side            `json:"side"`
	Asset    string          `json:"asset"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}

// View is a read-only copy of the ledger.
type View struct {
	Cash     decimal.Decimal  `json:"cash"`
	Holdings map[string]int64 `json:"holdings"`
	Trades   int              `json:"trades"`
}
