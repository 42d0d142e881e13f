package session

import (
	"memetrader/internal/ledger"

	"github.com/shopspring/decimal"
)

// Ops understood by the message handler.
const (
	OpState     = "state"
	OpBuy       = "buy"
	OpSell      = "sell"
	OpNextRound = "next_round"
	OpQuote     = "quote"
	OpHistory   = "history"
	OpExport    = "export"
)

// Request is one client command, e.g. {"op":"buy","asset":"Wojak","quantity":3}.
type Request struct {
	Op       string `json:"op"`
	Asset    string `json:"asset,omitempty"`
	Quantity int64  `json:"quantity,omitempty"`
}

// Response answers exactly one Request.
type Response struct {
	Op      string           `json:"op"`
	OK      bool             `json:"ok"`
	Error   string           `json:"error,omitempty"`   // machine-readable kind
	Message string           `json:"message,omitempty"` // user-facing text
	State   *State           `json:"state,omitempty"`
	Trade   *ledger.Trade    `json:"trade,omitempty"`
	Quote   *decimal.Decimal `json:"quote,omitempty"`
	Trades  []ledger.Trade   `json:"trades,omitempty"`
	CSV     string           `json:"csv,omitempty"`
}

// Error kinds reported in Response.Error.
const (
	KindBadRequest           = "bad_request"
	KindUnknownOp            = "unknown_op"
	KindUnknownAsset         = "unknown_asset"
	KindInvalidQuantity      = "invalid_quantity"
	KindInsufficientFunds    = "insufficient_funds"
	KindInsufficientHoldings = "insufficient_holdings"
	KindQuoteUnavailable     = "quote_unavailable"
	KindInternal             = "internal"
)
