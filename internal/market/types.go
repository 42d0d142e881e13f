package market

import (
	"context"

	"github.com/shopspring/decimal"
)

// Asset is one row of the meme board.
type Asset struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Volatility float64         `json:"volatility"` // fraction in [0,1)
	Mentions   int             `json:"mentions"`
	ChangePct  float64         `json:"changePct"` // last round's change, in percent
	Precision  int32           `json:"precision"` // decimal places the price is rounded to
	QuoteID    string          `json:"quoteId,omitempty"`
	Viral      bool            `json:"viral"` // last round hit a viral event
	Live       bool            `json:"live"`  // last price came from an external quote
}

// Params are the knobs of the round formula.
type Params struct {
	MentionMax       int             // mentions drawn uniformly in [0, MentionMax]
	MentionFactor    float64         // price effect per mention
	MentionCap       float64         // ceiling of the mention effect
	ViralProbability float64         // chance of a viral event per asset per round
	ViralMultiplier  float64         // change multiplier on a viral event
	MinPrice         decimal.Decimal // price floor
}

func DefaultParams() Params {
	return Params{
		MentionMax:       50,
		MentionFactor:    0.001,
		MentionCap:       0.1,
		ViralProbability: 0.02,
		ViralMultiplier:  4,
		MinPrice:         decimal.RequireFromString("0.01"),
	}
}

// QuoteSource supplies live prices for assets carrying a QuoteID.
type QuoteSource interface {
	Quote(ctx context.Context, quoteID string) (decimal.Decimal, error)
}
