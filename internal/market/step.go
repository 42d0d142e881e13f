package market

import (
	"math"
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// Step computes an asset's next state from the round formula. It is a pure
// function of its inputs: the same asset, params and rng state always yield
// the same result. Draw order is mentions, volatility, viral.
func Step(a Asset, rng *rand.Rand, p Params) Asset {
	mentions := drawMentions(rng, p)
	mentionEffect := math.Min(float64(mentions)*p.MentionFactor, p.MentionCap)
	volatilityEffect := -a.Volatility + rng.Float64()*2*a.Volatility
	change := mentionEffect + volatilityEffect

	viral := rng.Float64() < p.ViralProbability
	if viral {
		change *= p.ViralMultiplier
	}

	raw := a.Price.Mul(decimal.NewFromFloat(1 + change))

	next := a
	next.Price = clampRound(raw, a.Precision, p.MinPrice)
	next.Mentions = mentions
	next.ChangePct = change * 100
	next.Viral = viral
	next.Live = false
	return next
}

// applyQuote replaces the formula price with an external quote. The formula's
// draws are still consumed so the rest of the board follows the same rng
// stream whether or not the quote arrived. The change is measured from the
// raw quote against the previous price.
func applyQuote(a Asset, quote decimal.Decimal, rng *rand.Rand, p Params) Asset {
	next := Step(a, rng, p)
	next.Price = clampRound(quote, a.Precision, p.MinPrice)
	next.ChangePct, _ = quote.Sub(a.Price).Div(a.Price).Mul(decimal.NewFromInt(100)).Float64()
	next.Viral = false
	next.Live = true
	return next
}

func drawMentions(rng *rand.Rand, p Params) int {
	if p.MentionMax <= 0 {
		return 0
	}
	return rng.IntN(p.MentionMax + 1)
}

func clampRound(price decimal.Decimal, precision int32, floor decimal.Decimal) decimal.Decimal {
	price = price.Round(precision)
	if price.LessThan(floor) {
		return floor
	}
	return price
}
