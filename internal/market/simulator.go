// Package market holds the meme board of one session and advances it one
// round at a time.
//
// Prices are shopspring decimals rounded to each asset's precision and never
// fall below Params.MinPrice. Randomness comes from an injected *rand.Rand,
// so a seeded source replays the same price path.
package market

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNoAssets       = errors.New("market needs at least one asset")
	ErrDuplicateAsset = errors.New("duplicate asset")
	ErrInvalidAsset   = errors.New("invalid asset")
)

// Simulator owns an ordered asset table. It is not safe for concurrent use;
// a session drives it from a single goroutine.
type Simulator struct {
	assets []Asset
	index  map[string]int
	params Params
	rng    *rand.Rand

	quotes       QuoteSource
	quoteTimeout time.Duration
	logger       *zap.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithQuoteSource enables live prices for assets with a QuoteID. Each fetch is
// bounded by timeout; zero means only the caller's context bounds it.
func WithQuoteSource(q QuoteSource, timeout time.Duration) Option {
	return func(s *Simulator) {
		s.quotes = q
		s.quoteTimeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// NewSimulator builds a board from seed assets, kept in the given order.
func NewSimulator(seed []Asset, params Params, rng *rand.Rand, opts ...Option) (*Simulator, error) {
	if len(seed) == 0 {
		return nil, ErrNoAssets
	}

	s := &Simulator{
		assets: make([]Asset, 0, len(seed)),
		index:  make(map[string]int, len(seed)),
		params: params,
		rng:    rng,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, a := range seed {
		if a.Name == "" || !a.Price.IsPositive() {
			return nil, fmt.Errorf("%w: %q price %s", ErrInvalidAsset, a.Name, a.Price)
		}
		if _, ok := s.index[a.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAsset, a.Name)
		}
		s.index[a.Name] = len(s.assets)
		s.assets = append(s.assets, a)
	}
	return s, nil
}

// AdvanceRound moves every asset one round forward and returns the new board.
// Assets with a QuoteID take the live quote when one is available and fall
// back to the formula otherwise.
func (s *Simulator) AdvanceRound(ctx context.Context) []Asset {
	quotes := s.fetchQuotes(ctx)

	for i, a := range s.assets {
		if q, ok := quotes[a.Name]; ok {
			s.assets[i] = applyQuote(a, q, s.rng, s.params)
			continue
		}
		s.assets[i] = Step(a, s.rng, s.params)
		if s.assets[i].Viral {
			s.logger.Info("viral event",
				zap.String("asset", a.Name),
				zap.Float64("changePct", s.assets[i].ChangePct))
		}
	}
	return s.Assets()
}

func (s *Simulator) fetchQuotes(ctx context.Context) map[string]decimal.Decimal {
	if s.quotes == nil {
		return nil
	}

	out := make(map[string]decimal.Decimal)
	for _, a := range s.assets {
		if a.QuoteID == "" {
			continue
		}
		q, err := s.quote(ctx, a.QuoteID)
		if err != nil {
			s.logger.Warn("quote unavailable, using simulated price",
				zap.String("asset", a.Name),
				zap.String("quoteId", a.QuoteID),
				zap.Error(err))
			continue
		}
		out[a.Name] = q
	}
	return out
}

func (s *Simulator) quote(ctx context.Context, id string) (decimal.Decimal, error) {
	if s.quoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.quoteTimeout)
		defer cancel()
	}

	type result struct {
		price decimal.Decimal
		err   error
	}
	// Buffered: the sender must not block once the select has returned.
	ch := make(chan result, 1)
	go func() {
		p, err := s.quotes.Quote(ctx, id)
		ch <- result{p, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return decimal.Zero, r.err
		}
		if !r.price.IsPositive() {
			return decimal.Zero, fmt.Errorf("non-positive quote %s", r.price)
		}
		return r.price, nil
	case <-ctx.Done():
		return decimal.Zero, ctx.Err()
	}
}

// LiveQuote fetches the current external price for an asset, for display.
func (s *Simulator) LiveQuote(ctx context.Context, name string) (decimal.Decimal, error) {
	a, ok := s.Asset(name)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAsset, name)
	}
	if s.quotes == nil || a.QuoteID == "" {
		return decimal.Zero, fmt.Errorf("%s has no live quote", name)
	}
	return s.quote(ctx, a.QuoteID)
}

// Asset returns a copy of the named asset.
func (s *Simulator) Asset(name string) (Asset, bool) {
	i, ok := s.index[name]
	if !ok {
		return Asset{}, false
	}
	return s.assets[i], true
}

// Price returns the current price of the named asset.
func (s *Simulator) Price(name string) (decimal.Decimal, bool) {
	a, ok := s.Asset(name)
	return a.Price, ok
}

// Prices returns current prices keyed by asset name.
func (s *Simulator) Prices() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.assets))
	for _, a := range s.assets {
		out[a.Name] = a.Price
	}
	return out
}

// Assets returns a copy of the board in seed order.
func (s *Simulator) Assets() []Asset {
	out := make([]Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

// Names returns asset names in seed order.
func (s *Simulator) Names() []string {
	out := make([]string, len(s.assets))
	for i, a := range s.assets {
		out[i] = a.Name
	}
	return out
}

// MarketCap is the sum of all current prices.
func (s *Simulator) MarketCap() decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.assets {
		total = total.Add(a.Price)
	}
	return total
}
