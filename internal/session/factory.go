package session

import (
	"fmt"
	"math/rand/v2"
	"time"

	"memetrader/config"
	"memetrader/internal/ledger"
	"memetrader/internal/market"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Factory builds fresh sessions from the market configuration.
type Factory struct {
	cfg          config.MarketConfig
	quotes       market.QuoteSource
	quoteTimeout time.Duration
	journal      Journal
	logger       *zap.Logger
}

// NewFactory returns a Factory. quotes and journal may be nil.
func NewFactory(cfg config.MarketConfig, quotes market.QuoteSource, quoteTimeout time.Duration, journal Journal, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		cfg:          cfg,
		quotes:       quotes,
		quoteTimeout: quoteTimeout,
		journal:      journal,
		logger:       logger,
	}
}

// New opens a session at round 1 with the configured seed board and cash.
func (f *Factory) New() (*Session, error) {
	id := uuid.New()
	logger := f.logger.With(zap.String("session", id.String()))

	seed := f.cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	opts := []market.Option{market.WithLogger(logger)}
	if f.quotes != nil {
		opts = append(opts, market.WithQuoteSource(f.quotes, f.quoteTimeout))
	}

	sim, err := market.NewSimulator(seedAssets(f.cfg.Assets), params(f.cfg), newRand(seed), opts...)
	if err != nil {
		return nil, fmt.Errorf("build market: %w", err)
	}

	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		Seed:      seed,
		market:    sim,
		ledger:    ledger.New(decimal.NewFromFloat(f.cfg.InitialCash), sim.Names()),
		round:     1,
		recentN:   f.cfg.RecentTrades,
		journal:   f.journal,
		logger:    logger,
	}
	logger.Info("session opened", zap.Uint64("seed", seed))
	return s, nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func params(cfg config.MarketConfig) market.Params {
	return market.Params{
		MentionMax:       cfg.MentionMax,
		MentionFactor:    cfg.MentionFactor,
		MentionCap:       cfg.MentionCap,
		ViralProbability: cfg.ViralProbability,
		ViralMultiplier:  cfg.ViralMultiplier,
		MinPrice:         decimal.NewFromFloat(cfg.MinPrice),
	}
}

func seedAssets(cfgs []config.AssetConfig) []market.Asset {
	out := make([]market.Asset, 0, len(cfgs))
	for _, a := range cfgs {
		out = append(out, market.Asset{
			Name:       a.Name,
			Price:      decimal.NewFromFloat(a.Price).Round(a.Decimals()),
			Volatility: a.Volatility,
			Precision:  a.Decimals(),
			QuoteID:    a.QuoteID,
		})
	}
	return out
}
