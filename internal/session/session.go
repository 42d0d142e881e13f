package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"memetrader/internal/ledger"
	"memetrader/internal/market"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrUnknownAsset = errors.New("unknown asset")

// journalTimeout bounds each archive write.
const journalTimeout = 2 * time.Second

// Journal archives what a session did. It is write-only: sessions are never
// rebuilt from it.
type Journal interface {
	RecordTrade(ctx context.Context, sessionID uuid.UUID, t ledger.Trade) error
	RecordRound(ctx context.Context, sessionID uuid.UUID, round int, assets []market.Asset) error
}

// Session is the simulation context of one connected user: a market, a
// ledger and a round counter. It must be driven from one goroutine.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Seed      uint64

	market  *market.Simulator
	ledger  *ledger.Ledger
	round   int
	recentN int

	journal Journal
	logger  *zap.Logger
}

// State is everything a client needs to render the board.
type State struct {
	SessionID      uuid.UUID        `json:"sessionId"`
	Round          int              `json:"round"`
	Cash           decimal.Decimal  `json:"cash"`
	PortfolioValue decimal.Decimal  `json:"portfolioValue"`
	MarketCap      decimal.Decimal  `json:"marketCap"`
	TotalTrades    int              `json:"totalTrades"`
	Assets         []market.Asset   `json:"assets"`
	Holdings       map[string]int64 `json:"holdings"`
	RecentTrades   []ledger.Trade   `json:"recentTrades"`
}

// Buy purchases quantity shares of asset at its current price.
func (s *Session) Buy(ctx context.Context, asset string, quantity int64) (ledger.Trade, error) {
	price, ok := s.market.Price(asset)
	if !ok {
		return ledger.Trade{}, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	t, err := s.ledger.Buy(asset, price, quantity)
	if err != nil {
		return ledger.Trade{}, err
	}
	s.recordTrade(ctx, t)
	return t, nil
}

// Sell disposes of quantity shares of asset at its current price.
func (s *Session) Sell(ctx context.Context, asset string, quantity int64) (ledger.Trade, error) {
	price, ok := s.market.Price(asset)
	if !ok {
		return ledger.Trade{}, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	t, err := s.ledger.Sell(asset, price, quantity)
	if err != nil {
		return ledger.Trade{}, err
	}
	s.recordTrade(ctx, t)
	return t, nil
}

// NextRound advances the market one round and bumps the round counter.
func (s *Session) NextRound(ctx context.Context) []market.Asset {
	board := s.market.AdvanceRound(ctx)
	s.round++

	if s.journal != nil {
		jctx, cancel := context.WithTimeout(ctx, journalTimeout)
		err := s.journal.RecordRound(jctx, s.ID, s.round, board)
		cancel()
		if err != nil {
			s.logger.Warn("failed to journal round", zap.Int("round", s.round), zap.Error(err))
		}
	}
	s.logger.Debug("round advanced", zap.Int("round", s.round), zap.String("marketCap", s.market.MarketCap().StringFixed(2)))
	return board
}

// Quote returns the live external price of asset.
func (s *Session) Quote(ctx context.Context, asset string) (decimal.Decimal, error) {
	if _, ok := s.market.Asset(asset); !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	return s.market.LiveQuote(ctx, asset)
}

// History returns the full trade log, oldest first.
func (s *Session) History() []ledger.Trade {
	return s.ledger.Trades()
}

// ExportCSV writes the trade log as CSV.
func (s *Session) ExportCSV(w io.Writer) error {
	return s.ledger.WriteTradesCSV(w)
}

func (s *Session) Round() int {
	return s.round
}

func (s *Session) State() State {
	view := s.ledger.Snapshot()
	return State{
		SessionID:      s.ID,
		Round:          s.round,
		Cash:           view.Cash,
		PortfolioValue: s.ledger.Value(s.market.Prices()),
		MarketCap:      s.market.MarketCap(),
		TotalTrades:    view.Trades,
		Assets:         s.market.Assets(),
		Holdings:       view.Holdings,
		RecentTrades:   s.ledger.RecentTrades(s.recentN),
	}
}

func (s *Session) recordTrade(ctx context.Context, t ledger.Trade) {
	s.logger.Info("trade executed",
		zap.String("side", string(t.Side)),
		zap.String("asset", t.Asset),
		zap.Int64("quantity", t.Quantity),
		zap.String("price", t.Price.String()),
		zap.String("total", t.Total.String()))

	if s.journal == nil {
		return
	}
	jctx, cancel := context.WithTimeout(ctx, journalTimeout)
	defer cancel()
	if err := s.journal.RecordTrade(jctx, s.ID, t); err != nil {
		s.logger.Warn("failed to journal trade", zap.String("tradeId", t.ID.String()), zap.Error(err))
	}
}
