package memory

import (
	"context"
	"sync"

	"memetrader/internal/ledger"
	"memetrader/internal/market"

	"github.com/google/uuid"
)

// TradeEntry is a trade tagged with the session that made it.
type TradeEntry struct {
	SessionID uuid.UUID
	Trade     ledger.Trade
}

// RoundEntry is the board after one round of one session.
type RoundEntry struct {
	SessionID uuid.UUID
	Round     int
	Assets    []market.Asset
}

// Store is an in-process journal for tests and embedders that want to inspect
// what a session recorded.
type Store struct {
	mu     sync.Mutex
	trades []TradeEntry
	rounds []RoundEntry
}

func NewStore() *Store {
	return &Store{
		trades: make([]TradeEntry, 0),
		rounds: make([]RoundEntry, 0),
	}
}

func (m *Store) RecordTrade(_ context.Context, sessionID uuid.UUID, t ledger.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, TradeEntry{SessionID: sessionID, Trade: t})
	return nil
}

func (m *Store) RecordRound(_ context.Context, sessionID uuid.UUID, round int, assets []market.Asset) error {
	cp := make([]market.Asset, len(assets))
	copy(cp, assets)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds = append(m.rounds, RoundEntry{SessionID: sessionID, Round: round, Assets: cp})
	return nil
}

func (m *Store) Trades() []TradeEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TradeEntry, len(m.trades))
	copy(out, m.trades)
	return out
}

func (m *Store) Rounds() []RoundEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]RoundEntry, len(m.rounds))
	copy(out, m.rounds)
	return out
}
