package postgres

import (
	"time"

	"memetrader/internal/ledger"
	"memetrader/internal/market"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeRecord is one executed trade of one session.
type TradeRecord struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SessionID uuid.UUID       `gorm:"type:uuid;not null;index:idx_trade_session"`
	Side      string          `gorm:"type:varchar(4);not null"`
	Asset     string          `gorm:"type:text;not null;index:idx_trade_asset"`
	Quantity  int64           `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:numeric;not null"`
	Total     decimal.Decimal `gorm:"type:numeric;not null"`
	TradedAt  time.Time       `gorm:"not null;index:idx_trade_traded_at"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (TradeRecord) TableName() string {
	return "trade_record"
}

// PriceRecord is one asset's state at the end of one round.
type PriceRecord struct {
	ID uint `gorm:"primaryKey"`

	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_session_round_asset,unique"`
	Round     int       `gorm:"not null;index:idx_session_round_asset,unique"`
	Asset     string    `gorm:"type:text;not null;index:idx_session_round_asset,unique"`

	Price     decimal.Decimal `gorm:"type:numeric;not null"`
	ChangePct float64         `gorm:"not null"`
	Mentions  int             `gorm:"not null"`
	Viral     bool            `gorm:"not null"`
	Live      bool            `gorm:"not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (PriceRecord) TableName() string {
	return "price_record"
}

// ToTradeRecord converts a ledger trade into a TradeRecord for DB insertion.
func ToTradeRecord(sessionID uuid.UUID, t ledger.Trade) *TradeRecord {
	return &TradeRecord{
		ID:        t.ID,
		SessionID: sessionID,
		Side:      string(t.Side),
		Asset:     t.Asset,
		Quantity:  t.Quantity,
		Price:     t.Price,
		Total:     t.Total,
		TradedAt:  t.Time,
	}
}

// ToPriceRecords converts a board snapshot into one PriceRecord per asset.
func ToPriceRecords(sessionID uuid.UUID, round int, assets []market.Asset) []PriceRecord {
	out := make([]PriceRecord, 0, len(assets))
	for _, a := range assets {
		out = append(out, PriceRecord{
			SessionID: sessionID,
			Round:     round,
			Asset:     a.Name,
			Price:     a.Price,
			ChangePct: a.ChangePct,
			Mentions:  a.Mentions,
			Viral:     a.Viral,
			Live:      a.Live,
		})
	}
	return out
}
