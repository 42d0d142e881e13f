package postgres

import (
	"context"
	"fmt"
	"time"

	"memetrader/internal/ledger"
	"memetrader/internal/market"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

func (p *PostgresClient) InsertTrade(ctx context.Context, record *TradeRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(record)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("duplicate trade skipped: id=%s session=%s", record.ID, record.SessionID)
	}
	return nil
}

func (p *PostgresClient) InsertPrices(ctx context.Context, records []PriceRecord) error {
	if len(records) == 0 {
		return nil
	}
	return p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "session_id"},
			{Name: "round"},
			{Name: "asset"},
		},
		DoNothing: true,
	}).Create(&records).Error
}

// RecordTrade archives one executed trade.
func (p *PostgresClient) RecordTrade(ctx context.Context, sessionID uuid.UUID, t ledger.Trade) error {
	return p.InsertTrade(ctx, ToTradeRecord(sessionID, t))
}

// RecordRound archives the board as it stands after round.
func (p *PostgresClient) RecordRound(ctx context.Context, sessionID uuid.UUID, round int, assets []market.Asset) error {
	return p.InsertPrices(ctx, ToPriceRecords(sessionID, round, assets))
}

func (p *PostgresClient) ListTrades(ctx context.Context, sessionID uuid.UUID) ([]TradeRecord, error) {
	var out []TradeRecord
	err := p.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("traded_at").
		Find(&out).Error
	return out, err
}

func (p *PostgresClient) ListPrices(ctx context.Context, sessionID uuid.UUID, asset string) ([]PriceRecord, error) {
	var out []PriceRecord
	err := p.DB.WithContext(ctx).
		Where("session_id = ? AND asset = ?", sessionID, asset).
		Order("round").
		Find(&out).Error
	return out, err
}

// DeleteBefore prunes journal rows recorded before the cutoff.
func (p *PostgresClient) DeleteBefore(ctx context.Context, before time.Time) error {
	if err := p.DB.WithContext(ctx).Where("recorded_at < ?", before).Delete(&TradeRecord{}).Error; err != nil {
		return err
	}
	return p.DB.WithContext(ctx).Where("recorded_at < ?", before).Delete(&PriceRecord{}).Error
}
