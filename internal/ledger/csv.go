package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"trade_id",
	"time", // RFC3339
	"side",
	"asset",
	"quantity",
	"price",
	"total",
}

// WriteTradesCSV writes the trade log to w, one row per trade.
func (l *Ledger) WriteTradesCSV(w io.Writer) error {
	return writeTradesCSV(w, l.trades)
}

func writeTradesCSV(w io.Writer, trades []Trade) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range trades {
		record := []string{
			t.ID.String(),
			t.Time.Format(time.RFC3339),
			string(t.Side),
			t.Asset,
			strconv.FormatInt(t.Quantity, 10),
			t.Price.String(),
			t.Total.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
