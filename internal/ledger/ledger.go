package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrInvalidQuantity      = errors.New("quantity must be a positive integer")
	ErrInvalidPrice         = errors.New("price must be positive")
)

// Ledger tracks cash, share holdings and the trade log of one session.
// Every operation either fully applies or leaves the ledger untouched.
type Ledger struct {
	cash     decimal.Decimal
	holdings map[string]int64
	trades   []Trade

	now   func() time.Time
	newID func() uuid.UUID
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the trade timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithIDs overrides the trade id generator.
func WithIDs(newID func() uuid.UUID) Option {
	return func(l *Ledger) {
		l.newID = newID
	}
}

// New opens a ledger with initialCash and a zero holding for each asset.
func New(initialCash decimal.Decimal, assets []string, opts ...Option) *Ledger {
	l := &Ledger{
		cash:     initialCash,
		holdings: make(map[string]int64, len(assets)),
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, a := range assets {
		l.holdings[a] = 0
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Buy debits price × quantity and credits quantity shares of asset.
func (l *Ledger) Buy(asset string, price decimal.Decimal, quantity int64) (Trade, error) {
	if err := checkOrder(price, quantity); err != nil {
		return Trade{}, err
	}

	cost := price.Mul(decimal.NewFromInt(quantity))
	if l.cash.LessThan(cost) {
		return Trade{}, fmt.Errorf("%w: cost %s, cash %s", ErrInsufficientFunds, cost.StringFixed(2), l.cash.StringFixed(2))
	}

	l.cash = l.cash.Sub(cost)
	l.holdings[asset] += quantity
	return l.record(SideBuy, asset, price, quantity, cost), nil
}

// Sell credits price × quantity and debits quantity shares of asset.
func (l *Ledger) Sell(asset string, price decimal.Decimal, quantity int64) (Trade, error) {
	if err := checkOrder(price, quantity); err != nil {
		return Trade{}, err
	}

	held := l.holdings[asset]
	if held < quantity {
		return Trade{}, fmt.Errorf("%w: want %d %s, hold %d", ErrInsufficientHoldings, quantity, asset, held)
	}

	revenue := price.Mul(decimal.NewFromInt(quantity))
	l.cash = l.cash.Add(revenue)
	l.holdings[asset] = held - quantity
	return l.record(SideSell, asset, price, quantity, revenue), nil
}

func checkOrder(price decimal.Decimal, quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidPrice, price)
	}
	return nil
}

func (l *Ledger) record(side Side, asset string, price decimal.Decimal, quantity int64, total decimal.Decimal) Trade {
	t := Trade{
		ID:       l.newID(),
		Time:     l.now(),
		Side:     side,
		Asset:    asset,
		Quantity: quantity,
		Price:    price,
		Total:    total,
	}
	l.trades = append(l.trades, t)
	return t
}

func (l *Ledger) Cash() decimal.Decimal {
	return l.cash
}

// Holding returns the shares held of asset.
func (l *Ledger) Holding(asset string) int64 {
	return l.holdings[asset]
}

// Trades returns a copy of the full trade log, oldest first.
func (l *Ledger) Trades() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// RecentTrades returns up to n most recent trades, oldest first.
func (l *Ledger) RecentTrades(n int) []Trade {
	if n <= 0 {
		return nil
	}
	start := len(l.trades) - n
	if start < 0 {
		start = 0
	}
	out := make([]Trade, len(l.trades)-start)
	copy(out, l.trades[start:])
	return out
}

// Value marks holdings to prices and adds cash. Assets missing from prices
// are valued at zero.
func (l *Ledger) Value(prices map[string]decimal.Decimal) decimal.Decimal {
	total := l.cash
	for asset, qty := range l.holdings {
		if qty == 0 {
			continue
		}
		total = total.Add(prices[asset].Mul(decimal.NewFromInt(qty)))
	}
	return total
}

func (l *Ledger) Snapshot() View {
	v := View{
		Cash:     l.cash,
		Holdings: make(map[string]int64, len(l.holdings)),
		Trades:   len(l.trades),
	}
	for asset, qty := range l.holdings {
		v.Holdings[asset] = qty
	}
	return v
}
