package market

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func seedAssets() []Asset {
	return []Asset{
		{Name: "Wojak", Price: decimal.RequireFromString("100.00"), Volatility: 0.2, Precision: 2},
		{Name: "Dogecoin", Price: decimal.RequireFromString("0.10"), Volatility: 0.3, Precision: 4, QuoteID: "dogecoin"},
		{Name: "Distracted Boyfriend", Price: decimal.RequireFromString("75.00"), Volatility: 0.15, Precision: 2},
		{Name: "Pepe the Frog", Price: decimal.RequireFromString("120.00"), Volatility: 0.25, Precision: 2},
		{Name: "Drake Template", Price: decimal.RequireFromString("80.00"), Volatility: 0.22, Precision: 2},
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type fakeQuotes struct {
	price decimal.Decimal
	err   error
	block bool
	calls int
}

func (f *fakeQuotes) Quote(ctx context.Context, id string) (decimal.Decimal, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return decimal.Zero, ctx.Err()
	}
	return f.price, f.err
}

// go test -v --run ^TestNewSimulator$
func TestNewSimulator(t *testing.T) {
	if _, err := NewSimulator(nil, DefaultParams(), newRand(1)); !errors.Is(err, ErrNoAssets) {
		t.Errorf("empty seed error = %v, want ErrNoAssets", err)
	}

	dup := append(seedAssets(), Asset{Name: "Wojak", Price: decimal.NewFromInt(1)})
	if _, err := NewSimulator(dup, DefaultParams(), newRand(1)); !errors.Is(err, ErrDuplicateAsset) {
		t.Errorf("duplicate seed error = %v, want ErrDuplicateAsset", err)
	}

	zero := []Asset{{Name: "Wojak", Price: decimal.Zero}}
	if _, err := NewSimulator(zero, DefaultParams(), newRand(1)); !errors.Is(err, ErrInvalidAsset) {
		t.Errorf("zero price error = %v, want ErrInvalidAsset", err)
	}

	sim, err := NewSimulator(seedAssets(), DefaultParams(), newRand(1))
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	names := sim.Names()
	if names[0] != "Wojak" || names[4] != "Drake Template" {
		t.Errorf("Names() = %v, want seed order", names)
	}
	if !sim.MarketCap().Equal(decimal.RequireFromString("375.10")) {
		t.Errorf("MarketCap() = %s, want 375.10", sim.MarketCap())
	}
}

// go test -v --run ^TestStepFormula$
func TestStepFormula(t *testing.T) {
	p := DefaultParams()
	a := seedAssets()[0]

	got := Step(a, newRand(7), p)

	// Replay the same draws by hand.
	r := newRand(7)
	mentions := r.IntN(p.MentionMax + 1)
	change := math.Min(float64(mentions)*p.MentionFactor, p.MentionCap) - a.Volatility + r.Float64()*2*a.Volatility
	viral := r.Float64() < p.ViralProbability
	if viral {
		change *= p.ViralMultiplier
	}
	want := a.Price.Mul(decimal.NewFromFloat(1 + change)).Round(2)
	if want.LessThan(p.MinPrice) {
		want = p.MinPrice
	}

	if got.Mentions != mentions {
		t.Errorf("Mentions = %d, want %d", got.Mentions, mentions)
	}
	if !got.Price.Equal(want) {
		t.Errorf("Price = %s, want %s", got.Price, want)
	}
	if math.Abs(got.ChangePct-change*100) > 1e-9 {
		t.Errorf("ChangePct = %v, want %v", got.ChangePct, change*100)
	}
	if got.Viral != viral {
		t.Errorf("Viral = %v, want %v", got.Viral, viral)
	}
	if !a.Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Step mutated its input: price %s", a.Price)
	}
}

// go test -v --run ^TestStepViralMultiplier$
func TestStepViralMultiplier(t *testing.T) {
	calm := DefaultParams()
	calm.ViralProbability = 0
	viral := DefaultParams()
	viral.ViralProbability = 1

	a := seedAssets()[3]
	for seed := uint64(0); seed < 50; seed++ {
		base := Step(a, newRand(seed), calm)
		spike := Step(a, newRand(seed), viral)

		if base.Viral || !spike.Viral {
			t.Fatalf("seed %d: viral flags = %v/%v, want false/true", seed, base.Viral, spike.Viral)
		}
		if math.Abs(spike.ChangePct-4*base.ChangePct) > 1e-9 {
			t.Fatalf("seed %d: viral change %v, want 4x %v", seed, spike.ChangePct, base.ChangePct)
		}
	}
}

// go test -v --run ^TestStepMentionEffectCapped$
func TestStepMentionEffectCapped(t *testing.T) {
	p := DefaultParams()
	p.MentionFactor = 1 // any mention saturates the cap
	p.ViralProbability = 0
	a := Asset{Name: "Flat", Price: decimal.NewFromInt(100), Volatility: 0, Precision: 2}

	for seed := uint64(0); seed < 20; seed++ {
		got := Step(a, newRand(seed), p)
		if got.Mentions == 0 {
			if !got.Price.Equal(decimal.NewFromInt(100)) {
				t.Errorf("seed %d: zero mentions moved price to %s", seed, got.Price)
			}
			continue
		}
		if !got.Price.Equal(decimal.NewFromInt(110)) {
			t.Errorf("seed %d: price = %s, want 110 (capped +10%%)", seed, got.Price)
		}
	}
}

// go test -v --run ^TestAdvanceRoundPriceFloor$
func TestAdvanceRoundPriceFloor(t *testing.T) {
	p := DefaultParams()
	p.ViralProbability = 0.5 // push prices around hard

	sim, err := NewSimulator(seedAssets(), p, newRand(99))
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	for round := 0; round < 500; round++ {
		for _, a := range sim.AdvanceRound(context.Background()) {
			if a.Price.LessThan(p.MinPrice) {
				t.Fatalf("round %d: %s price %s below floor", round, a.Name, a.Price)
			}
			if a.Mentions < 0 || a.Mentions > p.MentionMax {
				t.Fatalf("round %d: %s mentions %d out of range", round, a.Name, a.Mentions)
			}
			if a.Price.Exponent() < -a.Precision {
				t.Fatalf("round %d: %s price %s exceeds precision %d", round, a.Name, a.Price, a.Precision)
			}
		}
	}
}

// go test -v --run ^TestAdvanceRoundDeterministic$
func TestAdvanceRoundDeterministic(t *testing.T) {
	a, _ := NewSimulator(seedAssets(), DefaultParams(), newRand(2024))
	b, _ := NewSimulator(seedAssets(), DefaultParams(), newRand(2024))

	for round := 0; round < 25; round++ {
		ra := a.AdvanceRound(context.Background())
		rb := b.AdvanceRound(context.Background())
		for i := range ra {
			if !ra[i].Price.Equal(rb[i].Price) || ra[i].Mentions != rb[i].Mentions {
				t.Fatalf("round %d: %s diverged: %s/%d vs %s/%d",
					round, ra[i].Name, ra[i].Price, ra[i].Mentions, rb[i].Price, rb[i].Mentions)
			}
		}
	}
}

// go test -v --run ^TestAdvanceRoundLiveQuote$
func TestAdvanceRoundLiveQuote(t *testing.T) {
	quotes := &fakeQuotes{price: decimal.RequireFromString("0.123456")}
	sim, _ := NewSimulator(seedAssets(), DefaultParams(), newRand(5), WithQuoteSource(quotes, time.Second))

	sim.AdvanceRound(context.Background())

	doge, _ := sim.Asset("Dogecoin")
	if !doge.Live {
		t.Fatal("Dogecoin not marked live")
	}
	if !doge.Price.Equal(decimal.RequireFromString("0.1235")) {
		t.Errorf("Dogecoin price = %s, want 0.1235", doge.Price)
	}
	if math.Abs(doge.ChangePct-23.456) > 1e-9 {
		t.Errorf("Dogecoin change = %v, want 23.456 from the raw quote", doge.ChangePct)
	}
	if quotes.calls != 1 {
		t.Errorf("quote calls = %d, want 1", quotes.calls)
	}

	wojak, _ := sim.Asset("Wojak")
	if wojak.Live {
		t.Error("Wojak has no quote id but is marked live")
	}
}

// go test -v --run ^TestAdvanceRoundQuoteFallback$
func TestAdvanceRoundQuoteFallback(t *testing.T) {
	tests := []struct {
		name   string
		quotes *fakeQuotes
	}{
		{"error", &fakeQuotes{err: errors.New("boom")}},
		{"timeout", &fakeQuotes{block: true}},
		{"non-positive", &fakeQuotes{price: decimal.Zero}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, _ := NewSimulator(seedAssets(), DefaultParams(), newRand(11), WithQuoteSource(tt.quotes, 20*time.Millisecond))
			ref, _ := NewSimulator(seedAssets(), DefaultParams(), newRand(11))

			got := sim.AdvanceRound(context.Background())
			want := ref.AdvanceRound(context.Background())

			for i := range got {
				if got[i].Live {
					t.Errorf("%s marked live after failed quote", got[i].Name)
				}
				if !got[i].Price.Equal(want[i].Price) {
					t.Errorf("%s price = %s, want simulated %s", got[i].Name, got[i].Price, want[i].Price)
				}
			}
		})
	}
}

// go test -v --run ^TestAdvanceRoundReplayIndependentOfQuote$
func TestAdvanceRoundReplayIndependentOfQuote(t *testing.T) {
	live, _ := NewSimulator(seedAssets(), DefaultParams(), newRand(3),
		WithQuoteSource(&fakeQuotes{price: decimal.RequireFromString("0.11")}, time.Second))
	fallback, _ := NewSimulator(seedAssets(), DefaultParams(), newRand(3),
		WithQuoteSource(&fakeQuotes{block: true}, 20*time.Millisecond))

	for round := 1; round <= 5; round++ {
		got := live.AdvanceRound(context.Background())
		want := fallback.AdvanceRound(context.Background())

		for i := range got {
			if got[i].QuoteID != "" {
				if got[i].Mentions != want[i].Mentions {
					t.Errorf("round %d: %s mentions = %d, want %d", round, got[i].Name, got[i].Mentions, want[i].Mentions)
				}
				continue
			}
			if !got[i].Price.Equal(want[i].Price) || got[i].Mentions != want[i].Mentions {
				t.Fatalf("round %d: %s live run %s/%d vs fallback run %s/%d",
					round, got[i].Name, got[i].Price, got[i].Mentions, want[i].Price, want[i].Mentions)
			}
		}
	}
}

// go test -v --run ^TestLiveQuote$
func TestLiveQuote(t *testing.T) {
	quotes := &fakeQuotes{price: decimal.RequireFromString("0.2")}
	sim, _ := NewSimulator(seedAssets(), DefaultParams(), newRand(1), WithQuoteSource(quotes, time.Second))

	p, err := sim.LiveQuote(context.Background(), "Dogecoin")
	if err != nil || !p.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("LiveQuote(Dogecoin) = %s, %v", p, err)
	}
	if _, err := sim.LiveQuote(context.Background(), "Wojak"); err == nil {
		t.Error("LiveQuote(Wojak) expected error, got nil")
	}
	if _, err := sim.LiveQuote(context.Background(), "Nyan Cat"); !errors.Is(err, ErrInvalidAsset) {
		t.Errorf("LiveQuote(unknown) error = %v, want ErrInvalidAsset", err)
	}
}
