package valuation

import (
	"math"
	"testing"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

func usdPair(line1, line2, pool1, pool2 float64) domain.MatchPair {
	return domain.MatchPair{
		Moneyline: domain.MoneylineQuote{
			StartTime: 1000, Team1: "A", Team2: "B",
			Line1: line1, Line2: line2,
		},
		Pool: domain.PoolQuote{
			ID: 42, StartTime: 1005, Team1: "A", Team2: "B",
			Stakes: map[string]domain.StakeTotals{
				"USD": {Side1: pool1, Side2: pool2},
			},
		},
	}
}

func TestValuate_KnownNumbers(t *testing.T) {
	// Moneylines (-175, +135) normalize to ≈ (0.599, 0.401); pool
	// ($1000, $1200) gives multiplier1 ≈ 2.2, so EV1 ≈ 0.599*2.2-1 ≈ 0.318.
	engine := NewEngine(nil, ModeLargestBucket)

	v, err := engine.Valuate(usdPair(-175, 135, 1000, 1200))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(v.FairProb[0]-0.599) > 0.001 {
		t.Errorf("expected fair prob ≈ 0.599, got %f", v.FairProb[0])
	}
	if math.Abs(v.Multiplier[0]-2.2) > 0.001 {
		t.Errorf("expected multiplier ≈ 2.2, got %f", v.Multiplier[0])
	}
	if math.Abs(v.EV[0]-0.318) > 0.001 {
		t.Errorf("expected EV ≈ 0.318, got %f", v.EV[0])
	}
	if v.BestSide != 0 {
		t.Errorf("expected best side 0, got %d", v.BestSide)
	}
}

func TestValuate_DegeneratePool(t *testing.T) {
	engine := NewEngine(nil, ModeLargestBucket)

	v, err := engine.Valuate(usdPair(-175, 135, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !v.Degenerate() {
		t.Error("expected zero-pool valuation to be degenerate")
	}
	if v.Multiplier[0] != 0 || v.Multiplier[1] != 0 {
		t.Errorf("expected multipliers 0, got (%f, %f)", v.Multiplier[0], v.Multiplier[1])
	}
}

func TestValuate_TieGoesToSideOne(t *testing.T) {
	// Symmetric market: identical lines and equal pools produce equal EV.
	engine := NewEngine(nil, ModeLargestBucket)

	v, err := engine.Valuate(usdPair(-110, -110, 500, 500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.EV[0] != v.EV[1] {
		t.Fatalf("expected equal EV, got (%f, %f)", v.EV[0], v.EV[1])
	}
	if v.BestSide != 1 {
		t.Errorf("expected tie to pick side 1, got %d", v.BestSide)
	}
}

func multiCurrencyQuote() domain.PoolQuote {
	return domain.PoolQuote{
		ID: 1,
		Stakes: map[string]domain.StakeTotals{
			"USD": {Side1: 1000, Side2: 1200},
			"EUR": {Side1: 100, Side2: 50},
			"RUB": {Side1: 90000, Side2: 10000},
			"GBP": {Side1: 5000, Side2: 5000}, // not in the rate table
		},
	}
}

func TestReducePools_LargestBucket(t *testing.T) {
	// USD bucket: $2200 combined; EUR: $163.5; RUB: $1100. GBP has no rate
	// and is ignored. Largest-bucket mode keeps USD only.
	engine := NewEngine(nil, ModeLargestBucket)

	v1, v2 := engine.ReducePools(multiCurrencyQuote())
	if v1 != 1000 || v2 != 1200 {
		t.Errorf("expected USD bucket (1000, 1200), got (%f, %f)", v1, v2)
	}
}

func TestReducePools_SumConverted(t *testing.T) {
	engine := NewEngine(nil, ModeSum)

	v1, v2 := engine.ReducePools(multiCurrencyQuote())

	want1 := 1000.0 + 100*1.09 + 90000*0.011
	want2 := 1200.0 + 50*1.09 + 10000*0.011
	if math.Abs(v1-want1) > 1e-9 {
		t.Errorf("expected summed side1 %f, got %f", want1, v1)
	}
	if math.Abs(v2-want2) > 1e-9 {
		t.Errorf("expected summed side2 %f, got %f", want2, v2)
	}
}

func TestReducePools_NoStakes(t *testing.T) {
	engine := NewEngine(nil, ModeLargestBucket)

	v1, v2 := engine.ReducePools(domain.PoolQuote{ID: 1})
	if v1 != 0 || v2 != 0 {
		t.Errorf("expected empty quote to reduce to (0, 0), got (%f, %f)", v1, v2)
	}
}
