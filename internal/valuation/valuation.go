// Package valuation derives the fair-value view of a correlated match: fair
// probabilities from the moneyline side, pool values and payout multipliers
// from the pool side, and the expected value of backing each side.
package valuation

import (
	"fmt"
	"time"

	"github.com/alanyoungcy/loungebot/internal/domain"
	"github.com/alanyoungcy/loungebot/internal/odds"
)

// CurrencyMode selects how a multi-currency pool is reduced to a single pair
// of reporting-currency values.
type CurrencyMode string

const (
	// ModeLargestBucket keeps only the currency bucket with the largest
	// combined pool size, treating minor-currency stakes as noise. This is
	// the historical behavior and the default.
	ModeLargestBucket CurrencyMode = "largest-bucket"

	// ModeSum converts every bucket at the fixed exchange rate and sums them.
	ModeSum CurrencyMode = "sum"
)

// DefaultRates is the fixed exchange-rate table into the reporting currency
// (USD). Stakes in currencies absent from the table are ignored.
// TODO: fetch rates from the exchange-rate endpoint on startup instead of
// hardcoding them.
var DefaultRates = map[string]float64{
	"USD": 1,
	"EUR": 1.09,
	"RUB": 0.011,
}

// Engine computes Valuations. It is stateless apart from its configuration
// and safe for concurrent use.
type Engine struct {
	rates map[string]float64
	mode  CurrencyMode
}

// NewEngine creates an Engine with the given exchange-rate table and currency
// reduction mode. Nil rates fall back to DefaultRates; an empty mode falls
// back to ModeLargestBucket.
func NewEngine(rates map[string]float64, mode CurrencyMode) *Engine {
	if rates == nil {
		rates = DefaultRates
	}
	if mode == "" {
		mode = ModeLargestBucket
	}
	return &Engine{rates: rates, mode: mode}
}

// ReducePools collapses a pool quote's per-currency stake totals into one
// pair of reporting-currency values according to the engine's CurrencyMode.
// A quote with no stakes reduces to (0, 0).
func (e *Engine) ReducePools(q domain.PoolQuote) (value1, value2 float64) {
	switch e.mode {
	case ModeSum:
		for code, totals := range q.Stakes {
			rate, ok := e.rates[code]
			if !ok {
				continue
			}
			value1 += totals.Side1 * rate
			value2 += totals.Side2 * rate
		}
		return value1, value2

	default: // ModeLargestBucket
		var best float64
		for code, totals := range q.Stakes {
			rate, ok := e.rates[code]
			if !ok {
				continue
			}
			combined := (totals.Side1 + totals.Side2) * rate
			if combined > best {
				best = combined
				value1 = totals.Side1 * rate
				value2 = totals.Side2 * rate
			}
		}
		return value1, value2
	}
}

// Valuate computes the full derived view of a correlated pair. Derived values
// are never persisted; callers recompute them from the stored raw sides.
func (e *Engine) Valuate(pair domain.MatchPair) (domain.Valuation, error) {
	fair1, fair2, err := odds.NormalizePair(pair.Moneyline.Line1, pair.Moneyline.Line2)
	if err != nil {
		return domain.Valuation{}, fmt.Errorf("valuation: match %d: %w", pair.ID(), err)
	}

	value1, value2 := e.ReducePools(pair.Pool)
	pool1, pool2, err := odds.PoolProbabilities(value1, value2)
	if err != nil {
		return domain.Valuation{}, fmt.Errorf("valuation: match %d: %w", pair.ID(), err)
	}

	mult1 := odds.Multiplier(pool1)
	mult2 := odds.Multiplier(pool2)

	ev := [2]float64{
		fair1*mult1 - 1,
		fair2*mult2 - 1,
	}

	// Strictly higher EV wins; a tie goes to side 1.
	best := 0
	if ev[1] >= ev[0] {
		best = 1
	}

	return domain.Valuation{
		MatchID:    pair.ID(),
		Team1:      pair.Pool.Team1,
		Team2:      pair.Pool.Team2,
		StartTime:  pair.Pool.StartTime,
		Status:     pair.Pool.Status,
		FairProb:   [2]float64{fair1, fair2},
		PoolProb:   [2]float64{pool1, pool2},
		PoolValue:  [2]float64{value1, value2},
		Multiplier: [2]float64{mult1, mult2},
		EV:         ev,
		BestSide:   best,
		ComputedAt: time.Now().UTC(),
	}, nil
}
