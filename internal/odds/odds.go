// Package odds converts raw feed prices into comparable probabilities. Two
// quoting conventions are supported: fixed American moneylines (as quoted by
// the moneyline feed) and pari-mutuel pool shares (as quoted by the pool
// feed). All probabilities returned for a pair sum to exactly 1, except the
// documented degenerate zero-pool case.
package odds

import "fmt"

// EvenLine is the positive price an "even money" sentinel parses to.
const EvenLine = 100

// ImpliedProbability converts one side's American moneyline to its raw
// implied probability. A positive line is the payout per 100 staked on an
// underdog, a negative line the stake per 100 won on a favorite. The result
// carries the bookmaker's margin: the two sides of a market generally sum to
// more than 1 and must be normalized together via NormalizePair.
func ImpliedProbability(line float64) (float64, error) {
	if line == 0 {
		return 0, fmt.Errorf("odds: moneyline cannot be 0")
	}
	if line > 0 {
		return 100 / (line + 100), nil
	}
	return -line / (-line + 100), nil
}

// NormalizePair converts a two-sided moneyline market into fair probabilities
// with the margin removed: each side's raw implied probability divided by
// their sum. The results sum to 1.
func NormalizePair(line1, line2 float64) (p1, p2 float64, err error) {
	raw1, err := ImpliedProbability(line1)
	if err != nil {
		return 0, 0, err
	}
	raw2, err := ImpliedProbability(line2)
	if err != nil {
		return 0, 0, err
	}

	total := raw1 + raw2
	return raw1 / total, raw2 / total, nil
}

// PoolProbabilities converts a pair of pool stake totals into pool-share
// probabilities. An empty pool (total 0) is a defined degenerate state: both
// probabilities are 0 and callers must treat the market as unactionable
// rather than dividing by zero. A negative stake total is a data error.
func PoolProbabilities(value1, value2 float64) (p1, p2 float64, err error) {
	if value1 < 0 || value2 < 0 {
		return 0, 0, fmt.Errorf("odds: negative pool value (%v, %v)", value1, value2)
	}

	total := value1 + value2
	if total == 0 {
		return 0, 0, nil
	}
	return value1 / total, value2 / total, nil
}

// Multiplier returns the payout per unit staked on a side with the given
// pool-share probability, or 0 when the probability is 0 (degenerate pool).
// A 0 multiplier means "do not act", never a valid payout.
func Multiplier(prob float64) float64 {
	if prob == 0 {
		return 0
	}
	return 1 / prob
}
