package domain

import "time"

// Valuation is the full derived view of one correlated match. All fields are
// recomputed on demand; none are ever written to the store.
type Valuation struct {
	MatchID    int64      `json:"match_id"`
	Team1      string     `json:"team1"`
	Team2      string     `json:"team2"`
	StartTime  int64      `json:"start_time"` // pool feed start, unix seconds
	Status     MatchStatus `json:"status"`
	FairProb   [2]float64 `json:"fair_prob"`   // from the moneyline side, margin removed
	PoolProb   [2]float64 `json:"pool_prob"`   // pool-share probabilities
	PoolValue  [2]float64 `json:"pool_value"`  // reporting-currency stake totals
	Multiplier [2]float64 `json:"multiplier"`  // payout per unit staked, 0 when degenerate
	EV         [2]float64 `json:"ev"`          // fair_prob*multiplier - 1
	BestSide   int        `json:"best_side"`   // argmax EV; ties go to side 1
	ComputedAt time.Time  `json:"computed_at"`
}

// Degenerate reports whether the pool had no money on it, in which case the
// multipliers are 0 and the valuation must not be acted on.
func (v Valuation) Degenerate() bool {
	return v.Multiplier[0] == 0 || v.Multiplier[1] == 0
}
