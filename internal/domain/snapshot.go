package domain

import "time"

// Snapshot is the persisted projection of a correlated match at a point in
// time. Exactly one Snapshot per ID is current; every prior version lives in
// the archive. Derived values (odds, multipliers, EV) are never persisted —
// they are recomputed from the raw sides so they can never go stale.
type Snapshot struct {
	ID            int64       `json:"id"`
	PoolStartTime int64       `json:"pool_start_time"`
	MLStartTime   int64       `json:"ml_start_time"`
	Status        MatchStatus `json:"status"`
	Team1         string      `json:"team1"`
	Team2         string      `json:"team2"`
	PoolValue1    float64     `json:"pool_value1"`
	PoolValue2    float64     `json:"pool_value2"`
	Moneyline1    float64     `json:"moneyline1"`
	Moneyline2    float64     `json:"moneyline2"`
	LastUpdated   time.Time   `json:"last_updated"`
}

// Pair reconstructs the raw two-sided record a Snapshot was built from, so
// callers can run it back through the valuation engine. Multi-currency detail
// is gone by this point: pool values are already in the reporting currency.
func (s Snapshot) Pair() MatchPair {
	return MatchPair{
		Moneyline: MoneylineQuote{
			StartTime: s.MLStartTime,
			Team1:     s.Team1,
			Team2:     s.Team2,
			Line1:     s.Moneyline1,
			Line2:     s.Moneyline2,
		},
		Pool: PoolQuote{
			ID:        s.ID,
			StartTime: s.PoolStartTime,
			Status:    s.Status,
			Team1:     s.Team1,
			Team2:     s.Team2,
			Stakes:    map[string]StakeTotals{"USD": {Side1: s.PoolValue1, Side2: s.PoolValue2}},
		},
	}
}

// ArchiveEntry is an immutable copy of a Snapshot taken immediately before it
// was overwritten, keyed by (ID, LastUpdated).
type ArchiveEntry struct {
	Snapshot
}
