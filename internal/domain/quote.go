// Package domain defines the core data model for loungebot: raw feed quotes,
// correlated matches, persisted snapshots, positions, and the store and cache
// interfaces implemented by the infrastructure packages.
package domain

// MatchStatus is the lifecycle status code reported by the pool feed.
type MatchStatus int

const (
	StatusUpcoming MatchStatus = 0
	StatusLive     MatchStatus = 1
	StatusFinished MatchStatus = 2
	StatusClosed   MatchStatus = 3
)

// MoneylineQuote is one fixed-price (American moneyline) record from the
// moneyline feed. It is ephemeral: it exists only during a correlation pass.
type MoneylineQuote struct {
	StartTime int64 // unix seconds
	Team1     string
	Team2     string
	Line1     float64 // signed American price for Team1; "even" parses to +100
	Line2     float64
}

// Reversed returns a copy with teams and prices swapped. The correlator uses
// this to retry pairing when the two feeds list competitors in opposite order.
func (q MoneylineQuote) Reversed() MoneylineQuote {
	return MoneylineQuote{
		StartTime: q.StartTime,
		Team1:     q.Team2,
		Team2:     q.Team1,
		Line1:     q.Line2,
		Line2:     q.Line1,
	}
}

// StakeTotals holds one currency bucket of a pool quote: the per-side stake
// totals in that currency's units.
type StakeTotals struct {
	Side1 float64
	Side2 float64
}

// PoolQuote is one pari-mutuel record from the pool feed. Stakes may be split
// across currencies; the valuation engine reduces Stakes to a single pair of
// pool values in the reporting currency.
type PoolQuote struct {
	ID        int64 // pool feed's native event id, anchors identity
	StartTime int64 // unix seconds
	Status    MatchStatus
	Team1     string
	Team2     string
	Stakes    map[string]StakeTotals // keyed by ISO currency code
}

// MatchPair is a correlated event: one record from each feed referring to the
// same real-world match. Team naming follows the pool feed's order; the
// moneyline quote is stored pre-swapped when pairing succeeded via reversal.
type MatchPair struct {
	Moneyline MoneylineQuote
	Pool      PoolQuote
}

// ID returns the stable identifier of the pair, taken from the pool feed
// because that is the side actually accepting money.
func (p MatchPair) ID() int64 { return p.Pool.ID }
