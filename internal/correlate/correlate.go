// Package correlate pairs records of the same real-world match across the two
// feeds. Records carry no shared identifier, so pairing relies on team
// identity (after alias canonicalization) and nearest start time.
package correlate

import (
	"log/slog"
	"strings"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

// Correlator pairs moneyline-feed records against pool-feed records.
type Correlator struct {
	aliases map[string]string
	logger  *slog.Logger
}

// New creates a Correlator. A nil aliases map falls back to the built-in
// table.
func New(aliases map[string]string, logger *slog.Logger) *Correlator {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Correlator{
		aliases: aliases,
		logger:  logger.With(slog.String("component", "correlator")),
	}
}

// Correlate matches every moneyline record against the pool records and
// returns the paired set plus the moneyline records that found no partner.
//
// Each moneyline record is matched independently: a matched pool record is
// NOT removed from consideration for subsequent moneyline records, so one
// pool record can be claimed more than once (e.g. duplicate listings on the
// moneyline side). Whether that fan-out is intended is an open question;
// until it is settled the behavior is kept and only logged.
func (c *Correlator) Correlate(mlQuotes []domain.MoneylineQuote, poolQuotes []domain.PoolQuote) (pairs []domain.MatchPair, unpaired []domain.MoneylineQuote) {
	canonical := c.canonicalizePool(poolQuotes)

	claims := make(map[int64]int, len(canonical))
	for _, mq := range mlQuotes {
		mq.Team1 = Canonicalize(c.aliases, mq.Team1)
		mq.Team2 = Canonicalize(c.aliases, mq.Team2)

		matched, pq := c.closest(mq, canonical)
		if !matched {
			// Feeds sometimes list competitors in opposite order; retry with
			// teams and prices swapped.
			mq = mq.Reversed()
			matched, pq = c.closest(mq, canonical)
		}
		if !matched {
			unpaired = append(unpaired, mq)
			continue
		}

		claims[pq.ID]++
		pairs = append(pairs, domain.MatchPair{Moneyline: mq, Pool: pq})
	}

	for id, n := range claims {
		if n > 1 {
			c.logger.Debug("pool record claimed by multiple moneyline records",
				slog.Int64("pool_id", id),
				slog.Int("claims", n),
			)
		}
	}

	return pairs, unpaired
}

// closest scans all pool quotes for the one minimizing the absolute start
// time difference among those whose teams match mq's in the same order.
// Equal deltas resolve to the first-encountered candidate.
func (c *Correlator) closest(mq domain.MoneylineQuote, poolQuotes []domain.PoolQuote) (bool, domain.PoolQuote) {
	var (
		found     bool
		best      domain.PoolQuote
		leastDiff int64
	)

	for _, pq := range poolQuotes {
		if !strings.EqualFold(pq.Team1, mq.Team1) || !strings.EqualFold(pq.Team2, mq.Team2) {
			continue
		}
		diff := pq.StartTime - mq.StartTime
		if diff < 0 {
			diff = -diff
		}
		if !found || diff < leastDiff {
			found = true
			leastDiff = diff
			best = pq
		}
	}

	return found, best
}

// canonicalizePool returns copies of the pool quotes with team names resolved
// through the alias table so comparisons and the resulting pairs use one
// naming authority.
func (c *Correlator) canonicalizePool(poolQuotes []domain.PoolQuote) []domain.PoolQuote {
	out := make([]domain.PoolQuote, len(poolQuotes))
	for i, pq := range poolQuotes {
		pq.Team1 = Canonicalize(c.aliases, pq.Team1)
		pq.Team2 = Canonicalize(c.aliases, pq.Team2)
		out[i] = pq
	}
	return out
}
