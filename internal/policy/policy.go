// Package policy holds the reconciliation decision function: given the
// current valuation of a match and any outstanding position on it, decide
// whether to do nothing, open, close, or replace the position. The function
// is pure; executing the decision is the pipeline's job.
package policy

import "github.com/alanyoungcy/loungebot/internal/domain"

// Config holds the actionability thresholds.
type Config struct {
	// MinEV is the minimum expected value (0.2 = 20%) the better side must
	// strictly exceed before a position is worth holding.
	MinEV float64

	// MinPool is the per-side pool floor in reporting-currency units. BOTH
	// sides must clear it, not just the side being bet on — a thin opposite
	// pool means the market is too illiquid to trust.
	MinPool float64

	// Stake is the fixed amount wagered when opening a position.
	Stake float64
}

// Decide maps (valuation, outstanding position) to one action. pos is nil
// when no position is outstanding for the match.
func Decide(v domain.Valuation, pos *domain.Position, cfg Config) domain.Action {
	worthHolding := actionable(v, cfg)

	if pos == nil {
		if !worthHolding {
			return domain.Action{Kind: domain.ActionNoOp}
		}
		return domain.Action{Kind: domain.ActionOpen, Side: v.BestSide, Amount: cfg.Stake}
	}

	if !worthHolding {
		return domain.Action{Kind: domain.ActionClose}
	}

	if pos.Side != v.BestSide || pos.Amount != cfg.Stake {
		return domain.Action{Kind: domain.ActionReplace, Side: v.BestSide, Amount: cfg.Stake}
	}

	return domain.Action{Kind: domain.ActionNoOp}
}

// actionable reports whether the valuation clears every threshold. A
// degenerate (zero-pool) market is never actionable: its 0 multipliers are a
// no-data marker, not a price.
func actionable(v domain.Valuation, cfg Config) bool {
	if v.Degenerate() {
		return false
	}
	if v.EV[0] <= cfg.MinEV && v.EV[1] <= cfg.MinEV {
		return false
	}
	return v.PoolValue[0] > cfg.MinPool && v.PoolValue[1] > cfg.MinPool
}
