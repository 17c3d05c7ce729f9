package notify

import (
	"fmt"
	"time"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

// Event types emitted by the pipeline and reconciler. Operators filter on
// these via the notify.events config list.
const (
	EventHighEV         = "high_ev"
	EventWagerPlaced    = "wager_placed"
	EventWagerCancelled = "wager_cancelled"
	EventWagerReplaced  = "wager_replaced"
	EventCycleError     = "cycle_error"
)

// FormatValuation renders a valuation as a notification body.
func FormatValuation(v domain.Valuation) string {
	start := time.Unix(v.StartTime, 0).UTC().Format("Mon Jan 2 15:04 MST")
	return fmt.Sprintf(
		"%s vs %s at %s (match %d)\n"+
			"pool: $%.2f / $%.2f\n"+
			"fair: %.1f%% / %.1f%%  pool: %.1f%% / %.1f%%\n"+
			"payout: %.2fx / %.2fx\n"+
			"EV: %+.3f / %+.3f  best side: %s",
		v.Team1, v.Team2, start, v.MatchID,
		v.PoolValue[0], v.PoolValue[1],
		v.FairProb[0]*100, v.FairProb[1]*100,
		v.PoolProb[0]*100, v.PoolProb[1]*100,
		v.Multiplier[0], v.Multiplier[1],
		v.EV[0], v.EV[1],
		sideName(v, v.BestSide),
	)
}

// FormatAction renders a reconciliation action for a notification body.
func FormatAction(v domain.Valuation, action domain.Action) string {
	switch action.Kind {
	case domain.ActionOpen:
		return fmt.Sprintf("opening $%.2f on %s (match %d)",
			action.Amount, sideName(v, action.Side), v.MatchID)
	case domain.ActionClose:
		return fmt.Sprintf("closing wager on match %d", v.MatchID)
	case domain.ActionReplace:
		return fmt.Sprintf("replacing wager on match %d: $%.2f on %s",
			v.MatchID, action.Amount, sideName(v, action.Side))
	default:
		return fmt.Sprintf("no action on match %d", v.MatchID)
	}
}

func sideName(v domain.Valuation, side int) string {
	if side == 1 {
		return v.Team2
	}
	return v.Team1
}
