package policy

import (
	"testing"
	"time"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

var testCfg = Config{MinEV: 0.2, MinPool: 10, Stake: 1}

// valuationWith builds a liquid valuation favoring the given side by evBest.
func valuationWith(bestSide int, evBest, evOther float64) domain.Valuation {
	v := domain.Valuation{
		MatchID:    1,
		PoolValue:  [2]float64{100, 100},
		Multiplier: [2]float64{2, 2},
		BestSide:   bestSide,
	}
	v.EV[bestSide] = evBest
	v.EV[1-bestSide] = evOther
	return v
}

func TestDecide_NoPositionBelowThreshold(t *testing.T) {
	v := valuationWith(1, 0.1, -0.2)

	action := Decide(v, nil, testCfg)
	if action.Kind != domain.ActionNoOp {
		t.Errorf("expected no-op, got %s", action.Kind)
	}
}

func TestDecide_NoPositionAboveThreshold(t *testing.T) {
	v := valuationWith(1, 0.35, -0.2)

	action := Decide(v, nil, testCfg)
	if action.Kind != domain.ActionOpen {
		t.Fatalf("expected open, got %s", action.Kind)
	}
	if action.Side != 1 {
		t.Errorf("expected side 1, got %d", action.Side)
	}
	if action.Amount != testCfg.Stake {
		t.Errorf("expected stake %f, got %f", testCfg.Stake, action.Amount)
	}
}

func TestDecide_PoolFloorAppliesToBothSides(t *testing.T) {
	// High EV but the opposite pool is below the floor: an illiquid market
	// must not be acted on.
	v := valuationWith(1, 0.5, -0.3)
	v.PoolValue = [2]float64{5, 100}

	action := Decide(v, nil, testCfg)
	if action.Kind != domain.ActionNoOp {
		t.Errorf("expected no-op on illiquid market, got %s", action.Kind)
	}
}

func TestDecide_ClosesWhenThresholdsNoLongerMet(t *testing.T) {
	v := valuationWith(1, 0.05, -0.2)
	pos := &domain.Position{MatchID: 1, Side: 1, Amount: 1, TimePlaced: time.Now()}

	action := Decide(v, pos, testCfg)
	if action.Kind != domain.ActionClose {
		t.Errorf("expected close, got %s", action.Kind)
	}
}

func TestDecide_ClosesWhenPoolDropsBelowFloor(t *testing.T) {
	v := valuationWith(0, 0.4, -0.1)
	v.PoolValue = [2]float64{100, 8}
	pos := &domain.Position{MatchID: 1, Side: 0, Amount: 1}

	action := Decide(v, pos, testCfg)
	if action.Kind != domain.ActionClose {
		t.Errorf("expected close, got %s", action.Kind)
	}
}

func TestDecide_ReplacesWhenMarketFlipsSides(t *testing.T) {
	v := valuationWith(1, 0.4, -0.1)
	pos := &domain.Position{MatchID: 1, Side: 0, Amount: 1}

	action := Decide(v, pos, testCfg)
	if action.Kind != domain.ActionReplace {
		t.Fatalf("expected replace, got %s", action.Kind)
	}
	if action.Side != 1 {
		t.Errorf("expected replacement on side 1, got %d", action.Side)
	}
}

func TestDecide_ReplacesWhenStakeChanges(t *testing.T) {
	v := valuationWith(1, 0.4, -0.1)
	pos := &domain.Position{MatchID: 1, Side: 1, Amount: 5}

	action := Decide(v, pos, testCfg)
	if action.Kind != domain.ActionReplace {
		t.Errorf("expected replace on stake change, got %s", action.Kind)
	}
}

func TestDecide_HoldsMatchingPosition(t *testing.T) {
	v := valuationWith(1, 0.4, -0.1)
	pos := &domain.Position{MatchID: 1, Side: 1, Amount: 1}

	action := Decide(v, pos, testCfg)
	if action.Kind != domain.ActionNoOp {
		t.Errorf("expected no-op for a still-valid position, got %s", action.Kind)
	}
}

func TestDecide_DegenerateMarketNeverActionable(t *testing.T) {
	v := domain.Valuation{
		MatchID:   1,
		EV:        [2]float64{5, 5}, // nonsense EV that a 0 multiplier would never produce; Decide must ignore it
		PoolValue: [2]float64{100, 100},
	}

	if action := Decide(v, nil, testCfg); action.Kind != domain.ActionNoOp {
		t.Errorf("expected no-op for degenerate market, got %s", action.Kind)
	}

	pos := &domain.Position{MatchID: 1, Side: 0, Amount: 1}
	if action := Decide(v, pos, testCfg); action.Kind != domain.ActionClose {
		t.Errorf("expected close for degenerate market with position, got %s", action.Kind)
	}
}
