package correlate

import (
	"io"
	"log/slog"
	"testing"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

func testCorrelator() *Correlator {
	return New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCorrelate_DirectMatch(t *testing.T) {
	ml := []domain.MoneylineQuote{
		{StartTime: 1000, Team1: "Astralis", Team2: "Heroic", Line1: -175, Line2: 135},
	}
	pool := []domain.PoolQuote{
		{ID: 7, StartTime: 1005, Team1: "Astralis", Team2: "Heroic"},
	}

	pairs, unpaired := testCorrelator().Correlate(ml, pool)

	if len(unpaired) != 0 {
		t.Fatalf("expected no unpaired records, got %d", len(unpaired))
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Pool.ID != 7 {
		t.Errorf("expected pool id 7, got %d", pairs[0].Pool.ID)
	}
	if pairs[0].Moneyline.Line1 != -175 {
		t.Errorf("expected moneyline order preserved, got line1 %f", pairs[0].Moneyline.Line1)
	}
}

func TestCorrelate_ReversedTeamOrder(t *testing.T) {
	// Feed A lists X vs Y, feed B lists Y vs X: the reversal retry must pair
	// them, preserving feed B's team order with correspondingly swapped prices.
	ml := []domain.MoneylineQuote{
		{StartTime: 1000, Team1: "X", Team2: "Y", Line1: -175, Line2: 135},
	}
	pool := []domain.PoolQuote{
		{ID: 3, StartTime: 1005, Team1: "Y", Team2: "X"},
	}

	pairs, unpaired := testCorrelator().Correlate(ml, pool)

	if len(unpaired) != 0 {
		t.Fatalf("expected no unpaired records, got %d", len(unpaired))
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}

	p := pairs[0]
	if p.Pool.Team1 != "Y" || p.Pool.Team2 != "X" {
		t.Errorf("expected pool team order preserved, got %s vs %s", p.Pool.Team1, p.Pool.Team2)
	}
	if p.Moneyline.Team1 != "Y" || p.Moneyline.Team2 != "X" {
		t.Errorf("expected moneyline teams swapped, got %s vs %s", p.Moneyline.Team1, p.Moneyline.Team2)
	}
	if p.Moneyline.Line1 != 135 || p.Moneyline.Line2 != -175 {
		t.Errorf("expected prices swapped with teams, got (%f, %f)", p.Moneyline.Line1, p.Moneyline.Line2)
	}
}

func TestCorrelate_NearestTimeWins(t *testing.T) {
	ml := []domain.MoneylineQuote{
		{StartTime: 1000, Team1: "A", Team2: "B"},
	}
	pool := []domain.PoolQuote{
		{ID: 1, StartTime: 2000, Team1: "A", Team2: "B"},
		{ID: 2, StartTime: 1010, Team1: "A", Team2: "B"},
		{ID: 3, StartTime: 1500, Team1: "A", Team2: "B"},
	}

	pairs, _ := testCorrelator().Correlate(ml, pool)

	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Pool.ID != 2 {
		t.Errorf("expected nearest-time pool record (id 2), got %d", pairs[0].Pool.ID)
	}
}

func TestCorrelate_TieBreaksToFirstEncountered(t *testing.T) {
	ml := []domain.MoneylineQuote{
		{StartTime: 1000, Team1: "A", Team2: "B"},
	}
	pool := []domain.PoolQuote{
		{ID: 1, StartTime: 990, Team1: "A", Team2: "B"},
		{ID: 2, StartTime: 1010, Team1: "A", Team2: "B"},
	}

	pairs, _ := testCorrelator().Correlate(ml, pool)

	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Pool.ID != 1 {
		t.Errorf("expected tie to resolve to first-encountered record, got %d", pairs[0].Pool.ID)
	}
}

func TestCorrelate_UnpairedWhenNoTeamsMatch(t *testing.T) {
	ml := []domain.MoneylineQuote{
		{StartTime: 1000, Team1: "A", Team2: "B"},
	}
	pool := []domain.PoolQuote{
		{ID: 1, StartTime: 1000, Team1: "C", Team2: "D"},
	}

	pairs, unpaired := testCorrelator().Correlate(ml, pool)

	if len(pairs) != 0 {
		t.Fatalf("expected no pairs, got %d", len(pairs))
	}
	if len(unpaired) != 1 {
		t.Fatalf("expected 1 unpaired record, got %d", len(unpaired))
	}
}

func TestCorrelate_AliasCanonicalization(t *testing.T) {
	// Pool feed says "Liquid", moneyline feed says "Team Liquid": the alias
	// table unifies them and the pair carries the canonical name.
	ml := []domain.MoneylineQuote{
		{StartTime: 1000, Team1: "Team Liquid", Team2: "Astralis"},
	}
	pool := []domain.PoolQuote{
		{ID: 9, StartTime: 1000, Team1: "Liquid", Team2: "Astralis"},
	}

	pairs, _ := testCorrelator().Correlate(ml, pool)

	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Pool.Team1 != "Team Liquid" {
		t.Errorf("expected canonical team name, got %q", pairs[0].Pool.Team1)
	}
}

func TestCorrelate_NonExclusivePairing(t *testing.T) {
	// Two moneyline records may claim the same pool record; that behavior is
	// deliberate until the fan-out question is settled.
	ml := []domain.MoneylineQuote{
		{StartTime: 1000, Team1: "A", Team2: "B"},
		{StartTime: 1020, Team1: "A", Team2: "B"},
	}
	pool := []domain.PoolQuote{
		{ID: 5, StartTime: 1010, Team1: "A", Team2: "B"},
	}

	pairs, unpaired := testCorrelator().Correlate(ml, pool)

	if len(unpaired) != 0 {
		t.Fatalf("expected no unpaired records, got %d", len(unpaired))
	}
	if len(pairs) != 2 {
		t.Fatalf("expected both moneyline records to pair, got %d", len(pairs))
	}
	if pairs[0].Pool.ID != 5 || pairs[1].Pool.ID != 5 {
		t.Errorf("expected both pairs to claim pool id 5")
	}
}

func TestCanonicalize_TrimsUnmappedNames(t *testing.T) {
	got := Canonicalize(DefaultAliases(), "  Unknown Team  ")
	if got != "Unknown Team" {
		t.Errorf("expected trimmed passthrough, got %q", got)
	}
}
