package odds

import (
	"math"
	"testing"
)

func TestImpliedProbability_KnownLines(t *testing.T) {
	// -175 favorite: 175/275 ≈ 0.6364, +135 underdog: 100/235 ≈ 0.4255
	fav, err := ImpliedProbability(-175)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(fav-0.6364) > 0.0001 {
		t.Errorf("expected favorite prob ≈ 0.6364, got %f", fav)
	}

	dog, err := ImpliedProbability(135)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(dog-0.4255) > 0.0001 {
		t.Errorf("expected underdog prob ≈ 0.4255, got %f", dog)
	}
}

func TestImpliedProbability_EvenLine(t *testing.T) {
	p, err := ImpliedProbability(EvenLine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != 0.5 {
		t.Errorf("expected even money to imply 0.5, got %f", p)
	}
}

func TestImpliedProbability_ZeroLineIsError(t *testing.T) {
	if _, err := ImpliedProbability(0); err == nil {
		t.Error("expected error for zero moneyline")
	}
}

func TestNormalizePair_SumsToOne(t *testing.T) {
	pairs := [][2]float64{
		{-175, 135},
		{-110, -110},
		{250, -300},
		{EvenLine, EvenLine},
		{-10000, 5000},
	}
	for _, pair := range pairs {
		p1, p2, err := NormalizePair(pair[0], pair[1])
		if err != nil {
			t.Fatalf("NormalizePair(%v, %v): %v", pair[0], pair[1], err)
		}
		if math.Abs(p1+p2-1.0) > 1e-12 {
			t.Errorf("NormalizePair(%v, %v): probabilities sum to %f, want 1",
				pair[0], pair[1], p1+p2)
		}
	}
}

func TestNormalizePair_RemovesMargin(t *testing.T) {
	// Raw implied ≈ (0.6364, 0.4255); normalized ≈ (0.599, 0.401).
	p1, p2, err := NormalizePair(-175, 135)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(p1-0.599) > 0.001 {
		t.Errorf("expected normalized p1 ≈ 0.599, got %f", p1)
	}
	if math.Abs(p2-0.401) > 0.001 {
		t.Errorf("expected normalized p2 ≈ 0.401, got %f", p2)
	}
}

func TestPoolProbabilities_SumsToOne(t *testing.T) {
	// $1000 vs $1200: odds ≈ (0.4545, 0.5455).
	p1, p2, err := PoolProbabilities(1000, 1200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(p1-0.4545) > 0.0001 {
		t.Errorf("expected p1 ≈ 0.4545, got %f", p1)
	}
	if math.Abs(p2-0.5455) > 0.0001 {
		t.Errorf("expected p2 ≈ 0.5455, got %f", p2)
	}
	if math.Abs(p1+p2-1.0) > 1e-12 {
		t.Errorf("probabilities sum to %f, want 1", p1+p2)
	}
}

func TestPoolProbabilities_EmptyPool(t *testing.T) {
	p1, p2, err := PoolProbabilities(0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p1 != 0 || p2 != 0 {
		t.Errorf("expected degenerate pool to yield (0, 0), got (%f, %f)", p1, p2)
	}
}

func TestPoolProbabilities_NegativeValueIsError(t *testing.T) {
	if _, _, err := PoolProbabilities(-1, 100); err == nil {
		t.Error("expected error for negative pool value")
	}
}

func TestMultiplier(t *testing.T) {
	// Pool (1000, 1200) → multiplier1 ≈ 2.2000.
	p1, _, err := PoolProbabilities(1000, 1200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m := Multiplier(p1); math.Abs(m-2.2) > 0.0001 {
		t.Errorf("expected multiplier ≈ 2.2, got %f", m)
	}

	if m := Multiplier(0); m != 0 {
		t.Errorf("expected degenerate multiplier 0, got %f", m)
	}
}
