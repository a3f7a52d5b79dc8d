package strategy

import (
	"math"
	"testing"

	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/money"
)

func TestMetricsRecordTracksCounts(t *testing.T) {
	m := newMetrics()
	bet := money.MustFromString("0.001")
	m.record(game.BetResult{Won: true, Bet: bet, Payout: bet})
	m.record(game.BetResult{Won: false, Bet: bet, Payout: bet.Neg()})

	if m.TotalBets != 2 || m.Wins != 1 || m.Losses != 1 {
		t.Fatalf("got totals %+v", m)
	}
	if m.MaxBetSeen.Cmp(bet) != 0 {
		t.Fatalf("expected MaxBetSeen %s, got %s", bet, m.MaxBetSeen)
	}
}

func TestComputeFitnessDegenerateCaseUsesEpsilon(t *testing.T) {
	f := computeFitness([]float64{0.5})
	want := 0.5 / fitnessEpsilon
	if math.Abs(f-want) > 1e-6 {
		t.Fatalf("got %f, want %f", f, want)
	}
}

func TestComputeFitnessEmptyIsZero(t *testing.T) {
	if f := computeFitness(nil); f != 0 {
		t.Fatalf("expected 0 for no returns, got %f", f)
	}
}

func TestDriftConfidenceDecaysOnLosingStreak(t *testing.T) {
	m := newMetrics()
	gs := newGS()
	for i := 0; i < 3; i++ {
		gs.Update(lossResult(money.MustFromString("0.001")))
	}
	m.driftConfidence(gs)

	want := math.Pow(0.95, 3)
	if math.Abs(m.Confidence-want) > 1e-9 {
		t.Fatalf("got confidence %f, want %f", m.Confidence, want)
	}
}

func TestDriftConfidenceGrowsOnWinningStreakButCapsAtOne(t *testing.T) {
	m := newMetrics()
	gs := newGS()
	gs.Update(winResult(money.MustFromString("0.001")))
	m.driftConfidence(gs)

	if m.Confidence != 1.0 {
		t.Fatalf("expected confidence to stay capped at 1.0, got %f", m.Confidence)
	}
}

func TestDriftConfidenceAppliesDrawdownPenalty(t *testing.T) {
	m := newMetrics()
	m.Confidence = 1.0
	gs := newGS()
	gs.CurrentDrawdown = 0.5

	m.driftConfidence(gs)

	if math.Abs(m.Confidence-0.9) > 1e-9 {
		t.Fatalf("expected a 0.9x drawdown penalty, got %f", m.Confidence)
	}
}

func TestDriftConfidenceNeverDropsBelowFloor(t *testing.T) {
	m := newMetrics()
	m.Confidence = 0.11
	gs := newGS()
	for i := 0; i < 50; i++ {
		gs.Update(lossResult(money.MustFromString("0.001")))
	}
	m.driftConfidence(gs)

	if m.Confidence < 0.1 {
		t.Fatalf("confidence dropped below the floor: %f", m.Confidence)
	}
}
