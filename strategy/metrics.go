package strategy

import (
	"math"

	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
	"github.com/dicelab/fairsim/money"
)

// fitnessEpsilon keeps FitnessScore finite when a strategy's returns
// have not yet shown any variance.
const fitnessEpsilon = 1e-9

// Metrics is the framework-maintained telemetry every strategy accrues
// automatically; concrete strategies never write to it directly.
type Metrics struct {
	TotalBets       int
	Wins            int
	Losses          int
	MaxBetSeen      money.Money
	CurrentDrawdown float64
	FitnessScore    float64
	Confidence      float64

	returns []float64 // per-bet payout/bet ratio, feeds FitnessScore
}

func newMetrics() Metrics {
	return Metrics{MaxBetSeen: money.Zero, Confidence: 1.0}
}

func (m *Metrics) record(result game.BetResult) {
	m.TotalBets++
	if result.Won {
		m.Wins++
	} else {
		m.Losses++
	}
	if result.Bet.Cmp(m.MaxBetSeen) > 0 {
		m.MaxBetSeen = result.Bet
	}
	if !result.Bet.IsZero() {
		m.returns = append(m.returns, result.Payout.Ratio(result.Bet))
	}
	m.FitnessScore = computeFitness(m.returns)
}

// computeFitness is mean_return / (stddev_return + epsilon) per spec §4.4.
func computeFitness(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	if len(returns) < 2 {
		return mean / fitnessEpsilon
	}
	var sqSum float64
	for _, r := range returns {
		d := r - mean
		sqSum += d * d
	}
	std := math.Sqrt(sqSum / float64(len(returns)-1))
	return mean / (std + fitnessEpsilon)
}

// driftConfidence moves Confidence down on losing streaks and up on
// winning streaks, then applies a drawdown penalty, clamped to
// [0.1, 1.0] per spec §4.4.
func (m *Metrics) driftConfidence(gs *gamestate.GameState) {
	switch {
	case gs.LossesInRow() > 0:
		m.Confidence *= math.Pow(0.95, float64(gs.LossesInRow()))
	case gs.WinsInRow() > 0:
		m.Confidence = math.Min(1.0, m.Confidence*1.05)
	}
	if gs.CurrentDrawdown > 0.1 {
		m.Confidence *= 0.9
	}
	m.CurrentDrawdown = gs.CurrentDrawdown
	m.Confidence = clampFloat(m.Confidence, 0.1, 1.0)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
