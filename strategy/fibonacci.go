package strategy

import (
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
)

var defaultFibonacciSequence = []int{1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144, 233, 377, 610}

// Fibonacci advances one position in the Fibonacci sequence after a
// loss and retreats two after a win, betting base_bet * sequence[i].
// Slower-growing than Martingale for the same loss streak.
type Fibonacci struct {
	Base
	sequence []int
	index    int
}

func NewFibonacci(cfg Config) *Fibonacci {
	seq := defaultFibonacciSequence
	if cfg.MaxLosses > 0 && cfg.MaxLosses < len(seq) {
		seq = seq[:cfg.MaxLosses]
	}
	return &Fibonacci{Base: newBase(cfg), sequence: seq}
}

func (s *Fibonacci) Decide(gs *gamestate.GameState) BetDecision {
	amount, _ := s.Config.BaseBet.MulMultiplier(float64(s.sequence[s.index]))
	return s.FinishDecision(amount, gs, s.Name(), map[string]any{"fib_index": s.index})
}

func (s *Fibonacci) Update(result game.BetResult) {
	s.RecordResult(result)
	if result.Won {
		s.index -= 2
		if s.index < 0 {
			s.index = 0
		}
	} else {
		s.index++
		if s.index > len(s.sequence)-1 {
			s.index = len(s.sequence) - 1
		}
	}
}

func (s *Fibonacci) OnAltAction(AltAction) {}

func (s *Fibonacci) Reset() {
	s.Metrics = newMetrics()
	s.index = 0
}

func (s *Fibonacci) Genome() map[string]any {
	return s.Base.Genome(s.Name(), map[string]any{"fib_index": s.index})
}

func (s *Fibonacci) Name() string { return "fibonacci" }
