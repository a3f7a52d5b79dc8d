package strategy

import (
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
)

// DAlembert increases the bet by one unit after a loss and decreases
// it by one unit after a win, never below one unit. Linear rather than
// exponential growth makes it more conservative than Martingale.
type DAlembert struct {
	Base
	units    int
	maxUnits int
}

func NewDAlembert(cfg Config) *DAlembert {
	maxUnits := cfg.MaxLosses
	if maxUnits <= 0 {
		maxUnits = 10
	}
	return &DAlembert{Base: newBase(cfg), units: 1, maxUnits: maxUnits}
}

func (s *DAlembert) Decide(gs *gamestate.GameState) BetDecision {
	amount, _ := s.Config.BaseBet.MulMultiplier(float64(s.units))
	return s.FinishDecision(amount, gs, s.Name(), map[string]any{"units": s.units})
}

func (s *DAlembert) Update(result game.BetResult) {
	s.RecordResult(result)
	if result.Won {
		s.units--
		if s.units < 1 {
			s.units = 1
		}
	} else {
		s.units++
		if s.units > s.maxUnits {
			s.units = s.maxUnits
		}
	}
}

func (s *DAlembert) OnAltAction(AltAction) {}

func (s *DAlembert) Reset() {
	s.Metrics = newMetrics()
	s.units = 1
}

func (s *DAlembert) Genome() map[string]any {
	return s.Base.Genome(s.Name(), map[string]any{"units": s.units})
}

func (s *DAlembert) Name() string { return "dalembert" }
