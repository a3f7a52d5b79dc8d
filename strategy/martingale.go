package strategy

import (
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
)

// Martingale doubles (or scales by Config.Multiplier) the bet after
// every loss and resets to the base bet after a win. consecutiveLosses
// reaching Config.MaxLosses resets to the base bet and marks the
// decision's metadata with martingale_capped, per spec §4.4's
// "MARTINGALE_CAPPED" emission.
type Martingale struct {
	Base
	consecutiveLosses int
}

func NewMartingale(cfg Config) *Martingale {
	return &Martingale{Base: newBase(cfg)}
}

func (s *Martingale) Decide(gs *gamestate.GameState) BetDecision {
	capped := s.consecutiveLosses >= s.Config.MaxLosses
	amount := s.Config.BaseBet
	if !capped && s.consecutiveLosses > 0 {
		for i := 0; i < s.consecutiveLosses; i++ {
			amount, _ = amount.MulMultiplier(s.Config.Multiplier)
		}
	}
	var extra map[string]any
	if capped {
		extra = map[string]any{"martingale_capped": true}
	}
	return s.FinishDecision(amount, gs, s.Name(), extra)
}

func (s *Martingale) Update(result game.BetResult) {
	s.RecordResult(result)
	if result.Won {
		s.consecutiveLosses = 0
	} else {
		s.consecutiveLosses++
	}
}

func (s *Martingale) OnAltAction(AltAction) {}

func (s *Martingale) Reset() {
	s.Metrics = newMetrics()
	s.consecutiveLosses = 0
}

func (s *Martingale) Genome() map[string]any {
	return s.Base.Genome(s.Name(), map[string]any{"consecutive_losses": s.consecutiveLosses})
}

func (s *Martingale) Name() string { return "martingale" }
