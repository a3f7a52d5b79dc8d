package strategy

import (
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
)

// Flat bets the same base amount regardless of outcome. The most
// conservative progression; useful as a baseline.
type Flat struct {
	Base
}

func NewFlat(cfg Config) *Flat {
	return &Flat{Base: newBase(cfg)}
}

func (s *Flat) Decide(gs *gamestate.GameState) BetDecision {
	return s.FinishDecision(s.Config.BaseBet, gs, s.Name(), nil)
}

func (s *Flat) Update(result game.BetResult) {
	s.RecordResult(result)
}

func (s *Flat) OnAltAction(AltAction) {}

func (s *Flat) Reset() {
	s.Metrics = newMetrics()
}

func (s *Flat) Genome() map[string]any {
	return s.Base.Genome(s.Name(), nil)
}

func (s *Flat) Name() string { return "flat" }
