package strategy

import (
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
	"github.com/dicelab/fairsim/money"
)

// Paroli is the anti-Martingale: it doubles the bet after a win, up to
// TargetWins consecutive wins, and resets to the base bet after a loss
// or once the win target is reached. Risks winnings rather than
// capital.
type Paroli struct {
	Base
	TargetWins      int
	consecutiveWins int
	lastBet         money.Money
}

func NewParoli(cfg Config, targetWins int) *Paroli {
	if targetWins <= 0 {
		targetWins = 3
	}
	return &Paroli{Base: newBase(cfg), TargetWins: targetWins, lastBet: cfg.BaseBet}
}

func (s *Paroli) Decide(gs *gamestate.GameState) BetDecision {
	var amount money.Money
	if s.consecutiveWins >= s.TargetWins || s.consecutiveWins == 0 {
		amount = s.Config.BaseBet
	} else {
		amount, _ = s.lastBet.MulMultiplier(s.Config.Multiplier)
	}
	return s.FinishDecision(amount, gs, s.Name(), map[string]any{"consecutive_wins": s.consecutiveWins})
}

func (s *Paroli) Update(result game.BetResult) {
	s.RecordResult(result)
	if result.Won {
		s.consecutiveWins++
		if s.consecutiveWins > s.TargetWins {
			s.consecutiveWins = 1
		}
	} else {
		s.consecutiveWins = 0
	}
	s.lastBet = result.Bet
}

func (s *Paroli) OnAltAction(AltAction) {}

func (s *Paroli) Reset() {
	s.Metrics = newMetrics()
	s.consecutiveWins = 0
	s.lastBet = s.Config.BaseBet
}

func (s *Paroli) Genome() map[string]any {
	return s.Base.Genome(s.Name(), map[string]any{"consecutive_wins": s.consecutiveWins})
}

func (s *Paroli) Name() string { return "paroli" }
