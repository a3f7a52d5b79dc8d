package vault

import (
	"time"

	"github.com/dicelab/fairsim/gamestate"
	"github.com/dicelab/fairsim/money"
)

// StopReason names why a session ended.
type StopReason int

const (
	NotStopped StopReason = iota
	Bankrupt
	StopLoss
	TakeProfit
	MaxBets
	ExternalCancel
)

func (r StopReason) String() string {
	switch r {
	case Bankrupt:
		return "BANKRUPT"
	case StopLoss:
		return "STOP_LOSS"
	case TakeProfit:
		return "TAKE_PROFIT"
	case MaxBets:
		return "MAX_BETS"
	case ExternalCancel:
		return "EXTERNAL_CANCEL"
	default:
		return "NOT_STOPPED"
	}
}

// MinBetFloorLiteral is the smallest balance a session can hold and
// still be considered solvent; below it the session is BANKRUPT.
// Matches the config package's default min_bet.
const MinBetFloorLiteral = "0.00015"

// SessionState wraps a GameState with the stop-loss/take-profit/max-bets
// policy and a should_stop predicate.
type SessionState struct {
	*gamestate.GameState

	SessionID      string
	StrategyName   string
	StopLossRatio  float64 // e.g. -0.5 for a 50% stop-loss; 0 disables
	TakeProfitRatio float64 // e.g. 1.0 for a 100% take-profit; 0 disables
	MaxBets        int     // 0 disables

	minBetFloor    money.Money
	StartedAt      time.Time
	EndedAt        time.Time
	StopReason     StopReason
	cancelled      bool
}

// NewSession wraps a fresh GameState in session policy.
func NewSession(sessionID, strategyName string, gs *gamestate.GameState, stopLossRatio, takeProfitRatio float64, maxBets int, minBetFloor money.Money) *SessionState {
	return &SessionState{
		GameState:       gs,
		SessionID:       sessionID,
		StrategyName:    strategyName,
		StopLossRatio:   stopLossRatio,
		TakeProfitRatio: takeProfitRatio,
		MaxBets:         maxBets,
		minBetFloor:     minBetFloor,
		StartedAt:       time.Now(),
	}
}

// Cancel marks the session for cooperative cancellation; the engine
// observes this between bets, never mid-bet.
func (s *SessionState) Cancel() {
	s.cancelled = true
}

// ShouldStop evaluates the stop predicate in the priority order given
// by spec §4.5: bankrupt, stop-loss, take-profit, max-bets, then an
// externally requested cancellation.
func (s *SessionState) ShouldStop() (bool, StopReason) {
	if s.Balance.Cmp(s.minBetFloor) < 0 {
		return true, Bankrupt
	}
	roi := s.SessionROI()
	if s.StopLossRatio != 0 && roi <= s.StopLossRatio {
		return true, StopLoss
	}
	if s.TakeProfitRatio != 0 && roi >= s.TakeProfitRatio {
		return true, TakeProfit
	}
	if s.MaxBets != 0 && s.BetsCount >= s.MaxBets {
		return true, MaxBets
	}
	if s.cancelled {
		return true, ExternalCancel
	}
	return false, NotStopped
}

// End finalizes the session with the given terminal reason.
func (s *SessionState) End(reason StopReason) {
	s.EndedAt = time.Now()
	s.StopReason = reason
}

// Duration returns wall-clock session length once ended; zero before.
func (s *SessionState) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}
