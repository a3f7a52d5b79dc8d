// Package engine runs one session to completion: it asks a strategy
// for decisions, routes alt-actions to the oracle, resolves bets
// through the game, updates session/gamestate, and emits events in the
// exact order spec.md §4.6 specifies. An Engine owns exactly one
// Oracle (via Game), one SessionState, one Strategy, and one Bus; none
// of those are shared across sessions (see spec §5).
package engine

import (
	"context"

	"github.com/dicelab/fairsim/errs"
	"github.com/dicelab/fairsim/events"
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/money"
	"github.com/dicelab/fairsim/strategy"
	"github.com/dicelab/fairsim/vault"
)

// Engine drives one session's bet-by-bet loop to a terminal stop
// reason. Not safe for concurrent use — create a fresh Engine per
// session, the way the runner's worker pool does.
type Engine struct {
	Game     *game.Game
	Session  *vault.SessionState
	Strategy strategy.Strategy
	Bus      *events.Bus

	minBet      money.Money
	warnings    int
	switchCount int
	fatalCode   errs.Code
}

// New constructs an Engine. bus may be nil, in which case events are
// computed but never fanned out (useful for throwaway benchmark runs).
func New(g *game.Game, session *vault.SessionState, strat strategy.Strategy, bus *events.Bus, minBet money.Money) *Engine {
	if bus == nil {
		bus = events.New(events.DefaultCapacity)
	}
	return &Engine{Game: g, Session: session, Strategy: strat, Bus: bus, minBet: minBet}
}

// Result is everything the runner needs to build one per-session entry
// in a PlanResult, without reaching back into engine internals.
type Result struct {
	SessionID    string
	StrategyName string
	FinalBalance money.Money
	StopReason   vault.StopReason
	Bets         int
	Wins         int
	Losses       int
	ROI          float64
	MaxDrawdown  float64
	Cancelled    bool
	Warnings     int       // count of decisions dropped after a recoverable Roll error (BET_INVALID), spec §7
	FatalCode    errs.Code // set when the session ended via ORACLE_EXHAUSTED or STATE_CORRUPT rather than a normal stop condition, spec §7
}

// Run executes the session loop until should_stop() fires or ctx is
// cancelled, byte-for-byte matching spec §4.6's event emission order.
// Cancellation is observed between bets only, never mid-bet, per §5.
func (e *Engine) Run(ctx context.Context) Result {
	e.Bus.Publish(events.SessionStartEvent(e.Session.SessionID, e.Session.StrategyName, e.Session.Balance.String()))

	for {
		if ctx != nil {
			select {
			case <-ctx.Done():
				e.Session.Cancel()
			default:
			}
		}
		if stop, reason := e.Session.ShouldStop(); stop {
			e.finish(reason)
			return e.result(reason)
		}

		decision := e.Strategy.Decide(e.Session.GameState)
		e.Bus.Publish(events.BetDecisionEvent(e.Session.SessionID, decisionAction(decision), decision.Amount.InexactFloat64(), decision.Multiplier, decision.BetType.String()))

		switch decision.Action {
		case strategy.ToggleBetType:
			e.Strategy.OnAltAction(strategy.ToggleBetType)
			e.Session.GameState.RecordToggle()
			e.Bus.Publish(events.StrategyToggleEvent(e.Session.SessionID, toggleCount(decision)))
			continue
		case strategy.RotateSeed:
			revealed := e.Game.Oracle().RotateSeeds()
			e.Strategy.OnAltAction(strategy.RotateSeed)
			e.Session.GameState.RecordRotation()
			e.Bus.Publish(events.StrategySeedChangeEvent(e.Session.SessionID, revealed.ServerSeed))
			continue
		}

		if decision.Skip {
			continue
		}

		amount := e.clamp(decision.Amount)
		result, err := e.Game.Roll(amount, decision.Multiplier, decision.BetType, e.Session.Balance)
		if err != nil {
			if code, _ := errs.CodeOf(err); code == errs.CodeOracleExhausted || code == errs.CodeStateCorrupt {
				// Both are fatal per spec §7: the oracle can no longer
				// produce a valid roll, or an internal invariant broke.
				// End the session as BANKRUPT but carry the code so the
				// caller can tell this apart from a normal bankruptcy.
				e.fatalCode = code
				e.finish(vault.Bankrupt)
				return e.result(vault.Bankrupt)
			}
			// BET_INVALID (and anything else recoverable) is handled
			// locally per spec §7: drop this decision and let the
			// strategy try again on the next bet.
			e.warnings++
			continue
		}

		e.Session.GameState.Update(result)
		e.Strategy.Update(result)
		e.emitStrategySwitches()

		if decision.Action == strategy.ParkingBet {
			e.Session.GameState.RecordParkingBet(result)
			e.Bus.Publish(events.StrategyParkingBetEvent(e.Session.SessionID, result.Bet.InexactFloat64(), result.Won))
		}

		e.emitStreakAndDrawdown()
		e.Bus.Publish(events.BetResultEvent(e.Session.SessionID, result))
	}
}

// clamp restricts a strategy's raw decision amount into [min_bet,
// balance], the final defensive clamp spec §4.6 requires of the
// engine regardless of whether the strategy already clamped.
func (e *Engine) clamp(amount money.Money) money.Money {
	amount = money.Clamp(amount, e.minBet, e.Session.Balance)
	return money.Min(amount, e.Session.Balance)
}

// emitStreakAndDrawdown fires WINNING_STREAK/LOSING_STREAK when a
// streak threshold is crossed and DRAWDOWN_ALERT when the drawdown
// threshold is crossed, using the same cadence Base.CheckStreaks uses
// so the framework hooks and the engine's own events agree.
func (e *Engine) emitStreakAndDrawdown() {
	gs := e.Session.GameState
	if w := gs.WinsInRow(); w >= 3 && w%5 == 0 {
		e.Bus.Publish(events.StreakEvent(e.Session.SessionID, events.WinningStreak, w))
	}
	if l := gs.LossesInRow(); l >= 3 && l%5 == 0 {
		e.Bus.Publish(events.StreakEvent(e.Session.SessionID, events.LosingStreak, l))
	}
	if gs.CurrentDrawdown > 0.1 {
		e.Bus.Publish(events.DrawdownAlertEvent(e.Session.SessionID, gs.CurrentDrawdown))
	}
}

// switchHistorian is implemented by *strategy.Adaptive. The engine
// checks for it rather than importing strategy.Adaptive directly so a
// Composite wrapping an Adaptive still surfaces switches if it ever
// forwards the interface.
type switchHistorian interface {
	SwitchHistory() []strategy.SwitchRecord
}

// emitStrategySwitches publishes STRATEGY_SWITCH for any entries added
// to the active strategy's switch history since the last check.
func (e *Engine) emitStrategySwitches() {
	sh, ok := e.Strategy.(switchHistorian)
	if !ok {
		return
	}
	history := sh.SwitchHistory()
	for _, rec := range history[e.switchCount:] {
		e.Bus.Publish(events.StrategySwitchEvent(e.Session.SessionID, rec.From, rec.To, rec.Condition))
	}
	e.switchCount = len(history)
}

func (e *Engine) finish(reason vault.StopReason) {
	e.Session.End(reason)
	switch reason {
	case vault.TakeProfit:
		e.Bus.Publish(events.ProfitTargetReachedEvent(e.Session.SessionID, e.Session.SessionROI()))
	case vault.StopLoss:
		e.Bus.Publish(events.StopLossTriggeredEvent(e.Session.SessionID, e.Session.SessionROI()))
	}
	e.Bus.Publish(events.SessionEndEvent(e.Session.SessionID, reason, e.Session.Balance.String(), e.Session.BetsCount))
}

func (e *Engine) result(reason vault.StopReason) Result {
	gs := e.Session.GameState
	return Result{
		SessionID:    e.Session.SessionID,
		StrategyName: e.Session.StrategyName,
		FinalBalance: gs.Balance,
		StopReason:   reason,
		Bets:         gs.BetsCount,
		Wins:         gs.WinsCount,
		Losses:       gs.LossesCount,
		ROI:          gs.SessionROI(),
		MaxDrawdown:  gs.MaxDrawdown,
		Cancelled:    reason == vault.ExternalCancel,
		Warnings:     e.warnings,
		FatalCode:    e.fatalCode,
	}
}

func decisionAction(d strategy.BetDecision) string {
	if d.Action != strategy.NoAction {
		return string(d.Action)
	}
	if d.Skip {
		return "SKIP"
	}
	return "BET"
}

func toggleCount(d strategy.BetDecision) int {
	if n, ok := d.Metadata["toggle_count"].(int); ok {
		return n
	}
	return 0
}
