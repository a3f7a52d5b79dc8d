package events

import (
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/vault"
)

// SessionStartEvent builds the SESSION_START payload.
func SessionStartEvent(sessionID, strategyName string, startingBalance string) Event {
	return Event{
		Kind:      SessionStart,
		SessionID: sessionID,
		Payload: map[string]any{
			"strategy":         strategyName,
			"starting_balance": startingBalance,
		},
	}
}

// SessionEndEvent builds the SESSION_END payload, including the
// terminal reason spec §4.5 requires every session to carry.
func SessionEndEvent(sessionID string, reason vault.StopReason, finalBalance string, bets int) Event {
	return Event{
		Kind:      SessionEnd,
		SessionID: sessionID,
		Payload: map[string]any{
			"reason":        reason.String(),
			"final_balance": finalBalance,
			"bets":          bets,
		},
	}
}

// BetDecisionEvent builds the BET_DECISION payload for a strategy's
// chosen action, whether a bet or an alt-action.
func BetDecisionEvent(sessionID string, action string, amount, multiplier float64, betType string) Event {
	return Event{
		Kind:      BetDecision,
		SessionID: sessionID,
		Payload: map[string]any{
			"action":     action,
			"amount":     amount,
			"multiplier": multiplier,
			"bet_type":   betType,
		},
	}
}

// BetResultEvent builds the BET_RESULT payload from a resolved roll.
func BetResultEvent(sessionID string, r game.BetResult) Event {
	return Event{
		Kind:      BetResult,
		SessionID: sessionID,
		Payload: map[string]any{
			"won":        r.Won,
			"roll":       r.Roll,
			"threshold":  r.Threshold,
			"bet":        r.Bet.String(),
			"payout":     r.Payout.String(),
			"multiplier": r.Multiplier,
			"bet_type":   r.BetType.String(),
			"nonce":      r.Nonce,
		},
	}
}

// StreakEvent builds either WINNING_STREAK or LOSING_STREAK.
func StreakEvent(sessionID string, kind Kind, length int) Event {
	return Event{
		Kind:      kind,
		SessionID: sessionID,
		Payload: map[string]any{
			"length": length,
		},
	}
}

// DrawdownAlertEvent builds DRAWDOWN_ALERT when the drawdown threshold
// is crossed.
func DrawdownAlertEvent(sessionID string, drawdown float64) Event {
	return Event{
		Kind:      DrawdownAlert,
		SessionID: sessionID,
		Payload: map[string]any{
			"drawdown": drawdown,
		},
	}
}

// ProfitTargetReachedEvent builds PROFIT_TARGET_REACHED.
func ProfitTargetReachedEvent(sessionID string, roi float64) Event {
	return Event{
		Kind:      ProfitTargetReached,
		SessionID: sessionID,
		Payload: map[string]any{
			"roi": roi,
		},
	}
}

// StopLossTriggeredEvent builds STOP_LOSS_TRIGGERED.
func StopLossTriggeredEvent(sessionID string, roi float64) Event {
	return Event{
		Kind:      StopLossTriggered,
		SessionID: sessionID,
		Payload: map[string]any{
			"roi": roi,
		},
	}
}

// StrategyToggleEvent builds STRATEGY_TOGGLE (oracle.toggle alt-action).
func StrategyToggleEvent(sessionID string, toggleCount int) Event {
	return Event{
		Kind:      StrategyToggle,
		SessionID: sessionID,
		Payload: map[string]any{
			"toggle_count": toggleCount,
		},
	}
}

// StrategySeedChangeEvent builds STRATEGY_SEED_CHANGE (oracle.rotate_seeds alt-action).
func StrategySeedChangeEvent(sessionID string, revealedServerSeed string) Event {
	return Event{
		Kind:      StrategySeedChange,
		SessionID: sessionID,
		Payload: map[string]any{
			"revealed_server_seed": revealedServerSeed,
		},
	}
}

// StrategyParkingBetEvent builds STRATEGY_PARKING_BET.
func StrategyParkingBetEvent(sessionID string, amount float64, won bool) Event {
	return Event{
		Kind:      StrategyParkingBet,
		SessionID: sessionID,
		Payload: map[string]any{
			"amount": amount,
			"won":    won,
		},
	}
}

// StrategySwitchEvent builds STRATEGY_SWITCH for adaptive handoffs.
func StrategySwitchEvent(sessionID, from, to, condition string) Event {
	return Event{
		Kind:      StrategySwitch,
		SessionID: sessionID,
		Payload: map[string]any{
			"from":      from,
			"to":        to,
			"condition": condition,
		},
	}
}

// CheckpointWrittenEvent builds CHECKPOINT_WRITTEN.
func CheckpointWrittenEvent(sessionID, path string, completedSessions int) Event {
	return Event{
		Kind:      CheckpointWritten,
		SessionID: sessionID,
		Payload: map[string]any{
			"path":               path,
			"completed_sessions": completedSessions,
		},
	}
}
