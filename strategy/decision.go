// Package strategy implements the betting-progression framework: the
// common decision/update contract every strategy satisfies, the
// concrete progressions (flat, martingale, fibonacci, d'alembert,
// paroli), and the combinators built on top of them (composite,
// adaptive, parking).
package strategy

import (
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
	"github.com/dicelab/fairsim/money"
)

// AltAction names a non-bet action a strategy can request instead of
// placing a bet.
type AltAction string

const (
	NoAction      AltAction = ""
	ToggleBetType AltAction = "TOGGLE_BET_TYPE"
	RotateSeed    AltAction = "ROTATE_SEED"
	ParkingBet    AltAction = "PARKING_BET"
)

// BetDecision is what a strategy returns for one iteration of the
// engine loop: either a bet to place, or Skip with an optional
// alt-action for the engine to route to the oracle.
type BetDecision struct {
	Amount     money.Money
	Multiplier float64
	BetType    game.BetType
	Skip       bool
	Action     AltAction
	Confidence float64
	Metadata   map[string]any
}

// Config is the configuration shared by every strategy: a base bet,
// bounds, the progression multiplier, and a loss cap.
type Config struct {
	BaseBet          money.Money
	MinBet           money.Money
	MaxBet           money.Money
	Multiplier       float64      // progression multiplier M, default 2.0
	MaxLosses        int          // cap C on progression depth
	BetType          game.BetType // default UNDER
	TargetMultiplier float64      // game multiplier passed to Game.Roll, default 2.0
}

// Strategy is the contract every concrete progression, and every
// combinator built from them, satisfies.
type Strategy interface {
	Decide(gs *gamestate.GameState) BetDecision
	Update(result game.BetResult)
	OnAltAction(action AltAction)
	Reset()
	Genome() map[string]any
	Name() string
}
