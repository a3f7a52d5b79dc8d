// Package game combines the provably-fair oracle with the Bitsler
// house-edge threshold convention to produce a BetResult from a raw
// bet. See DESIGN.md for the preserved-on-purpose discrepancy between
// the threshold's float64 arithmetic and the ledger's decimal Money.
package game

import (
	"strconv"
	"time"

	"github.com/dicelab/fairsim/errs"
	"github.com/dicelab/fairsim/money"
	"github.com/dicelab/fairsim/oracle"
)

// BetType selects which side of the roll a bet wins on.
type BetType int

const (
	Under BetType = iota
	Over
)

func (t BetType) String() string {
	if t == Over {
		return "OVER"
	}
	return "UNDER"
}

const (
	// MinMultiplier and MaxMultiplier bound the payout multiplier per
	// spec §4.3 and §6 (game.min_multiplier/max_multiplier defaults).
	MinMultiplier = 1.01
	MaxMultiplier = 99.00

	// HouseEdge is the fraction of action retained by the house,
	// folded into the win threshold rather than the payout multiplier
	// — the Bitsler convention (spec §9 open question b).
	HouseEdge = 0.01
)

// BetResult is an immutable record of one resolved bet.
type BetResult struct {
	Roll           string // "00.00".."99.99"
	Threshold      float64
	Won            bool
	Bet            money.Money
	Multiplier     float64
	Payout         money.Money // signed: positive on win, negative bet amount on loss
	BetType        BetType
	ServerSeedHash string
	ClientSeed     string
	Nonce          uint64
	Timestamp      time.Time
}

// Threshold computes the Bitsler win threshold for a given multiplier.
// A bet of type Under wins when roll < Threshold; a bet of type Over
// wins when roll > (100 - Threshold).
func Threshold(multiplier float64) float64 {
	return (100.0 / multiplier) * (1 - HouseEdge)
}

// Game is a thin combinator over one Oracle, enforcing the bet
// constraints from spec §4.3. Owns exactly one Oracle; not safe for
// concurrent use.
type Game struct {
	oracle  *oracle.Oracle
	minBet  money.Money
	maxBet  money.Money
	nowFunc func() time.Time
}

// New constructs a Game over the given oracle with the configured bet
// bounds. nowFunc defaults to time.Now; tests may override it for
// deterministic timestamps.
func New(o *oracle.Oracle, minBet, maxBet money.Money) *Game {
	return &Game{oracle: o, minBet: minBet, maxBet: maxBet, nowFunc: time.Now}
}

// SetClock overrides the timestamp source, for deterministic tests.
func (g *Game) SetClock(nowFunc func() time.Time) {
	g.nowFunc = nowFunc
}

// Oracle exposes the underlying oracle for toggle/rotate alt-actions
// routed by the engine.
func (g *Game) Oracle() *oracle.Oracle {
	return g.oracle
}

// Roll resolves one bet against the current balance. The bet amount
// must already be clamped into [min_bet, balance] by the caller (the
// engine, per spec §4.6) — Roll still validates defensively and returns
// BET_INVALID rather than silently mutating the amount, since a
// constraint violation here indicates an upstream bug.
//
// The win threshold is computed in float64 and compared against the
// roll parsed as a float64; only the resulting won/lost boolean
// reaches the decimal Money ledger.
func (g *Game) Roll(bet money.Money, multiplier float64, betType BetType, balance money.Money) (BetResult, error) {
	if multiplier < MinMultiplier || multiplier > MaxMultiplier {
		return BetResult{}, errs.BetInvalid("game: multiplier " + formatFloat(multiplier) + " out of [1.01, 99.00]")
	}
	if bet.Cmp(g.minBet) < 0 {
		return BetResult{}, errs.BetInvalid("game: bet below min_bet")
	}
	if bet.Cmp(balance) > 0 {
		return BetResult{}, errs.BetInvalid("game: bet exceeds balance")
	}

	rollStr, used, err := g.oracle.Roll()
	if err != nil {
		return BetResult{}, err
	}
	roll, err := strconv.ParseFloat(rollStr, 64)
	if err != nil {
		return BetResult{}, errs.StateCorrupt("game: oracle produced unparseable roll " + rollStr)
	}

	threshold := Threshold(multiplier)
	var won bool
	switch betType {
	case Under:
		won = roll < threshold
	case Over:
		won = roll > (100.0 - threshold)
	}

	var payout money.Money
	if won {
		payout, _ = bet.MulMultiplier(multiplier)
	} else {
		payout = bet.Neg()
	}

	return BetResult{
		Roll:           rollStr,
		Threshold:      threshold,
		Won:            won,
		Bet:            bet,
		Multiplier:     multiplier,
		Payout:         payout,
		BetType:        betType,
		ServerSeedHash: used.ServerSeedHash(),
		ClientSeed:     used.ClientSeed,
		Nonce:          used.Nonce,
		Timestamp:      g.nowFunc(),
	}, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
