package strategy

import (
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
	"github.com/dicelab/fairsim/money"
)

// Base is embedded by every concrete strategy. It carries the shared
// config and framework-maintained metrics, and provides the helpers
// every Decide/Update implementation calls explicitly — streak and
// drawdown hooks, confidence drift, bet clamping, and decision
// finishing — since Go has no template-method inheritance to do this
// implicitly the way the source's BaseStrategy.decide_bet does.
type Base struct {
	Config  Config
	Metrics Metrics
	Hooks   Hooks
}

func newBase(cfg Config) Base {
	return Base{Config: cfg, Metrics: newMetrics()}
}

// Clamp applies the min_bet/max_bet/balance limits from spec §4.4.
func (b *Base) Clamp(amount, balance money.Money) money.Money {
	amount = money.Clamp(amount, b.Config.MinBet, b.Config.MaxBet)
	return money.Min(amount, balance)
}

// CheckStreaks fires the winning/losing-streak hooks every 5th
// consecutive result from length 3 onward, and the drawdown hook past
// a 10% drawdown — matching the cadence in the source BaseStrategy.
func (b *Base) CheckStreaks(gs *gamestate.GameState) {
	if w := gs.WinsInRow(); w >= 3 && w%5 == 0 {
		b.Hooks.fireWinningStreak(w)
	}
	if l := gs.LossesInRow(); l >= 3 && l%5 == 0 {
		b.Hooks.fireLosingStreak(l)
	}
	if gs.CurrentDrawdown > 0.1 {
		b.Hooks.fireDrawdown(gs.CurrentDrawdown)
	}
}

// RecordResult feeds a resolved bet into the framework metrics.
func (b *Base) RecordResult(result game.BetResult) {
	b.Metrics.record(result)
}

// Confidence exposes the live confidence level, promoted by every
// embedding strategy, for the adaptive strategy's LOW_CONFIDENCE rule
// and for carrying confidence across a strategy switch.
func (b *Base) Confidence() float64 {
	return b.Metrics.Confidence
}

// SetConfidence overrides the confidence level, used when a switch
// carries confidence over from the outgoing strategy.
func (b *Base) SetConfidence(c float64) {
	b.Metrics.Confidence = clampFloat(c, 0.1, 1.0)
}

// FinishDecision applies the common skip/clamp/metadata shape every
// concrete progression's Decide call ends with, betting Config.BetType
// at Config.TargetMultiplier.
func (b *Base) FinishDecision(raw money.Money, gs *gamestate.GameState, name string, extra map[string]any) BetDecision {
	return b.FinishDecisionAs(raw, b.Config.BetType, b.Config.TargetMultiplier, gs, name, extra)
}

// FinishDecisionAs is FinishDecision with an explicit bet_type and
// multiplier, for combinators (composite, parking) whose per-step
// choice of side and multiplier is not simply the static config.
func (b *Base) FinishDecisionAs(raw money.Money, betType game.BetType, multiplier float64, gs *gamestate.GameState, name string, extra map[string]any) BetDecision {
	b.Hooks.fireBeforeDecision()
	b.CheckStreaks(gs)
	b.Metrics.driftConfidence(gs)

	if gs.Balance.Cmp(b.Config.MinBet) < 0 {
		d := BetDecision{Skip: true, BetType: betType, Confidence: 0}
		b.Hooks.fireAfterDecision(d)
		return d
	}

	amount := b.Clamp(raw, gs.Balance)
	if amount.Cmp(b.Config.MinBet) < 0 {
		d := BetDecision{Skip: true, BetType: betType, Confidence: b.Metrics.Confidence}
		b.Hooks.fireAfterDecision(d)
		return d
	}

	meta := map[string]any{"strategy": name}
	for k, v := range extra {
		meta[k] = v
	}

	d := BetDecision{
		Amount:     amount,
		Multiplier: multiplier,
		BetType:    betType,
		Confidence: b.Metrics.Confidence,
		Metadata:   meta,
	}
	b.Hooks.fireAfterDecision(d)
	return d
}

// Genome merges the config, live metrics, and any strategy-specific
// progression state into the forward-compatibility snapshot spec §4.4
// requires every strategy to expose.
func (b *Base) Genome(name string, extra map[string]any) map[string]any {
	g := map[string]any{
		"strategy_type":  name,
		"base_bet":       b.Config.BaseBet.String(),
		"min_bet":        b.Config.MinBet.String(),
		"max_bet":        b.Config.MaxBet.String(),
		"multiplier":     b.Config.Multiplier,
		"max_losses":     b.Config.MaxLosses,
		"bet_type":       b.Config.BetType.String(),
		"confidence":     b.Metrics.Confidence,
		"fitness":        b.Metrics.FitnessScore,
		"total_bets":     b.Metrics.TotalBets,
		"wins":           b.Metrics.Wins,
		"losses":         b.Metrics.Losses,
	}
	for k, v := range extra {
		g[k] = v
	}
	return g
}
