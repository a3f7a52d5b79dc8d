package strategy

import (
	"testing"
)

func TestAdaptiveSwitchesOnConsecutiveLosses(t *testing.T) {
	cfg := baseConfig()
	flat := NewFlat(cfg)
	martingale := NewMartingale(cfg)
	pool := map[string]Strategy{"flat": flat, "martingale": martingale}
	rules := []Rule{
		{Condition: ConsecutiveLosses, Threshold: 3, TargetStrategyName: "martingale", CooldownBets: 10},
	}
	a := NewAdaptive(cfg, "flat", pool, rules, 1)
	gs := newGS()

	// Each step's checkSwitch observes the streak left by prior steps.
	// Three losses must be recorded before a fourth Decide call sees
	// LossesInRow() == 3 and performs the switch.
	for i := 0; i < 4; i++ {
		d := a.Decide(gs)
		a.Update(lossResult(d.Amount))
		gs.Update(lossResult(d.Amount))
	}

	if a.activeName != "martingale" {
		t.Fatalf("expected switch to martingale once a 3-loss streak is observed, active is %q", a.activeName)
	}
	if len(a.switchHistory) != 1 {
		t.Fatalf("expected exactly one switch recorded, got %d", len(a.switchHistory))
	}
	if a.switchHistory[0].Condition != "CONSECUTIVE_LOSSES" {
		t.Fatalf("unexpected switch condition %q", a.switchHistory[0].Condition)
	}
}

func TestAdaptiveHonorsMinBetsBeforeSwitch(t *testing.T) {
	cfg := baseConfig()
	flat := NewFlat(cfg)
	martingale := NewMartingale(cfg)
	pool := map[string]Strategy{"flat": flat, "martingale": martingale}
	rules := []Rule{
		{Condition: ConsecutiveLosses, Threshold: 1, TargetStrategyName: "martingale", CooldownBets: 5},
	}
	a := NewAdaptive(cfg, "flat", pool, rules, 5)
	gs := newGS()

	d := a.Decide(gs)
	a.Update(lossResult(d.Amount))
	gs.Update(lossResult(d.Amount))

	if a.activeName != "flat" {
		t.Fatalf("expected no switch before minBetsBeforeSwitch elapses, active is %q", a.activeName)
	}
}

func TestAdaptiveCooldownPreventsImmediateSwitchBack(t *testing.T) {
	cfg := baseConfig()
	flat := NewFlat(cfg)
	martingale := NewMartingale(cfg)
	pool := map[string]Strategy{"flat": flat, "martingale": martingale}
	rules := []Rule{
		{Condition: ConsecutiveLosses, Threshold: 1, TargetStrategyName: "martingale", CooldownBets: 100},
		{Condition: ConsecutiveWins, Threshold: 1, TargetStrategyName: "flat", CooldownBets: 100},
	}
	a := NewAdaptive(cfg, "flat", pool, rules, 0)
	gs := newGS()

	// Bet 1: no streak yet, stays on flat, but records the loss.
	d := a.Decide(gs)
	a.Update(lossResult(d.Amount))
	gs.Update(lossResult(d.Amount))

	// Bet 2: checkSwitch now sees LossesInRow()==1 and switches to
	// martingale, which puts "flat" on a 100-bet cooldown.
	d = a.Decide(gs)
	a.Update(winResult(d.Amount))
	gs.Update(winResult(d.Amount))

	if a.activeName != "martingale" {
		t.Fatalf("expected switch to martingale, got %q", a.activeName)
	}

	// Bet 3: checkSwitch now sees WinsInRow()==1, which would normally
	// switch back to flat, but flat is cooling down.
	d = a.Decide(gs)
	a.Update(winResult(d.Amount))
	gs.Update(winResult(d.Amount))

	if a.activeName != "martingale" {
		t.Fatalf("cooldown on flat should prevent switching back, active is %q", a.activeName)
	}
}

func TestAdaptiveCarriesConfidenceOnSwitch(t *testing.T) {
	cfg := baseConfig()
	flat := NewFlat(cfg)
	martingale := NewMartingale(cfg)
	martingale.Metrics.Confidence = 0.5
	pool := map[string]Strategy{"flat": flat, "martingale": martingale}
	rules := []Rule{
		{Condition: ConsecutiveLosses, Threshold: 1, TargetStrategyName: "martingale", CooldownBets: 0},
	}
	a := NewAdaptive(cfg, "flat", pool, rules, 0)
	gs := newGS()

	// Bet 1: records the loss, no streak observed yet.
	d := a.Decide(gs)
	a.Update(lossResult(d.Amount))
	gs.Update(lossResult(d.Amount))

	// Bet 2: checkSwitch observes LossesInRow()==1 and switches,
	// overwriting martingale's confidence with the outgoing flat
	// strategy's confidence (still 1.0 here) times the 1.1 switch boost,
	// clamped back down to the [0.1, 1.0] range.
	d = a.Decide(gs)
	a.Update(lossResult(d.Amount))
	gs.Update(lossResult(d.Amount))

	if martingale.Metrics.Confidence <= 0.5 {
		t.Fatalf("expected confidence carried over with a boost, got %f", martingale.Metrics.Confidence)
	}
}
