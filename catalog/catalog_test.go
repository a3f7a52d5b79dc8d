package catalog

import (
	"testing"

	"github.com/dicelab/fairsim/config"
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/money"
	"github.com/dicelab/fairsim/strategy"
)

func TestPresetDefaultsMatchGlossary(t *testing.T) {
	cfg, err := PresetDefaults(config.Aggressive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxLosses != 12 || cfg.Multiplier != 2.0 {
		t.Fatalf("got %+v", cfg)
	}
	want := "0.002"
	if cfg.BaseBet.String() != want {
		t.Fatalf("expected base_bet %s, got %s", want, cfg.BaseBet)
	}
}

func TestPresetDefaultsRejectsUnknownName(t *testing.T) {
	if _, err := PresetDefaults("nonsense"); err == nil {
		t.Fatalf("expected an error for an unknown preset")
	}
}

func TestResolveConfigFillsBoundsFromGameConfig(t *testing.T) {
	gc := config.GameConfig{MinBet: "0.00015", MaxBet: "500"}
	cfg, err := ResolveConfig(config.Conservative, gc, game.Under, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MinBet.String() != "0.00015" || cfg.MaxBet.String() != "500" {
		t.Fatalf("got min=%s max=%s", cfg.MinBet, cfg.MaxBet)
	}
	if cfg.BetType != game.Under || cfg.TargetMultiplier != 2.0 {
		t.Fatalf("got bet_type=%s target_mult=%f", cfg.BetType, cfg.TargetMultiplier)
	}
}

func TestBuildCompositeAssemblesEveryMember(t *testing.T) {
	r := NewRegistry()
	cfg, _ := PresetDefaults(config.Moderate)
	cfg.MinBet = cfg.BaseBet
	cfg.MaxBet = cfg.BaseBet

	c, err := r.BuildComposite(cfg, strategy.Average, []string{"flat", "martingale"}, 0.5, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name() != "composite.AVERAGE" {
		t.Fatalf("unexpected name %s", c.Name())
	}
}

func TestBuildAdaptiveAssemblesPool(t *testing.T) {
	r := NewRegistry()
	cfg, _ := PresetDefaults(config.Moderate)
	cfg.MinBet = cfg.BaseBet
	cfg.MaxBet = cfg.BaseBet

	rules := []strategy.Rule{{Condition: strategy.ConsecutiveLosses, Threshold: 3, TargetStrategyName: "martingale", CooldownBets: 10}}
	a, err := r.BuildAdaptive(cfg, "flat", []string{"flat", "martingale"}, rules, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Name() != "adaptive.flat" {
		t.Fatalf("unexpected name %s", a.Name())
	}
}

func TestResolveParkingConfigUsesMinBetAsFallback(t *testing.T) {
	minBet := money.MustFromString("0.00015")
	pc, err := ResolveParkingConfig(config.ParkingConfig{
		MaxTogglesBeforeBet:        3,
		ParkingTarget:              98.0,
		AutoSeedRotationAfter:      1000,
		ParkingOnConsecutiveLosses: 5,
		ParkingOnDrawdownPercent:   0.10,
	}, minBet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.ParkingBetAmount.Cmp(minBet) != 0 {
		t.Fatalf("expected parking amount to fall back to min bet, got %s", pc.ParkingBetAmount)
	}
	if pc.ParkingBetType != game.Under {
		t.Fatalf("expected default parking bet type UNDER, got %s", pc.ParkingBetType)
	}
}
