// Package catalog resolves a config.Preset into a ready-to-run
// strategy.Config, and builds the combinator strategies (composite,
// adaptive, parking) that strategy.Registry's flat name->Builder map
// can't express on its own, since those need extra wiring (a pool of
// sub-strategies, switch rules) beyond a single Config.
package catalog

import (
	"github.com/dicelab/fairsim/config"
	"github.com/dicelab/fairsim/errs"
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/money"
	"github.com/dicelab/fairsim/strategy"
)

// PresetDefaults returns the base_bet/max_losses/multiplier triple the
// GLOSSARY defines for preset, leaving MinBet/MaxBet/BetType/
// TargetMultiplier for the caller to fill from the game config.
func PresetDefaults(preset config.Preset) (strategy.Config, error) {
	switch preset {
	case config.Conservative:
		return strategy.Config{BaseBet: money.MustFromString("0.0005"), MaxLosses: 5, Multiplier: 2.0}, nil
	case config.Moderate:
		return strategy.Config{BaseBet: money.MustFromString("0.001"), MaxLosses: 8, Multiplier: 2.0}, nil
	case config.Aggressive:
		return strategy.Config{BaseBet: money.MustFromString("0.002"), MaxLosses: 12, Multiplier: 2.0}, nil
	case config.Experimental:
		return strategy.Config{BaseBet: money.MustFromString("0.003"), MaxLosses: 15, Multiplier: 2.5}, nil
	default:
		return strategy.Config{}, errs.ConfigInvalid("catalog: unknown strategy preset " + string(preset))
	}
}

// ResolveConfig fills a preset's base_bet/max_losses/multiplier into
// the bounds and bet parameters a GameConfig/RunSpec need, completing
// a ready-to-build strategy.Config.
func ResolveConfig(preset config.Preset, gc config.GameConfig, betType game.BetType, targetMultiplier float64) (strategy.Config, error) {
	cfg, err := PresetDefaults(preset)
	if err != nil {
		return strategy.Config{}, err
	}
	minBet, err := money.FromString(gc.MinBet)
	if err != nil {
		return strategy.Config{}, errs.WrapCode(errs.CodeConfigInvalid, err, "catalog: parse game.min_bet")
	}
	cfg.MinBet = minBet
	if gc.MaxBet != "" {
		maxBet, err := money.FromString(gc.MaxBet)
		if err != nil {
			return strategy.Config{}, errs.WrapCode(errs.CodeConfigInvalid, err, "catalog: parse game.max_bet")
		}
		cfg.MaxBet = maxBet
	} else {
		cfg.MaxBet = money.MustFromString("1000000")
	}
	cfg.BetType = betType
	cfg.TargetMultiplier = targetMultiplier
	return cfg, nil
}

// Registry wraps strategy.DefaultRegistry with the combinator
// constructors the basic registry can't express.
type Registry struct {
	*strategy.Registry
}

// NewRegistry returns a Registry seeded with the five basic
// progressions, frozen the same way strategy.DefaultRegistry is.
func NewRegistry() *Registry {
	return &Registry{Registry: strategy.DefaultRegistry()}
}

// BuildComposite assembles a Composite over names, each resolved
// through the basic registry with the same cfg, per spec §4.4.
func (r *Registry) BuildComposite(cfg strategy.Config, mode strategy.CombinationMode, names []string, consensusThreshold float64, rotationInterval int) (*strategy.Composite, error) {
	members := make([]strategy.Strategy, 0, len(names))
	for _, name := range names {
		s, err := r.Build(name, cfg)
		if err != nil {
			return nil, err
		}
		members = append(members, s)
	}
	return strategy.NewComposite(cfg, mode, members, consensusThreshold, rotationInterval), nil
}

// BuildAdaptive assembles an Adaptive over a pool keyed by name,
// each resolved through the basic registry with the same cfg.
func (r *Registry) BuildAdaptive(cfg strategy.Config, initialName string, names []string, rules []strategy.Rule, minBetsBeforeSwitch int) (*strategy.Adaptive, error) {
	pool := make(map[string]strategy.Strategy, len(names))
	for _, name := range names {
		s, err := r.Build(name, cfg)
		if err != nil {
			return nil, err
		}
		pool[name] = s
	}
	return strategy.NewAdaptive(cfg, initialName, pool, rules, minBetsBeforeSwitch), nil
}

// BuildParking wraps base (built through the basic registry) with
// Parking using pc, the spec §6 parking config already resolved into
// strategy.ParkingConfig.
func (r *Registry) BuildParking(cfg strategy.Config, baseName string, pc strategy.ParkingConfig) (*strategy.Parking, error) {
	base, err := r.Build(baseName, cfg)
	if err != nil {
		return nil, err
	}
	return strategy.NewParking(cfg, pc, base), nil
}

// ResolveParkingConfig turns the YAML parking block into a
// strategy.ParkingConfig. An empty parking_bet_amount falls back to
// fallbackMinBet; every other field is copied as given, so pc should
// already carry config.Record's defaults (a zero field stays zero).
func ResolveParkingConfig(pc config.ParkingConfig, fallbackMinBet money.Money) (strategy.ParkingConfig, error) {
	amount := fallbackMinBet
	if pc.ParkingBetAmount != "" {
		var err error
		amount, err = money.FromString(pc.ParkingBetAmount)
		if err != nil {
			return strategy.ParkingConfig{}, errs.WrapCode(errs.CodeConfigInvalid, err, "catalog: parse parking.parking_bet_amount")
		}
	}
	out := strategy.DefaultParkingConfig(amount)
	out.MaxTogglesBeforeBet = pc.MaxTogglesBeforeBet
	out.ParkingTarget = pc.ParkingTarget
	out.AutoSeedRotationAfter = pc.AutoSeedRotationAfter
	out.ParkingOnConsecutiveLosses = pc.ParkingOnConsecutiveLosses
	out.ParkingOnDrawdownPercent = pc.ParkingOnDrawdownPercent
	if pc.ParkingBetType == "OVER" {
		out.ParkingBetType = game.Over
	} else {
		out.ParkingBetType = game.Under
	}
	return out, nil
}
