// Package config loads and validates the YAML configuration record
// spec §6 defines: simulation knobs, game constraints, vault split,
// strategy preset, and parking behavior. Validation follows the
// teacher's load-then-init discipline: unmarshal, fill defaults, then
// run structured checks that return every problem found, not just the
// first.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dicelab/fairsim/errs"
	"github.com/dicelab/fairsim/money"
)

// Preset names one of the four canned strategy presets spec §6 and the
// GLOSSARY define.
type Preset string

const (
	Conservative Preset = "conservative"
	Moderate     Preset = "moderate"
	Aggressive   Preset = "aggressive"
	Experimental Preset = "experimental"
)

func (p Preset) valid() bool {
	switch p {
	case Conservative, Moderate, Aggressive, Experimental:
		return true
	default:
		return false
	}
}

// Record is the full configuration document, matching spec §6's
// recognised keys.
type Record struct {
	Simulation     SimulationConfig `yaml:"simulation"`
	Game           GameConfig       `yaml:"game"`
	Vault          VaultConfig      `yaml:"vault"`
	StrategyPreset Preset           `yaml:"strategy_preset"`
	Parking        ParkingConfig    `yaml:"parking"`
}

type SimulationConfig struct {
	DefaultSessions       int `yaml:"default_sessions"`
	ParallelWorkers       int `yaml:"parallel_workers"`
	AutoParallelThreshold int `yaml:"auto_parallel_threshold"`
	CheckpointInterval    int `yaml:"checkpoint_interval"`
	MaxCheckpointAgeDays  int `yaml:"max_checkpoint_age_days"`
}

type GameConfig struct {
	HouseEdge     float64 `yaml:"house_edge"`
	MinBet        string  `yaml:"min_bet"`
	MaxBet        string  `yaml:"max_bet"`
	MinMultiplier float64 `yaml:"min_multiplier"`
	MaxMultiplier float64 `yaml:"max_multiplier"`
}

type VaultConfig struct {
	VaultRatio         float64 `yaml:"vault_ratio"`
	WorkingRatio       float64 `yaml:"working_ratio"`
	MaxTransfersPerDay int     `yaml:"max_transfers_per_day"`
}

type ParkingConfig struct {
	Enabled                   bool    `yaml:"enabled"`
	MaxTogglesBeforeBet       int     `yaml:"max_toggles_before_bet"`
	ParkingBetAmount          string  `yaml:"parking_bet_amount"`
	ParkingTarget             float64 `yaml:"parking_target"`
	ParkingBetType            string  `yaml:"parking_bet_type"`
	AutoSeedRotationAfter     int     `yaml:"auto_seed_rotation_after"`
	ParkingOnConsecutiveLosses int    `yaml:"parking_on_consecutive_losses"`
	ParkingOnDrawdownPercent  float64 `yaml:"parking_on_drawdown_percent"`
}

// defaults mirrors spec §6's stated defaults. Applied before
// validation so an omitted field never fails a range check meant only
// to catch an explicitly bad value.
func (r *Record) applyDefaults() {
	if r.Simulation.AutoParallelThreshold == 0 {
		r.Simulation.AutoParallelThreshold = 50
	}
	if r.Simulation.MaxCheckpointAgeDays == 0 {
		r.Simulation.MaxCheckpointAgeDays = 30
	}
	if r.Game.HouseEdge == 0 {
		r.Game.HouseEdge = 0.01
	}
	if r.Game.MinBet == "" {
		r.Game.MinBet = "0.00015"
	}
	if r.Game.MinMultiplier == 0 {
		r.Game.MinMultiplier = 1.01
	}
	if r.Game.MaxMultiplier == 0 {
		r.Game.MaxMultiplier = 99.0
	}
	if r.Vault.VaultRatio == 0 {
		r.Vault.VaultRatio = 0.85
	}
	if r.Vault.WorkingRatio == 0 {
		r.Vault.WorkingRatio = 0.15
	}
	if r.Vault.MaxTransfersPerDay == 0 {
		r.Vault.MaxTransfersPerDay = 2
	}
	if r.Parking.MaxTogglesBeforeBet == 0 {
		r.Parking.MaxTogglesBeforeBet = 3
	}
	if r.Parking.ParkingTarget == 0 {
		r.Parking.ParkingTarget = 98.0
	}
	if r.Parking.AutoSeedRotationAfter == 0 {
		r.Parking.AutoSeedRotationAfter = 1000
	}
	if r.Parking.ParkingOnConsecutiveLosses == 0 {
		r.Parking.ParkingOnConsecutiveLosses = 5
	}
	if r.Parking.ParkingOnDrawdownPercent == 0 {
		r.Parking.ParkingOnDrawdownPercent = 0.10
	}
}

// Issue is one validation failure, carrying the remediation spec §7
// requires every CONFIG_INVALID diagnostic to suggest.
type Issue struct {
	Field       string
	Problem     string
	Remediation string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Field, i.Problem, i.Remediation)
}

// Validate runs every structural check spec §6/§7 implies and returns
// every Issue found, not just the first — a config with five problems
// should not require five separate runs to discover them all.
func (r *Record) Validate() []Issue {
	var issues []Issue

	if r.StrategyPreset != "" && !r.StrategyPreset.valid() {
		issues = append(issues, Issue{
			Field:       "strategy_preset",
			Problem:     fmt.Sprintf("unknown preset %q", r.StrategyPreset),
			Remediation: "use one of conservative, moderate, aggressive, experimental",
		})
	}
	if r.Game.MinMultiplier < 1.01 {
		issues = append(issues, Issue{
			Field:       "game.min_multiplier",
			Problem:     fmt.Sprintf("%.4f is below the house floor of 1.01", r.Game.MinMultiplier),
			Remediation: "set game.min_multiplier to at least 1.01",
		})
	}
	if r.Game.MaxMultiplier > 99.0 {
		issues = append(issues, Issue{
			Field:       "game.max_multiplier",
			Problem:     fmt.Sprintf("%.2f exceeds the house ceiling of 99.0", r.Game.MaxMultiplier),
			Remediation: "set game.max_multiplier to at most 99.0",
		})
	}
	if r.Game.HouseEdge < 0 || r.Game.HouseEdge > 0.1 {
		issues = append(issues, Issue{
			Field:       "game.house_edge",
			Problem:     fmt.Sprintf("%.4f is outside the plausible [0, 0.1] range", r.Game.HouseEdge),
			Remediation: "use a house edge between 0 and 0.1 (1% is typical)",
		})
	}

	ratioSum := r.Vault.VaultRatio + r.Vault.WorkingRatio
	if ratioSum < 0.999 || ratioSum > 1.001 {
		issues = append(issues, Issue{
			Field:       "vault.vault_ratio + vault.working_ratio",
			Problem:     fmt.Sprintf("sums to %.4f, not 1.0", ratioSum),
			Remediation: "adjust vault_ratio/working_ratio so they sum to 1.0",
		})
	}
	if r.Vault.MaxTransfersPerDay < 1 {
		issues = append(issues, Issue{
			Field:       "vault.max_transfers_per_day",
			Problem:     "must allow at least one auto-transfer per day",
			Remediation: "set vault.max_transfers_per_day to 1 or higher",
		})
	}

	if r.Simulation.AutoParallelThreshold < 1 {
		issues = append(issues, Issue{
			Field:       "simulation.auto_parallel_threshold",
			Problem:     "must be at least 1",
			Remediation: "use the default of 50, or any positive session count",
		})
	}
	if r.Simulation.MaxCheckpointAgeDays < 1 {
		issues = append(issues, Issue{
			Field:       "simulation.max_checkpoint_age_days",
			Problem:     "must be at least 1 day",
			Remediation: "use the default of 30, or any positive day count",
		})
	}

	if r.Parking.Enabled {
		if r.Parking.ParkingBetType != "" && r.Parking.ParkingBetType != "UNDER" && r.Parking.ParkingBetType != "OVER" {
			issues = append(issues, Issue{
				Field:       "parking.parking_bet_type",
				Problem:     fmt.Sprintf("%q is neither UNDER nor OVER", r.Parking.ParkingBetType),
				Remediation: "set parking.parking_bet_type to UNDER or OVER",
			})
		}
		if r.Parking.ParkingOnDrawdownPercent <= 0 || r.Parking.ParkingOnDrawdownPercent >= 1 {
			issues = append(issues, Issue{
				Field:       "parking.parking_on_drawdown_percent",
				Problem:     fmt.Sprintf("%.4f is outside (0, 1)", r.Parking.ParkingOnDrawdownPercent),
				Remediation: "express the drawdown trigger as a ratio between 0 and 1, e.g. 0.10",
			})
		}
	}

	return issues
}

// ValidateStrategySizing flags a base bet that risks a strategy run
// out of the gate — spec §7's worked example ("base_bet is 50% of
// capital; consider N"). Separate from Validate because it needs a
// resolved RunSpec's money values, not just the raw config record.
func ValidateStrategySizing(baseBet, capital money.Money) []Issue {
	if capital.IsZero() {
		return nil
	}
	ratio := baseBet.Ratio(capital)
	if ratio < 0.05 {
		return nil
	}
	suggestion, _ := capital.MulMultiplier(0.01)
	return []Issue{{
		Field:       "strategy.base_bet",
		Problem:     fmt.Sprintf("base_bet is %.0f%% of capital", ratio*100),
		Remediation: fmt.Sprintf("consider %s (1%% of capital) or lower", suggestion.String()),
	}}
}

// Default returns a Record with every default from applyDefaults
// filled in and the given strategy preset, for callers (e.g. a CLI)
// that want a ready-to-use Record without a YAML file on disk.
func Default(preset Preset) *Record {
	r := &Record{StrategyPreset: preset}
	r.applyDefaults()
	return r
}

// Load reads, unmarshals, defaults, and validates a YAML config file.
// On validation failure it returns errs.ConfigInvalid carrying every
// Issue found, joined into one message, per spec §7's requirement that
// CONFIG_INVALID surface before any session runs.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.WrapCode(errs.CodeConfigInvalid, err, "config: read file")
	}
	r := &Record{}
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, errs.WrapCode(errs.CodeConfigInvalid, err, "config: parse yaml")
	}
	r.applyDefaults()

	if issues := r.Validate(); len(issues) > 0 {
		msg := "config invalid:"
		for _, iss := range issues {
			msg += "\n  - " + iss.String()
		}
		return nil, errs.ConfigInvalid(msg)
	}
	return r, nil
}
