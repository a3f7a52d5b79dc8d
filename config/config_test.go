package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dicelab/fairsim/money"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "strategy_preset: moderate\n")
	r, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Simulation.AutoParallelThreshold != 50 {
		t.Fatalf("expected default auto_parallel_threshold 50, got %d", r.Simulation.AutoParallelThreshold)
	}
	if r.Game.MinBet != "0.00015" {
		t.Fatalf("expected default min_bet, got %s", r.Game.MinBet)
	}
	if r.Vault.MaxTransfersPerDay != 2 {
		t.Fatalf("expected default max_transfers_per_day 2, got %d", r.Vault.MaxTransfersPerDay)
	}
}

func TestLoadRejectsUnknownPreset(t *testing.T) {
	path := writeConfig(t, "strategy_preset: wild\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an unknown preset")
	}
}

func TestLoadRejectsMultiplierOutOfRange(t *testing.T) {
	path := writeConfig(t, "game:\n  min_multiplier: 0.5\n  max_multiplier: 500\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for multipliers outside [1.01, 99.0]")
	}
}

func TestValidateCatchesVaultRatioMismatch(t *testing.T) {
	r := &Record{Vault: VaultConfig{VaultRatio: 0.5, WorkingRatio: 0.2}}
	r.applyDefaults()
	issues := r.Validate()
	found := false
	for _, iss := range issues {
		if iss.Field == "vault.vault_ratio + vault.working_ratio" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a vault ratio mismatch issue, got %+v", issues)
	}
}

func TestValidateStrategySizingFlagsOversizedBaseBet(t *testing.T) {
	baseBet := money.MustFromString("0.5")
	capital := money.MustFromString("1")
	issues := ValidateStrategySizing(baseBet, capital)
	if len(issues) != 1 {
		t.Fatalf("expected one issue for a 50%% base bet, got %d", len(issues))
	}
}

func TestValidateStrategySizingAllowsSmallBaseBet(t *testing.T) {
	baseBet := money.MustFromString("0.0005")
	capital := money.MustFromString("1")
	if issues := ValidateStrategySizing(baseBet, capital); len(issues) != 0 {
		t.Fatalf("expected no issues for a small base bet, got %+v", issues)
	}
}
