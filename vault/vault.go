// Package vault implements the bankroll split between a long-term
// vault balance and a working balance sessions draw from, plus the
// session lifecycle state machine (stop-loss / take-profit / max-bets).
package vault

import (
	"time"

	"github.com/dicelab/fairsim/errs"
	"github.com/dicelab/fairsim/money"
)

const (
	// DefaultVaultRatio and DefaultWorkingRatio split initial capital
	// per spec §3.
	DefaultVaultRatio   = 0.85
	DefaultWorkingRatio = 0.15

	// ReplenishFloor is the fraction of working's starting size below
	// which an auto-replenish from the vault fires.
	ReplenishFloor = 0.50
	// SkimProfitThreshold is the fraction of working's starting size
	// in cumulative session profit that triggers an auto-skim to the
	// vault.
	SkimProfitThreshold = 0.10

	// DefaultMaxTransfersPerDay caps AUTO transfers in any rolling
	// 24-hour window; MANUAL transfers are never rate-limited.
	DefaultMaxTransfersPerDay = 2
)

// TransferTrigger distinguishes an automatic rebalance from an
// operator-initiated one; only AUTO transfers count against the daily
// rate limit.
type TransferTrigger int

const (
	Auto TransferTrigger = iota
	Manual
)

// Vault holds the long-term balance and the working balance a session
// draws its bankroll from. vault + working == total_capital at every
// quiescent point (outside of an in-flight transfer).
type Vault struct {
	Vault   money.Money
	Working money.Money

	vaultRatio   float64
	workingStart money.Money // working's size immediately after the last rebalance

	maxTransfersPerDay int
	transferTimes      []time.Time // rolling log of AUTO transfer timestamps, oldest first
	now                func() time.Time
}

// New splits totalCapital between vault and working per the given
// ratio (vaultRatio + workingRatio implicitly sum to 1; only vaultRatio
// is stored since working is its complement).
func New(totalCapital money.Money, vaultRatio float64, maxTransfersPerDay int) *Vault {
	if vaultRatio <= 0 || vaultRatio >= 1 {
		vaultRatio = DefaultVaultRatio
	}
	if maxTransfersPerDay <= 0 {
		maxTransfersPerDay = DefaultMaxTransfersPerDay
	}
	vaultAmt, _ := totalCapital.MulMultiplier(vaultRatio)
	working := totalCapital.Sub(vaultAmt)
	return &Vault{
		Vault:              vaultAmt,
		Working:            working,
		vaultRatio:         vaultRatio,
		workingStart:       working,
		maxTransfersPerDay: maxTransfersPerDay,
		now:                time.Now,
	}
}

// SetClock overrides the time source, for deterministic rate-limit
// tests.
func (v *Vault) SetClock(now func() time.Time) {
	v.now = now
}

// TotalCapital returns vault + working.
func (v *Vault) TotalCapital() money.Money {
	return v.Vault.Add(v.Working)
}

// CreateSession allocates a fresh session bankroll from working.
// Returns the full working balance — sessions in this design draw the
// whole working pool rather than a further sub-slice, since Working
// already represents the pool dedicated to session play.
func (v *Vault) CreateSession() money.Money {
	return v.Working
}

// CloseSession reconciles a finished session's final working balance
// against the vault: any profit is split by vaultRatio between vault
// and working (mirroring a fresh rebalance), any loss is absorbed by
// working first and then by the vault if working is insufficient.
func (v *Vault) CloseSession(finalWorking money.Money) {
	profit := finalWorking.Sub(v.Working)
	if profit.IsPositive() {
		v.Working = finalWorking
		v.skimAmount(profit, Manual)
		v.workingStart = v.Working
	} else if profit.IsNegative() {
		loss := profit.Neg()
		if loss.Cmp(v.Working) > 0 {
			remaining := loss.Sub(v.Working)
			v.Working = money.Zero
			v.Vault = v.Vault.Sub(remaining)
		} else {
			v.Working = v.Working.Sub(loss)
		}
	}
}

// Replenish tops working back up from the vault when it has fallen
// below ReplenishFloor of its starting size. AUTO triggers are subject
// to the rolling daily rate limit; MANUAL triggers always execute (and
// do not consume a rate-limit slot).
func (v *Vault) Replenish(trigger TransferTrigger) error {
	floor, _ := v.workingStart.MulMultiplier(ReplenishFloor)
	if v.Working.Cmp(floor) >= 0 {
		return nil // nothing to do
	}
	if trigger == Auto && !v.consumeTransferSlot() {
		return nil // rate-limited: silent no-op per spec §4.5
	}
	deficit := v.workingStart.Sub(v.Working)
	amount := money.Min(deficit, v.Vault)
	v.Vault = v.Vault.Sub(amount)
	v.Working = v.Working.Add(amount)
	return nil
}

// Skim moves accumulated session profit to the vault once it reaches
// SkimProfitThreshold of working's starting size.
func (v *Vault) Skim(trigger TransferTrigger) error {
	if v.workingStart.IsZero() {
		return nil
	}
	profit := v.Working.Sub(v.workingStart)
	threshold, _ := v.workingStart.MulMultiplier(SkimProfitThreshold)
	if profit.Cmp(threshold) < 0 {
		return nil
	}
	if trigger == Auto && !v.consumeTransferSlot() {
		return nil
	}
	return v.skimAmount(profit, trigger)
}

func (v *Vault) skimAmount(profit money.Money, _ TransferTrigger) error {
	if profit.IsZero() {
		return nil
	}
	vaultPortion, _ := profit.MulMultiplier(v.vaultRatio)
	workingPortion := profit.Sub(vaultPortion)
	v.Vault = v.Vault.Add(vaultPortion)
	v.Working = v.Working.Sub(profit).Add(workingPortion)
	return nil
}

// consumeTransferSlot enforces the rolling 24h AUTO-transfer budget,
// pruning timestamps older than 24h before counting. Returns false
// (and leaves state unchanged) if the budget is exhausted.
func (v *Vault) consumeTransferSlot() bool {
	now := v.now()
	cutoff := now.Add(-24 * time.Hour)
	kept := v.transferTimes[:0]
	for _, t := range v.transferTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	v.transferTimes = kept
	if len(v.transferTimes) >= v.maxTransfersPerDay {
		return false
	}
	v.transferTimes = append(v.transferTimes, now)
	return true
}

// Validate checks the vault/working == total_capital invariant, for
// assertions in tests and as a checkpoint-resume sanity check.
func (v *Vault) Validate(expectedTotal money.Money) error {
	if !v.TotalCapital().Equal(expectedTotal) {
		return errs.StateCorrupt("vault: vault+working drifted from expected total capital")
	}
	return nil
}
