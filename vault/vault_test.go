package vault_test

import (
	"testing"
	"time"

	"github.com/dicelab/fairsim/money"
	"github.com/dicelab/fairsim/vault"
)

func TestNewSplitsByRatio(t *testing.T) {
	v := vault.New(money.FromInt(250), 0.85, 2)
	if !v.TotalCapital().Equal(money.FromInt(250)) {
		t.Fatalf("TotalCapital = %s, want 250", v.TotalCapital().String())
	}
	wantVault := money.MustFromString("212.5")
	if !v.Vault.Equal(wantVault) {
		t.Fatalf("Vault = %s, want %s", v.Vault.String(), wantVault.String())
	}
}

// TestLedgerClosureAcrossTransfers is the E5 scenario: vault + working
// must equal initial capital plus cumulative PnL, exactly, after any
// number of replenishments and skims.
func TestLedgerClosureAcrossTransfers(t *testing.T) {
	initial := money.FromInt(250)
	v := vault.New(initial, 0.85, 2)
	clock := time.Unix(0, 0)
	v.SetClock(func() time.Time { return clock })

	// Simulate a losing session that drains working below the
	// replenish floor, then a winning session that triggers a skim.
	working := v.CreateSession()
	lost := working.Sub(money.MustFromString("0.01"))
	v.CloseSession(lost)
	if err := v.Replenish(vault.Auto); err != nil {
		t.Fatalf("Replenish: %v", err)
	}

	working2 := v.CreateSession()
	won := working2.Add(money.MustFromString("10"))
	v.CloseSession(won)
	if err := v.Skim(vault.Auto); err != nil {
		t.Fatalf("Skim: %v", err)
	}

	cumulativePnL := lost.Sub(working).Add(won.Sub(working2))
	want := initial.Add(cumulativePnL)
	if !v.TotalCapital().Equal(want) {
		t.Fatalf("total capital after transfers = %s, want %s", v.TotalCapital().String(), want.String())
	}
}

func TestReplenishRateLimited(t *testing.T) {
	v := vault.New(money.FromInt(100), 0.85, 2)
	clock := time.Unix(0, 0)
	v.SetClock(func() time.Time { return clock })

	working := v.CreateSession()
	v.CloseSession(working.Sub(money.MustFromString("10"))) // drop working well below floor

	// Exhaust the daily AUTO-transfer budget via Skim/Replenish calls
	// that actually move money, then verify a third AUTO call is inert.
	for i := 0; i < 2; i++ {
		if i > 0 {
			w := v.CreateSession()
			v.CloseSession(w.Sub(money.MustFromString("10")))
		}
		if err := v.Replenish(vault.Auto); err != nil {
			t.Fatalf("Replenish #%d: %v", i, err)
		}
	}
	w := v.CreateSession()
	v.CloseSession(w.Sub(money.MustFromString("10")))
	before := v.Vault
	if err := v.Replenish(vault.Auto); err != nil {
		t.Fatalf("Replenish (rate-limited): %v", err)
	}
	if !v.Vault.Equal(before) {
		t.Fatal("third AUTO transfer within 24h should have been a no-op")
	}
}

func TestManualTransferNeverRateLimited(t *testing.T) {
	v := vault.New(money.FromInt(100), 0.85, 1)
	clock := time.Unix(0, 0)
	v.SetClock(func() time.Time { return clock })

	working := v.CreateSession()
	v.CloseSession(working.Sub(money.MustFromString("10")))

	if err := v.Replenish(vault.Manual); err != nil {
		t.Fatalf("Replenish: %v", err)
	}
	if err := v.Replenish(vault.Manual); err != nil {
		t.Fatalf("Replenish: %v", err)
	}
	// Two manual replenishments should not have been blocked even
	// though maxTransfersPerDay is 1.
}

func TestCloseSessionAbsorbsLossBeyondWorking(t *testing.T) {
	v := vault.New(money.FromInt(10), 0.85, 2)
	working := v.CreateSession() // 1.5
	finalWorking := working.Sub(money.MustFromString("5"))
	if finalWorking.IsNegative() {
		finalWorking = money.Zero // session cannot go negative in practice
	}
	v.CloseSession(finalWorking)
	if v.Working.IsNegative() {
		t.Fatal("working should never go negative after CloseSession absorbs a loss")
	}
}
