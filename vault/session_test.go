package vault_test

import (
	"testing"

	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
	"github.com/dicelab/fairsim/money"
	"github.com/dicelab/fairsim/vault"
)

func TestShouldStopBankrupt(t *testing.T) {
	gs := gamestate.New(money.MustFromString("0.0001"), 0)
	s := vault.NewSession("s1", "flat", gs, -0.5, 1.0, 0, money.MustFromString("0.00015"))
	stop, reason := s.ShouldStop()
	if !stop || reason != vault.Bankrupt {
		t.Fatalf("ShouldStop = (%v,%v), want (true, Bankrupt)", stop, reason)
	}
}

func TestShouldStopLoss(t *testing.T) {
	gs := gamestate.New(money.FromInt(100), 0)
	s := vault.NewSession("s1", "flat", gs, -0.5, 1.0, 0, money.MustFromString("0.00015"))
	gs.Update(game.BetResult{Won: false, Bet: money.FromInt(60), Payout: money.FromInt(60).Neg()})
	stop, reason := s.ShouldStop()
	if !stop || reason != vault.StopLoss {
		t.Fatalf("ShouldStop = (%v,%v), want (true, StopLoss)", stop, reason)
	}
}

func TestShouldStopTakeProfit(t *testing.T) {
	gs := gamestate.New(money.FromInt(100), 0)
	s := vault.NewSession("s1", "flat", gs, -0.5, 1.0, 0, money.MustFromString("0.00015"))
	gs.Update(game.BetResult{Won: true, Bet: money.FromInt(1), Payout: money.FromInt(120)})
	stop, reason := s.ShouldStop()
	if !stop || reason != vault.TakeProfit {
		t.Fatalf("ShouldStop = (%v,%v), want (true, TakeProfit)", stop, reason)
	}
}

func TestShouldStopMaxBets(t *testing.T) {
	gs := gamestate.New(money.FromInt(1000000), 0)
	s := vault.NewSession("s1", "flat", gs, 0, 0, 3, money.MustFromString("0.00015"))
	for i := 0; i < 3; i++ {
		gs.Update(game.BetResult{Won: false, Bet: money.FromInt(1), Payout: money.FromInt(1).Neg()})
	}
	stop, reason := s.ShouldStop()
	if !stop || reason != vault.MaxBets {
		t.Fatalf("ShouldStop = (%v,%v), want (true, MaxBets)", stop, reason)
	}
}

func TestShouldStopExternalCancel(t *testing.T) {
	gs := gamestate.New(money.FromInt(1000000), 0)
	s := vault.NewSession("s1", "flat", gs, 0, 0, 0, money.MustFromString("0.00015"))
	s.Cancel()
	stop, reason := s.ShouldStop()
	if !stop || reason != vault.ExternalCancel {
		t.Fatalf("ShouldStop = (%v,%v), want (true, ExternalCancel)", stop, reason)
	}
}

func TestShouldStopFalseWhenHealthy(t *testing.T) {
	gs := gamestate.New(money.FromInt(1000000), 0)
	s := vault.NewSession("s1", "flat", gs, -0.9, 10.0, 1000, money.MustFromString("0.00015"))
	stop, _ := s.ShouldStop()
	if stop {
		t.Fatal("healthy session should not stop")
	}
}

func TestEndSetsReasonAndDuration(t *testing.T) {
	gs := gamestate.New(money.FromInt(100), 0)
	s := vault.NewSession("s1", "flat", gs, 0, 0, 0, money.MustFromString("0.00015"))
	s.End(vault.MaxBets)
	if s.StopReason != vault.MaxBets {
		t.Fatalf("StopReason = %v, want MaxBets", s.StopReason)
	}
	if s.Duration() < 0 {
		t.Fatal("duration should be non-negative")
	}
}
