package gamestate_test

import (
	"testing"
	"time"

	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
	"github.com/dicelab/fairsim/money"
)

func win(bet, payout string) game.BetResult {
	return game.BetResult{
		Won:    true,
		Bet:    money.MustFromString(bet),
		Payout: money.MustFromString(payout),
	}
}

func loss(bet string) game.BetResult {
	return game.BetResult{
		Won:    false,
		Bet:    money.MustFromString(bet),
		Payout: money.MustFromString(bet).Neg(),
	}
}

func TestUpdateTracksStreaks(t *testing.T) {
	gs := gamestate.New(money.FromInt(100), 0)
	gs.Update(win("1", "2"))
	gs.Update(win("1", "2"))
	if gs.WinsInRow() != 2 {
		t.Fatalf("WinsInRow = %d, want 2", gs.WinsInRow())
	}
	gs.Update(loss("1"))
	if gs.LossesInRow() != 1 {
		t.Fatalf("LossesInRow = %d, want 1", gs.LossesInRow())
	}
	if gs.MaxConsecutiveWins != 2 {
		t.Fatalf("MaxConsecutiveWins = %d, want 2", gs.MaxConsecutiveWins)
	}
}

func TestUpdateTracksDrawdown(t *testing.T) {
	gs := gamestate.New(money.FromInt(100), 0)
	gs.Update(win("10", "20")) // balance 110, new peak
	gs.Update(loss("10"))      // balance 100, drawdown from 110
	if gs.CurrentDrawdown <= 0 {
		t.Fatalf("expected positive drawdown, got %v", gs.CurrentDrawdown)
	}
	if gs.MaxDrawdown < gs.CurrentDrawdown {
		t.Fatal("MaxDrawdown should be at least CurrentDrawdown")
	}
}

func TestHistoryWindowBounded(t *testing.T) {
	gs := gamestate.New(money.FromInt(1000), 5)
	for i := 0; i < 20; i++ {
		gs.Update(loss("1"))
	}
	if len(gs.BetHistory) != 5 {
		t.Fatalf("history length = %d, want 5 (bounded window)", len(gs.BetHistory))
	}
}

func TestHistoryWindowClampedToMax(t *testing.T) {
	gs := gamestate.New(money.FromInt(1000), 1000)
	for i := 0; i < gamestate.MaxHistoryWindow+10; i++ {
		gs.Update(loss("1"))
	}
	if len(gs.BetHistory) != gamestate.MaxHistoryWindow {
		t.Fatalf("history length = %d, want %d", len(gs.BetHistory), gamestate.MaxHistoryWindow)
	}
}

func TestWinRateAndROI(t *testing.T) {
	gs := gamestate.New(money.FromInt(100), 0)
	gs.Update(win("1", "2"))
	gs.Update(loss("1"))
	if gs.WinRate() != 0.5 {
		t.Fatalf("WinRate = %v, want 0.5", gs.WinRate())
	}
	wantROI := (2.0 - 2.0) / 2.0 // wagered 2, payout 2
	if got := gs.ROI(); got != wantROI {
		t.Fatalf("ROI = %v, want %v", got, wantROI)
	}
}

func TestSharpeRatioRequiresTwoBets(t *testing.T) {
	gs := gamestate.New(money.FromInt(100), 0)
	if gs.SharpeRatio() != 0 {
		t.Fatal("expected zero Sharpe with no bets")
	}
	gs.Update(win("1", "2"))
	if gs.SharpeRatio() != 0 {
		t.Fatal("expected zero Sharpe with only one bet")
	}
	gs.Update(loss("1"))
	_ = gs.SharpeRatio() // just must not panic/NaN-crash with 2 bets
}

func TestSessionROI(t *testing.T) {
	gs := gamestate.New(money.FromInt(100), 0)
	gs.Update(win("10", "20"))
	want := 10.0 / 100.0
	if got := gs.SessionROI(); got != want {
		t.Fatalf("SessionROI = %v, want %v", got, want)
	}
}

func TestSessionDurationNonNegative(t *testing.T) {
	gs := gamestate.New(money.FromInt(100), 0)
	time.Sleep(time.Millisecond)
	if gs.SessionDuration() <= 0 {
		t.Fatal("expected positive session duration")
	}
}

func TestParkingCounters(t *testing.T) {
	gs := gamestate.New(money.FromInt(100), 0)
	gs.RecordToggle()
	gs.RecordToggle()
	gs.RecordRotation()
	if gs.BetTypeToggles != 2 || gs.SeedRotationsCount != 1 {
		t.Fatalf("counters = %d toggles, %d rotations", gs.BetTypeToggles, gs.SeedRotationsCount)
	}
	gs.RecordParkingBet(loss("0.00015"))
	if gs.ParkingBetsCount != 1 || gs.ParkingLosses.IsZero() {
		t.Fatal("expected parking bet loss to be recorded")
	}
}
