package engine

import (
	"context"
	"testing"

	"github.com/dicelab/fairsim/events"
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
	"github.com/dicelab/fairsim/money"
	"github.com/dicelab/fairsim/oracle"
	"github.com/dicelab/fairsim/strategy"
	"github.com/dicelab/fairsim/vault"
)

func newTestEngine(t *testing.T, strat strategy.Strategy, maxBets int) *Engine {
	t.Helper()
	o := oracle.New("engine-test-server-seed", "engine-test-client-seed")
	minBet := money.MustFromString("0.00015")
	maxBet := money.MustFromString("1000")
	g := game.New(o, minBet, maxBet)

	gs := gamestate.New(money.MustFromString("1"), 20)
	session := vault.NewSession("session-1", strat.Name(), gs, 0, 0, maxBets, minBet)

	return New(g, session, strat, nil, minBet)
}

func strategyConfig() strategy.Config {
	return strategy.Config{
		BaseBet:          money.MustFromString("0.0005"),
		MinBet:           money.MustFromString("0.00015"),
		MaxBet:           money.MustFromString("1000"),
		Multiplier:       2.0,
		MaxLosses:        5,
		BetType:          game.Under,
		TargetMultiplier: 2.0,
	}
}

func TestRunStopsAtMaxBets(t *testing.T) {
	strat := strategy.NewFlat(strategyConfig())
	e := newTestEngine(t, strat, 25)

	result := e.Run(context.Background())

	if result.StopReason != vault.MaxBets {
		t.Fatalf("expected MAX_BETS, got %s", result.StopReason)
	}
	if result.Bets != 25 {
		t.Fatalf("expected 25 resolved bets, got %d", result.Bets)
	}
	if result.Wins+result.Losses != result.Bets {
		t.Fatalf("wins+losses should equal bets: %d+%d != %d", result.Wins, result.Losses, result.Bets)
	}
}

func TestRunEmitsSessionStartAndEnd(t *testing.T) {
	strat := strategy.NewFlat(strategyConfig())
	e := newTestEngine(t, strat, 5)

	e.Run(context.Background())

	history := e.Bus.History()
	if len(history) == 0 {
		t.Fatalf("expected at least one event")
	}
	if history[0].Kind != events.SessionStart {
		t.Fatalf("expected first event to be SESSION_START, got %s", history[0].Kind)
	}
	if history[len(history)-1].Kind != events.SessionEnd {
		t.Fatalf("expected last event to be SESSION_END, got %s", history[len(history)-1].Kind)
	}
}

func TestRunRespectsExternalCancellation(t *testing.T) {
	strat := strategy.NewFlat(strategyConfig())
	e := newTestEngine(t, strat, 0) // no max_bets ceiling

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled before the loop starts

	result := e.Run(ctx)

	if result.StopReason != vault.ExternalCancel {
		t.Fatalf("expected EXTERNAL_CANCEL, got %s", result.StopReason)
	}
	if !result.Cancelled {
		t.Fatalf("expected Cancelled=true")
	}
}

func TestRunMartingaleNeverExceedsCappedAmount(t *testing.T) {
	cfg := strategyConfig()
	cfg.MaxLosses = 10
	strat := strategy.NewMartingale(cfg)
	e := newTestEngine(t, strat, 200)

	e.Run(context.Background())

	capAmount, _ := cfg.BaseBet.MulMultiplier(1 << 10) // base_bet * 2^10, spec E3
	for _, ev := range e.Bus.History() {
		if ev.Kind != events.BetResult {
			continue
		}
		bet, err := money.FromString(moneyString(ev.Payload["bet"]))
		if err != nil {
			t.Fatalf("bad bet payload: %v", err)
		}
		if bet.Cmp(capAmount) > 0 {
			t.Fatalf("martingale bet %s exceeded cap %s", bet, capAmount)
		}
	}
}

func moneyString(v any) string {
	s, _ := v.(string)
	return s
}
