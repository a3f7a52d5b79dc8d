package runner

import (
	"context"
	"testing"

	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/money"
	"github.com/dicelab/fairsim/strategy"
)

func testStrategyConfig() strategy.Config {
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

func testSessionConfig() SessionConfig {
	return SessionConfig{
		InitialBalance: money.MustFromString("1"),
		MaxBets:        20,
		MinBetFloor:    money.MustFromString("0.00015"),
		HistoryWindow:  20,
	}
}

func TestRunExecutesEverySessionSerially(t *testing.T) {
	spec := RunSpec{
		Name:           "flat-baseline",
		StrategyName:   "flat",
		StrategyConfig: testStrategyConfig(),
		SessionConfig:  testSessionConfig(),
		SessionsCount:  5,
		SeedInit:       SeedInit{ServerSeed: "runner-test-server", ClientSeed: "runner-test-client"},
	}
	r := New(Options{})
	result, err := r.Run(context.Background(), Plan{Specs: []RunSpec{spec}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Sessions) != 5 {
		t.Fatalf("expected 5 session outcomes, got %d", len(result.Sessions))
	}
	for _, s := range result.Sessions {
		if s.Err != nil {
			t.Fatalf("session %s failed: %v", s.SessionID, s.Err)
		}
		if s.Report == nil {
			t.Fatalf("session %s missing report", s.SessionID)
		}
	}
	if result.Aggregate == nil {
		t.Fatalf("expected a cross-session aggregate")
	}
}

func TestRunDispatchesAboveAutoParallelThreshold(t *testing.T) {
	spec := RunSpec{
		Name:           "flat-parallel",
		StrategyName:   "flat",
		StrategyConfig: testStrategyConfig(),
		SessionConfig:  testSessionConfig(),
		SessionsCount:  60,
		SeedInit:       SeedInit{ServerSeed: "runner-test-server", ClientSeed: "runner-test-client"},
	}
	r := New(Options{})
	result, err := r.Run(context.Background(), Plan{Specs: []RunSpec{spec}, Workers: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Sessions) != 60 {
		t.Fatalf("expected 60 session outcomes, got %d", len(result.Sessions))
	}
	seen := map[string]bool{}
	for _, s := range result.Sessions {
		if seen[s.SessionID] {
			t.Fatalf("duplicate session id %s", s.SessionID)
		}
		seen[s.SessionID] = true
	}
}

// TestResumeReproducesWholeRun is spec §8 invariant 9 (checkpoint
// idempotence): resuming from a checkpoint that already completed some
// sessions must yield the same PlanResult — every session present,
// none re-run — that a single uninterrupted run over the same spec
// produces.
func TestResumeReproducesWholeRun(t *testing.T) {
	spec := RunSpec{
		Name:           "flat-resume",
		StrategyName:   "flat",
		StrategyConfig: testStrategyConfig(),
		SessionConfig:  testSessionConfig(),
		SessionsCount:  5,
		SeedInit:       SeedInit{ServerSeed: "runner-test-server", ClientSeed: "runner-test-client"},
	}
	plan := Plan{Specs: []RunSpec{spec}}

	full, err := New(Options{}).Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error on full run: %v", err)
	}
	if len(full.Sessions) != 5 {
		t.Fatalf("expected 5 session outcomes, got %d", len(full.Sessions))
	}

	// Pretend a checkpoint already completed the first two sessions.
	resume := map[string]bool{"flat-resume-0": true, "flat-resume-1": true}
	var preloaded []SessionOutcome
	for _, s := range full.Sessions {
		if resume[s.SessionID] {
			preloaded = append(preloaded, s)
		}
	}

	resumed, err := New(Options{Resume: resume, Preloaded: preloaded}).Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error on resumed run: %v", err)
	}
	if len(resumed.Sessions) != 5 {
		t.Fatalf("expected resumed run to still have 5 session outcomes, got %d", len(resumed.Sessions))
	}

	wantIDs := map[string]bool{}
	for _, s := range full.Sessions {
		wantIDs[s.SessionID] = true
	}
	for _, s := range resumed.Sessions {
		if !wantIDs[s.SessionID] {
			t.Fatalf("unexpected session id %s in resumed result", s.SessionID)
		}
		delete(wantIDs, s.SessionID)
	}
	if len(wantIDs) != 0 {
		t.Fatalf("resumed result is missing session ids: %v", wantIDs)
	}

	// The preloaded sessions must come back byte-identical, not re-run.
	for _, want := range preloaded {
		var got *SessionOutcome
		for i := range resumed.Sessions {
			if resumed.Sessions[i].SessionID == want.SessionID {
				got = &resumed.Sessions[i]
				break
			}
		}
		if got == nil {
			t.Fatalf("preloaded session %s missing from resumed result", want.SessionID)
		}
		if got.Result.FinalBalance.String() != want.Result.FinalBalance.String() || got.Result.Bets != want.Result.Bets {
			t.Fatalf("resumed session %s = %+v, want preloaded %+v", want.SessionID, got.Result, want.Result)
		}
	}
	if resumed.Aggregate == nil {
		t.Fatalf("expected a cross-session aggregate on the resumed result")
	}
}

func TestCompareRunsEachStrategyOverIdenticalSessions(t *testing.T) {
	sessionCfg := testSessionConfig()
	flat := RunSpec{
		Name:           "flat",
		StrategyName:   "flat",
		StrategyConfig: testStrategyConfig(),
		SessionConfig:  sessionCfg,
		SessionsCount:  5,
		SeedInit:       SeedInit{ServerSeed: "compare-server", ClientSeed: "compare-client"},
	}
	martingale := flat
	martingale.Name = "martingale"
	martingale.StrategyName = "martingale"

	r := New(Options{})
	cmp, err := r.Compare(context.Background(), []RunSpec{flat, martingale}, Plan{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmp.ByStrategy) != 2 {
		t.Fatalf("expected 2 strategies compared, got %d", len(cmp.ByStrategy))
	}
	for _, name := range []string{"flat", "martingale"} {
		if cmp.ByStrategy[name] == nil {
			t.Fatalf("missing result for %s", name)
		}
	}
}
