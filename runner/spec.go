// Package runner executes a Plan of RunSpecs across a pool of workers,
// aggregates per-session results into a PlanResult, and drives the
// comparison and sweep modes built on top of the same primitive.
// Within a session everything is single-threaded (see spec §5); the
// runner is the only place concurrency is introduced, strictly at the
// session boundary.
package runner

import (
	"github.com/dicelab/fairsim/money"
	"github.com/dicelab/fairsim/strategy"
)

// SeedInit is the oracle seed pair a RunSpec's sessions derive their
// per-session seeds from, so a plan is bit-exact reproducible.
type SeedInit struct {
	ServerSeed string
	ClientSeed string
}

// SessionConfig is the bankroll and stop policy shared by every session
// a RunSpec produces.
type SessionConfig struct {
	InitialBalance  money.Money
	StopLossRatio   float64
	TakeProfitRatio float64
	MaxBets         int
	MinBetFloor     money.Money
	HistoryWindow   int
}

// RunSpec is one strategy run over SessionsCount independent sessions,
// per spec §4.8.
type RunSpec struct {
	Name           string
	StrategyName   string
	StrategyConfig strategy.Config
	SessionConfig  SessionConfig
	SessionsCount  int
	SeedInit       SeedInit

	// ParkingConfig, when non-nil, wraps whatever strategy the registry
	// builds in a parking wrapper; nil leaves the strategy unwrapped.
	ParkingConfig *strategy.ParkingConfig

	// VaultConfig, when set, routes every session this spec produces
	// through one shared vault.Vault instead of handing each session
	// SessionConfig.InitialBalance directly: the first session draws
	// SessionConfig.InitialBalance split vault/working, and every
	// later session draws whatever CloseSession left in working after
	// the prior session's profit/loss and auto-transfers settled. Per
	// spec §3/§4.5/§5.1, a vault is shared, mutable state scoped to
	// one spec, so a vaulted spec's sessions run strictly in sequence
	// rather than across the worker pool, regardless of how large
	// SessionsCount is.
	VaultConfig *VaultSplit
}

// VaultSplit is the subset of config.VaultConfig a RunSpec needs to
// build its vault.Vault, per spec §6's vault block.
type VaultSplit struct {
	VaultRatio         float64
	MaxTransfersPerDay int
}

// Plan is the runner's unit of work: one or more RunSpecs, plus the
// knobs spec §6's `simulation` config block exposes.
type Plan struct {
	Specs                 []RunSpec
	Workers               int
	AutoParallelThreshold int
	CheckpointInterval    int
}

// DefaultAutoParallelThreshold is the sessions_count at or above which
// a RunSpec's sessions run across the worker pool instead of serially,
// per spec §4.8.
const DefaultAutoParallelThreshold = 50

func (p Plan) autoParallelThreshold() int {
	if p.AutoParallelThreshold > 0 {
		return p.AutoParallelThreshold
	}
	return DefaultAutoParallelThreshold
}

func (p Plan) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return 4
}

// sessionJob is one resolved unit of work: a RunSpec plus the index of
// one of its sessions, carrying everything needed to build a fresh
// oracle/game/gamestate/strategy without touching any other job.
type sessionJob struct {
	spec      RunSpec
	specIdx   int
	index     int
	sessionID string
}
