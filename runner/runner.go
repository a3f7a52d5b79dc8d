package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/dicelab/fairsim/engine"
	"github.com/dicelab/fairsim/events"
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
	"github.com/dicelab/fairsim/oracle"
	"github.com/dicelab/fairsim/stats"
	"github.com/dicelab/fairsim/strategy"
	"github.com/dicelab/fairsim/vault"
)

// SessionOutcome is one session's contribution to a PlanResult.
type SessionOutcome struct {
	SpecName  string
	SessionID string
	Result    engine.Result
	Report    *stats.SessionReport
	Err       error `json:"-"`
}

// PlanResult is everything a Plan run produced: per-session outcomes
// plus the cross-session estimate spec §6 calls the summary result's
// `aggregate` block.
type PlanResult struct {
	Plan     Plan
	Sessions []SessionOutcome
	Aggregate *stats.EstimatorSessions
}

// CheckpointSink receives a resumable snapshot after every
// CheckpointInterval completed sessions, per spec §4.8. Defined here
// rather than imported so the checkpoint package can depend on runner
// without a cycle.
type CheckpointSink interface {
	Write(snapshot PlanSnapshot) error
}

// PlanSnapshot is the checkpoint payload: the plan definition plus
// enough partial state to skip completed sessions on resume.
type PlanSnapshot struct {
	Plan                Plan
	CompletedSessionIDs []string
	PartialResults      []SessionOutcome
}

// Options customizes a Run beyond the Plan's own knobs.
type Options struct {
	// Registry resolves RunSpec.StrategyName to a Strategy. Defaults
	// to strategy.DefaultRegistry() when nil.
	Registry *strategy.Registry

	// EventSink, when set, is subscribed to every session's bus in
	// addition to the internal report accumulator — the hook a JSONL
	// sink attaches through.
	EventSink events.Sink

	// Checkpoint, when set, is written every CheckpointInterval
	// completed sessions (0 disables checkpointing).
	Checkpoint CheckpointSink

	// Resume skips any session whose ID is present, per the resume
	// semantics in spec §4.8.
	Resume map[string]bool

	// Preloaded seeds PlanResult.Sessions with outcomes a prior run
	// already completed — normally a loaded checkpoint's
	// PlanSnapshot.PartialResults. Resume alone only stops those
	// sessions from re-running; without Preloaded they'd simply be
	// missing from the resumed PlanResult. Pass both together so a
	// resumed run reproduces the PlanResult a single uninterrupted run
	// would have produced, per spec §8 invariant 9.
	Preloaded []SessionOutcome

	// OnSessionDone, when set, is called once per completed session
	// with the running total, so a caller can drive a progress bar
	// without polling PlanResult.
	OnSessionDone func(completed, total int)
}

// Runner executes Plans. It holds no state between calls to Run; every
// session it builds is fresh, per spec §5.
type Runner struct {
	opts Options
}

// New constructs a Runner with the given options.
func New(opts Options) *Runner {
	if opts.Registry == nil {
		opts.Registry = strategy.DefaultRegistry()
	}
	return &Runner{opts: opts}
}

// Run executes every RunSpec in plan. Specs whose SessionsCount meets
// the auto-parallel threshold dispatch their sessions across the
// worker pool; smaller specs run serially on the calling goroutine,
// avoiding pool overhead for small jobs per spec §4.8. A spec carrying
// a VaultConfig is the exception: its sessions share one vault.Vault,
// which is mutable state spanning the whole spec, so they always run
// in strict sequence on one goroutine instead — per spec §5.1, the
// "no shared mutable state across sessions" rule holds only for
// sessions that don't share a vault.
func (r *Runner) Run(ctx context.Context, plan Plan) (*PlanResult, error) {
	jobs := r.buildJobs(plan)

	pool := newSessionPool(plan.workers())
	defer pool.Close()

	results := make(chan SessionOutcome, len(jobs))
	var wg sync.WaitGroup

	threshold := plan.autoParallelThreshold()
	bySpec := specCounts(jobs)
	grouped := jobsBySpec(jobs)

	for specIdx, specJobs := range grouped {
		spec := plan.Specs[specIdx]
		if spec.VaultConfig != nil {
			wg.Add(1)
			go func(specJobs []sessionJob) {
				defer wg.Done()
				r.runVaultedSpec(ctx, specJobs, results)
			}(specJobs)
			continue
		}
		for _, job := range specJobs {
			job := job
			if r.opts.Resume[job.sessionID] {
				continue
			}
			if bySpec[job.specIdx] >= threshold {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := pool.Go(ctx, func() error {
						results <- r.runOne(ctx, job, nil)
						return nil
					})
					if err != nil {
						results <- SessionOutcome{SpecName: job.spec.Name, SessionID: job.sessionID, Err: err}
					}
				}()
			} else {
				results <- r.runOne(ctx, job, nil)
			}
		}
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := &PlanResult{Plan: plan}
	completed := make([]string, 0, len(jobs)+len(r.opts.Preloaded))
	out.Sessions = append(out.Sessions, r.opts.Preloaded...)
	for _, s := range r.opts.Preloaded {
		completed = append(completed, s.SessionID)
	}
	sinceCheckpoint := 0
	for outcome := range results {
		out.Sessions = append(out.Sessions, outcome)
		completed = append(completed, outcome.SessionID)
		sinceCheckpoint++
		if r.opts.OnSessionDone != nil {
			r.opts.OnSessionDone(len(out.Sessions), len(jobs))
		}
		if r.opts.Checkpoint != nil && plan.CheckpointInterval > 0 && sinceCheckpoint >= plan.CheckpointInterval {
			sinceCheckpoint = 0
			_ = r.opts.Checkpoint.Write(PlanSnapshot{
				Plan:                plan,
				CompletedSessionIDs: append([]string(nil), completed...),
				PartialResults:      append([]SessionOutcome(nil), out.Sessions...),
			})
		}
	}

	reports := make([]*stats.SessionReport, 0, len(out.Sessions))
	for _, s := range out.Sessions {
		if s.Report != nil {
			reports = append(reports, s.Report)
		}
	}
	out.Aggregate = stats.EstimatePlan(reports)
	return out, nil
}

func specCounts(jobs []sessionJob) map[int]int {
	counts := map[int]int{}
	for _, j := range jobs {
		counts[j.specIdx] = j.spec.SessionsCount
	}
	return counts
}

// jobsBySpec groups jobs by their originating RunSpec, preserving each
// group's session order — required for a vaulted spec, whose sessions
// must draw from and close back into the vault in order.
func jobsBySpec(jobs []sessionJob) map[int][]sessionJob {
	grouped := map[int][]sessionJob{}
	for _, j := range jobs {
		grouped[j.specIdx] = append(grouped[j.specIdx], j)
	}
	return grouped
}

// runVaultedSpec runs one spec's sessions in sequence against a single
// vault.Vault built from spec.SessionConfig.InitialBalance and
// spec.VaultConfig, per spec §3's split and §4.5's transfer rules.
// Each session draws its starting balance from the vault's working
// pool and, once it ends, returns its final balance to the vault,
// which settles profit/loss and then runs an AUTO replenish/skim pass
// before the next session draws.
func (r *Runner) runVaultedSpec(ctx context.Context, jobs []sessionJob, results chan<- SessionOutcome) {
	if len(jobs) == 0 {
		return
	}
	spec := jobs[0].spec
	v := vault.New(spec.SessionConfig.InitialBalance, spec.VaultConfig.VaultRatio, spec.VaultConfig.MaxTransfersPerDay)

	for _, job := range jobs {
		if r.opts.Resume[job.sessionID] {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		results <- r.runOne(ctx, job, v)
	}
}

func (r *Runner) buildJobs(plan Plan) []sessionJob {
	var jobs []sessionJob
	for specIdx, spec := range plan.Specs {
		for i := 0; i < spec.SessionsCount; i++ {
			jobs = append(jobs, sessionJob{
				spec:      spec,
				specIdx:   specIdx,
				index:     i,
				sessionID: fmt.Sprintf("%s-%d", spec.Name, i),
			})
		}
	}
	return jobs
}

// runOne builds a fresh oracle/game/gamestate/strategy/bus, runs the
// session to completion, and returns its outcome. Every input a
// session needs is derived solely from job (and, when v is non-nil,
// from the shared vault its spec owns), so two goroutines running
// different jobs from different specs never touch shared mutable
// state, per spec §5.1. v is non-nil only for a vaulted spec, whose
// jobs are handed to runOne one at a time by runVaultedSpec — never
// concurrently — so CreateSession/CloseSession need no locking here.
func (r *Runner) runOne(ctx context.Context, job sessionJob, v *vault.Vault) SessionOutcome {
	spec := job.spec
	serverSeed := fmt.Sprintf("%s-%d", spec.SeedInit.ServerSeed, job.index)
	clientSeed := fmt.Sprintf("%s-%d", spec.SeedInit.ClientSeed, job.index)

	o := oracle.New(serverSeed, clientSeed)
	g := game.New(o, spec.SessionConfig.MinBetFloor, spec.StrategyConfig.MaxBet)

	startingBalance := spec.SessionConfig.InitialBalance
	if v != nil {
		startingBalance = v.CreateSession()
	}

	gs := gamestate.New(startingBalance, spec.SessionConfig.HistoryWindow)
	session := vault.NewSession(job.sessionID, spec.StrategyName, gs,
		spec.SessionConfig.StopLossRatio, spec.SessionConfig.TakeProfitRatio,
		spec.SessionConfig.MaxBets, spec.SessionConfig.MinBetFloor)

	strat, err := r.opts.Registry.Build(spec.StrategyName, spec.StrategyConfig)
	if err != nil {
		return SessionOutcome{SpecName: spec.Name, SessionID: job.sessionID, Err: err}
	}
	if spec.ParkingConfig != nil {
		strat = strategy.NewParking(spec.StrategyConfig, *spec.ParkingConfig, strat)
	}

	bus := events.New(events.DefaultCapacity)
	report, reportSink := newReportSink(job.sessionID, spec.StrategyName, startingBalance)
	bus.Subscribe(reportSink)
	if r.opts.EventSink != nil {
		bus.Subscribe(r.opts.EventSink)
	}

	eng := engine.New(g, session, strat, bus, spec.SessionConfig.MinBetFloor)
	result := eng.Run(ctx)

	if v != nil {
		v.CloseSession(gs.Balance)
		_ = v.Replenish(vault.Auto)
		_ = v.Skim(vault.Auto)
	}

	finalizeOutcome(report, result.StopReason == vault.Bankrupt, result.StopReason == vault.TakeProfit, result.MaxDrawdown)

	return SessionOutcome{SpecName: spec.Name, SessionID: job.sessionID, Result: result, Report: report}
}
