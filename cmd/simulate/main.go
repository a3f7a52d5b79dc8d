package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dicelab/fairsim/checkpoint"
	"github.com/dicelab/fairsim/config"
	"github.com/dicelab/fairsim/logging"
	"github.com/dicelab/fairsim/runner"
	"github.com/dicelab/fairsim/sink"

	"github.com/dicelab/fairsim/internal/perf"
)

func main() {
	bindVar()

	sl, asyncHandler := logging.NewDefaultAsyncLogger(logging.ParseMode(cfg.logMode), 4096)
	slog.SetDefault(sl)
	defer asyncHandler.Close()

	perf.RunPProf(executeCommand, cfg.pprofMode)
}

// executeCommand dispatches to one of the four logical commands spec
// §6 names. Every path exits non-zero through log.Fatal on validation
// failure or an unrecoverable runtime error; a clean run falls through
// and main returns 0 implicitly.
func executeCommand() {
	cfg.valid()

	switch cfg.mode {
	case "simulate":
		runSimulate()
	case "compare":
		runCompare()
	case "analyze":
		runAnalyze()
	case "recovery":
		runRecovery()
	default:
		log.Fatalf("value err: unknown -cmd %q (want simulate, compare, analyze, recovery)", cfg.mode)
	}
}

func checkpointDir() string { return filepath.Join(cfg.outDir, "checkpoints") }

func runSimulate() {
	p := message.NewPrinter(language.English)
	record := loadRecord()
	spec := buildSpec(record, cfg.strategy)

	plan := runner.Plan{
		Specs:                 []runner.RunSpec{spec},
		Workers:               cfg.workers,
		AutoParallelThreshold: record.Simulation.AutoParallelThreshold,
		CheckpointInterval:    record.Simulation.CheckpointInterval,
	}

	now := time.Now()
	logSink, err := sink.Open(cfg.outDir, sink.Simulate, spec.StrategyName, cfg.runName, now)
	if err != nil {
		log.Fatal(err)
	}
	defer logSink.Close()

	ckDir := checkpointDir()
	ckWriter := checkpoint.New(ckDir, cfg.runName)

	resume := map[string]bool{}
	var preloaded []runner.SessionOutcome
	if snapshot, err := ckWriter.Load(); err == nil {
		resume = checkpoint.CompletedSet(snapshot)
		preloaded = snapshot.PartialResults
		p.Printf("resuming %s: %d sessions already complete\n", cfg.runName, len(resume))
	}

	bar := pb.StartNew(spec.SessionsCount - len(resume))

	r := runner.New(runner.Options{
		EventSink:  logSink,
		Checkpoint: ckWriter,
		Resume:     resume,
		Preloaded:  preloaded,
		OnSessionDone: func(completed, total int) {
			bar.SetCurrent(int64(completed))
		},
	})

	p.Printf("[SIMULATE] [STRATEGY:%s] [SESSIONS:%d] [WORKERS:%d]\n", spec.StrategyName, spec.SessionsCount, cfg.workers)

	result, err := r.Run(context.Background(), plan)
	bar.Finish()
	if err != nil {
		slog.Error("simulate: run failed", "run", cfg.runName, "err", err)
		log.Fatal(err)
	}
	slog.Info("simulate: run complete", "run", cfg.runName, "sessions", len(result.Sessions))

	summaryPath := filepath.Join(cfg.outDir, fmt.Sprintf("%s_summary.json", cfg.runName))
	if err := sink.WriteSummary(summaryPath, result); err != nil {
		log.Fatal(err)
	}
	p.Printf("wrote summary to %s\n", summaryPath)
	printAggregate(p, result)
}

func runCompare() {
	p := message.NewPrinter(language.English)
	record := loadRecord()

	names := []string{cfg.strategy}
	if cfg.compareAgainst != "" {
		for _, n := range strings.Split(cfg.compareAgainst, ",") {
			n = strings.TrimSpace(n)
			if n != "" {
				names = append(names, n)
			}
		}
	}
	if len(names) < 2 {
		log.Fatal("value err: -against must name at least one other strategy to compare against -strategy")
	}

	specs := make([]runner.RunSpec, 0, len(names))
	for _, name := range names {
		specs = append(specs, buildSpec(record, name))
	}

	plan := runner.Plan{
		Workers:               cfg.workers,
		AutoParallelThreshold: record.Simulation.AutoParallelThreshold,
		CheckpointInterval:    record.Simulation.CheckpointInterval,
	}

	p.Printf("[COMPARE] %s\n", strings.Join(names, " vs "))

	r := runner.New(runner.Options{})
	result, err := r.Compare(context.Background(), specs, plan)
	if err != nil {
		log.Fatal(err)
	}

	aggregates := result.Aggregates()
	for _, name := range names {
		agg := aggregates[name]
		if agg == nil {
			continue
		}
		p.Printf("  %-24s median_roi=%.4f bust=%.4f take_profit=%.4f\n",
			name, agg.ROIStat.Median.Hat, agg.OutcomeStat.Bust.Hat, agg.OutcomeStat.TookProfit.Hat)
	}

	summaryPath := filepath.Join(cfg.outDir, fmt.Sprintf("%s_compare.json", cfg.runName))
	payload, err := json.MarshalIndent(result.ByStrategy, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(summaryPath, payload, 0o644); err != nil {
		log.Fatal(err)
	}
	p.Printf("wrote comparison to %s\n", summaryPath)
}

func runAnalyze() {
	if cfg.analyzePath == "" {
		log.Fatal("value err: -summary is required for the analyze command")
	}
	data, err := os.ReadFile(cfg.analyzePath)
	if err != nil {
		log.Fatal(err)
	}
	var doc sink.Summary
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Fatal(err)
	}

	p := message.NewPrinter(language.English)
	p.Printf("[ANALYZE] %s\n", cfg.analyzePath)
	p.Printf("  sessions=%d bust_rate=%.4f profit_rate=%.4f alive_rate=%.4f median_roi=%.4f\n",
		doc.Aggregate.Sessions, doc.Aggregate.BustRate, doc.Aggregate.ProfitRate,
		doc.Aggregate.AliveRate, doc.Aggregate.MedianROI)
}

func runRecovery() {
	p := message.NewPrinter(language.English)
	ckDir := checkpointDir()

	switch cfg.recoveryAction {
	case "list":
		names, err := checkpoint.List(ckDir)
		if err != nil {
			log.Fatal(err)
		}
		if len(names) == 0 {
			p.Printf("no checkpoints found under %s\n", ckDir)
			return
		}
		for _, n := range names {
			p.Printf("  %s\n", n)
		}
	case "resume":
		record := loadRecord()
		spec := buildSpec(record, cfg.strategy)
		plan := runner.Plan{
			Specs:                 []runner.RunSpec{spec},
			Workers:               cfg.workers,
			AutoParallelThreshold: record.Simulation.AutoParallelThreshold,
			CheckpointInterval:    record.Simulation.CheckpointInterval,
		}
		ckWriter := checkpoint.New(ckDir, cfg.runName)
		snapshot, err := ckWriter.Load()
		if err != nil {
			log.Fatal(err)
		}
		resume := checkpoint.CompletedSet(snapshot)
		p.Printf("resuming %s: %d sessions already complete, %d remaining\n",
			cfg.runName, len(resume), spec.SessionsCount-len(resume))

		r := runner.New(runner.Options{Checkpoint: ckWriter, Resume: resume, Preloaded: snapshot.PartialResults})
		result, err := r.Run(context.Background(), plan)
		if err != nil {
			log.Fatal(err)
		}
		printAggregate(p, result)
	case "clean":
		maxAge := time.Duration(24) * time.Hour
		if record := loadRecordOptional(); record != nil {
			maxAge = time.Duration(record.Simulation.MaxCheckpointAgeDays) * 24 * time.Hour
		}
		if err := checkpoint.Prune(ckDir, maxAge); err != nil {
			log.Fatal(err)
		}
		p.Printf("pruned checkpoints under %s older than %s\n", ckDir, maxAge)
	default:
		log.Fatalf("value err: unknown -action %q (want list, resume, clean)", cfg.recoveryAction)
	}
}

// loadRecordOptional is loadRecord except that a config file that
// fails to load yields nil instead of exiting; recovery clean runs
// even with a missing or invalid config.
func loadRecordOptional() *config.Record {
	if cfg.configPath == "" {
		return config.Default(config.Moderate)
	}
	r, err := config.Load(cfg.configPath)
	if err != nil {
		return nil
	}
	return r
}

func printAggregate(p *message.Printer, result *runner.PlanResult) {
	if result.Aggregate == nil {
		return
	}
	p.Printf("  sessions=%d median_roi=%.4f bust=%.4f take_profit=%.4f alive=%.4f\n",
		len(result.Sessions),
		result.Aggregate.ROIStat.Median.Hat,
		result.Aggregate.OutcomeStat.Bust.Hat,
		result.Aggregate.OutcomeStat.TookProfit.Hat,
		result.Aggregate.OutcomeStat.Alive.Hat,
	)
}
