package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dicelab/fairsim/catalog"
	"github.com/dicelab/fairsim/config"
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/money"
	"github.com/dicelab/fairsim/runner"
	"github.com/dicelab/fairsim/strategy"
)

var cfg *cliConfig = new(cliConfig)

// cliConfig holds every flag the simulate/compare/analyze/recovery
// command surface accepts.
type cliConfig struct {
	mode string // simulate | compare | analyze | recovery

	configPath string
	strategy   string
	compareAgainst string

	sessions  int
	workers   int
	capital   string
	stopLoss  float64
	takeProfit float64
	maxBets   int
	window    int

	betType    string
	multiplier float64

	serverSeed string
	clientSeed string

	outDir string
	runName string

	recoveryAction string
	analyzePath    string

	pprofMode string
	logMode   string

	vaultEnabled bool
}

func bindVar() {
	flag.StringVar(&cfg.mode, "cmd", "simulate", "command: simulate, compare, analyze, recovery")
	flag.StringVar(&cfg.configPath, "config", "", "path to the YAML configuration record")
	flag.StringVar(&cfg.strategy, "strategy", "martingale", "strategy builder name, e.g. martingale, composite.average, adaptive.flat")
	flag.StringVar(&cfg.compareAgainst, "against", "", "comma-separated strategy names to compare against -strategy")

	flag.IntVar(&cfg.sessions, "sessions", 100, "number of independent sessions to run")
	flag.IntVar(&cfg.workers, "workers", 4, "worker pool width for parallel sessions")
	flag.StringVar(&cfg.capital, "capital", "1.0", "starting balance per session")
	flag.Float64Var(&cfg.stopLoss, "stop-loss", -1.0, "stop_loss_ratio; -1 means no stop loss")
	flag.Float64Var(&cfg.takeProfit, "take-profit", 0, "take_profit_ratio; 0 means no take profit")
	flag.IntVar(&cfg.maxBets, "max-bets", 10000, "max bets per session before MAX_BETS")
	flag.IntVar(&cfg.window, "history-window", 200, "gamestate rolling history window")

	flag.StringVar(&cfg.betType, "bet-type", "UNDER", "bet_type: UNDER or OVER")
	flag.Float64Var(&cfg.multiplier, "multiplier", 2.0, "target payout multiplier")

	flag.StringVar(&cfg.serverSeed, "server-seed", "fairsim-default-server-seed", "oracle server seed")
	flag.StringVar(&cfg.clientSeed, "client-seed", "fairsim-default-client-seed", "oracle client seed")

	flag.StringVar(&cfg.outDir, "out", "./out", "root directory for logs, summaries, checkpoints")
	flag.StringVar(&cfg.runName, "name", "run", "run name, used for the summary file and checkpoint name")

	flag.StringVar(&cfg.recoveryAction, "action", "list", "recovery action: list, resume, clean")
	flag.StringVar(&cfg.analyzePath, "summary", "", "path to a summary JSON document for the analyze command")

	flag.StringVar(&cfg.pprofMode, "p", "", "pprof: '', cpu, heap, allocs")
	flag.StringVar(&cfg.logMode, "log-mode", "dev", "log mode: dev|prod|silence")

	flag.BoolVar(&cfg.vaultEnabled, "vault", false, "route sessions through a shared vault (config's vault block), forcing them to run sequentially per spec §4.5")

	flag.Parse()
}

// valid clamps or rejects obviously bad flag combinations the way the
// teacher's cmd/run does: hard errors log.Fatal, recoverable ones
// resize and warn.
func (c *cliConfig) valid() {
	p := message.NewPrinter(language.English)

	if c.sessions < 1 {
		log.Fatal("value err: -sessions must be > 0")
	}
	if c.sessions > 1_000_000 {
		p.Printf("too many sessions: %d resized to 1,000,000\n", c.sessions)
		c.sessions = 1_000_000
	}
	if c.workers < 1 {
		p.Printf("workers must be > 0, resized %d -> 1\n", c.workers)
		c.workers = 1
	}
	if c.maxBets < 1 {
		log.Fatal("value err: -max-bets must be > 0")
	}
	if c.betType != "UNDER" && c.betType != "OVER" {
		log.Fatal("value err: -bet-type must be UNDER or OVER")
	}
	if c.multiplier < 1.01 || c.multiplier > 99.0 {
		log.Fatal("value err: -multiplier must be within [1.01, 99.0]")
	}
	if _, err := money.FromString(c.capital); err != nil {
		log.Fatal(fmt.Errorf("value err: -capital: %w", err))
	}

	if c.runName == "run" {
		c.runName = fmt.Sprintf("run-%s", uuid.NewString()[:8])
	}
}

func (c *cliConfig) betTypeValue() game.BetType {
	if c.betType == "OVER" {
		return game.Over
	}
	return game.Under
}

// loadRecord reads the YAML config when -config is set, otherwise
// falls back to defaults-only, matching spec §7's rule that
// CONFIG_INVALID surfaces before any session runs.
func loadRecord() *config.Record {
	if cfg.configPath == "" {
		return config.Default(config.Moderate)
	}
	r, err := config.Load(cfg.configPath)
	if err != nil {
		log.Fatal(err)
	}
	return r
}

// buildSpec resolves flags + a config.Record into one runner.RunSpec
// for strategyName, wiring catalog.ResolveConfig and, when the config
// enables it, a parking wrapper.
func buildSpec(r *config.Record, strategyName string) runner.RunSpec {
	capital := money.MustFromString(cfg.capital)

	sc, err := catalog.ResolveConfig(r.StrategyPreset, r.Game, cfg.betTypeValue(), cfg.multiplier)
	if err != nil {
		log.Fatal(err)
	}

	if issues := config.ValidateStrategySizing(sc.BaseBet, capital); len(issues) > 0 {
		for _, iss := range issues {
			slog.Warn("CONFIG_INVALID", "issue", iss.String())
		}
	}

	var parking *strategy.ParkingConfig
	if r.Parking.Enabled {
		pc, err := catalog.ResolveParkingConfig(r.Parking, sc.MinBet)
		if err != nil {
			log.Fatal(err)
		}
		parking = &pc
	}

	spec := runner.RunSpec{
		Name:           fmt.Sprintf("%s-%s", cfg.runName, strategyName),
		StrategyName:   strategyName,
		StrategyConfig: sc,
		SessionConfig: runner.SessionConfig{
			InitialBalance:  capital,
			StopLossRatio:   cfg.stopLoss,
			TakeProfitRatio: cfg.takeProfit,
			MaxBets:         cfg.maxBets,
			MinBetFloor:     sc.MinBet,
			HistoryWindow:   cfg.window,
		},
		SessionsCount: cfg.sessions,
		SeedInit: runner.SeedInit{
			ServerSeed: cfg.serverSeed,
			ClientSeed: cfg.clientSeed,
		},
	}
	spec.ParkingConfig = parking
	if cfg.vaultEnabled {
		spec.VaultConfig = &runner.VaultSplit{
			VaultRatio:         r.Vault.VaultRatio,
			MaxTransfersPerDay: r.Vault.MaxTransfersPerDay,
		}
	}
	return spec
}
