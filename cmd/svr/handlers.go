package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dicelab/fairsim/catalog"
	"github.com/dicelab/fairsim/config"
	"github.com/dicelab/fairsim/errs"
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/httperr"
	"github.com/dicelab/fairsim/money"
	"github.com/dicelab/fairsim/runner"
)

// simulateRequest is the POST /v1/simulate body: enough of RunSpec for
// a single-strategy run over SessionsCount independent sessions.
type simulateRequest struct {
	Name           string  `json:"name"`
	ConfigPath     string  `json:"config_path,omitempty"`
	StrategyPreset string  `json:"strategy_preset,omitempty"`
	Strategy       string  `json:"strategy"`
	Sessions       int     `json:"sessions"`
	Workers        int     `json:"workers"`
	Capital        string  `json:"capital"`
	StopLoss       float64 `json:"stop_loss"`
	TakeProfit     float64 `json:"take_profit"`
	MaxBets        int     `json:"max_bets"`
	HistoryWindow  int     `json:"history_window"`
	BetType        string  `json:"bet_type"`
	Multiplier     float64 `json:"multiplier"`
	ServerSeed     string  `json:"server_seed"`
	ClientSeed     string  `json:"client_seed"`
	Vault          bool    `json:"vault,omitempty"`
}

// resultStore holds completed PlanResults in memory, keyed by run
// name, so a client can POST a run and GET its result back later.
type resultStore struct {
	mu      sync.RWMutex
	results map[string]*runner.PlanResult
}

func newResultStore() *resultStore {
	return &resultStore{results: make(map[string]*runner.PlanResult)}
}

func (s *resultStore) put(name string, result *runner.PlanResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[name] = result
}

func (s *resultStore) get(name string) (*runner.PlanResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[name]
	return r, ok
}

func (s *resultStore) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, errs.ConfigInvalid("svr: invalid json body: "+err.Error()))
		return
	}

	spec, err := buildSpecFromRequest(req)
	if err != nil {
		slog.Warn("simulate: bad request", "err", err)
		httperr.Write(w, err)
		return
	}

	plan := runner.Plan{
		Specs:   []runner.RunSpec{spec},
		Workers: req.Workers,
	}

	rn := runner.New(runner.Options{})
	result, err := rn.Run(r.Context(), plan)
	if err != nil {
		slog.Error("simulate: run failed", "name", spec.Name, "err", err)
		httperr.Write(w, err)
		return
	}
	slog.Info("simulate: run complete", "name", spec.Name, "sessions", len(result.Sessions))

	s.put(spec.Name, result)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *resultStore) handleGetResult(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	result, ok := s.get(name)
	if !ok {
		httperr.Write(w, errs.StateCorrupt("svr: no stored result for run "+name))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// buildSpecFromRequest resolves a simulateRequest into a runner.RunSpec,
// filling defaults for an omitted name, strategy, sessions, capital,
// max_bets, multiplier and seeds. The seed defaults are svr-specific,
// and stop_loss, take_profit, history_window and workers are passed
// through as given, so an omitted one is not replaced by cmd/simulate's
// flag default.
func buildSpecFromRequest(req simulateRequest) (runner.RunSpec, error) {
	preset := config.Preset(req.StrategyPreset)
	if preset == "" {
		preset = config.Moderate
	}
	record := config.Default(preset)
	if req.ConfigPath != "" {
		r, err := config.Load(req.ConfigPath)
		if err != nil {
			return runner.RunSpec{}, err
		}
		record = r
	}

	if req.Name == "" {
		req.Name = "svr-" + uuid.NewString()[:8]
	}
	if req.Strategy == "" {
		req.Strategy = "martingale"
	}
	if req.Sessions < 1 {
		req.Sessions = 1
	}
	if req.Capital == "" {
		req.Capital = "1.0"
	}
	if req.MaxBets < 1 {
		req.MaxBets = 10000
	}
	if req.Multiplier == 0 {
		req.Multiplier = 2.0
	}
	if req.ServerSeed == "" {
		req.ServerSeed = "fairsim-svr-server-seed"
	}
	if req.ClientSeed == "" {
		req.ClientSeed = "fairsim-svr-client-seed"
	}

	capital, err := money.FromString(req.Capital)
	if err != nil {
		return runner.RunSpec{}, errs.WrapCode(errs.CodeConfigInvalid, err, "svr: parse capital")
	}

	betType := game.Under
	if req.BetType == "OVER" {
		betType = game.Over
	}

	sc, err := catalog.ResolveConfig(record.StrategyPreset, record.Game, betType, req.Multiplier)
	if err != nil {
		return runner.RunSpec{}, err
	}

	spec := runner.RunSpec{
		Name:           req.Name,
		StrategyName:   req.Strategy,
		StrategyConfig: sc,
		SessionConfig: runner.SessionConfig{
			InitialBalance:  capital,
			StopLossRatio:   req.StopLoss,
			TakeProfitRatio: req.TakeProfit,
			MaxBets:         req.MaxBets,
			MinBetFloor:     sc.MinBet,
			HistoryWindow:   req.HistoryWindow,
		},
		SessionsCount: req.Sessions,
		SeedInit: runner.SeedInit{
			ServerSeed: req.ServerSeed,
			ClientSeed: req.ClientSeed,
		},
	}

	if record.Parking.Enabled {
		pc, err := catalog.ResolveParkingConfig(record.Parking, sc.MinBet)
		if err != nil {
			return runner.RunSpec{}, err
		}
		spec.ParkingConfig = &pc
	}

	if req.Vault {
		spec.VaultConfig = &runner.VaultSplit{
			VaultRatio:         record.Vault.VaultRatio,
			MaxTransfersPerDay: record.Vault.MaxTransfersPerDay,
		}
	}

	return spec, nil
}
