package sink

import (
	"encoding/json"
	"os"

	"github.com/dicelab/fairsim/errs"
	"github.com/dicelab/fairsim/runner"
)

// PerSessionSummary is one entry of the summary document's per_session
// array, per spec §6.
type PerSessionSummary struct {
	SessionID      string         `json:"session_id"`
	FinalBalance   string         `json:"final_balance"`
	ROI            float64        `json:"roi"`
	MaxDrawdown    float64        `json:"max_drawdown"`
	Bets           int            `json:"bets"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	TerminalReason string         `json:"terminal_reason"`
	Metrics        map[string]any `json:"metrics,omitempty"`
}

// Aggregate is the summary document's aggregate block: the fields a
// reader skims first to judge a whole plan at a glance.
type Aggregate struct {
	Sessions   int     `json:"sessions"`
	BustRate   float64 `json:"bust_rate"`
	ProfitRate float64 `json:"profit_rate"`
	AliveRate  float64 `json:"alive_rate"`
	MedianROI  float64 `json:"median_roi"`
}

// Summary is the complete document spec §6 calls the summary result:
// `{plan, per_session, aggregate}`.
type Summary struct {
	Plan       runner.Plan         `json:"plan"`
	PerSession []PerSessionSummary `json:"per_session"`
	Aggregate  Aggregate           `json:"aggregate"`
}

// BuildSummary projects a runner.PlanResult into the persisted summary
// shape.
func BuildSummary(result *runner.PlanResult) Summary {
	s := Summary{Plan: result.Plan}
	for _, outcome := range result.Sessions {
		if outcome.Err != nil {
			continue
		}
		r := outcome.Result
		s.PerSession = append(s.PerSession, PerSessionSummary{
			SessionID:      r.SessionID,
			FinalBalance:   r.FinalBalance.String(),
			ROI:            r.ROI,
			MaxDrawdown:    r.MaxDrawdown,
			Bets:           r.Bets,
			Wins:           r.Wins,
			Losses:         r.Losses,
			TerminalReason: r.StopReason.String(),
			Metrics: map[string]any{
				"warnings":  r.Warnings,
				"cancelled": r.Cancelled,
			},
		})
	}
	if result.Aggregate != nil {
		n := len(s.PerSession)
		s.Aggregate = Aggregate{
			Sessions:   n,
			BustRate:   result.Aggregate.OutcomeStat.Bust.Hat,
			ProfitRate: result.Aggregate.OutcomeStat.TookProfit.Hat,
			AliveRate:  result.Aggregate.OutcomeStat.Alive.Hat,
			MedianROI:  result.Aggregate.ROIStat.Median.Hat,
		}
	}
	return s
}

// WriteSummary writes the summary document as a single pretty-printed
// JSON file to path.
func WriteSummary(path string, result *runner.PlanResult) error {
	summary := BuildSummary(result)
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errs.WrapCode(errs.CodeSinkIO, err, "sink: marshal summary")
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return errs.WrapCode(errs.CodeSinkIO, err, "sink: write summary")
	}
	return nil
}
