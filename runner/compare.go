package runner

import (
	"context"

	"github.com/dicelab/fairsim/stats"
)

// ComparisonResult is several strategies run against identical session
// configs, side by side, per spec §4.8.
type ComparisonResult struct {
	ByStrategy map[string]*PlanResult
}

// Compare runs every spec in specs (each normally differing only in
// StrategyName/StrategyConfig, sharing SessionConfig/SessionsCount) and
// keys the resulting PlanResult by RunSpec.Name so callers can line up
// ROI/drawdown/survival across strategies.
func (r *Runner) Compare(ctx context.Context, specs []RunSpec, plan Plan) (*ComparisonResult, error) {
	out := &ComparisonResult{ByStrategy: make(map[string]*PlanResult, len(specs))}
	for _, spec := range specs {
		single := plan
		single.Specs = []RunSpec{spec}
		res, err := r.Run(ctx, single)
		if err != nil {
			return nil, err
		}
		out.ByStrategy[spec.Name] = res
	}
	return out, nil
}

// Aggregates returns each strategy's cross-session estimate, in the
// same key order as ByStrategy (order is not significant; callers sort
// by name for stable display).
func (c *ComparisonResult) Aggregates() map[string]*stats.EstimatorSessions {
	out := make(map[string]*stats.EstimatorSessions, len(c.ByStrategy))
	for name, pr := range c.ByStrategy {
		out[name] = pr.Aggregate
	}
	return out
}
