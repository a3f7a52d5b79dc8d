package runner

import (
	"context"
	"fmt"

	"github.com/dicelab/fairsim/money"
)

// SweepAxis is one tunable parameter varied across a parameter sweep,
// per spec §4.8. Apply mutates a base RunSpec's StrategyConfig in
// place for one grid point.
type SweepAxis struct {
	Name  string
	Apply func(cfg *RunSpecConfigurable, value float64)
	Values []float64
}

// RunSpecConfigurable exposes the fields a sweep axis is allowed to
// vary, so a sweep can't accidentally touch SessionsCount or seeds.
type RunSpecConfigurable struct {
	BaseBet          money.Money
	Multiplier       float64
	MaxLosses        int
	TargetMultiplier float64
}

// Sweep runs one strategy over the Cartesian product of axes' values,
// producing one RunSpec per grid point, then delegates to Run.
func (r *Runner) Sweep(ctx context.Context, base RunSpec, axes []SweepAxis, plan Plan) (*PlanResult, error) {
	points := cartesian(axes)
	specs := make([]RunSpec, 0, len(points))
	for i, point := range points {
		spec := base
		spec.Name = fmt.Sprintf("%s-sweep-%d", base.Name, i)
		cfg := RunSpecConfigurable{
			BaseBet:          spec.StrategyConfig.BaseBet,
			Multiplier:       spec.StrategyConfig.Multiplier,
			MaxLosses:        spec.StrategyConfig.MaxLosses,
			TargetMultiplier: spec.StrategyConfig.TargetMultiplier,
		}
		for axisIdx, axis := range axes {
			axis.Apply(&cfg, point[axisIdx])
		}
		spec.StrategyConfig.BaseBet = cfg.BaseBet
		spec.StrategyConfig.Multiplier = cfg.Multiplier
		spec.StrategyConfig.MaxLosses = cfg.MaxLosses
		spec.StrategyConfig.TargetMultiplier = cfg.TargetMultiplier
		specs = append(specs, spec)
	}
	plan.Specs = specs
	return r.Run(ctx, plan)
}

// cartesian returns every combination of axes' Values, one combination
// per output row, axes varying fastest on the right like an odometer.
func cartesian(axes []SweepAxis) [][]float64 {
	if len(axes) == 0 {
		return nil
	}
	total := 1
	for _, a := range axes {
		total *= len(a.Values)
	}
	out := make([][]float64, total)
	for i := range out {
		row := make([]float64, len(axes))
		rem := i
		for a := len(axes) - 1; a >= 0; a-- {
			n := len(axes[a].Values)
			row[a] = axes[a].Values[rem%n]
			rem /= n
		}
		out[i] = row
	}
	return out
}
