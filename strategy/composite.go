package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
	"github.com/dicelab/fairsim/money"
)

// CombinationMode selects how Composite reduces its sub-strategies'
// decisions into one.
type CombinationMode int

const (
	Average CombinationMode = iota
	Weighted
	Consensus
	Aggressive
	Conservative
	Rotate
)

func (m CombinationMode) String() string {
	switch m {
	case Average:
		return "AVERAGE"
	case Weighted:
		return "WEIGHTED"
	case Consensus:
		return "CONSENSUS"
	case Aggressive:
		return "AGGRESSIVE"
	case Conservative:
		return "CONSERVATIVE"
	case Rotate:
		return "ROTATE"
	default:
		return "UNKNOWN"
	}
}

// Composite wraps two or more sub-strategies and reduces their
// per-step decisions into one via CombinationMode. Every sub-strategy
// receives every Update regardless of mode.
type Composite struct {
	Base
	strategies         []Strategy
	mode               CombinationMode
	consensusThreshold float64
	rotationInterval   int

	currentIndex      int
	betsSinceRotation int
}

// NewComposite requires at least two sub-strategies. consensusThreshold
// defaults to 0.5 and rotationInterval to 10 when given as zero.
func NewComposite(cfg Config, mode CombinationMode, strategies []Strategy, consensusThreshold float64, rotationInterval int) *Composite {
	if consensusThreshold <= 0 {
		consensusThreshold = 0.5
	}
	if rotationInterval <= 0 {
		rotationInterval = 10
	}
	return &Composite{
		Base:               newBase(cfg),
		strategies:         strategies,
		mode:               mode,
		consensusThreshold: consensusThreshold,
		rotationInterval:   rotationInterval,
	}
}

type subDecision struct {
	strategy Strategy
	decision BetDecision
}

func (c *Composite) Decide(gs *gamestate.GameState) BetDecision {
	if c.mode == Rotate {
		return c.rotateMode(gs)
	}

	var live []subDecision
	for _, s := range c.strategies {
		d := s.Decide(gs)
		if !d.Skip {
			live = append(live, subDecision{s, d})
		}
	}
	if len(live) == 0 {
		return c.FinishDecision(c.Config.BaseBet, gs, c.Name(), map[string]any{"mode": c.mode.String(), "reason": "no_valid_decisions"})
	}

	switch c.mode {
	case Average:
		return c.averageMode(gs, live)
	case Weighted:
		return c.weightedMode(gs, live)
	case Consensus:
		return c.consensusMode(gs, live)
	case Aggressive:
		return c.extremeMode(gs, live, true)
	case Conservative:
		return c.extremeMode(gs, live, false)
	default:
		return c.FinishDecision(c.Config.BaseBet, gs, c.Name(), nil)
	}
}

// averageMode averages the live sub-decisions' bet amounts over exact
// Money arithmetic (no float round trip), but takes the multiplier
// from the first live sub-decision rather than averaging it, per spec
// §4.4 mode 1.
func (c *Composite) averageMode(gs *gamestate.GameState, live []subDecision) BetDecision {
	sumAmount := money.Zero
	counts := map[game.BetType]int{}
	for _, ld := range live {
		sumAmount = sumAmount.Add(ld.decision.Amount)
		counts[ld.decision.BetType]++
	}
	betType := majorityBetType(counts)
	amount := sumAmount.DivRound(decimal.NewFromInt(int64(len(live))))
	multiplier := live[0].decision.Multiplier
	return c.FinishDecisionAs(amount, betType, multiplier, gs, c.Name(), map[string]any{"mode": c.mode.String(), "members": len(live)})
}

// weightedMode weights each sub-decision's amount by its confidence.
// The confidence weight itself is an inherently float quantity, so the
// per-decision weighting goes through Money.MulMultiplier — the one
// sanctioned float entry point — but the weighted amounts are summed
// and divided over exact Money arithmetic rather than via
// InexactFloat64/FromFloatLossy.
func (c *Composite) weightedMode(gs *gamestate.GameState, live []subDecision) BetDecision {
	var totalConf float64
	for _, ld := range live {
		totalConf += ld.decision.Confidence
	}
	if totalConf == 0 {
		return c.averageMode(gs, live)
	}
	weightedAmount := money.Zero
	var weightedMult float64
	weights := map[game.BetType]float64{}
	for _, ld := range live {
		w := ld.decision.Confidence
		contribution, _ := ld.decision.Amount.MulMultiplier(w)
		weightedAmount = weightedAmount.Add(contribution)
		weightedMult += ld.decision.Multiplier * w
		weights[ld.decision.BetType] += w
	}
	betType := majorityBetTypeWeighted(weights)
	amount := weightedAmount.DivRound(decimal.NewFromFloat(totalConf))
	return c.FinishDecisionAs(amount, betType, weightedMult/totalConf, gs, c.Name(), map[string]any{"mode": c.mode.String(), "total_confidence": totalConf})
}

func (c *Composite) consensusMode(gs *gamestate.GameState, live []subDecision) BetDecision {
	counts := map[game.BetType]int{}
	for _, ld := range live {
		counts[ld.decision.BetType]++
	}
	betType, votes := bestVote(counts)
	if float64(votes)/float64(len(live)) < c.consensusThreshold {
		return BetDecision{
			Skip:   true,
			Action: ToggleBetType,
			Metadata: map[string]any{
				"strategy": c.Name(),
				"mode":     c.mode.String(),
				"reason":   "no_bet_type_consensus",
			},
		}
	}
	sumAmount := money.Zero
	var sumMult float64
	var n int
	for _, ld := range live {
		if ld.decision.BetType != betType {
			continue
		}
		sumAmount = sumAmount.Add(ld.decision.Amount)
		sumMult += ld.decision.Multiplier
		n++
	}
	amount := sumAmount.DivRound(decimal.NewFromInt(int64(n)))
	return c.FinishDecisionAs(amount, betType, sumMult/float64(n), gs, c.Name(), map[string]any{"mode": c.mode.String(), "consensus_votes": votes})
}

func (c *Composite) extremeMode(gs *gamestate.GameState, live []subDecision, aggressive bool) BetDecision {
	best := live[0]
	for _, ld := range live[1:] {
		if aggressive && ld.decision.Amount.Cmp(best.decision.Amount) > 0 {
			best = ld
		}
		if !aggressive && ld.decision.Amount.Cmp(best.decision.Amount) < 0 {
			best = ld
		}
	}
	return c.FinishDecisionAs(best.decision.Amount, best.decision.BetType, best.decision.Multiplier, gs, c.Name(), map[string]any{"mode": c.mode.String()})
}

func (c *Composite) rotateMode(gs *gamestate.GameState) BetDecision {
	current := c.strategies[c.currentIndex]
	d := current.Decide(gs)
	if d.Skip {
		return c.FinishDecision(c.Config.BaseBet, gs, c.Name(), map[string]any{"mode": c.mode.String(), "rotated_from": c.currentIndex})
	}
	d.Metadata = mergeMeta(d.Metadata, map[string]any{"mode": c.mode.String(), "rotation_index": c.currentIndex})
	return d
}

func majorityBetType(counts map[game.BetType]int) game.BetType {
	t, _ := bestVote(counts)
	return t
}

func majorityBetTypeWeighted(weights map[game.BetType]float64) game.BetType {
	best := game.Under
	bestW := -1.0
	for t, w := range weights {
		if w > bestW {
			bestW = w
			best = t
		}
	}
	return best
}

func bestVote(counts map[game.BetType]int) (game.BetType, int) {
	best := game.Under
	bestN := -1
	for t, n := range counts {
		if n > bestN {
			bestN = n
			best = t
		}
	}
	return best, bestN
}

func mergeMeta(base, extra map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (c *Composite) Update(result game.BetResult) {
	c.RecordResult(result)
	for _, s := range c.strategies {
		s.Update(result)
	}
	if c.mode == Rotate {
		c.betsSinceRotation++
		if c.betsSinceRotation >= c.rotationInterval {
			c.currentIndex = (c.currentIndex + 1) % len(c.strategies)
			c.betsSinceRotation = 0
		}
	}
}

func (c *Composite) OnAltAction(a AltAction) {
	for _, s := range c.strategies {
		s.OnAltAction(a)
	}
}

func (c *Composite) Reset() {
	c.Metrics = newMetrics()
	c.currentIndex = 0
	c.betsSinceRotation = 0
	for _, s := range c.strategies {
		s.Reset()
	}
}

func (c *Composite) Genome() map[string]any {
	members := make([]map[string]any, len(c.strategies))
	for i, s := range c.strategies {
		members[i] = s.Genome()
	}
	return c.Base.Genome(c.Name(), map[string]any{"mode": c.mode.String(), "members": members})
}

func (c *Composite) Name() string {
	return "composite." + c.mode.String()
}
