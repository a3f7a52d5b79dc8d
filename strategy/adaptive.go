package strategy

import (
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
)

// SwitchCondition names a rule trigger the adaptive strategy checks
// after every update.
type SwitchCondition int

const (
	ConsecutiveLosses SwitchCondition = iota
	ConsecutiveWins
	DrawdownPct
	ProfitPct
	LowConfidence
	BalanceBelow
	BalanceAbove
)

func (c SwitchCondition) String() string {
	switch c {
	case ConsecutiveLosses:
		return "CONSECUTIVE_LOSSES"
	case ConsecutiveWins:
		return "CONSECUTIVE_WINS"
	case DrawdownPct:
		return "DRAWDOWN_PCT"
	case ProfitPct:
		return "PROFIT_PCT"
	case LowConfidence:
		return "LOW_CONFIDENCE"
	case BalanceBelow:
		return "BALANCE_BELOW"
	case BalanceAbove:
		return "BALANCE_ABOVE"
	default:
		return "UNKNOWN"
	}
}

// Rule is one ordered entry in the adaptive strategy's switch table.
type Rule struct {
	Condition          SwitchCondition
	Threshold          float64
	TargetStrategyName string
	CooldownBets       int
}

// confidenceHolder is implemented by every concrete strategy via Base
// embedding; it lets Adaptive read the active sub-strategy's
// confidence for LOW_CONFIDENCE and carry it across a switch.
type confidenceHolder interface {
	Confidence() float64
	SetConfidence(float64)
}

// SwitchRecord is one entry of the adaptive strategy's switch history.
type SwitchRecord struct {
	AtBet     int
	From      string
	To        string
	Condition string
}

// Adaptive holds a pool of named sub-strategies and an ordered rule
// list; the first matching, non-cooling rule swaps the active
// sub-strategy. Progression state of a strategy switched away from is
// preserved so it can resume cleanly if rules switch back to it.
type Adaptive struct {
	Base
	pool                map[string]Strategy
	rules               []Rule
	minBetsBeforeSwitch int

	activeName      string
	betsSinceSwitch int
	cooldowns       map[string]int
	switchHistory   []SwitchRecord
}

// NewAdaptive requires pool to contain an entry for initialName and for
// every rule's TargetStrategyName.
func NewAdaptive(cfg Config, initialName string, pool map[string]Strategy, rules []Rule, minBetsBeforeSwitch int) *Adaptive {
	if minBetsBeforeSwitch < 0 {
		minBetsBeforeSwitch = 5
	}
	return &Adaptive{
		Base:                 newBase(cfg),
		pool:                 pool,
		rules:                rules,
		minBetsBeforeSwitch:  minBetsBeforeSwitch,
		activeName:           initialName,
		cooldowns:            map[string]int{},
	}
}

func (a *Adaptive) active() Strategy {
	return a.pool[a.activeName]
}

func (a *Adaptive) Decide(gs *gamestate.GameState) BetDecision {
	a.checkSwitch(gs)
	return a.active().Decide(gs)
}

func (a *Adaptive) checkSwitch(gs *gamestate.GameState) {
	if a.betsSinceSwitch < a.minBetsBeforeSwitch {
		return
	}
	for _, rule := range a.rules {
		if a.cooldowns[rule.TargetStrategyName] > 0 {
			continue
		}
		if a.conditionMet(rule, gs) {
			a.switchTo(rule, gs)
			return
		}
	}
}

func (a *Adaptive) conditionMet(rule Rule, gs *gamestate.GameState) bool {
	switch rule.Condition {
	case ConsecutiveLosses:
		return float64(gs.LossesInRow()) >= rule.Threshold
	case ConsecutiveWins:
		return float64(gs.WinsInRow()) >= rule.Threshold
	case DrawdownPct:
		return gs.CurrentDrawdown >= rule.Threshold
	case ProfitPct:
		return gs.SessionROI() >= rule.Threshold
	case LowConfidence:
		if ch, ok := a.active().(confidenceHolder); ok {
			return ch.Confidence() <= rule.Threshold
		}
		return false
	case BalanceBelow:
		if gs.SessionStartBalance.IsZero() {
			return false
		}
		return gs.Balance.Ratio(gs.SessionStartBalance) <= rule.Threshold
	case BalanceAbove:
		if gs.SessionStartBalance.IsZero() {
			return false
		}
		return gs.Balance.Ratio(gs.SessionStartBalance) >= rule.Threshold
	default:
		return false
	}
}

func (a *Adaptive) switchTo(rule Rule, gs *gamestate.GameState) {
	target, ok := a.pool[rule.TargetStrategyName]
	if !ok || rule.TargetStrategyName == a.activeName {
		return
	}
	outgoing := a.activeName
	a.switchHistory = append(a.switchHistory, SwitchRecord{
		AtBet:     gs.BetsCount,
		From:      outgoing,
		To:        rule.TargetStrategyName,
		Condition: rule.Condition.String(),
	})
	a.cooldowns[outgoing] = rule.CooldownBets
	a.betsSinceSwitch = 0
	a.activeName = rule.TargetStrategyName

	carried := a.Metrics.Confidence
	if src, ok := a.pool[outgoing].(confidenceHolder); ok {
		carried = src.Confidence()
	}
	if ch, ok := target.(confidenceHolder); ok {
		ch.SetConfidence(carried * 1.1)
	}
}

func (a *Adaptive) Update(result game.BetResult) {
	a.RecordResult(result)
	a.active().Update(result)
	a.betsSinceSwitch++
	for name := range a.cooldowns {
		a.cooldowns[name]--
		if a.cooldowns[name] <= 0 {
			delete(a.cooldowns, name)
		}
	}
}

func (a *Adaptive) OnAltAction(action AltAction) {
	a.active().OnAltAction(action)
}

func (a *Adaptive) Reset() {
	a.Metrics = newMetrics()
	a.betsSinceSwitch = 0
	a.cooldowns = map[string]int{}
	a.switchHistory = nil
	for _, s := range a.pool {
		s.Reset()
	}
}

// SwitchHistory returns the recorded strategy switches, oldest first.
func (a *Adaptive) SwitchHistory() []SwitchRecord {
	return append([]SwitchRecord(nil), a.switchHistory...)
}

func (a *Adaptive) Genome() map[string]any {
	return a.Base.Genome(a.Name(), map[string]any{
		"active_strategy": a.activeName,
		"switch_count":    len(a.switchHistory),
	})
}

func (a *Adaptive) Name() string {
	return "adaptive." + a.activeName
}
