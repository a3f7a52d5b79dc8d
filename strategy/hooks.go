package strategy

// Hooks are the framework-fired callbacks from spec §4.4. Concrete
// strategies never call these directly; Base fires them from
// FinishDecision/FinishDecisionAs (the streak and drawdown hooks via
// CheckStreaks) as part of every Decide call. Any field
// left nil is simply not fired.
type Hooks struct {
	OnWinningStreak  func(n int)
	OnLosingStreak   func(n int)
	OnDrawdown       func(ratio float64)
	OnBeforeDecision func()
	OnAfterDecision  func(d BetDecision)
}

func (h Hooks) fireWinningStreak(n int) {
	if h.OnWinningStreak != nil {
		h.OnWinningStreak(n)
	}
}

func (h Hooks) fireLosingStreak(n int) {
	if h.OnLosingStreak != nil {
		h.OnLosingStreak(n)
	}
}

func (h Hooks) fireDrawdown(ratio float64) {
	if h.OnDrawdown != nil {
		h.OnDrawdown(ratio)
	}
}

func (h Hooks) fireBeforeDecision() {
	if h.OnBeforeDecision != nil {
		h.OnBeforeDecision()
	}
}

func (h Hooks) fireAfterDecision(d BetDecision) {
	if h.OnAfterDecision != nil {
		h.OnAfterDecision(d)
	}
}
