// Package gamestate tracks the rolling state of one session: balance,
// streaks, drawdown, a bounded bet history, and the counters a Sharpe
// ratio and the parking strategy need.
package gamestate

import (
	"math"
	"time"

	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/money"
)

// DefaultHistoryWindow is the rolling bet-history size used unless a
// config overrides it. MaxHistoryWindow bounds how large it may grow.
const (
	DefaultHistoryWindow = 20
	MaxHistoryWindow     = 100
)

// GameState is the full mutable state of one session's game play. It is
// created with the session and owned exclusively by one engine.
type GameState struct {
	Balance money.Money

	BetsCount    int
	WinsCount    int
	LossesCount  int
	CurrentStreak int // signed: +n consecutive wins, -n consecutive losses

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int

	PeakBalance      money.Money
	TroughBalance    money.Money
	CurrentDrawdown  float64 // ratio, reporting-only (never fed back into Money)
	MaxDrawdown      float64

	TotalWagered money.Money
	TotalPayout  money.Money

	historyWindow int
	BetHistory    []game.BetResult

	// Parking & provably-fair counters (spec §3 supplement).
	ParkingBetsCount    int
	ParkingLosses       money.Money
	SeedRotationsCount  int
	BetTypeToggles      int

	SessionStartTime    time.Time
	SessionStartBalance money.Money
}

// New constructs a GameState with the given starting balance and
// rolling-history window. A window of 0 selects DefaultHistoryWindow; a
// window above MaxHistoryWindow is clamped.
func New(startingBalance money.Money, historyWindow int) *GameState {
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	if historyWindow > MaxHistoryWindow {
		historyWindow = MaxHistoryWindow
	}
	now := time.Now()
	return &GameState{
		Balance:             startingBalance,
		PeakBalance:         startingBalance,
		TroughBalance:       startingBalance,
		TotalWagered:        money.Zero,
		TotalPayout:         money.Zero,
		ParkingLosses:       money.Zero,
		historyWindow:       historyWindow,
		SessionStartTime:    now,
		SessionStartBalance: startingBalance,
	}
}

// Update applies a resolved bet to the state: balance, streaks,
// drawdown, history, and the running wagered/payout totals.
func (g *GameState) Update(result game.BetResult) {
	g.BetsCount++
	g.TotalWagered = g.TotalWagered.Add(result.Bet)

	g.BetHistory = append(g.BetHistory, result)
	if len(g.BetHistory) > g.historyWindow {
		g.BetHistory = g.BetHistory[len(g.BetHistory)-g.historyWindow:]
	}

	if result.Won {
		g.WinsCount++
		if g.CurrentStreak >= 0 {
			g.CurrentStreak++
		} else {
			g.CurrentStreak = 1
		}
		g.Balance = g.Balance.Add(result.Payout).Sub(result.Bet)
		g.TotalPayout = g.TotalPayout.Add(result.Payout)
		if g.CurrentStreak > g.MaxConsecutiveWins {
			g.MaxConsecutiveWins = g.CurrentStreak
		}
	} else {
		g.LossesCount++
		if g.CurrentStreak <= 0 {
			g.CurrentStreak--
		} else {
			g.CurrentStreak = -1
		}
		g.Balance = g.Balance.Add(result.Payout) // Payout is already -bet on loss
		if -g.CurrentStreak > g.MaxConsecutiveLosses {
			g.MaxConsecutiveLosses = -g.CurrentStreak
		}
	}

	g.PeakBalance = money.Max(g.PeakBalance, g.Balance)
	g.TroughBalance = money.Min(g.TroughBalance, g.Balance)

	if g.Balance.Cmp(g.PeakBalance) < 0 && g.PeakBalance.IsPositive() {
		g.CurrentDrawdown = g.PeakBalance.Sub(g.Balance).Ratio(g.PeakBalance)
		if g.CurrentDrawdown > g.MaxDrawdown {
			g.MaxDrawdown = g.CurrentDrawdown
		}
	} else {
		g.CurrentDrawdown = 0
	}
}

// WinsInRow and LossesInRow read the signed streak in each direction.
func (g *GameState) WinsInRow() int {
	if g.CurrentStreak > 0 {
		return g.CurrentStreak
	}
	return 0
}

func (g *GameState) LossesInRow() int {
	if g.CurrentStreak < 0 {
		return -g.CurrentStreak
	}
	return 0
}

// WinRate returns wins/bets, or 0 before any bet.
func (g *GameState) WinRate() float64 {
	if g.BetsCount == 0 {
		return 0
	}
	return float64(g.WinsCount) / float64(g.BetsCount)
}

// ROI returns lifetime (payout-wagered)/wagered for the session.
func (g *GameState) ROI() float64 {
	if g.TotalWagered.IsZero() {
		return 0
	}
	return g.TotalPayout.Sub(g.TotalWagered).Ratio(g.TotalWagered)
}

// SessionROI returns (balance - session_start_balance) / session_start_balance.
func (g *GameState) SessionROI() float64 {
	if g.SessionStartBalance.IsZero() {
		return 0
	}
	return g.Balance.Sub(g.SessionStartBalance).Ratio(g.SessionStartBalance)
}

// SharpeRatio computes a simplified Sharpe ratio (mean per-bet return
// over its standard deviation) across the current rolling bet history,
// matching the original implementation's windowed approximation rather
// than a whole-session accumulator — it is meant to track recent form.
func (g *GameState) SharpeRatio() float64 {
	if len(g.BetHistory) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(g.BetHistory))
	for _, b := range g.BetHistory {
		if b.Bet.IsZero() {
			continue
		}
		returns = append(returns, b.Payout.Ratio(b.Bet))
	}
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sqSum float64
	for _, r := range returns {
		d := r - mean
		sqSum += d * d
	}
	variance := sqSum / float64(len(returns)-1)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std
}

// SessionDuration returns elapsed wall-clock time since the session
// started.
func (g *GameState) SessionDuration() time.Duration {
	return time.Since(g.SessionStartTime)
}

// RecordToggle and RecordRotation update the parking/provably-fair
// counters; called by the engine when it routes an alt-action.
func (g *GameState) RecordToggle() {
	g.BetTypeToggles++
}

func (g *GameState) RecordRotation() {
	g.SeedRotationsCount++
}

// RecordParkingBet updates parking counters after a consumed parking
// bet resolves.
func (g *GameState) RecordParkingBet(result game.BetResult) {
	g.ParkingBetsCount++
	if !result.Won {
		g.ParkingLosses = g.ParkingLosses.Add(result.Bet)
	}
}
