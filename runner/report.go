package runner

import (
	"github.com/dicelab/fairsim/events"
	"github.com/dicelab/fairsim/money"
	"github.com/dicelab/fairsim/stats"
)

// newReportSink returns a *stats.SessionReport and an events.Sink that
// accumulates every BET_RESULT into it. TotalPayout here is the gross
// return (stake back plus profit on a win, zero on a loss); since
// game.BetResult.Payout is signed net profit, the gross return is
// always bet+payout — positive on a win (bet*multiplier), zero on a
// loss (bet-bet).
func newReportSink(sessionID, strategyName string, initialBalance money.Money) (*stats.SessionReport, events.Sink) {
	report := &stats.SessionReport{
		Summary: &stats.SummaryReport{
			SessionID:    sessionID,
			StrategyName: strategyName,
		},
		Mult: &stats.MultReport{},
		Outcome: &stats.OutcomeReport{
			InitBalance: initialBalance.InexactFloat64(),
			MaxBalance:  initialBalance.InexactFloat64(),
			MinBalance:  initialBalance.InexactFloat64(),
		},
	}

	sink := events.SinkFunc(func(e events.Event) {
		switch e.Kind {
		case events.BetResult:
			betStr, _ := e.Payload["bet"].(string)
			payoutStr, _ := e.Payload["payout"].(string)
			won, _ := e.Payload["won"].(bool)

			bet, err := money.FromString(betStr)
			if err != nil {
				return
			}
			payout, err := money.FromString(payoutStr)
			if err != nil {
				return
			}
			gross := bet.Add(payout).InexactFloat64()
			betF := bet.InexactFloat64()

			report.Summary.TotalWagered += betF
			report.Summary.TotalPayout += gross
			report.Summary.Bets++
			if won {
				report.Summary.Wins++
			}
			if betF != 0 {
				mult := gross / betF
				report.Mult.ROIMult += mult
				report.Mult.ROIMultSqSum += mult * mult
			}
		case events.SessionEnd:
			finalStr, _ := e.Payload["final_balance"].(string)
			if final, err := money.FromString(finalStr); err == nil {
				f := final.InexactFloat64()
				report.Outcome.FinalBalance = f
				if f > report.Outcome.MaxBalance {
					report.Outcome.MaxBalance = f
				}
				if f < report.Outcome.MinBalance {
					report.Outcome.MinBalance = f
				}
			}
		}
	})

	return report, sink
}

// finalizeOutcome fills in the terminal classification and derived
// drawdown field once a session's engine.Result is known.
func finalizeOutcome(report *stats.SessionReport, bust, tookProfit bool, maxDrawdown float64) {
	report.Outcome.Bust = bust
	report.Outcome.TookProfit = tookProfit
	report.Summary.MaxDrawdown = maxDrawdown
	report.Done()
}
