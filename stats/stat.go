package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// CI is a two-sided confidence interval.
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// SessionReport accumulates one simulated session's outcome. Counters are
// added to incrementally by the engine/runner as bets settle; Done()
// finalizes the derived fields once the session ends.
type SessionReport struct {
	Summary *SummaryReport `json:"Summary"`
	Mult    *MultReport    `json:"Mult"`
	Outcome *OutcomeReport `json:"Outcome,omitzero"`
	isDone  bool
}

// SummaryReport is the per-session headline numbers.
type SummaryReport struct {
	SessionID     string  `json:"SessionID"`
	StrategyName  string  `json:"StrategyName"`
	InitialStake  float64 `json:"InitialStake"`
	TotalWagered  float64 `json:"TotalWagered"`
	TotalPayout   float64 `json:"TotalPayout"`
	ROI           float64 `json:"ROI"`
	ROICI         CI      `json:"ROICI"`
	Std           float64 `json:"Std"`
	Cv            float64 `json:"Cv"`
	MaxDrawdown   float64 `json:"MaxDrawdown"`
	Bets          int     `json:"Bets"`
	Wins          int     `json:"Wins"`
	HitRate       float64 `json:"HitRate"`
}

// MultReport carries the running sum and sum-of-squares of per-bet ROI
// multiples needed to compute variance without retaining every sample.
type MultReport struct {
	ROIMult      float64 `json:"ROIMult"`
	ROIMultSqSum float64 `json:"ROIMultSqSum"`
}

// OutcomeReport is the terminal classification of a session, populated
// once the session's stop condition fires (see vault.SessionState).
type OutcomeReport struct {
	InitBalance float64 `json:"InitBalance"`
	FinalBalance float64 `json:"FinalBalance"`
	MaxBalance  float64 `json:"MaxBalance"`
	MinBalance  float64 `json:"MinBalance"`
	Bust        bool    `json:"Bust"`
	TookProfit  bool    `json:"TookProfit"`
	Alive       bool    `json:"Alive"`
}

// Done finalizes derived fields and marks the report immutable. Safe to
// call more than once.
func (s *SessionReport) Done() {
	if s.isDone {
		return
	}
	s.Summary.ROI = s.ROI()
	s.Summary.ROICI = s.Ci()
	s.Summary.Std = s.Std()
	s.Summary.Cv = s.Cv()
	if s.Summary.Bets > 0 {
		s.Summary.HitRate = float64(s.Summary.Wins) / float64(s.Summary.Bets)
	}
	if s.Outcome != nil {
		s.Outcome.Alive = !(s.Outcome.Bust || s.Outcome.TookProfit)
	}
	s.isDone = true
}

// ROI returns (total payout - total wagered) / total wagered.
func (s *SessionReport) ROI() float64 {
	if s.Summary.TotalWagered == 0 {
		return 0
	}
	return (s.Summary.TotalPayout - s.Summary.TotalWagered) / s.Summary.TotalWagered
}

// Std returns the standard deviation of per-bet ROI multiples.
func (s *SessionReport) Std() float64 {
	n := float64(s.Summary.Bets)
	if n < 2 {
		return 0
	}
	mean := s.Mult.ROIMult / n
	variance := (s.Mult.ROIMultSqSum - mean*mean*n) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Cv returns the coefficient of variation of per-bet ROI.
func (s *SessionReport) Cv() float64 {
	roi := s.ROI()
	std := s.Std()
	if roi == 0 {
		return 0
	}
	return std / roi
}

// Ci returns a normal-approximation 95% CI around the session ROI.
func (s *SessionReport) Ci() CI {
	roi := s.ROI()
	std := s.Std()
	se := 0.0
	if s.Summary.Bets > 1 {
		se = std / math.Sqrt(float64(s.Summary.Bets))
	}
	return CI{Lo: roi - 1.96*se, Hi: roi + 1.96*se}
}

func (s *SessionReport) WriteWith(w io.Writer, rep SessionReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut prints the elapsed time and bets/sec line followed by a
// bordered summary table to stdout; the plan-level estimate report uses
// its own borderless table.
func (s *SessionReport) StdOut(elapsed time.Duration) {
	formatDuration(elapsed, s.Summary.Bets)
	keys, msg := s.fmtBasic()
	fmt.Println(fmtTable(s.Summary.StrategyName, keys, msg))
}

func formatDuration(d time.Duration, bets int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	bps := int(float64(bets) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\nbps : %d bets/sec\n", sec, bps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Printf("used: %dm %ds\nbps : %d bets/sec\n", m, s, bps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\nbps : %d bets/sec\n", h, m, s, bps)
}

func (s *SessionReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Strategy":     p.Sprintf("%s", s.Summary.StrategyName),
		"Session ID":   p.Sprintf("%s", s.Summary.SessionID),
		"Bets":         p.Sprintf("%d", s.Summary.Bets),
		"ROI":          p.Sprintf("%.2f %%", 100.0*s.Summary.ROI),
		"ROI 95% CI":   p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.Summary.ROICI.Lo, 100.0*s.Summary.ROICI.Hi),
		"Wagered":      p.Sprintf("%.2f", s.Summary.TotalWagered),
		"Payout":       p.Sprintf("%.2f", s.Summary.TotalPayout),
		"Max Drawdown": p.Sprintf("%.2f %%", 100.0*s.Summary.MaxDrawdown),
		"Hit Rate":     p.Sprintf("%.2f %%", 100.0*s.Summary.HitRate),
		"STD":          p.Sprintf("%.3f", s.Summary.Std),
		"CV":           p.Sprintf("%.3f", s.Summary.Cv),
	}
	keys := []string{"Strategy", "Session ID", "Bets", "ROI", "ROI 95% CI", "Wagered", "Payout", "Max Drawdown", "Hit Rate", "STD", "CV"}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
