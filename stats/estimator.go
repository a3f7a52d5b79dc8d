// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// EstimatorSessions summarizes a plan's sessions the way a researcher
// reads a sweep: how is ROI distributed across sessions, how often does
// a given strategy go bust, take profit, or just run out the clock.
type EstimatorSessions struct {
	ROIStat     ROIStat
	BucketStat  BucketStat
	OutcomeStat OutcomeStat
}

// ROIStat describes the ROI distribution across sessions.
type ROIStat struct {
	Median PointStat
	Perc   ROIPerc
}

type ROIPerc struct {
	P10 PointStat
	P33 PointStat
	P67 PointStat
	P90 PointStat
}

// PointStat is a point estimate with a confidence interval.
type PointStat struct {
	Hat float64
	CI  CI
}

// BucketStat is the proportion of sessions landing in each ROI bucket.
type BucketStat struct {
	Labels []string
	Counts []PointStat
}

// OutcomeStat is the proportion of sessions ending bust / take-profit /
// still alive at the run's natural end (max bets / max bankroll window).
type OutcomeStat struct {
	Bust       PointStat
	TookProfit PointStat
	Alive      PointStat
}

// EstimatePlan builds the cross-session estimate for a set of finished
// session reports. An empty input returns a zero-valued estimate.
func EstimatePlan(sts []*SessionReport) *EstimatorSessions {
	n := len(sts)
	out := &EstimatorSessions{}
	if n == 0 {
		return out
	}

	roi := make([]float64, n)
	for i, s := range sts {
		roi[i] = s.ROI()
	}

	medHat := quantilePoint(roi, 0.5)
	medLo, medHi := quantileCI(roi, 0.5, 0.95)

	p10Hat := quantilePoint(roi, 0.10)
	p10Lo, p10Hi := quantileCI(roi, 0.10, 0.95)

	p33Hat := quantilePoint(roi, 1.0/3.0)
	p33Lo, p33Hi := quantileCI(roi, 1.0/3.0, 0.95)

	p67Hat := quantilePoint(roi, 2.0/3.0)
	p67Lo, p67Hi := quantileCI(roi, 2.0/3.0, 0.95)

	p90Hat := quantilePoint(roi, 0.90)
	p90Lo, p90Hi := quantileCI(roi, 0.90, 0.95)

	out.ROIStat = ROIStat{
		Median: PointStat{Hat: medHat, CI: CI{Lo: medLo, Hi: medHi}},
		Perc: ROIPerc{
			P10: PointStat{Hat: p10Hat, CI: CI{Lo: p10Lo, Hi: p10Hi}},
			P33: PointStat{Hat: p33Hat, CI: CI{Lo: p33Lo, Hi: p33Hi}},
			P67: PointStat{Hat: p67Hat, CI: CI{Lo: p67Lo, Hi: p67Hi}},
			P90: PointStat{Hat: p90Hat, CI: CI{Lo: p90Lo, Hi: p90Hi}},
		},
	}

	labels := ROIBuckets.Labels()
	counts := make([]int, len(labels))
	for _, v := range roi {
		counts[ROIBuckets.Index(v)]++
	}
	bucketStats := make([]PointStat, len(labels))
	for i, c := range counts {
		hat, ci := proportionCICP(c, n, 0.95)
		bucketStats[i] = PointStat{Hat: hat, CI: ci}
	}
	out.BucketStat = BucketStat{Labels: labels, Counts: bucketStats}

	var bustK, profitK, aliveK int
	for _, s := range sts {
		if s.Outcome == nil {
			continue
		}
		if s.Outcome.Bust {
			bustK++
		}
		if s.Outcome.TookProfit {
			profitK++
		}
		if s.Outcome.Alive {
			aliveK++
		}
	}
	bustHat, bustCI := proportionCICP(bustK, n, 0.95)
	profitHat, profitCI := proportionCICP(profitK, n, 0.95)
	aliveHat, aliveCI := proportionCICP(aliveK, n, 0.95)
	out.OutcomeStat = OutcomeStat{
		Bust:       PointStat{Hat: bustHat, CI: bustCI},
		TookProfit: PointStat{Hat: profitHat, CI: profitCI},
		Alive:      PointStat{Hat: aliveHat, CI: aliveCI},
	}

	return out
}

// proportionCICP computes the Clopper-Pearson exact confidence interval
// for a binomial proportion (k successes out of n trials).
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// quantileCI bounds a sample quantile via the order-statistic/Beta
// duality: rank k is treated as a binomial count, inverted through the
// Clopper-Pearson interval, then mapped back to sample indices.
func quantileCI(data []float64, q, confidence float64) (float64, float64) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)

	alpha := 1 - confidence
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}

	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	li := int(pLo * float64(n))
	ui := int(pHi * float64(n))
	if ui > 0 {
		ui--
	}
	li = clampIdx(li, n)
	ui = clampIdx(ui, n)
	return cp[li], cp[ui]
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// quantilePoint returns the empirical quantile point estimate at q
// using the nearest-rank method.
func quantilePoint(data []float64, q float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)
	idx := clampIdx(int(q*float64(n)), n)
	return cp[idx]
}

// Out prints the full estimate as a sequence of readable tables.
func (est *EstimatorSessions) Out() {
	fmt.Println("=== ROI across sessions ===")
	roiKeys := []string{"Median ROI", "P10 ROI", "P33 ROI", "P67 ROI", "P90 ROI"}
	roiMsg := map[string]string{
		"Median ROI": fmtHatCIpct(est.ROIStat.Median),
		"P10 ROI":    fmtHatCIpct(est.ROIStat.Perc.P10),
		"P33 ROI":    fmtHatCIpct(est.ROIStat.Perc.P33),
		"P67 ROI":    fmtHatCIpct(est.ROIStat.Perc.P67),
		"P90 ROI":    fmtHatCIpct(est.ROIStat.Perc.P90),
	}
	printTable("ROI across sessions", roiKeys, roiMsg)

	fmt.Println("\n=== ROI bucket distribution ===")
	for i, label := range est.BucketStat.Labels {
		fmt.Printf("%-16s : %s\n", label, fmtHatCIpct(est.BucketStat.Counts[i]))
	}

	fmt.Println("\n=== Session Outcome ===")
	outKeys := []string{"Bust", "TookProfit", "Alive"}
	outMsg := map[string]string{
		"Bust":       fmtHatCIpct(est.OutcomeStat.Bust),
		"TookProfit": fmtHatCIpct(est.OutcomeStat.TookProfit),
		"Alive":      fmtHatCIpct(est.OutcomeStat.Alive),
	}
	printTable("Session Outcome", outKeys, outMsg)
}

func printTable(title string, keys []string, msg map[string]string) {
	fmt.Println(title)
	maxKeyLen := 0
	for _, k := range keys {
		if len(k) > maxKeyLen {
			maxKeyLen = len(k)
		}
	}
	for _, k := range keys {
		fmt.Printf("  %-*s : %s\n", maxKeyLen, k, msg[k])
	}
}

func fmtPct(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct(p PointStat) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct(p.Hat), fmtPct(p.CI.Lo), fmtPct(p.CI.Hi))
}
