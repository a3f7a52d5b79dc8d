package stats

import "sort"

// ROIBuckets partitions a session's return-on-investment (net payout
// over total wagered, as SessionReport.ROI computes it) into the fixed set of bands used for
// distribution reporting across a sweep: ruin, heavy loss, loss, roughly
// flat, gain, heavy gain, moonshot. Boundaries are on the ROI ratio
// itself, not on a bet-unit-scaled integer score, since ROI is already
// dimensionless across every strategy and bankroll size in a plan.
var ROIBuckets = &roiBuckets{
	bounds: []float64{-1.0, -0.5, -0.1, 0, 0.1, 0.5, 1.0, 5.0},
	labels: []string{
		"ruin", "(-100%,-50%]", "(-50%,-10%]", "(-10%,0%]",
		"(0%,10%]", "(10%,50%]", "(50%,100%]", "(100%,500%]", "(500%,+inf)",
	},
}

type roiBuckets struct {
	bounds []float64
	labels []string
}

// Labels returns the ordered bucket labels.
func (b *roiBuckets) Labels() []string {
	return b.labels
}

// Index returns the bucket a given ROI value falls into.
func (b *roiBuckets) Index(roi float64) int {
	if roi <= b.bounds[0] {
		return 0
	}
	i := sort.SearchFloat64s(b.bounds, roi)
	return i
}
