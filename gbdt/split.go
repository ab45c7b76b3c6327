package gbdt

import (
	"math"

	"github.com/YuminosukeSato/goboost/core/parallel"
)

// SplitCandidate describes the best split of a node.
type SplitCandidate struct {
	Feature     int
	Bin         int // last bin on the left side
	Threshold   float64
	Gain        float64
	DefaultLeft bool
	Left        NodeStats
	Right       NodeStats
}

// SplitFinder evaluates candidate splits over node histograms.
type SplitFinder struct {
	Lambda         float64
	Gamma          float64
	MinChildWeight float64
	MaxDepth       int
	Workers        int
}

// minChildCount is the smallest row count a child may have.
func (f SplitFinder) minChildCount() int {
	return int(math.Max(1, math.Ceil(f.MinChildWeight)))
}

// newtonRatio is num/den, or 0 when the regularized Hessian den is not
// positive. Small positive sums are divided as is so gains and weights do
// not depend on the scale of the row weights.
func newtonRatio(num, den float64) float64 {
	if !(den > 0) {
		return 0
	}
	return num / den
}

// score is G²/(H+λ), the structure score of one side.
func (f SplitFinder) score(s NodeStats) float64 {
	return newtonRatio(s.Grad*s.Grad, s.Hess+f.Lambda)
}

// Gain is 0.5·[GL²/(HL+λ) + GR²/(HR+λ) − G²/(H+λ)] − γ.
func (f SplitFinder) Gain(left, right NodeStats) float64 {
	total := NodeStats{Grad: left.Grad + right.Grad, Hess: left.Hess + right.Hess}
	return 0.5*(f.score(left)+f.score(right)-f.score(total)) - f.Gamma
}

// LeafWeight is the Newton step −G/(H+λ).
func (f SplitFinder) LeafWeight(s NodeStats) float64 {
	return -newtonRatio(s.Grad, s.Hess+f.Lambda)
}

func (f SplitFinder) admissible(left, right NodeStats) bool {
	minCount := f.minChildCount()
	return left.Hess >= f.MinChildWeight && right.Hess >= f.MinChildWeight &&
		left.Count >= minCount && right.Count >= minCount
}

// FindBestSplit returns the split with the largest positive gain over all
// (feature, bin boundary) pairs, or false when the node must become a leaf.
// Ties go to the lowest feature, then the lowest bin.
func (f SplitFinder) FindBestSplit(hists []FeatureHistogram, total NodeStats, depth int) (SplitCandidate, bool) {
	if f.MaxDepth > 0 && depth >= f.MaxDepth {
		return SplitCandidate{}, false
	}
	if total.Count < 2*f.minChildCount() {
		return SplitCandidate{}, false
	}

	best := make([]SplitCandidate, len(hists))
	found := make([]bool, len(hists))
	parallel.ParallelizeN(len(hists), f.Workers, func(start, end int) {
		for feat := start; feat < end; feat++ {
			best[feat], found[feat] = f.bestForFeature(feat, &hists[feat], total)
		}
	})

	var result SplitCandidate
	ok := false
	for feat := range hists {
		if found[feat] && (!ok || best[feat].Gain > result.Gain) {
			result = best[feat]
			ok = true
		}
	}
	return result, ok
}

// bestForFeature scans the boundaries of one feature in ascending bin order.
// Missing rows are tried on the right first and moved left only when that
// is strictly better.
func (f SplitFinder) bestForFeature(feat int, h *FeatureHistogram, total NodeStats) (SplitCandidate, bool) {
	var best SplitCandidate
	bestGain := 0.0
	ok := false

	missing := NodeStats{Grad: h.Missing.Grad, Hess: h.Missing.Hess, Count: h.Missing.Count}
	var left NodeStats
	for b := 0; b+1 < len(h.Bins); b++ {
		left.Grad += h.Bins[b].Grad
		left.Hess += h.Bins[b].Hess
		left.Count += h.Bins[b].Count

		right := NodeStats{
			Grad:  total.Grad - left.Grad - missing.Grad,
			Hess:  total.Hess - left.Hess - missing.Hess,
			Count: total.Count - left.Count - missing.Count,
		}

		rightWithMissing := NodeStats{Grad: right.Grad + missing.Grad, Hess: right.Hess + missing.Hess, Count: right.Count + missing.Count}
		if f.admissible(left, rightWithMissing) {
			if gain := f.Gain(left, rightWithMissing); gain > bestGain {
				bestGain = gain
				best = SplitCandidate{Feature: feat, Bin: b, Threshold: h.Cuts[b], Gain: gain, Left: left, Right: rightWithMissing}
				ok = true
			}
		}

		if missing.Count == 0 {
			continue
		}
		leftWithMissing := NodeStats{Grad: left.Grad + missing.Grad, Hess: left.Hess + missing.Hess, Count: left.Count + missing.Count}
		if f.admissible(leftWithMissing, right) {
			if gain := f.Gain(leftWithMissing, right); gain > bestGain {
				bestGain = gain
				best = SplitCandidate{Feature: feat, Bin: b, Threshold: h.Cuts[b], Gain: gain, DefaultLeft: true, Left: leftWithMissing, Right: right}
				ok = true
			}
		}
	}
	return best, ok
}
