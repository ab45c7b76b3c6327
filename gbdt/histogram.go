package gbdt

import (
	"github.com/YuminosukeSato/goboost/core/parallel"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// HistogramBin accumulates gradient statistics of the rows falling into one
// bin.
type HistogramBin struct {
	Grad  float64
	Hess  float64
	Count int
}

func (b *HistogramBin) add(g GradientPair) {
	b.Grad += g.Grad
	b.Hess += g.Hess
	b.Count++
}

func (b *HistogramBin) merge(o HistogramBin) {
	b.Grad += o.Grad
	b.Hess += o.Hess
	b.Count += o.Count
}

// FeatureHistogram is the histogram of one feature over a node's rows.
// Cuts references the feature's thresholds: a split after bin b sends values
// <= Cuts[b] to the left.
type FeatureHistogram struct {
	Bins    []HistogramBin
	Missing HistogramBin
	Cuts    []float64
}

// NodeStats are the aggregate statistics of a node's rows.
type NodeStats struct {
	Grad  float64
	Hess  float64
	Count int
}

// SumStats adds up the gradient pairs of rows in row order.
func SumStats(rows []int, grads []GradientPair) NodeStats {
	var s NodeStats
	for _, r := range rows {
		s.Grad += grads[r].Grad
		s.Hess += grads[r].Hess
	}
	s.Count = len(rows)
	return s
}

func newHistograms(mapper *BinMapper) []FeatureHistogram {
	hists := make([]FeatureHistogram, mapper.NumFeatures())
	for f := range hists {
		hists[f] = FeatureHistogram{
			Bins: make([]HistogramBin, mapper.NumBins(f)),
			Cuts: mapper.Thresholds(f),
		}
	}
	return hists
}

// BuildHistograms builds one histogram per feature over the given rows.
// Rows are split into contiguous ranges, each range fills its own partial
// histograms, and partials are summed in range order. The result is
// reproducible for a fixed worker count and row order.
func BuildHistograms(binned *BinnedMatrix, rows []int, grads []GradientPair, workers int) ([]FeatureHistogram, error) {
	if len(grads) != binned.NumRows() {
		return nil, errors.NewShapeError("BuildHistograms", binned.NumRows(), len(grads), 0)
	}

	mapper := binned.Mapper()
	ranges := parallel.Ranges(len(rows), workers)
	if len(ranges) == 0 {
		return newHistograms(mapper), nil
	}

	partials := make([][]FeatureHistogram, len(ranges))
	err := parallel.ForEach(ranges, "histogram worker", func(i int, r parallel.Range) error {
		hists := newHistograms(mapper)
		for f := range hists {
			col := binned.columns[f]
			missing := mapper.MissingBin(f)
			h := &hists[f]
			for _, row := range rows[r.Start:r.End] {
				b := int(col[row])
				if b == missing {
					h.Missing.add(grads[row])
				} else {
					h.Bins[b].add(grads[row])
				}
			}
		}
		partials[i] = hists
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := partials[0]
	for _, p := range partials[1:] {
		for f := range result {
			for b := range result[f].Bins {
				result[f].Bins[b].merge(p[f].Bins[b])
			}
			result[f].Missing.merge(p[f].Missing)
		}
	}
	return result, nil
}
