package gbdt

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goboost/core/dataset"
	"github.com/YuminosukeSato/goboost/core/parallel"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// MaxBinLimit is the largest supported max_bin. The missing bucket takes the
// index right after the regular bins, so every index fits in a uint16.
const MaxBinLimit = math.MaxUint16

// FeatureBins holds the ordered cut thresholds of one feature. Bin b holds
// values v with Cuts[b-1] < v <= Cuts[b]; the last regular bin is unbounded
// above. A feature with zero cuts has a single bin and can never split.
type FeatureBins struct {
	Cuts []float64
}

// NumBins returns the number of regular bins.
func (f FeatureBins) NumBins() int { return len(f.Cuts) + 1 }

// Bin returns the regular bin of a present value.
func (f FeatureBins) Bin(v float64) int {
	// first cut >= v
	return sort.SearchFloat64s(f.Cuts, v)
}

// BinMapper discretizes every feature of a training matrix.
type BinMapper struct {
	features []FeatureBins
	maxBin   int
}

// NewBinMapper computes cut points for every column of m. Features are
// processed in parallel; each feature's cuts depend only on its own values.
func NewBinMapper(m *dataset.FeatureMatrix, maxBin, workers int) (*BinMapper, error) {
	if maxBin < 2 || maxBin > MaxBinLimit {
		return nil, errors.NewConfigError("max_bin", "must be in [2, 65535]", maxBin)
	}

	features := make([]FeatureBins, m.NumCols())
	parallel.ParallelizeN(m.NumCols(), workers, func(start, end int) {
		for j := start; j < end; j++ {
			features[j] = FeatureBins{Cuts: computeCuts(m, j, maxBin)}
		}
	})
	return &BinMapper{features: features, maxBin: maxBin}, nil
}

// NewBinMapperFromCuts builds a mapper from precomputed, strictly ascending
// cuts.
func NewBinMapperFromCuts(cuts [][]float64) (*BinMapper, error) {
	features := make([]FeatureBins, len(cuts))
	maxBin := 2
	for j, c := range cuts {
		for k := 1; k < len(c); k++ {
			if !(c[k-1] < c[k]) {
				return nil, errors.NewValueError("NewBinMapperFromCuts", "cuts must be strictly ascending")
			}
		}
		if len(c)+1 > MaxBinLimit {
			return nil, errors.NewConfigError("max_bin", "too many cuts for one feature", len(c))
		}
		features[j] = FeatureBins{Cuts: append([]float64(nil), c...)}
		if len(c)+1 > maxBin {
			maxBin = len(c) + 1
		}
	}
	return &BinMapper{features: features, maxBin: maxBin}, nil
}

// NumFeatures returns the number of mapped features.
func (b *BinMapper) NumFeatures() int { return len(b.features) }

// NumBins returns the number of regular bins of a feature.
func (b *BinMapper) NumBins(feature int) int { return b.features[feature].NumBins() }

// MissingBin returns the index of the missing bucket of a feature.
func (b *BinMapper) MissingBin(feature int) int { return b.features[feature].NumBins() }

// Thresholds returns the cut values of a feature. The slice is shared and
// must not be modified.
func (b *BinMapper) Thresholds(feature int) []float64 { return b.features[feature].Cuts }

// Bin maps a raw value onto its bin index; NaN maps to the missing bucket.
func (b *BinMapper) Bin(feature int, v float64) int {
	if math.IsNaN(v) {
		return b.MissingBin(feature)
	}
	return b.features[feature].Bin(v)
}

type weightedValue struct {
	v float64
	w float64
}

// computeCuts returns the cut thresholds of one column. With at most maxBin
// distinct values every gap gets a cut; otherwise cut points are taken from
// the weighted empirical quantiles at k/maxBin.
func computeCuts(m *dataset.FeatureMatrix, col, maxBin int) []float64 {
	var pairs []weightedValue
	m.EachInColumn(col, func(row int, v float64) {
		pairs = append(pairs, weightedValue{v: v, w: m.Weight(row)})
	})
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

	distinct := make([]float64, 0, len(pairs))
	for i, p := range pairs {
		if i == 0 || p.v != pairs[i-1].v {
			distinct = append(distinct, p.v)
		}
	}
	if len(distinct) == 1 {
		return nil
	}

	if len(distinct) <= maxBin {
		cuts := make([]float64, 0, len(distinct)-1)
		for i := 0; i+1 < len(distinct); i++ {
			cuts = append(cuts, midpoint(distinct[i], distinct[i+1]))
		}
		return cuts
	}

	values := make([]float64, len(pairs))
	weights := make([]float64, len(pairs))
	for i, p := range pairs {
		values[i] = p.v
		weights[i] = p.w
	}
	if floats.Sum(weights) <= 0 {
		weights = nil
	}

	cuts := make([]float64, 0, maxBin-1)
	for k := 1; k < maxBin; k++ {
		q := stat.Quantile(float64(k)/float64(maxBin), stat.Empirical, values, weights)
		idx := sort.SearchFloat64s(distinct, q)
		if idx+1 >= len(distinct) {
			continue
		}
		c := midpoint(distinct[idx], distinct[idx+1])
		if len(cuts) > 0 && c <= cuts[len(cuts)-1] {
			continue
		}
		cuts = append(cuts, c)
	}
	return cuts
}

// midpoint returns a value m with a <= m < b. A -Inf lower value yields the
// largest float below b so the cut stays finite.
func midpoint(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return math.Nextafter(b, math.Inf(-1))
	}
	m := a + (b-a)/2
	if math.IsNaN(m) || m >= b {
		return a
	}
	return m
}

// BinnedMatrix stores the bin index of every (feature, row) pair.
type BinnedMatrix struct {
	mapper  *BinMapper
	columns [][]uint16
	numRows int
}

// NewBinnedMatrix bins every value of m once. m must have the feature count
// the mapper was built for.
func NewBinnedMatrix(mapper *BinMapper, m *dataset.FeatureMatrix, workers int) (*BinnedMatrix, error) {
	if m.NumCols() != mapper.NumFeatures() {
		return nil, errors.NewShapeError("NewBinnedMatrix", mapper.NumFeatures(), m.NumCols(), 1)
	}

	columns := make([][]uint16, m.NumCols())
	parallel.ParallelizeN(m.NumCols(), workers, func(start, end int) {
		for j := start; j < end; j++ {
			col := make([]uint16, m.NumRows())
			missing := uint16(mapper.MissingBin(j))
			for i := range col {
				col[i] = missing
			}
			fb := mapper.features[j]
			m.EachInColumn(j, func(row int, v float64) {
				col[row] = uint16(fb.Bin(v))
			})
			columns[j] = col
		}
	})
	return &BinnedMatrix{mapper: mapper, columns: columns, numRows: m.NumRows()}, nil
}

// Mapper returns the mapper the matrix was binned with.
func (b *BinnedMatrix) Mapper() *BinMapper { return b.mapper }

// NumRows returns the number of rows.
func (b *BinnedMatrix) NumRows() int { return b.numRows }

// NumFeatures returns the number of features.
func (b *BinnedMatrix) NumFeatures() int { return len(b.columns) }

// Bin returns the bin index of (feature, row).
func (b *BinnedMatrix) Bin(feature, row int) int { return int(b.columns[feature][row]) }

// IsMissing reports whether (feature, row) is in the missing bucket.
func (b *BinnedMatrix) IsMissing(feature, row int) bool {
	return int(b.columns[feature][row]) == b.mapper.MissingBin(feature)
}
