package gbdt

import (
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/goboost/core/dataset"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

func TestBinMapperFewDistinctValues(t *testing.T) {
	m := denseMatrix(t, [][]float64{{1}, {3}, {2}, {3}, {1}}, nil)
	mapper, err := NewBinMapper(m, 256, 1)
	require.NoError(t, err)

	assert.Equal(t, []float64{1.5, 2.5}, mapper.Thresholds(0))
	assert.Equal(t, 3, mapper.NumBins(0))
	assert.Equal(t, 3, mapper.MissingBin(0))

	assert.Equal(t, 0, mapper.Bin(0, 1))
	assert.Equal(t, 0, mapper.Bin(0, 1.5), "a value equal to a cut stays in the lower bin")
	assert.Equal(t, 1, mapper.Bin(0, 2))
	assert.Equal(t, 2, mapper.Bin(0, 100), "last bin is unbounded above")
	assert.Equal(t, 0, mapper.Bin(0, -100))
	assert.Equal(t, 3, mapper.Bin(0, math.NaN()))
}

func TestBinMapperZeroVariance(t *testing.T) {
	m := denseMatrix(t, [][]float64{{7, 1}, {7, 2}, {7, 3}}, nil)
	mapper, err := NewBinMapper(m, 16, 1)
	require.NoError(t, err)

	assert.Empty(t, mapper.Thresholds(0))
	assert.Equal(t, 1, mapper.NumBins(0))
	assert.Len(t, mapper.Thresholds(1), 2)
}

func TestBinMapperQuantiles(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 42))
	n := 2000
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = r.NormFloat64()
	}
	m, err := dataset.NewDense(buf, n)
	require.NoError(t, err)

	for _, maxBin := range []int{2, 8, 64} {
		mapper, err := NewBinMapper(m, maxBin, 4)
		require.NoError(t, err)

		cuts := mapper.Thresholds(0)
		assert.NotEmpty(t, cuts)
		assert.LessOrEqual(t, len(cuts)+1, maxBin)
		assert.True(t, sort.Float64sAreSorted(cuts))
		for k := 1; k < len(cuts); k++ {
			assert.Less(t, cuts[k-1], cuts[k])
		}
	}

	// Equal-weight bins: each of 8 bins holds roughly n/8 rows.
	mapper, err := NewBinMapper(m, 8, 4)
	require.NoError(t, err)
	counts := make([]int, mapper.NumBins(0))
	for _, v := range buf {
		counts[mapper.Bin(0, v)]++
	}
	for _, c := range counts {
		assert.InDelta(t, n/8, c, float64(n)/40)
	}
}

func TestBinMapperWeightedQuantiles(t *testing.T) {
	// 100 distinct values; the first ten carry almost all of the weight.
	n := 100
	buf := make([]float64, n)
	weights := make([]float64, n)
	for i := range buf {
		buf[i] = float64(i)
		weights[i] = 0.01
		if i < 10 {
			weights[i] = 100
		}
	}
	m, err := dataset.NewDense(buf, n)
	require.NoError(t, err)
	require.NoError(t, m.SetWeights(weights))

	mapper, err := NewBinMapper(m, 4, 1)
	require.NoError(t, err)
	for _, c := range mapper.Thresholds(0) {
		assert.Less(t, c, 10.0, "cuts follow the weight mass")
	}
}

func TestBinMapperInvalidMaxBin(t *testing.T) {
	m := denseMatrix(t, [][]float64{{1}, {2}}, nil)
	_, err := NewBinMapper(m, 1, 1)
	var cfgErr *errors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "max_bin", cfgErr.Field)
}

func TestBinnedMatrixSparse(t *testing.T) {
	m, err := dataset.NewSparse([]dataset.Entry{
		{Row: 0, Col: 0, Value: 1},
		{Row: 1, Col: 0, Value: 2},
		{Row: 2, Col: 1, Value: 5},
	}, 3, 2)
	require.NoError(t, err)

	binned := mustBinned(t, m, 16)
	assert.Equal(t, 0, binned.Bin(0, 0))
	assert.Equal(t, 1, binned.Bin(0, 1))
	assert.True(t, binned.IsMissing(0, 2))
	assert.True(t, binned.IsMissing(1, 0))
	assert.False(t, binned.IsMissing(1, 2))
}

func TestNewBinMapperFromCuts(t *testing.T) {
	mapper, err := NewBinMapperFromCuts([][]float64{{0.5}, {}})
	require.NoError(t, err)
	assert.Equal(t, 2, mapper.NumFeatures())
	assert.Equal(t, 1, mapper.NumBins(1))

	_, err = NewBinMapperFromCuts([][]float64{{2, 1}})
	assert.Error(t, err)
}

func TestMidpoint(t *testing.T) {
	assert.Equal(t, 1.5, midpoint(1, 2))
	a := 1.0
	b := math.Nextafter(a, 2)
	got := midpoint(a, b)
	assert.True(t, got >= a && got < b)

	assert.Equal(t, math.Nextafter(1, math.Inf(-1)), midpoint(math.Inf(-1), 1))
	assert.Equal(t, math.MaxFloat64, midpoint(math.Inf(-1), math.Inf(1)))
	assert.Equal(t, 3.0, midpoint(3, math.Inf(1)))
	assert.Equal(t, -math.MaxFloat64, midpoint(-math.MaxFloat64, math.MaxFloat64))
}

func TestBinMapperNegativeInfinity(t *testing.T) {
	m := denseMatrix(t, [][]float64{{math.Inf(-1)}, {1}, {2}, {3}}, nil)
	mapper, err := NewBinMapper(m, 256, 1)
	require.NoError(t, err)

	cuts := mapper.Thresholds(0)
	require.Len(t, cuts, 3)
	for _, c := range cuts {
		assert.False(t, math.IsNaN(c) || math.IsInf(c, 0), "cut %v", c)
	}
	assert.True(t, sort.Float64sAreSorted(cuts))
	assert.Equal(t, []float64{1.5, 2.5}, cuts[1:])

	assert.Equal(t, 0, mapper.Bin(0, math.Inf(-1)))
	assert.Equal(t, 1, mapper.Bin(0, 1), "-Inf is separable from the smallest finite value")
	assert.Equal(t, 3, mapper.Bin(0, math.Inf(1)))
}
