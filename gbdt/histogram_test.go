package gbdt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHistogramsSums(t *testing.T) {
	m := denseMatrix(t, [][]float64{
		{1, math.NaN()},
		{2, 10},
		{1, 20},
		{3, 10},
	}, []float64{1, 2, 3, 4})
	binned := mustBinned(t, m, 16)
	grads := []GradientPair{{1, 1}, {2, 1}, {3, 1}, {4, 2}}

	hists, err := BuildHistograms(binned, []int{0, 1, 2, 3}, grads, 1)
	require.NoError(t, err)
	require.Len(t, hists, 2)

	// feature 0: bins {1}, {2}, {3}
	assert.Equal(t, []HistogramBin{{4, 2, 2}, {2, 1, 1}, {4, 2, 1}}, hists[0].Bins)
	assert.Equal(t, HistogramBin{}, hists[0].Missing)
	assert.Equal(t, []float64{1.5, 2.5}, hists[0].Cuts)

	// feature 1: row 0 is missing
	assert.Equal(t, []HistogramBin{{6, 3, 2}, {3, 1, 1}}, hists[1].Bins)
	assert.Equal(t, HistogramBin{1, 1, 1}, hists[1].Missing)

	subset, err := BuildHistograms(binned, []int{1, 3}, grads, 1)
	require.NoError(t, err)
	assert.Equal(t, []HistogramBin{{}, {2, 1, 1}, {4, 2, 1}}, subset[0].Bins)
}

func TestBuildHistogramsParallelMatchesSequential(t *testing.T) {
	m := regressionData(t, 11, 3000, 5)
	binned := mustBinned(t, m, 32)
	grads := squaredGradients(t, m)
	rows := allRowIndices(m.NumRows())

	seq, err := BuildHistograms(binned, rows, grads, 1)
	require.NoError(t, err)
	par, err := BuildHistograms(binned, rows, grads, 6)
	require.NoError(t, err)
	again, err := BuildHistograms(binned, rows, grads, 6)
	require.NoError(t, err)

	assert.Equal(t, par, again, "same worker count is bit-for-bit reproducible")

	for f := range seq {
		for b := range seq[f].Bins {
			assert.Equal(t, seq[f].Bins[b].Count, par[f].Bins[b].Count)
			assert.InDelta(t, seq[f].Bins[b].Grad, par[f].Bins[b].Grad, 1e-9)
			assert.InDelta(t, seq[f].Bins[b].Hess, par[f].Bins[b].Hess, 1e-9)
		}
	}
}

func TestBuildHistogramsCoversAllRows(t *testing.T) {
	m := regressionData(t, 5, 257, 3)
	binned := mustBinned(t, m, 8)
	grads := squaredGradients(t, m)

	hists, err := BuildHistograms(binned, allRowIndices(m.NumRows()), grads, 4)
	require.NoError(t, err)
	total := SumStats(allRowIndices(m.NumRows()), grads)
	for _, h := range hists {
		count := h.Missing.Count
		var g float64
		for _, b := range h.Bins {
			count += b.Count
			g += b.Grad
		}
		assert.Equal(t, m.NumRows(), count)
		assert.InDelta(t, total.Grad, g+h.Missing.Grad, 1e-9)
	}
}

func TestBuildHistogramsEmptyRows(t *testing.T) {
	m := regressionData(t, 5, 10, 2)
	binned := mustBinned(t, m, 8)
	hists, err := BuildHistograms(binned, nil, squaredGradients(t, m), 4)
	require.NoError(t, err)
	assert.Len(t, hists, 2)
}

func TestBuildHistogramsGradientLength(t *testing.T) {
	m := regressionData(t, 5, 10, 2)
	binned := mustBinned(t, m, 8)
	_, err := BuildHistograms(binned, []int{0}, make([]GradientPair, 3), 1)
	assert.Error(t, err)
}
