package gbdt

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/goboost/core/dataset"
	"github.com/YuminosukeSato/goboost/pkg/log"
)

func init() {
	log.SetProvider(log.NewZerologProvider(&bytes.Buffer{}, log.LevelError))
}

// denseMatrix builds a labelled dense matrix from rows.
func denseMatrix(t *testing.T, rows [][]float64, labels []float64) *dataset.FeatureMatrix {
	t.Helper()
	buf := make([]float64, 0, len(rows)*len(rows[0]))
	for _, r := range rows {
		buf = append(buf, r...)
	}
	m, err := dataset.NewDense(buf, len(rows))
	require.NoError(t, err)
	if labels != nil {
		require.NoError(t, m.SetLabels(labels))
	}
	return m
}

// regressionData returns n rows of f features with y = 3·x0 − 2·x1 + noise.
func regressionData(t *testing.T, seed uint64, n, f int) *dataset.FeatureMatrix {
	t.Helper()
	r := rand.New(rand.NewPCG(seed, seed))
	rows := make([][]float64, n)
	labels := make([]float64, n)
	for i := range rows {
		row := make([]float64, f)
		for j := range row {
			row[j] = r.NormFloat64()
		}
		rows[i] = row
		labels[i] = 3*row[0] - 2*row[1] + 0.1*r.NormFloat64()
	}
	return denseMatrix(t, rows, labels)
}

// classificationData returns n rows with label 1 when x0 + x1 > 0.
func classificationData(t *testing.T, seed uint64, n int) *dataset.FeatureMatrix {
	t.Helper()
	r := rand.New(rand.NewPCG(seed, seed))
	rows := make([][]float64, n)
	labels := make([]float64, n)
	for i := range rows {
		rows[i] = []float64{r.NormFloat64(), r.NormFloat64(), r.NormFloat64()}
		if rows[i][0]+rows[i][1] > 0 {
			labels[i] = 1
		}
	}
	return denseMatrix(t, rows, labels)
}

func allRowIndices(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func mustBinned(t *testing.T, m *dataset.FeatureMatrix, maxBin int) *BinnedMatrix {
	t.Helper()
	mapper, err := NewBinMapper(m, maxBin, 2)
	require.NoError(t, err)
	binned, err := NewBinnedMatrix(mapper, m, 2)
	require.NoError(t, err)
	return binned
}

func squaredGradients(t *testing.T, m *dataset.FeatureMatrix) []GradientPair {
	t.Helper()
	preds := make([]float64, m.NumRows())
	grads, err := ComputeGradients(squaredError{}, preds, m.Labels(), m.Weights(), 2)
	require.NoError(t, err)
	return grads
}

func rmse(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += (a[i] - b[i]) * (a[i] - b[i])
	}
	return math.Sqrt(s / float64(len(a)))
}
