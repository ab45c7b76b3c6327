package gbdt

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

func TestPredictFormula(t *testing.T) {
	t1 := stump(t, 0, 0.5, false, -1, 1)
	t2 := stump(t, 1, 10, true, 2, -2)
	ens, err := NewEnsemble(SquaredError, 2, 0.5, 3, []*Tree{t1, t2})
	require.NoError(t, err)

	m := denseMatrix(t, [][]float64{{0, 0}, {1, 20}, {1, math.NaN()}}, nil)
	preds, err := Predict(ens, m)
	require.NoError(t, err)
	assert.Equal(t, []float64{3 - 0.5 + 1, 3 + 0.5 - 1, 3 + 0.5 + 1}, preds)

	limited, err := NewPredictor(WithTreeLimit(1)).Predict(ens, m)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5, 3.5, 3.5}, limited)

	dense, err := NewPredictor().PredictDense(ens, m)
	require.NoError(t, err)
	r, c := dense.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, preds[1], dense.At(1, 0))
}

func TestPredictIdempotent(t *testing.T) {
	m := regressionData(t, 13, 300, 4)
	p := DefaultParams()
	p.NumRounds = 5
	ens, err := Train(context.Background(), p, m)
	require.NoError(t, err)

	first, err := Predict(ens, m)
	require.NoError(t, err)
	second, err := Predict(ens, m)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	oneWorker, err := NewPredictor(WithPredictWorkers(1)).Predict(ens, m)
	require.NoError(t, err)
	assert.Equal(t, first, oneWorker, "row-parallel prediction does not depend on workers")
}

func TestPredictTransform(t *testing.T) {
	ens, err := NewEnsemble(Logistic, 1, 1, 0, []*Tree{stump(t, 0, 0.5, false, -2, 2)})
	require.NoError(t, err)
	m := denseMatrix(t, [][]float64{{0}, {1}}, nil)

	probs, err := NewPredictor(WithTransform()).Predict(ens, m)
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(2)), probs[0], 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-2)), probs[1], 1e-12)
}

func TestPredictLeaf(t *testing.T) {
	ens, err := NewEnsemble(SquaredError, 1, 1, 0, []*Tree{
		stump(t, 0, 0.5, false, -1, 1),
		stump(t, 0, 1.5, false, -1, 1),
	})
	require.NoError(t, err)
	m := denseMatrix(t, [][]float64{{0}, {1}, {2}}, nil)

	leaves, err := NewPredictor().PredictLeaf(ens, m)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 1}, {2, 1}, {2, 2}}, leaves)
}

func TestPredictionError(t *testing.T) {
	ens, err := NewEnsemble(SquaredError, 2, 1, 0, []*Tree{
		stump(t, 0, 0.5, false, -1, 1),
		stump(t, 4, 0.5, false, -1, 1),
	})
	require.NoError(t, err)

	narrow := denseMatrix(t, [][]float64{{0, 1}}, nil)
	_, err = Predict(ens, narrow)
	var predErr *errors.PredictionError
	require.True(t, errors.As(err, &predErr))
	assert.Equal(t, 1, predErr.Tree)
	assert.Equal(t, 4, predErr.Feature)
	assert.Equal(t, 2, predErr.NumFeatures)
	assert.Equal(t, 2, predErr.MatrixCols)

	// the matrix has the column, so prediction succeeds
	wide := denseMatrix(t, [][]float64{{0, 1, 0, 0, 1}}, nil)
	_, err = Predict(ens, wide)
	assert.NoError(t, err)

	// the model declares the feature; the column is treated as missing
	declared, err := NewEnsemble(SquaredError, 5, 1, 0, ens.Trees())
	require.NoError(t, err)
	preds, err := Predict(declared, narrow)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1 + 1}, preds)
}

func TestEnsembleConcurrentReadsDuringAppend(t *testing.T) {
	ens, err := NewEnsemble(SquaredError, 1, 0.1, 0, nil)
	require.NoError(t, err)
	m := denseMatrix(t, [][]float64{{0}, {1}}, nil)
	tree := stump(t, 0, 0.5, false, -1, 1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			ens.append(tree)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			preds, err := Predict(ens, m)
			assert.NoError(t, err)
			assert.Len(t, preds, 2)
		}
	}()
	wg.Wait()
	assert.Equal(t, 200, ens.NumTrees())
}

func TestNewEnsembleValidation(t *testing.T) {
	_, err := NewEnsemble("hinge", 1, 0.1, 0, nil)
	assert.Error(t, err)
	_, err = NewEnsemble(SquaredError, 1, 0, 0, nil)
	assert.Error(t, err)
	_, err = NewEnsemble(SquaredError, 1, 0.1, math.Inf(1), nil)
	assert.Error(t, err)
	_, err = NewEnsemble(SquaredError, 1, 0.1, 0, []*Tree{nil})
	assert.Error(t, err)

	ens, err := NewEnsemble(SquaredError, 1, 0.1, 0, []*Tree{stump(t, 0, 0.5, false, -1, 1)})
	require.NoError(t, err)
	assert.Equal(t, -1, ens.BestRound())
	assert.Error(t, ens.SetBestRound(1))
	require.NoError(t, ens.SetBestRound(0))

	clone := ens.Clone()
	clone.append(stump(t, 0, 0.5, false, -1, 1))
	assert.Equal(t, 1, ens.NumTrees())
	assert.Equal(t, 2, clone.NumTrees())
	assert.Equal(t, 0, clone.BestRound())
}
