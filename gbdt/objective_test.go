package gbdt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

func TestParseLoss(t *testing.T) {
	tests := []struct {
		in   string
		want Loss
	}{
		{"squared_error", SquaredError},
		{"reg:squarederror", SquaredError},
		{"regression", SquaredError},
		{"L2", SquaredError},
		{"logistic", Logistic},
		{"binary:logistic", Logistic},
		{" binary ", Logistic},
	}
	for _, tt := range tests {
		got, err := ParseLoss(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLoss("huber")
	var cfgErr *errors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "loss", cfgErr.Field)
}

func TestSquaredErrorObjective(t *testing.T) {
	obj, err := NewObjective(SquaredError)
	require.NoError(t, err)

	assert.Equal(t, 0.5, obj.Gradient(2.5, 2.0))
	assert.Equal(t, 1.0, obj.Hessian(2.5, 2.0))
	assert.Equal(t, 0.125, obj.Loss(2.5, 2.0))
	assert.Equal(t, 3.0, obj.Transform(3.0))
	assert.Equal(t, "rmse", obj.DefaultMetric())

	assert.InDelta(t, 2.0, obj.InitScore([]float64{1, 2, 3}, nil), 1e-12)
	assert.InDelta(t, 2.5, obj.InitScore([]float64{1, 3}, []float64{1, 3}), 1e-12)
	assert.Equal(t, 0.0, obj.InitScore(nil, nil))
}

func TestLogisticObjective(t *testing.T) {
	obj, err := NewObjective(Logistic)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, obj.Gradient(0, 0), 1e-12)
	assert.InDelta(t, -0.5, obj.Gradient(0, 1), 1e-12)
	assert.InDelta(t, 0.25, obj.Hessian(0, 1), 1e-12)
	assert.InDelta(t, math.Ln2, obj.Loss(0, 1), 1e-12)
	assert.Equal(t, "logloss", obj.DefaultMetric())

	// saturated margins keep a positive hessian
	assert.Equal(t, hessianFloor, obj.Hessian(800, 1))
	assert.Equal(t, hessianFloor, obj.Hessian(-800, 0))
	assert.False(t, math.IsNaN(obj.Gradient(-800, 1)))

	assert.InDelta(t, math.Log(3), obj.InitScore([]float64{1, 1, 1, 0}, nil), 1e-12)
	assert.False(t, math.IsInf(obj.InitScore([]float64{1, 1}, nil), 0))
	assert.InDelta(t, 0.5, obj.Transform(0), 1e-12)
}

func TestComputeGradients(t *testing.T) {
	preds := []float64{1, 2, 3, 4}
	labels := []float64{0, 2, 5, 4}

	grads, err := ComputeGradients(squaredError{}, preds, labels, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []GradientPair{{1, 1}, {0, 1}, {-2, 1}, {0, 1}}, grads)

	weighted, err := ComputeGradients(squaredError{}, preds, labels, []float64{2, 1, 0.5, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []GradientPair{{2, 2}, {0, 1}, {-1, 0.5}, {0, 0}}, weighted)
}

func TestComputeGradientsIndependentOfWorkers(t *testing.T) {
	m := classificationData(t, 3, 500)
	preds := make([]float64, m.NumRows())
	for i := range preds {
		preds[i] = float64(i%7) - 3
	}

	one, err := ComputeGradients(logistic{}, preds, m.Labels(), nil, 1)
	require.NoError(t, err)
	many, err := ComputeGradients(logistic{}, preds, m.Labels(), nil, 8)
	require.NoError(t, err)
	assert.Equal(t, one, many)
}

func TestComputeGradientsErrors(t *testing.T) {
	_, err := ComputeGradients(squaredError{}, []float64{1}, []float64{1, 2}, nil, 1)
	var shapeErr *errors.ShapeError
	assert.True(t, errors.As(err, &shapeErr))

	_, err = ComputeGradients(squaredError{}, []float64{math.NaN(), 1}, []float64{1, 2}, nil, 1)
	var numErr *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &numErr))
}
