package errors

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShapeError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "length mismatch",
			err:     NewShapeError("SetLabels", 5, 4, 0),
			wantMsg: "goboost: SetLabels: shape mismatch on axis 0 (rows). Expected 5, got 4",
		},
		{
			name:    "with reason",
			err:     NewShapeErrorf("NewSparse", 1, "column %d out of range [0, %d)", 7, 3),
			wantMsg: "goboost: NewSparse: shape error on axis 1 (features): column 7 out of range [0, 3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", tt.err)
			assert.Contains(t, formatted, "errors_test.go")

			var shapeErr *ShapeError
			assert.True(t, As(tt.err, &shapeErr))
		})
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("learning_rate", "must be in (0, 1]", 1.5)
	assert.Equal(t, "goboost: invalid configuration for 'learning_rate': must be in (0, 1] (got: 1.5)", err.Error())

	var cfgErr *ConfigError
	require.True(t, As(err, &cfgErr))
	assert.Equal(t, "learning_rate", cfgErr.Field)
}

func TestNewTreeGrowthError(t *testing.T) {
	err := NewTreeGrowthError(3, 0, "empty active row set")
	assert.Equal(t, "goboost: tree growth failed at round 3, node 0: empty active row set", err.Error())

	var growthErr *TreeGrowthError
	assert.True(t, As(err, &growthErr))
}

func TestNewPredictionError(t *testing.T) {
	err := NewPredictionError(2, 9, 4, 5)
	assert.Contains(t, err.Error(), "feature 9")

	var predErr *PredictionError
	require.True(t, As(err, &predErr))
	assert.Equal(t, 9, predErr.Feature)
}

func TestMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	shapeErr := &ShapeError{Op: "NewDense", Expected: 3, Got: 2, Axis: 0}
	logger.Error().Object("error.detail", shapeErr).Msg("failed")

	out := buf.String()
	assert.Contains(t, out, `"type":"ShapeError"`)
	assert.Contains(t, out, `"axis_name":"rows"`)
}

func TestWarn(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(w error) {})

	Warn(NewParameterWarning("early_stopping_rounds", "no evaluation set supplied"))
	require.Len(t, got, 1)
	assert.Equal(t, "parameter 'early_stopping_rounds': no evaluation set supplied", got[0].Error())

	// zerolog関数が設定されていればそちらが優先される
	var viaZerolog int
	SetZerologWarnFunc(func(error) { viaZerolog++ })
	defer SetZerologWarnFunc(nil)
	Warn(NewParameterWarning("subsample", "ignored"))
	assert.Equal(t, 1, viaZerolog)
	assert.Len(t, got, 1)
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d rows", "Train", 10)
	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.True(t, strings.Contains(wrapped.Error(), "in Train: expected 10 rows"))
}

func TestNumericalGuards(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("gradient", []float64{1, -2, 0}, 0))

	err := CheckNumericalStability("gradient", []float64{1, math.NaN(), math.Inf(1)}, 4)
	var numErr *NumericalInstabilityError
	require.True(t, As(err, &numErr))
	assert.Equal(t, 4, numErr.Iteration)
	assert.Len(t, numErr.Values, 2)

	assert.Error(t, CheckScalar("eval", math.Inf(-1), 1))
	assert.Equal(t, 1.0, ClipValue(3, 0, 1))
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-15)
	assert.InDelta(t, 1.0, Sigmoid(1000), 1e-15)
	assert.InDelta(t, 0.0, Sigmoid(-1000), 1e-15)
	assert.False(t, math.IsInf(StabilizeLog(0), 0))
}
