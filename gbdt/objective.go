package gbdt

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// Loss selects the training objective.
type Loss string

const (
	// SquaredError is 0.5·(p − y)² regression.
	SquaredError Loss = "squared_error"
	// Logistic is binary log loss on the margin.
	Logistic Loss = "logistic"
)

// lossAliases maps accepted spellings onto canonical losses
var lossAliases = map[string]Loss{
	"squared_error":    SquaredError,
	"reg:squarederror": SquaredError,
	"regression":       SquaredError,
	"l2":               SquaredError,
	"mse":              SquaredError,
	"logistic":         Logistic,
	"binary:logistic":  Logistic,
	"binary":           Logistic,
}

// ParseLoss resolves a loss name or alias.
func ParseLoss(name string) (Loss, error) {
	if l, ok := lossAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return l, nil
	}
	return "", errors.NewConfigError("loss", "unknown loss, expected squared_error or logistic", name)
}

// hessianFloor keeps logistic hessians away from zero when σ saturates
const hessianFloor = 1e-16

// Objective defines the interface for loss functions
type Objective interface {
	// Gradient calculates ∂loss/∂prediction for a single sample
	Gradient(prediction, label float64) float64

	// Hessian calculates ∂²loss/∂prediction² for a single sample
	Hessian(prediction, label float64) float64

	// Loss calculates the loss for a single sample
	Loss(prediction, label float64) float64

	// InitScore returns the constant margin minimizing the weighted loss
	InitScore(labels, weights []float64) float64

	// Transform maps a raw margin onto the output scale
	Transform(margin float64) float64

	// Name returns the canonical loss name
	Name() Loss

	// DefaultMetric is the evaluation metric used when none is configured
	DefaultMetric() string
}

// NewObjective creates the objective for a loss.
func NewObjective(loss Loss) (Objective, error) {
	switch loss {
	case SquaredError:
		return squaredError{}, nil
	case Logistic:
		return logistic{}, nil
	default:
		return nil, errors.NewConfigError("loss", "unknown loss, expected squared_error or logistic", string(loss))
	}
}

type squaredError struct{}

func (squaredError) Gradient(prediction, label float64) float64 { return prediction - label }

func (squaredError) Hessian(float64, float64) float64 { return 1.0 }

func (squaredError) Loss(prediction, label float64) float64 {
	diff := prediction - label
	return 0.5 * diff * diff
}

func (squaredError) InitScore(labels, weights []float64) float64 {
	if len(labels) == 0 {
		return 0.0
	}
	mean := stat.Mean(labels, weights)
	if math.IsNaN(mean) {
		return 0.0
	}
	return mean
}

func (squaredError) Transform(margin float64) float64 { return margin }

func (squaredError) Name() Loss { return SquaredError }

func (squaredError) DefaultMetric() string { return "rmse" }

type logistic struct{}

func (logistic) Gradient(prediction, label float64) float64 {
	return errors.Sigmoid(prediction) - label
}

func (logistic) Hessian(prediction, _ float64) float64 {
	p := errors.Sigmoid(prediction)
	return math.Max(p*(1-p), hessianFloor)
}

func (logistic) Loss(prediction, label float64) float64 {
	p := errors.ClipValue(errors.Sigmoid(prediction), 1e-15, 1-1e-15)
	return -(label*math.Log(p) + (1-label)*math.Log(1-p))
}

// InitScore returns the log-odds of the weighted positive rate.
func (logistic) InitScore(labels, weights []float64) float64 {
	if len(labels) == 0 {
		return 0.0
	}
	mean := stat.Mean(labels, weights)
	if math.IsNaN(mean) {
		return 0.0
	}
	p := errors.ClipValue(mean, 1e-15, 1-1e-15)
	return math.Log(p / (1 - p))
}

func (logistic) Transform(margin float64) float64 { return errors.Sigmoid(margin) }

func (logistic) Name() Loss { return Logistic }

func (logistic) DefaultMetric() string { return "logloss" }
