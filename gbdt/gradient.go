package gbdt

import (
	"math"

	"github.com/YuminosukeSato/goboost/core/parallel"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// GradientPair is the first and second derivative of the loss for one row.
type GradientPair struct {
	Grad float64
	Hess float64
}

// ComputeGradients returns one GradientPair per row for the current
// predictions. Weights, when non-nil, scale both derivatives. The function
// keeps no state and writes each row exactly once, so its output does not
// depend on the worker count.
func ComputeGradients(obj Objective, preds, labels, weights []float64, workers int) ([]GradientPair, error) {
	n := len(labels)
	if len(preds) != n {
		return nil, errors.NewShapeError("ComputeGradients", n, len(preds), 0)
	}
	if weights != nil && len(weights) != n {
		return nil, errors.NewShapeError("ComputeGradients", n, len(weights), 0)
	}
	if err := errors.CheckNumericalStability("gradient", preds, -1); err != nil {
		return nil, err
	}

	grads := make([]GradientPair, n)
	parallel.ParallelizeN(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			g := obj.Gradient(preds[i], labels[i])
			h := obj.Hessian(preds[i], labels[i])
			if weights != nil {
				g *= weights[i]
				h *= weights[i]
			}
			grads[i] = GradientPair{Grad: g, Hess: h}
		}
	})

	for i := range grads {
		if math.IsNaN(grads[i].Grad) || math.IsNaN(grads[i].Hess) {
			return nil, errors.NewNumericalInstabilityError("gradient", []float64{grads[i].Grad, grads[i].Hess}, -1)
		}
	}
	return grads, nil
}
