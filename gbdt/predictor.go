package gbdt

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goboost/core/dataset"
	"github.com/YuminosukeSato/goboost/core/parallel"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// Predictor evaluates an ensemble on a feature matrix.
type Predictor struct {
	treeLimit int
	workers   int
	transform bool
}

// PredictorOption configures a Predictor.
type PredictorOption func(*Predictor)

// WithTreeLimit uses only the first n trees; 0 uses all of them.
func WithTreeLimit(n int) PredictorOption {
	return func(p *Predictor) { p.treeLimit = n }
}

// WithPredictWorkers sets the number of row workers; 0 uses one per CPU.
func WithPredictWorkers(n int) PredictorOption {
	return func(p *Predictor) { p.workers = n }
}

// WithTransform maps margins onto the loss's output scale (probabilities for
// logistic loss).
func WithTransform() PredictorOption {
	return func(p *Predictor) { p.transform = true }
}

// NewPredictor creates a predictor.
func NewPredictor(opts ...PredictorOption) *Predictor {
	p := &Predictor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict returns raw margins, base + lr·Σ leaf weights, using all trees.
func Predict(ens *Ensemble, m *dataset.FeatureMatrix) ([]float64, error) {
	return NewPredictor().Predict(ens, m)
}

// trees takes a snapshot limited to treeLimit and checks that every split
// feature exists in the ensemble or in the matrix.
func (p *Predictor) trees(ens *Ensemble, m *dataset.FeatureMatrix) ([]*Tree, error) {
	trees := ens.Trees()
	if p.treeLimit > 0 && p.treeLimit < len(trees) {
		trees = trees[:p.treeLimit]
	}
	for i, t := range trees {
		if f := t.maxFeature(); f >= ens.NumFeatures() && f >= m.NumCols() {
			return nil, errors.NewPredictionError(i, f, ens.NumFeatures(), m.NumCols())
		}
	}
	return trees, nil
}

// Predict returns one prediction per row. Each row accumulates tree outputs
// one at a time in tree order, the same order the booster uses.
func (p *Predictor) Predict(ens *Ensemble, m *dataset.FeatureMatrix) ([]float64, error) {
	trees, err := p.trees(ens, m)
	if err != nil {
		return nil, err
	}

	lr := ens.LearningRate()
	out := make([]float64, m.NumRows())
	var obj Objective
	if p.transform {
		if obj, err = NewObjective(ens.Loss()); err != nil {
			return nil, err
		}
	}

	parallel.ParallelizeN(m.NumRows(), p.workers, func(start, end int) {
		for i := start; i < end; i++ {
			margin := ens.BaseScore()
			for _, t := range trees {
				margin = accumulate(margin, lr, t.PredictRow(m, i))
			}
			if obj != nil {
				margin = obj.Transform(margin)
			}
			out[i] = margin
		}
	})
	return out, nil
}

// accumulate adds one shrunk tree output to a margin. The explicit conversion
// rounds the product, so it is never fused into an FMA.
func accumulate(margin, lr, weight float64) float64 {
	return margin + float64(lr*weight)
}

// PredictLeaf returns, per row, the leaf id reached in every tree.
func (p *Predictor) PredictLeaf(ens *Ensemble, m *dataset.FeatureMatrix) ([][]int, error) {
	trees, err := p.trees(ens, m)
	if err != nil {
		return nil, err
	}

	out := make([][]int, m.NumRows())
	parallel.ParallelizeN(m.NumRows(), p.workers, func(start, end int) {
		for i := start; i < end; i++ {
			leaves := make([]int, len(trees))
			for k, t := range trees {
				leaves[k] = t.LeafIndex(m, i)
			}
			out[i] = leaves
		}
	})
	return out, nil
}

// PredictDense returns predictions as an n×1 gonum matrix.
func (p *Predictor) PredictDense(ens *Ensemble, m *dataset.FeatureMatrix) (*mat.Dense, error) {
	preds, err := p.Predict(ens, m)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(len(preds), 1, preds), nil
}
