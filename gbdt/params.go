package gbdt

import (
	"math"

	"github.com/YuminosukeSato/goboost/metrics"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// GrowthPolicy selects the order in which tree nodes are expanded.
type GrowthPolicy string

const (
	// DepthWise expands nodes level by level (FIFO).
	DepthWise GrowthPolicy = "depth_wise"
	// BestFirst always expands the pending node with the largest gain.
	BestFirst GrowthPolicy = "best_first"
)

// Params holds training hyperparameters. Construct with DefaultParams and
// check with Validate before training; Train validates again.
type Params struct {
	// Tree structure
	MaxDepth       int          `json:"max_depth" yaml:"max_depth"`
	MaxLeaves      int          `json:"max_leaves" yaml:"max_leaves"` // 0 = no leaf budget
	MinChildWeight float64      `json:"min_child_weight" yaml:"min_child_weight"`
	GrowthPolicy   GrowthPolicy `json:"growth_policy" yaml:"growth_policy"`
	MaxBin         int          `json:"max_bin" yaml:"max_bin"`

	// Regularization
	Lambda float64 `json:"lambda" yaml:"lambda"`
	Gamma  float64 `json:"gamma" yaml:"gamma"`

	// Boosting
	NumRounds    int      `json:"num_rounds" yaml:"num_rounds"`
	LearningRate float64  `json:"learning_rate" yaml:"learning_rate"`
	Loss         Loss     `json:"loss" yaml:"loss"`
	BaseScore    *float64 `json:"base_score,omitempty" yaml:"base_score,omitempty"` // nil = objective's init score

	// Early stopping; 0 disables it
	EarlyStoppingRounds int    `json:"early_stopping_rounds,omitempty" yaml:"early_stopping_rounds,omitempty"`
	EvalMetric          string `json:"eval_metric,omitempty" yaml:"eval_metric,omitempty"`

	// Sampling
	Subsample float64 `json:"subsample" yaml:"subsample"`
	Seed      uint64  `json:"seed" yaml:"seed"`

	// Parallelism; 0 = runtime.NumCPU()
	NumThreads int `json:"num_threads" yaml:"num_threads"`
}

// DefaultParams returns the default hyperparameters.
func DefaultParams() Params {
	return Params{
		MaxDepth:       6,
		MaxLeaves:      0,
		MinChildWeight: 1.0,
		GrowthPolicy:   DepthWise,
		MaxBin:         256,
		Lambda:         1.0,
		Gamma:          0.0,
		NumRounds:      10,
		LearningRate:   0.3,
		Loss:           SquaredError,
		Subsample:      1.0,
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate checks every field and returns a ConfigError naming the first
// offending one.
func (p Params) Validate() error {
	switch {
	case p.MaxDepth < 1:
		return errors.NewConfigError("max_depth", "must be >= 1", p.MaxDepth)
	case p.MaxLeaves != 0 && p.MaxLeaves < 2:
		return errors.NewConfigError("max_leaves", "must be 0 (unbounded) or >= 2", p.MaxLeaves)
	case !finite(p.MinChildWeight) || p.MinChildWeight < 0:
		return errors.NewConfigError("min_child_weight", "must be >= 0", p.MinChildWeight)
	case p.GrowthPolicy != DepthWise && p.GrowthPolicy != BestFirst:
		return errors.NewConfigError("growth_policy", "must be best_first or depth_wise", string(p.GrowthPolicy))
	case p.MaxBin < 2 || p.MaxBin > MaxBinLimit:
		return errors.NewConfigError("max_bin", "must be in [2, 65535]", p.MaxBin)
	case !finite(p.Lambda) || p.Lambda < 0:
		return errors.NewConfigError("lambda", "must be >= 0", p.Lambda)
	case !finite(p.Gamma) || p.Gamma < 0:
		return errors.NewConfigError("gamma", "must be >= 0", p.Gamma)
	case p.NumRounds < 1:
		return errors.NewConfigError("num_rounds", "must be >= 1", p.NumRounds)
	case !finite(p.LearningRate) || p.LearningRate <= 0 || p.LearningRate > 1:
		return errors.NewConfigError("learning_rate", "must be in (0, 1]", p.LearningRate)
	case p.BaseScore != nil && !finite(*p.BaseScore):
		return errors.NewConfigError("base_score", "must be finite", *p.BaseScore)
	case p.EarlyStoppingRounds < 0:
		return errors.NewConfigError("early_stopping_rounds", "must be >= 1 when set", p.EarlyStoppingRounds)
	case !finite(p.Subsample) || p.Subsample <= 0 || p.Subsample > 1:
		return errors.NewConfigError("subsample", "must be in (0, 1]", p.Subsample)
	case p.NumThreads < 0:
		return errors.NewConfigError("num_threads", "must be >= 0", p.NumThreads)
	}

	if _, err := NewObjective(p.Loss); err != nil {
		return err
	}
	if p.EvalMetric != "" {
		if _, err := metrics.Get(p.EvalMetric); err != nil {
			return err
		}
	}
	return nil
}

// metric resolves the early stopping metric for an objective.
func (p Params) metric(obj Objective) (metrics.Metric, error) {
	name := p.EvalMetric
	if name == "" {
		name = obj.DefaultMetric()
	}
	return metrics.Get(name)
}

func (p Params) splitFinder(workers int) SplitFinder {
	return SplitFinder{
		Lambda:         p.Lambda,
		Gamma:          p.Gamma,
		MinChildWeight: p.MinChildWeight,
		MaxDepth:       p.MaxDepth,
		Workers:        workers,
	}
}
