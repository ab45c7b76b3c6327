// This file defines the standard attribute keys shared by every logger in
// goboost. Keys follow a hierarchical "group.name" convention so logs can be
// filtered by prefix.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model, e.g. "gbdt".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "encode", "decode"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging, e.g. "gbdt.booster".
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of rows in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns in the dataset.
	FeaturesKey = "data.features"

	// SparseKey reports whether the matrix uses sparse storage.
	SparseKey = "data.sparse"

	// DatasetKey names an evaluation set, e.g. "train" or "valid".
	DatasetKey = "data.name"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// LossKey records a loss or metric value.
	LossKey = "metrics.loss"

	// MetricKey names the metric reported in LossKey.
	MetricKey = "metrics.name"

	// IterationKey records the current boosting round.
	IterationKey = "training.iteration"

	// BestIterationKey records the best round seen by early stopping.
	BestIterationKey = "training.best_iteration"
)

// Tree Growth
const (
	// TreeLeavesKey records the number of leaves of a grown tree.
	TreeLeavesKey = "tree.leaves"

	// TreeDepthKey records the maximum depth reached by a grown tree.
	TreeDepthKey = "tree.depth"

	// TreesKey records the number of trees in an ensemble.
	TreesKey = "ensemble.trees"
)

// Error and Warning Context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"

	// ErrorDetailKey carries the structured fields of a typed error.
	ErrorDetailKey = "error.detail"
)

// Hyperparameters and Configuration
const (
	// LearningRateKey records the shrinkage applied to each tree.
	LearningRateKey = "hyperparams.learning_rate"

	// RegularizationKey records the L2 regularization strength.
	RegularizationKey = "hyperparams.regularization"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// WorkerCountKey records the number of worker goroutines.
	WorkerCountKey = "infra.workers"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationEncode  = "encode"
	OperationDecode  = "decode"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseInference  = "inference"
)
