package gbdt

import (
	"math"

	"github.com/YuminosukeSato/goboost/metrics"
)

// EarlyStopping tracks the monitored evaluation score across rounds.
type EarlyStopping struct {
	Rounds          int            // Number of rounds without improvement to stop
	Metric          metrics.Metric // Metric to monitor
	BestScore       float64        // Best evaluation score so far
	BestIteration   int            // Round with the best score
	RoundsNoImprove int            // Current rounds without improvement
}

// NewEarlyStopping creates an early stopping handler for a metric.
func NewEarlyStopping(rounds int, metric metrics.Metric) *EarlyStopping {
	bestScore := math.Inf(1)
	if metric.HigherIsBetter {
		bestScore = math.Inf(-1)
	}
	return &EarlyStopping{
		Rounds:        rounds,
		Metric:        metric,
		BestScore:     bestScore,
		BestIteration: -1,
	}
}

// Update records the score of a round and reports whether training should
// stop. Equal scores do not count as an improvement.
func (es *EarlyStopping) Update(iteration int, score float64) bool {
	if es.BestIteration < 0 || es.Metric.Better(score, es.BestScore) {
		es.BestScore = score
		es.BestIteration = iteration
		es.RoundsNoImprove = 0
	} else {
		es.RoundsNoImprove++
	}
	return es.ShouldStop()
}

// ShouldStop returns whether the patience is exhausted.
func (es *EarlyStopping) ShouldStop() bool {
	return es.RoundsNoImprove >= es.Rounds
}
