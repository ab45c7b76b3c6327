package gbdt

import (
	"sort"
	"time"

	"github.com/YuminosukeSato/goboost/pkg/log"
)

// CallbackEnv contains the environment passed to callbacks after each round.
// EvalResults is keyed "<eval set>-<metric>".
type CallbackEnv struct {
	Ensemble     *Ensemble
	Iteration    int
	BeginTime    time.Time
	EndTime      time.Time
	EvalResults  map[string]float64
	StopTraining bool
}

// Callback is called after every boosting round. Returning an error aborts
// training; setting env.StopTraining ends it after the current round.
type Callback func(env *CallbackEnv) error

// RecordEvaluation records evaluation history
func RecordEvaluation(history *map[string][]float64) Callback {
	return func(env *CallbackEnv) error {
		if *history == nil {
			*history = make(map[string][]float64)
		}
		for name, value := range env.EvalResults {
			(*history)[name] = append((*history)[name], value)
		}
		return nil
	}
}

// LogEvaluation logs evaluation results every period rounds.
func LogEvaluation(logger log.Logger, period int) Callback {
	if period <= 0 {
		period = 1
	}
	return func(env *CallbackEnv) error {
		if env.Iteration%period != 0 {
			return nil
		}
		names := make([]string, 0, len(env.EvalResults))
		for name := range env.EvalResults {
			names = append(names, name)
		}
		sort.Strings(names)

		fields := []any{log.IterationKey, env.Iteration}
		for _, name := range names {
			fields = append(fields, name, env.EvalResults[name])
		}
		logger.Info("Evaluation", fields...)
		return nil
	}
}

// TimeLimit stops training after a specified duration
func TimeLimit(maxDuration time.Duration) Callback {
	var startTime time.Time
	return func(env *CallbackEnv) error {
		if startTime.IsZero() {
			startTime = env.BeginTime
		}
		if env.EndTime.Sub(startTime) > maxDuration {
			env.StopTraining = true
		}
		return nil
	}
}
