package gbdt

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/YuminosukeSato/goboost/core/dataset"
	"github.com/YuminosukeSato/goboost/core/parallel"
	"github.com/YuminosukeSato/goboost/metrics"
	"github.com/YuminosukeSato/goboost/pkg/errors"
	"github.com/YuminosukeSato/goboost/pkg/log"
)

// EvalSet is a held-out matrix evaluated after every round. The last eval
// set passed to Train is the one monitored by early stopping.
type EvalSet struct {
	Name string
	Data *dataset.FeatureMatrix
}

// Booster runs the boosting loop.
type Booster struct {
	params    Params
	logger    log.Logger
	workers   int
	callbacks []Callback
	rng       *rand.Rand
	initModel *Ensemble
}

// Option configures a Booster.
type Option func(*Booster)

// WithLogger sets the logger used for training progress.
func WithLogger(logger log.Logger) Option {
	return func(b *Booster) { b.logger = logger }
}

// WithWorkers overrides Params.NumThreads.
func WithWorkers(n int) Option {
	return func(b *Booster) { b.workers = n }
}

// WithCallbacks adds callbacks run after every round.
func WithCallbacks(callbacks ...Callback) Option {
	return func(b *Booster) { b.callbacks = append(b.callbacks, callbacks...) }
}

// WithRand supplies the random source used for row subsampling instead of
// one seeded from Params.Seed.
func WithRand(r *rand.Rand) Option {
	return func(b *Booster) { b.rng = r }
}

// WithInitModel continues training from an existing ensemble. New trees are
// appended to a copy; the given ensemble is never modified.
func WithInitModel(ens *Ensemble) Option {
	return func(b *Booster) { b.initModel = ens }
}

// NewBooster validates params and creates a booster.
func NewBooster(params Params, opts ...Option) (*Booster, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	b := &Booster{params: params, workers: params.NumThreads}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.GetLoggerWithName("gbdt.booster")
	}
	return b, nil
}

// Train is shorthand for NewBooster(params).Train(ctx, train, evals...).
func Train(ctx context.Context, params Params, train *dataset.FeatureMatrix, evals ...EvalSet) (*Ensemble, error) {
	b, err := NewBooster(params)
	if err != nil {
		return nil, err
	}
	return b.Train(ctx, train, evals...)
}

// evalState holds the running margins of one eval set.
type evalState struct {
	name  string
	data  *dataset.FeatureMatrix
	preds []float64
}

// Train fits an ensemble on train. ctx is checked between rounds: when it
// is cancelled the ensemble built so far is returned together with
// ctx.Err(). Any other failure returns a nil ensemble.
func (b *Booster) Train(ctx context.Context, train *dataset.FeatureMatrix, evals ...EvalSet) (ens *Ensemble, err error) {
	defer func() {
		var panicErr *errors.PanicError
		if errors.As(err, &panicErr) {
			ens = nil
		}
	}()
	defer errors.Recover(&err, "Booster.Train")

	start := time.Now()
	p := b.params
	workers := parallel.Workers(b.workers)

	if err := validateTrainingData(train, p.Loss, "train"); err != nil {
		return nil, err
	}
	states := make([]*evalState, len(evals))
	for i, ev := range evals {
		name := ev.Name
		if name == "" {
			name = fmt.Sprintf("eval%d", i)
		}
		if ev.Data == nil {
			return nil, errors.NewValueError("Booster.Train", fmt.Sprintf("eval set %q has no data", name))
		}
		if err := validateTrainingData(ev.Data, p.Loss, name); err != nil {
			return nil, err
		}
		states[i] = &evalState{name: name, data: ev.Data}
	}

	obj, err := NewObjective(p.Loss)
	if err != nil {
		return nil, err
	}
	metric, err := p.metric(obj)
	if err != nil {
		return nil, err
	}

	ens, err = b.initialEnsemble(obj, train)
	if err != nil {
		return nil, err
	}

	logger := b.logger.With(log.OperationKey, log.OperationFit)
	logger.Info("Training started",
		log.SamplesKey, train.NumRows(),
		log.FeaturesKey, train.NumCols(),
		log.SparseKey, train.IsSparse(),
		log.LearningRateKey, p.LearningRate,
		log.WorkerCountKey, workers,
		"rounds", p.NumRounds,
		"loss", string(p.Loss),
	)

	mapper, err := NewBinMapper(train, p.MaxBin, workers)
	if err != nil {
		return nil, err
	}
	binned, err := NewBinnedMatrix(mapper, train, workers)
	if err != nil {
		return nil, err
	}
	builder := NewTreeBuilder(binned, p, workers, b.logger)

	margins := NewPredictor(WithPredictWorkers(workers))
	trainPreds, err := margins.Predict(ens, train)
	if err != nil {
		return nil, err
	}
	for _, s := range states {
		if s.preds, err = margins.Predict(ens, s.data); err != nil {
			return nil, err
		}
	}

	var stopper *EarlyStopping
	if p.EarlyStoppingRounds > 0 {
		if len(states) == 0 {
			errors.Warn(errors.NewParameterWarning("early_stopping_rounds", "no eval set given, early stopping is disabled"))
		} else {
			stopper = NewEarlyStopping(p.EarlyStoppingRounds, metric)
		}
	}

	var rng *rand.Rand
	if p.Subsample < 1 {
		rng = b.rng
		if rng == nil {
			rng = rand.New(rand.NewPCG(p.Seed, p.Seed))
		}
	}

	allRows := make([]int, train.NumRows())
	for i := range allRows {
		allRows[i] = i
	}

	firstRound := ens.NumTrees()
	stopped := false
	for r := 0; r < p.NumRounds; r++ {
		select {
		case <-ctx.Done():
			logger.Warn("Training cancelled",
				log.IterationKey, firstRound+r,
				log.TreesKey, ens.NumTrees(),
			)
			return ens, ctx.Err()
		default:
		}

		roundStart := time.Now()
		round := firstRound + r

		grads, err := ComputeGradients(obj, trainPreds, train.Labels(), train.Weights(), workers)
		if err != nil {
			logger.Error("Gradient computation failed", err, log.IterationKey, round)
			return nil, err
		}

		rows := allRows
		if rng != nil {
			rows = subsampleRows(rng, train.NumRows(), p.Subsample)
		}

		tree, err := builder.Build(round, rows, grads)
		if err != nil {
			logger.Error("Tree growth failed", err, log.IterationKey, round)
			return nil, err
		}
		ens.append(tree)

		addTree(trainPreds, tree, train, p.LearningRate, workers)
		results := make(map[string]float64, len(states))
		var monitored float64
		for _, s := range states {
			addTree(s.preds, tree, s.data, p.LearningRate, workers)
			score, err := evaluate(obj, metric, s, round)
			if err != nil {
				return nil, err
			}
			results[s.name+"-"+metric.Name] = score
			monitored = score
		}

		logger.Debug("Round completed",
			log.IterationKey, round,
			log.TreeLeavesKey, tree.NumLeaves(),
			log.DurationMsKey, time.Since(roundStart).Milliseconds(),
		)

		env := &CallbackEnv{
			Ensemble:    ens,
			Iteration:   round,
			BeginTime:   roundStart,
			EndTime:     time.Now(),
			EvalResults: results,
		}
		for _, cb := range b.callbacks {
			if err := cb(env); err != nil {
				return nil, errors.Wrapf(err, "callback at round %d", round)
			}
		}

		if stopper != nil && stopper.Update(round, monitored) {
			stopped = true
			break
		}
		if env.StopTraining {
			break
		}
	}

	if stopper != nil && stopper.BestIteration >= 0 {
		if stopped {
			ens.truncate(stopper.BestIteration + 1)
			logger.Info("Early stopping",
				log.BestIterationKey, stopper.BestIteration,
				log.MetricKey, metric.Name,
				log.LossKey, stopper.BestScore,
			)
		}
		if err := ens.SetBestRound(stopper.BestIteration); err != nil {
			return nil, err
		}
	}

	logger.Info("Training completed",
		log.TreesKey, ens.NumTrees(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return ens, nil
}

// initialEnsemble returns an empty ensemble, or a copy of the init model
// after checking it is compatible with the training data.
func (b *Booster) initialEnsemble(obj Objective, train *dataset.FeatureMatrix) (*Ensemble, error) {
	p := b.params
	if b.initModel != nil {
		init := b.initModel
		switch {
		case init.Loss() != p.Loss:
			return nil, errors.NewConfigError("loss", "must match the init model's loss "+string(init.Loss()), string(p.Loss))
		case init.NumFeatures() != train.NumCols():
			return nil, errors.NewShapeError("WithInitModel", init.NumFeatures(), train.NumCols(), 1)
		case init.LearningRate() != p.LearningRate:
			return nil, errors.NewConfigError("learning_rate", "must match the init model's learning rate", p.LearningRate)
		}
		ens := init.Clone()
		ens.bestRound = -1
		return ens, nil
	}

	base := obj.InitScore(train.Labels(), train.Weights())
	if p.BaseScore != nil {
		base = *p.BaseScore
	}
	return NewEnsemble(p.Loss, train.NumCols(), p.LearningRate, base, nil)
}

func validateTrainingData(m *dataset.FeatureMatrix, loss Loss, name string) error {
	if m == nil || m.NumRows() == 0 {
		return errors.Wrapf(errors.ErrEmptyData, "%s set", name)
	}
	if !m.HasLabels() {
		return errors.Wrapf(errors.ErrNoLabels, "%s set", name)
	}
	if err := errors.CheckNumericalStability("labels", m.Labels(), -1); err != nil {
		return err
	}
	if loss == Logistic {
		for _, y := range m.Labels() {
			if y < 0 || y > 1 {
				return errors.NewValueError("Booster.Train", fmt.Sprintf("%s set: logistic labels must be in [0, 1], got %v", name, y))
			}
		}
	}
	return nil
}

// subsampleRows draws each row with probability rate, in ascending order.
// An empty draw falls back to one random row.
func subsampleRows(rng *rand.Rand, n int, rate float64) []int {
	rows := make([]int, 0, int(float64(n)*rate)+1)
	for i := 0; i < n; i++ {
		if rng.Float64() < rate {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		rows = append(rows, rng.IntN(n))
	}
	return rows
}

// addTree adds a new tree's shrunk output to running margins, in the same
// order the Predictor accumulates.
func addTree(preds []float64, t *Tree, m *dataset.FeatureMatrix, lr float64, workers int) {
	parallel.ParallelizeN(len(preds), workers, func(start, end int) {
		for i := start; i < end; i++ {
			preds[i] = accumulate(preds[i], lr, t.PredictRow(m, i))
		}
	})
}

// Eval sets smaller than this are transformed on the calling goroutine.
const evalParallelThreshold = 4096

func evaluate(obj Objective, metric metrics.Metric, s *evalState, round int) (float64, error) {
	transformed := make([]float64, len(s.preds))
	parallel.ParallelizeWithThreshold(len(s.preds), evalParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			transformed[i] = obj.Transform(s.preds[i])
		}
	})
	score, err := metric.Eval(s.data.Labels(), transformed, s.data.Weights())
	if err != nil {
		return 0, errors.Wrapf(err, "evaluating %s", s.name)
	}
	if err := errors.CheckScalar(s.name+"-"+metric.Name, score, round); err != nil {
		return 0, err
	}
	return score, nil
}
