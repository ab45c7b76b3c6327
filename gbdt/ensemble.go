package gbdt

import (
	"sync"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// Ensemble is an ordered, append-only sequence of trees plus the scalars
// needed to turn their leaf weights into predictions. Readers take snapshots
// under a read lock, so predicting while training appends is safe.
type Ensemble struct {
	mu sync.RWMutex

	trees        []*Tree
	learningRate float64
	baseScore    float64
	numFeatures  int
	loss         Loss
	bestRound    int
}

// NewEnsemble creates an ensemble from existing trees. BestRound starts at
// -1 (unset).
func NewEnsemble(loss Loss, numFeatures int, learningRate, baseScore float64, trees []*Tree) (*Ensemble, error) {
	if _, err := NewObjective(loss); err != nil {
		return nil, err
	}
	if numFeatures < 0 {
		return nil, errors.NewValueError("NewEnsemble", "feature count must be >= 0")
	}
	if !finite(learningRate) || learningRate <= 0 || learningRate > 1 {
		return nil, errors.NewConfigError("learning_rate", "must be in (0, 1]", learningRate)
	}
	if !finite(baseScore) {
		return nil, errors.NewConfigError("base_score", "must be finite", baseScore)
	}
	for _, t := range trees {
		if t == nil {
			return nil, errors.NewValueError("NewEnsemble", "nil tree")
		}
	}
	return &Ensemble{
		trees:        append([]*Tree(nil), trees...),
		learningRate: learningRate,
		baseScore:    baseScore,
		numFeatures:  numFeatures,
		loss:         loss,
		bestRound:    -1,
	}, nil
}

// Trees returns a snapshot of the trees.
func (e *Ensemble) Trees() []*Tree {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*Tree(nil), e.trees...)
}

// NumTrees returns the current number of trees.
func (e *Ensemble) NumTrees() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.trees)
}

// LearningRate returns the shrinkage applied to every tree.
func (e *Ensemble) LearningRate() float64 { return e.learningRate }

// BaseScore returns the prior margin added to every prediction.
func (e *Ensemble) BaseScore() float64 { return e.baseScore }

// NumFeatures returns the feature count of the training matrix.
func (e *Ensemble) NumFeatures() int { return e.numFeatures }

// Loss returns the training loss.
func (e *Ensemble) Loss() Loss { return e.loss }

// BestRound returns the round with the best evaluation score when early
// stopping ran, or -1.
func (e *Ensemble) BestRound() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bestRound
}

// SetBestRound records the best round; it must index an existing tree.
func (e *Ensemble) SetBestRound(round int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if round < -1 || round >= len(e.trees) {
		return errors.NewValueError("SetBestRound", "best round out of range")
	}
	e.bestRound = round
	return nil
}

// Clone returns an independent ensemble sharing the immutable trees.
func (e *Ensemble) Clone() *Ensemble {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return &Ensemble{
		trees:        append([]*Tree(nil), e.trees...),
		learningRate: e.learningRate,
		baseScore:    e.baseScore,
		numFeatures:  e.numFeatures,
		loss:         e.loss,
		bestRound:    e.bestRound,
	}
}

func (e *Ensemble) append(t *Tree) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trees = append(e.trees, t)
}

// truncate keeps the first n trees.
func (e *Ensemble) truncate(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n < len(e.trees) {
		for i := n; i < len(e.trees); i++ {
			e.trees[i] = nil
		}
		e.trees = e.trees[:n]
	}
}
