package gbdt

import (
	"container/heap"

	"github.com/YuminosukeSato/goboost/pkg/errors"
	"github.com/YuminosukeSato/goboost/pkg/log"
)

// candidate is a node whose rows are assigned and whose best split has been
// evaluated but not yet applied.
type candidate struct {
	id    int
	depth int
	rows  []int
	split SplitCandidate
}

// candidateQueue orders pending expansions.
type candidateQueue interface {
	push(c *candidate)
	pop() *candidate
	len() int
}

// fifoQueue expands nodes in level order.
type fifoQueue struct{ items []*candidate }

func (q *fifoQueue) push(c *candidate) { q.items = append(q.items, c) }

func (q *fifoQueue) pop() *candidate {
	c := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return c
}

func (q *fifoQueue) len() int { return len(q.items) }

// gainHeap is a container/heap max-heap on gain, ties broken by lower node id.
type gainHeap []*candidate

func (h gainHeap) Len() int { return len(h) }

func (h gainHeap) Less(i, j int) bool {
	if h[i].split.Gain != h[j].split.Gain {
		return h[i].split.Gain > h[j].split.Gain
	}
	return h[i].id < h[j].id
}

func (h gainHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *gainHeap) Push(x any) { *h = append(*h, x.(*candidate)) }

func (h *gainHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return c
}

type priorityQueue struct{ h gainHeap }

func (q *priorityQueue) push(c *candidate) { heap.Push(&q.h, c) }
func (q *priorityQueue) pop() *candidate  { return heap.Pop(&q.h).(*candidate) }
func (q *priorityQueue) len() int         { return q.h.Len() }

func newCandidateQueue(policy GrowthPolicy) candidateQueue {
	if policy == BestFirst {
		return &priorityQueue{}
	}
	return &fifoQueue{}
}

// TreeBuilder grows one tree per call from gradient pairs over a binned
// training matrix. Growth uses an explicit work queue so stack use does not
// depend on max_depth.
type TreeBuilder struct {
	binned    *BinnedMatrix
	finder    SplitFinder
	policy    GrowthPolicy
	maxLeaves int
	workers   int
	logger    log.Logger
}

// NewTreeBuilder creates a builder for a binned matrix.
func NewTreeBuilder(binned *BinnedMatrix, params Params, workers int, logger log.Logger) *TreeBuilder {
	if logger == nil {
		logger = log.GetLoggerWithName("gbdt.builder")
	}
	return &TreeBuilder{
		binned:    binned,
		finder:    params.splitFinder(workers),
		policy:    params.GrowthPolicy,
		maxLeaves: params.MaxLeaves,
		workers:   workers,
		logger:    logger,
	}
}

// Build grows a tree over the active rows. Round is used for error
// reporting only. Nothing is returned on failure, so callers never see a
// partially grown tree.
func (b *TreeBuilder) Build(round int, rows []int, grads []GradientPair) (*Tree, error) {
	if len(rows) == 0 {
		return nil, errors.NewTreeGrowthError(round, 0, "empty active row set at root")
	}

	rootStats := SumStats(rows, grads)
	nodes := []Node{b.leafNode(rootStats)}
	leaves := 1

	queue := newCandidateQueue(b.policy)
	root, err := b.evaluate(0, 0, rows, rootStats, grads)
	if err != nil {
		return nil, err
	}
	if root != nil {
		queue.push(root)
	}

	for queue.len() > 0 {
		if b.maxLeaves > 0 && leaves+1 > b.maxLeaves {
			break
		}
		c := queue.pop()

		leftRows, rightRows := b.partition(c.rows, c.split)
		if len(leftRows) == 0 || len(rightRows) == 0 {
			return nil, errors.NewTreeGrowthError(round, c.id, "split produced an empty child")
		}

		leftID, rightID := len(nodes), len(nodes)+1
		nodes[c.id] = Node{
			Feature:     c.split.Feature,
			Threshold:   c.split.Threshold,
			Left:        leftID,
			Right:       rightID,
			DefaultLeft: c.split.DefaultLeft,
			Gain:        c.split.Gain,
			SumGrad:     nodes[c.id].SumGrad,
			SumHess:     nodes[c.id].SumHess,
			Count:       nodes[c.id].Count,
		}
		leftStats := SumStats(leftRows, grads)
		rightStats := SumStats(rightRows, grads)
		nodes = append(nodes, b.leafNode(leftStats), b.leafNode(rightStats))
		leaves++

		for _, child := range [2]struct {
			id    int
			rows  []int
			stats NodeStats
		}{{leftID, leftRows, leftStats}, {rightID, rightRows, rightStats}} {
			next, err := b.evaluate(child.id, c.depth+1, child.rows, child.stats, grads)
			if err != nil {
				return nil, err
			}
			if next != nil {
				queue.push(next)
			}
		}
	}

	tree, err := NewTree(nodes)
	if err != nil {
		return nil, errors.Wrapf(err, "round %d", round)
	}
	b.logger.Debug("Tree grown",
		log.IterationKey, round,
		log.TreeLeavesKey, tree.NumLeaves(),
		log.TreeDepthKey, tree.MaxDepth(),
	)
	return tree, nil
}

func (b *TreeBuilder) leafNode(s NodeStats) Node {
	return Node{
		IsLeaf:  true,
		Weight:  b.finder.LeafWeight(s),
		SumGrad: s.Grad,
		SumHess: s.Hess,
		Count:   s.Count,
	}
}

// evaluate finds the best split of a node; nil means the node stays a leaf.
func (b *TreeBuilder) evaluate(id, depth int, rows []int, stats NodeStats, grads []GradientPair) (*candidate, error) {
	if b.finder.MaxDepth > 0 && depth >= b.finder.MaxDepth {
		return nil, nil
	}
	hists, err := BuildHistograms(b.binned, rows, grads, b.workers)
	if err != nil {
		return nil, err
	}
	split, ok := b.finder.FindBestSplit(hists, stats, depth)
	if !ok {
		return nil, nil
	}
	return &candidate{id: id, depth: depth, rows: rows, split: split}, nil
}

// partition routes rows by bin index, which agrees with raw-value routing
// because thresholds are the bin cut values.
func (b *TreeBuilder) partition(rows []int, s SplitCandidate) (left, right []int) {
	missing := b.binned.Mapper().MissingBin(s.Feature)
	left = make([]int, 0, s.Left.Count)
	right = make([]int, 0, s.Right.Count)
	for _, r := range rows {
		bin := b.binned.Bin(s.Feature, r)
		goLeft := bin <= s.Bin
		if bin == missing {
			goLeft = s.DefaultLeft
		}
		if goLeft {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}
