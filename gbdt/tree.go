package gbdt

import (
	"math"

	"github.com/YuminosukeSato/goboost/core/dataset"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// Node is one node of a tree arena. Leaves carry Weight; internal nodes route
// rows with value <= Threshold to Left and missing values to Left when
// DefaultLeft is set. Gain and the gradient statistics are kept for dumps.
type Node struct {
	IsLeaf      bool    `json:"leaf"`
	Weight      float64 `json:"weight"`
	Feature     int     `json:"feature,omitempty"`
	Threshold   float64 `json:"threshold"`
	Left        int     `json:"left,omitempty"`
	Right       int     `json:"right,omitempty"`
	DefaultLeft bool    `json:"default_left,omitempty"`
	Gain        float64 `json:"gain,omitempty"`
	SumGrad     float64 `json:"sum_grad,omitempty"`
	SumHess     float64 `json:"sum_hess,omitempty"`
	Count       int     `json:"count,omitempty"`
}

// MissingChild returns the child that rows with a missing value follow.
func (n Node) MissingChild() int {
	if n.DefaultLeft {
		return n.Left
	}
	return n.Right
}

// Tree is an immutable binary tree stored as a node arena rooted at id 0.
type Tree struct {
	nodes     []Node
	maxDepth  int
	numLeaves int
}

// NewTree validates an arena and builds a tree from a copy of it. Every
// non-root node must be the child of exactly one internal node and every
// node must be reachable from the root.
func NewTree(nodes []Node) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, errors.NewValueError("NewTree", "tree has no nodes")
	}

	parents := make([]int, len(nodes))
	for id, n := range nodes {
		if n.IsLeaf {
			if math.IsNaN(n.Weight) || math.IsInf(n.Weight, 0) {
				return nil, errors.NewValueError("NewTree", "leaf weight must be finite")
			}
			continue
		}
		if n.Feature < 0 {
			return nil, errors.NewValueError("NewTree", "negative feature index")
		}
		if math.IsNaN(n.Threshold) {
			return nil, errors.NewValueError("NewTree", "threshold is NaN")
		}
		for _, c := range [2]int{n.Left, n.Right} {
			if c <= 0 || c >= len(nodes) || c == id {
				return nil, errors.NewValueError("NewTree", "child index out of range")
			}
			parents[c]++
		}
	}
	for id := 1; id < len(nodes); id++ {
		if parents[id] != 1 {
			return nil, errors.NewValueError("NewTree", "node must have exactly one parent")
		}
	}

	t := &Tree{nodes: append([]Node(nil), nodes...)}

	// Walk from the root with an explicit stack; with single parents and no
	// parent for the root this visits each node at most once.
	type item struct{ id, depth int }
	stack := []item{{0, 0}}
	visited := 0
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++
		n := t.nodes[it.id]
		if n.IsLeaf {
			t.numLeaves++
			if it.depth > t.maxDepth {
				t.maxDepth = it.depth
			}
			continue
		}
		stack = append(stack, item{n.Right, it.depth + 1}, item{n.Left, it.depth + 1})
	}
	if visited != len(nodes) {
		return nil, errors.NewValueError("NewTree", "tree contains unreachable nodes")
	}
	return t, nil
}

// Nodes returns a copy of the node arena.
func (t *Tree) Nodes() []Node { return append([]Node(nil), t.nodes...) }

// Node returns the node with the given id.
func (t *Tree) Node(id int) Node { return t.nodes[id] }

// NumNodes returns the arena size.
func (t *Tree) NumNodes() int { return len(t.nodes) }

// NumLeaves returns the number of leaves.
func (t *Tree) NumLeaves() int { return t.numLeaves }

// MaxDepth returns the depth of the deepest leaf; a single-leaf tree has
// depth 0.
func (t *Tree) MaxDepth() int { return t.maxDepth }

// maxFeature returns the largest feature index used by a split, or -1.
func (t *Tree) maxFeature() int {
	maxF := -1
	for _, n := range t.nodes {
		if !n.IsLeaf && n.Feature > maxF {
			maxF = n.Feature
		}
	}
	return maxF
}

// LeafIndex returns the id of the leaf reached by a row of m.
func (t *Tree) LeafIndex(m *dataset.FeatureMatrix, row int) int {
	id := 0
	for {
		n := &t.nodes[id]
		if n.IsLeaf {
			return id
		}
		v, ok := m.Value(row, n.Feature)
		switch {
		case !ok:
			id = n.MissingChild()
		case v <= n.Threshold:
			id = n.Left
		default:
			id = n.Right
		}
	}
}

// PredictRow returns the leaf weight reached by a row of m.
func (t *Tree) PredictRow(m *dataset.FeatureMatrix, row int) float64 {
	return t.nodes[t.LeafIndex(m, row)].Weight
}
