// Package viz renders trained ensembles for inspection: trees as Graphviz
// DOT documents and evaluation histories as learning-curve plots.
package viz

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"

	"github.com/YuminosukeSato/goboost/gbdt"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

const graphName = "G"

func nodeName(id int) string { return "n" + strconv.Itoa(id) }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }

// TreeToDOT renders a tree as a directed graph. Internal nodes show the split
// condition, leaves show their weight, and edges are labelled yes/no with the
// missing-value branch marked. fmap may be nil.
func TreeToDOT(tree *gbdt.Tree, fmap *gbdt.FeatureMap) (string, error) {
	if tree == nil {
		return "", errors.NewValueError("TreeToDOT", "tree is nil")
	}

	graphAst, err := gographviz.Parse([]byte(`digraph G{}`))
	if err != nil {
		return "", errors.Wrap(err, "parsing graph template")
	}
	graph := gographviz.NewGraph()
	if err := gographviz.Analyse(graphAst, graph); err != nil {
		return "", errors.Wrap(err, "analysing graph template")
	}
	if err := graph.AddAttr(graphName, "rankdir", "TB"); err != nil {
		return "", errors.Wrap(err, "setting graph attributes")
	}

	for id := 0; id < tree.NumNodes(); id++ {
		n := tree.Node(id)
		if n.IsLeaf {
			label := fmt.Sprintf("leaf=%s", formatFloat(n.Weight))
			if err := graph.AddNode(graphName, nodeName(id), map[string]string{
				"label": strconv.Quote(label),
				"shape": "box",
			}); err != nil {
				return "", errors.Wrapf(err, "adding node %d", id)
			}
			continue
		}

		label := fmap.Condition(n)
		if n.Count > 0 {
			label += fmt.Sprintf(" gain=%s cover=%s", formatFloat(n.Gain), formatFloat(n.SumHess))
		}
		if err := graph.AddNode(graphName, nodeName(id), map[string]string{
			"label": strconv.Quote(label),
			"shape": "ellipse",
		}); err != nil {
			return "", errors.Wrapf(err, "adding node %d", id)
		}

		yes, no := fmap.Branches(n)
		missing := n.MissingChild()
		for _, e := range []struct {
			child int
			text  string
		}{{yes, "yes"}, {no, "no"}} {
			text := e.text
			if e.child == missing {
				text += ", missing"
			}
			if err := graph.AddEdge(nodeName(id), nodeName(e.child), true, map[string]string{
				"label": strconv.Quote(text),
			}); err != nil {
				return "", errors.Wrapf(err, "adding edge %d -> %d", id, e.child)
			}
		}
	}
	return graph.String(), nil
}

// EnsembleToDOT renders tree index of ens.
func EnsembleToDOT(ens *gbdt.Ensemble, index int, fmap *gbdt.FeatureMap) (string, error) {
	trees := ens.Trees()
	if index < 0 || index >= len(trees) {
		return "", errors.NewValueError("EnsembleToDOT", fmt.Sprintf("tree index %d out of range [0, %d)", index, len(trees)))
	}
	return TreeToDOT(trees[index], fmap)
}
