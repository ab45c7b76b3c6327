package gbdt

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// FeatureType controls how a split on a feature is printed.
type FeatureType string

const (
	// Indicator features are binary; the split prints as [name].
	Indicator FeatureType = "i"
	// Quantitative features print as [name<=threshold].
	Quantitative FeatureType = "q"
	// Integer features print with the threshold rounded down.
	Integer FeatureType = "int"
)

// Feature is one entry of a FeatureMap.
type Feature struct {
	Name string
	Type FeatureType
}

// FeatureMap names features for model dumps.
type FeatureMap struct {
	features []Feature
}

// NewFeatureMap creates a feature map from features in index order.
func NewFeatureMap(features ...Feature) *FeatureMap {
	return &FeatureMap{features: append([]Feature(nil), features...)}
}

// ParseFeatureMap reads "index name type" lines. Indices must start at 0 and
// be consecutive; blank lines are skipped.
func ParseFeatureMap(r io.Reader) (*FeatureMap, error) {
	fm := &FeatureMap{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		parts := strings.Fields(text)
		if len(parts) != 3 {
			return nil, errors.NewValueError("ParseFeatureMap", fmt.Sprintf("line %d: expected \"index name type\"", line))
		}
		idx, err := strconv.Atoi(parts[0])
		if err != nil || idx != len(fm.features) {
			return nil, errors.NewValueError("ParseFeatureMap", fmt.Sprintf("line %d: expected index %d, got %q", line, len(fm.features), parts[0]))
		}
		ft := FeatureType(parts[2])
		switch ft {
		case Indicator, Quantitative, Integer:
		default:
			return nil, errors.NewValueError("ParseFeatureMap", fmt.Sprintf("line %d: unknown feature type %q", line, parts[2]))
		}
		fm.features = append(fm.features, Feature{Name: parts[1], Type: ft})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading feature map")
	}
	return fm, nil
}

// Len returns the number of named features.
func (fm *FeatureMap) Len() int {
	if fm == nil {
		return 0
	}
	return len(fm.features)
}

// Feature returns the entry of a feature index. Unnamed features are
// quantitative and called f<index>.
func (fm *FeatureMap) Feature(index int) Feature {
	if fm != nil && index < len(fm.features) {
		return fm.features[index]
	}
	return Feature{Name: "f" + strconv.Itoa(index), Type: Quantitative}
}

// Branches returns the children taken when the printed condition holds and
// when it does not. Indicator conditions hold on the right branch.
func (fm *FeatureMap) Branches(n Node) (yes, no int) {
	if fm.Feature(n.Feature).Type == Indicator {
		return n.Right, n.Left
	}
	return n.Left, n.Right
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Condition renders the split test of an internal node, e.g. "age<=30".
func (fm *FeatureMap) Condition(n Node) string {
	f := fm.Feature(n.Feature)
	switch f.Type {
	case Indicator:
		return f.Name
	case Integer:
		return f.Name + "<=" + formatFloat(math.Floor(n.Threshold))
	default:
		return f.Name + "<=" + formatFloat(n.Threshold)
	}
}

// DumpText renders every tree in a line-per-node text form, depth-first with
// one tab of indentation per level:
//
//	0:[f0<=0.5] yes=1,no=2,missing=2
//		1:leaf=-0.4
//		2:leaf=0.16
//
// yes is the branch taken when the condition holds. Indicator splits print
// the feature name alone and take yes when the indicator is set. withStats
// adds gain and cover (hessian sum). fmap may be nil.
func (e *Ensemble) DumpText(fmap *FeatureMap, withStats bool) []string {
	trees := e.Trees()
	dumps := make([]string, len(trees))
	for i, t := range trees {
		dumps[i] = t.dumpText(fmap, withStats)
	}
	return dumps
}

func (t *Tree) dumpText(fmap *FeatureMap, withStats bool) string {
	var sb strings.Builder
	type item struct{ id, depth int }
	stack := []item{{0, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[it.id]

		sb.WriteString(strings.Repeat("\t", it.depth))
		if n.IsLeaf {
			fmt.Fprintf(&sb, "%d:leaf=%s", it.id, formatFloat(n.Weight))
			if withStats {
				fmt.Fprintf(&sb, ",cover=%s", formatFloat(n.SumHess))
			}
			sb.WriteByte('\n')
			continue
		}

		yes, no := fmap.Branches(n)
		missing := n.MissingChild()
		fmt.Fprintf(&sb, "%d:[%s] yes=%d,no=%d,missing=%d", it.id, fmap.Condition(n), yes, no, missing)
		if withStats {
			fmt.Fprintf(&sb, ",gain=%s,cover=%s", formatFloat(n.Gain), formatFloat(n.SumHess))
		}
		sb.WriteByte('\n')
		stack = append(stack, item{no, it.depth + 1}, item{yes, it.depth + 1})
	}
	return sb.String()
}
