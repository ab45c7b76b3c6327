// Package config loads training parameters from YAML or JSON documents.
//
// Keys mirror the json/yaml tags of gbdt.Params. Keys that are absent keep
// their gbdt.DefaultParams value. Unknown keys, ill-typed values and values
// out of range fail with an *errors.ConfigError naming the key.
//
//	max_depth: 4
//	learning_rate: 0.1
//	loss: logistic
//	growth_policy: best_first
//	early_stopping_rounds: 5
package config

import (
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/goboost/gbdt"
	"github.com/YuminosukeSato/goboost/metrics"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// setter decodes one value into params.
type setter func(p *gbdt.Params, value *yaml.Node) error

var fields = map[string]setter{
	"max_depth":        intField("max_depth", func(p *gbdt.Params) *int { return &p.MaxDepth }),
	"max_leaves":       intField("max_leaves", func(p *gbdt.Params) *int { return &p.MaxLeaves }),
	"min_child_weight": floatField("min_child_weight", func(p *gbdt.Params) *float64 { return &p.MinChildWeight }),
	"max_bin":          intField("max_bin", func(p *gbdt.Params) *int { return &p.MaxBin }),
	"lambda":           floatField("lambda", func(p *gbdt.Params) *float64 { return &p.Lambda }),
	"gamma":            floatField("gamma", func(p *gbdt.Params) *float64 { return &p.Gamma }),
	"num_rounds":       intField("num_rounds", func(p *gbdt.Params) *int { return &p.NumRounds }),
	"learning_rate":    floatField("learning_rate", func(p *gbdt.Params) *float64 { return &p.LearningRate }),
	"subsample":        floatField("subsample", func(p *gbdt.Params) *float64 { return &p.Subsample }),
	"num_threads":      intField("num_threads", func(p *gbdt.Params) *int { return &p.NumThreads }),
	"seed":             setSeed,
	"loss":             setLoss,
	"growth_policy":    setGrowthPolicy,
	"eval_metric":      setEvalMetric,
	"base_score":       setBaseScore,

	"early_stopping_rounds": setEarlyStopping,
}

// Keys returns the recognised keys in no particular order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	return keys
}

// Load reads a parameter document from r.
func Load(r io.Reader) (gbdt.Params, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return gbdt.Params{}, errors.Wrap(err, "reading config")
	}
	return LoadBytes(data)
}

// LoadFile reads a parameter document from path.
func LoadFile(path string) (gbdt.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gbdt.Params{}, errors.Wrapf(err, "reading config %s", path)
	}
	return LoadBytes(data)
}

// LoadBytes decodes a parameter document. An empty document yields
// gbdt.DefaultParams.
func LoadBytes(data []byte) (gbdt.Params, error) {
	params := gbdt.DefaultParams()

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return gbdt.Params{}, errors.Wrap(err, "parsing config")
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return params, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return gbdt.Params{}, errors.NewConfigError("", "document must be a mapping of parameter names to values", root.Value)
	}

	seen := make(map[string]bool, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		set, ok := fields[key]
		if !ok {
			return gbdt.Params{}, errors.NewConfigError(key, "unknown field", nil)
		}
		if seen[key] {
			return gbdt.Params{}, errors.NewConfigError(key, "duplicate field", nil)
		}
		seen[key] = true
		if err := set(&params, root.Content[i+1]); err != nil {
			return gbdt.Params{}, err
		}
	}

	if err := params.Validate(); err != nil {
		return gbdt.Params{}, err
	}
	return params, nil
}

// Marshal renders params as a YAML document that LoadBytes accepts.
func Marshal(p gbdt.Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "encoding config")
	}
	return out, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func scalar(key string, n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode || isNull(n) {
		return errors.NewConfigError(key, "expected a scalar value", n.Value)
	}
	return nil
}

func intField(key string, field func(*gbdt.Params) *int) setter {
	return func(p *gbdt.Params, n *yaml.Node) error {
		if err := scalar(key, n); err != nil {
			return err
		}
		var v int
		if n.ShortTag() != "!!int" || n.Decode(&v) != nil {
			return errors.NewConfigError(key, "expected an integer", n.Value)
		}
		*field(p) = v
		return nil
	}
}

func floatField(key string, field func(*gbdt.Params) *float64) setter {
	return func(p *gbdt.Params, n *yaml.Node) error {
		if err := scalar(key, n); err != nil {
			return err
		}
		var v float64
		if tag := n.ShortTag(); (tag != "!!float" && tag != "!!int") || n.Decode(&v) != nil {
			return errors.NewConfigError(key, "expected a number", n.Value)
		}
		*field(p) = v
		return nil
	}
}

func stringValue(key string, n *yaml.Node) (string, error) {
	if err := scalar(key, n); err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(n.Value)), nil
}

func setSeed(p *gbdt.Params, n *yaml.Node) error {
	if err := scalar("seed", n); err != nil {
		return err
	}
	var v uint64
	if n.ShortTag() != "!!int" || n.Decode(&v) != nil {
		return errors.NewConfigError("seed", "expected a non-negative integer", n.Value)
	}
	p.Seed = v
	return nil
}

func setLoss(p *gbdt.Params, n *yaml.Node) error {
	if err := scalar("loss", n); err != nil {
		return err
	}
	loss, err := gbdt.ParseLoss(n.Value)
	if err != nil {
		return err
	}
	p.Loss = loss
	return nil
}

func setGrowthPolicy(p *gbdt.Params, n *yaml.Node) error {
	v, err := stringValue("growth_policy", n)
	if err != nil {
		return err
	}
	switch policy := gbdt.GrowthPolicy(v); policy {
	case gbdt.BestFirst, gbdt.DepthWise:
		p.GrowthPolicy = policy
		return nil
	default:
		return errors.NewConfigError("growth_policy", "must be best_first or depth_wise", n.Value)
	}
}

func setEvalMetric(p *gbdt.Params, n *yaml.Node) error {
	v, err := stringValue("eval_metric", n)
	if err != nil {
		return err
	}
	if _, err := metrics.Get(v); err != nil {
		return err
	}
	p.EvalMetric = v
	return nil
}

func setBaseScore(p *gbdt.Params, n *yaml.Node) error {
	if isNull(n) {
		p.BaseScore = nil
		return nil
	}
	var v float64
	if err := floatField("base_score", func(*gbdt.Params) *float64 { return &v })(p, n); err != nil {
		return err
	}
	p.BaseScore = &v
	return nil
}

func setEarlyStopping(p *gbdt.Params, n *yaml.Node) error {
	if isNull(n) {
		p.EarlyStoppingRounds = 0
		return nil
	}
	var v int
	if err := intField("early_stopping_rounds", func(*gbdt.Params) *int { return &v })(p, n); err != nil {
		return err
	}
	if v < 1 {
		return errors.NewConfigError("early_stopping_rounds", "must be >= 1 when set", v)
	}
	p.EarlyStoppingRounds = v
	return nil
}
