// Package persist saves and restores trained ensembles.
//
// Two codecs are provided: GobCodec, a compact binary form, and JSONCodec, a
// human-readable form. Both reproduce predictions exactly. Decoding rebuilds
// every tree through gbdt.NewTree, so a corrupted or hand-edited model fails
// to load instead of misrouting rows.
//
//	if err := persist.Save("model.json", persist.JSONCodec{Indent: "  "}, ens); err != nil {
//	    return err
//	}
//	ens, err := persist.Load("model.json", persist.JSONCodec{})
package persist

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/goboost/gbdt"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// FormatVersion is written into every encoded model.
const FormatVersion = 1

// Codec encodes and decodes ensembles.
type Codec interface {
	Encode(w io.Writer, ens *gbdt.Ensemble) error
	Decode(r io.Reader) (*gbdt.Ensemble, error)
}

type modelDTO struct {
	Version      int       `json:"version"`
	Loss         gbdt.Loss `json:"loss"`
	NumFeatures  int       `json:"num_features"`
	LearningRate float64   `json:"learning_rate"`
	BaseScore    float64   `json:"base_score"`
	BestRound    int       `json:"best_round"`
	Trees        []treeDTO `json:"trees"`
}

type treeDTO struct {
	Nodes []gbdt.Node `json:"nodes"`
}

func toDTO(ens *gbdt.Ensemble) (*modelDTO, error) {
	if ens == nil {
		return nil, errors.NewValueError("persist.Encode", "ensemble is nil")
	}
	trees := ens.Trees()
	dto := &modelDTO{
		Version:      FormatVersion,
		Loss:         ens.Loss(),
		NumFeatures:  ens.NumFeatures(),
		LearningRate: ens.LearningRate(),
		BaseScore:    ens.BaseScore(),
		BestRound:    ens.BestRound(),
		Trees:        make([]treeDTO, len(trees)),
	}
	for i, t := range trees {
		dto.Trees[i] = treeDTO{Nodes: t.Nodes()}
	}
	return dto, nil
}

func fromDTO(dto *modelDTO) (*gbdt.Ensemble, error) {
	if dto.Version != FormatVersion {
		return nil, errors.NewValueError("persist.Decode", "unsupported model format version")
	}
	trees := make([]*gbdt.Tree, len(dto.Trees))
	for i, td := range dto.Trees {
		t, err := gbdt.NewTree(td.Nodes)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding tree %d", i)
		}
		trees[i] = t
	}
	ens, err := gbdt.NewEnsemble(dto.Loss, dto.NumFeatures, dto.LearningRate, dto.BaseScore, trees)
	if err != nil {
		return nil, errors.Wrap(err, "decoding ensemble")
	}
	if err := ens.SetBestRound(dto.BestRound); err != nil {
		return nil, errors.Wrap(err, "decoding ensemble")
	}
	return ens, nil
}

// gob omits zero-valued fields and -0 compares equal to 0, so floats that
// reach predictions travel as raw bits.
type gobModel struct {
	Version      int
	Loss         gbdt.Loss
	NumFeatures  int
	LearningRate uint64
	BaseScore    uint64
	BestRound    int
	Trees        [][]gobNode
}

type gobNode struct {
	IsLeaf      bool
	Weight      uint64
	Feature     int
	Threshold   uint64
	Left        int
	Right       int
	DefaultLeft bool
	Gain        float64
	SumGrad     float64
	SumHess     float64
	Count       int
}

// GobCodec encodes ensembles with encoding/gob.
type GobCodec struct{}

// Encode implements Codec.
func (GobCodec) Encode(w io.Writer, ens *gbdt.Ensemble) error {
	dto, err := toDTO(ens)
	if err != nil {
		return err
	}
	gm := gobModel{
		Version:      dto.Version,
		Loss:         dto.Loss,
		NumFeatures:  dto.NumFeatures,
		LearningRate: math.Float64bits(dto.LearningRate),
		BaseScore:    math.Float64bits(dto.BaseScore),
		BestRound:    dto.BestRound,
		Trees:        make([][]gobNode, len(dto.Trees)),
	}
	for i, td := range dto.Trees {
		nodes := make([]gobNode, len(td.Nodes))
		for j, n := range td.Nodes {
			nodes[j] = gobNode{
				IsLeaf:      n.IsLeaf,
				Weight:      math.Float64bits(n.Weight),
				Feature:     n.Feature,
				Threshold:   math.Float64bits(n.Threshold),
				Left:        n.Left,
				Right:       n.Right,
				DefaultLeft: n.DefaultLeft,
				Gain:        n.Gain,
				SumGrad:     n.SumGrad,
				SumHess:     n.SumHess,
				Count:       n.Count,
			}
		}
		gm.Trees[i] = nodes
	}
	if err := gob.NewEncoder(w).Encode(&gm); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// Decode implements Codec.
func (GobCodec) Decode(r io.Reader) (*gbdt.Ensemble, error) {
	var gm gobModel
	if err := gob.NewDecoder(r).Decode(&gm); err != nil {
		return nil, errors.Wrap(err, "failed to decode model")
	}
	dto := modelDTO{
		Version:      gm.Version,
		Loss:         gm.Loss,
		NumFeatures:  gm.NumFeatures,
		LearningRate: math.Float64frombits(gm.LearningRate),
		BaseScore:    math.Float64frombits(gm.BaseScore),
		BestRound:    gm.BestRound,
		Trees:        make([]treeDTO, len(gm.Trees)),
	}
	for i, nodes := range gm.Trees {
		td := treeDTO{Nodes: make([]gbdt.Node, len(nodes))}
		for j, n := range nodes {
			td.Nodes[j] = gbdt.Node{
				IsLeaf:      n.IsLeaf,
				Weight:      math.Float64frombits(n.Weight),
				Feature:     n.Feature,
				Threshold:   math.Float64frombits(n.Threshold),
				Left:        n.Left,
				Right:       n.Right,
				DefaultLeft: n.DefaultLeft,
				Gain:        n.Gain,
				SumGrad:     n.SumGrad,
				SumHess:     n.SumHess,
				Count:       n.Count,
			}
		}
		dto.Trees[i] = td
	}
	return fromDTO(&dto)
}

// JSONCodec encodes ensembles as JSON. Indent, when set, pretty-prints the
// output.
type JSONCodec struct {
	Indent string
}

// Encode implements Codec.
func (c JSONCodec) Encode(w io.Writer, ens *gbdt.Ensemble) error {
	dto, err := toDTO(ens)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	if c.Indent != "" {
		enc.SetIndent("", c.Indent)
	}
	if err := enc.Encode(dto); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// Decode implements Codec. Unknown fields are rejected.
func (JSONCodec) Decode(r io.Reader) (*gbdt.Ensemble, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var dto modelDTO
	if err := dec.Decode(&dto); err != nil {
		return nil, errors.Wrap(err, "failed to decode model")
	}
	return fromDTO(&dto)
}

// CodecFor picks JSONCodec for .json paths and GobCodec otherwise.
func CodecFor(path string) Codec {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSONCodec{Indent: "  "}
	}
	return GobCodec{}
}

// Marshal encodes ens into a byte slice.
func Marshal(c Codec, ens *gbdt.Ensemble) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, ens); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes an ensemble from data.
func Unmarshal(c Codec, data []byte) (*gbdt.Ensemble, error) {
	return c.Decode(bytes.NewReader(data))
}

// Save writes ens to path, creating or truncating the file.
func Save(path string, c Codec, ens *gbdt.Ensemble) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	if err := c.Encode(file, ens); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(err, "failed to close file")
	}
	return nil
}

// Load reads an ensemble from path.
func Load(path string, c Codec) (*gbdt.Ensemble, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()
	return c.Decode(file)
}
