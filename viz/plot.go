package viz

import (
	"io"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// Default plot size.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// LearningCurves plots one line per evaluation series, keyed the way
// gbdt.RecordEvaluation keys them ("valid-rmse"). Series are drawn in key
// order so colours are stable.
func LearningCurves(history map[string][]float64, title string) (*plot.Plot, error) {
	if len(history) == 0 {
		return nil, errors.NewValueError("LearningCurves", "history is empty")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "round"
	p.Y.Label.Text = "score"
	p.Add(plotter.NewGrid())

	keys := make([]string, 0, len(history))
	for k := range history {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, key := range keys {
		scores := history[key]
		if len(scores) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(scores))
		for r, s := range scores {
			pts[r].X = float64(r)
			pts[r].Y = s
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "series %s", key)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		p.Add(line)
		p.Legend.Add(key, line)
	}
	p.Legend.Top = true
	return p, nil
}

// WriteLearningCurves renders LearningCurves to w in format ("png", "svg",
// "pdf", ...). Zero sizes use DefaultWidth and DefaultHeight.
func WriteLearningCurves(w io.Writer, history map[string][]float64, title, format string, width, height vg.Length) error {
	p, err := LearningCurves(history, title)
	if err != nil {
		return err
	}
	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return errors.Wrapf(err, "rendering %s", format)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing plot")
	}
	return nil
}
