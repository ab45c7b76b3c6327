// Package dataset provides FeatureMatrix, the immutable column-oriented
// container of training and inference examples.
//
// Missing values are either entries absent from a sparse matrix or NaN values
// in a dense buffer. Readers never see the difference: Value reports a
// missing entry with ok == false and Column/Row materialize it as NaN.
package dataset

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// FeatureMatrix holds numeric features plus optional labels and per-row
// weights. All sequences that are present have NumRows elements.
type FeatureMatrix struct {
	numRows int
	numCols int

	// dense storage, column-major; nil for sparse matrices
	columns [][]float64

	// sparse storage; nil for dense matrices
	csr *compressed
	csc *compressed

	labels  []float64
	weights []float64
}

// Entry is one (row, column, value) triple of a sparse matrix.
type Entry struct {
	Row   int
	Col   int
	Value float64
}

// compressed is a CSR or CSC index: for outer index i, the inner indices and
// values live in [ptr[i], ptr[i+1]) and inner indices are strictly ascending.
type compressed struct {
	ptr    []int
	inner  []int
	values []float64
}

func (c *compressed) lookup(outer, inner int) (float64, bool) {
	lo, hi := c.ptr[outer], c.ptr[outer+1]
	idx := lo + sort.SearchInts(c.inner[lo:hi], inner)
	if idx < hi && c.inner[idx] == inner {
		return c.values[idx], true
	}
	return 0, false
}

// NewDense builds a matrix from a row-major buffer. The column count is
// len(buf)/rows. The buffer is copied.
func NewDense(buf []float64, rows int) (*FeatureMatrix, error) {
	if rows <= 0 {
		return nil, errors.NewShapeErrorf("NewDense", 0, "row count must be positive, got %d", rows)
	}
	if len(buf) == 0 {
		return nil, errors.NewShapeErrorf("NewDense", 1, "empty buffer")
	}
	if len(buf)%rows != 0 {
		return nil, errors.NewShapeErrorf("NewDense", 1, "buffer length %d is not divisible by row count %d", len(buf), rows)
	}

	cols := len(buf) / rows
	columns := make([][]float64, cols)
	for j := range columns {
		col := make([]float64, rows)
		for i := 0; i < rows; i++ {
			col[i] = buf[i*cols+j]
		}
		columns[j] = col
	}
	return &FeatureMatrix{numRows: rows, numCols: cols, columns: columns}, nil
}

// FromMatrix copies a gonum matrix into a dense FeatureMatrix.
func FromMatrix(m mat.Matrix) (*FeatureMatrix, error) {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.NewShapeErrorf("FromMatrix", 0, "empty matrix (%dx%d)", rows, cols)
	}

	columns := make([][]float64, cols)
	if d, ok := m.(*mat.Dense); ok {
		for j := range columns {
			columns[j] = mat.Col(nil, j, d)
		}
	} else {
		for j := range columns {
			col := make([]float64, rows)
			for i := range col {
				col[i] = m.At(i, j)
			}
			columns[j] = col
		}
	}
	return &FeatureMatrix{numRows: rows, numCols: cols, columns: columns}, nil
}

// NewSparse builds a matrix with the declared dimensions from (row, col,
// value) entries. Entries may come in any order; coordinates must be unique.
func NewSparse(entries []Entry, rows, cols int) (*FeatureMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.NewShapeErrorf("NewSparse", 0, "declared shape must be positive, got %dx%d", rows, cols)
	}
	for _, e := range entries {
		if e.Row < 0 || e.Row >= rows {
			return nil, errors.NewShapeErrorf("NewSparse", 0, "row %d out of range [0, %d)", e.Row, rows)
		}
		if e.Col < 0 || e.Col >= cols {
			return nil, errors.NewShapeErrorf("NewSparse", 1, "column %d out of range [0, %d)", e.Col, cols)
		}
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].Row != sorted[b].Row {
			return sorted[a].Row < sorted[b].Row
		}
		return sorted[a].Col < sorted[b].Col
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Row == sorted[i-1].Row && sorted[i].Col == sorted[i-1].Col {
			return nil, errors.NewShapeErrorf("NewSparse", 1, "duplicate entry at (%d, %d)", sorted[i].Row, sorted[i].Col)
		}
	}

	csr := &compressed{
		ptr:    make([]int, rows+1),
		inner:  make([]int, len(sorted)),
		values: make([]float64, len(sorted)),
	}
	for i, e := range sorted {
		csr.ptr[e.Row+1]++
		csr.inner[i] = e.Col
		csr.values[i] = e.Value
	}
	for i := 0; i < rows; i++ {
		csr.ptr[i+1] += csr.ptr[i]
	}

	// Rows were visited in ascending order, so each column's row list is
	// ascending as well.
	csc := &compressed{
		ptr:    make([]int, cols+1),
		inner:  make([]int, len(sorted)),
		values: make([]float64, len(sorted)),
	}
	for _, e := range sorted {
		csc.ptr[e.Col+1]++
	}
	for j := 0; j < cols; j++ {
		csc.ptr[j+1] += csc.ptr[j]
	}
	next := make([]int, cols)
	copy(next, csc.ptr[:cols])
	for _, e := range sorted {
		pos := next[e.Col]
		csc.inner[pos] = e.Row
		csc.values[pos] = e.Value
		next[e.Col]++
	}

	return &FeatureMatrix{numRows: rows, numCols: cols, csr: csr, csc: csc}, nil
}

// SetLabels attaches one label per row. The slice is copied.
func (m *FeatureMatrix) SetLabels(labels []float64) error {
	if len(labels) != m.numRows {
		return errors.NewShapeError("SetLabels", m.numRows, len(labels), 0)
	}
	m.labels = append([]float64(nil), labels...)
	return nil
}

// SetWeights attaches one non-negative weight per row. The slice is copied.
func (m *FeatureMatrix) SetWeights(weights []float64) error {
	if len(weights) != m.numRows {
		return errors.NewShapeError("SetWeights", m.numRows, len(weights), 0)
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return errors.NewValueError("SetWeights", fmt.Sprintf("weight at row %d must be finite and non-negative, got %v", i, w))
		}
	}
	m.weights = append([]float64(nil), weights...)
	return nil
}

// NumRows returns the number of rows.
func (m *FeatureMatrix) NumRows() int { return m.numRows }

// NumCols returns the number of feature columns.
func (m *FeatureMatrix) NumCols() int { return m.numCols }

// IsSparse reports whether the matrix was built from sparse entries.
func (m *FeatureMatrix) IsSparse() bool { return m.csr != nil }

// HasLabels reports whether labels were attached.
func (m *FeatureMatrix) HasLabels() bool { return m.labels != nil }

// HasWeights reports whether weights were attached.
func (m *FeatureMatrix) HasWeights() bool { return m.weights != nil }

// Labels returns the labels, or nil. The slice must not be modified.
func (m *FeatureMatrix) Labels() []float64 { return m.labels }

// Weights returns the row weights, or nil. The slice must not be modified.
func (m *FeatureMatrix) Weights() []float64 { return m.weights }

// Weight returns the weight of row, 1 when no weights are attached.
func (m *FeatureMatrix) Weight(row int) float64 {
	if m.weights == nil {
		return 1
	}
	return m.weights[row]
}

// Value returns the value at (row, col). ok is false for a missing value,
// including any col outside [0, NumCols).
func (m *FeatureMatrix) Value(row, col int) (v float64, ok bool) {
	if col < 0 || col >= m.numCols {
		return 0, false
	}
	if m.columns != nil {
		v = m.columns[col][row]
		return v, !math.IsNaN(v)
	}
	v, ok = m.csr.lookup(row, col)
	if ok && math.IsNaN(v) {
		return 0, false
	}
	return v, ok
}

// Column returns a copy of one column with NaN for missing values.
func (m *FeatureMatrix) Column(col int) []float64 {
	out := make([]float64, m.numRows)
	if m.columns != nil {
		copy(out, m.columns[col])
		return out
	}
	for i := range out {
		out[i] = math.NaN()
	}
	m.EachInColumn(col, func(row int, v float64) {
		out[row] = v
	})
	return out
}

// Row returns a copy of one row with NaN for missing values.
func (m *FeatureMatrix) Row(row int) []float64 {
	out := make([]float64, m.numCols)
	if m.columns != nil {
		for j, col := range m.columns {
			out[j] = col[row]
		}
		return out
	}
	for j := range out {
		out[j] = math.NaN()
	}
	lo, hi := m.csr.ptr[row], m.csr.ptr[row+1]
	for k := lo; k < hi; k++ {
		out[m.csr.inner[k]] = m.csr.values[k]
	}
	return out
}

// EachInColumn calls fn for every present value of col in ascending row
// order.
func (m *FeatureMatrix) EachInColumn(col int, fn func(row int, v float64)) {
	if m.columns != nil {
		for i, v := range m.columns[col] {
			if !math.IsNaN(v) {
				fn(i, v)
			}
		}
		return
	}
	lo, hi := m.csc.ptr[col], m.csc.ptr[col+1]
	for k := lo; k < hi; k++ {
		if v := m.csc.values[k]; !math.IsNaN(v) {
			fn(m.csc.inner[k], v)
		}
	}
}

// NumPresent returns the number of non-missing values.
func (m *FeatureMatrix) NumPresent() int {
	n := 0
	for j := 0; j < m.numCols; j++ {
		m.EachInColumn(j, func(int, float64) { n++ })
	}
	return n
}

// ToDense returns the features as a gonum matrix with NaN for missing values.
func (m *FeatureMatrix) ToDense() *mat.Dense {
	d := mat.NewDense(m.numRows, m.numCols, nil)
	for j := 0; j < m.numCols; j++ {
		d.SetCol(j, m.Column(j))
	}
	return d
}
