package data

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrEmptyFrame = errors.New("frame has no rows")

// Column maps a typed record to one numeric cell.
type Column[T any] struct {
	Name  string
	Value func(T) float64
}

// Frame is a numeric table: one row per record, one column per measure,
// backed by a dense matrix so gonum's stat routines can read it directly.
type Frame struct {
	names []string
	index map[string]int
	data  *mat.Dense // nil when there are no rows
}

// NewFrame binds records to columns. Column order is preserved.
func NewFrame[T any](rows []T, cols ...Column[T]) *Frame {
	f := &Frame{
		names: make([]string, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for j, c := range cols {
		f.names[j] = c.Name
		f.index[c.Name] = j
	}
	if len(rows) == 0 || len(cols) == 0 {
		return f
	}
	f.data = mat.NewDense(len(rows), len(cols), nil)
	for i, r := range rows {
		for j, c := range cols {
			f.data.Set(i, j, c.Value(r))
		}
	}
	return f
}

func (f *Frame) Rows() int {
	if f.data == nil {
		return 0
	}
	r, _ := f.data.Dims()
	return r
}

func (f *Frame) Columns() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Col returns a copy of the named column.
func (f *Frame) Col(name string) ([]float64, error) {
	j, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	if f.data == nil {
		return nil, nil
	}
	return mat.Col(nil, j, f.data), nil
}

// Head returns up to n rows.
func (f *Frame) Head(n int) [][]float64 {
	if n > f.Rows() {
		n = f.Rows()
	}
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = mat.Row(nil, i, f.data)
	}
	return out
}

// Matrix exposes the backing matrix; nil for an empty frame.
func (f *Frame) Matrix() mat.Matrix {
	if f.data == nil {
		return nil
	}
	return f.data
}
