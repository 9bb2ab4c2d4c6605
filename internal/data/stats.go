package data

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

type ColumnSummary struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"q25"`
	Q50   float64 `json:"q50"`
	Q75   float64 `json:"q75"`
	Max   float64 `json:"max"`
}

// Summary is the describe() table: one entry per numeric column.
type Summary struct {
	Columns []ColumnSummary `json:"columns"`
}

func (s Summary) Get(name string) (ColumnSummary, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

// Describe computes count, mean, sample std, min, quartiles and max per column.
func Describe(f *Frame) (Summary, error) {
	if f.Rows() == 0 {
		return Summary{}, ErrEmptyFrame
	}
	var s Summary
	for _, name := range f.names {
		col, err := f.Col(name)
		if err != nil {
			return Summary{}, err
		}
		sorted := make([]float64, len(col))
		copy(sorted, col)
		sort.Float64s(sorted)

		mean, std := stat.MeanStdDev(col, nil)
		s.Columns = append(s.Columns, ColumnSummary{
			Name:  name,
			Count: len(col),
			Mean:  mean,
			Std:   std,
			Min:   floats.Min(col),
			Q25:   quantile(sorted, 0.25),
			Q50:   quantile(sorted, 0.50),
			Q75:   quantile(sorted, 0.75),
			Max:   floats.Max(col),
		})
	}
	return s, nil
}

// quantile interpolates linearly between the closest ranks at h = (n-1)p,
// the convention describe() tables use. stat.Quantile's LinInterp ranks at
// np and does not give the median on even-sized samples.
func quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo, hi := math.Floor(h), math.Ceil(h)
	a, b := sorted[int(lo)], sorted[int(hi)]
	return a + (h-lo)*(b-a)
}

// Correlation is a Pearson correlation matrix with its column labels.
type Correlation struct {
	Names  []string
	Matrix *mat.SymDense
}

func (c Correlation) At(a, b string) (float64, error) {
	i, j := -1, -1
	for k, n := range c.Names {
		if n == a {
			i = k
		}
		if n == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, fmt.Errorf("unknown column pair %q/%q", a, b)
	}
	return c.Matrix.At(i, j), nil
}

// Corr computes pairwise Pearson correlation between all columns. Constant
// columns yield NaN, as they do in pandas.
func Corr(f *Frame) (Correlation, error) {
	if f.Rows() < 2 {
		return Correlation{}, fmt.Errorf("correlation needs at least 2 rows, have %d: %w", f.Rows(), ErrEmptyFrame)
	}
	_, n := f.data.Dims()
	m := mat.NewSymDense(n, nil)
	stat.CorrelationMatrix(m, f.data, nil)
	return Correlation{Names: f.Columns(), Matrix: m}, nil
}

type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ValueCounts tallies labels, most frequent first; ties break alphabetically.
func ValueCounts(values []string) []Count {
	m := make(map[string]int)
	for _, v := range values {
		m[v]++
	}
	out := make([]Count, 0, len(m))
	for v, n := range m {
		out = append(out, Count{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
