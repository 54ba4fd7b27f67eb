package utils

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Identity matrix, possibly rectangular: ones at (i, i) for i < min(r, c).
func EyeRect(r, c int) *mat.Dense {
	out := mat.NewDense(r, c, nil)
	for i := 0; i < min(r, c); i++ {
		out.Set(i, i, 1)
	}
	return out
}

// First n rows of m. The result shares storage with m.
func HeadRows(m *mat.Dense, n int) *mat.Dense {
	_, c := m.Dims()
	return m.Slice(0, n, 0, c).(*mat.Dense)
}

// Column-wise minimum and maximum of m.
func ColumnBounds(m mat.Matrix) (lo, hi []float64) {
	r, c := m.Dims()
	lo = make([]float64, c)
	hi = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		lo[j] = floats.Min(col)
		hi[j] = floats.Max(col)
	}
	return
}

// Diagonal of a square matrix.
func Diag(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, min(r, c))
	for i := range out {
		out[i] = m.At(i, i)
	}
	return out
}
