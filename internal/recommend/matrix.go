package recommend

import (
	"math"
	"math/rand"
)

// Matrix is a dense row-major float64 matrix. It is the only linear-algebra
// primitive training needs: uniform initialization, dot products, elementwise
// clamping and a squared Frobenius norm.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

// NewMatrix allocates a zero matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// NewUniformMatrix allocates a matrix with entries drawn uniformly from
// [lo, hi) using the given source, so training runs are reproducible.
func NewUniformMatrix(rows, cols int, lo, hi float64, rng *rand.Rand) *Matrix {
	m := NewMatrix(rows, cols)
	for i := range m.Data {
		m.Data[i] = lo + rng.Float64()*(hi-lo)
	}
	return m
}

// Row returns a mutable view of row i.
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// At returns the element at (i, j).
func (m *Matrix) At(i, j int) float64 {
	return m.Data[i*m.Cols+j]
}

// SumSquares returns the squared Frobenius norm, the L2 regularization term.
func (m *Matrix) SumSquares() float64 {
	var sum float64
	for _, v := range m.Data {
		sum += v * v
	}
	return sum
}

// dot returns the inner product of two equal-length vectors.
func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// clamp restricts x to [lo, hi].
func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

// clampSlice restricts every element of v to [lo, hi] in place.
func clampSlice(v []float64, lo, hi float64) {
	for i := range v {
		v[i] = clamp(v[i], lo, hi)
	}
}
