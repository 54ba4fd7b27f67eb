package kern

import (
	"math"

	"github.com/lucasmaystre/spentfuelgpr/utils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func dense(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(m)
}

// operands checks that x1 and x2 have the same number of columns, and that
// it equals dim when dim > 0.
func operands(x1, x2 mat.Matrix, dim int) (*mat.Dense, *mat.Dense) {
	_, c1 := x1.Dims()
	_, c2 := x2.Dims()
	if c1 != c2 || (dim > 0 && c1 != dim) {
		panic(ErrDimensionMismatch)
	}
	return dense(x1), dense(x2)
}

// rescale divides column d of x by ls[d].
func rescale(x *mat.Dense, ls []float64) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, j int, v float64) float64 { return v / ls[j] }, x)
	return &out
}

// pairwise builds the matrix fn(x1[i], x2[j]).
func pairwise(x1, x2 *mat.Dense, fn func(a, b []float64) float64) *mat.Dense {
	r1, _ := x1.Dims()
	r2, _ := x2.Dims()
	out := mat.NewDense(r1, r2, nil)
	for i := 0; i < r1; i++ {
		a := x1.RawRowView(i)
		for j := 0; j < r2; j++ {
			out.Set(i, j, fn(a, x2.RawRowView(j)))
		}
	}
	return out
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func dist(a, b []float64) float64 {
	return math.Sqrt(sqDist(a, b))
}

func dimSqDist(d int) func(a, b []float64) float64 {
	return func(a, b []float64) float64 {
		v := a[d] - b[d]
		return v * v
	}
}

func dimProd(d int) func(a, b []float64) float64 {
	return func(a, b []float64) float64 {
		return a[d] * b[d]
	}
}

func inner(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// elementwise returns fn applied to every entry of m.
func elementwise(m *mat.Dense, fn func(v float64) float64) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return fn(v) }, m)
	return &out
}

func addJitter(k *mat.Dense, noise float64) {
	r, c := k.Dims()
	v := noise * noise
	for i := 0; i < min(r, c); i++ {
		k.Set(i, i, k.At(i, i)+v)
	}
}

// Derivative of the jitter term with respect to the noise amplitude.
func jitterGrad(r, c int, noise float64) *mat.Dense {
	g := utils.EyeRect(r, c)
	g.Scale(2*noise, g)
	return g
}

// flatten concatenates scalars and slices into a fresh parameter vector.
func flatten(parts ...interface{}) []float64 {
	out := make([]float64, 0, 8)
	for _, p := range parts {
		switch p := p.(type) {
		case float64:
			out = append(out, p)
		case []float64:
			out = append(out, p...)
		}
	}
	return out
}
