package kern

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	_ Differentiable = (*MultiQuad)(nil)
	_ Differentiable = (*InvMultiQuad)(nil)
)

// MultiQuad is the multiquadric kernel k(x, y) = sqrt(s + c^2), with
// s = |(x - y) / l|^2. It is not positive semi-definite.
type MultiQuad struct {
	Offset       float64
	LengthScales []float64
	Noise        float64
}

func NewMultiQuad(offset float64, lscales []float64, noise float64) *MultiQuad {
	return &MultiQuad{
		Offset:       offset,
		LengthScales: lscales,
		Noise:        noise,
	}
}

func (k *MultiQuad) Type() Type {
	return TypeMultiQuad
}

func (k *MultiQuad) Params() []float64 {
	return flatten(k.Offset, k.LengthScales, k.Noise)
}

func (k *MultiQuad) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *MultiQuad) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *MultiQuad) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, len(k.LengthScales))
	a, b = rescale(a, k.LengthScales), rescale(b, k.LengthScales)
	c2 := k.Offset * k.Offset
	cov := elementwise(pairwise(a, b, sqDist), func(v float64) float64 { return math.Sqrt(v + c2) })
	var grads []*mat.Dense
	if grad {
		r, c := cov.Dims()
		grads = make([]*mat.Dense, 0, len(k.LengthScales)+2)
		grads = append(grads, elementwise(cov, func(q float64) float64 { return k.Offset / q }))
		for d, l := range k.LengthScales {
			// dK/dl_d = -(x_d - y_d)^2 / (l_d^3 K)
			g := pairwise(a, b, dimSqDist(d))
			g.DivElem(g, cov)
			g.Scale(-1/l, g)
			grads = append(grads, g)
		}
		grads = append(grads, jitterGrad(r, c, k.Noise))
	}
	addJitter(cov, k.Noise)
	return cov, grads
}

// InvMultiQuad is the inverse multiquadric kernel k(x, y) = 1 / sqrt(s + c^2).
type InvMultiQuad struct {
	Offset       float64
	LengthScales []float64
	Noise        float64
}

func NewInvMultiQuad(offset float64, lscales []float64, noise float64) *InvMultiQuad {
	return &InvMultiQuad{
		Offset:       offset,
		LengthScales: lscales,
		Noise:        noise,
	}
}

func (k *InvMultiQuad) Type() Type {
	return TypeInvMultiQuad
}

func (k *InvMultiQuad) Params() []float64 {
	return flatten(k.Offset, k.LengthScales, k.Noise)
}

func (k *InvMultiQuad) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *InvMultiQuad) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *InvMultiQuad) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, len(k.LengthScales))
	a, b = rescale(a, k.LengthScales), rescale(b, k.LengthScales)
	c2 := k.Offset * k.Offset
	cov := elementwise(pairwise(a, b, sqDist), func(v float64) float64 { return 1 / math.Sqrt(v+c2) })
	var grads []*mat.Dense
	if grad {
		r, c := cov.Dims()
		grads = make([]*mat.Dense, 0, len(k.LengthScales)+2)
		cube := elementwise(cov, func(v float64) float64 { return v * v * v })
		dOff := mat.DenseCopyOf(cube)
		dOff.Scale(-k.Offset, dOff)
		grads = append(grads, dOff)
		for d, l := range k.LengthScales {
			// dK/dl_d = (x_d - y_d)^2 K^3 / l_d^3
			g := pairwise(a, b, dimSqDist(d))
			g.MulElem(g, cube)
			g.Scale(1/l, g)
			grads = append(grads, g)
		}
		grads = append(grads, jitterGrad(r, c, k.Noise))
	}
	addJitter(cov, k.Noise)
	return cov, grads
}
