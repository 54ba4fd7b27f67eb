package kern

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	_ Differentiable = (*RQ)(nil)
	_ Kernel         = (*SRQ)(nil)
)

// RQ is the anisotropic rational-quadratic kernel
//
//	k(x, y) = a^2 / (s + a^2),  s = |(x - y) / l|^2.
type RQ struct {
	Scale        float64
	LengthScales []float64
	Noise        float64
}

func NewRQ(scale float64, lscales []float64, noise float64) *RQ {
	return &RQ{
		Scale:        scale,
		LengthScales: lscales,
		Noise:        noise,
	}
}

func (k *RQ) Type() Type {
	return TypeRQ
}

func (k *RQ) Params() []float64 {
	return flatten(k.Scale, k.LengthScales, k.Noise)
}

func (k *RQ) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *RQ) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *RQ) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, len(k.LengthScales))
	a, b = rescale(a, k.LengthScales), rescale(b, k.LengthScales)
	a2 := k.Scale * k.Scale
	s := pairwise(a, b, sqDist)
	cov := elementwise(s, func(v float64) float64 { return a2 / (v + a2) })
	var grads []*mat.Dense
	if grad {
		r, c := cov.Dims()
		grads = make([]*mat.Dense, 0, len(k.LengthScales)+2)
		// 1 / (s + a^2)^2
		denom := elementwise(s, func(v float64) float64 { return 1 / ((v + a2) * (v + a2)) })
		var dScale mat.Dense
		dScale.MulElem(s, denom)
		dScale.Scale(2*k.Scale, &dScale)
		grads = append(grads, &dScale)
		for d, l := range k.LengthScales {
			// dK/dl_d = 2 a^2 (x_d - y_d)^2 / (l_d^3 (s + a^2)^2)
			g := pairwise(a, b, dimSqDist(d))
			g.MulElem(g, denom)
			g.Scale(2*a2/l, g)
			grads = append(grads, g)
		}
		grads = append(grads, jitterGrad(r, c, k.Noise))
	}
	addJitter(cov, k.Noise)
	return cov, grads
}

// SRQ is the scaled rational-quadratic kernel
//
//	k(x, y) = (1 + s / alpha)^(-alpha),  s = |(x - y) / l|^2.
//
// It has no analytic gradient.
type SRQ struct {
	Shape        float64
	LengthScales []float64
	Noise        float64
}

func NewSRQ(shape float64, lscales []float64, noise float64) *SRQ {
	return &SRQ{
		Shape:        shape,
		LengthScales: lscales,
		Noise:        noise,
	}
}

func (k *SRQ) Type() Type {
	return TypeSRQ
}

func (k *SRQ) Params() []float64 {
	return flatten(k.Shape, k.LengthScales, k.Noise)
}

func (k *SRQ) Cov(x1, x2 mat.Matrix) *mat.Dense {
	a, b := operands(x1, x2, len(k.LengthScales))
	a, b = rescale(a, k.LengthScales), rescale(b, k.LengthScales)
	cov := elementwise(pairwise(a, b, sqDist), func(v float64) float64 {
		return math.Pow(1+v/k.Shape, -k.Shape)
	})
	addJitter(cov, k.Noise)
	return cov
}
