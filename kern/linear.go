package kern

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	_ Differentiable = (*Linear)(nil)
	_ Differentiable = (*Poly)(nil)
)

// Linear is the affine inner-product kernel with one length scale per
// input dimension
//
//	k(x, y) = a <x/l, y/l> + b.
type Linear struct {
	Scale        float64
	Bias         float64
	LengthScales []float64
	Noise        float64
}

func NewLinear(scale, bias float64, lscales []float64, noise float64) *Linear {
	return &Linear{
		Scale:        scale,
		Bias:         bias,
		LengthScales: lscales,
		Noise:        noise,
	}
}

func (k *Linear) Type() Type {
	return TypeLinear
}

func (k *Linear) Params() []float64 {
	return flatten(k.Scale, k.Bias, k.LengthScales, k.Noise)
}

func (k *Linear) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *Linear) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *Linear) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, len(k.LengthScales))
	a, b = rescale(a, k.LengthScales), rescale(b, k.LengthScales)
	s := pairwise(a, b, inner)
	cov := elementwise(s, func(v float64) float64 { return k.Scale*v + k.Bias })
	var grads []*mat.Dense
	if grad {
		r, c := cov.Dims()
		grads = make([]*mat.Dense, 0, len(k.LengthScales)+3)
		grads = append(grads, s, elementwise(s, func(float64) float64 { return 1 }))
		for d, l := range k.LengthScales {
			// dK/dl_d = -2 a x_d y_d / l_d^3
			g := pairwise(a, b, dimProd(d))
			g.Scale(-2*k.Scale/l, g)
			grads = append(grads, g)
		}
		grads = append(grads, jitterGrad(r, c, k.Noise))
	}
	addJitter(cov, k.Noise)
	return cov, grads
}

// Poly is the polynomial kernel
//
//	k(x, y) = (a <x/l, y/l> + b)^c.
type Poly struct {
	Scale        float64
	Bias         float64
	Degree       float64
	LengthScales []float64
	Noise        float64
}

func NewPoly(scale, bias, degree float64, lscales []float64, noise float64) *Poly {
	return &Poly{
		Scale:        scale,
		Bias:         bias,
		Degree:       degree,
		LengthScales: lscales,
		Noise:        noise,
	}
}

func (k *Poly) Type() Type {
	return TypePoly
}

func (k *Poly) Params() []float64 {
	return flatten(k.Scale, k.Bias, k.Degree, k.LengthScales, k.Noise)
}

func (k *Poly) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *Poly) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *Poly) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, len(k.LengthScales))
	a, b = rescale(a, k.LengthScales), rescale(b, k.LengthScales)
	s := pairwise(a, b, inner)
	u := elementwise(s, func(v float64) float64 { return k.Scale*v + k.Bias })
	cov := elementwise(u, func(v float64) float64 { return math.Pow(v, k.Degree) })
	var grads []*mat.Dense
	if grad {
		r, c := cov.Dims()
		grads = make([]*mat.Dense, 0, len(k.LengthScales)+4)
		// db = c u^(c-1), da = db * s, dc = u^c ln u
		dBias := elementwise(u, func(v float64) float64 { return k.Degree * math.Pow(v, k.Degree-1) })
		var dScale mat.Dense
		dScale.MulElem(dBias, s)
		var dDeg mat.Dense
		dDeg.Apply(func(i, j int, v float64) float64 {
			if v > 0 {
				return cov.At(i, j) * math.Log(v)
			}
			return 0
		}, u)
		grads = append(grads, &dScale, dBias, &dDeg)
		for d, l := range k.LengthScales {
			// dK/dl_d = c u^(c-1) * (-2 a x_d y_d / l_d^3)
			g := pairwise(a, b, dimProd(d))
			g.Scale(-2*k.Scale/l, g)
			g.MulElem(g, dBias)
			grads = append(grads, g)
		}
		grads = append(grads, jitterGrad(r, c, k.Noise))
	}
	addJitter(cov, k.Noise)
	return cov, grads
}
