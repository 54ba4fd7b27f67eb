package kern

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var _ Differentiable = (*Sigmoid)(nil)

// Sigmoid is the hyperbolic tangent kernel
//
//	k(x, y) = tanh(a <x, y> + b).
//
// It is not positive semi-definite in general.
type Sigmoid struct {
	Scale float64
	Bias  float64
	Noise float64
}

func NewSigmoid(scale, bias, noise float64) *Sigmoid {
	return &Sigmoid{
		Scale: scale,
		Bias:  bias,
		Noise: noise,
	}
}

func (k *Sigmoid) Type() Type {
	return TypeSigmoid
}

func (k *Sigmoid) Params() []float64 {
	return flatten(k.Scale, k.Bias, k.Noise)
}

func (k *Sigmoid) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *Sigmoid) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *Sigmoid) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, 0)
	s := pairwise(a, b, inner)
	cov := elementwise(s, func(v float64) float64 { return math.Tanh(k.Scale*v + k.Bias) })
	var grads []*mat.Dense
	if grad {
		r, c := cov.Dims()
		// sech^2 = 1 - tanh^2
		dBias := elementwise(cov, func(v float64) float64 { return 1 - v*v })
		var dScale mat.Dense
		dScale.MulElem(dBias, s)
		grads = []*mat.Dense{&dScale, dBias, jitterGrad(r, c, k.Noise)}
	}
	addJitter(cov, k.Noise)
	return cov, grads
}
