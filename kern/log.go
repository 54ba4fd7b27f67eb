package kern

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	_ Differentiable = (*Log)(nil)
	_ Differentiable = (*Cauchy)(nil)
)

// Log is the negative log kernel k(x, y) = -ln(r^p + 1), r = |x - y|.
// It is not positive definite.
type Log struct {
	Exponent float64
	Noise    float64
}

func NewLog(exponent, noise float64) *Log {
	return &Log{
		Exponent: exponent,
		Noise:    noise,
	}
}

func (k *Log) Type() Type {
	return TypeLog
}

func (k *Log) Params() []float64 {
	return flatten(k.Exponent, k.Noise)
}

func (k *Log) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *Log) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *Log) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, 0)
	p := k.Exponent
	r := pairwise(a, b, dist)
	cov := elementwise(r, func(v float64) float64 { return -math.Log(math.Pow(v, p) + 1) })
	var grads []*mat.Dense
	if grad {
		rows, cols := cov.Dims()
		// dK/dp = -r^p ln(r) / (r^p + 1)
		dExp := elementwise(r, func(v float64) float64 {
			if v > 0 {
				rp := math.Pow(v, p)
				return -rp * math.Log(v) / (rp + 1)
			}
			return 0
		})
		grads = []*mat.Dense{dExp, jitterGrad(rows, cols, k.Noise)}
	}
	addJitter(cov, k.Noise)
	return cov, grads
}

// Cauchy is the isotropic Cauchy kernel k(x, y) = 1 / (1 + |x - y|^2 / l^2).
// Well-behaved numerically.
type Cauchy struct {
	LengthScale float64
	Noise       float64
}

func NewCauchy(lscale, noise float64) *Cauchy {
	return &Cauchy{
		LengthScale: lscale,
		Noise:       noise,
	}
}

func (k *Cauchy) Type() Type {
	return TypeCauchy
}

func (k *Cauchy) Params() []float64 {
	return flatten(k.LengthScale, k.Noise)
}

func (k *Cauchy) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *Cauchy) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *Cauchy) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, 0)
	l2 := k.LengthScale * k.LengthScale
	s := pairwise(a, b, sqDist)
	cov := elementwise(s, func(v float64) float64 { return l2 / (l2 + v) })
	var grads []*mat.Dense
	if grad {
		rows, cols := cov.Dims()
		// dK/dl = 2 l s / (l^2 + s)^2
		dLen := elementwise(s, func(v float64) float64 {
			return 2 * k.LengthScale * v / ((l2 + v) * (l2 + v))
		})
		grads = []*mat.Dense{dLen, jitterGrad(rows, cols, k.Noise)}
	}
	addJitter(cov, k.Noise)
	return cov, grads
}
