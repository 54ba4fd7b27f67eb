package kern

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	_ Differentiable = (*LAP)(nil)
	_ Differentiable = (*ALAP)(nil)
)

// LAP is the isotropic Laplacian kernel
//
//	k(x, y) = a^2 exp(-|x - y| / (2 l)).
type LAP struct {
	Amplitude   float64
	LengthScale float64
	Noise       float64
}

func NewLAP(amplitude, lscale, noise float64) *LAP {
	return &LAP{
		Amplitude:   amplitude,
		LengthScale: lscale,
		Noise:       noise,
	}
}

func (k *LAP) Type() Type {
	return TypeLAP
}

func (k *LAP) Params() []float64 {
	return flatten(k.Amplitude, k.LengthScale, k.Noise)
}

func (k *LAP) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *LAP) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *LAP) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, 0)
	l := k.LengthScale
	r := pairwise(a, b, dist)
	e := elementwise(r, func(v float64) float64 { return math.Exp(-0.5 * v / l) })
	cov := mat.DenseCopyOf(e)
	cov.Scale(k.Amplitude*k.Amplitude, cov)
	var grads []*mat.Dense
	if grad {
		rows, cols := cov.Dims()
		dAmp := mat.DenseCopyOf(e)
		dAmp.Scale(2*k.Amplitude, dAmp)
		// dK/dl = K * r / (2 l^2)
		dLen := elementwise(r, func(v float64) float64 { return 0.5 * v / (l * l) })
		dLen.MulElem(dLen, cov)
		grads = []*mat.Dense{dAmp, dLen, jitterGrad(rows, cols, k.Noise)}
	}
	addJitter(cov, k.Noise)
	return cov, grads
}

// ALAP is the anisotropic Laplacian kernel
//
//	k(x, y) = a^2 exp(-r / 2),  r = |(x - y) / l|.
type ALAP struct {
	Amplitude    float64
	LengthScales []float64
	Noise        float64
}

func NewALAP(amplitude float64, lscales []float64, noise float64) *ALAP {
	return &ALAP{
		Amplitude:    amplitude,
		LengthScales: lscales,
		Noise:        noise,
	}
}

func (k *ALAP) Type() Type {
	return TypeALAP
}

func (k *ALAP) Params() []float64 {
	return flatten(k.Amplitude, k.LengthScales, k.Noise)
}

func (k *ALAP) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *ALAP) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *ALAP) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, len(k.LengthScales))
	a, b = rescale(a, k.LengthScales), rescale(b, k.LengthScales)
	r := pairwise(a, b, dist)
	e := elementwise(r, func(v float64) float64 { return math.Exp(-0.5 * v) })
	cov := mat.DenseCopyOf(e)
	cov.Scale(k.Amplitude*k.Amplitude, cov)
	var grads []*mat.Dense
	if grad {
		rows, cols := cov.Dims()
		grads = make([]*mat.Dense, 0, len(k.LengthScales)+2)
		dAmp := mat.DenseCopyOf(e)
		dAmp.Scale(2*k.Amplitude, dAmp)
		grads = append(grads, dAmp)
		for d, l := range k.LengthScales {
			// dK/dl_d = K * (x_d - y_d)^2 / (2 l_d^3 r), zero at r = 0.
			g := pairwise(a, b, dimSqDist(d))
			g.Apply(func(i, j int, v float64) float64 {
				if rv := r.At(i, j); rv > 0 {
					return cov.At(i, j) * v / (2 * l * rv)
				}
				return 0
			}, g)
			grads = append(grads, g)
		}
		grads = append(grads, jitterGrad(rows, cols, k.Noise))
	}
	addJitter(cov, k.Noise)
	return cov, grads
}
