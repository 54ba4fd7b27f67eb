package kern

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	_ Differentiable = (*SQE)(nil)
	_ Differentiable = (*ASQE)(nil)
)

// LengthScaleMatrix returns the diagonal matrix diag(1/ls).
func LengthScaleMatrix(ls []float64) *mat.DiagDense {
	diag := make([]float64, len(ls))
	for i, l := range ls {
		diag[i] = 1 / l
	}
	return mat.NewDiagDense(len(ls), diag)
}

// SQE is the isotropic squared-exponential kernel
//
//	k(x, y) = a^2 exp(-|x - y|^2 / (2 l^2)).
type SQE struct {
	Amplitude   float64
	LengthScale float64
	Noise       float64
}

func NewSQE(amplitude, lscale, noise float64) *SQE {
	return &SQE{
		Amplitude:   amplitude,
		LengthScale: lscale,
		Noise:       noise,
	}
}

func (k *SQE) Type() Type {
	return TypeSQE
}

func (k *SQE) Params() []float64 {
	return flatten(k.Amplitude, k.LengthScale, k.Noise)
}

func (k *SQE) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *SQE) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *SQE) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, 0)
	l := k.LengthScale
	sq := pairwise(a, b, sqDist)
	e := elementwise(sq, func(s float64) float64 { return math.Exp(-0.5 * s / (l * l)) })
	cov := mat.DenseCopyOf(e)
	cov.Scale(k.Amplitude*k.Amplitude, cov)
	var grads []*mat.Dense
	if grad {
		r, c := cov.Dims()
		dAmp := mat.DenseCopyOf(e)
		dAmp.Scale(2*k.Amplitude, dAmp)
		// dK/dl = K * s / l^3
		dLen := elementwise(sq, func(s float64) float64 { return s / (l * l * l) })
		dLen.MulElem(dLen, cov)
		grads = []*mat.Dense{dAmp, dLen, jitterGrad(r, c, k.Noise)}
	}
	addJitter(cov, k.Noise)
	return cov, grads
}

// ASQE is the anisotropic squared-exponential kernel
//
//	k(x, y) = a^2 exp(-(x - y)^T L (x - y) / 2),  L = Lambda^2 = diag(1/l^2).
//
// It is the family used for posterior prediction.
type ASQE struct {
	Amplitude    float64
	LengthScales []float64
	Noise        float64

	lambda *mat.DiagDense // Optional precomputed diag(1/l).
}

func NewASQE(amplitude float64, lscales []float64, noise float64) *ASQE {
	return &ASQE{
		Amplitude:    amplitude,
		LengthScales: lscales,
		Noise:        noise,
	}
}

// WithLambda returns a copy of k that rescales features with the given
// length-scale matrix instead of deriving it from LengthScales.
func (k *ASQE) WithLambda(lambda *mat.DiagDense) *ASQE {
	out := *k
	out.lambda = lambda
	return &out
}

// Lambda is the length-scale matrix used to rescale features.
func (k *ASQE) Lambda() *mat.DiagDense {
	if k.lambda != nil {
		return k.lambda
	}
	return LengthScaleMatrix(k.LengthScales)
}

func (k *ASQE) Type() Type {
	return TypeASQE
}

func (k *ASQE) Params() []float64 {
	return flatten(k.Amplitude, k.LengthScales, k.Noise)
}

func (k *ASQE) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *ASQE) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *ASQE) scaled(x1, x2 mat.Matrix) (*mat.Dense, *mat.Dense) {
	a, b := operands(x1, x2, len(k.LengthScales))
	lambda := k.Lambda()
	var sa, sb mat.Dense
	sa.Mul(a, lambda)
	sb.Mul(b, lambda)
	return &sa, &sb
}

func (k *ASQE) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := k.scaled(x1, x2)
	e := elementwise(pairwise(a, b, sqDist), func(s float64) float64 { return math.Exp(-0.5 * s) })
	cov := mat.DenseCopyOf(e)
	cov.Scale(k.Amplitude*k.Amplitude, cov)
	var grads []*mat.Dense
	if grad {
		r, c := cov.Dims()
		grads = make([]*mat.Dense, 0, len(k.LengthScales)+2)
		dAmp := mat.DenseCopyOf(e)
		dAmp.Scale(2*k.Amplitude, dAmp)
		grads = append(grads, dAmp)
		for d, l := range k.LengthScales {
			// dK/dl_d = K * (x_d - y_d)^2 / l_d^3
			g := pairwise(a, b, dimSqDist(d))
			g.MulElem(g, cov)
			g.Scale(1/l, g)
			grads = append(grads, g)
		}
		grads = append(grads, jitterGrad(r, c, k.Noise))
	}
	addJitter(cov, k.Noise)
	return cov, grads
}
