package kern

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var _ Differentiable = (*Anova)(nil)

// Anova sums three exponentiated squared distances between the first,
// second and third elementwise powers of the features
//
//	k(x, y) = sum_{p=1..3} exp(-a d_p^b),  d_p = |x^p - y^p|^2.
//
// Experimental: the third power makes it numerically unstable for
// unscaled inputs.
type Anova struct {
	Scale    float64
	Exponent float64
	Noise    float64
}

func NewAnova(scale, exponent, noise float64) *Anova {
	return &Anova{
		Scale:    scale,
		Exponent: exponent,
		Noise:    noise,
	}
}

func (k *Anova) Type() Type {
	return TypeAnova
}

func (k *Anova) Params() []float64 {
	return flatten(k.Scale, k.Exponent, k.Noise)
}

func (k *Anova) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *Anova) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *Anova) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, 0)
	r, _ := a.Dims()
	c, _ := b.Dims()
	cov := mat.NewDense(r, c, nil)
	dScale := mat.NewDense(r, c, nil)
	dExp := mat.NewDense(r, c, nil)
	for p := 1.0; p <= 3; p++ {
		pow := func(v float64) float64 { return math.Pow(v, p) }
		d := pairwise(elementwise(a, pow), elementwise(b, pow), sqDist)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				dv := d.At(i, j)
				t := math.Pow(dv, k.Exponent)
				e := math.Exp(-k.Scale * t)
				cov.Set(i, j, cov.At(i, j)+e)
				if !grad {
					continue
				}
				dScale.Set(i, j, dScale.At(i, j)-t*e)
				if dv > 0 {
					dExp.Set(i, j, dExp.At(i, j)-k.Scale*t*math.Log(dv)*e)
				}
			}
		}
	}
	var grads []*mat.Dense
	if grad {
		grads = []*mat.Dense{dScale, dExp, jitterGrad(r, c, k.Noise)}
	}
	addJitter(cov, k.Noise)
	return cov, grads
}
