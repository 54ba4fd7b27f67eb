package kern

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	_ Differentiable = (*Power)(nil)
	_ Differentiable = (*Tstudent)(nil)
)

// Power is the power-law kernel k(x, y) = r^p, r = |(x - y) / l|.
type Power struct {
	Exponent     float64
	LengthScales []float64
	Noise        float64
}

func NewPower(exponent float64, lscales []float64, noise float64) *Power {
	return &Power{
		Exponent:     exponent,
		LengthScales: lscales,
		Noise:        noise,
	}
}

func (k *Power) Type() Type {
	return TypePower
}

func (k *Power) Params() []float64 {
	return flatten(k.Exponent, k.LengthScales, k.Noise)
}

func (k *Power) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *Power) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *Power) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, len(k.LengthScales))
	a, b = rescale(a, k.LengthScales), rescale(b, k.LengthScales)
	p := k.Exponent
	r := pairwise(a, b, dist)
	cov := elementwise(r, func(v float64) float64 { return math.Pow(v, p) })
	var grads []*mat.Dense
	if grad {
		rows, cols := cov.Dims()
		grads = make([]*mat.Dense, 0, len(k.LengthScales)+2)
		grads = append(grads, elementwise(r, func(v float64) float64 {
			if v > 0 {
				return math.Pow(v, p) * math.Log(v)
			}
			return 0
		}))
		for d, l := range k.LengthScales {
			// dK/dl_d = -p r^(p-2) (x_d - y_d)^2 / l_d^3
			g := pairwise(a, b, dimSqDist(d))
			g.Apply(func(i, j int, v float64) float64 {
				if rv := r.At(i, j); rv > 0 {
					return -p * math.Pow(rv, p-2) * v / l
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

// Tstudent is a Student-t like rational kernel
//
//	k(x, y) = 1 / (1 + r^p),  r = |(x - y) / l|.
//
// Unstable for small p.
type Tstudent struct {
	Exponent     float64
	LengthScales []float64
	Noise        float64
}

func NewTstudent(exponent float64, lscales []float64, noise float64) *Tstudent {
	return &Tstudent{
		Exponent:     exponent,
		LengthScales: lscales,
		Noise:        noise,
	}
}

func (k *Tstudent) Type() Type {
	return TypeTstudent
}

func (k *Tstudent) Params() []float64 {
	return flatten(k.Exponent, k.LengthScales, k.Noise)
}

func (k *Tstudent) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *Tstudent) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *Tstudent) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, len(k.LengthScales))
	a, b = rescale(a, k.LengthScales), rescale(b, k.LengthScales)
	p := k.Exponent
	r := pairwise(a, b, dist)
	cov := elementwise(r, func(v float64) float64 { return 1 / (1 + math.Pow(v, p)) })
	var grads []*mat.Dense
	if grad {
		rows, cols := cov.Dims()
		grads = make([]*mat.Dense, 0, len(k.LengthScales)+2)
		// dK/dp = -r^p ln(r) K^2
		dExp := mat.NewDense(rows, cols, nil)
		dExp.Apply(func(i, j int, v float64) float64 {
			if v > 0 {
				kv := cov.At(i, j)
				return -math.Pow(v, p) * math.Log(v) * kv * kv
			}
			return 0
		}, r)
		grads = append(grads, dExp)
		for d, l := range k.LengthScales {
			// dK/dl_d = K^2 p r^(p-2) (x_d - y_d)^2 / l_d^3
			g := pairwise(a, b, dimSqDist(d))
			g.Apply(func(i, j int, v float64) float64 {
				if rv := r.At(i, j); rv > 0 {
					kv := cov.At(i, j)
					return kv * kv * p * math.Pow(rv, p-2) * v / l
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
