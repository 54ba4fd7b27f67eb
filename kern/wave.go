package kern

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var _ Differentiable = (*Wave)(nil)

// Wave is the damped sine kernel k(x, y) = (θ / r) sin(r / θ), with
// r = |x - y| and k = 1 at r = 0.
type Wave struct {
	Period float64
	Noise  float64
}

func NewWave(period, noise float64) *Wave {
	return &Wave{
		Period: period,
		Noise:  noise,
	}
}

func (k *Wave) Type() Type {
	return TypeWave
}

func (k *Wave) Params() []float64 {
	return flatten(k.Period, k.Noise)
}

func (k *Wave) Cov(x1, x2 mat.Matrix) *mat.Dense {
	cov, _ := k.eval(x1, x2, false)
	return cov
}

func (k *Wave) CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense) {
	return k.eval(x1, x2, true)
}

func (k *Wave) eval(x1, x2 mat.Matrix, grad bool) (*mat.Dense, []*mat.Dense) {
	a, b := operands(x1, x2, 0)
	th := k.Period
	r := pairwise(a, b, dist)
	cov := elementwise(r, func(v float64) float64 {
		if v == 0 {
			return 1
		}
		return th / v * math.Sin(v/th)
	})
	var grads []*mat.Dense
	if grad {
		rows, cols := cov.Dims()
		// dK/dθ = sin(r/θ) / r - cos(r/θ) / θ, zero at r = 0.
		dPer := elementwise(r, func(v float64) float64 {
			if v == 0 {
				return 0
			}
			return math.Sin(v/th)/v - math.Cos(v/th)/th
		})
		grads = []*mat.Dense{dPer, jitterGrad(rows, cols, k.Noise)}
	}
	addJitter(cov, k.Noise)
	return cov, grads
}
