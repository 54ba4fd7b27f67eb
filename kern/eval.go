package kern

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// New builds the kernel of type t from a flat parameter vector, for
// features of dimension dim. The number of parameters must equal
// Arity(t, dim); params is copied.
func New(t Type, params []float64, dim int) (Kernel, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKernelType, t)
	}
	if dim < 1 {
		return nil, fmt.Errorf("%w: feature dimension %d", ErrDimensionMismatch, dim)
	}
	if want := Arity(t, dim); len(params) != want {
		return nil, fmt.Errorf("%w: %s over %d dimensions takes %d parameters, got %d",
			ErrInvalidParameters, t, dim, want, len(params))
	}
	p := append([]float64(nil), params...)
	n := len(p)
	noise := p[n-1]
	switch t {
	case TypeSQE:
		return NewSQE(p[0], p[1], noise), nil
	case TypeASQE:
		return NewASQE(p[0], p[1:n-1], noise), nil
	case TypeLAP:
		return NewLAP(p[0], p[1], noise), nil
	case TypeALAP:
		return NewALAP(p[0], p[1:n-1], noise), nil
	case TypeLinear:
		return NewLinear(p[0], p[1], p[2:n-1], noise), nil
	case TypePoly:
		return NewPoly(p[0], p[1], p[2], p[3:n-1], noise), nil
	case TypeAnova:
		return NewAnova(p[0], p[1], noise), nil
	case TypeSigmoid:
		return NewSigmoid(p[0], p[1], noise), nil
	case TypeRQ:
		return NewRQ(p[0], p[1:n-1], noise), nil
	case TypeSRQ:
		return NewSRQ(p[0], p[1:n-1], noise), nil
	case TypeMultiQuad:
		return NewMultiQuad(p[0], p[1:n-1], noise), nil
	case TypeInvMultiQuad:
		return NewInvMultiQuad(p[0], p[1:n-1], noise), nil
	case TypeWave:
		return NewWave(p[0], noise), nil
	case TypePower:
		return NewPower(p[0], p[1:n-1], noise), nil
	case TypeLog:
		return NewLog(p[0], noise), nil
	case TypeCauchy:
		return NewCauchy(p[0], noise), nil
	case TypeTstudent:
		return NewTstudent(p[0], p[1:n-1], noise), nil
	}
	panic(fmt.Sprintf("kern: no constructor for %s", t))
}

// Evaluate computes the covariance matrix between the rows of x1 and x2
// under kernel type t. With wantGradient it also returns the derivative of
// the covariance with respect to each parameter, in parameter order.
//
// Contract violations are reported before any arithmetic takes place.
func Evaluate(x1, x2 mat.Matrix, t Type, params []float64, wantGradient bool) (*mat.Dense, []*mat.Dense, error) {
	if !t.Valid() {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedKernelType, t)
	}
	r1, c1 := x1.Dims()
	r2, c2 := x2.Dims()
	if r1 == 0 || r2 == 0 {
		return nil, nil, fmt.Errorf("%w: empty feature matrix (%d and %d rows)", ErrDimensionMismatch, r1, r2)
	}
	if c1 != c2 {
		return nil, nil, fmt.Errorf("%w: %d columns vs %d columns", ErrDimensionMismatch, c1, c2)
	}
	k, err := New(t, params, c1)
	if err != nil {
		return nil, nil, err
	}
	if !wantGradient {
		return k.Cov(x1, x2), nil, nil
	}
	dk, ok := k.(Differentiable)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoGradient, t)
	}
	cov, grads := dk.CovGrad(x1, x2)
	return cov, grads, nil
}
