package kern

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidParameters     = errors.New("kern: invalid parameters")
	ErrDimensionMismatch     = errors.New("kern: dimension mismatch")
	ErrUnsupportedKernelType = errors.New("kern: unsupported kernel type")
	ErrNoGradient            = errors.New("kern: gradient not available")
)

// Kernel is a covariance function with fixed parameters.
//
// Every kernel adds noise^2 on the diagonal of the matrices it returns,
// including cross-covariance blocks (entries (i, i) with i < min(rows, cols)).
// Methods panic with ErrDimensionMismatch when the operands disagree on the
// number of columns; use Evaluate for an error-returning entry point.
type Kernel interface {
	// Kernel family.
	Type() Type

	// Flat parameter vector, in the order accepted by New. The noise
	// amplitude is always last.
	Params() []float64

	// Covariance matrix between the rows of x1 and the rows of x2.
	Cov(x1, x2 mat.Matrix) *mat.Dense
}

// Differentiable kernels also provide the partial derivatives of the
// covariance matrix with respect to each parameter.
type Differentiable interface {
	Kernel

	// Covariance matrix and one derivative matrix per parameter, in Params order.
	CovGrad(x1, x2 mat.Matrix) (*mat.Dense, []*mat.Dense)
}
