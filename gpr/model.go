package gpr

import (
	"fmt"

	"github.com/lucasmaystre/spentfuelgpr/kern"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// Relative tolerance between the stored length-scale matrix and the one
// implied by the kernel parameters.
const lambdaTol = 1e-9

// TrainedKernel is the read-only posterior of one isotope's GP model.
type TrainedKernel struct {
	Isotope Isotope
	Type    kern.Type
	Params  []float64 // Amplitude, one length scale per feature, noise.
	Alpha   []float64 // Regression weights, one per training row in scope.
	// Diagonal length-scale matrix diag(1/l). Derived from Params when nil.
	Lambda     *mat.DiagDense
	SubsetSize int // Number of leading training rows the model was fit on.
}

// Validate checks the record against a training set of n rows over dim
// features. It does not evaluate the kernel.
func (tk *TrainedKernel) Validate(n, dim int) error {
	if tk.Type != kern.TypeASQE {
		return fmt.Errorf("%w: %s uses %s", ErrUnsupportedModelType, tk.Isotope, tk.Type)
	}
	if tk.SubsetSize < 1 || tk.SubsetSize > n {
		return fmt.Errorf("%w: %s: training subset of %d rows, training set has %d",
			kern.ErrInvalidParameters, tk.Isotope, tk.SubsetSize, n)
	}
	if len(tk.Alpha) != tk.SubsetSize {
		return fmt.Errorf("%w: %s: %d regression weights for a subset of %d rows",
			kern.ErrInvalidParameters, tk.Isotope, len(tk.Alpha), tk.SubsetSize)
	}
	if want := kern.Arity(kern.TypeASQE, dim); len(tk.Params) != want {
		return fmt.Errorf("%w: %s: %d parameters, want %d",
			kern.ErrInvalidParameters, tk.Isotope, len(tk.Params), want)
	}
	if tk.Lambda == nil {
		return nil
	}
	if tk.Lambda.SymmetricDim() != dim {
		return fmt.Errorf("%w: %s: length-scale matrix of dimension %d, want %d",
			kern.ErrInvalidParameters, tk.Isotope, tk.Lambda.SymmetricDim(), dim)
	}
	for d, l := range tk.Params[1 : dim+1] {
		if got := tk.Lambda.At(d, d); !scalar.EqualWithinRel(got, 1/l, lambdaTol) {
			return fmt.Errorf("%w: %s: length-scale matrix entry %d is %g, parameters imply %g",
				kern.ErrInvalidParameters, tk.Isotope, d, got, 1/l)
		}
	}
	return nil
}

// kernel builds the ASQE kernel of a validated record.
func (tk *TrainedKernel) kernel() (*kern.ASQE, error) {
	k, err := kern.New(tk.Type, tk.Params, len(tk.Params)-2)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tk.Isotope, err)
	}
	asqe := k.(*kern.ASQE)
	if tk.Lambda != nil {
		asqe = asqe.WithLambda(tk.Lambda)
	}
	return asqe, nil
}
