package gpr

import (
	"errors"
	"fmt"
)

var ErrMissingArtifact = errors.New("gpr: missing model artifact")
var ErrOutOfBounds = errors.New("gpr: query outside training envelope")
var ErrUnsupportedModelType = errors.New("gpr: kernel type not supported for prediction")

// OutOfBoundsError reports the first query dimension that falls outside the
// training envelope of an isotope's subset.
type OutOfBoundsError struct {
	Isotope Isotope
	Dim     int
	Feature string
	Min     float64
	Value   float64
	Max     float64
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("gpr: %s: %s = %g outside training range [%g, %g]",
		e.Isotope, e.Feature, e.Value, e.Min, e.Max)
}

func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}
