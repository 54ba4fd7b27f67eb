package gpr

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"
)

// Filler is the nuclide standing in for every spent fuel constituent that no
// model predicts.
const Filler = "H1"

var ErrEmptyComposition = errors.New("gpr: no tracked isotope in spent fuel")

// Composition maps each tracked isotope to its predicted mass in a full
// reactor core, in kg.
type Composition map[Isotope]float64

// Validate checks that c covers exactly the fixed isotope set.
func (c Composition) Validate() error {
	for _, iso := range Isotopes {
		if _, ok := c[iso]; !ok {
			return fmt.Errorf("%w: no mass for %s", ErrMissingArtifact, iso)
		}
	}
	if len(c) != len(Isotopes) {
		for iso := range c {
			if _, err := ParseIsotope(string(iso)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Material returns the masses of a discharged batch of qty kg taken from a
// core of coreMass kg, keyed by isotope label. Whatever the tracked isotopes
// do not account for is assigned to Filler.
func (c Composition) Material(qty, coreMass float64) (map[string]float64, error) {
	if qty <= 0 || coreMass <= 0 {
		return nil, fmt.Errorf("gpr: batch of %g kg from a core of %g kg", qty, coreMass)
	}
	fraction := qty / coreMass
	out := make(map[string]float64, len(c)+1)
	sum := 0.0
	for _, iso := range Isotopes {
		mass, ok := c[iso]
		if !ok {
			continue
		}
		out[string(iso)] = mass * fraction
		sum += mass * fraction
	}
	if scalar.EqualWithinAbs(sum, 0, 1e-12) {
		return nil, ErrEmptyComposition
	}
	if !scalar.EqualWithinAbsOrRel(qty, sum, 1e-9, 1e-9) {
		out[Filler] = qty - sum
	}
	return out, nil
}
