package kern

import (
	"fmt"
)

// Type identifies a covariance family. The set is closed.
type Type int

const (
	TypeSQE Type = iota
	TypeASQE
	TypeLAP
	TypeALAP
	TypeLinear
	TypePoly
	TypeAnova
	TypeSigmoid
	TypeRQ
	TypeSRQ
	TypeMultiQuad
	TypeInvMultiQuad
	TypeWave
	TypePower
	TypeLog
	TypeCauchy
	TypeTstudent
	numTypes
)

// Tags as they appear in trained model artifacts.
var typeTags = [numTypes]string{
	TypeSQE:          "SQE",
	TypeASQE:         "ASQE",
	TypeLAP:          "LAP",
	TypeALAP:         "ALAP",
	TypeLinear:       "Linear",
	TypePoly:         "Poly",
	TypeAnova:        "Anova",
	TypeSigmoid:      "Sigmoid",
	TypeRQ:           "RQ",
	TypeSRQ:          "SRQ",
	TypeMultiQuad:    "MultiQuad",
	TypeInvMultiQuad: "InvMultiQuad",
	TypeWave:         "Wave",
	TypePower:        "Power",
	TypeLog:          "Log",
	TypeCauchy:       "Cauchy",
	TypeTstudent:     "Tstudent",
}

// Types returns every supported kernel type, in declaration order.
func Types() []Type {
	out := make([]Type, numTypes)
	for i := range out {
		out[i] = Type(i)
	}
	return out
}

func (t Type) Valid() bool {
	return t >= 0 && t < numTypes
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeTags[t]
}

// ParseType returns the kernel type for a model artifact tag.
func ParseType(tag string) (Type, error) {
	for i, s := range typeTags {
		if s == tag {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedKernelType, tag)
}

func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedKernelType, int(t))
	}
	return []byte(typeTags[t]), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Isotropic reports whether the kernel has no per-dimension length scales.
func (t Type) Isotropic() bool {
	switch t {
	case TypeSQE, TypeLAP, TypeAnova, TypeSigmoid, TypeWave, TypeLog, TypeCauchy:
		return true
	}
	return false
}

// Arity is the number of parameters a kernel of type t takes over
// dim-dimensional features, or -1 for an unknown type.
func Arity(t Type, dim int) int {
	switch t {
	case TypeSQE, TypeLAP, TypeAnova, TypeSigmoid:
		return 3
	case TypeWave, TypeLog, TypeCauchy:
		return 2
	case TypeASQE, TypeALAP, TypeRQ, TypeSRQ, TypeMultiQuad, TypeInvMultiQuad,
		TypePower, TypeTstudent:
		return dim + 2
	case TypeLinear:
		return dim + 3
	case TypePoly:
		return dim + 4
	}
	return -1
}
