package gpr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Isotope is the label of a nuclide tracked by the predictor, e.g. "U235"
// or "Np240m" for a metastable state.
type Isotope string

// Isotopes is the fixed set of nuclides that every prediction covers, in the
// order in which they are processed.
var Isotopes = []Isotope{
	"U232", "U233", "U234", "U235", "U235m", "U236", "U238", "U239", "U240",
	"Pu238", "Pu239", "Pu240", "Pu241", "Pu242", "Pu243", "Pu244",
	"Np239", "Np240", "Np240m", "Np241",
}

var atomicNumbers = map[string]int{
	"H":  1,
	"U":  92,
	"Np": 93,
	"Pu": 94,
}

func (iso Isotope) String() string {
	return string(iso)
}

// split decomposes the label into element symbol, mass number and
// isomeric state.
func (iso Isotope) split() (elem string, mass, state int, err error) {
	s := string(iso)
	i := strings.IndexFunc(s, unicode.IsDigit)
	if i <= 0 {
		return "", 0, 0, fmt.Errorf("gpr: malformed isotope label %q", s)
	}
	elem, rest := s[:i], s[i:]
	if strings.HasSuffix(rest, "m") {
		state = 1
		rest = rest[:len(rest)-1]
	}
	mass, err = strconv.Atoi(rest)
	if err != nil || mass <= 0 {
		return "", 0, 0, fmt.Errorf("gpr: malformed isotope label %q", s)
	}
	if _, ok := atomicNumbers[elem]; !ok {
		return "", 0, 0, fmt.Errorf("gpr: unknown element in isotope label %q", s)
	}
	return elem, mass, state, nil
}

// NucID returns the ZZAAAM identifier of the nuclide, e.g. 922350001 for
// U235m.
func (iso Isotope) NucID() (int, error) {
	elem, mass, state, err := iso.split()
	if err != nil {
		return 0, err
	}
	return atomicNumbers[elem]*10000000 + mass*10000 + state, nil
}

// ParseIsotope returns the isotope with the given label. Only members of the
// fixed set are accepted.
func ParseIsotope(label string) (Isotope, error) {
	for _, iso := range Isotopes {
		if string(iso) == label {
			return iso, nil
		}
	}
	return "", fmt.Errorf("gpr: %q is not a tracked isotope", label)
}
