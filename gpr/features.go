package gpr

import (
	"errors"
	"fmt"
	"sort"
)

// FeatureNames lists the training features in column order.
var FeatureNames = []string{"enrichment", "temperature", "power", "burnup"}

var ErrInvalidFeature = errors.New("gpr: invalid feature input")

// Features is a query point in training units.
type Features struct {
	Enrichment  float64 // U235 atom fraction of the fresh fuel.
	Temperature float64 // K.
	PowerOutput float64 // Scaled power density, see PowerScale.
	Burnup      float64 // MWd/kg.
}

// Vector returns the features in training column order.
func (f Features) Vector() []float64 {
	return []float64{f.Enrichment, f.Temperature, f.PowerOutput, f.Burnup}
}

func featureName(dim int) string {
	if dim >= 0 && dim < len(FeatureNames) {
		return FeatureNames[dim]
	}
	return fmt.Sprintf("feature %d", dim)
}

// PowerScale converts a reactor-wide thermal power into the power feature
// the models are trained on. The same constants must be used at training and
// prediction time.
type PowerScale struct {
	CoreAssemblies      float64 `yaml:"core_assemblies"`
	ReferenceAssemblies float64 `yaml:"reference_assemblies"`
	UnitLength          float64 `yaml:"unit_length"`
}

// DefaultPowerScale leaves power figures unchanged.
var DefaultPowerScale = PowerScale{CoreAssemblies: 1, ReferenceAssemblies: 1, UnitLength: 1}

func (s PowerScale) Validate() error {
	if s.CoreAssemblies <= 0 || s.ReferenceAssemblies <= 0 || s.UnitLength <= 0 {
		return fmt.Errorf("%w: power scale %+v must be positive", ErrInvalidFeature, s)
	}
	return nil
}

// Apply returns power * ReferenceAssemblies / CoreAssemblies / UnitLength.
func (s PowerScale) Apply(power float64) float64 {
	return power * s.ReferenceAssemblies / s.CoreAssemblies / s.UnitLength
}

// Burnup returns the average discharge burnup in MWd/kg of a core with n
// assemblies of the given heavy-metal mass, run at power MWth for the given
// number of days.
func Burnup(power, days float64, n int, assemblyMass float64) (float64, error) {
	if n <= 0 || assemblyMass <= 0 {
		return 0, fmt.Errorf("%w: core of %d assemblies of %g kg", ErrInvalidFeature, n, assemblyMass)
	}
	if power < 0 || days < 0 {
		return 0, fmt.Errorf("%w: negative power or irradiation time", ErrInvalidFeature)
	}
	return power * days / float64(n) / assemblyMass, nil
}

// Nuclide identifiers accepted in a fresh fuel composition.
const (
	NucU235 = "922350000"
	NucU238 = "922380000"
)

// Enrichment returns the U235 atom fraction of a fresh fuel composition
// given as nuclide id -> amount. Amounts are normalised; only U235 and U238
// may appear.
func Enrichment(freshFuel map[string]float64) (float64, error) {
	total := 0.0
	ids := make([]string, 0, len(freshFuel))
	for id := range freshFuel {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		v := freshFuel[id]
		if id != NucU235 && id != NucU238 {
			return 0, fmt.Errorf("%w: nuclide %s in fresh fuel, only %s and %s are permitted",
				ErrInvalidFeature, id, NucU235, NucU238)
		}
		if v < 0 {
			return 0, fmt.Errorf("%w: negative amount %g of %s", ErrInvalidFeature, v, id)
		}
		total += v
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: empty fresh fuel composition", ErrInvalidFeature)
	}
	return freshFuel[NucU235] / total, nil
}
