// Package input reads the reactor parameters of a prediction query.
package input

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lucasmaystre/spentfuelgpr/gpr"
)

// DefaultFile is the name under which the reactor facility writes a query.
const DefaultFile = "gpr_reactor_input_params.json"

var ErrMissingKey = errors.New("input: missing key")

// MissingKeysError lists every required key absent from a query record.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("input: missing keys: %s", strings.Join(e.Keys, ", "))
}

func (e *MissingKeysError) Is(target error) bool {
	return target == ErrMissingKey
}

// Record is the query as written by the reactor facility. Burnup may be
// omitted when the irradiation time is given.
type Record struct {
	FreshFuel       map[string]float64 `json:"fresh_fuel_composition"`
	Temperature     *float64           `json:"temperature,omitempty"`      // K
	PowerOutput     *float64           `json:"power_output,omitempty"`     // MWth
	IrradiationTime *float64           `json:"irradiation_time,omitempty"` // days
	Burnup          *float64           `json:"burnup,omitempty"`           // MWd/kg
}

// Core is the reactor geometry needed to derive burnup.
type Core struct {
	Assemblies   int
	AssemblyMass float64 // kg of heavy metal per assembly.
}

// Mass of a full core in kg.
func (c Core) Mass() float64 {
	return float64(c.Assemblies) * c.AssemblyMass
}

func (r *Record) missing() []string {
	var keys []string
	if r.FreshFuel == nil {
		keys = append(keys, "fresh_fuel_composition")
	}
	if r.Temperature == nil {
		keys = append(keys, "temperature")
	}
	if r.PowerOutput == nil {
		keys = append(keys, "power_output")
	}
	if r.Burnup == nil && r.IrradiationTime == nil {
		keys = append(keys, "burnup")
	}
	return keys
}

// Features converts the record into a query point.
func (r *Record) Features(core Core, scale gpr.PowerScale) (gpr.Features, error) {
	if keys := r.missing(); len(keys) > 0 {
		return gpr.Features{}, &MissingKeysError{Keys: keys}
	}
	if err := scale.Validate(); err != nil {
		return gpr.Features{}, err
	}
	enrichment, err := gpr.Enrichment(r.FreshFuel)
	if err != nil {
		return gpr.Features{}, err
	}
	burnup := 0.0
	if r.Burnup != nil {
		burnup = *r.Burnup
	} else if burnup, err = gpr.Burnup(*r.PowerOutput, *r.IrradiationTime, core.Assemblies, core.AssemblyMass); err != nil {
		return gpr.Features{}, err
	}
	return gpr.Features{
		Enrichment:  enrichment,
		Temperature: *r.Temperature,
		PowerOutput: scale.Apply(*r.PowerOutput),
		Burnup:      burnup,
	}, nil
}

// Read decodes a query record from r and converts it into features.
func Read(r io.Reader, core Core, scale gpr.PowerScale) (gpr.Features, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return gpr.Features{}, fmt.Errorf("input: decode query: %w", err)
	}
	return rec.Features(core, scale)
}

func ReadFile(path string, core Core, scale gpr.PowerScale) (gpr.Features, error) {
	f, err := os.Open(path)
	if err != nil {
		return gpr.Features{}, err
	}
	defer f.Close()
	feat, err := Read(f, core, scale)
	if err != nil {
		return gpr.Features{}, fmt.Errorf("%s: %w", path, err)
	}
	return feat, nil
}

// Write encodes rec the way the reactor facility does.
func Write(w io.Writer, rec *Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
