package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/lucasmaystre/spentfuelgpr/gpr"
)

// DefaultFile is the name under which the reactor facility expects results.
const DefaultFile = "gpr_reactor_spent_fuel_composition.json"

type jsonQuery struct {
	Enrichment  float64 `json:"enrichment"`
	Temperature float64 `json:"temperature"`
	PowerOutput float64 `json:"power_output"`
	Burnup      float64 `json:"burnup"`
}

type jsonRecord struct {
	Composition gpr.Composition    `json:"spent_fuel_composition"`
	RunID       string             `json:"run_id"`
	CreatedAt   time.Time          `json:"created_at"`
	Query       jsonQuery          `json:"query"`
	Material    map[string]float64 `json:"material,omitempty"`
}

// JSONSink writes each record to a JSON file, replacing the previous one.
type JSONSink struct {
	path string
}

func NewJSONSink(path string) *JSONSink {
	return &JSONSink{path: path}
}

func (s *JSONSink) Write(_ context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(jsonRecord{
		Composition: rec.Composition,
		RunID:       rec.RunID.String(),
		CreatedAt:   rec.CreatedAt,
		Query: jsonQuery{
			Enrichment:  rec.Query.Enrichment,
			Temperature: rec.Query.Temperature,
			PowerOutput: rec.Query.PowerOutput,
			Burnup:      rec.Query.Burnup,
		},
		Material: rec.Material,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, append(data, '\n'), 0o644)
}

func (s *JSONSink) Close() error {
	return nil
}
