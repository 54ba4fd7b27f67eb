// Package sink persists the results of prediction runs.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lucasmaystre/spentfuelgpr/gpr"
)

var ErrIncompleteRecord = errors.New("sink: incomplete record")

// Record is the outcome of one prediction run.
type Record struct {
	RunID       uuid.UUID
	CreatedAt   time.Time
	Query       gpr.Features
	Composition gpr.Composition
	// Masses of a discharged batch, see gpr.Composition.Material. Optional.
	Material map[string]float64
}

func NewRecord(query gpr.Features, comp gpr.Composition, material map[string]float64) Record {
	return Record{
		RunID:       uuid.New(),
		CreatedAt:   time.Now().UTC(),
		Query:       query,
		Composition: comp,
		Material:    material,
	}
}

func (r Record) validate() error {
	if r.RunID == uuid.Nil {
		return fmt.Errorf("%w: no run id", ErrIncompleteRecord)
	}
	if err := r.Composition.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrIncompleteRecord, err)
	}
	return nil
}

type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

// New returns the sink of the given kind. path is the output file for the
// json and sqlite kinds.
func New(ctx context.Context, kind, path string) (Sink, error) {
	switch kind {
	case "", "json":
		if path == "" {
			return nil, errors.New("sink: json output path is required")
		}
		return NewJSONSink(path), nil
	case "sqlite":
		s := NewSQLiteSink(path)
		if err := s.Init(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemorySink(), nil
	default:
		return nil, fmt.Errorf("sink: unsupported kind %q", kind)
	}
}
