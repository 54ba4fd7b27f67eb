package store

import (
	"fmt"
	"os"
	"slices"

	"github.com/lucasmaystre/spentfuelgpr/gpr"
	"github.com/lucasmaystre/spentfuelgpr/kern"
	"gopkg.in/yaml.v3"
)

// Manifest describes how the models in a directory were trained.
type Manifest struct {
	Features   []string       `yaml:"features"`
	PowerScale gpr.PowerScale `yaml:"power_scale"`
}

func defaultManifest() Manifest {
	return Manifest{
		Features:   slices.Clone(gpr.FeatureNames),
		PowerScale: gpr.DefaultPowerScale,
	}
}

func (m Manifest) validate() error {
	if !slices.Equal(m.Features, gpr.FeatureNames) {
		return fmt.Errorf("%w: manifest features %v, predictor expects %v",
			ErrInvalidArtifact, m.Features, gpr.FeatureNames)
	}
	if err := m.PowerScale.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	return nil
}

// Metadata is the per-isotope companion record of a trained kernel. Kernel
// is a pointer so that an absent tag is told apart from the first type.
type Metadata struct {
	Kernel       *kern.Type `yaml:"kernel"`
	TrainingSize int       `yaml:"training_size"`
}

func readYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return missing(path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidArtifact, path, err)
	}
	return nil
}

func writeYAML(path string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
