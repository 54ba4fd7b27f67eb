// Package config holds the settings of a prediction run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/lucasmaystre/spentfuelgpr/input"
	"github.com/lucasmaystre/spentfuelgpr/sink"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Models  ModelsConfig  `yaml:"models"`
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Core    CoreConfig    `yaml:"core"`
	Predict PredictConfig `yaml:"predict"`
	Logging LoggingConfig `yaml:"logging"`
}

type ModelsConfig struct {
	Dir string `yaml:"dir"` // Directory laid out as read by store.Load.
}

type InputConfig struct {
	Path string `yaml:"path"`
}

type OutputConfig struct {
	Kind string `yaml:"kind"` // json, sqlite, memory
	Path string `yaml:"path"`
}

// CoreConfig describes the reactor core the query comes from.
type CoreConfig struct {
	Assemblies     int     `yaml:"assemblies"`
	AssemblyMassKg float64 `yaml:"assembly_mass_kg"`
	// Mass of the discharged batch in kg. Zero skips material scaling.
	BatchKg float64 `yaml:"batch_kg"`
}

type PredictConfig struct {
	Workers int `yaml:"workers"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ValidSinks lists the supported output kinds.
var ValidSinks = []string{"json", "sqlite", "memory"}

func Default() *Config {
	return &Config{
		Models: ModelsConfig{Dir: "models"},
		Input:  InputConfig{Path: input.DefaultFile},
		Output: OutputConfig{Kind: "json", Path: sink.DefaultFile},
		Core: CoreConfig{
			Assemblies:     1,
			AssemblyMassKg: 1,
		},
		Predict: PredictConfig{Workers: 1},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("SPENTFUEL_MODELS_DIR"); dir != "" {
		c.Models.Dir = dir
	}
	if n, err := strconv.Atoi(os.Getenv("SPENTFUEL_WORKERS")); err == nil && n > 0 {
		c.Predict.Workers = n
	}
}

func (c *Config) Validate() error {
	if c.Models.Dir == "" {
		return fmt.Errorf("models directory not configured")
	}
	if c.Input.Path == "" {
		return fmt.Errorf("input path not configured")
	}
	if !slices.Contains(ValidSinks, c.Output.Kind) {
		return fmt.Errorf("invalid output kind: %s (valid: %v)", c.Output.Kind, ValidSinks)
	}
	if c.Output.Kind != "memory" && c.Output.Path == "" {
		return fmt.Errorf("output path not configured for %s sink", c.Output.Kind)
	}
	if c.Core.Assemblies <= 0 || c.Core.AssemblyMassKg <= 0 {
		return fmt.Errorf("core needs a positive assembly count and mass, got %d x %g kg",
			c.Core.Assemblies, c.Core.AssemblyMassKg)
	}
	if c.Core.BatchKg < 0 {
		return fmt.Errorf("negative batch mass %g kg", c.Core.BatchKg)
	}
	if c.Predict.Workers < 1 {
		return fmt.Errorf("predict.workers must be at least 1, got %d", c.Predict.Workers)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging level: %w", err)
	}
	return nil
}

// CoreGeometry returns the core description used to derive query features.
func (c *Config) CoreGeometry() input.Core {
	return input.Core{Assemblies: c.Core.Assemblies, AssemblyMass: c.Core.AssemblyMassKg}
}
