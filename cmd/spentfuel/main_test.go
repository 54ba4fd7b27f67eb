package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucasmaystre/spentfuelgpr/config"
	"github.com/lucasmaystre/spentfuelgpr/gpr"
	"github.com/lucasmaystre/spentfuelgpr/input"
	"github.com/lucasmaystre/spentfuelgpr/kern"
	"github.com/lucasmaystre/spentfuelgpr/sink"
	"github.com/lucasmaystre/spentfuelgpr/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

func TestMain(m *testing.M) {
	logger = zap.NewNop()
	os.Exit(m.Run())
}

// writeWorkspace lays out a model directory and a query file under a
// temporary directory and returns a matching configuration.
func writeWorkspace(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	kernels := make(map[gpr.Isotope]*gpr.TrainedKernel, len(gpr.Isotopes))
	for i, iso := range gpr.Isotopes {
		kernels[iso] = &gpr.TrainedKernel{
			Isotope:    iso,
			Type:       kern.TypeASQE,
			Params:     []float64{1, 0.01, 100, 1, 20, 0},
			Alpha:      []float64{float64(i + 1), 1, 1},
			SubsetSize: 3,
		}
	}
	models := &store.Models{
		Manifest: store.Manifest{
			Features:   gpr.FeatureNames,
			PowerScale: gpr.PowerScale{CoreAssemblies: 150, ReferenceAssemblies: 1, UnitLength: 100},
		},
		Training: mat.NewDense(3, 4, []float64{
			0.03, 500, 0.1, 10,
			0.05, 600, 0.3, 60,
			0.04, 550, 0.2, 30,
		}),
		Kernels: kernels,
	}
	modelDir := filepath.Join(dir, "models")
	require.NoError(t, store.Save(modelDir, models))

	temp, power, days := 565.0, 3000.0, 360.0
	var buf bytes.Buffer
	require.NoError(t, input.Write(&buf, &input.Record{
		FreshFuel:       map[string]float64{gpr.NucU235: 4, gpr.NucU238: 96},
		Temperature:     &temp,
		PowerOutput:     &power,
		IrradiationTime: &days,
	}))
	inputPath := filepath.Join(dir, input.DefaultFile)
	require.NoError(t, os.WriteFile(inputPath, buf.Bytes(), 0o644))

	cfg := config.Default()
	cfg.Models.Dir = modelDir
	cfg.Input.Path = inputPath
	cfg.Output = config.OutputConfig{Kind: "json", Path: filepath.Join(dir, "out", sink.DefaultFile)}
	cfg.Core = config.CoreConfig{Assemblies: 150, AssemblyMassKg: 180, BatchKg: 100}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunPredict(t *testing.T) {
	cfg := writeWorkspace(t)
	out := sink.NewMemorySink()
	rec, err := runPredict(context.Background(), cfg, out)
	require.NoError(t, err)

	// 3000 MWth over 150 assemblies, 100 length units: 0.2; burnup 40 MWd/kg.
	assert.InDelta(t, 0.04, rec.Query.Enrichment, 1e-15)
	assert.InDelta(t, 0.2, rec.Query.PowerOutput, 1e-15)
	assert.InDelta(t, 40, rec.Query.Burnup, 1e-12)
	require.NoError(t, rec.Composition.Validate())
	assert.Contains(t, rec.Material, "U235")

	require.Len(t, out.Records(), 1)
	assert.Equal(t, rec.RunID, out.Records()[0].RunID)
}

func TestRunPredictOutOfBounds(t *testing.T) {
	cfg := writeWorkspace(t)
	cfg.Core.AssemblyMassKg = 1 // burnup far beyond the training envelope
	_, err := runPredict(context.Background(), cfg, sink.NewMemorySink())
	assert.ErrorIs(t, err, gpr.ErrOutOfBounds)
	_, statErr := os.Stat(cfg.Output.Path)
	assert.True(t, os.IsNotExist(statErr), "no output on failure")
}

func TestRunPredictMissingModels(t *testing.T) {
	cfg := writeWorkspace(t)
	cfg.Models.Dir = filepath.Join(t.TempDir(), "nowhere")
	_, err := runPredict(context.Background(), cfg, sink.NewMemorySink())
	assert.ErrorIs(t, err, gpr.ErrMissingArtifact)
}

func TestPredictCommand(t *testing.T) {
	cfg := writeWorkspace(t)
	cfgPath := filepath.Join(t.TempDir(), "spentfuel.yaml")
	require.NoError(t, cfg.Save(cfgPath))
	outPath := filepath.Join(t.TempDir(), "result.json")

	rootCmd.SetArgs([]string{"predict", "--config", cfgPath, "--output", outPath, "--workers", "4"})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	var comp map[string]float64
	require.NoError(t, json.Unmarshal(doc["spent_fuel_composition"], &comp))
	assert.Len(t, comp, len(gpr.Isotopes))
}

func TestKernelsCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)
	rootCmd.SetArgs([]string{"kernels", "--dim", "4"})
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(kern.Types())+1)
	arity := make(map[string]string)
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		require.Len(t, fields, 3)
		arity[fields[0]] = fields[1]
	}
	assert.Equal(t, "6", arity["ASQE"])
	assert.Equal(t, "3", arity["SQE"])
	assert.Equal(t, "8", arity["Poly"])
}
