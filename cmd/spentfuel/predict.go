package main

import (
	"context"
	"fmt"

	"github.com/lucasmaystre/spentfuelgpr/config"
	"github.com/lucasmaystre/spentfuelgpr/gpr"
	"github.com/lucasmaystre/spentfuelgpr/input"
	"github.com/lucasmaystre/spentfuelgpr/sink"
	"github.com/lucasmaystre/spentfuelgpr/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var predictFlags struct {
	models   string
	input    string
	output   string
	sink     string
	workers  int
	quantity float64
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run the prediction once and write the resulting composition",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyPredictFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		_, err = runPredict(cmd.Context(), cfg, nil)
		return err
	},
}

func init() {
	f := predictCmd.Flags()
	f.StringVar(&predictFlags.models, "models", "", "Model directory")
	f.StringVar(&predictFlags.input, "input", "", "Query parameters file")
	f.StringVar(&predictFlags.output, "output", "", "Output file")
	f.StringVar(&predictFlags.sink, "sink", "", "Output kind: json, sqlite or memory")
	f.IntVar(&predictFlags.workers, "workers", 0, "Isotopes evaluated concurrently")
	f.Float64Var(&predictFlags.quantity, "quantity", 0, "Discharged batch mass in kg")
}

// applyPredictFlags overrides cfg with the flags set on the command line.
func applyPredictFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("models") {
		cfg.Models.Dir = predictFlags.models
	}
	if f.Changed("input") {
		cfg.Input.Path = predictFlags.input
	}
	if f.Changed("output") {
		cfg.Output.Path = predictFlags.output
	}
	if f.Changed("sink") {
		cfg.Output.Kind = predictFlags.sink
	}
	if f.Changed("workers") {
		cfg.Predict.Workers = predictFlags.workers
	}
	if f.Changed("quantity") {
		cfg.Core.BatchKg = predictFlags.quantity
	}
}

// runPredict loads the models, reads the query, predicts every isotope and
// writes the record to out, or to the sink configured in cfg when out is nil.
func runPredict(ctx context.Context, cfg *config.Config, out sink.Sink) (sink.Record, error) {
	log := logger
	if log == nil {
		log = zap.NewNop()
	}

	models, err := store.Load(cfg.Models.Dir, log)
	if err != nil {
		return sink.Record{}, err
	}
	core := cfg.CoreGeometry()
	query, err := input.ReadFile(cfg.Input.Path, core, models.Manifest.PowerScale)
	if err != nil {
		return sink.Record{}, err
	}
	log.Debug("query features",
		zap.Float64("enrichment", query.Enrichment),
		zap.Float64("temperature", query.Temperature),
		zap.Float64("power", query.PowerOutput),
		zap.Float64("burnup", query.Burnup))

	predictor := gpr.NewPredictor(gpr.WithWorkers(cfg.Predict.Workers), gpr.WithLogger(log))
	comp, err := predictor.Predict(query.Vector(), models.Kernels, models.Training)
	if err != nil {
		return sink.Record{}, err
	}

	var material map[string]float64
	if cfg.Core.BatchKg > 0 {
		if material, err = comp.Material(cfg.Core.BatchKg, core.Mass()); err != nil {
			return sink.Record{}, err
		}
	}

	if out == nil {
		if out, err = sink.New(ctx, cfg.Output.Kind, cfg.Output.Path); err != nil {
			return sink.Record{}, err
		}
		defer out.Close()
	}
	rec := sink.NewRecord(query, comp, material)
	if err := out.Write(ctx, rec); err != nil {
		return sink.Record{}, fmt.Errorf("write result: %w", err)
	}
	log.Info("prediction written",
		zap.String("run_id", rec.RunID.String()),
		zap.String("sink", cfg.Output.Kind),
		zap.String("path", cfg.Output.Path))
	return rec, nil
}
