package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/newthinker/klineprompt/internal/batch"
	"github.com/newthinker/klineprompt/internal/config"
	"github.com/newthinker/klineprompt/internal/core"
	"github.com/newthinker/klineprompt/internal/dataset"
	"github.com/newthinker/klineprompt/internal/logger"
	"github.com/newthinker/klineprompt/internal/metrics"
	"github.com/newthinker/klineprompt/internal/storage/archive"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runEnv is the per-invocation wiring shared by the batch commands.
type runEnv struct {
	cfg      *config.Config
	log      *zap.Logger
	runID    string
	metrics  *metrics.Registry
	mirror   *archive.Mirror
	resolver dataset.Resolver
	symbols  []core.Symbol
}

func setup(cmd *cobra.Command) (*runEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := logger.ForRun(logger.Must(debug), runID, cmd.Name())

	store, err := archive.FromConfig(cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	reg := metrics.NewRegistry()
	mirror := archive.NewMirror(store, ".", log)
	mirror.OnResult = reg.RecordArchive

	symbols := core.Symbols(cfg.Symbols)
	if cmd.Flags().Changed("symbols") {
		symbols = core.Symbols(symbolArgs)
	}
	if len(symbols) == 0 {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("no symbols configured"))
	}

	log.Debug("run configured",
		zap.Int("symbols", len(symbols)),
		zap.String("broker", cfg.Broker.Provider),
		zap.Bool("archive", mirror.Enabled()))

	return &runEnv{
		cfg:     cfg,
		log:     log,
		runID:   runID,
		metrics: reg,
		mirror:  mirror,
		resolver: dataset.Resolver{
			KlinesDir:  cfg.Datasets.KlinesDir,
			OrdersDir:  cfg.Datasets.OrdersDir,
			GroundDir:  cfg.Datasets.GroundDir,
			PromptsDir: cfg.Datasets.PromptsDir,
		},
		symbols: symbols,
	}, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// runner returns a batch runner printing to the command's stdout.
func (e *runEnv) runner(cmd *cobra.Command) *batch.Runner {
	return &batch.Runner{
		Delay:   e.cfg.Fetch.Delay,
		Out:     cmd.OutOrStdout(),
		Logger:  e.log,
		Metrics: e.metrics,
	}
}

// finish exports metrics and flushes the logger. Export failures are logged
// only; they never change the command's outcome.
func (e *runEnv) finish(ctx context.Context) {
	err := e.metrics.Flush(ctx, metrics.FlushOptions{
		Textfile:    e.cfg.Metrics.Textfile,
		Pushgateway: e.cfg.Metrics.Pushgateway,
		Job:         e.cfg.Metrics.Job,
		RunID:       e.runID,
	})
	if err != nil {
		e.log.Warn("metrics export failed", zap.Error(err))
	}
	_ = e.log.Sync()
}
