package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"metronav.onebusaway.org/internal/appconf"
	"metronav.onebusaway.org/internal/clock"
	"metronav.onebusaway.org/internal/logging"
	"metronav.onebusaway.org/internal/metrics"
	"metronav.onebusaway.org/internal/metro"
	"metronav.onebusaway.org/internal/stations"
)

// Application holds the built routing graph and the dependencies used to
// answer queries against it. The graph is never modified after construction.
type Application struct {
	Config  appconf.Config
	Logger  *slog.Logger
	Graph   *metro.Graph
	Skipped []metro.SkippedRelation
	Index   *metro.StationIndex
	Clock   clock.Clock
	Metrics *metrics.Metrics
}

// BuildApplication loads the configured station dataset and builds the graph.
func BuildApplication(ctx context.Context, cfg appconf.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	ctx = logging.WithLogger(ctx, logger)

	data, err := stations.Load(ctx, cfg.StationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}

	return NewFromDataset(cfg, data, logger, clock.RealClock{}, metrics.NewWithLogger(logger))
}

// NewFromDataset builds an Application from an already loaded dataset.
func NewFromDataset(cfg appconf.Config, data stations.Dataset, logger *slog.Logger, clk clock.Clock, m *metrics.Metrics) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if m == nil {
		m = metrics.NewWithLogger(logger)
	}

	start := clk.Now()
	result, err := metro.BuildGraph(data, metro.BuildOptions{
		SpeedKmph:                cfg.SpeedKmph,
		LineChangePenaltyMinutes: cfg.LineChangePenaltyMinutes,
		Logger:                   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build metro graph: %w", err)
	}

	skipped := make(map[string]int)
	for reason, n := range result.SkippedByReason() {
		skipped[string(reason)] = n
	}
	m.ObserveBuild(result.Graph.Len(), result.Graph.EdgeCount(), skipped, clk.Since(start))

	return &Application{
		Config:  cfg,
		Logger:  logger,
		Graph:   result.Graph,
		Skipped: result.Skipped,
		Index:   metro.NewStationIndex(result.Graph),
		Clock:   clk,
		Metrics: m,
	}, nil
}

// Shutdown flushes metrics to the configured textfile.
func (app *Application) Shutdown() error {
	return app.Metrics.WriteTextfile(app.Config.MetricsFile)
}
