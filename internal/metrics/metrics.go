// Package metrics provides Prometheus metrics for the navigator.
package metrics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Route query outcomes used as the "outcome" label.
const (
	OutcomeFound  = "found"
	OutcomeNoPath = "no_path"
	OutcomeError  = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// Query metrics
	RouteQueriesTotal  *prometheus.CounterVec
	RouteQueryDuration prometheus.Histogram
	RouteMinutes       prometheus.Histogram

	// Graph metrics
	GraphStations         prometheus.Gauge
	GraphEdges            prometheus.Gauge
	SkippedRelationsTotal *prometheus.CounterVec
	GraphBuildDuration    prometheus.Gauge

	logger *slog.Logger
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	routeQueriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metronav_route_queries_total",
			Help: "Total number of shortest route queries by outcome",
		},
		[]string{"outcome"},
	)

	routeQueryDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "metronav_route_query_duration_seconds",
		Help:    "Shortest route query latency distribution",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	routeMinutes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "metronav_route_minutes",
		Help:    "Total travel time of found routes in minutes",
		Buckets: []float64{5, 10, 15, 20, 30, 45, 60, 90, 120},
	})

	graphStations := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "metronav_graph_stations",
		Help: "Number of stations in the routing graph",
	})

	graphEdges := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "metronav_graph_edges",
		Help: "Number of undirected connections in the routing graph",
	})

	skippedRelationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metronav_skipped_relations_total",
			Help: "Relations that did not become edges, by reason",
		},
		[]string{"reason"},
	)

	graphBuildDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "metronav_graph_build_duration_seconds",
		Help: "Duration of the last graph build",
	})

	registry.MustRegister(
		routeQueriesTotal,
		routeQueryDuration,
		routeMinutes,
		graphStations,
		graphEdges,
		skippedRelationsTotal,
		graphBuildDuration,
	)

	return &Metrics{
		Registry:              registry,
		RouteQueriesTotal:     routeQueriesTotal,
		RouteQueryDuration:    routeQueryDuration,
		RouteMinutes:          routeMinutes,
		GraphStations:         graphStations,
		GraphEdges:            graphEdges,
		SkippedRelationsTotal: skippedRelationsTotal,
		GraphBuildDuration:    graphBuildDuration,
		logger:                logger,
	}
}

// ObserveQuery records one route query.
func (m *Metrics) ObserveQuery(outcome string, elapsed time.Duration, minutes float64) {
	m.RouteQueriesTotal.WithLabelValues(outcome).Inc()
	m.RouteQueryDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeFound {
		m.RouteMinutes.Observe(minutes)
	}
}

// ObserveBuild records the shape of a freshly built graph.
func (m *Metrics) ObserveBuild(stations, edges int, skipped map[string]int, elapsed time.Duration) {
	m.GraphStations.Set(float64(stations))
	m.GraphEdges.Set(float64(edges))
	for reason, n := range skipped {
		m.SkippedRelationsTotal.WithLabelValues(reason).Add(float64(n))
	}
	m.GraphBuildDuration.Set(elapsed.Seconds())
}

// WriteTextfile writes the registry in the text exposition format, for the
// node exporter textfile collector. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		if m.logger != nil {
			m.logger.Error("failed to write metrics textfile", "path", path, "error", err)
		}
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
