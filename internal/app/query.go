package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"metronav.onebusaway.org/internal/logging"
	"metronav.onebusaway.org/internal/metrics"
	"metronav.onebusaway.org/internal/metro"
	"metronav.onebusaway.org/internal/models"
)

// ErrNoNearbyStation is returned when a coordinate has no station in range.
var ErrNoNearbyStation = errors.New("no station within range")

// ResolveStation maps user input to a station identifier. An exact
// identifier always wins; otherwise input of the form "@lat,lon" resolves to
// the nearest station within the configured radius.
func (app *Application) ResolveStation(input string) (string, error) {
	input = strings.TrimSpace(input)
	if app.Graph.Has(input) {
		return input, nil
	}
	if !strings.HasPrefix(input, "@") {
		return "", &metro.UnknownStationError{ID: input}
	}

	lat, lon, err := parseLatLon(strings.TrimPrefix(input, "@"))
	if err != nil {
		return "", err
	}
	id, dist, ok := app.Index.Nearest(lat, lon, app.Config.NearestRadiusMeters)
	if !ok {
		return "", fmt.Errorf("%w: %.0fm of %v,%v", ErrNoNearbyStation, app.Config.NearestRadiusMeters, lat, lon)
	}
	app.Logger.Debug("coordinate resolved to station",
		slog.String("station", id),
		slog.Float64("distance_m", dist))
	return id, nil
}

func parseLatLon(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid coordinate %q: expected lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", parts[1], err)
	}
	return lat, lon, nil
}

// FindRoute runs one shortest path query between known stations.
func (app *Application) FindRoute(from, to string, disabled []string) (models.RouteResponse, error) {
	logger := app.Logger.With(slog.String("component", "route_query"))
	start := app.Clock.Now()

	route, err := app.Graph.ShortestPath(from, to, metro.NewDisabledSet(disabled...))
	elapsed := app.Clock.Since(start)
	if err != nil {
		app.Metrics.ObserveQuery(metrics.OutcomeError, elapsed, 0)
		logging.LogError(logger, "route query failed", err,
			slog.String("from", from),
			slog.String("to", to))
		return models.RouteResponse{}, err
	}

	outcome := metrics.OutcomeNoPath
	if route.Found {
		outcome = metrics.OutcomeFound
	}
	app.Metrics.ObserveQuery(outcome, elapsed, route.Minutes)

	logging.LogOperation(logger, "route_query",
		slog.String("from", from),
		slog.String("to", to),
		slog.Int("disabled", len(disabled)),
		slog.String("outcome", outcome),
		slog.Float64("minutes", route.Minutes),
		slog.Int("stops", len(route.Stations)),
		slog.Duration("elapsed", elapsed))

	return models.NewRouteResponse(from, to, disabled, route.Found, route.Minutes, route.Stations, app.Graph.EncodePolyline(route)), nil
}

// StationEntries lists all stations sorted by identifier, numbered from 1.
func (app *Application) StationEntries() []models.StationEntry {
	ids := app.Graph.StationIDs()
	out := make([]models.StationEntry, 0, len(ids))
	for i, id := range ids {
		d, _ := app.Graph.Station(id)
		out = append(out, models.StationEntry{
			Index:     i + 1,
			ID:        id,
			Latitude:  d.Latitude,
			Longitude: d.Longitude,
			Lines:     d.Lines,
		})
	}
	return out
}
