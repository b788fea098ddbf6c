package metro

import (
	"fmt"
	"log/slog"
	"sort"

	"metronav.onebusaway.org/internal/logging"
	"metronav.onebusaway.org/internal/utils"
)

const (
	// DefaultSpeedKmph is the assumed average train speed.
	DefaultSpeedKmph = 40.0
	// DefaultLineChangePenaltyMinutes is added when adjacent stations share no line.
	DefaultLineChangePenaltyMinutes = 4.0
)

// BuildOptions holds the graph construction tunables.
type BuildOptions struct {
	SpeedKmph                float64
	LineChangePenaltyMinutes float64
	Logger                   *slog.Logger
}

// DefaultBuildOptions returns the default speed and line change penalty.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		SpeedKmph:                DefaultSpeedKmph,
		LineChangePenaltyMinutes: DefaultLineChangePenaltyMinutes,
	}
}

func (o BuildOptions) validate() error {
	if !(o.SpeedKmph > 0) {
		return fmt.Errorf("%w: speed must be positive, got %v", ErrInvalidOptions, o.SpeedKmph)
	}
	if !(o.LineChangePenaltyMinutes >= 0) {
		return fmt.Errorf("%w: line change penalty must be non-negative, got %v", ErrInvalidOptions, o.LineChangePenaltyMinutes)
	}
	return nil
}

// SkipReason classifies a relation that did not become an edge.
type SkipReason string

const (
	SkipUnknownStation     SkipReason = "unknown_station"
	SkipMissingCoordinates SkipReason = "missing_coordinates"
	SkipSelfRelation       SkipReason = "self_relation"
)

// SkippedRelation is a declared relation that produced no edge.
type SkippedRelation struct {
	From   string
	To     string
	Reason SkipReason
}

// Err returns the skip as an error value, for callers that want to log or
// collect it alongside other failures.
func (s SkippedRelation) Err() error {
	if s.Reason == SkipUnknownStation {
		return fmt.Errorf("relation %q -> %q: %w", s.From, s.To, &UnknownStationError{ID: s.To})
	}
	return fmt.Errorf("relation %q -> %q: %s", s.From, s.To, s.Reason)
}

// BuildResult is the outcome of a successful build.
type BuildResult struct {
	Graph   *Graph
	Skipped []SkippedRelation
}

// SkippedByReason counts skipped relations per reason.
func (r BuildResult) SkippedByReason() map[SkipReason]int {
	out := make(map[SkipReason]int)
	for _, s := range r.Skipped {
		out[s.Reason]++
	}
	return out
}

type plannedEdge struct {
	a, b    int
	minutes float64
}

// BuildGraph turns a station dataset into a weighted undirected graph.
//
// Every station becomes a node, including ones without coordinates. Each
// relation between two stations with coordinates becomes an edge whose
// weight is the haversine travel time at opts.SpeedKmph, plus
// opts.LineChangePenaltyMinutes when the stations share no line. Relations
// to unknown stations or to stations without coordinates are reported in
// BuildResult.Skipped. A coordinate that is present but not a valid number
// fails the whole build with a *DataError.
func BuildGraph(stations map[string]StationRecord, opts BuildOptions) (BuildResult, error) {
	if err := opts.validate(); err != nil {
		return BuildResult{}, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "graph_builder"))

	ids := make([]string, 0, len(stations))
	for id := range stations {
		ids = append(ids, id)
	}
	g := newGraph(ids)

	for i, id := range g.ids {
		detail, err := newStationDetail(id, stations[id])
		if err != nil {
			return BuildResult{}, err
		}
		g.details[i] = detail
	}

	edges, skipped := planEdges(g, stations, opts)
	for _, e := range edges {
		g.setEdge(e.a, e.b, e.minutes)
	}

	for _, s := range skipped {
		logger.Debug("relation skipped",
			slog.String("from", s.From),
			slog.String("to", s.To),
			slog.String("reason", string(s.Reason)))
	}
	logging.LogOperation(logger, "metro_graph_built",
		slog.Int("stations", g.Len()),
		slog.Int("edges", g.EdgeCount()),
		slog.Int("skipped_relations", len(skipped)))

	return BuildResult{Graph: g, Skipped: skipped}, nil
}

// planEdges is the single validation pass over all relations. It decides for
// each relation whether it becomes an edge and with what weight.
func planEdges(g *Graph, stations map[string]StationRecord, opts BuildOptions) ([]plannedEdge, []SkippedRelation) {
	var edges []plannedEdge
	var skipped []SkippedRelation

	for a, id := range g.ids {
		from := g.details[a]
		relations := append([]string(nil), stations[id].Relations...)
		sort.Strings(relations)

		for _, rel := range relations {
			b, ok := g.index[rel]
			switch {
			case !ok:
				skipped = append(skipped, SkippedRelation{From: id, To: rel, Reason: SkipUnknownStation})
				continue
			case b == a:
				skipped = append(skipped, SkippedRelation{From: id, To: rel, Reason: SkipSelfRelation})
				continue
			case !from.HasCoordinates() || !g.details[b].HasCoordinates():
				skipped = append(skipped, SkippedRelation{From: id, To: rel, Reason: SkipMissingCoordinates})
				continue
			}
			edges = append(edges, plannedEdge{a: a, b: b, minutes: edgeMinutes(from, g.details[b], opts)})
		}
	}
	return edges, skipped
}

// TravelMinutes converts a distance into minutes at the given speed.
func TravelMinutes(distanceKm, speedKmph float64) float64 {
	return distanceKm / speedKmph * 60
}

func edgeMinutes(a, b StationDetail, opts BuildOptions) float64 {
	km := utils.HaversineKm(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
	minutes := TravelMinutes(km, opts.SpeedKmph)
	if !a.SharesLineWith(b) {
		minutes += opts.LineChangePenaltyMinutes
	}
	return minutes
}
