package metro

import (
	"math"
	"slices"
)

// DisabledSet holds the stations excluded from a single query.
type DisabledSet map[string]struct{}

// NewDisabledSet builds a DisabledSet from identifiers.
func NewDisabledSet(ids ...string) DisabledSet {
	set := make(DisabledSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is disabled.
func (s DisabledSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Route is the result of a shortest path query. Found is false when no path
// exists, in which case Minutes and Stations are zero values.
type Route struct {
	Found    bool
	Minutes  float64
	Stations []string
}

// NoPath is the route returned when the destination cannot be reached.
var NoPath = Route{}

// ShortestPath returns the minimum-time route from start to end over the
// graph with all disabled stations and their edges removed. A disabled start
// or end yields NoPath. Unknown start or end identifiers return an
// *UnknownStationError; unknown identifiers in disabled are ignored.
//
// Ties between equal tentative distances are broken by heap order.
func (g *Graph) ShortestPath(start, end string, disabled DisabledSet) (Route, error) {
	s, ok := g.index[start]
	if !ok {
		return NoPath, &UnknownStationError{ID: start}
	}
	t, ok := g.index[end]
	if !ok {
		return NoPath, &UnknownStationError{ID: end}
	}

	off := make([]bool, len(g.ids))
	for id := range disabled {
		if i, ok := g.index[id]; ok {
			off[i] = true
		}
	}

	dist := make([]float64, len(g.ids))
	prev := make([]int, len(g.ids))
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[s] = 0

	q := frontier{}
	q.push(0, s)

	for q.Len() > 0 {
		cur := q.pop()
		if off[cur.node] {
			continue
		}
		if cur.minutes > dist[cur.node] {
			continue
		}
		if cur.node == t {
			return Route{Found: true, Minutes: dist[t], Stations: g.reconstruct(prev, t)}, nil
		}
		for _, e := range g.adj[cur.node] {
			if off[e.To] {
				continue
			}
			candidate := cur.minutes + e.Minutes
			if candidate < dist[e.To] {
				dist[e.To] = candidate
				prev[e.To] = cur.node
				q.push(candidate, e.To)
			}
		}
	}

	return NoPath, nil
}

func (g *Graph) reconstruct(prev []int, end int) []string {
	var path []string
	for n := end; n != -1; n = prev[n] {
		path = append(path, g.ids[n])
	}
	slices.Reverse(path)
	return path
}
