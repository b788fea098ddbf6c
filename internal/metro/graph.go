package metro

import "sort"

// Edge is one directed half of an undirected connection.
type Edge struct {
	To      int
	Minutes float64
}

// Graph is the immutable, index-addressed station graph. Station identifiers
// are resolved to dense indices at build time; adjacency is kept per index.
// A Graph is safe for concurrent readers.
type Graph struct {
	ids     []string
	index   map[string]int
	details []StationDetail
	adj     [][]Edge
}

func newGraph(ids []string) *Graph {
	sort.Strings(ids)
	g := &Graph{
		ids:     ids,
		index:   make(map[string]int, len(ids)),
		details: make([]StationDetail, len(ids)),
		adj:     make([][]Edge, len(ids)),
	}
	for i, id := range ids {
		g.index[id] = i
	}
	return g
}

// setEdge records w in both directions, overwriting any existing weight.
func (g *Graph) setEdge(a, b int, w float64) {
	g.adj[a] = upsertEdge(g.adj[a], b, w)
	g.adj[b] = upsertEdge(g.adj[b], a, w)
}

func upsertEdge(edges []Edge, to int, w float64) []Edge {
	for i := range edges {
		if edges[i].To == to {
			edges[i].Minutes = w
			return edges
		}
	}
	return append(edges, Edge{To: to, Minutes: w})
}

// Len returns the number of stations.
func (g *Graph) Len() int {
	return len(g.ids)
}

// EdgeCount returns the number of undirected connections.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, edges := range g.adj {
		n += len(edges)
	}
	return n / 2
}

// StationIDs returns all identifiers in sorted order.
func (g *Graph) StationIDs() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// Has reports whether id is a station of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Station returns the detail record for id.
func (g *Graph) Station(id string) (StationDetail, bool) {
	i, ok := g.index[id]
	if !ok {
		return StationDetail{}, false
	}
	return g.details[i], true
}

// Neighbors returns a copy of id's neighbour map in minutes.
func (g *Graph) Neighbors(id string) map[string]float64 {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(g.adj[i]))
	for _, e := range g.adj[i] {
		out[g.ids[e.To]] = e.Minutes
	}
	return out
}

// Weight returns the edge weight between a and b.
func (g *Graph) Weight(a, b string) (float64, bool) {
	i, ok := g.index[a]
	if !ok {
		return 0, false
	}
	j, ok := g.index[b]
	if !ok {
		return 0, false
	}
	for _, e := range g.adj[i] {
		if e.To == j {
			return e.Minutes, true
		}
	}
	return 0, false
}

// AdjacencyMap expands the graph into identifier-keyed maps. Intended for
// debugging and export, not for routing.
func (g *Graph) AdjacencyMap() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(g.ids))
	for _, id := range g.ids {
		out[id] = g.Neighbors(id)
	}
	return out
}
