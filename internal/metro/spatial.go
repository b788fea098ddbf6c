package metro

import (
	"math"

	"github.com/tidwall/rtree"
	"metronav.onebusaway.org/internal/utils"
)

// StationIndex is a spatial index over stations with coordinates.
type StationIndex struct {
	graph *Graph
	tree  rtree.RTreeG[int]
}

// NewStationIndex indexes every station of g that has coordinates.
func NewStationIndex(g *Graph) *StationIndex {
	idx := &StationIndex{graph: g}
	for i, d := range g.details {
		if !d.HasCoordinates() {
			continue
		}
		pt := [2]float64{*d.Longitude, *d.Latitude}
		idx.tree.Insert(pt, pt, i)
	}
	return idx
}

// Len returns the number of indexed stations.
func (idx *StationIndex) Len() int {
	return idx.tree.Len()
}

// Nearest returns the station closest to lat/lon within radiusMeters, and
// its distance in meters.
func (idx *StationIndex) Nearest(lat, lon, radiusMeters float64) (string, float64, bool) {
	bounds := utils.CalculateBounds(lat, lon, radiusMeters)
	best := -1
	bestDist := math.Inf(1)

	idx.tree.Search(
		[2]float64{bounds.MinLon, bounds.MinLat},
		[2]float64{bounds.MaxLon, bounds.MaxLat},
		func(min, max [2]float64, i int) bool {
			d := utils.Distance(lat, lon, min[1], min[0])
			if d <= radiusMeters && (d < bestDist || (d == bestDist && idx.graph.ids[i] < idx.graph.ids[best])) {
				best = i
				bestDist = d
			}
			return true
		},
	)

	if best < 0 {
		return "", 0, false
	}
	return idx.graph.ids[best], bestDist, true
}
