package metro

import "github.com/twpayne/go-polyline"

// EncodePolyline returns the Google encoded polyline of a route's stations.
// Stations without coordinates are left out.
func (g *Graph) EncodePolyline(route Route) string {
	coords := make([][]float64, 0, len(route.Stations))
	for _, id := range route.Stations {
		d, ok := g.Station(id)
		if !ok || !d.HasCoordinates() {
			continue
		}
		coords = append(coords, []float64{*d.Latitude, *d.Longitude})
	}
	if len(coords) == 0 {
		return ""
	}
	return string(polyline.EncodeCoords(coords))
}
