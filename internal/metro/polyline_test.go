package metro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
)

func TestEncodePolyline(t *testing.T) {
	result, err := BuildGraph(sampleStations(), DefaultBuildOptions())
	require.NoError(t, err)
	g := result.Graph

	route, err := g.ShortestPath("Tajrish", "Shahid Sadr", nil)
	require.NoError(t, err)

	encoded := g.EncodePolyline(route)
	require.NotEmpty(t, encoded)

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	require.NoError(t, err)
	require.Len(t, coords, 3)
	assert.InDelta(t, 35.8044, coords[0][0], 1e-5)
	assert.InDelta(t, 51.4337, coords[0][1], 1e-5)
	assert.InDelta(t, 35.7762, coords[2][0], 1e-5)
}

func TestEncodePolyline_NoCoordinates(t *testing.T) {
	g := triangle()
	assert.Equal(t, "", g.EncodePolyline(Route{Found: true, Stations: []string{"X", "Y"}}))
	assert.Equal(t, "", g.EncodePolyline(NoPath))
}
