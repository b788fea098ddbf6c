package stations

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"metronav.onebusaway.org/internal/metro"
)

// buildFeed zips a minimal GTFS feed: line 1 runs NORTH -> MID -> SOUTH,
// line 2 runs MID -> EAST. MID has two platforms under one parent station.
func buildFeed(t *testing.T) []byte {
	t.Helper()
	files := map[string]string{
		"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
			"metro,Metro,https://example.com,Asia/Tehran\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type\n" +
			"L1,metro,1,Line 1,1\n" +
			"L2,metro,2,Line 2,1\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon,location_type,parent_station\n" +
			"NORTH,North,35.80,51.43,0,\n" +
			"MID,Mid,35.75,51.42,1,\n" +
			"MID_1,Mid Line 1,35.7501,51.4201,0,MID\n" +
			"MID_2,Mid Line 2,35.7499,51.4199,0,MID\n" +
			"SOUTH,South,35.70,51.41,0,\n" +
			"EAST,East,35.75,51.50,0,\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"WK,1,1,1,1,1,1,1,20240101,20301231\n",
		"trips.txt": "route_id,service_id,trip_id\n" +
			"L1,WK,T1\n" +
			"L2,WK,T2\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"T1,08:00:00,08:00:00,NORTH,1\n" +
			"T1,08:05:00,08:05:00,MID_1,2\n" +
			"T1,08:10:00,08:10:00,SOUTH,3\n" +
			"T2,09:05:00,09:05:00,EAST,2\n" +
			"T2,09:00:00,09:00:00,MID_2,1\n",
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFromGTFS(t *testing.T) {
	data, err := FromGTFS(buildFeed(t))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"NORTH", "MID", "SOUTH", "EAST"}, keys(data), "platforms collapse into their parent")

	mid := data["MID"]
	require.NotNil(t, mid.Latitude)
	assert.Equal(t, metro.RawCoordinate("35.75"), *mid.Latitude)
	assert.ElementsMatch(t, []string{"L1", "L2"}, mid.Lines)
	assert.ElementsMatch(t, []string{"NORTH", "SOUTH", "EAST"}, mid.Relations)

	assert.ElementsMatch(t, []string{"MID"}, data["NORTH"].Relations)
	assert.ElementsMatch(t, []string{"MID"}, data["EAST"].Relations, "stop times are ordered by stop_sequence")
	assert.Equal(t, []string{"L2"}, data["EAST"].Lines)
}

func TestFromGTFS_Routes(t *testing.T) {
	data, err := FromGTFS(buildFeed(t))
	require.NoError(t, err)

	result, err := metro.BuildGraph(data, metro.DefaultBuildOptions())
	require.NoError(t, err)
	assert.Empty(t, result.Skipped)

	route, err := result.Graph.ShortestPath("NORTH", "EAST", nil)
	require.NoError(t, err)
	require.True(t, route.Found)
	assert.Equal(t, []string{"NORTH", "MID", "EAST"}, route.Stations)

	route, err = result.Graph.ShortestPath("NORTH", "EAST", metro.NewDisabledSet("MID"))
	require.NoError(t, err)
	assert.False(t, route.Found)
}

func TestLoad_GTFSFile(t *testing.T) {
	path := writeTemp(t, "feed.zip", buildFeed(t))

	data, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, data, 4)
}

func TestFromGTFS_Invalid(t *testing.T) {
	_, err := FromGTFS([]byte("not a zip"))
	assert.ErrorContains(t, err, "error parsing GTFS data")
}

func keys(data Dataset) []string {
	out := make([]string, 0, len(data))
	for k := range data {
		out = append(out, k)
	}
	return out
}
