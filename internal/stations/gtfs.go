package stations

import (
	"fmt"
	"slices"
	"sort"

	"github.com/OneBusAway/go-gtfs"
	"metronav.onebusaway.org/internal/metro"
)

// FromGTFS derives a station dataset from a GTFS static zip. Platforms are
// collapsed into their parent station, each station's lines are the routes
// that serve it, and consecutive stops of every trip become relations.
func FromGTFS(data []byte) (Dataset, error) {
	static, err := gtfs.ParseStatic(data, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}

	out := make(Dataset, len(static.Stops))
	for i := range static.Stops {
		station := rootStation(&static.Stops[i])
		if _, ok := out[station.Id]; ok {
			continue
		}
		rec := metro.StationRecord{}
		if station.Latitude != nil && station.Longitude != nil {
			rec.Latitude = metro.Coord(*station.Latitude)
			rec.Longitude = metro.Coord(*station.Longitude)
		}
		out[station.Id] = rec
	}

	for i := range static.Trips {
		trip := &static.Trips[i]
		stopTimes := slices.Clone(trip.StopTimes)
		sort.SliceStable(stopTimes, func(a, b int) bool {
			return stopTimes[a].StopSequence < stopTimes[b].StopSequence
		})

		prev := ""
		for _, st := range stopTimes {
			if st.Stop == nil {
				continue
			}
			id := rootStation(st.Stop).Id
			rec := out[id]
			if trip.Route != nil {
				rec.Lines = appendUnique(rec.Lines, trip.Route.Id)
			}
			if prev != "" && prev != id {
				rec.Relations = appendUnique(rec.Relations, prev)
				prevRec := out[prev]
				prevRec.Relations = appendUnique(prevRec.Relations, id)
				out[prev] = prevRec
			}
			out[id] = rec
			prev = id
		}
	}

	return out, nil
}

func rootStation(stop *gtfs.Stop) *gtfs.Stop {
	for stop.Parent != nil {
		stop = stop.Parent
	}
	return stop
}

func appendUnique(values []string, v string) []string {
	if slices.Contains(values, v) {
		return values
	}
	return append(values, v)
}
