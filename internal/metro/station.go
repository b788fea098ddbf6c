package metro

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"metronav.onebusaway.org/internal/utils"
)

// RawCoordinate is a coordinate exactly as the dataset supplied it. It is
// parsed during graph build so malformed values surface as a DataError.
type RawCoordinate string

// UnmarshalJSON accepts both JSON numbers and numeric strings.
func (c *RawCoordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = RawCoordinate(s)
		return nil
	}
	*c = RawCoordinate(data)
	return nil
}

// Coord wraps a float64 as a RawCoordinate pointer.
func Coord(v float64) *RawCoordinate {
	c := RawCoordinate(strconv.FormatFloat(v, 'f', -1, 64))
	return &c
}

// StationRecord is one entry of the input dataset.
type StationRecord struct {
	Latitude  *RawCoordinate `json:"latitude,omitempty"`
	Longitude *RawCoordinate `json:"longitude,omitempty"`
	Lines     []string       `json:"lines,omitempty"`
	Relations []string       `json:"relations,omitempty"`
}

// UnmarshalJSON decodes a record whose line identifiers may be JSON strings
// or numbers. Numbers keep their literal text, so 4 becomes "4".
func (r *StationRecord) UnmarshalJSON(data []byte) error {
	type plain StationRecord
	var aux struct {
		plain
		Lines []lineID `json:"lines,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = StationRecord(aux.plain)
	r.Lines = nil
	for _, line := range aux.Lines {
		r.Lines = append(r.Lines, string(line))
	}
	return nil
}

type lineID string

func (l *lineID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty line identifier")
	}
	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = lineID(s)
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*l = lineID(n.String())
	default:
		return fmt.Errorf("line identifier must be a string or number, got %s", data)
	}
	return nil
}

// StationDetail is the immutable per-station view produced by BuildGraph.
type StationDetail struct {
	ID        string
	Latitude  *float64
	Longitude *float64
	Lines     []string
}

// HasCoordinates reports whether both latitude and longitude are known.
func (d StationDetail) HasCoordinates() bool {
	return d.Latitude != nil && d.Longitude != nil
}

// SharesLineWith reports whether the two stations have any line in common.
func (d StationDetail) SharesLineWith(other StationDetail) bool {
	for _, a := range d.Lines {
		for _, b := range other.Lines {
			if a == b {
				return true
			}
		}
	}
	return false
}

func newStationDetail(id string, rec StationRecord) (StationDetail, error) {
	lat, err := parseCoordinate(id, "latitude", rec.Latitude)
	if err != nil {
		return StationDetail{}, err
	}
	lon, err := parseCoordinate(id, "longitude", rec.Longitude)
	if err != nil {
		return StationDetail{}, err
	}
	if lat != nil && lon != nil && !utils.ValidCoordinate(*lat, *lon) {
		return StationDetail{}, &DataError{
			StationID: id,
			Field:     "coordinates",
			Value:     fmt.Sprintf("%v,%v", *lat, *lon),
			Err:       errors.New("out of range"),
		}
	}

	return StationDetail{
		ID:        id,
		Latitude:  lat,
		Longitude: lon,
		Lines:     uniqueLines(rec.Lines),
	}, nil
}

func parseCoordinate(id, field string, raw *RawCoordinate) (*float64, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(*raw)), 64)
	if err != nil {
		return nil, &DataError{StationID: id, Field: field, Value: string(*raw), Err: err}
	}
	return &v, nil
}

func uniqueLines(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
