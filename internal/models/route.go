package models

import (
	"fmt"
	"io"
	"strings"
)

// RouteResponse is the JSON shape of a route query result. Minutes and
// Stations are null when no path was found.
type RouteResponse struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Disabled []string `json:"disabled"`
	Found    bool     `json:"found"`
	Minutes  *float64 `json:"minutes"`
	Stations []string `json:"stations"`
	Polyline string   `json:"polyline,omitempty"`
}

// NewRouteResponse builds a response. Pass found=false for "no path".
func NewRouteResponse(from, to string, disabled []string, found bool, minutes float64, stations []string, polyline string) RouteResponse {
	if disabled == nil {
		disabled = []string{}
	}
	resp := RouteResponse{
		From:     from,
		To:       to,
		Disabled: disabled,
		Found:    found,
	}
	if found {
		resp.Minutes = &minutes
		resp.Stations = stations
		resp.Polyline = polyline
	}
	return resp
}

// RouteSeparator joins station names in the text output.
const RouteSeparator = " → "

// WriteText renders the response the way the interactive navigator prints it.
func (r RouteResponse) WriteText(w io.Writer) error {
	if !r.Found {
		_, err := fmt.Fprintln(w, "\nNo path found.")
		return err
	}
	_, err := fmt.Fprintf(w, "\n--- Suggested Route ---\nSelected Route: %s\nTotal Time: %.2f minutes\n",
		strings.Join(r.Stations, RouteSeparator), *r.Minutes)
	return err
}

// StationEntry is one row of the station listing.
type StationEntry struct {
	Index     int      `json:"index"`
	ID        string   `json:"id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Lines     []string `json:"lines"`
}

// WriteStationList prints a numbered station list.
func WriteStationList(w io.Writer, entries []StationEntry) error {
	if _, err := fmt.Fprintln(w, "\nAvailable Stations:"); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%d. %s\n", e.Index, e.ID); err != nil {
			return err
		}
	}
	return nil
}
