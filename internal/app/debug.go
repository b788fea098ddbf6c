package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"metronav.onebusaway.org/internal/appconf"
)

// ErrDebugDisabled is returned by DebugDump in production.
var ErrDebugDisabled = errors.New("debug dumps are disabled in production")

// DebugDataTypes lists the values accepted by DebugDump.
var DebugDataTypes = []string{"stations", "graph", "skipped", "config"}

// DebugDump writes a spew dump of internal state.
func (app *Application) DebugDump(w io.Writer, dataType string) error {
	if app.Config.Env == appconf.Production {
		return ErrDebugDisabled
	}

	var data interface{}
	switch dataType {
	case "stations":
		data = app.StationEntries()
	case "graph":
		data = app.Graph.AdjacencyMap()
	case "skipped":
		data = app.Skipped
	case "config":
		data = app.Config
	default:
		return fmt.Errorf("unknown debug data type %q, use one of %v", dataType, DebugDataTypes)
	}

	cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}
	_, err := fmt.Fprint(w, cfg.Sdump(data))
	return err
}
