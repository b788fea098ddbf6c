// Package stations loads station datasets from disk. It understands JSON
// station files (optionally gzip or zstd compressed), GTFS static feeds and
// SQLite station databases.
package stations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"metronav.onebusaway.org/internal/logging"
	"metronav.onebusaway.org/internal/metro"
)

// Dataset maps station identifiers to their records.
type Dataset = map[string]metro.StationRecord

// Format identifies how a station source is encoded.
type Format int

const (
	FormatJSON Format = iota
	FormatJSONGzip
	FormatJSONZstd
	FormatGTFS
	FormatSQLite
)

func (f Format) String() string {
	switch f {
	case FormatJSONGzip:
		return "json+gzip"
	case FormatJSONZstd:
		return "json+zstd"
	case FormatGTFS:
		return "gtfs"
	case FormatSQLite:
		return "sqlite"
	default:
		return "json"
	}
}

// DetectFormat picks a Format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return FormatJSONGzip
	case ".zst", ".zstd":
		return FormatJSONZstd
	case ".zip":
		return FormatGTFS
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatJSON
	}
}

// Load reads the station dataset at path using the format implied by its
// extension.
func Load(ctx context.Context, path string) (Dataset, error) {
	logger := logging.FromContext(ctx).With(slog.String("component", "stations_loader"))
	format := DetectFormat(path)

	var (
		data Dataset
		err  error
	)
	switch format {
	case FormatSQLite:
		data, err = LoadSQLite(ctx, path)
	case FormatGTFS:
		var raw []byte
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading GTFS file: %w", err)
		}
		data, err = FromGTFS(raw)
	default:
		data, err = loadJSONFile(path, format, logger)
	}
	if err != nil {
		return nil, err
	}

	logging.LogOperation(logger, "stations_loaded",
		slog.String("path", path),
		slog.String("format", format.String()),
		slog.Int("stations", len(data)))
	return data, nil
}

func loadJSONFile(path string, format Format, logger *slog.Logger) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening station file: %w", err)
	}
	defer logging.SafeCloseWithLogging(f, logger, "station_file")

	var r io.Reader = f
	switch format {
	case FormatJSONGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("error opening gzip stream: %w", err)
		}
		defer logging.SafeCloseWithLogging(gz, logger, "gzip_reader")
		r = gz
	case FormatJSONZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("error opening zstd stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	return DecodeJSON(r)
}

// DecodeJSON reads a JSON object keyed by station identifier.
func DecodeJSON(r io.Reader) (Dataset, error) {
	var data Dataset
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("station data is not a valid JSON station object: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("station data is empty")
	}
	return data, nil
}
