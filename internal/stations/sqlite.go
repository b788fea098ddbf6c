package stations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver
	"metronav.onebusaway.org/internal/logging"
	"metronav.onebusaway.org/internal/metro"
)

const schema = `
CREATE TABLE IF NOT EXISTS stations (
	id TEXT PRIMARY KEY,
	latitude TEXT,
	longitude TEXT
);
CREATE TABLE IF NOT EXISTS station_lines (
	station_id TEXT NOT NULL REFERENCES stations(id),
	line_id TEXT NOT NULL,
	PRIMARY KEY (station_id, line_id)
);
CREATE TABLE IF NOT EXISTS station_relations (
	station_id TEXT NOT NULL REFERENCES stations(id),
	related_id TEXT NOT NULL,
	PRIMARY KEY (station_id, related_id)
);
`

// Coordinates are stored as TEXT so that malformed source values survive the
// round trip and are rejected by the graph builder, not silently coerced.

// LoadSQLite reads a station dataset from a SQLite database.
func LoadSQLite(ctx context.Context, path string) (Dataset, error) {
	logger := logging.FromContext(ctx).With(slog.String("component", "stations_sqlite"))

	dsn, err := sqliteDSN(path, "ro")
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open station database: %w", err)
	}
	defer logging.SafeCloseWithLogging(db, logger, "station_db")

	out, err := loadStationRows(ctx, db)
	if err != nil {
		return nil, err
	}

	err = eachPair(ctx, db, `SELECT station_id, line_id FROM station_lines ORDER BY station_id, line_id`,
		func(id, line string) {
			if rec, ok := out[id]; ok {
				rec.Lines = append(rec.Lines, line)
				out[id] = rec
			}
		})
	if err != nil {
		return nil, fmt.Errorf("reading station lines: %w", err)
	}

	err = eachPair(ctx, db, `SELECT station_id, related_id FROM station_relations ORDER BY station_id, related_id`,
		func(id, related string) {
			if rec, ok := out[id]; ok {
				rec.Relations = append(rec.Relations, related)
				out[id] = rec
			}
		})
	if err != nil {
		return nil, fmt.Errorf("reading station relations: %w", err)
	}

	return out, nil
}

func loadStationRows(ctx context.Context, db *sql.DB) (Dataset, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, latitude, longitude FROM stations`)
	if err != nil {
		return nil, fmt.Errorf("querying stations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(Dataset)
	for rows.Next() {
		var id string
		var lat, lon sql.NullString
		if err := rows.Scan(&id, &lat, &lon); err != nil {
			return nil, fmt.Errorf("scanning station row: %w", err)
		}
		rec := metro.StationRecord{}
		if lat.Valid {
			c := metro.RawCoordinate(lat.String)
			rec.Latitude = &c
		}
		if lon.Valid {
			c := metro.RawCoordinate(lon.String)
			rec.Longitude = &c
		}
		out[id] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading stations: %w", err)
	}
	return out, nil
}

func eachPair(ctx context.Context, db *sql.DB, query string, fn func(a, b string)) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return err
		}
		fn(a, b)
	}
	return rows.Err()
}

// SaveSQLite writes data into the SQLite database at path, creating the
// schema when needed. Existing rows for the same stations are replaced.
func SaveSQLite(ctx context.Context, path string, data Dataset) error {
	logger := logging.FromContext(ctx).With(slog.String("component", "stations_sqlite"))

	dsn, err := sqliteDSN(path, "rwc")
	if err != nil {
		return err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("unable to open station database: %w", err)
	}
	defer logging.SafeCloseWithLogging(db, logger, "station_db")

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating station schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, logger, "save_stations")

	ids := make([]string, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rec := data[id]
		if _, err := tx.ExecContext(ctx, `DELETE FROM station_lines WHERE station_id = ?`, id); err != nil {
			return fmt.Errorf("clearing lines of %q: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM station_relations WHERE station_id = ?`, id); err != nil {
			return fmt.Errorf("clearing relations of %q: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO stations (id, latitude, longitude) VALUES (?, ?, ?)`,
			id, rawOrNull(rec.Latitude), rawOrNull(rec.Longitude)); err != nil {
			return fmt.Errorf("inserting station %q: %w", id, err)
		}
		for _, line := range rec.Lines {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO station_lines (station_id, line_id) VALUES (?, ?)`, id, line); err != nil {
				return fmt.Errorf("inserting line %q of %q: %w", line, id, err)
			}
		}
		for _, rel := range rec.Relations {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO station_relations (station_id, related_id) VALUES (?, ?)`, id, rel); err != nil {
				return fmt.Errorf("inserting relation %q of %q: %w", rel, id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing stations: %w", err)
	}

	logging.LogOperation(logger, "stations_saved",
		slog.String("path", path),
		slog.Int("stations", len(data)))
	return nil
}

// sqliteDSN builds a file: URI for path. The path is escaped so that '?', '#'
// and '%' in file names are not read as URI syntax.
func sqliteDSN(path, mode string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving station database path: %w", err)
	}
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: url.Values{"mode": {mode}}.Encode(),
	}
	return u.String(), nil
}

func rawOrNull(c *metro.RawCoordinate) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*c), Valid: true}
}
