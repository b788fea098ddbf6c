package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"metronav.onebusaway.org/internal/appconf"
	"metronav.onebusaway.org/internal/stations"
)

const testStations = `{
  "Tajrish": {"latitude": 35.8043, "longitude": 51.4337, "lines": ["1"], "relations": ["Gheytariyeh"]},
  "Gheytariyeh": {"latitude": 35.7913, "longitude": 51.4425, "lines": ["1"], "relations": ["Shahid Sadr"]},
  "Shahid Sadr": {"latitude": "35.7776", "longitude": "51.4461", "lines": ["1"]},
  "Ghost": {"latitude": null, "longitude": null, "lines": ["9"]}
}`

func writeStations(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stations.json")
	require.NoError(t, os.WriteFile(path, []byte(testStations), 0o600))
	return path
}

func runCLI(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), strings.NewReader(input), &out, &errOut, args)
	return out.String(), errOut.String(), err
}

func TestParseFlags_Defaults(t *testing.T) {
	cfg, opts, shouldExit, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, shouldExit)
	assert.Equal(t, appconf.Default(), cfg)
	assert.Empty(t, opts.from)
}

func TestParseFlags_Precedence(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "navigator.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("speed-kmph: 60\nline-change-penalty-minutes: 2\nenv: production\n"), 0o600))

	cfg, _, _, err := parseFlags([]string{"-config", configPath, "-penalty", "5", "-verbose"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 60.0, cfg.SpeedKmph, "file value kept")
	assert.Equal(t, 5.0, cfg.LineChangePenaltyMinutes, "flag overrides file")
	assert.Equal(t, appconf.Production, cfg.Env)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"-nope"}},
		{name: "zero speed", args: []string{"-speed", "0"}},
		{name: "negative penalty", args: []string{"-penalty", "-1"}},
		{name: "bad log level", args: []string{"-log-level", "loud"}},
		{name: "from without to", args: []string{"-from", "Tajrish"}},
		{name: "positional argument", args: []string{"extra"}},
		{name: "missing config file", args: []string{"-config", "/does/not/exist.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := parseFlags(tt.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	var out bytes.Buffer
	_, _, shouldExit, err := parseFlags([]string{"-h"}, &out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_OneShot(t *testing.T) {
	path := writeStations(t)

	out, _, err := runCLI(t, "", "-stations", path, "-from", "Tajrish", "-to", "Shahid Sadr")
	require.NoError(t, err)
	assert.Contains(t, out, "Selected Route: Tajrish → Gheytariyeh → Shahid Sadr")
	assert.Contains(t, out, "Total Time:")
}

func TestRun_OneShotNoPath(t *testing.T) {
	path := writeStations(t)

	out, _, err := runCLI(t, "", "-stations", path, "-from", "Tajrish", "-to", "Shahid Sadr", "-disabled", "Gheytariyeh")
	require.NoError(t, err)
	assert.Contains(t, out, "No path found.")
}

func TestRun_OneShotInvalidStation(t *testing.T) {
	path := writeStations(t)

	_, _, err := runCLI(t, "", "-stations", path, "-from", "Atlantis", "-to", "Tajrish")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, exitErr.Message, "invalid starting station")
}

func TestRun_Interactive(t *testing.T) {
	path := writeStations(t)

	out, _, err := runCLI(t, "Tajrish\nGheytariyeh\n\nno\n", "-stations", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Available Stations:")
	assert.Contains(t, out, "Selected Route: Tajrish → Gheytariyeh")
}

func TestRun_List(t *testing.T) {
	path := writeStations(t)

	out, _, err := runCLI(t, "", "-stations", path, "-list")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Gheytariyeh\n2. Ghost\n3. Shahid Sadr\n4. Tajrish\n")
}

func TestRun_Dump(t *testing.T) {
	path := writeStations(t)

	out, _, err := runCLI(t, "", "-stations", path, "-dump", "graph")
	require.NoError(t, err)
	assert.Contains(t, out, "Gheytariyeh")

	_, _, err = runCLI(t, "", "-stations", path, "-dump", "graph", "-env", "production")
	assert.Error(t, err)
}

func TestRun_MetricsFile(t *testing.T) {
	path := writeStations(t)
	metricsPath := filepath.Join(t.TempDir(), "navigator.prom")

	_, _, err := runCLI(t, "", "-stations", path, "-from", "Tajrish", "-to", "Gheytariyeh", "-metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "route_queries_total")
}

func TestRun_ExportDB(t *testing.T) {
	path := writeStations(t)
	dbPath := filepath.Join(t.TempDir(), "stations.db")

	_, logs, err := runCLI(t, "", "-stations", path, "-export-db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, logs, "stations_exported")

	data, err := stations.LoadSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	assert.Len(t, data, 4)

	out, _, err := runCLI(t, "", "-stations", dbPath, "-from", "Tajrish", "-to", "Shahid Sadr")
	require.NoError(t, err)
	assert.Contains(t, out, "Selected Route: Tajrish → Gheytariyeh → Shahid Sadr")
}

func TestRun_MissingDataset(t *testing.T) {
	_, _, err := runCLI(t, "", "-stations", filepath.Join(t.TempDir(), "missing.json"), "-list")
	assert.ErrorContains(t, err, "failed to load stations")
}

func TestRun_InterruptWhilePrompting(t *testing.T) {
	path := writeStations(t)
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, pr, io.Discard, io.Discard, []string{"-stations", path})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("interactive run kept waiting for input after interrupt")
	}
}
