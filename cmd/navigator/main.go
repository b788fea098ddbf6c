package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"metronav.onebusaway.org/internal/app"
	"metronav.onebusaway.org/internal/appconf"
	"metronav.onebusaway.org/internal/console"
	"metronav.onebusaway.org/internal/logging"
	"metronav.onebusaway.org/internal/models"
	"metronav.onebusaway.org/internal/stations"
)

// ExitError carries the process exit status for a failed run.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	configFile string
	from       string
	to         string
	disabled   string
	list       bool
	dump       string
	json       bool
	exportDB   string
}

// parseFlags builds the configuration from defaults, an optional config
// file, and finally any flags set explicitly on the command line.
func parseFlags(args []string, output io.Writer) (appconf.Config, options, bool, error) {
	defaults := appconf.Default()
	var opts options

	flagSet := flag.NewFlagSet("navigator", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
navigator - shortest travel-time routes across a metro network.

Usage:
  navigator [options]

Without -from and -to an interactive prompt is started.

Options:
`)
		flagSet.PrintDefaults()
	}

	flagSet.StringVar(&opts.configFile, "config", "", "Path to a JSON or YAML configuration file")
	stationsPath := flagSet.String("stations", defaults.StationsPath, "Station dataset (.json, .json.gz, .json.zst, .zip GTFS feed, .db SQLite)")
	speed := flagSet.Float64("speed", defaults.SpeedKmph, "Average train speed in km/h")
	penalty := flagSet.Float64("penalty", defaults.LineChangePenaltyMinutes, "Minutes added between stations that share no line")
	radius := flagSet.Float64("radius", defaults.NearestRadiusMeters, "Search radius in meters for @lat,lon station lookup")
	metricsFile := flagSet.String("metrics-file", "", "Write Prometheus metrics to this file on exit")
	env := flagSet.String("env", defaults.Env.String(), "Environment: development, test or production")
	logLevel := flagSet.String("log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	logFormat := flagSet.String("log-format", defaults.LogFormat, "Log format: text or json")
	verbose := flagSet.Bool("verbose", false, "Log at debug level")
	flagSet.StringVar(&opts.from, "from", "", "Starting station name or @lat,lon")
	flagSet.StringVar(&opts.to, "to", "", "Destination station name or @lat,lon")
	flagSet.StringVar(&opts.disabled, "disabled", "", "Comma separated list of disabled stations")
	flagSet.BoolVar(&opts.list, "list", false, "Print the station list and exit")
	flagSet.StringVar(&opts.dump, "dump", "", "Dump internal state and exit (stations, graph, skipped, config)")
	flagSet.BoolVar(&opts.json, "json", false, "Print routes as JSON")
	flagSet.StringVar(&opts.exportDB, "export-db", "", "Write the loaded dataset to a SQLite database and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return appconf.Config{}, opts, true, nil
		}
		return appconf.Config{}, opts, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() > 0 {
		return appconf.Config{}, opts, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %v", flagSet.Args())}
	}
	if (opts.from == "") != (opts.to == "") {
		return appconf.Config{}, opts, false, &ExitError{Code: 2, Message: "-from and -to must be given together"}
	}

	cfg := defaults
	if opts.configFile != "" {
		fc, err := appconf.LoadFromFile(opts.configFile)
		if err != nil {
			return appconf.Config{}, opts, false, &ExitError{Code: 2, Message: err.Error()}
		}
		cfg = fc.Apply(cfg)
	}

	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "stations":
			cfg.StationsPath = *stationsPath
		case "speed":
			cfg.SpeedKmph = *speed
		case "penalty":
			cfg.LineChangePenaltyMinutes = *penalty
		case "radius":
			cfg.NearestRadiusMeters = *radius
		case "metrics-file":
			cfg.MetricsFile = *metricsFile
		case "env":
			cfg.Env = appconf.EnvFlagToEnvironment(*env)
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "verbose":
			cfg.Verbose = *verbose
		}
	})
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return appconf.Config{}, opts, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, opts, false, nil
}

func run(ctx context.Context, in io.Reader, out, errOut io.Writer, args []string) error {
	cfg, opts, shouldExit, err := parseFlags(args, errOut)
	if err != nil || shouldExit {
		return err
	}

	logger, err := logging.NewLogger(errOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	logger = logger.With(slog.String("env", cfg.Env.String()))
	ctx = logging.WithLogger(ctx, logger)

	if opts.exportDB != "" {
		return exportDataset(ctx, cfg.StationsPath, opts.exportDB, logger)
	}

	navigator, err := app.BuildApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := navigator.Shutdown(); err != nil {
			logging.LogError(logger, "failed to write metrics", err)
		}
	}()

	session := &console.Session{Nav: navigator, In: in, Out: out, JSON: opts.json}

	switch {
	case opts.dump != "":
		return navigator.DebugDump(out, opts.dump)
	case opts.list:
		return models.WriteStationList(out, navigator.StationEntries())
	case opts.from != "":
		if err := session.Once(opts.from, opts.to, opts.disabled); err != nil {
			return &ExitError{Code: 1, Message: err.Error()}
		}
		return nil
	default:
		err := session.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

func exportDataset(ctx context.Context, src, dst string, logger *slog.Logger) error {
	data, err := stations.Load(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to load stations: %w", err)
	}
	if err := stations.SaveSQLite(ctx, dst, data); err != nil {
		return err
	}
	logging.LogOperation(logger, "stations_exported",
		slog.String("source", src),
		slog.String("database", dst),
		slog.Int("stations", len(data)))
	return nil
}
