// Package appconf holds the navigator configuration and loads it from JSON
// or YAML files.
package appconf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps a flag or file value to an Environment.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// Config is the runtime configuration of the navigator.
type Config struct {
	Env                      Environment
	StationsPath             string  `validate:"required"`
	SpeedKmph                float64 `validate:"gt=0"`
	LineChangePenaltyMinutes float64 `validate:"gte=0"`
	NearestRadiusMeters      float64 `validate:"gt=0"`
	MetricsFile              string
	LogLevel                 string `validate:"oneof=debug info warn error"`
	LogFormat                string `validate:"oneof=text json"`
	Verbose                  bool
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Env:                      Development,
		StationsPath:             "stations.json",
		SpeedKmph:                40,
		LineChangePenaltyMinutes: 4,
		NearestRadiusMeters:      1500,
		LogLevel:                 "info",
		LogFormat:                "text",
	}
}

// Validate checks the struct tags of c.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// FileConfig is the on-disk shape of a configuration file. Unset fields keep
// their defaults.
type FileConfig struct {
	Env                      string   `json:"env" yaml:"env" validate:"omitempty,oneof=development test production prod"`
	StationsPath             string   `json:"stations-path" yaml:"stations-path"`
	SpeedKmph                *float64 `json:"speed-kmph" yaml:"speed-kmph" validate:"omitempty,gt=0"`
	LineChangePenaltyMinutes *float64 `json:"line-change-penalty-minutes" yaml:"line-change-penalty-minutes" validate:"omitempty,gte=0"`
	NearestRadiusMeters      *float64 `json:"nearest-radius-meters" yaml:"nearest-radius-meters" validate:"omitempty,gt=0"`
	MetricsFile              string   `json:"metrics-file" yaml:"metrics-file"`
	LogLevel                 string   `json:"log-level" yaml:"log-level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat                string   `json:"log-format" yaml:"log-format" validate:"omitempty,oneof=text json"`
	Verbose                  bool     `json:"verbose" yaml:"verbose"`
}

// LoadFromFile reads a .json, .yaml or .yml configuration file.
func LoadFromFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}

	if err := validator.New().Struct(fc); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &fc, nil
}

// Apply overlays the values set in fc onto base.
func (fc *FileConfig) Apply(base Config) Config {
	cfg := base
	if fc.Env != "" {
		cfg.Env = EnvFlagToEnvironment(fc.Env)
	}
	if fc.StationsPath != "" {
		cfg.StationsPath = fc.StationsPath
	}
	if fc.SpeedKmph != nil {
		cfg.SpeedKmph = *fc.SpeedKmph
	}
	if fc.LineChangePenaltyMinutes != nil {
		cfg.LineChangePenaltyMinutes = *fc.LineChangePenaltyMinutes
	}
	if fc.NearestRadiusMeters != nil {
		cfg.NearestRadiusMeters = *fc.NearestRadiusMeters
	}
	if fc.MetricsFile != "" {
		cfg.MetricsFile = fc.MetricsFile
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
	return cfg
}
