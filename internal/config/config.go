// Package config loads counting parameters from the environment.
package config

import (
	"math"
	"os"
	"strings"

	"github.com/LdDl/footfall-go/session"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config holds counting parameters and host settings
type Config struct {
	MaxCentroidDistance  float64 `env:"FOOTFALL_MAX_CENTROID_DISTANCE" envDefault:"50"`
	MaxDisappearedFrames int     `env:"FOOTFALL_MAX_DISAPPEARED_FRAMES" envDefault:"40"`
	LinePosition         float64 `env:"FOOTFALL_LINE_POSITION" envDefault:"0.5"`
	CrossingThreshold    float64 `env:"FOOTFALL_CROSSING_THRESHOLD" envDefault:"5"`
	HistoryCapacity      int     `env:"FOOTFALL_HISTORY_CAPACITY" envDefault:"10"`
	MinConfidence        float64 `env:"FOOTFALL_MIN_CONFIDENCE" envDefault:"0"`
	ProgressInterval     int     `env:"FOOTFALL_PROGRESS_INTERVAL" envDefault:"30"`
	LogLevel             string  `env:"FOOTFALL_LOG_LEVEL" envDefault:"info"`
	OutputsDir           string  `env:"FOOTFALL_OUTPUTS_DIR" envDefault:"outputs"`
	DatabasePath         string  `env:"FOOTFALL_DB_PATH"`
}

// Load reads optional dotenv files, then parses and validates environment variables.
// Missing dotenv files are skipped; variables already present in the environment win.
func Load(dotenvFiles ...string) (Config, error) {
	for _, path := range dotenvFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return Config{}, errors.Wrapf(err, "Can't load dotenv file %s", path)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks parameter ranges
func (cfg Config) Validate() error {
	if math.IsNaN(cfg.MaxCentroidDistance) || cfg.MaxCentroidDistance < 0 {
		return errors.Errorf("max centroid distance must be non-negative, got %v", cfg.MaxCentroidDistance)
	}
	if cfg.MaxDisappearedFrames < 0 {
		return errors.Errorf("max disappeared frames must be non-negative, got %d", cfg.MaxDisappearedFrames)
	}
	if math.IsNaN(cfg.LinePosition) || cfg.LinePosition < 0 || cfg.LinePosition > 1 {
		return errors.Errorf("line position must be in [0, 1], got %v", cfg.LinePosition)
	}
	if math.IsNaN(cfg.CrossingThreshold) || cfg.CrossingThreshold < 0 {
		return errors.Errorf("crossing threshold must be non-negative, got %v", cfg.CrossingThreshold)
	}
	if cfg.HistoryCapacity < 2 {
		return errors.Errorf("history capacity must be at least 2, got %d", cfg.HistoryCapacity)
	}
	if math.IsNaN(cfg.MinConfidence) || cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return errors.Errorf("min confidence must be in [0, 1], got %v", cfg.MinConfidence)
	}
	if cfg.ProgressInterval < 0 {
		return errors.Errorf("progress interval must be non-negative, got %d", cfg.ProgressInterval)
	}
	if _, err := cfg.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns parsed log level
func (cfg Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel)))
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(err, "unknown log level %q", cfg.LogLevel)
	}
	return level, nil
}

// Session returns session configuration for frames of the given height
func (cfg Config) Session(frameHeight int) session.Config {
	return session.Config{
		MaxDistance:       cfg.MaxCentroidDistance,
		MaxDisappeared:    cfg.MaxDisappearedFrames,
		HistoryCapacity:   cfg.HistoryCapacity,
		LinePosition:      cfg.LinePosition,
		CrossingThreshold: cfg.CrossingThreshold,
		MinConfidence:     cfg.MinConfidence,
		FrameHeight:       frameHeight,
	}
}
