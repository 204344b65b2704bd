// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and ENDOLIMIT_* env vars.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"github.com/okian/endolimit/internal/domain/limit"
	"github.com/okian/endolimit/pkg/logger"
)

// Default configuration constants.
const (
	defaultAddr         = ":9080"
	defaultMaxBodyBytes = 64 << 10
	defaultReportAuthor = "Endotoxin Limit Calculator"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text, json or pretty console output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// MaxReadings caps readings per request (1..10).
	MaxReadings int `koanf:"max_readings"`

	// CustomSubjects adds named subjects (name -> body weight in kg).
	CustomSubjects map[string]float64 `koanf:"custom_subjects"`

	// ReportAuthor is written into generated report metadata.
	ReportAuthor string `koanf:"report_author"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      logger.FormatText,
		Addr:           defaultAddr,
		MaxBodyBytes:   defaultMaxBodyBytes,
		MaxReadings:    limit.MaxReadings,
		CustomSubjects: map[string]float64{},
		ReportAuthor:   defaultReportAuthor,
	}
}
