package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/endolimit/internal/domain/limit"
	"github.com/okian/endolimit/pkg/logger"
)

// Environment variable names.
const (
	envPrefix     = "ENDOLIMIT_"
	envConfigFile = "ENDOLIMIT_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ENDOLIMIT_CONFIG is set
//  3. env (prefix ENDOLIMIT_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Map env keys like ENDOLIMIT_MAX_BODY_BYTES -> max_body_bytes (flat keys).
	// ENDOLIMIT_CONFIG only points at the file and is not a config key.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		if s == envConfigFile {
			return ""
		}
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.MaxBodyBytes <= 0:
		return invalid("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	case c.MaxReadings < 1 || c.MaxReadings > limit.MaxReadings:
		return invalid("max_readings must be between 1 and %d, got %d", limit.MaxReadings, c.MaxReadings)
	case !logger.ValidFormat(c.LogFormat):
		return invalid("unknown log_format %q", c.LogFormat)
	}
	for name, w := range c.CustomSubjects {
		if strings.TrimSpace(name) == "" || w <= 0 {
			return invalid("custom subject %q needs a positive weight, got %g", name, w)
		}
	}
	return nil
}
