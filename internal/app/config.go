package app

import (
	"errors"
	"fmt"
	"slices"

	"github.com/caarlos0/env/v11"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config holds all the necessary configuration for an App instance to run.
// Everything except ConfigPath can be set from the environment.
type Config struct {
	// ConfigPath is the top-level model configuration: a .yaml file, a
	// .hcl file or a directory of .hcl files.
	ConfigPath string

	LogFormat string `env:"H2I_LOG_FORMAT" envDefault:"text"`
	LogLevel  string `env:"H2I_LOG_LEVEL" envDefault:"info"`
	// CacheDir is where models that memoize simulations keep results.
	CacheDir string `env:"H2I_CACHE_DIR"`
	// OutputDir overrides the output folder of the driver configuration.
	OutputDir string `env:"H2I_OUTPUT_DIR"`
	// OTelEndpoint is an OTLP/HTTP endpoint; tracing is off without it.
	OTelEndpoint string `env:"H2I_OTEL_ENDPOINT"`

	SkipPostProcess bool `env:"H2I_SKIP_POST_PROCESS"`
}

// ConfigFromEnv returns the settings found in environ, a list of
// KEY=value pairs as returned by os.Environ.
func ConfigFromEnv(environ []string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log format '%s': must be 'text' or 'json'", cfg.LogFormat)
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log level '%s': must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	return &cfg, nil
}
