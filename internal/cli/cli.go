package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/vk/h2integrate/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments on top of the settings found in
// environ. It returns a populated app.Config, a boolean indicating if the
// program should exit cleanly, or an ExitError.
func Parse(args, environ []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	defaults, err := app.ConfigFromEnv(environ)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := pflag.NewFlagSet("h2integrate", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.SortFlags = false

	flagSet.Usage = func() {
		fmt.Fprint(output, `
H2Integrate - techno-economic modeling of hybrid energy plants.

Usage:
  h2integrate [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Top-level .yaml file, a .hcl file, or a directory of .hcl files.

Options:
`)
		flagSet.PrintDefaults()
		fmt.Fprint(output, `
Environment:
  H2I_LOG_LEVEL, H2I_LOG_FORMAT, H2I_CACHE_DIR, H2I_OUTPUT_DIR,
  H2I_OTEL_ENDPOINT, H2I_SKIP_POST_PROCESS set the defaults of the
  matching options.
`)
	}

	configFlag := flagSet.StringP("config", "c", "", "Path to the model configuration.")
	outputFlag := flagSet.StringP("output-dir", "o", defaults.OutputDir, "Directory for recorded cases and timeseries. Overrides the driver's folder_output.")
	cacheFlag := flagSet.String("cache-dir", defaults.CacheDir, "Directory for cached sub-simulations.")
	logFormatFlag := flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	otelFlag := flagSet.String("otel-endpoint", defaults.OTelEndpoint, "OTLP/HTTP endpoint for traces. Empty disables tracing.")
	skipFlag := flagSet.Bool("skip-post-process", defaults.SkipPostProcess, "Do not list variables or write the timeseries after the run.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *configFlag
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("expected one configuration path, got %d", flagSet.NArg())}
	}
	slog.Debug("Configuration path determined.", "path", path)

	if path == "" {
		slog.Debug("No configuration path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		ConfigPath:      path,
		LogFormat:       strings.ToLower(*logFormatFlag),
		LogLevel:        strings.ToLower(*logLevelFlag),
		CacheDir:        *cacheFlag,
		OutputDir:       *outputFlag,
		OTelEndpoint:    *otelFlag,
		SkipPostProcess: *skipFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
