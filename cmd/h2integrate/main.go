package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/vk/h2integrate/internal/app"
	"github.com/vk/h2integrate/internal/cli"
	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/hcl_adapter"
	"github.com/vk/h2integrate/internal/yaml_adapter"
)

// main is the entrypoint for the h2integrate application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Args[1:], os.Environ()); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLoader picks the configuration loader by extension. A directory is
// read as a set of .hcl files.
func newLoader() config.Loader {
	hcl := hcl_adapter.NewLoader()
	yml := yaml_adapter.NewLoader()
	return config.ExtensionLoader{
		".yaml": yml,
		".yml":  yml,
		".hcl":  hcl,
		"":      hcl,
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args, environ []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, environ, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical config errors, so we recover here to provide
	// a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	h2iApp := app.NewApp(outW, appConfig, newLoader())
	return h2iApp.Run(ctx)
}
