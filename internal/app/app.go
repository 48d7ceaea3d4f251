package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/h2i"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/vk/h2integrate/internal/tracing"
)

const serviceName = "h2integrate"

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config
	model    *h2i.Model
	shutdown func(context.Context) error
}

// NewApp is the constructor for the main application. It loads the model
// configuration through loader and builds the plant model from it, with
// its own isolated logger and registry. Modules default to every built-in
// module. Startup errors panic.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW).With("run_id", uuid.NewString())
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	shutdown, err := tracing.Setup(ctx, serviceName, appConfig.OTelEndpoint)
	if err != nil {
		panic(fmt.Errorf("failed to set up tracing: %w", err))
	}

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "models", len(reg.Names()))

	model, err := h2i.Load(ctx, loader, appConfig.ConfigPath, reg, h2i.Options{
		CacheDir:  appConfig.CacheDir,
		OutputDir: appConfig.OutputDir,
	})
	if err != nil {
		_ = shutdown(ctx)
		panic(err)
	}
	logger.Debug("Plant model ready.", "config", appConfig.ConfigPath)

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   appConfig,
		model:    model,
		shutdown: shutdown,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the plant model.
func (a *App) Model() *h2i.Model {
	return a.model
}
