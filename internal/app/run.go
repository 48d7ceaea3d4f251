package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/h2integrate/internal/ctxlog"
)

// Run executes the plant model's driver and, unless disabled, writes the
// results. Recorders and the tracer provider are closed before it returns.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	defer func() {
		err = errors.Join(err, a.model.Close(), a.shutdown(ctx))
	}()

	a.logger.Info("🚀 Running plant model...", "name", a.model.Config.Name)
	if err := a.model.Run(ctx); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	prices, err := a.model.Prices()
	if err != nil {
		return err
	}
	for name, v := range prices {
		a.logger.Info("Levelized cost.", "output", name, "value", v)
	}

	if a.config.SkipPostProcess {
		a.logger.Debug("Post-processing skipped.")
	} else {
		path, err := a.model.PostProcess(ctx, a.outW)
		if err != nil {
			return fmt.Errorf("post-processing failed: %w", err)
		}
		a.logger.Info("Outputs written.", "timeseries", path)
	}

	a.logger.Info("🏁 Run finished.")
	return nil
}
