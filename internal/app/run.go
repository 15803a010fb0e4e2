package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/specialistvlad/memgrid/internal/workload"
)

// Run executes the loaded workload and prints its report. It returns an
// error when the workload could not run or a command did not complete.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		if err := a.startHealthcheckServer(a.config.HealthcheckPort); err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, a.closeHealthcheckServer(context.WithoutCancel(ctx)))
		}()
	}

	w := a.model.Workload
	if w == nil || len(w.Commands) == 0 {
		a.logger.Warn("No commands found in workload, execution not required.")
		return nil
	}
	a.logger.Info("Kernels registered:", "count", len(a.registry.Names()), "names", a.registry.Names())

	runner := workload.New(a.registry, a.converter, workload.WithWorkers(a.config.WorkerCount))
	res, err := runner.Run(ctx, w)
	if err != nil {
		return fmt.Errorf("workload failed: %w", err)
	}
	if _, err := res.WriteTo(a.outW); err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("workload finished with failures: %w", err)
	}
	return nil
}
