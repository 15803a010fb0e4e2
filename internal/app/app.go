package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/memgrid/internal/config"
	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/specialistvlad/memgrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	model      *config.Model
	converter  config.Converter
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the workload
// and kernel manifests and validates them against the registered modules.
// Startup errors are programmer or configuration errors and panic.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	var paths []string
	if cfg.WorkloadPath != "" {
		paths = append(paths, cfg.WorkloadPath)
	}
	if cfg.ModulesPath != "" {
		paths = append(paths, cfg.ModulesPath)
	}
	model, converter, err := loader.Load(ctx, paths...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.PopulateDefinitionsFromModel(model); err != nil {
		panic(fmt.Errorf("failed to apply kernel manifests: %w", err))
	}
	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		registry:  reg,
		model:     model,
		converter: converter,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
