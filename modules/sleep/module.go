// Package sleep provides the "sleep" host task, which holds its accessors
// for a while.
package sleep

import (
	"context"
	"time"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the sleep host task.
type Input struct {
	Millis int `arg:"millis"`
}

// Sleep returns a host task that waits, or returns early when ctx ends.
func Sleep(in *Input) command.HostTaskFunc {
	return func(ctx context.Context, _ []access.View) error {
		t := time.NewTimer(time.Duration(in.Millis) * time.Millisecond)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Register registers the host task.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Definition{
		Name:        "sleep",
		Description: "Waits for millis milliseconds while holding its accessors.",
		Kind:        registry.KindHost,
		Inputs:      registry.Inputs(registry.Number("millis", "Delay in milliseconds.", 10)),
		NewInput:    func() any { return new(Input) },
		Host:        func(in any) command.HostTaskFunc { return Sleep(in.(*Input)) },
	})
}
