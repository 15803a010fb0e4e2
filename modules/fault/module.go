// Package fault provides the "fault" kernel, which always fails. Workloads
// use it to exercise failure propagation.
package fault

import (
	"errors"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the fault kernel.
type Input struct {
	Message string `arg:"message"`
	Panic   bool   `arg:"panic"`
}

// Kernel returns a body that fails on the first work-item.
func Kernel(in *Input) device.KernelFunc {
	return func(it device.Item, args []access.View) error {
		if it.Linear() != 0 {
			return nil
		}
		if in.Panic {
			panic(in.Message)
		}
		return errors.New(in.Message)
	}
}

// Register registers the kernel.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Definition{
		Name:        "fault",
		Description: "Fails with message, or panics with it when panic is set.",
		Kind:        registry.KindParallel,
		Inputs: registry.Inputs(
			registry.String("message", "Failure message.", "fault injected"),
			registry.Bool("panic", "Panic instead of returning an error.", false),
		),
		NewInput: func() any { return new(Input) },
		Parallel: func(in any) device.KernelFunc { return Kernel(in.(*Input)) },
	})
}
