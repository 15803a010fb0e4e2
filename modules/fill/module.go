// Package fill provides the "fill" kernel: every element of the output
// accessor is set to one value.
package fill

import (
	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the fill kernel.
type Input struct {
	Value float64 `arg:"value"`
}

// Kernel returns the work-item body.
func Kernel(in *Input) device.KernelFunc {
	return func(it device.Item, args []access.View) error {
		if i := it.Linear(); i < args[0].Len() {
			args[0].SetFloat64(i, in.Value)
		}
		return nil
	}
}

// Register registers the kernel.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Definition{
		Name:        "fill",
		Description: "Sets every element of out to value.",
		Kind:        registry.KindParallel,
		Inputs:      registry.Inputs(registry.Number("value", "Value written to every element.", 0)),
		Accessors:   []string{"out"},
		NewInput:    func() any { return new(Input) },
		Parallel:    func(in any) device.KernelFunc { return Kernel(in.(*Input)) },
	})
}
