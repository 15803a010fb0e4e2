// Package iota provides the "iota" kernel, which writes an arithmetic
// sequence.
package iota

import (
	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the iota kernel.
type Input struct {
	Start float64 `arg:"start"`
	Step  float64 `arg:"step"`
}

// Kernel returns the work-item body: out[i] = start + i*step.
func Kernel(in *Input) device.KernelFunc {
	return func(it device.Item, args []access.View) error {
		if i := it.Linear(); i < args[0].Len() {
			args[0].SetFloat64(i, in.Start+float64(i)*in.Step)
		}
		return nil
	}
}

// Register registers the kernel.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Definition{
		Name:        "iota",
		Description: "Writes start, start+step, start+2*step, ... into out.",
		Kind:        registry.KindParallel,
		Inputs: registry.Inputs(
			registry.Number("start", "First value.", 0),
			registry.Number("step", "Increment between elements.", 1),
		),
		Accessors: []string{"out"},
		NewInput:  func() any { return new(Input) },
		Parallel:  func(in any) device.KernelFunc { return Kernel(in.(*Input)) },
	})
}
