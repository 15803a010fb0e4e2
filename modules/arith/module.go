// Package arith provides element-wise arithmetic kernels: add, scale and
// axpy.
package arith

import (
	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// ScaleInput defines the arguments for the scale kernel.
type ScaleInput struct {
	Factor float64 `arg:"factor"`
}

// AxpyInput defines the arguments for the axpy kernel.
type AxpyInput struct {
	Alpha float64 `arg:"alpha"`
}

// Add computes out[i] = a[i] + b[i].
func Add(it device.Item, args []access.View) error {
	i := it.Linear()
	if i >= args[2].Len() {
		return nil
	}
	args[2].SetFloat64(i, args[0].Float64(i)+args[1].Float64(i))
	return nil
}

// Scale returns a body computing data[i] *= factor.
func Scale(in *ScaleInput) device.KernelFunc {
	return func(it device.Item, args []access.View) error {
		if i := it.Linear(); i < args[0].Len() {
			args[0].SetFloat64(i, args[0].Float64(i)*in.Factor)
		}
		return nil
	}
}

// Axpy returns a body computing y[i] = alpha*x[i] + y[i].
func Axpy(in *AxpyInput) device.KernelFunc {
	return func(it device.Item, args []access.View) error {
		if i := it.Linear(); i < args[1].Len() {
			args[1].SetFloat64(i, in.Alpha*args[0].Float64(i)+args[1].Float64(i))
		}
		return nil
	}
}

// Register registers the kernels.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Definition{
		Name:        "add",
		Description: "Element-wise sum of a and b into out.",
		Kind:        registry.KindParallel,
		Accessors:   []string{"a", "b", "out"},
		Parallel:    func(any) device.KernelFunc { return Add },
	})
	r.Register(&registry.Definition{
		Name:        "scale",
		Description: "Multiplies data in place.",
		Kind:        registry.KindParallel,
		Inputs:      registry.Inputs(registry.Number("factor", "Multiplier.", 1)),
		Accessors:   []string{"data"},
		NewInput:    func() any { return new(ScaleInput) },
		Parallel:    func(in any) device.KernelFunc { return Scale(in.(*ScaleInput)) },
	})
	r.Register(&registry.Definition{
		Name:        "axpy",
		Description: "y = alpha*x + y.",
		Kind:        registry.KindParallel,
		Inputs:      registry.Inputs(registry.Number("alpha", "Coefficient applied to x.", 1)),
		Accessors:   []string{"x", "y"},
		NewInput:    func() any { return new(AxpyInput) },
		Parallel:    func(in any) device.KernelFunc { return Axpy(in.(*AxpyInput)) },
	})
}
