// Package device defines the backend contract commands execute on, and two
// implementations behind it: Host runs payloads directly on host memory,
// Sim models an accelerator with its own memory and parallel work-groups.
package device

//go:generate mockgen -destination=../devicemock/device.go -package=devicemock github.com/specialistvlad/memgrid/internal/device Device,Buffer

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/specialistvlad/memgrid/internal/rterr"
)

// Kind identifies a backend implementation.
type Kind int

const (
	KindHost Kind = iota + 1
	KindSim
)

func (k Kind) String() string {
	switch k {
	case KindHost:
		return "host"
	case KindSim:
		return "sim"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts "host" or "sim" into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "host", "cpu":
		return KindHost, nil
	case "sim", "gpu", "accelerator":
		return KindSim, nil
	}
	return 0, rterr.Newf(rterr.KindDevice, "unknown device kind %q", s)
}

// Device is a compute device a queue is bound to.
type Device interface {
	// Name returns a human-readable device name.
	Name() string
	// Kind returns the backend kind.
	Kind() Kind
	// ComputeUnits is the number of work-groups that may run at once.
	ComputeUnits() int
	// Unified reports whether the device works on host memory directly, in
	// which case no staging buffers are needed.
	Unified() bool
	// Allocate reserves device memory.
	Allocate(size int, usage gputypes.BufferUsage) (Buffer, error)
	// Run executes an ND-range launch and blocks until it finishes.
	Run(ctx context.Context, l Launch) error
	// MemoryUsage returns used and total device memory in bytes.
	MemoryUsage() (used, total int64)
}

// Buffer is device memory.
type Buffer interface {
	// Bytes exposes the memory. Simulated device memory is addressable from
	// the host.
	Bytes() []byte
	Size() int
	Usage() gputypes.BufferUsage
	// Free releases the memory back to the device.
	Free()
}

// Item identifies one work-item of a launch.
type Item struct {
	Global      [region.MaxDims]int
	Local       [region.MaxDims]int
	Group       [region.MaxDims]int
	GlobalRange region.Shape
	LocalRange  region.Shape
	GroupRange  region.Shape
}

// Linear returns the row-major global index.
func (it Item) Linear() int {
	return it.GlobalRange.Linear(it.Global)
}

// KernelFunc is the body executed for every work-item.
type KernelFunc func(it Item, args []access.View) error

// Launch describes one ND-range execution.
type Launch struct {
	Name   string
	Global region.Shape
	// Local is the work-group shape; the zero value lets the device choose.
	Local  region.Shape
	Kernel KernelFunc
	// Args are passed to every work-item. Views with target Local are
	// replaced by a fresh zeroed allocation for each work-group.
	Args []access.View
}

// Kernel is an enqueue-ready compiled kernel handle.
type Kernel interface {
	Name() string
	Func() KernelFunc
	// Supports reports whether the kernel was built for dev.
	Supports(dev Device) bool
}

// Compiler builds kernels from a binary blob and build options. Build
// failures are reported as device errors.
type Compiler interface {
	Build(ctx context.Context, blob []byte, options string) (Kernel, error)
}

func groupLocals(args []access.View) []access.View {
	out := args
	copied := false
	for i, v := range args {
		if v.Target() != access.Local {
			continue
		}
		if !copied {
			out = make([]access.View, len(args))
			copy(out, args)
			copied = true
		}
		out[i] = access.NewLocalView(v.ElemSize(), v.Len(), v.Elem())
	}
	return out
}

// forEachItem runs fn for every work-item of one work-group, skipping items
// past the global range.
func forEachItem(global, local region.Shape, groups region.Shape, group [region.MaxDims]int, fn func(Item) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rterr.Newf(rterr.KindExecution, "work-group %v panicked: %v", group, r)
		}
	}()
	it := Item{Group: group, GlobalRange: global, LocalRange: local, GroupRange: groups}
	for i := 0; i < local[0]; i++ {
		for j := 0; j < local[1]; j++ {
			for k := 0; k < local[2]; k++ {
				it.Local = [region.MaxDims]int{i, j, k}
				it.Global = [region.MaxDims]int{
					group[0]*local[0] + i,
					group[1]*local[1] + j,
					group[2]*local[2] + k,
				}
				if it.Global[0] >= global[0] || it.Global[1] >= global[1] || it.Global[2] >= global[2] {
					continue
				}
				if err := fn(it); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func groupCount(global, local region.Shape) region.Shape {
	var g region.Shape
	for d := 0; d < region.MaxDims; d++ {
		g[d] = (global[d] + local[d] - 1) / local[d]
	}
	return g
}

func validateLocal(global, local region.Shape) error {
	for d := 0; d < region.MaxDims; d++ {
		if local[d] <= 0 {
			return rterr.Newf(rterr.KindRange, "work-group dimension %d must be positive, got %d", d, local[d])
		}
		if global[d]%local[d] != 0 {
			return rterr.Newf(rterr.KindRange, "global range %v is not a multiple of work-group %v", global.Slice(), local.Slice())
		}
	}
	return nil
}

func runErr(name string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := rterr.KindOf(err); ok {
		return err
	}
	return rterr.Wrapf(rterr.KindExecution, err, "kernel %s", name)
}
