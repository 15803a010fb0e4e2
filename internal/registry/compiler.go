package registry

import (
	"context"
	"slices"
	"strings"

	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/rterr"
)

// Kernel is a compiled, enqueue-ready handle to a registered parallel
// kernel.
type Kernel struct {
	def   *Definition
	kinds []device.Kind
	input any
}

var _ device.Kernel = (*Kernel)(nil)

func (k *Kernel) Name() string { return k.def.Name }

// Func binds the kernel's input, zero-valued if none was set.
func (k *Kernel) Func() device.KernelFunc {
	return k.def.Parallel(k.def.input(k.input))
}

// Supports reports whether dev is one of the device kinds the kernel was
// built for. A kernel built without -device runs anywhere.
func (k *Kernel) Supports(dev device.Device) bool {
	if dev == nil {
		return false
	}
	return len(k.kinds) == 0 || slices.Contains(k.kinds, dev.Kind())
}

// WithInput returns a copy of the kernel bound to input.
func (k *Kernel) WithInput(input any) *Kernel {
	cp := *k
	cp.input = input
	return &cp
}

// Build implements device.Compiler. blob is a kernel name; options is a
// space-separated list of:
//
//	-device=<host|sim>  restrict the handle to a device kind (repeatable)
//	-fail-build         make the build fail
//	-O<n>, -D<name>     accepted and ignored
func (r *Registry) Build(ctx context.Context, blob []byte, options string) (device.Kernel, error) {
	return r.Compile(ctx, string(blob), options)
}

// Compile is Build with a typed result.
func (r *Registry) Compile(ctx context.Context, name, options string) (*Kernel, error) {
	name = strings.TrimSpace(name)
	def, ok := r.Lookup(name)
	if !ok {
		return nil, rterr.Newf(rterr.KindDevice, "build failed: unknown kernel %q", name)
	}
	if def.Kind != KindParallel {
		return nil, rterr.Newf(rterr.KindDevice, "build failed: %s is a %s kernel and cannot be compiled", name, def.Kind)
	}

	k := &Kernel{def: def}
	for _, opt := range strings.Fields(options) {
		switch {
		case strings.HasPrefix(opt, "-device="):
			kind, err := device.ParseKind(strings.TrimPrefix(opt, "-device="))
			if err != nil {
				return nil, rterr.Wrapf(rterr.KindDevice, err, "build of %s failed", name)
			}
			k.kinds = append(k.kinds, kind)
		case opt == "-fail-build":
			return nil, rterr.Newf(rterr.KindDevice, "build of %s failed: forced by -fail-build", name)
		case strings.HasPrefix(opt, "-O"), strings.HasPrefix(opt, "-D"):
		default:
			return nil, rterr.Newf(rterr.KindDevice, "build of %s failed: unknown option %q", name, opt)
		}
	}
	ctxlog.FromContext(ctx).Debug("Kernel built.", "kernel", name, "options", options)
	return k, nil
}
