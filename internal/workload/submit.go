package workload

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/command"
	"github.com/specialistvlad/memgrid/internal/config"
	"github.com/specialistvlad/memgrid/internal/event"
	"github.com/specialistvlad/memgrid/internal/registry"
	"github.com/specialistvlad/memgrid/internal/rterr"
	"github.com/specialistvlad/memgrid/internal/storage"
)

// commandRef resolves a depends_on entry of the form "command.<name>".
func commandRef(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, "command.")
	if !ok || name == "" {
		return "", fmt.Errorf("invalid dependency %q: expected command.<name>", ref)
	}
	return name, nil
}

// accessorSpec is a parsed accessor declaration, declared inside the command
// group at submission.
type accessorSpec struct {
	buf    *storage.Buffer
	mode   access.Mode
	target access.Target
	opts   []access.Option
	// local is the element count of a work-group scratch accessor.
	local int
}

func (a accessorSpec) declare(h *command.Handler) *access.Accessor {
	if a.target == access.Local {
		return h.LocalBytes(a.buf.Elem(), a.local)
	}
	return h.Access(a.buf, a.mode, a.opts...)
}

func (st *run) accessors(c *config.Command) ([]accessorSpec, error) {
	specs := make([]accessorSpec, 0, len(c.Accessors))
	for _, a := range c.Accessors {
		buf, err := st.buffer(c.Name, a)
		if err != nil {
			return nil, err
		}
		mode := access.ReadWrite
		if a.Mode != "" {
			if mode, err = access.ParseMode(a.Mode); err != nil {
				return nil, fmt.Errorf("command %q accessor %q: %w", c.Name, a.Name, err)
			}
		}
		target := access.GlobalBuffer
		if a.Target != "" {
			if target, err = access.ParseTarget(a.Target); err != nil {
				return nil, fmt.Errorf("command %q accessor %q: %w", c.Name, a.Name, err)
			}
		}
		spec := accessorSpec{buf: buf, mode: mode, target: target}
		if target == access.Local {
			// Scratch memory takes the element type of the named buffer and
			// its range as the element count.
			spec.local = buf.Len()
			if a.Range != nil {
				spec.local = 1
				for _, d := range a.Range {
					spec.local *= d
				}
			}
			specs = append(specs, spec)
			continue
		}
		spec.opts = append(spec.opts, access.WithTarget(target))
		if a.Offset != nil {
			spec.opts = append(spec.opts, access.WithOffset(a.Offset...))
		}
		if a.Range != nil {
			spec.opts = append(spec.opts, access.WithRange(a.Range...))
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// payloadFunc sets a command group's payload once its accessors exist.
type payloadFunc func(h *command.Handler, args []*access.Accessor)

func (st *run) payload(ctx context.Context, c *config.Command) (payloadFunc, error) {
	if c.Kernel == "" {
		if len(c.Arguments) > 0 {
			return nil, fmt.Errorf("command %q has arguments but no kernel", c.Name)
		}
		return func(*command.Handler, []*access.Accessor) {}, nil
	}
	def, ok := st.registry.Lookup(c.Kernel)
	if !ok {
		return nil, rterr.Newf(rterr.KindDevice, "command %q uses unknown kernel %q", c.Name, c.Kernel)
	}
	if len(c.Accessors) < len(def.Accessors) {
		return nil, rterr.Newf(rterr.KindAccessor, "kernel %s needs %d accessors (%s), command %q declares %d",
			def.Name, len(def.Accessors), strings.Join(def.Accessors, ", "), c.Name, len(c.Accessors))
	}
	in, err := st.decodeInput(ctx, def, c)
	if err != nil {
		return nil, err
	}

	switch def.Kind {
	case registry.KindParallel:
		k, err := st.registry.Compile(ctx, def.Name, c.Build)
		if err != nil {
			return nil, err
		}
		k = k.WithInput(in)
		return func(h *command.Handler, args []*access.Accessor) {
			global := c.Range
			if len(global) == 0 && len(args) > 0 {
				global = args[0].Region().Shape().Slice()
			}
			h.LaunchKernel(k, global, c.Local, args...)
		}, nil
	case registry.KindSingle, registry.KindHost:
		if c.Build != "" {
			return nil, rterr.Newf(rterr.KindDevice, "command %q: build options apply to parallel kernels only", c.Name)
		}
		if def.Kind == registry.KindSingle {
			fn := def.Single(in)
			return func(h *command.Handler, args []*access.Accessor) { h.SingleTask(fn, args...) }, nil
		}
		fn := def.Host(in)
		return func(h *command.Handler, args []*access.Accessor) { h.HostTask(fn, args...) }, nil
	}
	return nil, fmt.Errorf("kernel %s has unsupported kind %s", def.Name, def.Kind)
}

func (st *run) decodeInput(ctx context.Context, def *registry.Definition, c *config.Command) (any, error) {
	if def.NewInput == nil {
		if len(c.Arguments) > 0 {
			return nil, fmt.Errorf("command %q: kernel %s takes no arguments", c.Name, def.Name)
		}
		return nil, nil
	}
	in := def.NewInput()
	if err := st.converter.DecodeBody(ctx, in, c.Arguments, def.Inputs, nil); err != nil {
		return nil, fmt.Errorf("command %q arguments: %w", c.Name, err)
	}
	return in, nil
}

// submit submits one command group and returns its event.
func (st *run) submit(ctx context.Context, c *config.Command) (*event.Event, error) {
	q, fallback := st.queueFor(c.Queue)
	deps := make([]*event.Event, 0, len(c.DependsOn))
	for _, ref := range c.DependsOn {
		name, err := commandRef(ref)
		if err != nil {
			return nil, rterr.Wrap(rterr.KindEvent, err, "command "+c.Name)
		}
		ev, ok := st.events[name]
		if !ok {
			return nil, rterr.Newf(rterr.KindEvent, "dependency %s was not submitted", ref)
		}
		deps = append(deps, ev)
	}
	specs, err := st.accessors(c)
	if err != nil {
		return nil, err
	}
	payload, err := st.payload(ctx, c)
	if err != nil {
		return nil, err
	}

	return q.Submit(ctx, func(h *command.Handler) {
		h.Named(c.Name)
		h.DependsOn(deps...)
		args := make([]*access.Accessor, 0, len(specs))
		for _, s := range specs {
			acc := s.declare(h)
			if acc == nil {
				return
			}
			args = append(args, acc)
		}
		payload(h, args)
	}, fallback)
}
