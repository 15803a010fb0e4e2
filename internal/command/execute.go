package command

import (
	"context"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/specialistvlad/memgrid/internal/rterr"
)

// ArgViews picks the payload arguments out of the views of all accessors.
func (c *Command) ArgViews(all []access.View) []access.View {
	out := make([]access.View, len(c.Args))
	for i, idx := range c.Args {
		out[i] = all[idx]
	}
	return out
}

// Execute runs the payload on dev with args in payload order.
func (c *Command) Execute(ctx context.Context, dev device.Device, args []access.View) error {
	switch c.Kind {
	case KindEmpty:
		return nil
	case KindSingleTask:
		return dev.Run(ctx, device.Launch{
			Name:   c.Name,
			Global: region.Shape{1, 1, 1},
			Kernel: func(_ device.Item, views []access.View) error { return c.single(views) },
			Args:   args,
		})
	case KindParallelFor:
		return dev.Run(ctx, device.Launch{Name: c.Name, Global: c.global, Local: c.local, Kernel: c.fn, Args: args})
	case KindKernel:
		return dev.Run(ctx, device.Launch{Name: c.Name, Global: c.global, Local: c.local, Kernel: c.kernel.Func(), Args: args})
	case KindHostTask:
		return wrapPayload(c, c.host(ctx, args))
	case KindInterop:
		return wrapPayload(c, c.interop(ctx, Interop{Device: dev, Args: args}))
	case KindFill:
		dst := args[0]
		for i := range dst.Len() {
			dst.SetRaw(i, c.value)
		}
		return nil
	case KindCopy:
		src, dst := args[0], args[1]
		// Source and destination may be views of one allocation, so the
		// source is read completely before anything is written.
		size := src.ElemSize()
		staged := make([]byte, 0, src.Len()*size)
		for i := range src.Len() {
			staged = append(staged, src.Raw(i)...)
		}
		for i := range src.Len() {
			dst.SetRaw(i, staged[i*size:(i+1)*size])
		}
		return nil
	}
	return rterr.Newf(rterr.KindRuntime, "unknown command kind %s", c.Kind)
}

func wrapPayload(c *Command, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := rterr.KindOf(err); ok {
		return err
	}
	return rterr.Wrapf(rterr.KindExecution, err, "%s %s", c.Kind, c.ID)
}
