package command

import (
	"errors"
	"sync/atomic"
	"unsafe"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/cmdid"
	"github.com/specialistvlad/memgrid/internal/device"
	"github.com/specialistvlad/memgrid/internal/event"
	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/specialistvlad/memgrid/internal/rterr"
	"github.com/specialistvlad/memgrid/internal/storage"
)

var handlerSeq atomic.Uint64

// Handler collects the declarations of one command group.
type Handler struct {
	id     uint64
	device device.Device

	accessors  []*access.Accessor
	registered map[*access.Accessor]int
	deps       []*event.Event

	kind    Kind
	name    string
	args    []int
	single  SingleTaskFunc
	host    HostTaskFunc
	interop InteropFunc
	fn      device.KernelFunc
	kernel  device.Kernel
	global  region.Shape
	local   region.Shape
	value   []byte

	hasPayload bool
	errs       []error
}

// NewHandler returns a handler for a command group submitted to a queue
// bound to dev.
func NewHandler(dev device.Device) *Handler {
	return &Handler{
		id:         handlerSeq.Add(1),
		device:     dev,
		registered: make(map[*access.Accessor]int),
	}
}

// ID is the owner tag accessors created through this handler carry.
func (h *Handler) ID() uint64 { return h.id }

// Device returns the device of the queue the group is submitted to.
func (h *Handler) Device() device.Device { return h.device }

// Fail records a contract violation.
func (h *Handler) Fail(err error) {
	if err != nil {
		h.errs = append(h.errs, err)
	}
}

// Err returns the first recorded violation.
func (h *Handler) Err() error {
	if len(h.errs) == 0 {
		return nil
	}
	return h.errs[0]
}

// Access creates an accessor to buf owned by this command group. It returns
// nil and records the violation if the request is invalid.
func (h *Handler) Access(buf *storage.Buffer, mode access.Mode, opts ...access.Option) *access.Accessor {
	opts = append(opts[:len(opts):len(opts)], access.OwnedBy(h.id))
	acc, err := buf.Accessor(mode, opts...)
	if err != nil {
		h.Fail(err)
		return nil
	}
	if acc.Target() == access.HostBuffer {
		h.Fail(rterr.New(rterr.KindAccessor, "host accessors cannot be requested inside a command group"))
		return nil
	}
	h.register(acc)
	return acc
}

// Require registers a placeholder accessor with this command group.
func (h *Handler) Require(acc *access.Accessor) {
	switch {
	case acc == nil:
		h.Fail(rterr.New(rterr.KindAccessor, "require of nil accessor"))
	case acc.Target() == access.HostBuffer:
		h.Fail(rterr.New(rterr.KindAccessor, "host accessors cannot be required by a command group"))
	case !acc.Placeholder() && acc.Owner() != h.id:
		h.Fail(rterr.Coded(rterr.KindAccessor, "outside_command_group", "accessor "+acc.String()+" belongs to another command group"))
	default:
		h.register(acc)
	}
}

func (h *Handler) register(acc *access.Accessor) int {
	if i, ok := h.registered[acc]; ok {
		return i
	}
	h.registered[acc] = len(h.accessors)
	h.accessors = append(h.accessors, acc)
	return len(h.accessors) - 1
}

// Local declares count elements of zeroed work-group scratch memory.
func Local[T any](h *Handler, count int) *access.Accessor {
	var zero T
	acc := access.NewLocal(int(unsafe.Sizeof(zero)), count, access.ElemTypeOf[T](), h.id)
	h.register(acc)
	return acc
}

// LocalBytes is the untyped form of Local.
func (h *Handler) LocalBytes(elem access.ElemType, count int) *access.Accessor {
	acc := access.NewLocal(elem.Size(), count, elem, h.id)
	h.register(acc)
	return acc
}

// DependsOn adds explicit event dependencies. A failed dependency fails the
// command.
func (h *Handler) DependsOn(evs ...*event.Event) {
	for _, ev := range evs {
		if ev == nil {
			h.Fail(rterr.New(rterr.KindEvent, "dependency on nil event"))
			continue
		}
		h.deps = append(h.deps, ev)
	}
}

// Named sets a display name for the command.
func (h *Handler) Named(name string) { h.name = name }

func (h *Handler) setPayload(k Kind, args []*access.Accessor) bool {
	if h.hasPayload {
		h.Fail(rterr.Newf(rterr.KindAccessor, "command group already has a %s payload", h.kind))
		return false
	}
	h.hasPayload = true
	h.kind = k
	for _, a := range args {
		if a == nil {
			// The failed Access call already recorded why.
			if len(h.errs) == 0 {
				h.Fail(rterr.New(rterr.KindAccessor, "nil payload argument"))
			}
			return false
		}
		i, ok := h.registered[a]
		if !ok {
			h.Fail(rterr.Coded(rterr.KindAccessor, "outside_command_group", "accessor "+a.String()+" is not registered with the command group"))
			return false
		}
		h.args = append(h.args, i)
	}
	return true
}

func launchShape(global, local []int) (region.Shape, region.Shape, error) {
	g, err := region.NewShape(global...)
	if err != nil {
		return g, region.Shape{}, err
	}
	if local == nil {
		return g, region.Shape{}, nil
	}
	if len(local) != len(global) {
		return g, region.Shape{}, rterr.Newf(rterr.KindRange, "work-group %v and range %v differ in dimensions", local, global)
	}
	l, err := region.NewShape(local...)
	return g, l, err
}

// SingleTask runs fn once on the device.
func (h *Handler) SingleTask(fn SingleTaskFunc, args ...*access.Accessor) {
	if h.setPayload(KindSingleTask, args) {
		h.single = fn
	}
}

// ParallelFor runs fn for every item of the global range.
func (h *Handler) ParallelFor(global []int, fn device.KernelFunc, args ...*access.Accessor) {
	h.ParallelForGroups(global, nil, fn, args...)
}

// ParallelForGroups runs fn over an ND-range split into work-groups of the
// given local shape.
func (h *Handler) ParallelForGroups(global, local []int, fn device.KernelFunc, args ...*access.Accessor) {
	if !h.setPayload(KindParallelFor, args) {
		return
	}
	g, l, err := launchShape(global, local)
	if err != nil {
		h.Fail(err)
		return
	}
	h.fn, h.global, h.local = fn, g, l
}

// LaunchKernel enqueues a compiled kernel. The kernel must have been built
// for the queue's device.
func (h *Handler) LaunchKernel(k device.Kernel, global, local []int, args ...*access.Accessor) {
	if !h.setPayload(KindKernel, args) {
		return
	}
	if k == nil {
		h.Fail(rterr.New(rterr.KindDevice, "launch of nil kernel"))
		return
	}
	if h.device != nil && !k.Supports(h.device) {
		h.Fail(rterr.Newf(rterr.KindDevice, "kernel %s was not built for device %s", k.Name(), h.device.Name()))
		return
	}
	g, l, err := launchShape(global, local)
	if err != nil {
		h.Fail(err)
		return
	}
	h.kernel, h.global, h.local = k, g, l
	if h.name == "" {
		h.name = k.Name()
	}
}

// HostTask runs fn on a host goroutine once dependencies are satisfied.
func (h *Handler) HostTask(fn HostTaskFunc, args ...*access.Accessor) {
	if h.setPayload(KindHostTask, args) {
		h.host = fn
	}
}

// InteropTask runs fn with the native device and the device views of args.
func (h *Handler) InteropTask(fn InteropFunc, args ...*access.Accessor) {
	if h.setPayload(KindInterop, args) {
		h.interop = fn
	}
}

// Fill sets every element of dst to v.
func Fill[T any](h *Handler, dst *access.Accessor, v T) {
	b := unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
	h.FillBytes(dst, append([]byte(nil), b...))
}

// FillBytes sets every element of dst to the raw element value.
func (h *Handler) FillBytes(dst *access.Accessor, value []byte) {
	if !h.setPayload(KindFill, []*access.Accessor{dst}) {
		return
	}
	if !dst.Mode().Writes() {
		h.Fail(rterr.Newf(rterr.KindAccessor, "fill through %s accessor", dst.Mode()))
		return
	}
	if len(value) != dst.ElemSize() {
		h.Fail(rterr.Newf(rterr.KindAccessor, "fill value is %d bytes, elements are %d", len(value), dst.ElemSize()))
		return
	}
	h.value = value
}

// Copy copies src into dst element by element.
func (h *Handler) Copy(src, dst *access.Accessor) {
	if !h.setPayload(KindCopy, []*access.Accessor{src, dst}) {
		return
	}
	switch {
	case !src.Mode().Reads():
		h.Fail(rterr.Newf(rterr.KindAccessor, "copy source is %s", src.Mode()))
	case !dst.Mode().Writes():
		h.Fail(rterr.Newf(rterr.KindAccessor, "copy destination is %s", dst.Mode()))
	case src.ElemSize() != dst.ElemSize():
		h.Fail(rterr.Newf(rterr.KindAccessor, "copy between %d and %d byte elements", src.ElemSize(), dst.ElemSize()))
	case src.Len() > dst.Len():
		h.Fail(rterr.Newf(rterr.KindRange, "copy of %d elements into %d", src.Len(), dst.Len()))
	}
}

// Kind returns the payload kind set so far, KindEmpty if none.
func (h *Handler) Kind() Kind { return h.kind }

// Accessors returns the accessors registered so far.
func (h *Handler) Accessors() []*access.Accessor { return h.accessors }

// Build turns the handler into a command. It returns every recorded
// violation joined, the first one leading.
func (h *Handler) Build(id cmdid.ID, ev *event.Event) (*Command, error) {
	if len(h.errs) > 0 {
		if len(h.errs) == 1 {
			return nil, h.errs[0]
		}
		return nil, errors.Join(h.errs...)
	}
	for _, a := range h.accessors {
		if a.IsLocal() && h.kind != KindParallelFor && h.kind != KindKernel {
			return nil, rterr.Newf(rterr.KindAccessor, "local accessors need an ND-range payload, got %s", h.kind)
		}
	}
	name := h.name
	if name == "" {
		name = h.kind.String()
	}
	return &Command{
		ID:        id,
		Kind:      h.kind,
		Name:      name,
		Event:     ev,
		Accessors: h.accessors,
		Args:      h.args,
		Deps:      h.deps,
		single:    h.single,
		host:      h.host,
		interop:   h.interop,
		fn:        h.fn,
		kernel:    h.kernel,
		global:    h.global,
		local:     h.local,
		value:     h.value,
	}, nil
}
