package storage

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"
	"unsafe"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/arena"
	"github.com/specialistvlad/memgrid/internal/hazard"
	"github.com/specialistvlad/memgrid/internal/memory"
	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/specialistvlad/memgrid/internal/rterr"
)

// Buffer is one holder of a storage object. Every Buffer must be released
// exactly once; Share hands out additional holders.
type Buffer struct {
	table    *Table
	handle   arena.Handle
	binding  access.Binding
	released atomic.Bool
}

type options struct {
	dims      []int
	alloc     memory.Allocator
	writeBack *bool
}

// Option configures buffer construction.
type Option func(*options)

// WithShape sets the buffer shape. Constructors taking a slice default to a
// one-dimensional shape of the slice length.
func WithShape(dims ...int) Option {
	return func(o *options) { o.dims = dims }
}

// WithAllocator sets the allocator for the buffer memory.
func WithAllocator(a memory.Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// WithWriteBack overrides the origin's default write-back policy.
func WithWriteBack(enabled bool) Option {
	return func(o *options) { o.writeBack = &enabled }
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func elemOf[T any]() (int, access.ElemType) {
	var zero T
	return int(unsafe.Sizeof(zero)), access.ElemTypeOf[T]()
}

// New returns a zero-initialised buffer with no host origin.
func New[T any](t *Table, dims []int, opts ...Option) (*Buffer, error) {
	o := collect(opts)
	shape, err := region.NewShape(dims...)
	if err != nil {
		return nil, err
	}
	size, elem := elemOf[T]()
	return t.create(nil, size, elem, shape, OriginNone, nil, o)
}

// FromSlice copies src into a new buffer and writes the final contents back
// into src on destruction.
func FromSlice[T any](t *Table, src []T, opts ...Option) (*Buffer, error) {
	return fromSlice(t, src, OriginRaw, opts)
}

// FromConstSlice copies src into a new buffer. Nothing is written back.
func FromConstSlice[T any](t *Table, src []T, opts ...Option) (*Buffer, error) {
	return fromSlice(t, src, OriginRawConst, opts)
}

// FromShared copies a slice the caller keeps sharing with the buffer and
// writes back into it on destruction.
func FromShared[T any](t *Table, src []T, opts ...Option) (*Buffer, error) {
	return fromSlice(t, src, OriginShared, opts)
}

func fromSlice[T any](t *Table, src []T, origin Origin, opts []Option) (*Buffer, error) {
	o := collect(opts)
	shape, err := shapeFor(o.dims, len(src))
	if err != nil {
		return nil, err
	}
	size, elem := elemOf[T]()
	var final FinalData
	if origin != OriginRawConst {
		final = ToSlice(src)
	}
	return t.create(bytesOf(src), size, elem, shape, origin, final, o)
}

// FromSeq copies the elements of seq into a new buffer.
func FromSeq[T any](t *Table, seq iter.Seq[T], opts ...Option) (*Buffer, error) {
	var src []T
	for v := range seq {
		src = append(src, v)
	}
	return fromSlice(t, src, OriginNone, opts)
}

// CloneFrom copies raw element bytes into a new buffer. It is the untyped
// form of FromConstSlice used where the element type is only known at run
// time.
func CloneFrom(t *Table, src []byte, elem access.ElemType, dims []int, opts ...Option) (*Buffer, error) {
	o := collect(opts)
	size := elem.Size()
	if size <= 0 {
		return nil, rterr.Newf(rterr.KindRuntime, "element type %s has no fixed size", elem)
	}
	if len(src)%size != 0 {
		return nil, rterr.Newf(rterr.KindRange, "%d bytes is not a whole number of %d-byte elements", len(src), size)
	}
	shape, err := shapeFor(dims, len(src)/size)
	if err != nil {
		return nil, err
	}
	return t.create(src, size, elem, shape, OriginRawConst, nil, o)
}

func shapeFor(dims []int, n int) (region.Shape, error) {
	if dims == nil {
		dims = []int{n}
	}
	shape, err := region.NewShape(dims...)
	if err != nil {
		return region.Shape{}, err
	}
	if shape.Size() != n {
		return region.Shape{}, rterr.Newf(rterr.KindRange, "shape %v holds %d elements, source has %d", shape.Slice(), shape.Size(), n)
	}
	return shape, nil
}

func (t *Table) create(src []byte, elemSize int, elem access.ElemType, shape region.Shape, origin Origin, final FinalData, o options) (*Buffer, error) {
	alloc := o.alloc
	if alloc == nil {
		alloc = t.alloc
	}
	root := &backing{
		shape:     shape,
		elemSize:  elemSize,
		elem:      elem,
		alloc:     alloc,
		tracker:   hazard.NewTracker(),
		origin:    origin,
		writeBack: origin == OriginRaw || origin == OriginShared,
		final:     final,
	}
	if o.writeBack != nil {
		root.writeBack = *o.writeBack
	}
	if n := shape.Size() * elemSize; n > 0 {
		data, err := alloc.Allocate(n, memory.CacheLineSize)
		if err != nil {
			return nil, rterr.Wrapf(rterr.KindAllocation, err, "buffer of %d bytes", n)
		}
		copy(data, src)
		root.data = data
	}
	obj := &object{root: root, shape: shape}
	h := t.insert(obj)
	t.logger.Debug("Storage object created.", "handle", h, "shape", shape.Slice(), "elem", elem, "origin", origin)
	return &Buffer{table: t, handle: h, binding: obj.binding(h)}, nil
}

func (b *Buffer) Handle() arena.Handle    { return b.handle }
func (b *Buffer) Binding() access.Binding { return b.binding }
func (b *Buffer) Shape() region.Shape     { return b.binding.Shape }
func (b *Buffer) Len() int                { return b.binding.Shape.Size() }
func (b *Buffer) ElemSize() int           { return b.binding.ElemSize }
func (b *Buffer) Elem() access.ElemType   { return b.binding.Elem }
func (b *Buffer) Table() *Table           { return b.table }

// IsView reports whether b is a sub-buffer.
func (b *Buffer) IsView() bool {
	obj, err := b.table.lookup(b.handle)
	return err == nil && obj.parent != 0
}

func (b *Buffer) String() string {
	return fmt.Sprintf("buffer%s%v", b.handle, b.binding.Shape.Slice())
}

// Share returns an additional holder of the same object.
func (b *Buffer) Share() (*Buffer, error) {
	if b.released.Load() {
		return nil, rterr.Coded(rterr.KindRuntime, "destroyed", "share of released buffer "+b.handle.String())
	}
	if err := b.table.retain(b.handle); err != nil {
		return nil, err
	}
	return &Buffer{table: b.table, handle: b.handle, binding: b.binding}, nil
}

// CreateView returns a sub-buffer over a region of b. The region must lie
// within b and occupy one contiguous span of the root allocation. The view
// keeps b's object alive until it is released.
func (b *Buffer) CreateView(offset, rng []int) (*Buffer, error) {
	obj, err := b.table.lookup(b.handle)
	if err != nil {
		return nil, err
	}
	r, err := region.New(offset, rng)
	if err != nil {
		return nil, err
	}
	if !r.Within(obj.shape) {
		return nil, rterr.Newf(rterr.KindRange, "sub-buffer %s exceeds parent extent %v", r, obj.shape.Slice())
	}
	abs := r.Translate(obj.base)
	if !abs.IsContiguous(obj.root.shape) {
		return nil, rterr.Newf(rterr.KindRange, "sub-buffer %s is not contiguous in the parent layout", r)
	}
	if err := b.table.retain(b.handle); err != nil {
		return nil, err
	}
	view := &object{root: obj.root, shape: r.Shape(), base: abs.Offset, parent: b.handle}
	h := b.table.insert(view)
	return &Buffer{table: b.table, handle: h, binding: view.binding(h)}, nil
}

// AttachFinalData sets where the contents go on destruction. A nil
// destination suppresses write-back.
func (b *Buffer) AttachFinalData(d FinalData) error {
	obj, err := b.table.lookup(b.handle)
	if err != nil {
		return err
	}
	if obj.parent != 0 {
		return rterr.New(rterr.KindRuntime, "final data can only be attached to a root buffer")
	}
	obj.root.mu.Lock()
	defer obj.root.mu.Unlock()
	obj.root.final = d
	if d != nil && obj.root.origin == OriginNone {
		obj.root.writeBack = true
	}
	return nil
}

// SetWriteBack enables or disables write-back of the root object.
func (b *Buffer) SetWriteBack(enabled bool) error {
	obj, err := b.table.lookup(b.handle)
	if err != nil {
		return err
	}
	obj.root.mu.Lock()
	obj.root.writeBack = enabled
	obj.root.mu.Unlock()
	return nil
}

// Accessor returns a placeholder accessor to b. It must be registered with a
// handler before a command can use it.
func (b *Buffer) Accessor(mode access.Mode, opts ...access.Option) (*access.Accessor, error) {
	if b.released.Load() {
		return nil, rterr.Coded(rterr.KindRuntime, "destroyed", "access to released buffer "+b.handle.String())
	}
	return access.New(b.binding, mode, opts...)
}

// Release drops this holder. When it was the last holder of the object, it
// blocks until every outstanding access finishes, writes back and frees the
// memory.
func (b *Buffer) Release() error {
	if !b.released.CompareAndSwap(false, true) {
		return rterr.Coded(rterr.KindRuntime, "destroyed", "buffer "+b.handle.String()+" released twice")
	}
	return b.table.release(b.handle)
}

// Read copies the current contents of buf once all earlier writers finish.
func Read[T any](ctx context.Context, buf *Buffer) ([]T, error) {
	h, err := buf.HostAccess(ctx, access.Read)
	if err != nil {
		return nil, err
	}
	defer h.Release()
	return access.Collect[T](h.View()), nil
}
