package storage

import (
	"log/slog"
	"sync"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/arena"
	"github.com/specialistvlad/memgrid/internal/ctxlog"
	"github.com/specialistvlad/memgrid/internal/event"
	"github.com/specialistvlad/memgrid/internal/hazard"
	"github.com/specialistvlad/memgrid/internal/memory"
	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/specialistvlad/memgrid/internal/rterr"
)

// Origin records where the initial contents of a root object came from.
type Origin int

const (
	OriginNone Origin = iota
	// OriginRaw copies a caller slice and writes back into it.
	OriginRaw
	// OriginRawConst copies a caller slice that must not be written.
	OriginRawConst
	// OriginShared copies a slice whose ownership is shared with the caller
	// and writes back into it.
	OriginShared
)

func (o Origin) String() string {
	switch o {
	case OriginRaw:
		return "raw"
	case OriginRawConst:
		return "raw-const"
	case OriginShared:
		return "shared"
	}
	return "none"
}

// backing is the memory of a root object and everything shared with its
// sub-buffers.
type backing struct {
	data     []byte
	shape    region.Shape
	elemSize int
	elem     access.ElemType
	alloc    memory.Allocator
	tracker  *hazard.Tracker
	origin   Origin

	mu        sync.Mutex
	writeBack bool
	final     FinalData
	delivered sync.Once
}

func (b *backing) deliver() bool {
	b.mu.Lock()
	final, enabled := b.final, b.writeBack
	b.mu.Unlock()
	if !enabled || final == nil {
		return false
	}
	done := false
	b.delivered.Do(func() {
		final.deliver(b.data, b.elemSize)
		done = true
	})
	return done
}

type object struct {
	root   *backing
	shape  region.Shape
	base   [region.MaxDims]int
	parent arena.Handle

	// closing is guarded by Table.submitMu.
	closing bool
}

func (o *object) binding(h arena.Handle) access.Binding {
	return access.Binding{
		Object:   h,
		Shape:    o.shape,
		Base:     o.base,
		ElemSize: o.root.elemSize,
		Elem:     o.root.elem,
	}
}

// Table is the handle table of all storage objects of a session.
type Table struct {
	objects  arena.Table[*object]
	submitMu sync.Mutex
	alloc    memory.Allocator
	logger   *slog.Logger
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithDefaultAllocator sets the allocator used for buffers that do not name
// their own.
func WithDefaultAllocator(a memory.Allocator) TableOption {
	return func(t *Table) { t.alloc = a }
}

// WithLogger sets the logger for object lifecycle messages.
func WithLogger(l *slog.Logger) TableOption {
	return func(t *Table) { t.logger = l }
}

// NewTable returns an empty table.
func NewTable(opts ...TableOption) *Table {
	t := &Table{alloc: memory.Aligned{}, logger: ctxlog.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Len returns the number of live storage objects.
func (t *Table) Len() int { return t.objects.Len() }

// Atomically runs fn under the table-wide submission lock. Everything that
// resolves hazards for one command must happen inside a single call so that
// a multi-object command is ordered consistently on every object.
func (t *Table) Atomically(fn func() error) error {
	t.submitMu.Lock()
	defer t.submitMu.Unlock()
	return fn()
}

func (t *Table) lookup(h arena.Handle) (*object, error) {
	obj, ok := t.objects.Get(h)
	if !ok {
		return nil, rterr.Coded(rterr.KindRuntime, "destroyed", "storage object "+h.String()+" was destroyed")
	}
	return obj, nil
}

// Check verifies that acc is bound to a live object that accepts new work.
// It must be called inside Atomically.
func (t *Table) Check(acc *access.Accessor) error {
	if acc.IsLocal() {
		return nil
	}
	obj, err := t.lookup(acc.Object())
	if err != nil {
		return err
	}
	if obj.closing {
		return rterr.Coded(rterr.KindRuntime, "destroyed", "storage object "+acc.Object().String()+" is being destroyed")
	}
	return nil
}

// Track records acc as an outstanding access completed by ev and returns the
// edges it needs to earlier accesses. It must be called inside Atomically.
func (t *Table) Track(acc *access.Accessor, ev *event.Event, owner string) ([]hazard.Edge, error) {
	if acc.IsLocal() {
		return nil, nil
	}
	if err := t.Check(acc); err != nil {
		return nil, err
	}
	obj, err := t.lookup(acc.Object())
	if err != nil {
		return nil, err
	}
	return obj.root.tracker.Resolve(acc.RootRegion(), acc.Mode(), ev, owner), nil
}

// Records returns the outstanding accesses of the root behind h.
func (t *Table) Records(h arena.Handle) ([]hazard.Record, error) {
	obj, err := t.lookup(h)
	if err != nil {
		return nil, err
	}
	return obj.root.tracker.Records(), nil
}

func (t *Table) insert(obj *object) arena.Handle {
	return t.objects.Insert(obj)
}

func (t *Table) retain(h arena.Handle) error {
	return t.objects.Retain(h)
}

// release drops one reference to h and destroys the object when it was the
// last one.
func (t *Table) release(h arena.Handle) error {
	obj, err := t.lookup(h)
	if err != nil {
		return err
	}
	left, err := t.objects.Release(h)
	if err != nil {
		return err
	}
	if left > 0 {
		return nil
	}

	t.submitMu.Lock()
	obj.closing = true
	t.submitMu.Unlock()

	if obj.parent != 0 {
		if err := t.objects.Free(h); err != nil {
			return err
		}
		t.logger.Debug("Sub-buffer destroyed.", "handle", h, "parent", obj.parent)
		return t.release(obj.parent)
	}

	root := obj.root
	pending := root.tracker.Outstanding()
	if len(pending) > 0 {
		t.logger.Debug("Waiting for outstanding accesses before destruction.", "handle", h, "pending", len(pending))
	}
	event.WaitAll(pending...)
	if root.deliver() {
		t.logger.Debug("Final data written back.", "handle", h, "origin", root.origin)
	}
	memory.Release(root.alloc, root.data)
	root.data = nil
	if err := t.objects.Free(h); err != nil {
		return err
	}
	t.logger.Debug("Storage object destroyed.", "handle", h)
	return nil
}
