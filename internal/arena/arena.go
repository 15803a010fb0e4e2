// Package arena implements a reference-counted handle table. Values live in
// slots addressed by generation-checked handles, so holders keep a small
// integer instead of a pointer and a stale handle is detected instead of
// aliasing a reused slot.
package arena

import (
	"fmt"
	"sync"

	"github.com/specialistvlad/memgrid/internal/rterr"
)

// Handle identifies a slot. The zero Handle is never valid.
type Handle uint64

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index))
}

func (h Handle) index() uint32 { return uint32(h) }
func (h Handle) gen() uint32   { return uint32(h >> 32) }

func (h Handle) String() string {
	return fmt.Sprintf("#%d.%d", h.index(), h.gen())
}

type slot[T any] struct {
	val  T
	gen  uint32
	refs int32
	live bool
}

// Table stores values of type T behind handles.
type Table[T any] struct {
	mu    sync.Mutex
	slots []slot[T]
	free  []uint32
	live  int
}

// Insert stores v with one reference and returns its handle.
func (t *Table[T]) Insert(v T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, slot[T]{})
		idx = uint32(len(t.slots) - 1)
	}
	s := &t.slots[idx]
	s.gen++
	s.val = v
	s.refs = 1
	s.live = true
	t.live++
	return makeHandle(idx, s.gen)
}

func (t *Table[T]) lookup(h Handle) (*slot[T], error) {
	idx := h.index()
	if h == 0 || int(idx) >= len(t.slots) {
		return nil, rterr.Coded(rterr.KindRuntime, "destroyed", fmt.Sprintf("invalid handle %s", h))
	}
	s := &t.slots[idx]
	if !s.live || s.gen != h.gen() {
		return nil, rterr.Coded(rterr.KindRuntime, "destroyed", fmt.Sprintf("stale handle %s", h))
	}
	return s, nil
}

// Get returns the value stored under h.
func (t *Table[T]) Get(h Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, err := t.lookup(h)
	if err != nil {
		var zero T
		return zero, false
	}
	return s.val, true
}

// Retain adds a reference to h.
func (t *Table[T]) Retain(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, err := t.lookup(h)
	if err != nil {
		return err
	}
	if s.refs <= 0 {
		return rterr.Coded(rterr.KindRuntime, "destroyed", fmt.Sprintf("handle %s has no holders", h))
	}
	s.refs++
	return nil
}

// Release drops a reference and returns how many remain. The slot stays
// addressable until Free so that teardown can still reach the value.
func (t *Table[T]) Release(h Handle) (int32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, err := t.lookup(h)
	if err != nil {
		return 0, err
	}
	if s.refs <= 0 {
		return 0, rterr.Coded(rterr.KindRuntime, "destroyed", fmt.Sprintf("handle %s released too many times", h))
	}
	s.refs--
	return s.refs, nil
}

// Refs returns the current reference count of h, or 0 if h is stale.
func (t *Table[T]) Refs(h Handle) int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, err := t.lookup(h)
	if err != nil {
		return 0
	}
	return s.refs
}

// Free invalidates h and recycles its slot.
func (t *Table[T]) Free(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, err := t.lookup(h)
	if err != nil {
		return err
	}
	var zero T
	s.val = zero
	s.live = false
	s.refs = 0
	t.free = append(t.free, h.index())
	t.live--
	return nil
}

// Len returns the number of live slots.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}
