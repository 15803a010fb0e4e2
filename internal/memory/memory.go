// Package memory provides the allocators backing storage objects and device
// mirrors. All allocations are aligned to a cache line.
package memory

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/specialistvlad/memgrid/internal/rterr"
)

// CacheLineSize is the default alignment for every allocation.
const CacheLineSize = 64

// Allocator hands out zeroed byte slices.
type Allocator interface {
	Allocate(size, align int) ([]byte, error)
}

// Freer is implemented by allocators that account for returned memory.
type Freer interface {
	Free(b []byte)
}

// AlignedSize rounds size up to a multiple of align.
func AlignedSize(size, align int) int {
	return (size + align - 1) &^ (align - 1)
}

// AlignedBytes returns a zeroed slice of size bytes whose first element is
// aligned to align, which must be a power of two.
func AlignedBytes(size, align int) []byte {
	if size == 0 {
		return nil
	}
	buf := make([]byte, size+align-1)
	ptr := uintptr(unsafe.Pointer(&buf[0]))
	offset := 0
	if mod := int(ptr % uintptr(align)); mod != 0 {
		offset = align - mod
	}
	return buf[offset : offset+size : offset+size]
}

// IsAligned reports whether b starts on an align boundary.
func IsAligned(b []byte, align int) bool {
	if len(b) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&b[0]))%uintptr(align) == 0
}

// Aligned is the default heap allocator.
type Aligned struct{}

// Allocate implements Allocator.
func (Aligned) Allocate(size, align int) ([]byte, error) {
	if size < 0 {
		return nil, rterr.Newf(rterr.KindAllocation, "negative allocation size %d", size)
	}
	if align <= 0 || align&(align-1) != 0 {
		return nil, rterr.Newf(rterr.KindAllocation, "alignment %d is not a power of two", align)
	}
	return AlignedBytes(size, align), nil
}

// Limited caps the total number of live bytes handed out by Inner.
// The zero Inner uses Aligned.
type Limited struct {
	Limit int64
	Inner Allocator
	used  atomic.Int64
}

// NewLimited returns an allocator that fails once limit bytes are live.
func NewLimited(limit int64) *Limited {
	return &Limited{Limit: limit}
}

// Allocate implements Allocator.
func (l *Limited) Allocate(size, align int) ([]byte, error) {
	for {
		used := l.used.Load()
		if used+int64(size) > l.Limit {
			return nil, rterr.Newf(rterr.KindAllocation, "cannot allocate %d bytes: %d of %d in use", size, used, l.Limit)
		}
		if l.used.CompareAndSwap(used, used+int64(size)) {
			break
		}
	}
	inner := l.Inner
	if inner == nil {
		inner = Aligned{}
	}
	b, err := inner.Allocate(size, align)
	if err != nil {
		l.used.Add(-int64(size))
		return nil, err
	}
	return b, nil
}

// Free implements Freer.
func (l *Limited) Free(b []byte) {
	l.used.Add(-int64(len(b)))
}

// Used returns the live byte count.
func (l *Limited) Used() int64 {
	return l.used.Load()
}

func (l *Limited) String() string {
	return fmt.Sprintf("limited(%d/%d)", l.Used(), l.Limit)
}

// Release returns b to a if the allocator tracks frees.
func Release(a Allocator, b []byte) {
	if f, ok := a.(Freer); ok && b != nil {
		f.Free(b)
	}
}
