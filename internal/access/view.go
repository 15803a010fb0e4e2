package access

import (
	"fmt"
	"iter"
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/specialistvlad/memgrid/internal/rterr"
)

// View is the flattened form of an accessor handed to payloads: a byte slice
// laid out row-major as shape, and the region of it the accessor covers.
// Element indices passed to View methods are row-major positions inside the
// region, so index 0 is the accessor's offset.
type View struct {
	data     []byte
	shape    region.Shape
	region   region.Region
	elem     ElemType
	elemSize int
	mode     Mode
	target   Target

	contiguous bool
	base       int
}

// NewView builds a view over data. The region must lie within shape and data
// must hold shape.Size() elements.
func NewView(data []byte, shape region.Shape, r region.Region, elemSize int, elem ElemType, mode Mode, target Target) View {
	v := View{
		data:     data,
		shape:    shape,
		region:   r,
		elem:     elem,
		elemSize: elemSize,
		mode:     mode,
		target:   target,
	}
	v.contiguous = r.IsContiguous(shape)
	if !r.Empty() {
		v.base = shape.Linear(r.Offset)
	}
	return v
}

// NewLocalView allocates a zeroed scratch view of n elements.
func NewLocalView(elemSize, n int, elem ElemType) View {
	shape := region.Shape{n, 1, 1}
	return NewView(make([]byte, n*elemSize), shape, region.Full(shape), elemSize, elem, ReadWrite, Local)
}

// Len returns the number of elements in the view.
func (v View) Len() int { return v.region.Size() }

// Range returns the extent of the view in its effective dimensions.
func (v View) Range() []int {
	out := make([]int, v.region.Dims())
	copy(out, v.region.Extent[:])
	return out
}

// Region returns the covered region in the coordinates of the backing layout.
func (v View) Region() region.Region { return v.region }

func (v View) ElemSize() int  { return v.elemSize }
func (v View) Elem() ElemType { return v.elem }
func (v View) Mode() Mode     { return v.mode }
func (v View) Target() Target { return v.target }

// Index converts coordinates relative to the view into an element index.
func (v View) Index(coords ...int) int {
	var c [region.MaxDims]int
	copy(c[:], coords)
	e := v.region.Extent
	for d := 0; d < region.MaxDims; d++ {
		if c[d] < 0 || c[d] >= e[d] {
			panic(rterr.Newf(rterr.KindRange, "index %v out of range %v", coords, v.Range()))
		}
	}
	return c[0]*e[1]*e[2] + c[1]*e[2] + c[2]
}

func (v View) offset(i int) int {
	if i < 0 || i >= v.region.Size() {
		panic(rterr.Newf(rterr.KindRange, "element %d out of range for view of %d elements", i, v.region.Size()))
	}
	if v.contiguous {
		return (v.base + i) * v.elemSize
	}
	return v.shape.Linear(v.region.Coords(i)) * v.elemSize
}

func (v View) mustWrite() {
	if !v.mode.Writes() {
		panic(rterr.Newf(rterr.KindAccessor, "write through %s accessor", v.mode))
	}
}

// Raw returns the bytes of element i. The slice aliases the view.
func (v View) Raw(i int) []byte {
	off := v.offset(i)
	return v.data[off : off+v.elemSize : off+v.elemSize]
}

// SetRaw overwrites element i with b.
func (v View) SetRaw(i int, b []byte) {
	v.mustWrite()
	if len(b) != v.elemSize {
		panic(rterr.Newf(rterr.KindRange, "element is %d bytes, got %d", v.elemSize, len(b)))
	}
	off := v.offset(i)
	copy(v.data[off:off+v.elemSize], b)
}

// Runs yields the byte spans of the view in order.
func (v View) Runs() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for run := range v.region.Runs(v.shape) {
			lo := run.Start * v.elemSize
			hi := lo + run.Len*v.elemSize
			if !yield(v.data[lo:hi:hi]) {
				return
			}
		}
	}
}

func checkSize[T any](v View) {
	var zero T
	if int(unsafe.Sizeof(zero)) != v.elemSize {
		panic(rterr.Newf(rterr.KindAccessor, "element type %T is %d bytes, view elements are %d", zero, unsafe.Sizeof(zero), v.elemSize))
	}
}

// Load reads element i as T.
func Load[T any](v View, i int) T {
	checkSize[T](v)
	return *(*T)(unsafe.Pointer(&v.data[v.offset(i)]))
}

// Store writes x to element i. It panics on a view without write access.
func Store[T any](v View, i int, x T) {
	checkSize[T](v)
	v.mustWrite()
	*(*T)(unsafe.Pointer(&v.data[v.offset(i)])) = x
}

// Elements iterates over the view as (index, value) pairs.
func Elements[T any](v View) iter.Seq2[int, T] {
	checkSize[T](v)
	return func(yield func(int, T) bool) {
		for i := 0; i < v.Len(); i++ {
			if !yield(i, *(*T)(unsafe.Pointer(&v.data[v.offset(i)]))) {
				return
			}
		}
	}
}

// Collect copies the view into a new slice.
func Collect[T any](v View) []T {
	out := make([]T, 0, v.Len())
	for _, x := range Elements[T](v) {
		out = append(out, x)
	}
	return out
}

// AtomicAddInt32 adds delta to element i and returns the new value.
func AtomicAddInt32(v View, i int, delta int32) int32 {
	checkSize[int32](v)
	v.mustWrite()
	return atomic.AddInt32((*int32)(unsafe.Pointer(&v.data[v.offset(i)])), delta)
}

// AtomicAddUint32 adds delta to element i and returns the new value.
func AtomicAddUint32(v View, i int, delta uint32) uint32 {
	checkSize[uint32](v)
	v.mustWrite()
	return atomic.AddUint32((*uint32)(unsafe.Pointer(&v.data[v.offset(i)])), delta)
}

// AtomicAddFloat32 adds delta to element i with a compare-and-swap loop.
func AtomicAddFloat32(v View, i int, delta float32) float32 {
	checkSize[float32](v)
	v.mustWrite()
	p := (*uint32)(unsafe.Pointer(&v.data[v.offset(i)]))
	for {
		old := atomic.LoadUint32(p)
		next := math.Float32bits(math.Float32frombits(old) + delta)
		if atomic.CompareAndSwapUint32(p, old, next) {
			return math.Float32frombits(next)
		}
	}
}

// Float64 reads element i converted to float64. It requires a known element
// type.
func (v View) Float64(i int) float64 {
	switch v.elem {
	case Float32:
		return float64(Load[float32](v, i))
	case Float64:
		return Load[float64](v, i)
	case Int32:
		return float64(Load[int32](v, i))
	case Int64:
		return float64(Load[int64](v, i))
	case Uint32:
		return float64(Load[uint32](v, i))
	case Uint8:
		return float64(Load[uint8](v, i))
	}
	panic(rterr.Newf(rterr.KindAccessor, "view has no numeric element type (%s)", v.elem))
}

// SetFloat64 converts x to the view's element type and stores it.
func (v View) SetFloat64(i int, x float64) {
	switch v.elem {
	case Float32:
		Store(v, i, float32(x))
	case Float64:
		Store(v, i, x)
	case Int32:
		Store(v, i, int32(x))
	case Int64:
		Store(v, i, int64(x))
	case Uint32:
		Store(v, i, uint32(x))
	case Uint8:
		Store(v, i, uint8(x))
	default:
		panic(rterr.Newf(rterr.KindAccessor, "view has no numeric element type (%s)", v.elem))
	}
}

// EncodeFloat64 returns the byte encoding of x in element type e.
func EncodeFloat64(e ElemType, x float64) ([]byte, error) {
	if e.Size() == 0 {
		return nil, rterr.Newf(rterr.KindAccessor, "cannot encode into element type %s", e)
	}
	b := make([]byte, e.Size())
	shape := region.Shape{1, 1, 1}
	NewView(b, shape, region.Full(shape), e.Size(), e, Write, HostBuffer).SetFloat64(0, x)
	return b, nil
}

func (v View) String() string {
	return fmt.Sprintf("view(%s %s %s x%d)", v.mode, v.target, v.region, v.elemSize)
}
