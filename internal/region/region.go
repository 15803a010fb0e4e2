// Package region models rectangular index regions of up to three
// dimensions. Every region is normalised to three dimensions: missing
// trailing dimensions get offset 0 and extent 1, so 1-D and 3-D requests over
// the same memory compare directly.
package region

import (
	"fmt"
	"iter"
	"strings"

	"github.com/specialistvlad/memgrid/internal/rterr"
)

// MaxDims is the highest dimensionality a shape or region may have.
const MaxDims = 3

// Shape is a row-major extent padded to three dimensions.
type Shape [MaxDims]int

// NewShape validates dims and pads them to three dimensions.
func NewShape(dims ...int) (Shape, error) {
	if len(dims) == 0 || len(dims) > MaxDims {
		return Shape{}, rterr.Newf(rterr.KindRange, "shape must have 1 to %d dimensions, got %d", MaxDims, len(dims))
	}
	s := Shape{1, 1, 1}
	for i, d := range dims {
		if d < 0 {
			return Shape{}, rterr.Newf(rterr.KindRange, "dimension %d is negative (%d)", i, d)
		}
		s[i] = d
	}
	return s, nil
}

// Size returns the number of elements.
func (s Shape) Size() int {
	return s[0] * s[1] * s[2]
}

// Empty reports whether any dimension is zero.
func (s Shape) Empty() bool {
	return s.Size() == 0
}

// Dims counts dimensions after collapsing trailing unit dimensions.
func (s Shape) Dims() int {
	return Full(s).Dims()
}

// Strides returns element strides; the last dimension is fastest.
func (s Shape) Strides() [MaxDims]int {
	return [MaxDims]int{s[1] * s[2], s[2], 1}
}

// Linear maps coordinates to a row-major element index.
func (s Shape) Linear(c [MaxDims]int) int {
	st := s.Strides()
	return c[0]*st[0] + c[1]*st[1] + c[2]*st[2]
}

// Slice returns the shape trimmed to its effective dimensions.
func (s Shape) Slice() []int {
	out := make([]int, s.Dims())
	copy(out, s[:])
	return out
}

// Region is a box of indices: Offset is inclusive, Offset+Extent exclusive.
type Region struct {
	Offset [MaxDims]int
	Extent [MaxDims]int
}

// New builds a region from an offset and an extent. A nil offset means the
// origin; otherwise both must have the same length.
func New(offset, extent []int) (Region, error) {
	if len(extent) == 0 || len(extent) > MaxDims {
		return Region{}, rterr.Newf(rterr.KindRange, "range must have 1 to %d dimensions, got %d", MaxDims, len(extent))
	}
	if offset != nil && len(offset) != len(extent) {
		return Region{}, rterr.Newf(rterr.KindRange, "offset has %d dimensions but range has %d", len(offset), len(extent))
	}
	r := Region{Extent: [MaxDims]int{1, 1, 1}}
	for i := range extent {
		if extent[i] < 0 {
			return Region{}, rterr.Newf(rterr.KindRange, "range dimension %d is negative (%d)", i, extent[i])
		}
		r.Extent[i] = extent[i]
		if offset != nil {
			if offset[i] < 0 {
				return Region{}, rterr.Newf(rterr.KindRange, "offset dimension %d is negative (%d)", i, offset[i])
			}
			r.Offset[i] = offset[i]
		}
	}
	return r, nil
}

// Full returns the region covering the whole shape.
func Full(s Shape) Region {
	return Region{Extent: s}
}

// Empty reports whether the region has a zero extent in any dimension.
// Empty regions never overlap anything.
func (r Region) Empty() bool {
	return r.Extent[0] == 0 || r.Extent[1] == 0 || r.Extent[2] == 0
}

// Size returns the number of elements in the region.
func (r Region) Size() int {
	return r.Extent[0] * r.Extent[1] * r.Extent[2]
}

// Dims returns the effective dimensionality. Trailing dimensions pinned to a
// single point at offset zero collapse, so a 3-D region of shape (n,1,1)
// reports one dimension.
func (r Region) Dims() int {
	d := MaxDims
	for d > 1 && r.Extent[d-1] == 1 && r.Offset[d-1] == 0 {
		d--
	}
	return d
}

// End returns the exclusive upper bound in dimension d.
func (r Region) End(d int) int {
	return r.Offset[d] + r.Extent[d]
}

// Overlaps reports whether the two regions share at least one index.
func (r Region) Overlaps(o Region) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	for d := 0; d < MaxDims; d++ {
		if r.Offset[d] >= o.End(d) || o.Offset[d] >= r.End(d) {
			return false
		}
	}
	return true
}

// Covers reports whether every index of o is inside r.
func (r Region) Covers(o Region) bool {
	if o.Empty() {
		return true
	}
	if r.Empty() {
		return false
	}
	for d := 0; d < MaxDims; d++ {
		if o.Offset[d] < r.Offset[d] || o.End(d) > r.End(d) {
			return false
		}
	}
	return true
}

// Intersect returns the common part of both regions.
func (r Region) Intersect(o Region) (Region, bool) {
	if !r.Overlaps(o) {
		return Region{}, false
	}
	var out Region
	for d := 0; d < MaxDims; d++ {
		lo := max(r.Offset[d], o.Offset[d])
		hi := min(r.End(d), o.End(d))
		out.Offset[d] = lo
		out.Extent[d] = hi - lo
	}
	return out, true
}

// Within reports whether the region lies inside a shape.
func (r Region) Within(s Shape) bool {
	for d := 0; d < MaxDims; d++ {
		if r.Offset[d] < 0 || r.Extent[d] < 0 || r.End(d) > s[d] {
			return false
		}
	}
	return true
}

// Translate shifts the region by base.
func (r Region) Translate(base [MaxDims]int) Region {
	out := r
	for d := 0; d < MaxDims; d++ {
		out.Offset[d] += base[d]
	}
	return out
}

// Shape returns the extent of the region as a shape.
func (r Region) Shape() Shape {
	return Shape(r.Extent)
}

// Coords maps a row-major index inside the region to absolute coordinates.
func (r Region) Coords(i int) [MaxDims]int {
	e := r.Extent
	return [MaxDims]int{
		r.Offset[0] + i/(e[1]*e[2]),
		r.Offset[1] + (i/e[2])%e[1],
		r.Offset[2] + i%e[2],
	}
}

// Run is a contiguous span of elements in a row-major layout.
type Run struct {
	Start int
	Len   int
}

// Runs yields the region as maximal contiguous runs of a row-major buffer of
// the given shape. Adjacent rows are merged.
func (r Region) Runs(s Shape) iter.Seq[Run] {
	return func(yield func(Run) bool) {
		if r.Empty() {
			return
		}
		var cur Run
		have := false
		for i := r.Offset[0]; i < r.End(0); i++ {
			for j := r.Offset[1]; j < r.End(1); j++ {
				start := s.Linear([MaxDims]int{i, j, r.Offset[2]})
				if have && cur.Start+cur.Len == start {
					cur.Len += r.Extent[2]
					continue
				}
				if have && !yield(cur) {
					return
				}
				cur = Run{Start: start, Len: r.Extent[2]}
				have = true
			}
		}
		if have {
			yield(cur)
		}
	}
}

// IsContiguous reports whether the region occupies one contiguous span of a
// buffer with the given shape.
func (r Region) IsContiguous(s Shape) bool {
	n := 0
	for range r.Runs(s) {
		n++
		if n > 1 {
			return false
		}
	}
	return true
}

func (r Region) String() string {
	d := r.Dims()
	parts := make([]string, d)
	for i := 0; i < d; i++ {
		parts[i] = fmt.Sprintf("%d:%d", r.Offset[i], r.End(i))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
