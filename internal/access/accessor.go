package access

import (
	"fmt"

	"github.com/specialistvlad/memgrid/internal/arena"
	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/specialistvlad/memgrid/internal/rterr"
)

// Binding describes the storage object an accessor is bound to.
type Binding struct {
	Object arena.Handle
	// Shape is the bound object's own shape.
	Shape region.Shape
	// Base is the bound object's offset inside its root allocation; non-zero
	// for sub-buffers.
	Base     [region.MaxDims]int
	ElemSize int
	Elem     ElemType
}

// Accessor declares how a command (or the host) uses a region of a storage
// object. It carries the object handle, never the object itself.
type Accessor struct {
	binding Binding
	rel     region.Region
	mode    Mode
	target  Target
	owner   uint64

	localCount int
}

type options struct {
	offset []int
	rng    []int
	target Target
	owner  uint64
}

// Option configures an accessor.
type Option func(*options)

// WithOffset sets the accessor offset relative to the bound object.
func WithOffset(offset ...int) Option {
	return func(o *options) { o.offset = offset }
}

// WithRange sets the accessor range. The default is the full object.
func WithRange(rng ...int) Option {
	return func(o *options) { o.rng = rng }
}

// WithTarget sets the access target. The default is GlobalBuffer.
func WithTarget(t Target) Option {
	return func(o *options) { o.target = t }
}

// OwnedBy binds the accessor to a command group at construction. Accessors
// built without an owner are placeholders.
func OwnedBy(handlerID uint64) Option {
	return func(o *options) { o.owner = handlerID }
}

// New validates a request against b and returns the accessor.
func New(b Binding, mode Mode, opts ...Option) (*Accessor, error) {
	o := options{target: GlobalBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	if err := Validate(mode, o.target); err != nil {
		return nil, err
	}
	if o.target == Local {
		return nil, rterr.New(rterr.KindAccessor, "local accessors cannot bind a storage object")
	}
	if b.Shape.Empty() {
		return nil, rterr.Newf(rterr.KindRange, "storage object %s has zero extent and cannot be accessed", b.Object)
	}

	rel := region.Full(b.Shape)
	if o.rng != nil || o.offset != nil {
		rng := o.rng
		if rng == nil {
			rng = make([]int, len(o.offset))
			for d := range rng {
				rng[d] = b.Shape[d] - o.offset[d]
			}
		}
		r, err := region.New(o.offset, rng)
		if err != nil {
			return nil, err
		}
		rel = r
	}
	if !rel.Within(b.Shape) {
		return nil, rterr.Newf(rterr.KindRange, "accessor region %s exceeds storage extent %v", rel, b.Shape.Slice())
	}

	return &Accessor{
		binding: b,
		rel:     rel,
		mode:    mode,
		target:  o.target,
		owner:   o.owner,
	}, nil
}

// NewLocal returns a work-group scratch accessor of count elements.
func NewLocal(elemSize, count int, elem ElemType, owner uint64) *Accessor {
	shape := region.Shape{count, 1, 1}
	return &Accessor{
		binding:    Binding{Shape: shape, ElemSize: elemSize, Elem: elem},
		rel:        region.Full(shape),
		mode:       ReadWrite,
		target:     Local,
		owner:      owner,
		localCount: count,
	}
}

func (a *Accessor) Object() arena.Handle { return a.binding.Object }
func (a *Accessor) Binding() Binding     { return a.binding }
func (a *Accessor) Mode() Mode           { return a.mode }
func (a *Accessor) Target() Target       { return a.target }
func (a *Accessor) ElemSize() int        { return a.binding.ElemSize }
func (a *Accessor) Elem() ElemType       { return a.binding.Elem }
func (a *Accessor) Owner() uint64        { return a.owner }

// Placeholder reports whether the accessor was created outside any command
// group and must be registered with Require before use.
func (a *Accessor) Placeholder() bool { return a.owner == 0 }

// IsLocal reports whether this is a work-group scratch accessor.
func (a *Accessor) IsLocal() bool { return a.target == Local }

// LocalCount returns the element count of a local accessor.
func (a *Accessor) LocalCount() int { return a.localCount }

// Region returns the accessed region relative to the bound object.
func (a *Accessor) Region() region.Region { return a.rel }

// RootRegion returns the accessed region in root allocation coordinates;
// this is what hazard detection compares.
func (a *Accessor) RootRegion() region.Region { return a.rel.Translate(a.binding.Base) }

// Len returns the number of accessed elements.
func (a *Accessor) Len() int { return a.rel.Size() }

func (a *Accessor) String() string {
	if a.IsLocal() {
		return fmt.Sprintf("local[%d]", a.localCount)
	}
	return fmt.Sprintf("%s%s:%s/%s", a.binding.Object, a.rel, a.mode, a.target)
}
