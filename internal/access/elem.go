package access

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/memgrid/internal/rterr"
)

// ElemType describes the element type of a storage object when it is known.
// Raw objects created from a byte size carry ElemRaw.
type ElemType uint8

const (
	ElemRaw ElemType = iota
	Float32
	Float64
	Int32
	Int64
	Uint32
	Uint8
)

var elemInfo = [...]struct {
	name string
	size int
}{
	ElemRaw: {"raw", 0},
	Float32: {"float32", 4},
	Float64: {"float64", 8},
	Int32:   {"int32", 4},
	Int64:   {"int64", 8},
	Uint32:  {"uint32", 4},
	Uint8:   {"uint8", 1},
}

func (e ElemType) String() string {
	if int(e) < len(elemInfo) {
		return elemInfo[e].name
	}
	return fmt.Sprintf("elem(%d)", uint8(e))
}

// Size returns the element size in bytes, or 0 for ElemRaw.
func (e ElemType) Size() int {
	if int(e) < len(elemInfo) {
		return elemInfo[e].size
	}
	return 0
}

// ParseElemType converts a name such as "float32" into an ElemType.
func ParseElemType(s string) (ElemType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for e := Float32; int(e) < len(elemInfo); e++ {
		if elemInfo[e].name == norm {
			return e, nil
		}
	}
	return ElemRaw, rterr.Newf(rterr.KindRuntime, "unknown element type %q", s)
}

// ElemTypeOf returns the ElemType for T, or ElemRaw if T is not one of the
// numeric element types.
func ElemTypeOf[T any]() ElemType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	case uint32:
		return Uint32
	case uint8:
		return Uint8
	}
	return ElemRaw
}
