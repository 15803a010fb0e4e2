package storage

import (
	"unsafe"
	"weak"
)

// FinalData is a destination the contents of a root object are written to
// when it is destroyed.
type FinalData interface {
	deliver(data []byte, elemSize int)
}

type finalFunc func(data []byte, elemSize int)

func (f finalFunc) deliver(data []byte, elemSize int) { f(data, elemSize) }

// ToSlice writes the final contents into dst. Extra elements on either side
// are ignored.
func ToSlice[T any](dst []T) FinalData {
	return finalFunc(func(data []byte, _ int) {
		copy(bytesOf(dst), data)
	})
}

// ToIter calls yield with every element in row-major order.
func ToIter[T any](yield func(T)) FinalData {
	return finalFunc(func(data []byte, elemSize int) {
		for off := 0; off+elemSize <= len(data); off += elemSize {
			yield(*(*T)(unsafe.Pointer(&data[off])))
		}
	})
}

// ToWeak writes into the slice p points to if it is still reachable when the
// object is destroyed.
func ToWeak[T any](p weak.Pointer[[]T]) FinalData {
	return finalFunc(func(data []byte, _ int) {
		if dst := p.Value(); dst != nil {
			copy(bytesOf(*dst), data)
		}
	})
}

func bytesOf[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}
