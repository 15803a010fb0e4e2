package access

import (
	"slices"
	"sync"
	"testing"

	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float32View(t *testing.T, dims []int, offset, extent []int, mode Mode) (View, []byte) {
	t.Helper()
	shape, err := region.NewShape(dims...)
	require.NoError(t, err)
	r, err := region.New(offset, extent)
	require.NoError(t, err)
	data := make([]byte, shape.Size()*4)
	return NewView(data, shape, r, 4, Float32, mode, GlobalBuffer), data
}

func TestView_ContiguousStoreLoad(t *testing.T) {
	v, _ := float32View(t, []int{10}, []int{2}, []int{5}, Write)

	for i := 0; i < v.Len(); i++ {
		Store(v, i, float32(i)+0.5)
	}
	assert.Equal(t, []float32{0.5, 1.5, 2.5, 3.5, 4.5}, Collect[float32](v))
	assert.Equal(t, []int{5}, v.Range())
}

func TestView_StridedRegion(t *testing.T) {
	full, data := float32View(t, []int{3, 4}, []int{0, 0}, []int{3, 4}, Write)
	for i := 0; i < full.Len(); i++ {
		Store(full, i, float32(i))
	}

	col := NewView(data, full.shape, region.Region{Offset: [3]int{0, 1, 0}, Extent: [3]int{3, 2, 1}}, 4, Float32, Read, GlobalBuffer)
	assert.Equal(t, []float32{1, 2, 5, 6, 9, 10}, Collect[float32](col))
	assert.Equal(t, 3, col.Index(1, 1))
	assert.Equal(t, float32(6), Load[float32](col, col.Index(1, 1)))

	var spans [][]byte
	for b := range col.Runs() {
		spans = append(spans, b)
	}
	assert.Len(t, spans, 3)
}

func TestView_WriteThroughReadOnlyPanics(t *testing.T) {
	v, _ := float32View(t, []int{4}, nil, []int{4}, Read)
	assert.Panics(t, func() { Store(v, 0, float32(1)) })
	assert.Panics(t, func() { v.SetRaw(0, []byte{0, 0, 0, 0}) })
}

func TestView_BoundsAndSizeChecks(t *testing.T) {
	v, _ := float32View(t, []int{4}, nil, []int{4}, ReadWrite)
	assert.Panics(t, func() { Load[float32](v, 4) })
	assert.Panics(t, func() { Load[float64](v, 0) })
	assert.Panics(t, func() { v.Index(4) })
}

func TestView_Float64Conversion(t *testing.T) {
	for _, e := range []ElemType{Float32, Float64, Int32, Int64, Uint32, Uint8} {
		t.Run(e.String(), func(t *testing.T) {
			shape := region.Shape{3, 1, 1}
			v := NewView(make([]byte, 3*e.Size()), shape, region.Full(shape), e.Size(), e, ReadWrite, GlobalBuffer)
			v.SetFloat64(1, 7)
			assert.Equal(t, 7.0, v.Float64(1))
			assert.Equal(t, 0.0, v.Float64(0))
		})
	}

	b, err := EncodeFloat64(Int32, 258)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 1, 0, 0}, b)
	_, err = EncodeFloat64(ElemRaw, 1)
	assert.Error(t, err)
}

func TestView_Atomics(t *testing.T) {
	shape := region.Shape{1, 1, 1}
	iv := NewView(make([]byte, 4), shape, region.Full(shape), 4, Int32, Atomic, GlobalBuffer)
	fv := NewView(make([]byte, 4), shape, region.Full(shape), 4, Float32, Atomic, GlobalBuffer)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			AtomicAddInt32(iv, 0, 1)
			AtomicAddFloat32(fv, 0, 0.5)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), Load[int32](iv, 0))
	assert.Equal(t, float32(50), Load[float32](fv, 0))
}

func TestNewLocalView(t *testing.T) {
	v := NewLocalView(4, 8, Uint32)
	assert.Equal(t, 8, v.Len())
	assert.Equal(t, Local, v.Target())
	AtomicAddUint32(v, 3, 2)
	assert.True(t, slices.Equal([]uint32{0, 0, 0, 2, 0, 0, 0, 0}, Collect[uint32](v)))
}
