package memory

import (
	"errors"
	"testing"

	"github.com/specialistvlad/memgrid/internal/rterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignedBytes(t *testing.T) {
	for _, size := range []int{1, 7, 64, 1000} {
		b := AlignedBytes(size, CacheLineSize)
		assert.Len(t, b, size)
		assert.Equal(t, size, cap(b))
		assert.True(t, IsAligned(b, CacheLineSize))
	}
	assert.Nil(t, AlignedBytes(0, CacheLineSize))
	assert.Equal(t, 128, AlignedSize(65, 64))
	assert.Equal(t, 64, AlignedSize(64, 64))
}

func TestAligned_RejectsBadAlignment(t *testing.T) {
	_, err := Aligned{}.Allocate(16, 3)
	assert.True(t, errors.Is(err, rterr.ErrAllocation))
	_, err = Aligned{}.Allocate(-1, 8)
	assert.True(t, errors.Is(err, rterr.ErrAllocation))
}

func TestLimited(t *testing.T) {
	l := NewLimited(100)

	a, err := l.Allocate(60, CacheLineSize)
	require.NoError(t, err)
	assert.EqualValues(t, 60, l.Used())

	_, err = l.Allocate(60, CacheLineSize)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rterr.ErrAllocation))
	assert.EqualValues(t, 60, l.Used(), "failed allocation must not leak accounting")

	Release(l, a)
	assert.EqualValues(t, 0, l.Used())

	_, err = l.Allocate(100, CacheLineSize)
	assert.NoError(t, err)
}
