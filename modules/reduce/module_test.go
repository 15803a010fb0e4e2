package reduce

import (
	"testing"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	s := region.Shape{4, 1, 1}
	in := access.NewView(make([]byte, 16), s, region.Full(s), 4, access.Int32, access.ReadWrite, access.GlobalBuffer)
	for i := 0; i < 4; i++ {
		access.Store(in, i, int32(i+1))
	}
	one := region.Shape{1, 1, 1}
	out := access.NewView(make([]byte, 8), one, region.Full(one), 8, access.Float64, access.Write, access.GlobalBuffer)

	require.NoError(t, Sum([]access.View{in, out}))
	assert.Equal(t, 10.0, access.Load[float64](out, 0))
}
