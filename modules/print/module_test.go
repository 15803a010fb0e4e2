package print

import (
	"bytes"
	"context"
	"testing"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/region"
	"github.com/specialistvlad/memgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	r := registry.New()
	(&Module{Out: &out}).Register(r)
	require.NoError(t, r.ValidateRegistry(context.Background()))

	def, ok := r.Lookup("print")
	require.True(t, ok)
	in := def.NewInput().(*Input)
	in.Label = "a"

	s := region.Shape{3, 1, 1}
	v := access.NewView(make([]byte, 12), s, region.Full(s), 4, access.Int32, access.Read, access.HostBuffer)
	require.NoError(t, def.Host(in)(context.Background(), []access.View{v}))
	assert.Equal(t, "      a[0] = [0 0 0]\n", out.String())
}
