package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/memgrid/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

const workloadHCL = `
device "gpu0" {
  kind          = "sim"
  compute_units = 2
}

queue "q0" {
  device   = "gpu0"
  in_order = true
  fallback = "cpu"
}

buffer "a" {
  element = "float32"
  shape   = [4]
  init    = [1, 2, 3, 4]
}

buffer "lo" {
  view_of = "a"
  offset  = [0]
  range   = [2]
}

buffer "scratch" {
  element    = "int32"
  shape      = [2, 2]
  write_back = false
}

command "scale" {
  queue  = "q0"
  kernel = "scale"
  range  = [4]

  accessor "data" {
    buffer = "a"
    mode   = "read_write"
  }

  arguments {
    factor = 2
  }

  depends_on = ["command.other"]
}
`

const manifestHCL = `
kernel "scale" {
  description = "Multiplies every element."

  input "factor" {
    type    = number
    default = 1
  }
  input "tags" {
    type = list(string)
  }
}
`

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.hcl", workloadHCL)
	modules := filepath.Join(dir, "modules")
	writeFile(t, modules, filepath.Join("scale", "manifest.hcl"), manifestHCL)

	model, conv, err := NewLoader().Load(context.Background(), main, modules)
	require.NoError(t, err)
	require.NotNil(t, conv)

	w := model.Workload
	require.Len(t, w.Devices, 1)
	assert.Equal(t, &config.Device{Name: "gpu0", Kind: "sim", ComputeUnits: 2}, w.Devices[0])
	require.Len(t, w.Queues, 1)
	assert.Equal(t, &config.Queue{Name: "q0", Device: "gpu0", InOrder: true, Fallback: "cpu"}, w.Queues[0])

	require.Len(t, w.Buffers, 3)
	a := w.Buffers[0]
	assert.Equal(t, "float32", a.Element)
	assert.Equal(t, []int{4}, a.Shape)
	assert.True(t, a.WriteBack)
	assert.Equal(t, 4, a.Init.LengthInt())
	assert.Equal(t, "a", w.Buffers[1].ViewOf)
	assert.True(t, w.Buffers[1].Init.IsNull())
	assert.False(t, w.Buffers[2].WriteBack)

	require.Len(t, w.Commands, 1)
	c := w.Commands[0]
	assert.Equal(t, "scale", c.Kernel)
	assert.Equal(t, []int{4}, c.Range)
	assert.Equal(t, []string{"command.other"}, c.DependsOn)
	require.Len(t, c.Accessors, 1)
	assert.Equal(t, &config.Accessor{Name: "data", Buffer: "a", Mode: "read_write"}, c.Accessors[0])
	require.Contains(t, c.Arguments, "factor")

	k := model.Kernels["scale"]
	require.NotNil(t, k)
	assert.Equal(t, "Multiplies every element.", k.Description)
	require.NotNil(t, k.Inputs["factor"].Default)
	assert.True(t, k.Inputs["factor"].Optional)
	assert.Equal(t, cty.Number, k.Inputs["factor"].Type)
	assert.Equal(t, cty.List(cty.String), k.Inputs["tags"].Type)
	assert.False(t, k.Inputs["tags"].Optional)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", `buffer "a" {`, "failed to parse"},
		{"unknown block", `widget "x" {}`, "failed to decode"},
		{"view with element", `
buffer "v" {
  view_of = "a"
  element = "int32"
}`, "cannot declare element"},
		{"missing element", `buffer "a" { shape = [1] }`, "needs an element type"},
		{"bad type", `
kernel "k" {
  input "x" { type = tensor }
}`, "unknown primitive type"},
		{"duplicate manifest", `
kernel "k" {}
kernel "k" {}
`, "declared twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, t.TempDir(), "main.hcl", tt.content)
			_, _, err := NewLoader().Load(context.Background(), p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoader_MissingPathIsEmpty(t *testing.T) {
	model, _, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, model.Workload.Commands)
	assert.Empty(t, model.Kernels)
}
