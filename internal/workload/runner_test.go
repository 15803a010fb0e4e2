package workload

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/config"
	"github.com/specialistvlad/memgrid/internal/event"
	"github.com/specialistvlad/memgrid/internal/hcl"
	"github.com/specialistvlad/memgrid/internal/registry"
	"github.com/specialistvlad/memgrid/internal/rterr"
	"github.com/specialistvlad/memgrid/modules/arith"
	"github.com/specialistvlad/memgrid/modules/fault"
	"github.com/specialistvlad/memgrid/modules/fill"
	"github.com/specialistvlad/memgrid/modules/reduce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// runHCL loads src as a workload file and runs it with the arithmetic test
// kernels registered.
func runHCL(t *testing.T, src string) (*Result, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	ctx := context.Background()
	model, conv, err := hcl.NewLoader().Load(ctx, path)
	require.NoError(t, err)

	reg := registry.New()
	for _, m := range []registry.Module{&fill.Module{}, &arith.Module{}, &reduce.Module{}, &fault.Module{}} {
		m.Register(reg)
	}
	require.NoError(t, reg.PopulateDefinitionsFromModel(model))
	return New(reg, conv, WithWorkers(2)).Run(ctx, model.Workload)
}

func TestRun_ReadAfterWriteChain(t *testing.T) {
	res, err := runHCL(t, `
device "gpu" {
  kind = "sim"
}
queue "q" {
  device = "gpu"
}
buffer "a" {
  element = "float32"
  shape   = [4]
}
buffer "total" {
  element = "float64"
  shape   = [1]
}
command "fill" {
  queue  = "q"
  kernel = "fill"
  accessor "out" {
    buffer = "a"
    mode   = "discard_write"
  }
  arguments {
    value = 2
  }
}
command "scale" {
  queue  = "q"
  kernel = "scale"
  accessor "data" {
    buffer = "a"
    mode   = "read_write"
  }
  arguments {
    factor = 3
  }
}
command "sum" {
  queue  = "q"
  kernel = "sum"
  accessor "in" {
    buffer = "a"
    mode   = "read"
  }
  accessor "out" {
    buffer = "total"
    mode   = "discard_write"
  }
}
`)
	require.NoError(t, err)
	require.NoError(t, res.Err())

	a, ok := res.Buffer("a")
	require.True(t, ok)
	assert.Equal(t, []float64{6, 6, 6, 6}, a.Values)
	assert.Equal(t, []float64{6, 6, 6, 6}, a.WrittenBack)
	total, _ := res.Buffer("total")
	assert.Equal(t, []float64{24}, total.WrittenBack)

	sum, _ := res.Command("sum")
	assert.Equal(t, "gpu", sum.Device)
	assert.Equal(t, 3, res.Summary.Completed)
}

func TestRun_FailurePropagation(t *testing.T) {
	res, err := runHCL(t, `
device "gpu" {
  kind = "sim"
}
queue "q" {
  device = "gpu"
}
buffer "a" {
  element = "float32"
  init    = [1, 1, 1]
}
command "broken" {
  queue  = "q"
  kernel = "fault"
  range  = [3]
  accessor "out" {
    buffer = "a"
    mode   = "write"
  }
  arguments {
    message = "bad write"
  }
}
command "reader" {
  queue  = "q"
  kernel = "scale"
  accessor "data" {
    buffer = "a"
    mode   = "read_write"
  }
}
command "overwrite" {
  queue  = "q"
  kernel = "fill"
  accessor "out" {
    buffer = "a"
    mode   = "discard_write"
  }
  arguments {
    value = 7
  }
}
`)
	require.NoError(t, err)

	broken, _ := res.Command("broken")
	assert.Equal(t, StatusFailed, broken.Status)
	assert.True(t, errors.Is(broken.Err, rterr.ErrExecution))
	assert.ErrorContains(t, broken.Err, "bad write")

	reader, _ := res.Command("reader")
	assert.Equal(t, StatusSkipped, reader.Status)
	assert.True(t, errors.Is(reader.Err, rterr.ErrDependencyFailed))

	overwrite, _ := res.Command("overwrite")
	assert.Equal(t, StatusCompleted, overwrite.Status)

	a, _ := res.Buffer("a")
	assert.Equal(t, []float64{7, 7, 7}, a.Values)
	assert.Equal(t, 1, res.Summary.Failed)
	assert.Equal(t, 1, res.Summary.Skipped)
	assert.Error(t, res.Err())
}

func TestRun_Fallback(t *testing.T) {
	res, err := runHCL(t, `
device "gpu" {
  kind = "sim"
}
device "cpu" {
  kind = "host"
}
queue "accel" {
  device   = "gpu"
  fallback = "host"
}
queue "host" {
  device = "cpu"
}
buffer "a" {
  element = "int32"
  shape   = [2]
}
command "pinned" {
  queue         = "accel"
  kernel        = "fill"
  build_options = "-O2 -device=host"
  accessor "out" {
    buffer = "a"
    mode   = "discard_write"
  }
  arguments {
    value = 4
  }
}
`)
	require.NoError(t, err)
	require.NoError(t, res.Err())
	c, _ := res.Command("pinned")
	assert.Equal(t, "host", c.Queue)
	assert.Equal(t, "cpu", c.Device)
	a, _ := res.Buffer("a")
	assert.Equal(t, []float64{4, 4}, a.Values)
}

func TestRun_SubmissionRejections(t *testing.T) {
	res, err := runHCL(t, `
device "gpu" {
  kind = "sim"
}
queue "q" {
  device = "gpu"
}
buffer "a" {
  element = "float32"
  shape   = [2]
}
command "no_build" {
  queue         = "q"
  kernel        = "fill"
  build_options = "-fail-build"
  accessor "out" {
    buffer = "a"
    mode   = "discard_write"
  }
}
command "too_few" {
  queue  = "q"
  kernel = "add"
  accessor "a" {
    buffer = "a"
    mode   = "read"
  }
}
command "bad_range" {
  queue  = "q"
  kernel = "fill"
  accessor "out" {
    buffer = "a"
    mode   = "write"
    offset = [1]
    range  = [4]
  }
}
command "after" {
  queue      = "q"
  depends_on = ["command.no_build"]
}
`)
	require.NoError(t, err)

	for name, target := range map[string]error{
		"no_build":  rterr.ErrDevice,
		"too_few":   rterr.ErrAccessorContract,
		"bad_range": rterr.ErrInvalidRange,
	} {
		c, ok := res.Command(name)
		require.True(t, ok, name)
		assert.Equal(t, StatusRejected, c.Status, name)
		assert.True(t, errors.Is(c.Err, target), "%s: %v", name, c.Err)
	}
	after, _ := res.Command("after")
	assert.Equal(t, StatusRejected, after.Status)
	assert.ErrorContains(t, after.Err, "was not submitted")
	assert.Equal(t, 4, res.Rejected())
}

func TestRun_Views(t *testing.T) {
	res, err := runHCL(t, `
device "cpu" {
  kind = "host"
}
queue "q" {
  device = "cpu"
}
buffer "whole" {
  element = "float32"
  shape   = [2, 4]
  init    = 1
}
buffer "row" {
  view_of = "whole"
  offset  = [1, 0]
  range   = [1, 4]
}
command "fill_row" {
  queue  = "q"
  kernel = "fill"
  accessor "out" {
    buffer = "row"
    mode   = "discard_write"
  }
  arguments {
    value = 5
  }
}
`)
	require.NoError(t, err)
	require.NoError(t, res.Err())

	whole, _ := res.Buffer("whole")
	assert.Equal(t, []float64{1, 1, 1, 1, 5, 5, 5, 5}, whole.WrittenBack)
	row, _ := res.Buffer("row")
	assert.Equal(t, "whole", row.ViewOf)
	assert.Equal(t, []float64{5, 5, 5, 5}, row.Values)
	assert.Nil(t, row.WrittenBack)
}

func TestRun_Report(t *testing.T) {
	res, err := runHCL(t, `
device "cpu" {
  kind = "host"
}
queue "q" {
  device = "cpu"
}
buffer "a" {
  element    = "float32"
  init       = [1.5, 2]
  write_back = false
}
command "double" {
  queue  = "q"
  kernel = "scale"
  accessor "data" {
    buffer = "a"
    mode   = "read_write"
  }
  arguments {
    factor = 2
  }
}
`)
	require.NoError(t, err)
	a, _ := res.Buffer("a")
	assert.False(t, a.WriteBack)
	assert.Nil(t, a.WrittenBack)

	var out bytes.Buffer
	_, err = res.WriteTo(&out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "✅ double")
	assert.Contains(t, out.String(), "q/cpu")
	assert.Contains(t, out.String(), "[3 4]")
	assert.Contains(t, out.String(), "Summary: 1 completed, 0 failed, 0 skipped, 0 rejected")
}

func TestRun_InvalidWorkloads(t *testing.T) {
	reg := registry.New()
	r := New(reg, hcl.NewConverter())
	ctx := context.Background()

	tests := []struct {
		name string
		w    *config.Workload
		want string
	}{
		{
			name: "duplicate buffer",
			w:    &config.Workload{Buffers: []*config.Buffer{{Name: "a"}, {Name: "a"}}},
			want: `buffer "a" declared twice`,
		},
		{
			name: "undeclared queue",
			w: &config.Workload{
				Queues:   []*config.Queue{{Name: "q"}},
				Commands: []*config.Command{{Name: "c", Queue: "nope"}},
			},
			want: `undeclared queue "nope"`,
		},
		{
			name: "forward dependency",
			w: &config.Workload{
				Queues: []*config.Queue{{Name: "q"}},
				Commands: []*config.Command{
					{Name: "first", Queue: "q", DependsOn: []string{"command.second"}},
					{Name: "second", Queue: "q"},
				},
			},
			want: "not declared before it",
		},
		{
			name: "malformed dependency",
			w: &config.Workload{
				Queues:   []*config.Queue{{Name: "q"}},
				Commands: []*config.Command{{Name: "c", Queue: "q", DependsOn: []string{"c"}}},
			},
			want: "expected command.<name>",
		},
		{
			name: "self fallback",
			w:    &config.Workload{Queues: []*config.Queue{{Name: "q", Fallback: "q"}}},
			want: "cannot fall back to itself",
		},
		{
			name: "unknown device kind",
			w:    &config.Workload{Devices: []*config.Device{{Name: "d", Kind: "fpga"}}},
			want: `device "d"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Run(ctx, tt.w)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInitBytes(t *testing.T) {
	nums := func(xs ...int64) cty.Value {
		vals := make([]cty.Value, len(xs))
		for i, x := range xs {
			vals[i] = cty.NumberIntVal(x)
		}
		return cty.TupleVal(vals)
	}

	_, _, err := initBytes(access.Float32, []int{2}, nums(1, 2, 3))
	assert.ErrorContains(t, err, "init has 3 values")

	_, _, err = initBytes(access.Float32, nil, cty.NullVal(cty.DynamicPseudoType))
	assert.ErrorContains(t, err, "needs a shape or an init list")

	_, _, err = initBytes(access.Float32, nil, cty.StringVal("x"))
	assert.ErrorContains(t, err, "must be a number or a list")

	data, shape, err := initBytes(access.Int32, nil, nums(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []int{2}, shape)
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, data)

	data, _, err = initBytes(access.Uint8, []int{3}, cty.NumberIntVal(9))
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9}, data)
}

func TestSubmit_RejectsMalformedDependency(t *testing.T) {
	st := &run{
		w:      &config.Workload{},
		events: map[string]*event.Event{"a": event.Completed("a")},
	}
	_, err := st.submit(context.Background(), &config.Command{Name: "b", DependsOn: []string{"a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected command.<name>")
	assert.True(t, errors.Is(err, rterr.ErrEvent))
}
