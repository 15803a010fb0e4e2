package integration_tests

import (
	"bytes"
	"testing"

	"github.com/specialistvlad/memgrid/internal/registry"
	"github.com/specialistvlad/memgrid/internal/testutil"
	"github.com/specialistvlad/memgrid/modules/arith"
	"github.com/specialistvlad/memgrid/modules/fill"
	"github.com/specialistvlad/memgrid/modules/iota"
	"github.com/specialistvlad/memgrid/modules/print"
	"github.com/specialistvlad/memgrid/modules/reduce"
	"github.com/specialistvlad/memgrid/modules/sleep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modulesWithPrint(out *bytes.Buffer) []registry.Module {
	return []registry.Module{&fill.Module{}, &iota.Module{}, &arith.Module{}, &reduce.Module{}, &sleep.Module{}, &print.Module{Out: out}}
}

func TestHCL_UnifiedLoading(t *testing.T) {
	// Declarations may be spread over files and directories.
	var printed bytes.Buffer
	result := testutil.RunIntegrationTest(t, map[string]string{
		"workload/devices.hcl": `
device "gpu" {
  kind          = "sim"
  compute_units = 2
  memory_bytes  = 4096
}
queue "q" {
  device = "gpu"
}
`,
		"workload/buffers/data.hcl": `
buffer "x" {
  element = "float64"
  init    = [1, 2, 3, 4]
}
buffer "y" {
  element = "float64"
  shape   = [4]
  init    = 10
}
`,
		"workload/commands.hcl": `
command "axpy" {
  queue  = "q"
  kernel = "axpy"
  accessor "x" {
    buffer = "x"
    mode   = "read"
  }
  accessor "y" {
    buffer = "y"
    mode   = "read_write"
  }
  arguments {
    alpha = 0.5
  }
}
command "show" {
  queue  = "q"
  kernel = "print"
  accessor "y" {
    buffer = "y"
    mode   = "read"
  }
  arguments {
    label = "y"
  }
}
`,
	}, modulesWithPrint(&printed)...)
	require.NoError(t, result.Err)
	assert.Equal(t, "      y[0] = [10.5 11 11.5 12]\n", printed.String())
	assert.Contains(t, result.Output, "= [10.5 11 11.5 12]")
}

func TestHCL_OptionalArgumentDefaults(t *testing.T) {
	var printed bytes.Buffer
	result := testutil.RunIntegrationTest(t, map[string]string{
		"modules/iota.hcl": `
kernel "iota" {
  description = "Sequence with a manifest default."
  input "step" {
    type    = number
    default = 5
  }
}
`,
		"workload/main.hcl": `
queue "q" {
  device = "host"
}
buffer "a" {
  element = "int64"
  shape   = [3]
}
command "seq" {
  queue  = "q"
  kernel = "iota"
  accessor "out" {
    buffer = "a"
    mode   = "discard_write"
  }
}
command "show" {
  queue  = "q"
  kernel = "print"
  accessor "a" {
    buffer = "a"
    mode   = "read"
  }
}
`,
	}, modulesWithPrint(&printed)...)
	require.NoError(t, result.Err)
	assert.Equal(t, "      buf[0] = [0 5 10]\n", printed.String())

	def, ok := result.App.Registry().Lookup("iota")
	require.True(t, ok)
	assert.Equal(t, "Sequence with a manifest default.", def.Description)
}

func TestHCL_ExplicitDependencyOrdersUnrelatedCommands(t *testing.T) {
	// "second" touches a different buffer, so only depends_on orders it.
	var printed bytes.Buffer
	result := testutil.RunIntegrationTest(t, map[string]string{"workload/main.hcl": `
device "cpu" {
  kind = "host"
}
queue "q" {
  device  = "cpu"
  workers = 4
}
buffer "a" {
  element = "float32"
  shape   = [1]
}
buffer "b" {
  element = "float32"
  shape   = [1]
}
command "first" {
  queue  = "q"
  kernel = "sleep"
  accessor "a" {
    buffer = "a"
    mode   = "write"
  }
  arguments {
    millis = 50
  }
}
command "mark_first" {
  queue      = "q"
  kernel     = "print"
  depends_on = ["command.first"]
  arguments {
    label = "first_done"
  }
}
command "second" {
  queue      = "q"
  kernel     = "print"
  depends_on = ["command.mark_first"]
  accessor "b" {
    buffer = "b"
    mode   = "read"
  }
  arguments {
    label = "second"
  }
}
`}, modulesWithPrint(&printed)...)
	require.NoError(t, result.Err)
	assert.Equal(t, "      second[0] = [0]\n", printed.String())
	assert.Contains(t, result.Output, "Summary: 3 completed")
}

func TestHCL_InOrderQueue(t *testing.T) {
	var printed bytes.Buffer
	result := testutil.RunIntegrationTest(t, map[string]string{"workload/main.hcl": `
queue "q" {
  device   = "host"
  in_order = true
  workers  = 4
}
buffer "a" {
  element = "int32"
  shape   = [1]
}
buffer "b" {
  element = "int32"
  shape   = [1]
}
command "slow" {
  queue  = "q"
  kernel = "sleep"
  accessor "a" {
    buffer = "a"
    mode   = "write"
  }
  arguments {
    millis = 30
  }
}
command "fill_b" {
  queue  = "q"
  kernel = "fill"
  accessor "out" {
    buffer = "b"
    mode   = "discard_write"
  }
  arguments {
    value = 1
  }
}
`}, modulesWithPrint(&printed)...)
	require.NoError(t, result.Err)
	assert.Contains(t, result.Output, "Summary: 2 completed")
}

func TestHCL_SubBufferViews(t *testing.T) {
	var printed bytes.Buffer
	result := testutil.RunIntegrationTest(t, map[string]string{"workload/main.hcl": `
device "gpu" {
  kind = "sim"
}
queue "q" {
  device = "gpu"
}
buffer "grid" {
  element = "float32"
  shape   = [4, 4]
}
buffer "rows" {
  view_of = "grid"
  offset  = [2, 0]
}
buffer "total" {
  element = "float64"
  shape   = [1]
}
command "ones" {
  queue  = "q"
  kernel = "fill"
  accessor "out" {
    buffer = "rows"
    mode   = "discard_write"
  }
  arguments {
    value = 1
  }
}
command "sum" {
  queue  = "q"
  kernel = "sum"
  accessor "in" {
    buffer = "grid"
    mode   = "read"
  }
  accessor "out" {
    buffer = "total"
    mode   = "discard_write"
  }
}
command "show" {
  queue  = "q"
  kernel = "print"
  accessor "total" {
    buffer = "total"
    mode   = "read"
  }
  arguments {
    label = "total"
  }
}
`}, modulesWithPrint(&printed)...)
	require.NoError(t, result.Err)
	assert.Equal(t, "      total[0] = [8]\n", printed.String())
	assert.Contains(t, result.Output, "rows (view of grid)")
}
