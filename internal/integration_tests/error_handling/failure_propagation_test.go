package integration_tests

import (
	"errors"
	"testing"

	"github.com/specialistvlad/memgrid/internal/rterr"
	"github.com/specialistvlad/memgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailure_SkipsValueDependents(t *testing.T) {
	result := testutil.RunIntegrationTest(t, map[string]string{"workload/main.hcl": `
queue "q" {
  device = "host"
}
buffer "a" {
  element = "float32"
  init    = [1, 2, 3]
}
command "broken" {
  queue  = "q"
  kernel = "fault"
  accessor "out" {
    buffer = "a"
    mode   = "read_write"
  }
  arguments {
    panic   = true
    message = "corrupted"
  }
}
command "after" {
  queue      = "q"
  kernel     = "scale"
  depends_on = ["command.broken"]
  accessor "data" {
    buffer = "a"
    mode   = "read_write"
  }
}
`})
	require.Error(t, result.Err)
	assert.True(t, errors.Is(result.Err, rterr.ErrExecution))
	assert.True(t, errors.Is(result.Err, rterr.ErrDependencyFailed))
	assert.Contains(t, result.Err.Error(), "corrupted")
	assert.Contains(t, result.Output, "❌ broken")
	assert.Contains(t, result.Output, "⏭️ after")
	assert.Contains(t, result.Output, "Summary: 0 completed, 1 failed, 1 skipped")
}

func TestFailure_InvalidHCLIsRejected(t *testing.T) {
	result := testutil.RunIntegrationTest(t, map[string]string{"workload/main.hcl": `
buffer "a" {
  element = "float32"
`})
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "application startup panicked")
	assert.Contains(t, result.Err.Error(), "failed to parse HCL file")
}

func TestFailure_UnknownBlockIsRejected(t *testing.T) {
	result := testutil.RunIntegrationTest(t, map[string]string{"workload/main.hcl": `
step "print" "a" {
}
`})
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "failed to decode HCL file")
}

func TestFailure_ManifestParityCheck(t *testing.T) {
	result := testutil.RunIntegrationTest(t, map[string]string{
		"workload/main.hcl": "",
		"modules/scale.hcl": `
kernel "scale" {
  input "factor" {
    type = number
  }
  input "bias" {
    type = number
  }
}
`,
	})
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "manifest declares input 'bias' which is not found in Go struct")
}

func TestFailure_RequiredArgumentMissing(t *testing.T) {
	result := testutil.RunIntegrationTest(t, map[string]string{
		"modules/fill.hcl": `
kernel "fill" {
  input "value" {
    type = number
  }
}
`,
		"workload/main.hcl": `
queue "q" {
  device = "host"
}
buffer "a" {
  element = "int32"
  shape   = [2]
}
command "no_value" {
  queue  = "q"
  kernel = "fill"
  accessor "out" {
    buffer = "a"
    mode   = "discard_write"
  }
}
`,
	})
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "no_value")
	assert.Contains(t, result.Err.Error(), "missing required argument")
	assert.Contains(t, result.Output, "rejected")
}

func TestFailure_BuildErrorFallsBack(t *testing.T) {
	result := testutil.RunIntegrationTest(t, map[string]string{"workload/main.hcl": `
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
command "host_only" {
  queue         = "accel"
  kernel        = "iota"
  build_options = "-device=host"
  accessor "out" {
    buffer = "a"
    mode   = "discard_write"
  }
}
command "never_builds" {
  queue         = "accel"
  kernel        = "iota"
  build_options = "-fail-build"
  accessor "out" {
    buffer = "a"
    mode   = "discard_write"
  }
}
`})
	require.Error(t, result.Err)
	assert.True(t, errors.Is(result.Err, rterr.ErrDevice))
	assert.Regexp(t, `host_only\s+host/cpu`, result.Output)
	assert.Contains(t, result.Output, "= [0 1]")
}
