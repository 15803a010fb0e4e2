package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeWorkload(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	path := writeWorkload(t, `
		command "a" {
			queue = "q"
		// Missing closing brace here
	`)
	out := &bytes.Buffer{}

	runErr := run(context.Background(), out, []string{path})

	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	require.Contains(t, runErr.Error(), "application startup panicked")
	require.Contains(t, runErr.Error(), "failed to parse")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_Workload(t *testing.T) {
	t.Parallel()
	path := writeWorkload(t, `
queue "q" {
  device = "host"
}
buffer "a" {
  element = "int32"
  shape   = [3]
}
command "count" {
  queue  = "q"
  kernel = "iota"
  accessor "out" {
    buffer = "a"
    mode   = "discard_write"
  }
  arguments {
    start = 1
  }
}
`)
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"--log-level", "warn", "--modules-path", "", path})

	require.NoError(t, err)
	require.Contains(t, out.String(), "✅ count")
	require.Contains(t, out.String(), "= [1 2 3]")
}
