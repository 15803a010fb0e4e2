package app

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/memgrid/internal/hcl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(Config{WorkloadPath: "w.hcl", LogFormat: "JSON", LogLevel: "WARN"})
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "warn", cfg.LogLevel)

	cfg, err = NewConfig(Config{WorkloadPath: "w.hcl"})
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.LogFormat)

	for _, bad := range []Config{
		{},
		{WorkloadPath: "w.hcl", LogFormat: "xml"},
		{WorkloadPath: "w.hcl", LogLevel: "trace"},
		{WorkloadPath: "w.hcl", WorkerCount: -2},
		{WorkloadPath: "w.hcl", HealthcheckPort: 70000},
	} {
		_, err := NewConfig(bad)
		assert.Error(t, err, "%+v", bad)
	}
}

func newTestApp(t *testing.T, workload string, cfg Config) (*App, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.hcl"), []byte(workload), 0o600))
	cfg.WorkloadPath = dir
	c, err := NewConfig(cfg)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return NewApp(out, c, hcl.NewLoader()), out
}

func TestNewApp_ManifestErrors(t *testing.T) {
	assert.PanicsWithError(t, "failed to apply kernel manifests: manifest declares kernel 'ghost' which is not registered", func() {
		newTestApp(t, `
kernel "ghost" {
}
`, Config{})
	})

	assert.Panics(t, func() {
		newTestApp(t, `
kernel "fill" {
  input "value" {
    type = string
  }
}
`, Config{})
	})
}

func TestApp_RunReportsFailures(t *testing.T) {
	a, out := newTestApp(t, `
queue "q" {
  device = "host"
}
buffer "a" {
  element = "float32"
  shape   = [2]
}
command "boom" {
  queue  = "q"
  kernel = "fault"
  accessor "out" {
    buffer = "a"
    mode   = "write"
  }
}
`, Config{LogLevel: "error"})

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workload finished with failures")
	assert.Contains(t, err.Error(), "fault injected")
	assert.Contains(t, out.String(), "❌ boom")
}

func TestApp_EmptyWorkload(t *testing.T) {
	a, out := newTestApp(t, `
buffer "a" {
  element = "float32"
  shape   = [2]
}
`, Config{})
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "No commands found")
}

func TestApp_HealthCheck(t *testing.T) {
	a, _ := newTestApp(t, "", Config{LogLevel: "debug"})

	rec := httptest.NewRecorder()
	a.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())

	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	require.NoError(t, a.startHealthcheckServer(port))
	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/health", port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, a.closeHealthcheckServer(context.Background()))
	assert.Nil(t, a.httpServer)
}
