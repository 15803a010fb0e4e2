package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/memgrid/internal/app"
	"github.com/specialistvlad/memgrid/internal/hcl"
	"github.com/specialistvlad/memgrid/internal/registry"
	"github.com/stretchr/testify/require"
)

// LogsEnv enables dumping captured logs of every harness run.
const LogsEnv = "MEMGRID_TEST_LOGS"

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Output is everything the app wrote: logs and the workload report.
	Output string
	Err    error
	App    *app.App
}

// RunIntegrationTest runs a workload with a background context.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, modules...)
}

// RunIntegrationTestWithContext writes files under a temporary root and runs
// the app on it. Paths under "workload/" form the workload and paths under
// "modules/" the kernel manifests. With no modules the core modules are used.
// A panic during startup is returned as an error.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	workloadDir := filepath.Join(tmpDir, "workload")
	modulesDir := filepath.Join(tmpDir, "modules")
	require.NoError(t, os.Mkdir(workloadDir, 0o755))
	require.NoError(t, os.Mkdir(modulesDir, 0o755))
	for name, content := range files {
		p := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	cfg, err := app.NewConfig(app.Config{
		WorkloadPath: workloadDir,
		ModulesPath:  modulesDir,
		LogLevel:     "debug",
		LogFormat:    "text",
		WorkerCount:  4,
	})
	require.NoError(t, err)

	out := &SafeBuffer{}
	defer func() {
		if os.Getenv(LogsEnv) == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
		}
	}()

	var testApp *app.App
	var panicErr any
	func() {
		defer func() { panicErr = recover() }()
		testApp = app.NewApp(out, cfg, hcl.NewLoader(), modules...)
	}()
	if panicErr != nil {
		return &HarnessResult{Output: out.String(), Err: fmt.Errorf("application startup panicked | %v", panicErr)}
	}

	runErr := testApp.Run(ctx)
	return &HarnessResult{Output: out.String(), Err: runErr, App: testApp}
}
