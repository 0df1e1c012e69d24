// Package testutil holds the integration test harness shared by the
// end-to-end tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/bayesgrid/internal/app"
	"github.com/vk/bayesgrid/internal/config"
	"github.com/vk/bayesgrid/internal/hcl_adapter"
	"github.com/vk/bayesgrid/internal/runstore"
	"github.com/vk/bayesgrid/internal/yamlconfig"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Output is everything the app wrote: logs and the marginals report.
	Output string
	Err    error
	App    *app.App
	Run    *runstore.Run
	// Dir is the temporary directory holding the network files.
	Dir string
}

// Loader returns the loader the CLI uses: HCL and YAML by extension.
func Loader() config.Loader {
	loaders := map[string]config.Loader{hcl_adapter.Extension: hcl_adapter.NewLoader()}
	for _, ext := range yamlconfig.Extensions {
		loaders[ext] = yamlconfig.NewLoader()
	}
	return config.NewMultiLoader(loaders)
}

// RunIntegrationTest runs the app with a background context.
func RunIntegrationTest(t *testing.T, files map[string]string, configure func(cfg *app.Config)) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, configure)
}

// RunIntegrationTestWithContext writes files into a temporary network
// directory, builds the app against it and runs one sampling call. configure
// may adjust the config before the app is created; paths in files are
// relative to the network directory.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, configure func(cfg *app.Config)) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := app.Config{
		NetworkPath: dir,
		LogLevel:    "debug",
		LogFormat:   "text",
	}
	if configure != nil {
		configure(&cfg)
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &SafeBuffer{}
	result := &HarnessResult{Dir: dir}
	t.Cleanup(func() {
		if os.Getenv("BAYES_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
		}
	})

	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		result.App = app.NewApp(out, appConfig, Loader())
	}()
	if panicErr != nil {
		result.Output = out.String()
		result.Err = fmt.Errorf("application startup panicked | %v", panicErr)
		return result
	}
	t.Cleanup(func() { result.App.Close() })

	result.Run, result.Err = result.App.Run(ctx)
	result.Output = out.String()
	return result
}
