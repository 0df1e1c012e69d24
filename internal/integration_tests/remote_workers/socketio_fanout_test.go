package integration_tests

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bayesgrid/internal/app"
	"github.com/vk/bayesgrid/internal/socketworker"
	"github.com/vk/bayesgrid/internal/testutil"
	"github.com/vk/bayesgrid/internal/worker"
)

func startWorker(t *testing.T, ctx context.Context) string {
	t.Helper()
	pool := worker.NewLocal(ctx, 2)
	srv := socketworker.NewServer(ctx, pool)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
		pool.Close()
	})
	return ts.URL
}

// TestRemote_FanOutAcrossSocketWorkers runs the app in remote mode against
// two socket.io workers and checks the merged posterior.
func TestRemote_FanOutAcrossSocketWorkers(t *testing.T) {
	// --- Arrange ---
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	urls := []string{startWorker(t, ctx), startWorker(t, ctx)}

	files := map[string]string{"net.hcl": `
variable "rain" {
  values = ["t", "f"]
  cpt    = [0.2, 0.8]
}
variable "wet" {
  values  = ["t", "f"]
  parents = ["rain"]
  cpt     = [[0.9, 0.1], [0.1, 0.9]]
}
evidence {
  wet = "t"
}
`}

	// --- Act ---
	result := testutil.RunIntegrationTestWithContext(ctx, t, files, func(cfg *app.Config) {
		cfg.Mode = app.ModeRemote
		cfg.WorkerURLs = urls
		cfg.Draws = 60000
		cfg.SaveSamples = true
	})

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, 2, result.Run.Workers)
	assert.InDelta(t, 0.69, result.Run.Marginals["rain"][0], 0.02)
	assert.Len(t, result.App.Graph().Samples(), 60000)
	assert.Contains(t, result.Output, "Connected to remote workers.")
}
