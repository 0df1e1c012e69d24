package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bayesgrid/internal/app"
	"github.com/vk/bayesgrid/internal/testutil"
)

// TestErrorHandling_UnlikelyEvidence_StillReports checks that evidence the
// model makes nearly impossible still yields a defined posterior, because
// smoothing keeps every table entry positive.
func TestErrorHandling_UnlikelyEvidence_StillReports(t *testing.T) {
	t.Parallel()

	files := map[string]string{"net.hcl": `
variable "a" {
  values = ["x", "y"]
  cpt    = [0.3, 0.7]
}
variable "b" {
  values  = ["on", "off"]
  parents = ["a"]
  cpt     = [[0, 1], [0, 1]]
}
evidence {
  b = "on"
}
`}

	result := testutil.RunIntegrationTest(t, files, func(cfg *app.Config) {
		cfg.Draws = 50000
		seed := uint64(5)
		cfg.Seed = &seed
	})

	require.NoError(t, result.Err)
	assert.False(t, result.Run.Degenerate)
	assert.Greater(t, result.Run.TotalWeight, 0.0)
	assert.InDelta(t, 0.3, result.Run.Marginals["a"][0], 0.02)
}
