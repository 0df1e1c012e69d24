package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bayesgrid/internal/testutil"
)

// TestFormats_YAMLAndHCLDescribeTheSameNetwork loads one network written in
// each format and checks they sample to the same posterior.
func TestFormats_YAMLAndHCLDescribeTheSameNetwork(t *testing.T) {
	t.Parallel()

	hcl := map[string]string{"net.hcl": `
name = "alarm"
variable "burglary" {
  values = ["yes", "no"]
  cpt    = [0.01, 0.99]
}
variable "alarm" {
  values  = ["ring", "quiet"]
  parents = ["burglary"]
  cpt     = [[0.95, 0.05], [0.01, 0.99]]
}
evidence {
  alarm = "ring"
}
sampling {
  draws = 200000
  seed  = 77
}
`}
	yaml := map[string]string{"net.yml": `
name: alarm
variables:
  - name: burglary
    values: ["yes", "no"]
    cpt: [0.01, 0.99]
  - name: alarm
    values: [ring, quiet]
    parents: [burglary]
    cpt:
      - [0.95, 0.05]
      - [0.01, 0.99]
evidence:
  alarm: ring
sampling:
  draws: 200000
  seed: 77
`}

	fromHCL := testutil.RunIntegrationTest(t, hcl, nil)
	fromYAML := testutil.RunIntegrationTest(t, yaml, nil)

	require.NoError(t, fromHCL.Err)
	require.NoError(t, fromYAML.Err)
	assert.Equal(t, "alarm", fromYAML.Run.Network)
	assert.Equal(t, fromHCL.Run.Marginals, fromYAML.Run.Marginals, "same tables and seed give the same draws")
	assert.Equal(t, []string{"yes", "no"}, fromYAML.App.Model().Variables[0].Values)
}
