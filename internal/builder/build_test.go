package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bayesgrid/internal/bayes"
	"github.com/vk/bayesgrid/internal/config"
	"github.com/vk/bayesgrid/internal/cpt"
)

func sprinkler() *config.Model {
	m := config.NewModel()
	m.Name = "sprinkler"
	m.Variables = []*config.Variable{
		{Name: "rain", Values: []string{"t", "f"}, Cpt: [][]float64{{0.2, 0.8}}, Source: "net.hcl:1"},
		{Name: "sprinkler", Values: []string{"on", "off"}, Parents: []string{"rain"}, Source: "net.hcl:5"},
		{Name: "wet", Values: []string{"t", "f"}, Parents: []string{"rain", "sprinkler"}, Cpt: [][]float64{
			{0.99, 0.01}, {0.8, 0.2}, {0.9, 0.1}, {0.0, 1.0},
		}, Source: "net.hcl:10"},
	}
	m.Evidence["wet"] = "t"
	return m
}

func TestBuild(t *testing.T) {
	// --- Act ---
	g, err := Build(context.Background(), sprinkler(), bayes.WithSeed(1))

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 3, g.Len())

	names := make([]string, 0, g.Len())
	for _, n := range g.Nodes() {
		names = append(names, n.Name())
	}
	assert.Equal(t, []string{"rain", "sprinkler", "wet"}, names)

	wet, err := g.Node("wet")
	require.NoError(t, err)
	assert.Equal(t, []string{"rain", "sprinkler"}, wet.ParentNames())
	assert.Equal(t, []int{2, 2}, wet.Table().Dims())
	assert.True(t, wet.Observed())
	assert.Equal(t, "t", wet.ValueLabel())

	sprk, err := g.Node("sprinkler")
	require.NoError(t, err)
	require.NotNil(t, sprk.Table(), "missing rows get a random table")
	assert.False(t, sprk.Dirty())
	assert.NoError(t, sprk.Table().Validate())

	rain, err := g.Node("rain")
	require.NoError(t, err)
	row := rain.Table().Row()
	assert.InDelta(t, 0.2, row[0], 0.002)

	_, err = g.Sample(1000)
	assert.NoError(t, err)
}

func TestBuild_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(m *config.Model)
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown parent",
			mutate:  func(m *config.Model) { m.Variables[1].Parents = []string{"cloudy"} },
			wantErr: bayes.ErrUnknownNode,
			wantMsg: "net.hcl:5",
		},
		{
			name:    "parent listed twice",
			mutate:  func(m *config.Model) { m.Variables[1].Parents = []string{"rain", "rain"} },
			wantMsg: `lists parent "rain" twice`,
		},
		{
			name:    "cycle",
			mutate:  func(m *config.Model) { m.Variables[0].Parents = []string{"wet"} },
			wantErr: bayes.ErrCycle,
		},
		{
			name:    "empty domain",
			mutate:  func(m *config.Model) { m.Variables[1].Values = nil },
			wantErr: bayes.ErrInvalidDomain,
		},
		{
			name:    "cpt shape mismatch",
			mutate:  func(m *config.Model) { m.Variables[2].Cpt = m.Variables[2].Cpt[:3] },
			wantErr: cpt.ErrShapeMismatch,
			wantMsg: "net.hcl:10",
		},
		{
			name:    "evidence on unknown node",
			mutate:  func(m *config.Model) { m.Evidence["cloudy"] = "t" },
			wantErr: bayes.ErrUnknownNode,
		},
		{
			name:    "evidence with unknown value",
			mutate:  func(m *config.Model) { m.Evidence["wet"] = "maybe" },
			wantErr: bayes.ErrUnknownValue,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := sprinkler()
			tc.mutate(m)

			_, err := Build(context.Background(), m)

			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.wantMsg != "" {
				assert.Contains(t, err.Error(), tc.wantMsg)
			}
		})
	}
}
