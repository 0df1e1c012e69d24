package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bayesgrid/internal/app"
)

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, exit, err := Parse([]string{"net.hcl"}, &bytes.Buffer{})

		require.NoError(t, err)
		assert.False(t, exit)
		assert.Equal(t, "net.hcl", cfg.NetworkPath)
		assert.Equal(t, app.ModeLocal, cfg.Mode)
		assert.Zero(t, cfg.Draws)
		assert.Nil(t, cfg.Seed)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("all flags", func(t *testing.T) {
		cfg, _, err := Parse([]string{
			"-n", "nets/",
			"-draws", "500",
			"-workers", "3",
			"-mode", "REMOTE",
			"-worker-url", "http://a:8080",
			"-worker-url", "http://b:8080",
			"-samples-csv", "out.csv",
			"-save-samples",
			"-db", "runs.db",
			"-seed", "18446744073709551615",
			"-log-format", "JSON",
			"-log-level", "debug",
		}, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Equal(t, "nets/", cfg.NetworkPath)
		assert.Equal(t, 500, cfg.Draws)
		assert.Equal(t, 3, cfg.Workers)
		assert.Equal(t, app.ModeRemote, cfg.Mode)
		assert.Equal(t, []string{"http://a:8080", "http://b:8080"}, cfg.WorkerURLs)
		assert.Equal(t, "out.csv", cfg.SamplesCSV)
		assert.True(t, cfg.SaveSamples)
		assert.Equal(t, "runs.db", cfg.DBPath)
		require.NotNil(t, cfg.Seed)
		assert.Equal(t, uint64(18446744073709551615), *cfg.Seed)
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("long flag wins over positional", func(t *testing.T) {
		cfg, _, err := Parse([]string{"-network", "a.hcl", "b.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "a.hcl", cfg.NetworkPath)
	})

	t.Run("no path prints usage", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse(nil, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"bad mode", []string{"-mode", "gpu", "x.hcl"}, `invalid mode "gpu"`},
		{"remote without urls", []string{"-mode", "remote", "x.hcl"}, "at least one worker URL"},
		{"urls outside remote", []string{"-worker-url", "http://a", "x.hcl"}, "only used in remote mode"},
		{"bad seed", []string{"-seed", "-1", "x.hcl"}, "must be an unsigned integer"},
		{"negative draws", []string{"-draws", "-5", "x.hcl"}, "draws must not be negative"},
		{"bad log format", []string{"-log-format", "xml", "x.hcl"}, "invalid log-format"},
		{"bad log level", []string{"-log-level", "trace", "x.hcl"}, "invalid log-level"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}
