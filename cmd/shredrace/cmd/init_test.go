package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/shredrace/pkg/config"
)

func TestWriteStarterConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "shredrace_init_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "shredrace.yaml")

	t.Run("writes a loadable default config", func(t *testing.T) {
		require.NoError(t, writeStarterConfig(configPath, false))
		assert.True(t, config.ConfigExists(configPath))

		loaded, err := config.LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, config.DefaultConfig(), loaded)
		assert.NoError(t, loaded.Validate())
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		err := writeStarterConfig(configPath, false)
		assert.ErrorContains(t, err, "already exists")
	})

	t.Run("force overwrites", func(t *testing.T) {
		assert.NoError(t, writeStarterConfig(configPath, true))
	})

	t.Run("creates missing directories", func(t *testing.T) {
		nested := filepath.Join(tmpDir, "etc", "shredrace", "config.yaml")
		require.NoError(t, writeStarterConfig(nested, false))
		assert.True(t, config.ConfigExists(nested))
	})
}
