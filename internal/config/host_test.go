package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHostConfigDefaults(t *testing.T) {
	host, err := LoadHostConfig("")
	require.NoError(t, err)

	assert.Equal(t, "auto", host.Mode)
	assert.Equal(t, "default", host.Theme)
	assert.Equal(t, "info", host.LogLevel)
	assert.False(t, host.DisableStyles)
}

func TestLoadHostConfigEnvOverrides(t *testing.T) {
	t.Setenv("GRIDCORE_MODE", "table")
	t.Setenv("GRIDCORE_THEME", "plain")
	t.Setenv("GRIDCORE_LOG_LEVEL", "debug")

	host, err := LoadHostConfig("")
	require.NoError(t, err)

	assert.Equal(t, "table", host.Mode)
	assert.Equal(t, "plain", host.Theme)
	assert.Equal(t, "debug", host.LogLevel)
}

func TestLoadHostConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: embedded\ntitle_override: Fleet\n"), 0o600))

	host, err := LoadHostConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "embedded", host.Mode)
	assert.Equal(t, "Fleet", host.TitleOverride)
	// Unset keys keep their defaults.
	assert.Equal(t, "info", host.LogLevel)
}

func TestLoadHostConfigMissingFile(t *testing.T) {
	_, err := LoadHostConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestResolveOptions(t *testing.T) {
	host := HostConfig{
		Mode:          "external",
		ExternalRef:   "fleet-v2",
		FactoryName:   "fleet",
		TitleOverride: "Fleet",
	}

	opts := host.ResolveOptions("g1")
	assert.Equal(t, ModeExternal, opts.Mode)
	assert.Equal(t, "g1", opts.GridID)
	assert.Equal(t, "fleet-v2", opts.ExternalRef)
	assert.Equal(t, "fleet", opts.FactoryName)
	assert.Equal(t, "Fleet", opts.TitleOverride)
}
