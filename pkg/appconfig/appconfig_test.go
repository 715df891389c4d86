/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package appconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(kv map[string]string) func(string) string {
	return func(k string) string {
		return kv[k]
	}
}

func TestDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "none.yaml"), env(nil))
	assert.Error(t, err)
	assert.Nil(t, c)

	d := Default()
	assert.Equal(t, 4, d.Miner.Depth)
	assert.Equal(t, DefaultTopK, d.Profile.DiscordK)
	assert.Equal(t, -1, d.Profile.ExclusionZone)
	assert.Equal(t, DefaultContextWindow, d.Session.ContextWindow)
	assert.Equal(t, 2016, d.Session.LegacyYear)
}

func TestLoadYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logprofiler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
miner:
  depth: 5
  simThreshold: 0.6
  masking:
    - pattern: '(\d+\.){3}\d+'
      maskWith: IP
profile:
  windows: [5, 10]
session:
  timezone: UTC
format:
  preset: OpenSSH
`), 0644))

	c, err := Load(path, env(nil))
	require.NoError(t, err)
	assert.Equal(t, 5, c.Miner.Depth)
	assert.Equal(t, 0.6, c.Miner.SimThreshold)
	// untouched keys keep their defaults
	assert.Equal(t, 100, c.Miner.MaxChildren)
	require.Len(t, c.Miner.Masking, 1)
	assert.Equal(t, "IP", c.Miner.Masking[0].MaskWith)
	assert.Equal(t, []int{5, 10}, c.Profile.Windows)
	assert.Equal(t, DefaultTopK, c.Profile.MotifK)
	assert.Equal(t, "UTC", c.Session.Timezone)
	assert.Equal(t, "OpenSSH", c.Format.Preset)
}

func TestLoadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logprofiler.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[miner]
depth = 6

[profile]
discordK = 2

[log]
debug = true
`), 0644))

	c, err := Load(path, env(nil))
	require.NoError(t, err)
	assert.Equal(t, 6, c.Miner.Depth)
	assert.Equal(t, 2, c.Profile.DiscordK)
	assert.True(t, c.Log.Debug)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logprofiler.yaml")
	require.NoError(t, os.WriteFile(path, []byte("miner:\n  depth: 5\n"), 0644))

	c, err := Load(path, env(map[string]string{
		"HI_MINER_DEPTH":         "7",
		"HI_MINER_SIM_THRESHOLD": "0.4",
		"HI_PROFILE_WINDOWS":     "3,8",
		"HI_PROFILE_K":           "2",
		"HI_SESSION_TIMEZONE":    "UTC",
		"HI_LOG_DEBUG":           "true",
	}))
	require.NoError(t, err)
	assert.Equal(t, 7, c.Miner.Depth)
	assert.Equal(t, 0.4, c.Miner.SimThreshold)
	assert.Equal(t, []int{3, 8}, c.Profile.Windows)
	assert.Equal(t, 2, c.Profile.DiscordK)
	assert.Equal(t, 2, c.Profile.MotifK)
	assert.Equal(t, "UTC", c.Session.Timezone)
	assert.True(t, c.Log.Debug)

	_, err = Load(path, env(map[string]string{"HI_MINER_DEPTH": "deep"}))
	assert.Error(t, err)
}

func TestBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logprofiler.yaml")
	require.NoError(t, os.WriteFile(path, []byte("miner: [1, 2"), 0644))
	_, err := Load(path, env(nil))
	assert.Error(t, err)
}

func TestVersionInfo(t *testing.T) {
	info := VersionInfo()
	assert.Contains(t, info, "goversion")
}
