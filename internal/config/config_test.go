package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every GPU_REPORT_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"GPU_REPORT_CONFIG",
		"GPU_REPORT_ENUMERATION",
		"GPU_REPORT_LIBRARY",
		"GPU_REPORT_LIBRARY_PATH",
		"GPU_REPORT_FIXTURE",
		"GPU_REPORT_MAX_SOCKETS",
		"GPU_REPORT_MAX_DEVICES",
		"GPU_REPORT_SHOW_UUID",
		"GPU_REPORT_FAIL_FAST",
		"GPU_REPORT_TEXTFILE",
		"GPU_REPORT_LOG_LEVEL",
		"GPU_REPORT_LOG_FORMAT",
	}
	for _, v := range envVars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, _, err := Load(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.VirtualizationMode())
}

func TestLoad_Layering(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
enumeration: flat
library: fixture
fixture: /etc/host.yaml
max_devices: 8
log_level: info
`)
	t.Setenv("GPU_REPORT_CONFIG", path)
	t.Setenv("GPU_REPORT_MAX_DEVICES", "16")
	t.Setenv("GPU_REPORT_FAIL_FAST", "true")

	cfg, _, err := Load([]string{"--log-level", "debug", "--enumeration=hierarchical"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "hierarchical", cfg.Enumeration) // flag over file
	assert.Equal(t, LibraryFixture, cfg.Library)     // file over default
	assert.Equal(t, "/etc/host.yaml", cfg.FixturePath)
	assert.Equal(t, 16, cfg.MaxDevices) // env over file
	assert.True(t, cfg.FailFast)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_ConfigFlagOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GPU_REPORT_CONFIG", "/does/not/exist.yaml")
	path := writeFile(t, "max_sockets: 4\n")

	cfg, _, err := Load([]string{"--config", path}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxSockets)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, _, err := Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, io.Discard)
	assert.Error(t, err)

	_, _, err = Load([]string{"--config", writeFile(t, "max_devices: [1")}, io.Discard)
	assert.Error(t, err)

	_, _, err = Load([]string{"extra"}, io.Discard)
	assert.Error(t, err)

	_, _, err = Load([]string{"--no-such-flag"}, io.Discard)
	assert.Error(t, err)

	t.Setenv("GPU_REPORT_MAX_DEVICES", "many")
	_, _, err = Load(nil, io.Discard)
	assert.Error(t, err)
}

func TestLoad_Help(t *testing.T) {
	clearEnv(t)

	_, fs, err := Load([]string{"-h"}, io.Discard)
	assert.ErrorIs(t, err, pflag.ErrHelp)
	require.NotNil(t, fs)
	assert.NotNil(t, fs.Lookup("fail-fast"))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"flat", func(c *Config) { c.Enumeration = "flat" }, true},
		{"unknown enumeration", func(c *Config) { c.Enumeration = "tree" }, false},
		{"unknown library", func(c *Config) { c.Library = "rocm-smi" }, false},
		{"fixture without path", func(c *Config) { c.Library = LibraryFixture }, false},
		{"fixture with path", func(c *Config) { c.Library = LibraryFixture; c.FixturePath = "host.yaml" }, true},
		{"zero devices", func(c *Config) { c.MaxDevices = 0 }, false},
		{"too many devices", func(c *Config) { c.MaxDevices = 4096 }, false},
		{"zero sockets", func(c *Config) { c.MaxSockets = 0 }, false},
		{"uuid with flat", func(c *Config) { c.Enumeration = "flat"; c.ShowUUID = true }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestVirtualizationMode(t *testing.T) {
	cfg := Default()
	cfg.Enumeration = "flat"
	assert.False(t, cfg.VirtualizationMode())
}
