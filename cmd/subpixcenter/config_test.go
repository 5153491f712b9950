package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// ---------------------------------------------------------------------------
// LoadConfig
// ---------------------------------------------------------------------------

func TestLoadConfig_NotExists(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `angles: 24
saturation:
  enabled: true
  radius: 0
tolerance:
  enabled: true
  pixels: 0.02
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, 24, cfg.Angles)
	assert.Equal(t, def.Box, cfg.Box)
	assert.Equal(t, def.Grid, cfg.Grid)
	assert.Equal(t, def.MaxIterations, cfg.MaxIterations)
	assert.True(t, cfg.Saturation.Enabled)
	assert.Equal(t, 0.0, cfg.Saturation.Radius)

	p := cfg.Params()
	assert.Equal(t, 24, p.NumAngles)
	assert.True(t, p.SaturationMask.Enabled)
	assert.True(t, p.Tolerance.Enabled)
	assert.Equal(t, 0.02, p.Tolerance.Pixels)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "angles: [1, 2\n"))
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// parseArgs
// ---------------------------------------------------------------------------

func TestParseArgs_Defaults(t *testing.T) {
	opts, err := parseArgs([]string{"in.fits", "out.fits"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "in.fits", opts.input)
	assert.Equal(t, "out.fits", opts.output)
	assert.Equal(t, DefaultConfig(), opts.config)
	assert.False(t, opts.config.Saturation.Enabled)
	assert.False(t, opts.config.Tolerance.Enabled)
}

func TestParseArgs_FlagsOverrideConfig(t *testing.T) {
	path := writeConfig(t, "angles: 24\nbox: 64\nmax_iterations: 5\n")
	opts, err := parseArgs([]string{
		"-config", path, "-box", "32", "-satradius", "0", "-tol", "0.01", "-debug",
		"in.fits", "out.fits",
	}, io.Discard)
	require.NoError(t, err)

	cfg := opts.config
	assert.Equal(t, 24, cfg.Angles)
	assert.Equal(t, 32, cfg.Box)
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.Equal(t, SaturationConfig{Enabled: true, Radius: 0}, cfg.Saturation)
	assert.Equal(t, ToleranceConfig{Enabled: true, Pixels: 0.01}, cfg.Tolerance)
	assert.True(t, cfg.Debug)
}

func TestParseArgs_Errors(t *testing.T) {
	_, err := parseArgs([]string{"only-one"}, io.Discard)
	assert.Error(t, err)
	_, err = parseArgs([]string{"-angles", "x", "a", "b"}, io.Discard)
	assert.Error(t, err)
	_, err = parseArgs([]string{"-config", "/does/not/exist.yaml", "a", "b"}, io.Discard)
	assert.Error(t, err)
}
