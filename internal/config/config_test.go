package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xyproto/env/v2"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasm2map/loader"
)

func setEnv(t *testing.T, name, value string) {
	t.Helper()
	require.NoError(t, env.Set(name, value))
	t.Cleanup(func() { _ = env.Unset(name) })
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wasm2map.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(FlagBaseURL, "", "")
	fs.String(FlagLoader, "", "")
	fs.String(FlagLogLevel, "", "")
	fs.String(FlagFile, "", "")
	fs.Bool(FlagBundleSources, false, "")
	fs.StringSlice(FlagLibraryRoot, nil, "")
	fs.BoolP(FlagVerbose, "v", false, "")
	return fs
}

func TestLoadDefaultsOnly(t *testing.T) {
	l := NewLoader()
	l.DisableLayer(LayerFile)
	l.DisableLayer(LayerEnv)

	cfg, err := l.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "read", cfg.Loader)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.BaseURL)
	assert.False(t, cfg.BundleSources)
	assert.Equal(t, loader.StrategyRead, cfg.Strategy())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
base_url: http://localhost:8080
loader: mmap
bundle_sources: true
library_roots: [rust, zig]
file: app.wasm
`)
	l := NewLoader()
	l.DisableLayer(LayerEnv)

	cfg, err := l.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, loader.StrategyMmap, cfg.Strategy())
	assert.True(t, cfg.BundleSources)
	assert.Equal(t, []string{"rust", "zig"}, cfg.LibraryRoots)
	assert.Equal(t, "app.wasm", cfg.File)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	l := NewLoader()
	l.DisableLayer(LayerEnv)
	_, err := l.Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestLoadMissingDefaultFile(t *testing.T) {
	chdir(t, t.TempDir())
	l := NewLoader()
	l.DisableLayer(LayerEnv)
	cfg, err := l.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "read", cfg.Loader)
}

func TestLoadDefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPath), []byte("base_url: http://cwd\n"), 0o644))
	chdir(t, dir)

	l := NewLoader()
	l.DisableLayer(LayerEnv)
	cfg, err := l.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://cwd", cfg.BaseURL)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "base_url: [unterminated\n")
	l := NewLoader()
	l.DisableLayer(LayerEnv)
	_, err := l.Load(path, nil)
	require.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "base_url: http://file\nloader: read\n")
	setEnv(t, EnvBaseURL, "http://env")
	setEnv(t, EnvLoader, "mmap")
	setEnv(t, EnvBundleSources, "true")
	setEnv(t, EnvLibraryRoots, "rust, zig ,")
	setEnv(t, EnvLogLevel, "warn")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://env", cfg.BaseURL)
	assert.Equal(t, "mmap", cfg.Loader)
	assert.True(t, cfg.BundleSources)
	assert.Equal(t, []string{"rust", "zig"}, cfg.LibraryRoots)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	setEnv(t, EnvBaseURL, "http://env")
	setEnv(t, EnvBundleSources, "true")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{
		"--base-url", "http://flag",
		"--bundle-sources=false",
		"--library-root", "rust",
		"--library-root", "go",
		"-v",
	}))

	l := NewLoader()
	l.DisableLayer(LayerFile)
	cfg, err := l.Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "http://flag", cfg.BaseURL)
	assert.False(t, cfg.BundleSources)
	assert.Equal(t, []string{"rust", "go"}, cfg.LibraryRoots)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadUnchangedFlagsKeepLowerLayers(t *testing.T) {
	path := writeConfig(t, "base_url: http://file\n")
	fs := newFlags()
	require.NoError(t, fs.Parse(nil))

	l := NewLoader()
	l.DisableLayer(LayerEnv)
	cfg, err := l.Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "http://file", cfg.BaseURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad loader", func(c *Config) { c.Loader = "slurp" }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"empty root", func(c *Config) { c.LibraryRoots = []string{""} }, true},
		{"root with colon", func(c *Config) { c.LibraryRoots = []string{"a:b"} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
