// Package config loads wasm2map settings from defaults, a YAML file, the
// environment and command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xyproto/env/v2"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm2map/loader"
)

// DefaultPath is the config file read when no --config flag is given.
const DefaultPath = "wasm2map.yaml"

// Environment variables read by the env layer.
const (
	EnvBaseURL       = "WASM2MAP_BASE_URL"
	EnvBundleSources = "WASM2MAP_BUNDLE_SOURCES"
	EnvLoader        = "WASM2MAP_LOADER"
	EnvLogLevel      = "WASM2MAP_LOG_LEVEL"
	EnvLibraryRoots  = "WASM2MAP_LIBRARY_ROOTS"
)

// Flag names the flags layer looks for.
const (
	FlagBaseURL       = "base-url"
	FlagBundleSources = "bundle-sources"
	FlagLoader        = "loader"
	FlagLogLevel      = "log-level"
	FlagLibraryRoot   = "library-root"
	FlagFile          = "file"
	FlagVerbose       = "verbose"
)

// Config holds settings shared by every command.
type Config struct {
	// BaseURL prefixes the map file name in the sourceMappingURL section.
	BaseURL string `yaml:"base_url"`

	// Loader is "read" or "mmap".
	Loader string `yaml:"loader"`

	// LogLevel is a zap level name.
	LogLevel string `yaml:"log_level"`

	// File is written to the source map's "file" key.
	File string `yaml:"file"`

	// LibraryRoots are discriminators marking library source paths.
	LibraryRoots []string `yaml:"library_roots"`

	BundleSources bool `yaml:"bundle_sources"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Loader:   string(loader.StrategyRead),
		LogLevel: "info",
	}
}

// Layer is one configuration source.
type Layer string

const (
	LayerDefaults Layer = "defaults"
	LayerFile     Layer = "file"
	LayerEnv      Layer = "env"
	LayerFlags    Layer = "flags"
)

// Loader applies the enabled layers in order; each overrides the values
// set by the ones before it.
type Loader struct {
	enabled map[Layer]bool
}

// NewLoader returns a loader with every layer enabled.
func NewLoader() *Loader {
	return &Loader{
		enabled: map[Layer]bool{
			LayerDefaults: true,
			LayerFile:     true,
			LayerEnv:      true,
			LayerFlags:    true,
		},
	}
}

// EnableLayer turns a layer on.
func (l *Loader) EnableLayer(layer Layer) {
	l.enabled[layer] = true
}

// DisableLayer turns a layer off.
func (l *Loader) DisableLayer(layer Layer) {
	l.enabled[layer] = false
}

// Load builds the configuration. An empty path reads DefaultPath if it
// exists; an explicit path must exist. fs may be nil.
func (l *Loader) Load(path string, fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	if l.enabled[LayerDefaults] {
		cfg = Default()
	}

	if l.enabled[LayerFile] {
		explicit := path != ""
		if !explicit {
			path = DefaultPath
		}
		if err := mergeFile(cfg, path); err != nil {
			if explicit || !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		}
	}

	if l.enabled[LayerEnv] {
		mergeEnv(cfg)
	}

	if l.enabled[LayerFlags] && fs != nil {
		if err := mergeFlags(cfg, fs); err != nil {
			return nil, fmt.Errorf("failed to load config from flags: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is NewLoader().Load(path, fs).
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	return NewLoader().Load(path, fs)
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func mergeEnv(cfg *Config) {
	cfg.BaseURL = env.Str(EnvBaseURL, cfg.BaseURL)
	cfg.Loader = env.Str(EnvLoader, cfg.Loader)
	cfg.LogLevel = env.Str(EnvLogLevel, cfg.LogLevel)
	if env.Has(EnvBundleSources) {
		cfg.BundleSources = env.Bool(EnvBundleSources)
	}
	if env.Has(EnvLibraryRoots) {
		cfg.LibraryRoots = splitList(env.Str(EnvLibraryRoots))
	}
}

// mergeFlags copies flags the user set explicitly. Flags missing from fs
// are ignored so commands can register only the ones they use.
func mergeFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}

	if changed(FlagBaseURL) {
		if cfg.BaseURL, err = fs.GetString(FlagBaseURL); err != nil {
			return err
		}
	}
	if changed(FlagLoader) {
		if cfg.Loader, err = fs.GetString(FlagLoader); err != nil {
			return err
		}
	}
	if changed(FlagLogLevel) {
		if cfg.LogLevel, err = fs.GetString(FlagLogLevel); err != nil {
			return err
		}
	}
	if changed(FlagFile) {
		if cfg.File, err = fs.GetString(FlagFile); err != nil {
			return err
		}
	}
	if changed(FlagBundleSources) {
		if cfg.BundleSources, err = fs.GetBool(FlagBundleSources); err != nil {
			return err
		}
	}
	if changed(FlagLibraryRoot) {
		if cfg.LibraryRoots, err = fs.GetStringSlice(FlagLibraryRoot); err != nil {
			return err
		}
	}
	if changed(FlagVerbose) {
		verbose, err := fs.GetBool(FlagVerbose)
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that enumerated settings hold known values.
func (c *Config) Validate() error {
	if _, err := loader.ParseStrategy(c.Loader); err != nil {
		return fmt.Errorf("invalid loader: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	for _, root := range c.LibraryRoots {
		if root == "" || strings.Contains(root, ":") {
			return fmt.Errorf("invalid library root %q", root)
		}
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(c.LogLevel)
}

// Strategy parses Loader.
func (c *Config) Strategy() loader.Strategy {
	s, err := loader.ParseStrategy(c.Loader)
	if err != nil {
		return loader.StrategyRead
	}
	return s
}
