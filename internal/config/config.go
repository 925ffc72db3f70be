package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// File names searched by Load.
const (
	FileName       = "export_config.json"
	HiddenFileName = ".export_config.json"
)

// Environment overrides.
const (
	EnvUIPath     = "EXPORT_CONFIG_UI_PATH"
	EnvFormat     = "EXPORT_CONFIG_FORMAT"
	EnvSSCVersion = "SSC_VERSION"
	EnvTiming     = "EXPORT_CONFIG_TIMING_JSONL"
)

// Config is the top-level configuration for export-config
type Config struct {
	// UIPath is the directory holding form files, relative to the startup
	// script's directory unless absolute
	UIPath string `json:"uiPath,omitempty"`

	// FormExtension is appended to a form name to find its file
	FormExtension string `json:"formExtension,omitempty"`

	// Output controls emission
	Output OutputConfig `json:"output,omitempty"`

	// Configurations restricts emission to the named configurations (empty = all)
	Configurations []string `json:"configurations,omitempty"`

	// Lint contains consistency rule configuration
	Lint LintConfig `json:"lint,omitempty"`

	// Analysis contains form analysis options
	Analysis AnalysisConfig `json:"analysis,omitempty"`

	// SSCVersion is printed in the generated header
	SSCVersion string `json:"sscVersion,omitempty"`
}

// OutputConfig controls the emitted artifact
type OutputConfig struct {
	// Format is one of "python", "json", "yaml"
	Format string `json:"format,omitempty"`
}

// LintConfig contains consistency rule configuration
type LintConfig struct {
	// Rules maps rule names to severity: "off", "info", "warning", "error"
	Rules map[string]string `json:"rules,omitempty"`

	// PolicyDir holds extra .rego modules (package exportconfig.lint)
	PolicyDir string `json:"policyDir,omitempty"`
}

// CacheConfig controls the on-disk form analysis cache
type CacheConfig struct {
	// Enabled turns on the on-disk cache
	Enabled *bool `json:"enabled,omitempty"`

	// Dir is the cache directory (relative to the startup script's directory if not absolute)
	Dir string `json:"dir,omitempty"`
}

// AnalysisConfig contains form analysis options
type AnalysisConfig struct {
	// MaxParallelForms limits concurrent form prewarming (0 = sequential only)
	MaxParallelForms int `json:"maxParallelForms,omitempty"`

	// MemoryCacheSize bounds the in-memory form cache
	MemoryCacheSize int `json:"memoryCacheSize,omitempty"`

	// Cache controls the on-disk cache
	Cache CacheConfig `json:"cache,omitempty"`
}

// Supported output formats.
var Formats = []string{"python", "json", "yaml"}

const (
	defaultUIPath          = "ui"
	defaultFormExtension   = ".txt"
	defaultFormat          = "python"
	defaultMemoryCacheSize = 512
	defaultCacheDir        = ".export_config_cache"
)

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		UIPath:        defaultUIPath,
		FormExtension: defaultFormExtension,
		Output:        OutputConfig{Format: defaultFormat},
		Lint: LintConfig{
			Rules: map[string]string{},
		},
		Analysis: AnalysisConfig{
			MaxParallelForms: 0,
			MemoryCacheSize:  defaultMemoryCacheSize,
			Cache: CacheConfig{
				Enabled: boolPtr(false),
				Dir:     defaultCacheDir,
			},
		},
	}
}

func boolPtr(v bool) *bool {
	return &v
}

// Load finds and loads the configuration file
// Search order:
//  1. ./export_config.json (current working directory)
//  2. ./.export_config.json (current working directory)
//  3. <startup dir>/export_config.json (if different from cwd)
//  4. ~/.config/export_config/config.json
//
// Returns DefaultConfig if no config file is found
func Load(startupPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, FileName),
		filepath.Join(cwd, HiddenFileName),
	}

	if startupPath != "" {
		dir, _ := filepath.Abs(filepath.Dir(startupPath))
		if dir != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(dir, FileName),
				filepath.Join(dir, HiddenFileName),
			)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "export_config", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from .env files into the process
// environment. Missing files are not an error; existing variables win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		_ = godotenv.Load()
		return
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// ApplyEnv overlays environment overrides onto the configuration.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvUIPath)); v != "" {
		c.UIPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFormat)); v != "" {
		c.Output.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvSSCVersion)); v != "" {
		c.SSCVersion = v
	}
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.UIPath == "" {
		c.UIPath = defaultUIPath
	}
	if c.FormExtension == "" {
		c.FormExtension = defaultFormExtension
	}
	if c.Output.Format == "" {
		c.Output.Format = defaultFormat
	}
	if c.Lint.Rules == nil {
		c.Lint.Rules = make(map[string]string)
	}
	if c.Analysis.MemoryCacheSize <= 0 {
		c.Analysis.MemoryCacheSize = defaultMemoryCacheSize
	}
	if c.Analysis.Cache.Dir == "" {
		c.Analysis.Cache.Dir = defaultCacheDir
	}
	if c.Analysis.Cache.Enabled == nil {
		c.Analysis.Cache.Enabled = boolPtr(false)
	}
}

// Validate reports settings that cannot be honored.
func (c *Config) Validate() error {
	if !isFormat(c.Output.Format) {
		return fmt.Errorf("unknown output format %q (want one of %s)", c.Output.Format, strings.Join(Formats, ", "))
	}
	for rule, sev := range c.Lint.Rules {
		switch sev {
		case "off", "info", "warning", "error":
		default:
			return fmt.Errorf("rule %s: unknown severity %q", rule, sev)
		}
	}
	if c.Analysis.MaxParallelForms < 0 {
		return fmt.Errorf("analysis.maxParallelForms must not be negative")
	}
	return nil
}

func isFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CacheEnabled reports whether the on-disk cache is turned on.
func (c *Config) CacheEnabled() bool {
	return c != nil && c.Analysis.Cache.Enabled != nil && *c.Analysis.Cache.Enabled
}

// WantsConfiguration reports whether name passes the emission filter.
func (c *Config) WantsConfiguration(name string) bool {
	if len(c.Configurations) == 0 {
		return true
	}
	for _, n := range c.Configurations {
		if n == name {
			return true
		}
	}
	return false
}
