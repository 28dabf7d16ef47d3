package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fenilsonani/devsweep/pkg/utils"
	"gopkg.in/yaml.v3"
)

// AppName names the per-user application directories
const AppName = "devsweep"

// Config represents the application configuration
type Config struct {
	UseQuarantine      bool             `yaml:"use_quarantine"`
	UseCache           bool             `yaml:"use_cache"`
	Workers            int              `yaml:"workers"` // 0 = one per CPU
	Quarantine         QuarantineConfig `yaml:"quarantine"`
	TrashDirs          []string         `yaml:"trash_dirs"`
	Shell              string           `yaml:"shell"`
	AppDir             string           `yaml:"app_dir"`
	DisabledCategories []string         `yaml:"disabled_categories"`
	CustomPaths        []CustomPath     `yaml:"custom_paths"`
	ProtectedPaths     []string         `yaml:"protected_paths"`
	Log                LogConfig        `yaml:"log"`
	Daemon             DaemonConfig     `yaml:"daemon"`
}

// QuarantineConfig bounds the cleanup history and the quarantine directory
type QuarantineConfig struct {
	MaxHistory      int    `yaml:"max_history"`
	MaxSize         string `yaml:"max_size"` // e.g., "10GiB"
	LowWaterPercent int    `yaml:"low_water_percent"`
}

// CustomPath is a user-configured directory scanned as part of "Custom Paths"
type CustomPath struct {
	Path      string `yaml:"path"`
	Label     string `yaml:"label"`
	Enabled   bool   `yaml:"enabled"`
	Recursive bool   `yaml:"recursive"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
	Output string `yaml:"output"` // stderr, stdout, or file path
}

// DaemonConfig holds daemon mode configuration
type DaemonConfig struct {
	Enabled     bool           `yaml:"enabled"`
	PidFile     string         `yaml:"pid_file"`
	MetricsAddr string         `yaml:"metrics_addr"`
	Schedules   []ScanSchedule `yaml:"schedules"`
}

// ScanSchedule defines a scheduled background job
type ScanSchedule struct {
	Name          string `yaml:"name"`
	Schedule      string `yaml:"schedule"` // Cron expression
	UseCache      bool   `yaml:"use_cache"`
	EnforceBounds bool   `yaml:"enforce_bounds"`
}

// Load loads configuration from a file. Fields missing from the file keep
// their default values.
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}

	if c.Quarantine.MaxHistory < 1 {
		return fmt.Errorf("quarantine.max_history must be >= 1")
	}
	if c.Quarantine.LowWaterPercent < 1 || c.Quarantine.LowWaterPercent > 100 {
		return fmt.Errorf("quarantine.low_water_percent must be between 1 and 100")
	}
	if _, err := c.MaxQuarantineBytes(); err != nil {
		return fmt.Errorf("quarantine.max_size: %w", err)
	}

	for _, dir := range c.TrashDirs {
		if dir == "" || filepath.IsAbs(dir) {
			return fmt.Errorf("trash dir must be a relative path suffix: %q", dir)
		}
	}

	for i, cp := range c.CustomPaths {
		if cp.Path == "" {
			return fmt.Errorf("custom path %d has no path", i)
		}
		expanded := utils.ExpandHome(cp.Path, "")
		if !filepath.IsAbs(expanded) {
			return fmt.Errorf("custom path must be absolute: %s", cp.Path)
		}
	}

	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}

	seen := make(map[string]bool)
	for _, s := range c.Daemon.Schedules {
		if s.Name == "" || s.Schedule == "" {
			return fmt.Errorf("daemon schedules need both a name and a schedule")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate daemon schedule name: %s", s.Name)
		}
		seen[s.Name] = true
	}

	return nil
}

// MaxQuarantineBytes parses quarantine.max_size
func (c *Config) MaxQuarantineBytes() (uint64, error) {
	return utils.ParseSize(c.Quarantine.MaxSize)
}

// IsCategoryEnabled reports whether a registry category should be scanned
func (c *Config) IsCategoryEnabled(name string) bool {
	for _, disabled := range c.DisabledCategories {
		if disabled == name {
			return false
		}
	}
	return true
}

// EnabledCustomPaths returns custom paths with "~" expanded, skipping disabled ones
func (c *Config) EnabledCustomPaths(home string) []CustomPath {
	var out []CustomPath
	for _, cp := range c.CustomPaths {
		if !cp.Enabled {
			continue
		}
		cp.Path = utils.ExpandHome(cp.Path, home)
		if cp.Label == "" {
			cp.Label = filepath.Base(cp.Path)
		}
		out = append(out, cp)
	}
	return out
}

// ResolveAppDir returns the directory holding the scan cache, TTL table,
// history and quarantine.
func (c *Config) ResolveAppDir() (string, error) {
	if c.AppDir != "" {
		return utils.ExpandHome(c.AppDir, ""), nil
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache directory: %w", err)
	}
	return filepath.Join(cacheDir, AppName), nil
}

// ResolveShell returns the shell used for command cleanup actions
func (c *Config) ResolveShell() string {
	if c.Shell != "" {
		return c.Shell
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(homeDir, ".config", AppName)
	return filepath.Join(configDir, "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(GetExampleConfig()), 0644); err != nil {
			return "", fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return configPath, nil
}
