package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/fenilsonani/devsweep/pkg/utils"
)

// CacheConfigFile is the file name of the persisted TTL table
const CacheConfigFile = "cache_config.json"

// CacheConfig maps category names to cache TTLs in seconds.
// A TTL of 0 means always rescan; a missing entry means never expire by time.
type CacheConfig struct {
	CategoryTTLs map[string]uint64 `json:"category_ttls"`
}

// Preset names accepted by ApplyPreset
const (
	PresetConservative = "conservative"
	PresetBalanced     = "balanced"
	PresetAggressive   = "aggressive"
)

var defaultTTLs = map[string]uint64{
	"Trash":                    0,
	"General Caches":           30,
	"Docker":                   300,
	"Homebrew":                 3600,
	"Node.js/npm/yarn":         600,
	"Python":                   600,
	"Rust/Cargo":               300,
	"Xcode":                    300,
	"Java (Gradle/Maven)":      600,
	"Go":                       600,
	"node_modules in Projects": 300,
	"IDE Caches":               600,
	"Shell Caches":             300,
}

var presets = map[string]map[string]uint64{
	PresetConservative: {
		"Trash":                    0,
		"General Caches":           30,
		"Docker":                   60,
		"Homebrew":                 600,
		"Node.js/npm/yarn":         300,
		"Python":                   300,
		"Rust/Cargo":               120,
		"Xcode":                    120,
		"Java (Gradle/Maven)":      300,
		"Go":                       300,
		"node_modules in Projects": 120,
	},
	PresetBalanced: {
		"Trash":                    0,
		"General Caches":           30,
		"Docker":                   300,
		"Homebrew":                 3600,
		"Node.js/npm/yarn":         600,
		"Python":                   600,
		"Rust/Cargo":               300,
		"Xcode":                    300,
		"Java (Gradle/Maven)":      600,
		"Go":                       600,
		"node_modules in Projects": 300,
	},
	PresetAggressive: {
		"Trash":                    0,
		"General Caches":           60,
		"Docker":                   600,
		"Homebrew":                 7200,
		"Node.js/npm/yarn":         1800,
		"Python":                   1800,
		"Rust/Cargo":               600,
		"Xcode":                    600,
		"Java (Gradle/Maven)":      1800,
		"Go":                       1800,
		"node_modules in Projects": 600,
	},
}

// DefaultCacheConfig returns the shipped TTL table
func DefaultCacheConfig() CacheConfig {
	c := CacheConfig{CategoryTTLs: make(map[string]uint64, len(defaultTTLs))}
	for name, ttl := range defaultTTLs {
		c.CategoryTTLs[name] = ttl
	}
	return c
}

// GetTTL returns the TTL for a category; ok is false when none is configured.
func (c CacheConfig) GetTTL(name string) (uint64, bool) {
	ttl, ok := c.CategoryTTLs[name]
	return ttl, ok
}

// SetTTL sets the TTL for a category. 0 means always rescan.
func (c *CacheConfig) SetTTL(name string, seconds uint64) {
	if c.CategoryTTLs == nil {
		c.CategoryTTLs = make(map[string]uint64)
	}
	c.CategoryTTLs[name] = seconds
}

// RemoveTTL drops a category's TTL so it never expires by time
func (c *CacheConfig) RemoveTTL(name string) {
	delete(c.CategoryTTLs, name)
}

// ResetDefaults replaces the table with the shipped defaults
func (c *CacheConfig) ResetDefaults() {
	*c = DefaultCacheConfig()
}

// Clone returns a deep copy
func (c CacheConfig) Clone() CacheConfig {
	out := CacheConfig{CategoryTTLs: make(map[string]uint64, len(c.CategoryTTLs))}
	for name, ttl := range c.CategoryTTLs {
		out.CategoryTTLs[name] = ttl
	}
	return out
}

// Names returns the configured category names in sorted order
func (c CacheConfig) Names() []string {
	names := make([]string, 0, len(c.CategoryTTLs))
	for name := range c.CategoryTTLs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetNames lists the available TTL presets
func PresetNames() []string {
	return []string{PresetConservative, PresetBalanced, PresetAggressive}
}

// ApplyPreset overwrites the TTLs named by preset, leaving other categories untouched
func (c *CacheConfig) ApplyPreset(preset string) error {
	table, ok := presets[preset]
	if !ok {
		return fmt.Errorf("unknown preset %q (available: conservative, balanced, aggressive)", preset)
	}
	for name, ttl := range table {
		c.SetTTL(name, ttl)
	}
	return nil
}

// LoadCacheConfig reads the TTL table from path. Any failure yields the defaults.
func LoadCacheConfig(path string) CacheConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultCacheConfig()
	}

	var c CacheConfig
	if err := json.Unmarshal(data, &c); err != nil || c.CategoryTTLs == nil {
		return DefaultCacheConfig()
	}
	return c
}

// Save writes the TTL table to path as indented JSON
func (c CacheConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache config: %w", err)
	}

	if err := utils.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write cache config: %w", err)
	}
	return nil
}

// FormatTTL renders a TTL for display
func FormatTTL(seconds uint64) string {
	switch {
	case seconds == 0:
		return "never cached (always fresh)"
	case seconds < 60:
		return plural(seconds, "second")
	case seconds < 3600:
		return plural(seconds/60, "minute")
	case seconds < 86400:
		return plural(seconds/3600, "hour")
	default:
		return plural(seconds/86400, "day")
	}
}

func plural(n uint64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
