package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fenilsonani/devsweep/internal/config"
	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

// FileName is the file name of the persisted scan cache
const FileName = "scan_cache.json"

// CachedCategoryResult is a detector's output plus what is needed to decide
// whether it can be served again.
type CachedCategoryResult struct {
	Name         string                  `json:"name"`
	Items        []types.CleanupItem     `json:"items"`
	TotalSize    uint64                  `json:"total_size"`
	ScannedAt    time.Time               `json:"scanned_at"`
	TrackedPaths map[string]PathMetadata `json:"tracked_paths"`
	TTLSeconds   *uint64                 `json:"ttl_seconds,omitempty"`
}

// IsValidAt reports whether the entry may be served at now.
// A nil TTL never expires by time; a TTL of 0 is always stale.
func (c *CachedCategoryResult) IsValidAt(now time.Time) bool {
	if c.TTLSeconds != nil {
		ttl := *c.TTLSeconds
		if ttl == 0 {
			return false
		}
		age := now.Sub(c.ScannedAt)
		if age > time.Duration(ttl)*time.Second {
			return false
		}
	}

	for path, recorded := range c.TrackedPaths {
		if Changed(path, recorded) {
			return false
		}
	}
	return true
}

// Result returns the cached value as a CheckResult
func (c *CachedCategoryResult) Result() types.CheckResult {
	items := make([]types.CleanupItem, len(c.Items))
	copy(items, c.Items)
	return types.CheckResult{
		Name:      c.Name,
		Items:     items,
		TotalSize: c.TotalSize,
	}
}

func (c CachedCategoryResult) clone() CachedCategoryResult {
	out := c
	out.Items = make([]types.CleanupItem, len(c.Items))
	copy(out.Items, c.Items)
	out.TrackedPaths = make(map[string]PathMetadata, len(c.TrackedPaths))
	for p, m := range c.TrackedPaths {
		out.TrackedPaths[p] = m
	}
	if c.TTLSeconds != nil {
		ttl := *c.TTLSeconds
		out.TTLSeconds = &ttl
	}
	return out
}

// payload is the on-disk shape of scan_cache.json. The TTL table lives in its
// own file.
type payload struct {
	Categories   map[string]CachedCategoryResult `json:"categories"`
	LastFullScan *time.Time                      `json:"last_full_scan,omitempty"`
}

// ScanCache holds the last result of every category, keyed by name.
// It is safe for concurrent use.
type ScanCache struct {
	mu           sync.Mutex
	categories   map[string]CachedCategoryResult
	lastFullScan *time.Time
	config       config.CacheConfig
	dir          string
	now          func() time.Time
}

// New creates an empty cache persisted under dir
func New(dir string, cfg config.CacheConfig) *ScanCache {
	return &ScanCache{
		categories: make(map[string]CachedCategoryResult),
		config:     cfg.Clone(),
		dir:        dir,
		now:        time.Now,
	}
}

// Load reads the cache payload and the TTL table from dir. It never fails:
// a missing or corrupt payload yields an empty cache and a missing or corrupt
// TTL table yields the defaults, independently of each other.
func Load(dir string) *ScanCache {
	c := New(dir, config.LoadCacheConfig(filepath.Join(dir, config.CacheConfigFile)))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return c
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return c
	}

	for name, entry := range p.Categories {
		if entry.Name == "" {
			entry.Name = name
		}
		if entry.TrackedPaths == nil {
			entry.TrackedPaths = make(map[string]PathMetadata)
		}
		c.categories[name] = entry
	}
	c.lastFullScan = p.LastFullScan
	return c
}

// WithClock replaces the time source. Intended for tests.
func (c *ScanCache) WithClock(now func() time.Time) *ScanCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Dir returns the directory the cache persists to
func (c *ScanCache) Dir() string {
	return c.dir
}

// GetValid returns the cached result for name if it is still valid
func (c *ScanCache) GetValid(name string) (types.CheckResult, bool) {
	c.mu.Lock()
	entry, ok := c.categories[name]
	now := c.now()
	c.mu.Unlock()

	if !ok {
		return types.CheckResult{}, false
	}

	// Probing tracked paths is I/O; it runs on the copy outside the lock.
	if !entry.IsValidAt(now) {
		return types.CheckResult{}, false
	}
	return entry.Result(), true
}

// NeedsRescan reports whether name has no valid cached result
func (c *ScanCache) NeedsRescan(name string) bool {
	_, ok := c.GetValid(name)
	return !ok
}

// Update replaces the entry for name, stamping it with the current time and
// the TTL configured for the category.
func (c *ScanCache) Update(name string, result types.CheckResult, tracked map[string]PathMetadata) {
	items := make([]types.CleanupItem, len(result.Items))
	copy(items, result.Items)

	paths := make(map[string]PathMetadata, len(tracked))
	for p, m := range tracked {
		paths[p] = m
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry := CachedCategoryResult{
		Name:         name,
		Items:        items,
		TotalSize:    result.TotalSize,
		ScannedAt:    now,
		TrackedPaths: paths,
	}
	if ttl, ok := c.config.GetTTL(name); ok {
		entry.TTLSeconds = &ttl
	}

	c.categories[name] = entry
	c.lastFullScan = &now
}

// Clear drops every cached entry
func (c *ScanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = make(map[string]CachedCategoryResult)
	c.lastFullScan = nil
}

// Invalidate drops the entries for the given names
func (c *ScanCache) Invalidate(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		delete(c.categories, name)
	}
}

// Entry returns a copy of the raw entry for name, valid or not
func (c *ScanCache) Entry(name string) (CachedCategoryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.categories[name]
	if !ok {
		return CachedCategoryResult{}, false
	}
	return entry.clone(), true
}

// Names returns the cached category names in sorted order
func (c *ScanCache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.categories))
	for name := range c.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of cached entries
func (c *ScanCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.categories)
}

// LastFullScan returns when Update was last called, if ever
func (c *ScanCache) LastFullScan() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastFullScan == nil {
		return time.Time{}, false
	}
	return *c.lastFullScan, true
}

// Config returns a copy of the TTL table
func (c *ScanCache) Config() config.CacheConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.Clone()
}

// SetConfig replaces the TTL table and re-applies it to existing entries, so a
// changed TTL takes effect without waiting for the next rescan.
func (c *ScanCache) SetConfig(cfg config.CacheConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.config = cfg.Clone()
	for name, entry := range c.categories {
		if ttl, ok := c.config.GetTTL(name); ok {
			entry.TTLSeconds = &ttl
		} else {
			entry.TTLSeconds = nil
		}
		c.categories[name] = entry
	}
}

// Save writes the cache payload to scan_cache.json
func (c *ScanCache) Save() error {
	c.mu.Lock()
	snapshot := payload{
		Categories: make(map[string]CachedCategoryResult, len(c.categories)),
	}
	for name, entry := range c.categories {
		snapshot.Categories[name] = entry.clone()
	}
	if c.lastFullScan != nil {
		t := *c.lastFullScan
		snapshot.LastFullScan = &t
	}
	dir := c.dir
	c.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scan cache: %w", err)
	}
	return utils.WriteFileAtomic(filepath.Join(dir, FileName), data)
}

// SaveConfig writes the TTL table to cache_config.json
func (c *ScanCache) SaveConfig() error {
	cfg := c.Config()
	return cfg.Save(filepath.Join(c.dir, config.CacheConfigFile))
}
