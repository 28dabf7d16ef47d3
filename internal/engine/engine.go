// Package engine ties the scanner, scan cache, cleanup executor and history
// together behind the operations a host (CLI, TUI, daemon) drives.
package engine

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/cleaner"
	"github.com/fenilsonani/devsweep/internal/config"
	"github.com/fenilsonani/devsweep/internal/history"
	"github.com/fenilsonani/devsweep/internal/logging"
	"github.com/fenilsonani/devsweep/internal/metrics"
	"github.com/fenilsonani/devsweep/internal/platform"
	"github.com/fenilsonani/devsweep/internal/progress"
	"github.com/fenilsonani/devsweep/internal/scanner"
	"github.com/fenilsonani/devsweep/internal/security"
	"github.com/fenilsonani/devsweep/internal/types"
)

// ErrBusy is returned when a scan or cleanup is already running
var ErrBusy = errors.New("another scan or cleanup is in progress")

// State is what the engine is doing
type State int

const (
	StateIdle State = iota
	StateScanning
	StateCleaning
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateCleaning:
		return "cleaning"
	default:
		return "idle"
	}
}

// Engine is the host-facing facade. Scans and cleanups are mutually
// exclusive; a second request fails fast with ErrBusy.
type Engine struct {
	cfg      *config.Config
	info     *platform.Info
	appDir   string
	cache    *cache.ScanCache
	store    *history.Store
	scanner  *scanner.Scanner
	executor *cleaner.Executor
	progress *progress.Reporter
	log      *zap.Logger

	mu          sync.Mutex
	state       State
	lastResults []types.CheckResult
	lastScan    time.Time
}

// New builds an engine with the shipped detectors
func New(cfg *config.Config, info *platform.Info) (*Engine, error) {
	registry, err := scanner.DefaultRegistry(info, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build detector registry: %w", err)
	}
	return NewWithRegistry(cfg, info, registry)
}

// NewWithRegistry builds an engine scanning with registry. Failing to
// resolve or create the application directory is fatal.
func NewWithRegistry(cfg *config.Config, info *platform.Info, registry *scanner.Registry) (*Engine, error) {
	if cfg == nil {
		cfg = config.GetDefault()
	}
	appDir, err := cfg.ResolveAppDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create application directory: %w", err)
	}

	limits, err := history.LimitsFromConfig(cfg.Quarantine)
	if err != nil {
		return nil, err
	}
	store, err := history.Load(appDir, limits)
	if err != nil {
		return nil, err
	}

	scanCache := cache.Load(appDir)
	reporter := progress.NewReporter()

	sc := scanner.New(registry, scanCache, cfg.Workers)
	sc.SetProgressReporter(reporter)

	validator := security.ForPlatform(info, cfg.ProtectedPaths)
	// The quarantine itself is only ever touched through the history store
	validator.AddProtectedPath(store.QuarantineDir())

	executor := cleaner.NewExecutor(store, scanCache, validator, cfg)
	executor.SetProgressReporter(reporter)

	e := &Engine{
		cfg:      cfg,
		info:     info,
		appDir:   appDir,
		cache:    scanCache,
		store:    store,
		scanner:  sc,
		executor: executor,
		progress: reporter,
		log:      logging.Named("engine"),
	}

	metrics.SetHistoryRecords(store.Len())
	return e, nil
}

func (e *Engine) begin(next State) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		e.log.Debug("rejecting request while busy",
			logging.String("state", e.state.String()),
			logging.String("requested", next.String()))
		return fmt.Errorf("%w: engine is %s", ErrBusy, e.state)
	}
	e.state = next
	return nil
}

func (e *Engine) end() {
	e.mu.Lock()
	e.state = StateIdle
	e.mu.Unlock()
}

// State reports what the engine is doing
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Scan runs the detectors, reusing valid cached categories when useCache is set
func (e *Engine) Scan(useCache bool) ([]types.CheckResult, error) {
	if err := e.begin(StateScanning); err != nil {
		return nil, err
	}
	defer e.end()

	results := e.scanner.Scan(useCache)

	e.mu.Lock()
	e.lastResults = results
	e.lastScan = time.Now()
	e.mu.Unlock()
	return results, nil
}

// LastResults returns the results of the most recent scan
func (e *Engine) LastResults() ([]types.CheckResult, time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.CheckResult, len(e.lastResults))
	for i := range e.lastResults {
		out[i] = e.lastResults[i].Clone()
	}
	return out, e.lastScan
}

// Clean executes a cleanup batch
func (e *Engine) Clean(items []types.CleanupItem, useQuarantine bool) (*cleaner.Summary, error) {
	if err := e.begin(StateCleaning); err != nil {
		return nil, err
	}
	defer e.end()

	return e.executor.Execute(items, useQuarantine)
}

// CleanAndRescan cleans the items and then rescans. The scan cache is
// cleared by the cleanup before the rescan starts.
func (e *Engine) CleanAndRescan(items []types.CleanupItem, useQuarantine bool) (*cleaner.Summary, []types.CheckResult, error) {
	summary, err := e.Clean(items, useQuarantine)
	if err != nil {
		return nil, nil, err
	}
	results, err := e.Scan(true)
	if err != nil {
		return summary, nil, err
	}
	return summary, results, nil
}

// Undo restores a cleanup record
func (e *Engine) Undo(recordID string) (*history.UndoResult, error) {
	if err := e.begin(StateCleaning); err != nil {
		return nil, err
	}
	defer e.end()

	return e.executor.Undo(recordID)
}

// History returns the cleanup records, newest first
func (e *Engine) History() []history.Record {
	return e.store.Records()
}

// HistoryStats summarises the history and quarantine
func (e *Engine) HistoryStats() history.Stats {
	return e.store.Stats()
}

// DeleteQuarantinedItem permanently removes one quarantined item
func (e *Engine) DeleteQuarantinedItem(recordID string, index int) error {
	if err := e.begin(StateCleaning); err != nil {
		return err
	}
	defer e.end()

	return e.store.DeleteItem(recordID, index)
}

// ClearQuarantine empties the quarantine and forgets all history
func (e *Engine) ClearQuarantine() error {
	if err := e.begin(StateCleaning); err != nil {
		return err
	}
	defer e.end()

	return e.store.ClearAll()
}

// EnforceQuarantineBounds evicts old records while the quarantine is over its limit
func (e *Engine) EnforceQuarantineBounds() (int, error) {
	if err := e.begin(StateCleaning); err != nil {
		return 0, err
	}
	defer e.end()

	return e.store.EnforceBounds(), nil
}

// ClearCache drops every cached category
func (e *Engine) ClearCache() error {
	e.cache.Clear()
	return e.cache.Save()
}

// CacheEntries returns the cached categories in registry order
func (e *Engine) CacheEntries() []cache.CachedCategoryResult {
	var out []cache.CachedCategoryResult
	for _, name := range e.scanner.Registry().Names() {
		if entry, ok := e.cache.Entry(name); ok {
			out = append(out, entry)
		}
	}
	return out
}

// CacheConfig returns the TTL table
func (e *Engine) CacheConfig() config.CacheConfig {
	return e.cache.Config()
}

// SetTTL sets a category's TTL in seconds and persists the table
func (e *Engine) SetTTL(category string, seconds uint64) error {
	return e.updateCacheConfig(func(c *config.CacheConfig) error {
		c.SetTTL(category, seconds)
		return nil
	})
}

// RemoveTTL removes a category's TTL so its entries only expire on change
func (e *Engine) RemoveTTL(category string) error {
	return e.updateCacheConfig(func(c *config.CacheConfig) error {
		c.RemoveTTL(category)
		return nil
	})
}

// ResetTTLs restores the default TTL table
func (e *Engine) ResetTTLs() error {
	return e.updateCacheConfig(func(c *config.CacheConfig) error {
		c.ResetDefaults()
		return nil
	})
}

// ApplyTTLPreset replaces the TTL table with a named preset
func (e *Engine) ApplyTTLPreset(preset string) error {
	return e.updateCacheConfig(func(c *config.CacheConfig) error {
		return c.ApplyPreset(preset)
	})
}

func (e *Engine) updateCacheConfig(mutate func(*config.CacheConfig) error) error {
	cfg := e.cache.Config()
	if err := mutate(&cfg); err != nil {
		return err
	}
	e.cache.SetConfig(cfg)
	if err := e.cache.SaveConfig(); err != nil {
		metrics.RecordPersistFailure(config.CacheConfigFile)
		return fmt.Errorf("failed to save cache config: %w", err)
	}
	return nil
}

// Categories returns the registry names in presentation order
func (e *Engine) Categories() []string {
	return e.scanner.Registry().Names()
}

// DiskUsage reports the filesystem holding the home directory
func (e *Engine) DiskUsage() (*platform.DiskUsage, error) {
	path := e.appDir
	if e.info != nil && e.info.HomeDir != "" {
		path = e.info.HomeDir
	}
	return platform.GetDiskUsage(path)
}

// Progress returns the reporter scans and cleanups publish to
func (e *Engine) Progress() *progress.Reporter {
	return e.progress
}

// Config returns the application config the engine was built with
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// AppDir returns where the engine persists its state
func (e *Engine) AppDir() string {
	return e.appDir
}

// Close persists the scan cache. The history needs no flush: every change
// to it is written through under a file lock, and rewriting a stale copy
// here would drop records other processes added.
func (e *Engine) Close() error {
	if err := e.cache.Save(); err != nil {
		return fmt.Errorf("scan cache: %w", err)
	}
	return nil
}
