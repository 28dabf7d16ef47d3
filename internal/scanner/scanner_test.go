package scanner

import (
	"math/rand"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/config"
	"github.com/fenilsonani/devsweep/internal/progress"
	"github.com/fenilsonani/devsweep/internal/types"
)

// countingDetector wraps a detect function and counts invocations
type countingDetector struct {
	calls atomic.Int32
	fn    DetectFunc
}

func (c *countingDetector) detect(t *cache.PathTracker) types.CheckResult {
	c.calls.Add(1)
	return c.fn(t)
}

// fileDetector reports path with its current on-disk size
func fileDetector(name, path string) *countingDetector {
	return &countingDetector{fn: func(_ *cache.PathTracker) types.CheckResult {
		r := types.NewCheckResult(name)
		info, err := os.Stat(path)
		if err != nil {
			return r
		}
		r.Add(types.CleanupItem{Kind: "file", Path: path, SizeBytes: uint64(info.Size()), SafeToDelete: true})
		return r
	}}
}

func emptyDetector(name string) *countingDetector {
	return &countingDetector{fn: func(_ *cache.PathTracker) types.CheckResult {
		return types.NewCheckResult(name)
	}}
}

type scenario struct {
	dir   string
	aPath string
	detA  *countingDetector
	detB  *countingDetector
	cache *cache.ScanCache
	s     *Scanner
}

// newScenario builds Registry = [("A", detA), ("B", detB)] with detA
// reporting one 100-byte file and detB reporting nothing
func newScenario(t *testing.T) *scenario {
	t.Helper()

	dir := t.TempDir()
	aPath := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(aPath, make([]byte, 100), 0644))

	sc := &scenario{
		dir:   dir,
		aPath: aPath,
		detA:  fileDetector("A", aPath),
		detB:  emptyDetector("B"),
		cache: cache.New(filepath.Join(dir, "app"), config.CacheConfig{}),
	}

	reg, err := NewRegistry(
		Detector{Name: "A", Detect: sc.detA.detect},
		Detector{Name: "B", Detect: sc.detB.detect},
	)
	require.NoError(t, err)

	sc.s = New(reg, sc.cache, 2)
	return sc
}

// =============================================================================
// End-to-end scenarios
// =============================================================================

func TestColdScan(t *testing.T) {
	sc := newScenario(t)

	results := sc.s.Scan(true)

	require.Len(t, results, 1)
	assert.Equal(t, "A", results[0].Name)
	assert.Equal(t, uint64(100), results[0].TotalSize)

	entry, ok := sc.cache.Entry("A")
	require.True(t, ok)
	require.Contains(t, entry.TrackedPaths, sc.aPath)
	assert.Equal(t, uint64(100), entry.TrackedPaths[sc.aPath].SizeBytes)

	// The empty category is cached but not emitted
	_, ok = sc.cache.Entry("B")
	assert.True(t, ok)

	_, err := os.Stat(filepath.Join(sc.dir, "app", cache.FileName))
	assert.NoError(t, err, "scan should persist the cache")
}

func TestWarmCacheHit(t *testing.T) {
	sc := newScenario(t)
	first := sc.s.Scan(true)

	second := sc.s.Scan(true)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), sc.detA.calls.Load(), "detA must not run on a warm cache")
	assert.Equal(t, int32(1), sc.detB.calls.Load())
}

func TestMetadataInvalidation(t *testing.T) {
	sc := newScenario(t)
	sc.s.Scan(true)

	require.NoError(t, os.WriteFile(sc.aPath, make([]byte, 200), 0644))

	results := sc.s.Scan(true)

	assert.Equal(t, int32(2), sc.detA.calls.Load())
	require.Len(t, results, 1)
	assert.Equal(t, uint64(200), results[0].TotalSize)

	entry, ok := sc.cache.Entry("A")
	require.True(t, ok)
	assert.Equal(t, uint64(200), entry.TotalSize)
	assert.Equal(t, int32(1), sc.detB.calls.Load(), "untouched category stays cached")
}

func TestTTLInvalidation(t *testing.T) {
	sc := newScenario(t)
	sc.s.Scan(true)

	cfg := config.CacheConfig{}
	cfg.SetTTL("A", 0)
	sc.cache.SetConfig(cfg)

	sc.s.Scan(true)

	assert.Equal(t, int32(2), sc.detA.calls.Load(), "TTL 0 forces a rescan")
	assert.Equal(t, int32(1), sc.detB.calls.Load())
}

func TestScanWithoutCacheRunsEverything(t *testing.T) {
	sc := newScenario(t)
	sc.s.Scan(true)

	results := sc.s.Scan(false)

	require.Len(t, results, 1)
	assert.Equal(t, int32(2), sc.detA.calls.Load())
	assert.Equal(t, int32(2), sc.detB.calls.Load())
}

// =============================================================================
// Ordering
// =============================================================================

func TestScanOutputFollowsRegistryOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 10; round++ {
		dir := t.TempDir()
		n := 2 + rng.Intn(10)

		var detectors []Detector
		var want []string
		for i := 0; i < n; i++ {
			name := "cat-" + string(rune('a'+i))
			empty := rng.Intn(3) == 0
			delay := time.Duration(rng.Intn(5)) * time.Millisecond
			size := uint64(1 + rng.Intn(1000))

			detectors = append(detectors, Detector{Name: name, Detect: func(_ *cache.PathTracker) types.CheckResult {
				time.Sleep(delay)
				r := types.NewCheckResult(name)
				if !empty {
					r.Add(types.CleanupItem{Kind: "cmd", CleanupCommand: "true", SizeBytes: size})
				}
				return r
			}})
			if !empty {
				want = append(want, name)
			}
		}

		reg, err := NewRegistry(detectors...)
		require.NoError(t, err)
		s := New(reg, cache.New(dir, config.CacheConfig{}), 4)

		for pass := 0; pass < 2; pass++ {
			var got []string
			for _, r := range s.Scan(true) {
				got = append(got, r.Name)
			}
			assert.Equal(t, want, got, "round %d pass %d", round, pass)
		}
	}
}

// =============================================================================
// Fault isolation
// =============================================================================

func TestPanickingDetectorIsIsolated(t *testing.T) {
	dir := t.TempDir()
	var panicking atomic.Bool

	reg, err := NewRegistry(
		Detector{Name: "P", Detect: func(_ *cache.PathTracker) types.CheckResult {
			if panicking.Load() {
				panic("boom")
			}
			r := types.NewCheckResult("P")
			r.Add(types.CleanupItem{Kind: "cmd", CleanupCommand: "true", SizeBytes: 5})
			return r
		}},
		Detector{Name: "Q", Detect: func(_ *cache.PathTracker) types.CheckResult {
			r := types.NewCheckResult("Q")
			r.Add(types.CleanupItem{Kind: "cmd", CleanupCommand: "true", SizeBytes: 7})
			return r
		}},
	)
	require.NoError(t, err)

	sc := cache.New(dir, config.CacheConfig{})
	s := New(reg, sc, 2)
	require.Len(t, s.Scan(true), 2)

	panicking.Store(true)
	results := s.Scan(false)

	require.Len(t, results, 1)
	assert.Equal(t, "Q", results[0].Name)

	// The old entry survives the panic and is served again from cache
	_, ok := sc.Entry("P")
	assert.True(t, ok)

	results = s.Scan(true)
	require.Len(t, results, 2)
	assert.Equal(t, "P", results[0].Name)
}

func TestInvalidItemsAreDropped(t *testing.T) {
	reg, err := NewRegistry(Detector{Name: "X", Detect: func(_ *cache.PathTracker) types.CheckResult {
		r := types.NewCheckResult("wrong name")
		r.Items = append(r.Items,
			types.CleanupItem{Kind: "broken", SizeBytes: 50},
			types.CleanupItem{Kind: "ok", CleanupCommand: "true", SizeBytes: 10},
		)
		r.TotalSize = 999
		return r
	}})
	require.NoError(t, err)

	s := New(reg, cache.New(t.TempDir(), config.CacheConfig{}), 1)
	results := s.Scan(false)

	require.Len(t, results, 1)
	assert.Equal(t, "X", results[0].Name)
	require.Len(t, results[0].Items, 1)
	assert.Equal(t, uint64(10), results[0].TotalSize)
}

func TestDetectorTrackedPathsAreKept(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "root")
	require.NoError(t, os.MkdirAll(root, 0755))

	reg, err := NewRegistry(Detector{Name: "R", Detect: func(tr *cache.PathTracker) types.CheckResult {
		tr.Track(root)
		r := types.NewCheckResult("R")
		r.Add(types.CleanupItem{Kind: "cmd", CleanupCommand: "true", SizeBytes: 1})
		return r
	}})
	require.NoError(t, err)

	sc := cache.New(filepath.Join(dir, "app"), config.CacheConfig{})
	New(reg, sc, 1).Scan(true)

	entry, ok := sc.Entry("R")
	require.True(t, ok)
	assert.Contains(t, entry.TrackedPaths, root)
}

// =============================================================================
// Progress
// =============================================================================

func TestScanPublishesProgress(t *testing.T) {
	sc := newScenario(t)
	pr := progress.NewReporter()
	sc.s.SetProgressReporter(pr)

	sc.s.Scan(true)

	final := pr.GetScanProgress()
	require.NotNil(t, final)
	assert.Equal(t, progress.PhaseComplete, final.Phase)
	assert.Equal(t, 2, final.CategoriesTotal)
	assert.Equal(t, 2, final.CategoriesDone)
	assert.Equal(t, 1, final.ItemsFound)
	assert.Equal(t, uint64(100), final.TotalSize)

	sc.s.Scan(true)
	final = pr.GetScanProgress()
	assert.Equal(t, 0, final.CategoriesTotal)
	assert.Equal(t, 2, final.CachedCategories)
}
