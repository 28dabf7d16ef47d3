package cache

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/devsweep/internal/config"
	"github.com/fenilsonani/devsweep/internal/types"
)

func ttlPtr(v uint64) *uint64 { return &v }

func sampleResult(name, path string, size uint64) types.CheckResult {
	r := types.NewCheckResult(name)
	r.Add(types.CleanupItem{Kind: "cache", Path: path, SizeBytes: size, SafeToDelete: true})
	return r
}

// fixedClock returns a settable clock for TTL tests
type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

// =============================================================================
// Validity predicate
// =============================================================================

func TestIsValidAtTTL(t *testing.T) {
	scanned := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name string
		ttl  *uint64
		age  time.Duration
		want bool
	}{
		{"nil ttl never expires", nil, 1000 * time.Hour, true},
		{"zero ttl always stale", ttlPtr(0), 0, false},
		{"within ttl", ttlPtr(60), 59 * time.Second, true},
		{"exactly ttl", ttlPtr(60), 60 * time.Second, true},
		{"past ttl", ttlPtr(60), 60*time.Second + time.Nanosecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := CachedCategoryResult{Name: "x", ScannedAt: scanned, TTLSeconds: tt.ttl}
			assert.Equal(t, tt.want, entry.IsValidAt(scanned.Add(tt.age)))
		})
	}
}

func TestIsValidAtExpiresAfterTTLRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	scanned := time.Now()

	for i := 0; i < 200; i++ {
		ttl := uint64(rng.Intn(100000))
		eps := time.Duration(rng.Intn(1_000_000)+1) * time.Microsecond
		entry := CachedCategoryResult{ScannedAt: scanned, TTLSeconds: &ttl}
		assert.False(t, entry.IsValidAt(scanned.Add(time.Duration(ttl)*time.Second+eps)), "ttl=%d eps=%s", ttl, eps)
	}
}

func TestIsValidAtTrackedPathChanges(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(file, make([]byte, 100), 0644))

	tracker := NewPathTracker()
	tracker.Track(file)
	entry := CachedCategoryResult{ScannedAt: time.Now(), TrackedPaths: tracker.Paths()}
	assert.True(t, entry.IsValidAt(time.Now()))

	require.NoError(t, os.WriteFile(file, make([]byte, 200), 0644))
	assert.False(t, entry.IsValidAt(time.Now()), "size change must invalidate")

	tracker.Track(file)
	entry.TrackedPaths = tracker.Paths()
	assert.True(t, entry.IsValidAt(time.Now()))

	later := time.Now().Add(2 * time.Hour)
	require.NoError(t, os.Chtimes(file, later, later))
	assert.False(t, entry.IsValidAt(time.Now()), "mtime change must invalidate")

	require.NoError(t, os.Remove(file))
	assert.False(t, entry.IsValidAt(time.Now()), "removal must invalidate")
}

// =============================================================================
// ScanCache operations
// =============================================================================

func TestUpdateAndGetValid(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, config.CacheConfig{})

	_, ok := c.GetValid("A")
	assert.False(t, ok)
	assert.True(t, c.NeedsRescan("A"))

	_, hasLast := c.LastFullScan()
	assert.False(t, hasLast)

	result := sampleResult("A", "/tmp/a", 100)
	c.Update("A", result, nil)

	got, ok := c.GetValid("A")
	require.True(t, ok)
	assert.Equal(t, result, got)
	assert.False(t, c.NeedsRescan("A"))

	_, hasLast = c.LastFullScan()
	assert.True(t, hasLast)
}

func TestUpdateAttachesConfiguredTTL(t *testing.T) {
	cfg := config.CacheConfig{}
	cfg.SetTTL("A", 30)
	c := New(t.TempDir(), cfg)

	c.Update("A", sampleResult("A", "/x", 1), nil)
	c.Update("B", sampleResult("B", "/y", 1), nil)

	a, ok := c.Entry("A")
	require.True(t, ok)
	require.NotNil(t, a.TTLSeconds)
	assert.Equal(t, uint64(30), *a.TTLSeconds)

	b, ok := c.Entry("B")
	require.True(t, ok)
	assert.Nil(t, b.TTLSeconds)
}

func TestGetValidHonoursClock(t *testing.T) {
	clock := &fixedClock{t: time.Unix(1_700_000_000, 0)}
	cfg := config.CacheConfig{}
	cfg.SetTTL("A", 10)
	c := New(t.TempDir(), cfg).WithClock(clock.now)

	c.Update("A", sampleResult("A", "/x", 1), nil)
	assert.False(t, c.NeedsRescan("A"))

	clock.t = clock.t.Add(10 * time.Second)
	assert.False(t, c.NeedsRescan("A"))

	clock.t = clock.t.Add(time.Second)
	assert.True(t, c.NeedsRescan("A"))
}

func TestSetConfigReappliesTTL(t *testing.T) {
	c := New(t.TempDir(), config.CacheConfig{})
	c.Update("A", sampleResult("A", "/x", 1), nil)
	assert.False(t, c.NeedsRescan("A"))

	cfg := c.Config()
	cfg.SetTTL("A", 0)
	c.SetConfig(cfg)
	assert.True(t, c.NeedsRescan("A"))

	cfg.RemoveTTL("A")
	c.SetConfig(cfg)
	assert.False(t, c.NeedsRescan("A"))
}

func TestClearAndInvalidate(t *testing.T) {
	c := New(t.TempDir(), config.CacheConfig{})
	c.Update("A", sampleResult("A", "/x", 1), nil)
	c.Update("B", sampleResult("B", "/y", 2), nil)
	assert.Equal(t, []string{"A", "B"}, c.Names())

	c.Invalidate("A")
	assert.Equal(t, []string{"B"}, c.Names())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, hasLast := c.LastFullScan()
	assert.False(t, hasLast)
}

func TestEntryReturnsCopy(t *testing.T) {
	c := New(t.TempDir(), config.CacheConfig{})
	c.Update("A", sampleResult("A", "/x", 1), map[string]PathMetadata{"/x": {SizeBytes: 1}})

	entry, ok := c.Entry("A")
	require.True(t, ok)
	entry.Items[0].Path = "/mutated"
	entry.TrackedPaths["/other"] = PathMetadata{}

	again, _ := c.Entry("A")
	assert.Equal(t, "/x", again.Items[0].Path)
	assert.Len(t, again.TrackedPaths, 1)
}

// =============================================================================
// Persistence
// =============================================================================

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tracked")
	require.NoError(t, os.WriteFile(file, make([]byte, 100), 0644))

	cfg := config.CacheConfig{}
	cfg.SetTTL("A", 3600)
	c := New(dir, cfg)

	tracker := NewPathTracker()
	tracker.Track(file)
	c.Update("A", sampleResult("A", file, 100), tracker.Paths())
	c.Update("B", sampleResult("B", "/nowhere", 7), nil)
	require.NoError(t, c.Save())
	require.NoError(t, c.SaveConfig())

	loaded := Load(dir)
	assert.Equal(t, c.Names(), loaded.Names())

	for _, name := range c.Names() {
		want, _ := c.Entry(name)
		got, _ := loaded.Entry(name)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Items, got.Items)
		assert.Equal(t, want.TotalSize, got.TotalSize)
		assert.True(t, want.ScannedAt.Equal(got.ScannedAt), "ScannedAt mismatch for %s", name)
		assert.Equal(t, want.TTLSeconds, got.TTLSeconds)
		require.Len(t, got.TrackedPaths, len(want.TrackedPaths))
		for p, m := range want.TrackedPaths {
			assert.True(t, m.Equal(got.TrackedPaths[p]), "tracked metadata mismatch for %s", p)
		}
	}

	wantLast, _ := c.LastFullScan()
	gotLast, ok := loaded.LastFullScan()
	require.True(t, ok)
	assert.True(t, wantLast.Equal(gotLast))

	ttl, ok := loaded.Config().GetTTL("A")
	require.True(t, ok)
	assert.Equal(t, uint64(3600), ttl)

	// tracked file is untouched so the reloaded entry is still served
	_, ok = loaded.GetValid("A")
	assert.True(t, ok)
}

func TestLoadCorruptPayloadIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{{{"), 0644))

	c := Load(dir)
	assert.Equal(t, 0, c.Len())
}

func TestLoadPayloadAndConfigAreIndependent(t *testing.T) {
	dir := t.TempDir()

	c := New(dir, config.DefaultCacheConfig())
	c.Update("A", sampleResult("A", "/x", 1), nil)
	require.NoError(t, c.Save())
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.CacheConfigFile), []byte("garbage"), 0644))

	loaded := Load(dir)
	assert.Equal(t, []string{"A"}, loaded.Names())
	ttl, ok := loaded.Config().GetTTL("Homebrew")
	require.True(t, ok, "corrupt config must fall back to defaults")
	assert.Equal(t, uint64(3600), ttl)
}

func TestLoadToleratesUnknownAndMissingFields(t *testing.T) {
	dir := t.TempDir()
	content := `{
  "categories": {
    "A": {
      "items": [{"kind": "k", "path": "/x", "size_bytes": 3, "future": true}],
      "total_size": 3,
      "scanned_at": "2024-01-01T00:00:00Z"
    }
  },
  "schema": 9
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))

	c := Load(dir)
	entry, ok := c.Entry("A")
	require.True(t, ok)
	assert.Equal(t, "A", entry.Name)
	assert.NotNil(t, entry.TrackedPaths)
	assert.Nil(t, entry.TTLSeconds)

	got, ok := c.GetValid("A")
	require.True(t, ok)
	assert.Equal(t, uint64(3), got.TotalSize)
}

func TestLoadMissingDir(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "does", "not", "exist"))
	assert.Equal(t, 0, c.Len())
	_, ok := c.Config().GetTTL("Trash")
	assert.True(t, ok)
}
