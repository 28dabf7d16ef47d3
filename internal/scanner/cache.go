package scanner

import (
	"path/filepath"
	"strings"

	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/platform"
	"github.com/fenilsonani/devsweep/internal/types"
)

// detectIDECaches reports JetBrains and VS Code caches
func (r *recipes) detectIDECaches(t *cache.PathTracker) types.CheckResult {
	result := types.NewCheckResult(CategoryIDE)

	jetbrains := r.info.Cache("JetBrains")
	trackRoot(t, jetbrains)

	var candidates []candidate
	for _, dir := range childDirs(jetbrains) {
		candidates = append(candidates, candidate{
			kind:    "JetBrains Cache (" + filepath.Base(dir) + ")",
			path:    dir,
			safe:    true,
			warning: "Indexes are rebuilt on next launch",
		})
	}

	for _, dir := range r.vscodeDirs() {
		candidates = append(candidates, candidate{
			kind: "VS Code " + filepath.Base(dir),
			path: dir,
			safe: true,
		})
	}

	r.addCandidates(&result, t, candidates)
	return result
}

// vscodeDirs returns the VS Code cache directories for the platform
func (r *recipes) vscodeDirs() []string {
	base := filepath.Join(r.info.ConfigHome, "Code")
	if r.info.OS == platform.MacOS {
		base = r.info.Home("Library", "Application Support", "Code")
	}
	return []string{
		filepath.Join(base, "Cache"),
		filepath.Join(base, "CachedData"),
		filepath.Join(base, "CachedExtensionVSIXs"),
	}
}

// detectBrowserCaches specifically scans browser cache directories
func (r *recipes) detectBrowserCaches(t *cache.PathTracker) types.CheckResult {
	result := types.NewCheckResult(CategoryBrowser)

	var candidates []candidate
	for _, b := range r.getBrowserCachePaths() {
		candidates = append(candidates, candidate{
			kind:    b.name + " Cache",
			path:    b.path,
			safe:    true,
			warning: "Close the browser before cleaning",
		})
	}

	r.addCandidates(&result, t, candidates)
	return result
}

type browserCache struct {
	name string
	path string
}

// getBrowserCachePaths returns browser-specific cache paths based on platform
func (r *recipes) getBrowserCachePaths() []browserCache {
	switch r.info.OS {
	case platform.MacOS:
		return []browserCache{
			{"Chrome", r.info.Cache("Google", "Chrome")},
			{"Firefox", r.info.Cache("Firefox")},
			{"Safari", r.info.Cache("com.apple.Safari")},
			{"Edge", r.info.Cache("Microsoft Edge")},
			{"Brave", r.info.Cache("BraveSoftware")},
		}
	case platform.Linux:
		return []browserCache{
			{"Chrome", r.info.Cache("google-chrome")},
			{"Chromium", r.info.Cache("chromium")},
			{"Firefox", r.info.Cache("mozilla", "firefox")},
			{"Edge", r.info.Cache("microsoft-edge")},
			{"Brave", r.info.Cache("BraveSoftware")},
		}
	}
	return nil
}

// claimedCachePaths lists cache-home directories another detector reports,
// so General Caches does not report them twice
func (r *recipes) claimedCachePaths() []string {
	claimed := []string{
		r.info.Cache("Homebrew"),
		r.info.Cache("yarn"),
		r.info.Cache("Yarn"),
		r.info.Cache("pip"),
		r.info.Cache("pypoetry"),
		r.info.Cache("go-build"),
		r.info.Cache("JetBrains"),
	}
	for _, b := range r.getBrowserCachePaths() {
		claimed = append(claimed, b.path)
	}
	claimed = append(claimed, r.info.LogDirs...)
	return claimed
}

// detectGeneralCaches reports large directories directly under the cache home
func (r *recipes) detectGeneralCaches(t *cache.PathTracker) types.CheckResult {
	result := types.NewCheckResult(CategoryGeneralCaches)
	trackRoot(t, r.info.CacheHome)

	claimed := r.claimedCachePaths()

	for _, dir := range childDirs(r.info.CacheHome) {
		if r.excluded(dir) || overlaps(dir, claimed) {
			continue
		}
		size, ok := dirSize(dir)
		if !ok || size < r.minCacheSize {
			continue
		}
		result.Add(types.CleanupItem{
			Kind:         "Cache: " + filepath.Base(dir),
			Path:         dir,
			SizeBytes:    size,
			SafeToDelete: true,
			Warning:      "App may need to rebuild cache",
		})
	}

	return result
}

// overlaps reports whether dir equals, contains or lies below any of paths
func overlaps(dir string, paths []string) bool {
	sep := string(filepath.Separator)
	for _, p := range paths {
		p = filepath.Clean(p)
		if dir == p || strings.HasPrefix(p, dir+sep) || strings.HasPrefix(dir, p+sep) {
			return true
		}
	}
	return false
}
