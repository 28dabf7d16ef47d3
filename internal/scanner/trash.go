package scanner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

// detectTrash reports each non-empty user trash directory
func (r *recipes) detectTrash(t *cache.PathTracker) types.CheckResult {
	result := types.NewCheckResult(CategoryTrash)

	for _, dir := range r.trashPaths() {
		trackRoot(t, dir)

		count := trashEntries(dir)
		if count == 0 {
			continue
		}
		size, _ := dirSize(dir)

		result.Add(types.CleanupItem{
			Kind:         fmt.Sprintf("Empty Trash (%d items)", count),
			Path:         dir,
			SizeBytes:    size,
			SafeToDelete: true,
		})
	}

	return result
}

// trashPaths returns the absolute trash directories, platform one first
func (r *recipes) trashPaths() []string {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	add(r.info.TrashDir)
	for _, rel := range r.trashDirs {
		add(utils.ExpandHome("~/"+rel, r.info.HomeDir))
	}
	return paths
}

// trashEntries counts trashed items. Freedesktop trash keeps them in files/;
// the macOS trash keeps them at the top level.
func trashEntries(dir string) int {
	if entries, err := os.ReadDir(filepath.Join(dir, "files")); err == nil {
		return len(entries)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		if e.Name() != ".DS_Store" {
			count++
		}
	}
	return count
}

// detectCustomPaths reports user-configured directories
func (r *recipes) detectCustomPaths(t *cache.PathTracker) types.CheckResult {
	result := types.NewCheckResult(CategoryCustomPaths)

	for _, cp := range r.customPaths {
		trackRoot(t, cp.Path)
		if r.excluded(cp.Path) {
			continue
		}

		targets := []string{cp.Path}
		if cp.Recursive {
			targets = childPaths(cp.Path)
		}

		for _, target := range targets {
			size, ok := dirSize(target)
			if !ok || size == 0 {
				continue
			}
			kind := cp.Label
			if cp.Recursive {
				kind = cp.Label + ": " + filepath.Base(target)
			}
			result.Add(types.CleanupItem{
				Kind:         kind,
				Path:         target,
				SizeBytes:    size,
				SafeToDelete: false,
				Warning:      "User-configured custom path",
			})
		}
	}

	return result
}

// childPaths lists every entry directly below dir
func childPaths(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out
}
