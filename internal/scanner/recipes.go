package scanner

import (
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/config"
	"github.com/fenilsonani/devsweep/internal/platform"
	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

// Category names of the shipped detectors, in registry order
const (
	CategoryDocker        = "Docker"
	CategoryHomebrew      = "Homebrew"
	CategoryNode          = "Node.js/npm/yarn"
	CategoryPython        = "Python"
	CategoryRust          = "Rust/Cargo"
	CategoryGo            = "Go"
	CategoryJava          = "Java (Gradle/Maven)"
	CategoryIDE           = "IDE Caches"
	CategoryLogs          = "System Logs"
	CategoryBrowser       = "Browser Caches"
	CategoryGeneralCaches = "General Caches"
	CategoryTrash         = "Trash"
	CategoryCustomPaths   = "Custom Paths"
)

// generalCacheMinSize is the smallest cache directory reported under General Caches
const generalCacheMinSize = 100 * utils.MB

// recipes holds what the shipped detectors need to know about the host
type recipes struct {
	info         *platform.Info
	trashDirs    []string
	customPaths  []config.CustomPath
	excludePaths []string // never reported, e.g. the devsweep app directory
	minCacheSize uint64
	lookPath     func(string) (string, error)
	docker       func() *DockerClient
}

func newRecipes(info *platform.Info, cfg *config.Config) *recipes {
	r := &recipes{
		info:         info,
		trashDirs:    cfg.TrashDirs,
		customPaths:  cfg.EnabledCustomPaths(info.HomeDir),
		minCacheSize: generalCacheMinSize,
		lookPath:     exec.LookPath,
		docker:       func() *DockerClient { return NewDockerClient(info.HomeDir) },
	}
	if appDir, err := cfg.ResolveAppDir(); err == nil {
		r.excludePaths = append(r.excludePaths, filepath.Clean(appDir))
	}
	return r
}

// DefaultRegistry returns the shipped detectors in presentation order,
// followed by "Custom Paths" when any are enabled. Disabled categories are
// left out.
func DefaultRegistry(info *platform.Info, cfg *config.Config) (*Registry, error) {
	r := newRecipes(info, cfg)
	return r.registry(cfg)
}

func (r *recipes) registry(cfg *config.Config) (*Registry, error) {
	all := []Detector{
		{CategoryDocker, r.detectDocker},
		{CategoryHomebrew, r.detectHomebrew},
		{CategoryNode, r.detectNode},
		{CategoryPython, r.detectPython},
		{CategoryRust, r.detectRust},
		{CategoryGo, r.detectGo},
		{CategoryJava, r.detectJava},
		{CategoryIDE, r.detectIDECaches},
		{CategoryLogs, r.detectLogs},
		{CategoryBrowser, r.detectBrowserCaches},
		{CategoryGeneralCaches, r.detectGeneralCaches},
		{CategoryTrash, r.detectTrash},
	}
	if len(r.customPaths) > 0 {
		all = append(all, Detector{CategoryCustomPaths, r.detectCustomPaths})
	}

	registry := &Registry{index: make(map[string]int)}
	for _, d := range all {
		if !cfg.IsCategoryEnabled(d.Name) {
			continue
		}
		if err := registry.Register(d); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// candidate is a well-known directory a recipe reports when present
type candidate struct {
	kind    string
	path    string
	safe    bool
	warning string
	command string // only used when its binary is on PATH
}

// addCandidates reports every existing, non-empty candidate and tracks it
func (r *recipes) addCandidates(result *types.CheckResult, t *cache.PathTracker, candidates []candidate) {
	for _, c := range candidates {
		trackRoot(t, c.path)
		if r.excluded(c.path) {
			continue
		}
		size, ok := dirSize(c.path)
		if !ok || size == 0 {
			continue
		}

		item := types.CleanupItem{
			Kind:         c.kind,
			Path:         c.path,
			SizeBytes:    size,
			SafeToDelete: c.safe,
			Warning:      c.warning,
		}
		if c.command != "" && r.hasBinary(c.command) {
			item.CleanupCommand = c.command
		}
		result.Add(item)
	}
}

// hasBinary reports whether the first word of command resolves on PATH
func (r *recipes) hasBinary(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 || r.lookPath == nil {
		return false
	}
	_, err := r.lookPath(fields[0])
	return err == nil
}

// excluded reports whether path is, or lies below, an excluded path
func (r *recipes) excluded(path string) bool {
	clean := filepath.Clean(path)
	for _, ex := range r.excludePaths {
		if clean == ex || strings.HasPrefix(clean, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// trackRoot tracks path when it exists, otherwise its nearest existing
// ancestor, so that the directory appearing later invalidates the cached result
func trackRoot(t *cache.PathTracker, path string) {
	if t == nil {
		return
	}
	for {
		if _, err := os.Lstat(path); err == nil {
			t.Track(path)
			return
		}
		parent := filepath.Dir(path)
		if parent == path {
			return
		}
		path = parent
	}
}

// dirSize returns the apparent size of path. For directories it sums regular
// files below it, skipping anything it cannot read. ok is false when path
// does not exist.
func dirSize(path string) (uint64, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, false
	}
	if !info.IsDir() {
		return uint64(info.Size()), true
	}

	var size uint64
	filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if fi, err := d.Info(); err == nil {
				size += uint64(fi.Size())
			}
		}
		return nil
	})
	return size, true
}

// childDirs lists the directories directly below dir
func childDirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}
