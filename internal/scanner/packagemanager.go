package scanner

import (
	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/platform"
	"github.com/fenilsonani/devsweep/internal/types"
)

// detectHomebrew reports the Homebrew download cache
func (r *recipes) detectHomebrew(t *cache.PathTracker) types.CheckResult {
	result := types.NewCheckResult(CategoryHomebrew)

	r.addCandidates(&result, t, []candidate{
		{
			kind:    "Homebrew Cache",
			path:    r.info.Cache("Homebrew"),
			safe:    true,
			command: "brew cleanup --prune=all",
		},
	})

	return result
}

// detectNode reports npm, yarn and pnpm caches
func (r *recipes) detectNode(t *cache.PathTracker) types.CheckResult {
	result := types.NewCheckResult(CategoryNode)

	yarnCache := r.info.Cache("yarn")
	pnpmStore := r.info.Home(".local", "share", "pnpm", "store")
	if r.info.OS == platform.MacOS {
		yarnCache = r.info.Cache("Yarn")
		pnpmStore = r.info.Home("Library", "pnpm", "store")
	}

	r.addCandidates(&result, t, []candidate{
		{kind: "npm Cache", path: r.info.Home(".npm", "_cacache"), safe: true},
		{kind: "Yarn Cache", path: yarnCache, safe: true},
		{kind: "Yarn Berry Cache", path: r.info.Home(".yarn", "berry", "cache"), safe: true},
		{
			kind:    "pnpm Store",
			path:    pnpmStore,
			safe:    true,
			command: "pnpm store prune",
		},
	})

	return result
}

// detectPython reports pip, Poetry and conda package caches
func (r *recipes) detectPython(t *cache.PathTracker) types.CheckResult {
	result := types.NewCheckResult(CategoryPython)

	r.addCandidates(&result, t, []candidate{
		{kind: "pip Cache", path: r.info.Cache("pip"), safe: true},
		{kind: "Poetry Cache", path: r.info.Cache("pypoetry"), safe: true},
		{
			kind:    "Conda Packages",
			path:    r.info.Home(".conda", "pkgs"),
			safe:    false,
			warning: "Environments may hard-link these packages",
			command: "conda clean --all --yes",
		},
	})

	return result
}

// detectRust reports the cargo registry and git caches
func (r *recipes) detectRust(t *cache.PathTracker) types.CheckResult {
	result := types.NewCheckResult(CategoryRust)

	r.addCandidates(&result, t, []candidate{
		{kind: "Cargo Registry Cache", path: r.info.Home(".cargo", "registry", "cache"), safe: true},
		{kind: "Cargo Registry Sources", path: r.info.Home(".cargo", "registry", "src"), safe: true},
		{kind: "Cargo Git Checkouts", path: r.info.Home(".cargo", "git", "checkouts"), safe: true},
	})

	return result
}

// detectGo reports the build cache and the module cache
func (r *recipes) detectGo(t *cache.PathTracker) types.CheckResult {
	result := types.NewCheckResult(CategoryGo)

	r.addCandidates(&result, t, []candidate{
		{
			kind:    "Go Build Cache",
			path:    r.info.Cache("go-build"),
			safe:    true,
			command: "go clean -cache",
		},
		{
			// Module cache files are read-only; go clean handles the chmod
			kind:    "Go Module Cache",
			path:    r.info.Home("go", "pkg", "mod"),
			safe:    false,
			warning: "Modules will be re-downloaded on the next build",
			command: "go clean -modcache",
		},
	})

	return result
}

// detectJava reports Gradle and Maven caches
func (r *recipes) detectJava(t *cache.PathTracker) types.CheckResult {
	result := types.NewCheckResult(CategoryJava)

	r.addCandidates(&result, t, []candidate{
		{kind: "Gradle Caches", path: r.info.Home(".gradle", "caches"), safe: true},
		{kind: "Gradle Wrapper Distributions", path: r.info.Home(".gradle", "wrapper", "dists"), safe: true},
		{
			kind:    "Maven Repository",
			path:    r.info.Home(".m2", "repository"),
			safe:    false,
			warning: "Offline builds need the artifacts re-downloaded",
		},
	})

	return result
}
