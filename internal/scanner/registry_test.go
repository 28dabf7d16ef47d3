package scanner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/config"
	"github.com/fenilsonani/devsweep/internal/testutil"
	"github.com/fenilsonani/devsweep/internal/types"
)

func noop(_ *cache.PathTracker) types.CheckResult { return types.CheckResult{} }

func TestRegistryKeepsOrder(t *testing.T) {
	reg, err := NewRegistry(
		Detector{Name: "b", Detect: noop},
		Detector{Name: "a", Detect: noop},
		Detector{Name: "c", Detect: noop},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c"}, reg.Names())
	assert.Equal(t, 3, reg.Len())

	d, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", d.Name)

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicatesAndBadDetectors(t *testing.T) {
	_, err := NewRegistry(Detector{Name: "x", Detect: noop}, Detector{Name: "x", Detect: noop})
	assert.True(t, errors.Is(err, ErrDuplicateDetector))

	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.Error(t, reg.Register(Detector{Name: "", Detect: noop}))
	assert.Error(t, reg.Register(Detector{Name: "nil"}))
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryAllReturnsCopy(t *testing.T) {
	reg, err := NewRegistry(Detector{Name: "a", Detect: noop})
	require.NoError(t, err)

	all := reg.All()
	all[0].Name = "changed"
	assert.Equal(t, []string{"a"}, reg.Names())
}

func TestDefaultRegistryOrder(t *testing.T) {
	f := testutil.NewFixture(t)
	cfg := config.GetDefault()
	cfg.AppDir = f.AppDir

	reg, err := DefaultRegistry(f.PlatformInfo(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{
		CategoryDocker,
		CategoryHomebrew,
		CategoryNode,
		CategoryPython,
		CategoryRust,
		CategoryGo,
		CategoryJava,
		CategoryIDE,
		CategoryLogs,
		CategoryBrowser,
		CategoryGeneralCaches,
		CategoryTrash,
	}, reg.Names())
}

func TestDefaultRegistryCustomPathsAndDisabled(t *testing.T) {
	f := testutil.NewFixture(t)
	cfg := config.GetDefault()
	cfg.AppDir = f.AppDir
	cfg.DisabledCategories = []string{CategoryDocker, CategoryTrash}
	cfg.CustomPaths = []config.CustomPath{{Path: f.Path("scratch"), Enabled: true}}

	reg, err := DefaultRegistry(f.PlatformInfo(), cfg)
	require.NoError(t, err)

	names := reg.Names()
	assert.NotContains(t, names, CategoryDocker)
	assert.NotContains(t, names, CategoryTrash)
	assert.Equal(t, CategoryCustomPaths, names[len(names)-1])
}
