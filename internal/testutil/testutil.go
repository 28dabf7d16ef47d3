// Package testutil provides test helpers and fixtures for devsweep tests.
// All file operations use t.TempDir() for safe, isolated testing.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fenilsonani/devsweep/internal/platform"
	"github.com/fenilsonani/devsweep/internal/types"
)

// TestFixture lays out a fake home directory and application directory
type TestFixture struct {
	T       *testing.T
	RootDir string // Root temp directory (auto-cleaned)

	HomeDir   string
	CacheHome string // ~/.cache
	TrashDir  string // ~/.local/share/Trash
	LogsDir   string // ~/.cache/logs
	AppDir    string // where devsweep keeps its state
}

// NewFixture creates a new test fixture with standard directory structure
func NewFixture(t *testing.T) *TestFixture {
	t.Helper()

	root := t.TempDir()
	home := filepath.Join(root, "home")

	f := &TestFixture{
		T:         t,
		RootDir:   root,
		HomeDir:   home,
		CacheHome: filepath.Join(home, ".cache"),
		TrashDir:  filepath.Join(home, ".local", "share", "Trash"),
		LogsDir:   filepath.Join(home, ".cache", "logs"),
		AppDir:    filepath.Join(root, "app"),
	}

	for _, dir := range []string{f.HomeDir, f.CacheHome, f.AppDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	return f
}

// PlatformInfo returns Linux platform info rooted at the fixture home
func (f *TestFixture) PlatformInfo() *platform.Info {
	f.T.Helper()

	info, err := platform.InfoFor(platform.Linux, f.HomeDir)
	if err != nil {
		f.T.Fatalf("failed to build platform info: %v", err)
	}
	// Ignore XDG overrides from the environment running the tests
	info.CacheHome = f.CacheHome
	info.ConfigHome = filepath.Join(f.HomeDir, ".config")
	info.LogDirs = []string{f.LogsDir}
	info.TrashDir = f.TrashDir
	return info
}

// =============================================================================
// File Creation Helpers
// =============================================================================

// CreateFile creates a file with specified content and returns its path.
// relPath is relative to the fixture root.
func (f *TestFixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()
	return WriteFile(f.T, filepath.Join(f.RootDir, relPath), content)
}

// CreateSizedFile creates a zero-filled file of size bytes
func (f *TestFixture) CreateSizedFile(relPath string, size int) string {
	f.T.Helper()
	return f.CreateFile(relPath, make([]byte, size))
}

// CreateHomeFile creates a zero-filled file below the fixture home
func (f *TestFixture) CreateHomeFile(relPath string, size int) string {
	f.T.Helper()
	return WriteFile(f.T, filepath.Join(f.HomeDir, relPath), make([]byte, size))
}

// CreateFileWithAge creates a file and sets its modification time to the past
func (f *TestFixture) CreateFileWithAge(relPath string, content []byte, age time.Duration) string {
	f.T.Helper()

	fullPath := f.CreateFile(relPath, content)
	oldTime := time.Now().Add(-age)

	if err := os.Chtimes(fullPath, oldTime, oldTime); err != nil {
		f.T.Fatalf("failed to set file time for %s: %v", fullPath, err)
	}

	return fullPath
}

// WriteFile writes content to an absolute path, creating parents
func WriteFile(t *testing.T, fullPath string, content []byte) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", filepath.Dir(fullPath), err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		t.Fatalf("failed to create file %s: %v", fullPath, err)
	}
	return fullPath
}

// =============================================================================
// Directory Helpers
// =============================================================================

// CreateDir creates a directory and returns its path
func (f *TestFixture) CreateDir(relPath string) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", fullPath, err)
	}

	return fullPath
}

// PopulateTrash puts n small files into the fixture trash
func (f *TestFixture) PopulateTrash(n int) {
	f.T.Helper()

	for i := 0; i < n; i++ {
		WriteFile(f.T, filepath.Join(f.TrashDir, "files", "trashed-"+string(rune('a'+i))), []byte("trashed"))
	}
}

// =============================================================================
// Item Helpers
// =============================================================================

// PathItem returns a quarantinable cleanup item for path sized from disk
func PathItem(t *testing.T, kind, path string) types.CleanupItem {
	t.Helper()

	size, err := GetDirSize(path)
	if err != nil {
		size = 0
	}
	return types.CleanupItem{
		Kind:         kind,
		Path:         path,
		SizeBytes:    uint64(size),
		SafeToDelete: true,
	}
}

// CommandItem returns a command-only cleanup item
func CommandItem(kind, command string) types.CleanupItem {
	return types.CleanupItem{
		Kind:           kind,
		SafeToDelete:   true,
		CleanupCommand: command,
	}
}

// =============================================================================
// Path Helpers
// =============================================================================

// Path returns the full path for a relative path within the fixture
func (f *TestFixture) Path(relPath string) string {
	return filepath.Join(f.RootDir, relPath)
}

// =============================================================================
// Assertion Helpers
// =============================================================================

// FileExists checks if a file exists without following symlinks
func FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// AssertFileExists fails the test if the file doesn't exist
func (f *TestFixture) AssertFileExists(path string) {
	f.T.Helper()
	if !FileExists(path) {
		f.T.Errorf("expected file to exist: %s", path)
	}
}

// AssertFileNotExists fails the test if the file exists
func (f *TestFixture) AssertFileNotExists(path string) {
	f.T.Helper()
	if FileExists(path) {
		f.T.Errorf("expected file to not exist: %s", path)
	}
}

// AssertFileSize checks if file has expected size
func (f *TestFixture) AssertFileSize(path string, expectedSize int64) {
	f.T.Helper()
	info, err := os.Stat(path)
	if err != nil {
		f.T.Errorf("failed to stat %s: %v", path, err)
		return
	}
	if info.Size() != expectedSize {
		f.T.Errorf("file %s has size %d, want %d", path, info.Size(), expectedSize)
	}
}

// =============================================================================
// Security Test Helpers
// =============================================================================

// DangerousPathPatterns returns paths that should be rejected by security checks
func DangerousPathPatterns() []string {
	return []string{
		"../../../etc/passwd",
		"/etc/passwd",
		"file\x00.txt",   // null byte injection
		"file\n.txt",     // newline injection
		"file; rm -rf /", // command injection attempt
		"file | cat /etc/passwd",
		"file$(whoami)",
		"file`whoami`",
		"/tmp/x;rm -rf ~",
		"/",
		"/bin",
		"/usr",
		"/etc",
		"/System",
		"/Applications",
	}
}

// =============================================================================
// Utility Functions
// =============================================================================

// GetDirSize returns the total size of all files below path, or the size of
// path itself when it is a file
func GetDirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}
