package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fenilsonani/devsweep/internal/platform"
)

// ErrProtected matches every refusal caused by the protected path list
var ErrProtected = errors.New("protected path")

// ProtectedPathError reports a path refused because of the protected list
type ProtectedPathError struct {
	Path     string
	Critical bool // a direct child of a protected directory, not the directory itself
}

func (e *ProtectedPathError) Error() string {
	if e.Critical {
		return fmt.Sprintf("refusing to delete critical system path: %s", e.Path)
	}
	return fmt.Sprintf("refusing to delete protected path: %s", e.Path)
}

func (e *ProtectedPathError) Is(target error) bool {
	return target == ErrProtected
}

// PathValidator handles secure path validation for file operations
type PathValidator struct {
	protectedPaths []string
	// exactOnly paths are refused themselves but their children are not
	exactOnly map[string]bool
}

// NewPathValidator creates a new PathValidator with default protected paths
// plus any extra ones.
func NewPathValidator(extra ...string) *PathValidator {
	pv := &PathValidator{
		protectedPaths: []string{
			// Unix system directories
			"/",
			"/bin",
			"/boot",
			"/dev",
			"/etc",
			"/lib",
			"/lib64",
			"/proc",
			"/root",
			"/sbin",
			"/sys",
			"/usr",
			"/var",
			// macOS system directories
			"/System",
			"/Applications",
			"/Library/System",
		},
		exactOnly: make(map[string]bool),
	}
	pv.AddProtectedPaths(extra)
	return pv
}

// ForPlatform builds a validator protecting the platform's system and user
// data directories. The home directory itself is protected but its direct
// children (~/.cache, ~/.Trash) stay deletable even when home sits under a
// protected root such as /root or /home.
func ForPlatform(info *platform.Info, extra []string) *PathValidator {
	pv := NewPathValidator(extra...)
	if info == nil {
		return pv
	}
	pv.AddProtectedPaths(info.ProtectedPaths)

	if info.HomeDir != "" {
		home := filepath.Clean(info.HomeDir)
		pv.AddProtectedPath(home)
		pv.exactOnly[home] = true
	}
	return pv
}

// shellMeta are refused anywhere in a path handed to the cleaner
const shellMeta = ";&|$`<>\n\r"

// ValidatePathForDeletion is the last check before the cleaner touches a
// path. The path must be absolute and clean, free of shell metacharacters,
// and neither it nor its symlink target may be a protected path or a direct
// child of one.
func (pv *PathValidator) ValidatePathForDeletion(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}
	if filepath.Clean(path) != path {
		return fmt.Errorf("path contains suspicious elements: %s", path)
	}

	resolved, err := filepath.EvalSymlinks(path)
	switch {
	case os.IsNotExist(err):
		resolved = path
	case err != nil:
		return fmt.Errorf("failed to resolve symlinks: %w", err)
	}

	if strings.ContainsAny(path, shellMeta) || strings.ContainsAny(resolved, shellMeta) {
		return fmt.Errorf("path contains dangerous characters: %q", path)
	}

	if err := pv.checkProtectedPaths(path); err != nil {
		return err
	}
	if resolved != path {
		return pv.checkProtectedPaths(resolved)
	}
	return nil
}

// checkProtectedPaths validates that a path is not in a protected system directory
func (pv *PathValidator) checkProtectedPaths(cleanPath string) error {
	for _, protected := range pv.protectedPaths {
		if cleanPath == protected {
			return &ProtectedPathError{Path: cleanPath}
		}

		if protected == "/" || pv.exactOnly[protected] {
			continue
		}

		// Refuse direct children of a protected directory:
		// /usr/foo is refused, /usr/local/cache/foo is not
		if strings.HasPrefix(cleanPath, protected+"/") {
			rel, _ := filepath.Rel(protected, cleanPath)
			if !strings.Contains(rel, "/") {
				return &ProtectedPathError{Path: cleanPath, Critical: true}
			}
		}
	}

	return nil
}

// AddProtectedPath adds a custom protected path
func (pv *PathValidator) AddProtectedPath(path string) {
	if path == "" {
		return
	}
	cleanPath := filepath.Clean(path)
	if !slices.Contains(pv.protectedPaths, cleanPath) {
		pv.protectedPaths = append(pv.protectedPaths, cleanPath)
	}
}

// AddProtectedPaths adds several custom protected paths
func (pv *PathValidator) AddProtectedPaths(paths []string) {
	for _, p := range paths {
		pv.AddProtectedPath(p)
	}
}
