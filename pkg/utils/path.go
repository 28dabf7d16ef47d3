package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading "~" with the given home directory.
// An empty home falls back to os.UserHomeDir.
func ExpandHome(path, home string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		home = h
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// HasPathSuffix reports whether the trailing components of path equal suffix,
// compared component by component ("/a/.local/share/Trash" has suffix
// ".local/share/Trash" but "/a/x.Trash" does not have suffix ".Trash").
func HasPathSuffix(path, suffix string) bool {
	path = filepath.Clean(path)
	suffix = filepath.Clean(suffix)
	if suffix == "." || suffix == "" {
		return false
	}

	pathParts := strings.Split(path, string(filepath.Separator))
	suffixParts := strings.Split(strings.Trim(suffix, string(filepath.Separator)), string(filepath.Separator))
	if len(suffixParts) > len(pathParts) {
		return false
	}

	offset := len(pathParts) - len(suffixParts)
	for i, part := range suffixParts {
		if pathParts[offset+i] != part {
			return false
		}
	}
	return true
}
