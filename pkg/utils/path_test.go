package utils

import (
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"~", "/home/dev"},
		{"~/Projects", filepath.Join("/home/dev", "Projects")},
		{"/abs/path", "/abs/path"},
		{"~other/x", "~other/x"},
	}

	for _, tt := range tests {
		if got := ExpandHome(tt.in, "/home/dev"); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHasPathSuffix(t *testing.T) {
	tests := []struct {
		path   string
		suffix string
		want   bool
	}{
		{"/Users/dev/.Trash", ".Trash", true},
		{"/home/dev/.local/share/Trash", ".local/share/Trash", true},
		{"/home/dev/.local/share/Trash/", ".local/share/Trash", true},
		{"/home/dev/x.Trash", ".Trash", false},
		{"/home/dev/.Trash/inner", ".Trash", false},
		{"/home/dev/share/Trash", ".local/share/Trash", false},
		{"/Trash", ".local/share/Trash", false},
		{"/home/dev/.Trash", "", false},
	}

	for _, tt := range tests {
		if got := HasPathSuffix(tt.path, tt.suffix); got != tt.want {
			t.Errorf("HasPathSuffix(%q, %q) = %v, want %v", tt.path, tt.suffix, got, tt.want)
		}
	}
}
