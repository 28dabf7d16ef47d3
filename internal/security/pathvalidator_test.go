package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fenilsonani/devsweep/internal/platform"
	"github.com/fenilsonani/devsweep/internal/testutil"
)

// ============================================================================
// Validation
// ============================================================================

func TestValidateAcceptsCachePaths(t *testing.T) {
	f := testutil.NewFixture(t)
	pv := ForPlatform(f.PlatformInfo(), nil)

	npm := f.CreateHomeFile(".npm/_cacache/index", 10)
	target := f.CreateHomeFile("projects/app/target/debug/app", 10)
	link := filepath.Join(f.HomeDir, "cache-link")
	if err := os.Symlink(filepath.Dir(npm), link); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{
		filepath.Dir(npm),
		filepath.Dir(filepath.Dir(target)),
		filepath.Join(f.HomeDir, "Chrome (Beta)", "Cache"),
		filepath.Join(f.HomeDir, "with space", "logs"),
		link,
		"/nonexistent-devsweep-dir",
	} {
		if err := pv.ValidatePathForDeletion(p); err != nil {
			t.Errorf("ValidatePathForDeletion(%q) = %v, want nil", p, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	pv := NewPathValidator()
	tmp := t.TempDir()

	etcLink := filepath.Join(tmp, "etc-link")
	if err := os.Symlink("/etc", etcLink); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path    string
		wantMsg string
	}{
		{"", "must be absolute"},
		{"relative/path", "must be absolute"},
		{"/tmp/../var/x", "suspicious elements"},
		{"/tmp//x", "suspicious elements"},
		{"/tmp/x/", "suspicious elements"},
		{"/tmp/a;rm -rf ~", "dangerous characters"},
		{"/tmp/a|b", "dangerous characters"},
		{"/tmp/a$HOME", "dangerous characters"},
		{"/tmp/a\nb", "dangerous characters"},
		{"/", "protected path"},
		{"/bin", "protected path"},
		{"/etc/newfile", "critical system path"},
		{"/usr/newdir", "critical system path"},
		{etcLink, "protected path"},
	}

	for _, tt := range tests {
		err := pv.ValidatePathForDeletion(tt.path)
		if err == nil {
			t.Errorf("ValidatePathForDeletion(%q) = nil, want error containing %q", tt.path, tt.wantMsg)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantMsg) {
			t.Errorf("ValidatePathForDeletion(%q) = %v, want %q", tt.path, err, tt.wantMsg)
		}
	}

	for _, p := range testutil.DangerousPathPatterns() {
		if err := pv.ValidatePathForDeletion(p); err == nil {
			t.Errorf("expected %q to be rejected", p)
		}
	}
}

func TestProtectedPathErrorIs(t *testing.T) {
	pv := NewPathValidator()

	err := pv.ValidatePathForDeletion("/usr")
	if !errors.Is(err, ErrProtected) {
		t.Errorf("expected errors.Is(err, ErrProtected), got %v", err)
	}

	var ppe *ProtectedPathError
	if !errors.As(err, &ppe) || ppe.Path != "/usr" || ppe.Critical {
		t.Errorf("unexpected ProtectedPathError: %#v", ppe)
	}

	if err := pv.ValidatePathForDeletion("/usr/child"); !errors.As(err, &ppe) || !ppe.Critical {
		t.Errorf("direct child should be critical, got %v", err)
	}
	if errors.Is(pv.ValidatePathForDeletion("relative"), ErrProtected) {
		t.Error("non-protection errors must not match ErrProtected")
	}
}

// ============================================================================
// Protected path list
// ============================================================================

func TestForPlatformKeepsHomeChildrenDeletable(t *testing.T) {
	info, err := platform.InfoFor(platform.Linux, "/root")
	if err != nil {
		t.Fatal(err)
	}
	pv := ForPlatform(info, []string{"/srv/keep"})

	tests := map[string]bool{
		"/root":                    true,
		"/root/.cache/pip":         false,
		"/root/.local/share/Trash": false,
		"/root/Documents":          true,
		"/root/Documents/report":   true,
		"/srv/keep":                true,
		"/srv/keep/child":          true,
		"/srv/keep/child/deeper":   false,
	}
	for path, refused := range tests {
		err := pv.ValidatePathForDeletion(path)
		if (err != nil) != refused {
			t.Errorf("ValidatePathForDeletion(%s) = %v, want refused=%v", path, err, refused)
		}
	}
}

func TestAddProtectedPathDeduplicates(t *testing.T) {
	pv := NewPathValidator()
	before := len(pv.protectedPaths)

	pv.AddProtectedPaths([]string{"/usr/", "", "/usr"})
	if len(pv.protectedPaths) != before {
		t.Errorf("expected no new entries, got %d -> %d", before, len(pv.protectedPaths))
	}

	pv.AddProtectedPath("/data/keep/")
	if err := pv.ValidatePathForDeletion("/data/keep"); !errors.Is(err, ErrProtected) {
		t.Errorf("added path should be protected, got %v", err)
	}
}
