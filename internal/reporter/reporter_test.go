package reporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/cleaner"
	"github.com/fenilsonani/devsweep/internal/config"
	"github.com/fenilsonani/devsweep/internal/history"
	"github.com/fenilsonani/devsweep/internal/types"
)

func sampleResults() []types.CheckResult {
	npm := types.NewCheckResult("Package Managers")
	npm.Add(types.CleanupItem{Kind: "npm cache", Path: "/home/u/.npm/_cacache", SizeBytes: 2048, SafeToDelete: true})
	docker := types.NewCheckResult("Docker")
	docker.Add(types.CleanupItem{Kind: "Docker build cache", SizeBytes: 1024, SafeToDelete: true, CleanupCommand: "docker builder prune -f"})
	return []types.CheckResult{npm, docker}
}

func newTestReporter(format OutputFormat) (*Reporter, *bytes.Buffer) {
	var buf bytes.Buffer
	r := New(&buf, format)
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return r, &buf
}

// ============================================================================
// Format parsing
// ============================================================================

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"table", FormatTable, false},
		{"summary", FormatSummary, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ============================================================================
// Scan reports
// ============================================================================

func TestReportJSON(t *testing.T) {
	r, buf := newTestReporter(FormatJSON)
	if err := r.Report(sampleResults()); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	var got scanReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", got.TotalItems)
	}
	if got.TotalSize != 3072 {
		t.Errorf("TotalSize = %d, want 3072", got.TotalSize)
	}
	if got.Timestamp != "2026-01-02T03:04:05Z" {
		t.Errorf("Timestamp = %q", got.Timestamp)
	}
	if len(got.Categories) != 2 || got.Categories[0].Name != "Package Managers" {
		t.Errorf("categories out of order: %+v", got.Categories)
	}
}

func TestReportYAML(t *testing.T) {
	r, buf := newTestReporter(FormatYAML)
	if err := r.Report(sampleResults()); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	var got scanReport
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}
	if got.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", got.TotalItems)
	}
	if got.Categories[1].Items[0].CleanupCommand != "docker builder prune -f" {
		t.Errorf("command lost in YAML output: %+v", got.Categories[1].Items[0])
	}
}

func TestReportTable(t *testing.T) {
	r, buf := newTestReporter(FormatTable)
	if err := r.Report(sampleResults()); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Category", "npm cache", "$ docker builder prune -f", "/home/u/.npm/_cacache", "Total: 2 items"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestReportSummary(t *testing.T) {
	r, buf := newTestReporter(FormatSummary)
	if err := r.Report(sampleResults()); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Breakdown by Category") {
		t.Errorf("summary missing breakdown:\n%s", buf.String())
	}

	r, buf = newTestReporter(FormatSummary)
	if err := r.Report(nil); err != nil {
		t.Fatalf("Report(nil) error = %v", err)
	}
	if !strings.Contains(buf.String(), "Nothing to clean") {
		t.Errorf("empty summary = %q", buf.String())
	}
}

func TestReportUnknownFormat(t *testing.T) {
	r, _ := newTestReporter(OutputFormat("xml"))
	if err := r.Report(sampleResults()); err == nil {
		t.Error("Report() with unknown format should fail")
	}
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := SaveToFile(sampleResults(), path, FormatJSON); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Errorf("saved report is not valid JSON:\n%s", data)
	}
}

// ============================================================================
// Cleanup, history and cache reports
// ============================================================================

func TestReportCleanup(t *testing.T) {
	failure := &cleaner.DeletionError{Path: "/tmp/x", Reason: cleaner.ErrorPermissionDenied, Original: os.ErrPermission}
	summary := &cleaner.Summary{
		RecordID:   "cleanup_1_abcd",
		Success:    1,
		Errors:     1,
		FreedBytes: 2048,
		Outcomes: []cleaner.Outcome{
			{Kind: "npm cache", Action: cleaner.ActionQuarantine, Message: "Quarantined: npm cache"},
			{Kind: "x", Action: cleaner.ActionDelete, Message: "x: permission denied", Err: failure},
		},
		Failures: []*cleaner.DeletionError{failure},
	}

	r, buf := newTestReporter(FormatSummary)
	if err := r.ReportCleanup(summary); err != nil {
		t.Fatalf("ReportCleanup() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"✓ Quarantined: npm cache", "✗ x: permission denied", "with 1 errors", "cleanup_1_abcd"} {
		if !strings.Contains(out, want) {
			t.Errorf("cleanup output missing %q:\n%s", want, out)
		}
	}
}

func TestReportHistory(t *testing.T) {
	rec := history.NewRecord("cleanup_1_abcd", time.Now().Add(-time.Hour))
	rec.Add(history.Quarantined(types.CleanupItem{Kind: "npm cache", Path: "/a", SizeBytes: 10}, "/q/1_a"))
	rec.Add(history.Failed(types.CleanupItem{Kind: "logs", Path: "/b"}, os.ErrPermission))

	r, buf := newTestReporter(FormatTable)
	stats := history.Stats{TotalRecords: 1, UndoableRecords: 1, TotalItemsCleaned: 1, QuarantineBytes: 10}
	if err := r.ReportHistory([]history.Record{*rec}, stats); err != nil {
		t.Fatalf("ReportHistory() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"↺ cleanup_1_abcd", "quarantined", "failed: permission denied"} {
		if !strings.Contains(out, want) {
			t.Errorf("history output missing %q:\n%s", want, out)
		}
	}

	r, buf = newTestReporter(FormatSummary)
	if err := r.ReportHistory(nil, history.Stats{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No cleanups recorded") {
		t.Errorf("empty history output = %q", buf.String())
	}
}

func TestReportCacheAndTTLs(t *testing.T) {
	ttl := uint64(3600)
	entries := []cache.CachedCategoryResult{{
		Name:       "Docker",
		TotalSize:  1024,
		ScannedAt:  time.Now(),
		TTLSeconds: &ttl,
	}}
	cfg := config.DefaultCacheConfig()

	r, buf := newTestReporter(FormatTable)
	if err := r.ReportCache(entries, cfg); err != nil {
		t.Fatalf("ReportCache() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Docker") || !strings.Contains(buf.String(), "valid") {
		t.Errorf("cache output:\n%s", buf.String())
	}

	r, buf = newTestReporter(FormatTable)
	if err := r.ReportCache(nil, cfg); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Cache is empty") {
		t.Errorf("empty cache output:\n%s", buf.String())
	}

	r, buf = newTestReporter(FormatJSON)
	if err := r.ReportTTLs(cfg); err != nil {
		t.Fatal(err)
	}
	var ttls map[string]uint64
	if err := json.Unmarshal(buf.Bytes(), &ttls); err != nil {
		t.Fatalf("TTL output is not JSON: %v", err)
	}
	if len(ttls) != len(cfg.CategoryTTLs) {
		t.Errorf("got %d TTLs, want %d", len(ttls), len(cfg.CategoryTTLs))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a-very-long-category-name", 10); got != "a-very-..." {
		t.Errorf("truncate(long) = %q", got)
	}
}
