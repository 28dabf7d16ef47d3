package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/cleaner"
	"github.com/fenilsonani/devsweep/internal/config"
	"github.com/fenilsonani/devsweep/internal/history"
	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat validates a user-supplied format name
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use summary, table, json or yaml)", s)
	}
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
	now    func() time.Time
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
		now:    time.Now,
	}
}

// scanReport is the machine-readable form of a scan
type scanReport struct {
	Timestamp          string              `json:"timestamp" yaml:"timestamp"`
	TotalItems         int                 `json:"total_items" yaml:"total_items"`
	TotalSize          uint64              `json:"total_size" yaml:"total_size"`
	TotalSizeFormatted string              `json:"total_size_formatted" yaml:"total_size_formatted"`
	Categories         []types.CheckResult `json:"categories" yaml:"categories"`
}

// Report renders scan results in registry order
func (r *Reporter) Report(results []types.CheckResult) error {
	total := types.TotalReclaimable(results)
	items := 0
	for _, res := range results {
		items += len(res.Items)
	}

	switch r.format {
	case FormatTable:
		return r.reportTable(results, items, total)
	case FormatJSON, FormatYAML:
		return r.encode(scanReport{
			Timestamp:          r.now().Format(time.RFC3339),
			TotalItems:         items,
			TotalSize:          total,
			TotalSizeFormatted: utils.FormatBytes(total),
			Categories:         results,
		})
	case FormatSummary:
		return r.reportSummary(results, items, total)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// reportSummary generates a summary report
func (r *Reporter) reportSummary(results []types.CheckResult, items int, total uint64) error {
	fmt.Fprintf(r.writer, "=== Reclaimable Space ===\n")
	fmt.Fprintf(r.writer, "Total Items: %d\n", items)
	fmt.Fprintf(r.writer, "Total Size: %s\n", utils.FormatBytes(total))

	if len(results) == 0 {
		fmt.Fprintf(r.writer, "\nNothing to clean.\n")
		return nil
	}

	fmt.Fprintf(r.writer, "\nBreakdown by Category:\n")
	for _, res := range results {
		fmt.Fprintf(r.writer, "  %s: %s\n", res.Name, utils.FormatCount(len(res.Items))+" items")
		fmt.Fprintf(r.writer, "    %s\n", utils.FormatBytes(res.TotalSize))
	}
	return nil
}

// reportTable generates a table report
func (r *Reporter) reportTable(results []types.CheckResult, items int, total uint64) error {
	rule := strings.Repeat("-", 110)
	fmt.Fprintf(r.writer, "%-22s | %-40s | %-10s | %-4s | %s\n", "Category", "Item", "Size", "Safe", "Path / Command")
	fmt.Fprintln(r.writer, rule)

	for _, res := range results {
		for _, item := range res.Items {
			target := item.Path
			if item.HasCommand() {
				target = "$ " + item.CleanupCommand
			}
			safe := "yes"
			if !item.SafeToDelete {
				safe = "no"
			}
			fmt.Fprintf(r.writer, "%-22s | %-40s | %-10s | %-4s | %s\n",
				truncate(res.Name, 22),
				truncate(item.Kind, 40),
				utils.FormatBytes(item.SizeBytes),
				safe,
				target)
		}
	}

	fmt.Fprintln(r.writer, rule)
	fmt.Fprintf(r.writer, "Total: %s items, %s\n", utils.FormatCount(items), utils.FormatBytes(total))
	return nil
}

// ReportCleanup renders the outcome of a cleanup batch
func (r *Reporter) ReportCleanup(s *cleaner.Summary) error {
	switch r.format {
	case FormatJSON, FormatYAML:
		return r.encode(struct {
			RecordID   string   `json:"record_id" yaml:"record_id"`
			Success    int      `json:"success" yaml:"success"`
			Errors     int      `json:"errors" yaml:"errors"`
			FreedBytes uint64   `json:"freed_bytes" yaml:"freed_bytes"`
			Messages   []string `json:"messages" yaml:"messages"`
		}{s.RecordID, s.Success, s.Errors, s.FreedBytes, s.Messages})
	}

	for _, o := range s.Outcomes {
		mark := "✓"
		if !o.OK() {
			mark = "✗"
		}
		fmt.Fprintf(r.writer, "%s %s\n", mark, o.Message)
	}
	fmt.Fprintf(r.writer, "\nCleaned %d items (%s freed)", s.Success, utils.FormatBytes(s.FreedBytes))
	if s.Errors > 0 {
		fmt.Fprintf(r.writer, " with %d errors", s.Errors)
	}
	fmt.Fprintf(r.writer, "\nRecord: %s\n", s.RecordID)

	if s.Errors > 0 {
		fmt.Fprint(r.writer, cleaner.FormatErrorSummary(s.Failures))
	}
	return nil
}

// ReportHistory renders cleanup records, newest first
func (r *Reporter) ReportHistory(records []history.Record, stats history.Stats) error {
	switch r.format {
	case FormatJSON, FormatYAML:
		return r.encode(struct {
			Stats   history.Stats    `json:"stats" yaml:"stats"`
			Records []history.Record `json:"records" yaml:"records"`
		}{stats, records})
	}

	fmt.Fprintf(r.writer, "=== Cleanup History ===\n")
	fmt.Fprintf(r.writer, "Records: %d (%d undoable), %s items cleaned, quarantine %s\n\n",
		stats.TotalRecords, stats.UndoableRecords,
		utils.FormatCount(stats.TotalItemsCleaned),
		utils.FormatBytes(stats.QuarantineBytes))

	if len(records) == 0 {
		fmt.Fprintf(r.writer, "No cleanups recorded.\n")
		return nil
	}

	for _, rec := range records {
		undo := "  "
		if rec.IsUndoable() {
			undo = "↺ "
		}
		fmt.Fprintf(r.writer, "%s%s  %s  ✓ %d  ✗ %d  %s\n",
			undo, rec.ID, utils.FormatAge(rec.Timestamp),
			rec.SuccessCount, rec.ErrorCount, utils.FormatBytes(rec.TotalSize))

		if r.format != FormatTable {
			continue
		}
		for i, item := range rec.Items {
			state := "deleted"
			switch {
			case !item.Success:
				state = "failed: " + item.ErrorMessage
			case item.CanRestore():
				state = "quarantined"
			case !item.DeletedPermanently && item.QuarantinePath == "":
				state = "restored"
			}
			fmt.Fprintf(r.writer, "    [%d] %-30s %-10s %s\n", i, truncate(item.Kind, 30), utils.FormatBytes(item.SizeBytes), state)
		}
	}
	return nil
}

// ReportCache renders cached categories with their age and TTL
func (r *Reporter) ReportCache(entries []cache.CachedCategoryResult, cfg config.CacheConfig) error {
	now := r.now()
	switch r.format {
	case FormatJSON, FormatYAML:
		type row struct {
			Name      string  `json:"name" yaml:"name"`
			TotalSize uint64  `json:"total_size" yaml:"total_size"`
			Items     int     `json:"items" yaml:"items"`
			ScannedAt string  `json:"scanned_at" yaml:"scanned_at"`
			TTL       *uint64 `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
			Valid     bool    `json:"valid" yaml:"valid"`
		}
		rows := make([]row, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, row{e.Name, e.TotalSize, len(e.Items), e.ScannedAt.Format(time.RFC3339), e.TTLSeconds, e.IsValidAt(now)})
		}
		return r.encode(struct {
			Categories []row             `json:"categories" yaml:"categories"`
			TTLs       map[string]uint64 `json:"ttls" yaml:"ttls"`
		}{rows, cfg.CategoryTTLs})
	}

	fmt.Fprintf(r.writer, "%-26s | %-10s | %-10s | %-12s | %s\n", "Category", "Size", "Scanned", "TTL", "State")
	fmt.Fprintln(r.writer, strings.Repeat("-", 80))
	for _, e := range entries {
		ttl := "never"
		if e.TTLSeconds != nil {
			ttl = config.FormatTTL(*e.TTLSeconds)
		}
		state := "stale"
		if e.IsValidAt(now) {
			state = "valid"
		}
		fmt.Fprintf(r.writer, "%-26s | %-10s | %-10s | %-12s | %s\n",
			truncate(e.Name, 26), utils.FormatBytes(e.TotalSize),
			utils.FormatAge(e.ScannedAt), ttl, state)
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.writer, "Cache is empty.")
	}
	return nil
}

// ReportTTLs renders the TTL table
func (r *Reporter) ReportTTLs(cfg config.CacheConfig) error {
	switch r.format {
	case FormatJSON, FormatYAML:
		return r.encode(cfg.CategoryTTLs)
	}
	for _, name := range cfg.Names() {
		ttl, _ := cfg.GetTTL(name)
		fmt.Fprintf(r.writer, "%-26s %s\n", name, config.FormatTTL(ttl))
	}
	return nil
}

func (r *Reporter) encode(v interface{}) error {
	if r.format == FormatYAML {
		encoder := yaml.NewEncoder(r.writer)
		defer encoder.Close()
		return encoder.Encode(v)
	}
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// SaveToFile saves the scan report to a file
func SaveToFile(results []types.CheckResult, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return New(file, format).Report(results)
}
