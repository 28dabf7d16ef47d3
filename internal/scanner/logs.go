package scanner

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/types"
)

// logAgeThreshold is how old a log file must be before it is reported
const logAgeThreshold = 7 * 24 * time.Hour

// Common log file extensions
var logExtensions = []string{".log", ".log.gz", ".log.bz2", ".log.xz"}

// detectLogs reports old log files below the platform log directories
func (r *recipes) detectLogs(t *cache.PathTracker) types.CheckResult {
	result := types.NewCheckResult(CategoryLogs)
	now := time.Now()

	for _, logDir := range r.info.LogDirs {
		trackRoot(t, logDir)
		if r.excluded(logDir) {
			continue
		}
		r.scanLogDirectory(&result, logDir, now)
	}

	return result
}

// scanLogDirectory scans a directory for log files specifically
func (r *recipes) scanLogDirectory(result *types.CheckResult, dir string, now time.Time) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip on error
		}
		if d.IsDir() {
			if r.excluded(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !isLogFile(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime()) < logAgeThreshold {
			return nil
		}

		result.Add(types.CleanupItem{
			Kind:         "Old Log File",
			Path:         path,
			SizeBytes:    uint64(info.Size()),
			SafeToDelete: true,
		})
		return nil
	})
}

// isLogFile matches plain and rotated logs (app.log, app.log.1, app.log.2.gz)
func isLogFile(path string) bool {
	base := filepath.Base(path)
	for _, ext := range logExtensions {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	return strings.Contains(base, ".log.")
}
