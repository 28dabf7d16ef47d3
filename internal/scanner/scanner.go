// Package scanner runs the registered detectors and merges their output with
// the scan cache.
package scanner

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/logging"
	"github.com/fenilsonani/devsweep/internal/metrics"
	"github.com/fenilsonani/devsweep/internal/progress"
	"github.com/fenilsonani/devsweep/internal/types"
)

// Scanner is the scan orchestrator. It is not safe to call Scan concurrently;
// the host serialises scans.
type Scanner struct {
	registry         *Registry
	cache            *cache.ScanCache
	workers          int
	progressReporter *progress.Reporter
	log              *zap.Logger
}

// detection is what one worker hands back to the orchestrator
type detection struct {
	result  types.CheckResult
	tracked map[string]cache.PathMetadata
}

// New creates a Scanner. workers <= 0 means one worker per CPU.
func New(registry *Registry, scanCache *cache.ScanCache, workers int) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{
		registry: registry,
		cache:    scanCache,
		workers:  workers,
		log:      logging.Named("scanner"),
	}
}

// SetProgressReporter sets a progress reporter to publish scan events to
func (s *Scanner) SetProgressReporter(pr *progress.Reporter) {
	s.progressReporter = pr
}

// Registry returns the scanner's detector registry
func (s *Scanner) Registry() *Registry {
	return s.registry
}

// Cache returns the scan cache
func (s *Scanner) Cache() *cache.ScanCache {
	return s.cache
}

// Scan runs the detectors that need it and returns the non-empty results in
// registry order. With useCache false every detector runs; otherwise only
// categories without a valid cached result do, and valid cached results are
// served for the rest.
func (s *Scanner) Scan(useCache bool) []types.CheckResult {
	startTime := time.Now()
	detectors := s.registry.All()

	// Step 1: decide what to run
	hits := make(map[string]types.CheckResult)
	toRun := make([]Detector, 0, len(detectors))
	for _, d := range detectors {
		if useCache {
			if cached, ok := s.cache.GetValid(d.Name); ok {
				hits[d.Name] = cached
				metrics.RecordCacheLookup(true)
				continue
			}
			metrics.RecordCacheLookup(false)
		}
		toRun = append(toRun, d)
	}

	s.log.Debug("scan started",
		logging.Bool("use_cache", useCache),
		logging.Int("to_run", len(toRun)),
		logging.Int("cached", len(hits)))

	// Steps 2-3: run detectors on the pool, collect by name
	fresh := make(map[string]detection, len(toRun))
	var mu sync.Mutex
	done := 0

	s.reportScanProgress(progress.PhaseScanning, "", len(toRun), 0, len(hits), 0, 0, startTime)

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for _, d := range toRun {
		d := d
		g.Go(func() error {
			det, ok := s.runDetector(d)

			mu.Lock()
			defer mu.Unlock()
			if ok {
				fresh[d.Name] = det
			}
			done++
			s.reportScanProgress(progress.PhaseScanning, d.Name, len(toRun), done, len(hits), 0, 0, startTime)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	// Step 4: merge in registry order
	results := make([]types.CheckResult, 0, len(detectors))
	for _, d := range detectors {
		if det, ok := fresh[d.Name]; ok {
			s.cache.Update(d.Name, det.result, det.tracked)
			if !det.result.IsEmpty() {
				results = append(results, det.result)
			}
			continue
		}
		if !useCache {
			continue
		}

		cached, ok := hits[d.Name]
		if !ok {
			// A detector that panicked keeps whatever entry it had
			cached, ok = s.cache.GetValid(d.Name)
		}
		if ok && !cached.IsEmpty() {
			cached.Name = d.Name
			results = append(results, cached)
		}
	}

	// Step 5: persist
	if err := s.cache.Save(); err != nil {
		metrics.RecordPersistFailure(cache.FileName)
		s.log.Warn("failed to save scan cache", logging.Err(err))
	}

	itemsFound := 0
	for _, r := range results {
		itemsFound += len(r.Items)
		metrics.SetReclaimable(r.Name, r.TotalSize)
	}
	total := types.TotalReclaimable(results)
	elapsed := time.Since(startTime)
	metrics.RecordScan(useCache, elapsed)

	s.reportScanProgress(progress.PhaseComplete, "", len(toRun), done, len(hits), itemsFound, total, startTime)
	s.log.Info("scan complete",
		logging.Int("categories", len(results)),
		logging.Int("ran", len(toRun)),
		logging.Int("cached", len(hits)),
		logging.Uint64("reclaimable_bytes", total),
		logging.Duration("elapsed", elapsed))

	return results
}

// runDetector invokes one detector with a fresh tracker. ok is false when the
// detector panicked.
func (s *Scanner) runDetector(d Detector) (det detection, ok bool) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordDetector(d.Name, time.Since(start), true)
			s.log.Error("detector panicked",
				logging.Category(d.Name),
				logging.String("panic", fmt.Sprint(r)))
			ok = false
		}
	}()

	tracker := cache.NewPathTracker()
	raw := d.Detect(tracker)

	result := types.NewCheckResult(d.Name)
	for _, item := range raw.Items {
		if err := item.Validate(); err != nil {
			s.log.Warn("dropping invalid item",
				logging.Category(d.Name),
				logging.String("kind", item.Kind),
				logging.Err(err))
			continue
		}
		result.Items = append(result.Items, item)
		if item.HasPath() {
			tracker.Track(item.Path)
		}
	}
	result.Recompute()

	elapsed := time.Since(start)
	metrics.RecordDetector(d.Name, elapsed, false)
	s.log.Debug("detector finished",
		logging.Category(d.Name),
		logging.Int("items", len(result.Items)),
		logging.Int("tracked", tracker.Len()),
		logging.Duration("elapsed", elapsed))

	return detection{result: result, tracked: tracker.Paths()}, true
}

// reportScanProgress reports scan progress to listeners
func (s *Scanner) reportScanProgress(phase progress.Phase, category string, total, done, cached, itemsFound int, totalSize uint64, startTime time.Time) {
	if s.progressReporter == nil {
		return
	}

	s.progressReporter.UpdateScanProgress(&progress.ScanProgress{
		Phase:            phase,
		Category:         category,
		CategoriesTotal:  total,
		CategoriesDone:   done,
		CachedCategories: cached,
		ItemsFound:       itemsFound,
		TotalSize:        totalSize,
		StartTime:        startTime,
	})
}
