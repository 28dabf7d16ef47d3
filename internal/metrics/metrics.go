// Package metrics provides Prometheus metrics for scans, cleanups and the quarantine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scan metrics
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devsweep_scans_total",
			Help: "Total number of scans",
		},
		[]string{"use_cache"},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "devsweep_scan_duration_seconds",
			Help:    "Wall-clock duration of a full scan",
			Buckets: prometheus.DefBuckets,
		},
	)

	detectorRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devsweep_detector_runs_total",
			Help: "Detector invocations by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	detectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "devsweep_detector_duration_seconds",
			Help:    "Time spent inside a single detector",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devsweep_cache_lookups_total",
			Help: "Scan cache lookups by result",
		},
		[]string{"result"},
	)

	reclaimableBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "devsweep_reclaimable_bytes",
			Help: "Reclaimable bytes reported by the last scan, per category",
		},
		[]string{"category"},
	)

	// Cleanup metrics
	cleanupItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devsweep_cleanup_items_total",
			Help: "Cleanup items processed by action and status",
		},
		[]string{"action", "status"},
	)

	bytesFreed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "devsweep_bytes_freed_total",
			Help: "Bytes removed or quarantined by cleanups",
		},
	)

	// Quarantine metrics
	quarantineBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "devsweep_quarantine_bytes",
			Help: "Bytes currently held in the quarantine directory",
		},
	)

	historyRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "devsweep_history_records",
			Help: "Cleanup records retained in history",
		},
	)

	evictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devsweep_history_evictions_total",
			Help: "Records evicted from history by bound",
		},
		[]string{"reason"},
	)

	// Daemon metrics
	jobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devsweep_daemon_job_runs_total",
			Help: "Scheduled job runs by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	persistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devsweep_persist_failures_total",
			Help: "Failed writes of persisted state files",
		},
		[]string{"file"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordScan records a completed scan.
func RecordScan(useCache bool, duration time.Duration) {
	label := "false"
	if useCache {
		label = "true"
	}
	scansTotal.WithLabelValues(label).Inc()
	scanDuration.Observe(duration.Seconds())
}

// RecordDetector records one detector invocation.
func RecordDetector(category string, duration time.Duration, panicked bool) {
	outcome := "ok"
	if panicked {
		outcome = "panic"
	}
	detectorRuns.WithLabelValues(category, outcome).Inc()
	detectorDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// RecordCacheLookup records a scan cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

func SetReclaimable(category string, bytes uint64) {
	reclaimableBytes.WithLabelValues(category).Set(float64(bytes))
}

// RecordCleanupItem records the outcome of one cleanup action.
func RecordCleanupItem(action string, success bool, bytes uint64) {
	status := "success"
	if !success {
		status = "error"
	}
	cleanupItems.WithLabelValues(action, status).Inc()
	if success {
		bytesFreed.Add(float64(bytes))
	}
}

func SetQuarantineBytes(bytes uint64) {
	quarantineBytes.Set(float64(bytes))
}

func SetHistoryRecords(count int) {
	historyRecords.Set(float64(count))
}

// RecordEviction records a record evicted for the given reason ("history" or "quarantine").
func RecordEviction(reason string) {
	evictions.WithLabelValues(reason).Inc()
}

// RecordPersistFailure records a failed save of a state file.
func RecordPersistFailure(file string) {
	persistFailures.WithLabelValues(file).Inc()
}

// RecordJobRun records a scheduled job run ("ok", "skipped" or "error").
func RecordJobRun(job, outcome string) {
	jobRuns.WithLabelValues(job, outcome).Inc()
}
