// Package daemon runs devsweep in the background: scheduled cache-warming
// scans, quarantine bound enforcement and a Prometheus metrics endpoint.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"

	"github.com/fenilsonani/devsweep/internal/config"
	"github.com/fenilsonani/devsweep/internal/engine"
	"github.com/fenilsonani/devsweep/internal/logging"
	"github.com/fenilsonani/devsweep/internal/metrics"
	"github.com/fenilsonani/devsweep/internal/types"
)

// PidFileName is the pid file created in the application directory when
// none is configured
const PidFileName = "devsweep.pid"

const shutdownTimeout = 10 * time.Second

// ErrAlreadyRunning is returned when another daemon holds the pid file
var ErrAlreadyRunning = errors.New("daemon already running")

// Runner is the part of the engine the daemon drives
type Runner interface {
	Scan(useCache bool) ([]types.CheckResult, error)
	EnforceQuarantineBounds() (int, error)
}

// Daemon represents the background service
type Daemon struct {
	config      *config.DaemonConfig
	runner      Runner
	scheduler   *Scheduler
	pidFile     string
	metricsAddr string
	log         *zap.Logger

	mu       sync.RWMutex
	running  bool
	listener net.Listener
}

// New creates a daemon driving runner. appDir holds the default pid file.
func New(cfg *config.DaemonConfig, appDir string, runner Runner) (*Daemon, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("daemon not enabled in configuration")
	}

	pidFile := cfg.PidFile
	if pidFile == "" {
		pidFile = filepath.Join(appDir, PidFileName)
	}

	d := &Daemon{
		config:      cfg,
		runner:      runner,
		pidFile:     pidFile,
		metricsAddr: cfg.MetricsAddr,
		log:         logging.Named("daemon"),
	}
	d.scheduler = NewScheduler(d.RunJob, d.log)

	for _, s := range cfg.Schedules {
		if err := d.scheduler.AddJob(jobFromSchedule(s)); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Scheduler returns the job scheduler
func (d *Daemon) Scheduler() *Scheduler {
	return d.scheduler
}

// Run starts the daemon and blocks until ctx is cancelled
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	if err := d.acquirePidFile(); err != nil {
		return err
	}
	defer d.releasePidFile()

	var server *http.Server
	if d.metricsAddr != "" {
		var err error
		server, err = d.startMetricsServer()
		if err != nil {
			return err
		}
	}

	if err := d.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	d.log.Info("daemon started",
		zap.String("pid_file", d.pidFile),
		zap.String("metrics_addr", d.MetricsAddr()),
		zap.Int("jobs", len(d.scheduler.ListJobs())))

	<-ctx.Done()
	d.log.Info("daemon shutting down")

	d.scheduler.Stop(shutdownTimeout)
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			d.log.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}
	return nil
}

// IsRunning returns whether the daemon is running
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// MetricsAddr returns the address the metrics server listens on, which
// differs from the configured one when it asked for port 0
func (d *Daemon) MetricsAddr() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.listener != nil {
		return d.listener.Addr().String()
	}
	return d.metricsAddr
}

// RunJob executes one job. A job that finds the engine busy is skipped.
func (d *Daemon) RunJob(job Job) error {
	start := time.Now()
	log := d.log.With(zap.String("job", job.Name))

	if job.EnforceBounds {
		evicted, err := d.runner.EnforceQuarantineBounds()
		if errors.Is(err, engine.ErrBusy) {
			log.Debug("engine busy, skipping job")
			metrics.RecordJobRun(job.Name, "skipped")
			return nil
		}
		if err != nil {
			metrics.RecordJobRun(job.Name, "error")
			return fmt.Errorf("quarantine bounds: %w", err)
		}
		if evicted > 0 {
			log.Info("evicted quarantine records", zap.Int("records", evicted))
		}
	}

	// a bounds-only job does not scan
	if !job.EnforceBounds || job.UseCache {
		results, err := d.runner.Scan(job.UseCache)
		if errors.Is(err, engine.ErrBusy) {
			log.Debug("engine busy, skipping job")
			metrics.RecordJobRun(job.Name, "skipped")
			return nil
		}
		if err != nil {
			metrics.RecordJobRun(job.Name, "error")
			return fmt.Errorf("scan: %w", err)
		}
		log.Info("scan complete",
			zap.Int("categories", len(results)),
			zap.Uint64("reclaimable_bytes", types.TotalReclaimable(results)),
			zap.Duration("took", time.Since(start)))
	}

	metrics.RecordJobRun(job.Name, "ok")
	return nil
}

func (d *Daemon) startMetricsServer() (*http.Server, error) {
	ln, err := net.Listen("tcp", d.metricsAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", d.metricsAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	d.mu.Lock()
	d.listener = ln
	d.mu.Unlock()

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return server, nil
}

// acquirePidFile creates the pid file exclusively. A pid file left behind by
// a process that no longer exists is replaced.
func (d *Daemon) acquirePidFile() error {
	if err := os.MkdirAll(filepath.Dir(d.pidFile), 0o755); err != nil {
		return fmt.Errorf("failed to create pid file directory: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(d.pidFile, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err == nil {
			_, err = fmt.Fprintf(file, "%d\n", os.Getpid())
			if cerr := file.Close(); err == nil {
				err = cerr
			}
			return err
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to write pid file: %w", err)
		}

		pid, alive := readPidFile(d.pidFile)
		if alive {
			return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
		}
		d.log.Warn("removing stale pid file", zap.String("path", d.pidFile), zap.Int("pid", pid))
		if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale pid file: %w", err)
		}
	}
	return ErrAlreadyRunning
}

func (d *Daemon) releasePidFile() {
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		d.log.Warn("failed to remove pid file", zap.Error(err))
	}
}

// readPidFile returns the pid recorded in path and whether that process is alive
func readPidFile(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	if pid == os.Getpid() {
		return pid, true
	}
	exists, err := process.PidExists(int32(pid))
	if err != nil {
		return pid, false
	}
	return pid, exists
}

// Status describes a daemon found through its pid file
type Status struct {
	PidFile string
	Pid     int
	Running bool
}

// ReadStatus reports whether a daemon is running for the given config
func ReadStatus(cfg *config.DaemonConfig, appDir string) Status {
	path := cfg.PidFile
	if path == "" {
		path = filepath.Join(appDir, PidFileName)
	}
	pid, alive := readPidFile(path)
	return Status{PidFile: path, Pid: pid, Running: alive}
}
