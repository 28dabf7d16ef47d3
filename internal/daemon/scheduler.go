package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fenilsonani/devsweep/internal/config"
)

// Job is a scheduled background job
type Job struct {
	Name          string
	Schedule      string
	UseCache      bool
	EnforceBounds bool
}

func jobFromSchedule(s config.ScanSchedule) Job {
	return Job{
		Name:          s.Name,
		Schedule:      s.Schedule,
		UseCache:      s.UseCache,
		EnforceBounds: s.EnforceBounds,
	}
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	run     func(Job) error
	cron    *cron.Cron
	jobs    map[string]cron.EntryID
	defs    map[string]Job
	jobsMu  sync.RWMutex
	running bool
	log     *zap.Logger
}

// NewScheduler creates a scheduler calling run for every due job.
// Overlapping runs of the same job are skipped.
func NewScheduler(run func(Job) error, log *zap.Logger) *Scheduler {
	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)
	cl := cronLogger{log: log.Sugar()}

	c := cron.New(cron.WithParser(parser), cron.WithLogger(cl), cron.WithChain(
		cron.Recover(cl),
		cron.SkipIfStillRunning(cl),
	))

	return &Scheduler{
		run:  run,
		cron: c,
		jobs: make(map[string]cron.EntryID),
		defs: make(map[string]Job),
		log:  log,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true

	s.log.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
	return nil
}

// Stop stops the scheduler and waits up to timeout for running jobs
func (s *Scheduler) Stop(timeout time.Duration) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(timeout):
		s.log.Warn("scheduler stop timed out", zap.Duration("timeout", timeout))
	}

	s.running = false
	s.log.Info("scheduler stopped")
}

// AddJob adds a new job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already exists", job.Name)
	}

	id, err := s.cron.AddFunc(job.Schedule, func() {
		if err := s.run(job); err != nil {
			s.log.Error("scheduled job failed", zap.String("job", job.Name), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", job.Schedule, job.Name, err)
	}

	s.jobs[job.Name] = id
	s.defs[job.Name] = job
	s.log.Debug("added job", zap.String("job", job.Name), zap.String("schedule", job.Schedule))
	return nil
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(name string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	id, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(id)
	delete(s.jobs, name)
	delete(s.defs, name)
	return nil
}

// GetNextRun returns the next run time for a job. It is zero until the
// scheduler has started.
func (s *Scheduler) GetNextRun(name string) (time.Time, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	id, exists := s.jobs[name]
	if !exists {
		return time.Time{}, fmt.Errorf("job %s not found", name)
	}
	return s.cron.Entry(id).Next, nil
}

// ListJobs returns information about all jobs, soonest first
func (s *Scheduler) ListJobs() []JobInfo {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	names := make(map[cron.EntryID]string, len(s.jobs))
	for n, id := range s.jobs {
		names[id] = n
	}

	jobs := make([]JobInfo, 0, len(s.jobs))
	for _, entry := range s.cron.Entries() {
		if name, ok := names[entry.ID]; ok {
			jobs = append(jobs, JobInfo{
				Name:    name,
				NextRun: entry.Next,
				PrevRun: entry.Prev,
			})
		}
	}
	return jobs
}

// TriggerJob runs a job immediately on the calling goroutine
func (s *Scheduler) TriggerJob(name string) error {
	s.jobsMu.RLock()
	job, exists := s.defs[name]
	s.jobsMu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.log.Info("manually triggering job", zap.String("job", name))
	return s.run(job)
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	PrevRun time.Time
}

// cronLogger routes cron's logging into zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
