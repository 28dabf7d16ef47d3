package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fenilsonani/devsweep/internal/config"
	"github.com/fenilsonani/devsweep/internal/engine"
	"github.com/fenilsonani/devsweep/internal/types"
)

type fakeRunner struct {
	mu        sync.Mutex
	scans     []bool
	enforced  int
	scanErr   error
	boundsErr error
}

func (f *fakeRunner) Scan(useCache bool) ([]types.CheckResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans = append(f.scans, useCache)
	return []types.CheckResult{types.NewCheckResult("Logs")}, f.scanErr
}

func (f *fakeRunner) EnforceQuarantineBounds() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enforced++
	return 0, f.boundsErr
}

func daemonConfig(t *testing.T) *config.DaemonConfig {
	t.Helper()
	return &config.DaemonConfig{
		Enabled:     true,
		PidFile:     filepath.Join(t.TempDir(), "devsweep.pid"),
		MetricsAddr: "127.0.0.1:0",
		Schedules: []config.ScanSchedule{
			{Name: "warm-cache", Schedule: "*/30 * * * *", UseCache: true},
			{Name: "quarantine-bounds", Schedule: "@hourly", EnforceBounds: true},
		},
	}
}

func TestNewRequiresEnabled(t *testing.T) {
	cfg := daemonConfig(t)
	cfg.Enabled = false
	_, err := New(cfg, t.TempDir(), &fakeRunner{})
	assert.Error(t, err)
}

func TestNewRejectsBadSchedule(t *testing.T) {
	cfg := daemonConfig(t)
	cfg.Schedules = append(cfg.Schedules, config.ScanSchedule{Name: "broken", Schedule: "every tuesday"})
	_, err := New(cfg, t.TempDir(), &fakeRunner{})
	assert.Error(t, err)
}

func TestNewDefaultsPidFileToAppDir(t *testing.T) {
	cfg := daemonConfig(t)
	cfg.PidFile = ""
	appDir := t.TempDir()
	d, err := New(cfg, appDir, &fakeRunner{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(appDir, PidFileName), d.pidFile)
}

func TestRunJob(t *testing.T) {
	runner := &fakeRunner{}
	d, err := New(daemonConfig(t), t.TempDir(), runner)
	require.NoError(t, err)

	require.NoError(t, d.RunJob(Job{Name: "warm", UseCache: true}))
	require.NoError(t, d.RunJob(Job{Name: "bounds", EnforceBounds: true}))
	require.NoError(t, d.RunJob(Job{Name: "full"}))

	assert.Equal(t, []bool{true, false}, runner.scans)
	assert.Equal(t, 1, runner.enforced)
}

func TestRunJobSkipsWhenBusy(t *testing.T) {
	runner := &fakeRunner{scanErr: fmt.Errorf("%w: engine is cleaning", engine.ErrBusy)}
	d, err := New(daemonConfig(t), t.TempDir(), runner)
	require.NoError(t, err)

	assert.NoError(t, d.RunJob(Job{Name: "warm", UseCache: true}))

	runner.scanErr = errors.New("disk on fire")
	assert.Error(t, d.RunJob(Job{Name: "warm", UseCache: true}))
}

func TestRunServesMetricsAndCleansUp(t *testing.T) {
	cfg := daemonConfig(t)
	d, err := New(cfg, t.TempDir(), &fakeRunner{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(cfg.PidFile)
		return err == nil && d.MetricsAddr() != cfg.MetricsAddr
	}, 5*time.Second, 10*time.Millisecond)

	data, err := os.ReadFile(cfg.PidFile)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))

	resp, err := http.Get("http://" + d.MetricsAddr() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")

	status := ReadStatus(cfg, "")
	assert.True(t, status.Running)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("daemon did not stop")
	}

	_, err = os.Stat(cfg.PidFile)
	assert.True(t, os.IsNotExist(err), "pid file must be removed on shutdown")
	assert.False(t, d.IsRunning())
}

func TestPidFileRefusesSecondInstance(t *testing.T) {
	cfg := daemonConfig(t)
	require.NoError(t, os.WriteFile(cfg.PidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644))

	d, err := New(cfg, t.TempDir(), &fakeRunner{})
	require.NoError(t, err)
	err = d.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestStalePidFileIsReplaced(t *testing.T) {
	cfg := daemonConfig(t)
	cfg.MetricsAddr = ""
	require.NoError(t, os.WriteFile(cfg.PidFile, []byte("not-a-pid\n"), 0o644))

	d, err := New(cfg, t.TempDir(), &fakeRunner{})
	require.NoError(t, err)
	require.NoError(t, d.acquirePidFile())
	defer d.releasePidFile()

	pid, alive := readPidFile(cfg.PidFile)
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, alive)
}

func TestSchedulerJobs(t *testing.T) {
	var mu sync.Mutex
	var ran []string
	s := NewScheduler(func(j Job) error {
		mu.Lock()
		ran = append(ran, j.Name)
		mu.Unlock()
		return nil
	}, zap.NewNop())

	require.NoError(t, s.AddJob(Job{Name: "a", Schedule: "@daily"}))
	assert.Error(t, s.AddJob(Job{Name: "a", Schedule: "@daily"}), "duplicate names are rejected")
	require.NoError(t, s.AddJob(Job{Name: "b", Schedule: "0 3 * * *"}))

	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
	defer s.Stop(time.Second)

	next, err := s.GetNextRun("a")
	require.NoError(t, err)
	assert.True(t, next.After(time.Now()))
	assert.Len(t, s.ListJobs(), 2)

	require.NoError(t, s.TriggerJob("b"))
	assert.Equal(t, []string{"b"}, ran)
	assert.Error(t, s.TriggerJob("missing"))

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	_, err = s.GetNextRun("a")
	assert.Error(t, err)
	assert.Len(t, s.ListJobs(), 1)
}
