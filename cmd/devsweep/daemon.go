package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/devsweep/internal/daemon"
	"github.com/fenilsonani/devsweep/internal/engine"
	"github.com/fenilsonani/devsweep/internal/logging"
)

const daemonLogFile = "daemon.log"

var foreground bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scheduled scans and quarantine maintenance",
	Long: `Runs the configured schedules until interrupted. Intended to be started
by launchd or systemd; logs go to daemon.log in the application directory
as JSON unless --foreground is given.

Enable it in the config file:

daemon:
  enabled: true
  metrics_addr: "127.0.0.1:9477"
  schedules:
    - name: nightly
      schedule: "0 2 * * *"
      use_cache: true
      enforce_bounds: true`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, d, err := openDaemon()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		if !foreground && eng.Config().Log.Output == "" {
			level := eng.Config().Log.Level
			if verbose {
				level = "debug"
			}
			if err := logging.Init(logging.Config{
				Level:      level,
				Format:     "json",
				OutputPath: filepath.Join(eng.AppDir(), daemonLogFile),
			}); err != nil {
				return fmt.Errorf("failed to open daemon log: %w", err)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if foreground {
			fmt.Printf("devsweep daemon running with %d jobs (Ctrl+C to stop)\n", len(d.Scheduler().ListJobs()))
		}
		return d.Run(ctx)
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the daemon is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appDir, err := cfg.ResolveAppDir()
		if err != nil {
			return err
		}

		status := daemon.ReadStatus(&cfg.Daemon, appDir)
		if status.Running {
			fmt.Printf("Daemon running (pid %d)\n", status.Pid)
		} else {
			fmt.Println("Daemon not running")
		}
		fmt.Printf("Pid file: %s\n", status.PidFile)
		if !cfg.Daemon.Enabled {
			fmt.Println("Daemon is disabled in the configuration.")
		}
		return nil
	},
}

var daemonJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List configured schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(cfg.Daemon.Schedules) == 0 {
			fmt.Println("No schedules configured.")
			return nil
		}
		for _, s := range cfg.Daemon.Schedules {
			fmt.Printf("  - %s: %s", s.Name, s.Schedule)
			if s.UseCache {
				fmt.Print(" [cache]")
			}
			if s.EnforceBounds {
				fmt.Print(" [enforce bounds]")
			}
			fmt.Println()
		}
		return nil
	},
}

var daemonTriggerCmd = &cobra.Command{
	Use:   "trigger JOB",
	Short: "Run one scheduled job now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, d, err := openDaemon()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		if err := d.Scheduler().TriggerJob(args[0]); err != nil {
			return err
		}
		fmt.Printf("Job %s completed\n", args[0])
		return nil
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&foreground, "foreground", false, "stay attached to the terminal and log to stderr")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonJobsCmd)
	daemonCmd.AddCommand(daemonTriggerCmd)

	rootCmd.AddCommand(daemonCmd)
}

func openDaemon() (*engine.Engine, *daemon.Daemon, error) {
	eng, err := openEngine()
	if err != nil {
		return nil, nil, err
	}

	d, err := daemon.New(&eng.Config().Daemon, eng.AppDir(), eng)
	if err != nil {
		closeEngine(eng)
		return nil, nil, err
	}
	return eng, d, nil
}
