package config

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		UseQuarantine: true,
		UseCache:      true,
		Workers:       0,
		Quarantine: QuarantineConfig{
			MaxHistory:      50,
			MaxSize:         "10GiB",
			LowWaterPercent: 80,
		},
		TrashDirs: []string{
			".Trash",
			".local/share/Trash",
		},
		DisabledCategories: []string{},
		CustomPaths:        []CustomPath{},
		ProtectedPaths:     []string{},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
			Output: "stderr",
		},
		Daemon: DaemonConfig{
			Enabled:     false,
			MetricsAddr: "127.0.0.1:9477",
			Schedules: []ScanSchedule{
				{
					Name:     "warm-cache",
					Schedule: "*/30 * * * *",
					UseCache: true,
				},
				{
					Name:          "quarantine-bounds",
					Schedule:      "@hourly",
					EnforceBounds: true,
				},
			},
		},
	}
}

// GetExampleConfig returns an example configuration with comments
func GetExampleConfig() string {
	return `# devsweep configuration file
# Location: ~/.config/devsweep/config.yaml

# Move cleaned items into the quarantine so they can be restored with "devsweep undo"
use_quarantine: true

# Serve unchanged categories from the scan cache
use_cache: true

# Detector worker count (0 = one per CPU)
workers: 0

# Quarantine bounds. When the quarantine grows past max_size, the oldest
# records are evicted until it drops below low_water_percent of max_size.
quarantine:
  max_history: 50
  max_size: "10GiB"
  low_water_percent: 80

# Trailing path segments identifying the user trash. Cleaning a trash item
# empties its contents instead of removing the directory.
trash_dirs:
  - ".Trash"
  - ".local/share/Trash"

# Shell used for command cleanup actions (empty = $SHELL, then /bin/sh)
shell: ""

# Where the scan cache, history and quarantine live
# (empty = <user cache dir>/devsweep)
app_dir: ""

# Categories to skip, by name (e.g. "Docker", "Trash")
disabled_categories: []

# Extra directories scanned under "Custom Paths"
custom_paths: []
#  - path: "~/scratch"
#    label: "Scratch space"
#    enabled: true
#    recursive: true

# Additional paths that must never be deleted
protected_paths: []

log:
  level: warn      # debug, info, warn, error
  format: console  # console, json
  output: stderr

daemon:
  enabled: false
  pid_file: ""
  metrics_addr: "127.0.0.1:9477"
  schedules:
    - name: warm-cache
      schedule: "*/30 * * * *"
      use_cache: true
    - name: quarantine-bounds
      schedule: "@hourly"
      enforce_bounds: true
`
}
