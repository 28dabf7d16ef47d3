package platform

import (
	"os"
	"path/filepath"
)

// getLinuxInfo returns platform-specific information for Linux
func getLinuxInfo(homeDir string) *Info {
	cacheHome := filepath.Join(homeDir, ".cache")
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" && filepath.IsAbs(xdg) {
		cacheHome = xdg
	}
	configHome := filepath.Join(homeDir, ".config")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" && filepath.IsAbs(xdg) {
		configHome = xdg
	}

	return &Info{
		OS:         Linux,
		HomeDir:    homeDir,
		CacheHome:  cacheHome,
		ConfigHome: configHome,
		LogDirs: []string{
			filepath.Join(homeDir, ".local/share/logs"),
			filepath.Join(homeDir, ".local/state"),
			filepath.Join(cacheHome, "logs"),
		},
		TrashDir: filepath.Join(homeDir, ".local/share/Trash"),
		ProtectedPaths: []string{
			"/",
			"/bin",
			"/boot",
			"/dev",
			"/etc",
			"/home",
			"/lib",
			"/lib64",
			"/opt",
			"/proc",
			"/root",
			"/run",
			"/sbin",
			"/srv",
			"/sys",
			"/usr",
			"/var/lib",
			"/var/db",
			configHome,
			filepath.Join(homeDir, "Documents"),
			filepath.Join(homeDir, "Desktop"),
			filepath.Join(homeDir, "Pictures"),
			filepath.Join(homeDir, "Music"),
			filepath.Join(homeDir, "Videos"),
		},
	}
}
