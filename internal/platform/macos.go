package platform

import "path/filepath"

// getMacOSInfo returns platform-specific information for macOS
func getMacOSInfo(homeDir string) *Info {
	return &Info{
		OS:         MacOS,
		HomeDir:    homeDir,
		CacheHome:  filepath.Join(homeDir, "Library/Caches"),
		ConfigHome: filepath.Join(homeDir, "Library/Application Support"),
		LogDirs: []string{
			filepath.Join(homeDir, "Library/Logs"),
		},
		TrashDir: filepath.Join(homeDir, ".Trash"),
		ProtectedPaths: []string{
			"/",
			"/System",
			"/Applications",
			"/Library/System",
			"/bin",
			"/sbin",
			"/usr",
			"/etc",
			"/var",
			"/dev",
			"/private/etc",
			"/private/var/db",
			filepath.Join(homeDir, "Library/Application Support"),
			filepath.Join(homeDir, "Library/Preferences"),
			filepath.Join(homeDir, "Documents"),
			filepath.Join(homeDir, "Desktop"),
			filepath.Join(homeDir, "Pictures"),
			filepath.Join(homeDir, "Music"),
			filepath.Join(homeDir, "Movies"),
		},
	}
}
