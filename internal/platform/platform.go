package platform

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// Info contains platform-specific information and paths
type Info struct {
	OS             Platform
	HomeDir        string
	Username       string
	CacheHome      string // per-user cache root (~/Library/Caches, $XDG_CACHE_HOME)
	ConfigHome     string // per-user config root
	LogDirs        []string
	TrashDir       string
	ProtectedPaths []string
}

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// GetInfo returns platform-specific information for the current user
func GetInfo() (*Info, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	username := ""
	if currentUser, err := user.Current(); err == nil {
		username = currentUser.Username
	}

	info, err := InfoFor(Detect(), homeDir)
	if err != nil {
		return nil, err
	}
	info.Username = username
	return info, nil
}

// InfoFor lays out the per-user directories of platform p under homeDir
func InfoFor(p Platform, homeDir string) (*Info, error) {
	switch p {
	case MacOS:
		return getMacOSInfo(homeDir), nil
	case Linux:
		return getLinuxInfo(homeDir), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p)
	}
}

// Home joins elements onto the home directory
func (i *Info) Home(elem ...string) string {
	return filepath.Join(append([]string{i.HomeDir}, elem...)...)
}

// Cache joins elements onto the per-user cache root
func (i *Info) Cache(elem ...string) string {
	return filepath.Join(append([]string{i.CacheHome}, elem...)...)
}

// ErrUnsupportedPlatform is returned for operating systems without a path layout
var ErrUnsupportedPlatform = errors.New("unsupported platform")
