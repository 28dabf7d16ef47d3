// Package cache implements the incremental scan cache: per-category results
// invalidated by tracked path metadata and a per-category TTL.
package cache

import (
	"os"
	"time"
)

// PathMetadata is the change-detection unit for a tracked path
type PathMetadata struct {
	ModifiedTime *time.Time `json:"modified_time,omitempty"`
	SizeBytes    uint64     `json:"size_bytes"`
	IsDir        bool       `json:"is_dir"`
}

// Equal compares two metadata snapshots. Modification times are compared only
// when both sides carry one.
func (m PathMetadata) Equal(other PathMetadata) bool {
	if m.SizeBytes != other.SizeBytes || m.IsDir != other.IsDir {
		return false
	}
	if m.ModifiedTime != nil && other.ModifiedTime != nil {
		return m.ModifiedTime.Equal(*other.ModifiedTime)
	}
	return true
}

// Probe reads the metadata of path without following symlinks.
// Any error is reported as absent.
func Probe(path string) (PathMetadata, bool) {
	if path == "" {
		return PathMetadata{}, false
	}

	info, err := os.Lstat(path)
	if err != nil {
		return PathMetadata{}, false
	}

	meta := PathMetadata{
		IsDir: info.IsDir(),
	}
	if size := info.Size(); size > 0 {
		meta.SizeBytes = uint64(size)
	}
	if mt := info.ModTime(); !mt.IsZero() {
		mt = mt.UTC()
		meta.ModifiedTime = &mt
	}
	return meta, true
}

// Changed reports whether path is gone or differs from the recorded metadata
func Changed(path string, recorded PathMetadata) bool {
	current, ok := Probe(path)
	if !ok {
		return true
	}
	return !current.Equal(recorded)
}
