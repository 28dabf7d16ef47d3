package cache

// PathTracker accumulates the metadata of paths a detector wants the cache to
// watch. It is bound to a single detector invocation and is not safe for
// concurrent use.
type PathTracker struct {
	paths map[string]PathMetadata
}

// NewPathTracker creates an empty tracker
func NewPathTracker() *PathTracker {
	return &PathTracker{paths: make(map[string]PathMetadata)}
}

// Track probes path and records its metadata. Re-tracking a path overwrites the
// earlier snapshot. Paths that cannot be probed are not recorded.
func (t *PathTracker) Track(path string) {
	meta, ok := Probe(path)
	if !ok {
		return
	}
	t.paths[path] = meta
}

// Len returns the number of tracked paths
func (t *PathTracker) Len() int {
	return len(t.paths)
}

// Paths returns a copy of the tracked path metadata.
func (t *PathTracker) Paths() map[string]PathMetadata {
	out := make(map[string]PathMetadata, len(t.paths))
	for p, m := range t.paths {
		out[p] = m
	}
	return out
}
