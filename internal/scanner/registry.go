package scanner

import (
	"errors"
	"fmt"

	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/types"
)

// DetectFunc probes the filesystem for one category. It never returns an
// error and never mutates the filesystem; it may track paths whose change
// should invalidate the cached result.
type DetectFunc func(t *cache.PathTracker) types.CheckResult

// Detector pairs a category name with its detection function
type Detector struct {
	Name   string
	Detect DetectFunc
}

// ErrDuplicateDetector is returned when a category name is registered twice
var ErrDuplicateDetector = errors.New("detector already registered")

// Registry is the ordered list of detectors. Order is the presentation order
// of scan results.
type Registry struct {
	detectors []Detector
	index     map[string]int
}

// NewRegistry creates a registry holding detectors in the given order
func NewRegistry(detectors ...Detector) (*Registry, error) {
	r := &Registry{index: make(map[string]int)}
	for _, d := range detectors {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a detector
func (r *Registry) Register(d Detector) error {
	if d.Name == "" {
		return errors.New("detector name is empty")
	}
	if d.Detect == nil {
		return fmt.Errorf("detector %q has no detect function", d.Name)
	}
	if _, exists := r.index[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDetector, d.Name)
	}

	r.index[d.Name] = len(r.detectors)
	r.detectors = append(r.detectors, d)
	return nil
}

// Names returns category names in registry order
func (r *Registry) Names() []string {
	names := make([]string, len(r.detectors))
	for i, d := range r.detectors {
		names[i] = d.Name
	}
	return names
}

// Get looks up a detector by name
func (r *Registry) Get(name string) (Detector, bool) {
	i, ok := r.index[name]
	if !ok {
		return Detector{}, false
	}
	return r.detectors[i], true
}

// Len returns the number of registered detectors
func (r *Registry) Len() int {
	return len(r.detectors)
}

// All returns a copy of the detectors in registry order
func (r *Registry) All() []Detector {
	out := make([]Detector, len(r.detectors))
	copy(out, r.detectors)
	return out
}
