package types

import "errors"

// ErrNoAction is returned by Validate when an item has neither a path nor a command.
var ErrNoAction = errors.New("cleanup item has neither a path nor a cleanup command")

// CleanupItem is a single removable artifact reported by a detector.
type CleanupItem struct {
	Kind           string `json:"kind" yaml:"kind"`
	Path           string `json:"path,omitempty" yaml:"path,omitempty"`
	SizeBytes      uint64 `json:"size_bytes" yaml:"size_bytes"`
	SafeToDelete   bool   `json:"safe_to_delete" yaml:"safe_to_delete"`
	Warning        string `json:"warning,omitempty" yaml:"warning,omitempty"`
	CleanupCommand string `json:"cleanup_command,omitempty" yaml:"cleanup_command,omitempty"`
}

// HasPath reports whether the item points at a filesystem path
func (i CleanupItem) HasPath() bool {
	return i.Path != ""
}

// HasCommand reports whether the item is cleaned by running a shell command
func (i CleanupItem) HasCommand() bool {
	return i.CleanupCommand != ""
}

// Validate checks that the item carries at least one cleanup action
func (i CleanupItem) Validate() error {
	if !i.HasPath() && !i.HasCommand() {
		return ErrNoAction
	}
	return nil
}

// Key identifies an item within its category.
func (i CleanupItem) Key() string {
	return i.Kind + "\x00" + i.Path
}

// CheckResult is what a detector returns for one category.
// TotalSize always equals the sum of Items[*].SizeBytes.
type CheckResult struct {
	Name      string        `json:"name" yaml:"name"`
	Items     []CleanupItem `json:"items" yaml:"items"`
	TotalSize uint64        `json:"total_size" yaml:"total_size"`
}

// NewCheckResult creates an empty result for the named category
func NewCheckResult(name string) CheckResult {
	return CheckResult{
		Name:  name,
		Items: []CleanupItem{},
	}
}

// Add appends an item, keeping TotalSize in step. Items sharing Kind and Path
// with an existing entry replace it.
func (r *CheckResult) Add(item CleanupItem) {
	for idx, existing := range r.Items {
		if existing.Key() == item.Key() {
			r.TotalSize -= existing.SizeBytes
			r.TotalSize += item.SizeBytes
			r.Items[idx] = item
			return
		}
	}
	r.Items = append(r.Items, item)
	r.TotalSize += item.SizeBytes
}

// Recompute re-derives TotalSize from Items
func (r *CheckResult) Recompute() {
	var total uint64
	for _, item := range r.Items {
		total += item.SizeBytes
	}
	r.TotalSize = total
}

// IsEmpty reports whether the result has no items
func (r CheckResult) IsEmpty() bool {
	return len(r.Items) == 0
}

// Clone returns a deep copy of the result
func (r CheckResult) Clone() CheckResult {
	items := make([]CleanupItem, len(r.Items))
	copy(items, r.Items)
	return CheckResult{
		Name:      r.Name,
		Items:     items,
		TotalSize: r.TotalSize,
	}
}

// TotalReclaimable sums TotalSize across results.
func TotalReclaimable(results []CheckResult) uint64 {
	var total uint64
	for _, r := range results {
		total += r.TotalSize
	}
	return total
}
