// Package history keeps the journal of cleanup batches and owns the
// quarantine directory their items are moved into.
package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fenilsonani/devsweep/internal/config"
	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

// ItemRecord is the outcome of one item of a cleanup batch
type ItemRecord struct {
	Kind               string `json:"kind"`
	OriginalPath       string `json:"original_path,omitempty"`
	QuarantinePath     string `json:"quarantine_path,omitempty"`
	SizeBytes          uint64 `json:"size_bytes"`
	Success            bool   `json:"success"`
	ErrorMessage       string `json:"error_message,omitempty"`
	DeletedPermanently bool   `json:"deleted_permanently"`
}

// Quarantined records a successful move into quarantine
func Quarantined(item types.CleanupItem, quarantinePath string) ItemRecord {
	return ItemRecord{
		Kind:           item.Kind,
		OriginalPath:   item.Path,
		QuarantinePath: quarantinePath,
		SizeBytes:      item.SizeBytes,
		Success:        true,
	}
}

// Deleted records an item destroyed outside quarantine
func Deleted(item types.CleanupItem) ItemRecord {
	return ItemRecord{
		Kind:               item.Kind,
		OriginalPath:       item.Path,
		SizeBytes:          item.SizeBytes,
		Success:            true,
		DeletedPermanently: true,
	}
}

// Failed records an item whose action failed
func Failed(item types.CleanupItem, err error) ItemRecord {
	return ItemRecord{
		Kind:         item.Kind,
		OriginalPath: item.Path,
		SizeBytes:    item.SizeBytes,
		ErrorMessage: err.Error(),
	}
}

// CanRestore reports whether the item still sits in quarantine
func (i ItemRecord) CanRestore() bool {
	return i.Success && !i.DeletedPermanently && i.QuarantinePath != ""
}

// Record is one cleanup batch. Counters are maintained by Add.
type Record struct {
	ID           string       `json:"id"`
	Timestamp    time.Time    `json:"timestamp"`
	Items        []ItemRecord `json:"items"`
	TotalSize    uint64       `json:"total_size"`
	SuccessCount int          `json:"success_count"`
	ErrorCount   int          `json:"error_count"`
	CanUndo      bool         `json:"can_undo"`
}

// NewRecord creates an empty, undoable record
func NewRecord(id string, timestamp time.Time) *Record {
	return &Record{
		ID:        id,
		Timestamp: timestamp,
		Items:     []ItemRecord{},
		CanUndo:   true,
	}
}

// NewID returns a unique record id such as "cleanup_1700000000_3f2a9c1e"
func NewID(now time.Time) string {
	return fmt.Sprintf("cleanup_%d_%s", now.Unix(), uuid.NewString()[:8])
}

// Add appends an item outcome and updates the counters
func (r *Record) Add(item ItemRecord) {
	r.TotalSize += item.SizeBytes
	if item.Success {
		r.SuccessCount++
	} else {
		r.ErrorCount++
	}
	r.Items = append(r.Items, item)
}

// IsUndoable reports whether Undo may run on the record
func (r *Record) IsUndoable() bool {
	return r.CanUndo && r.SuccessCount > 0
}

// Restorable counts the items still in quarantine
func (r *Record) Restorable() int {
	n := 0
	for _, item := range r.Items {
		if item.CanRestore() {
			n++
		}
	}
	return n
}

func (r *Record) clone() Record {
	c := *r
	c.Items = make([]ItemRecord, len(r.Items))
	copy(c.Items, r.Items)
	return c
}

// Limits bound the history and the quarantine directory
type Limits struct {
	MaxHistory         int
	MaxQuarantineBytes uint64
	LowWaterPercent    int // eviction target once over MaxQuarantineBytes
}

// DefaultLimits returns 50 records, 10 GiB of quarantine and an 80% low-water mark
func DefaultLimits() Limits {
	return Limits{
		MaxHistory:         50,
		MaxQuarantineBytes: 10 * utils.GB,
		LowWaterPercent:    80,
	}
}

// LimitsFromConfig converts the quarantine section of the app config
func LimitsFromConfig(q config.QuarantineConfig) (Limits, error) {
	limits := DefaultLimits()
	if q.MaxHistory > 0 {
		limits.MaxHistory = q.MaxHistory
	}
	if q.MaxSize != "" {
		size, err := utils.ParseSize(q.MaxSize)
		if err != nil {
			return limits, fmt.Errorf("invalid quarantine max_size: %w", err)
		}
		limits.MaxQuarantineBytes = size
	}
	if q.LowWaterPercent > 0 && q.LowWaterPercent <= 100 {
		limits.LowWaterPercent = q.LowWaterPercent
	}
	return limits, nil
}

// lowWater is the size eviction brings the quarantine down to
func (l Limits) lowWater() uint64 {
	return l.MaxQuarantineBytes * uint64(l.LowWaterPercent) / 100
}

// UndoResult reports per-item outcomes of an undo
type UndoResult struct {
	RecordID     string
	SuccessCount int
	ErrorCount   int
	Errors       []string
}

// Stats summarises the history
type Stats struct {
	TotalRecords      int
	UndoableRecords   int
	TotalItemsCleaned int
	QuarantineBytes   uint64
}
