package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/devsweep/pkg/utils"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseScanning Phase = "scanning"
	PhaseCleaning Phase = "cleaning"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// ScanProgress represents progress during scanning
type ScanProgress struct {
	Phase            Phase
	Category         string
	CategoriesTotal  int
	CategoriesDone   int
	CachedCategories int
	ItemsFound       int
	TotalSize        uint64
	StartTime        time.Time
	Error            error
}

// CleanProgress represents progress during cleanup
type CleanProgress struct {
	Phase       Phase
	CurrentItem string
	ItemsDone   int
	ItemsTotal  int
	FreedBytes  uint64
	TotalBytes  uint64
	ErrorCount  int
	StartTime   time.Time
	Error       error
}

// Reporter provides thread-safe progress reporting
type Reporter struct {
	scanProgress  *ScanProgress
	cleanProgress *CleanProgress
	mu            sync.RWMutex
	listeners     []chan interface{}
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make([]chan interface{}, 0),
	}
}

// Subscribe returns a channel that receives *ScanProgress and *CleanProgress updates
func (pr *Reporter) Subscribe() <-chan interface{} {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	ch := make(chan interface{}, 16)
	pr.listeners = append(pr.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (pr *Reporter) Unsubscribe(ch <-chan interface{}) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	for i, listener := range pr.listeners {
		if listener == ch {
			close(listener)
			pr.listeners = append(pr.listeners[:i], pr.listeners[i+1:]...)
			return
		}
	}
}

// UpdateScanProgress updates scan progress and notifies listeners
func (pr *Reporter) UpdateScanProgress(update *ScanProgress) {
	if pr == nil {
		return
	}
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.scanProgress = update
	pr.notify(pr.listeners, update)
}

// UpdateCleanProgress updates clean progress and notifies listeners
func (pr *Reporter) UpdateCleanProgress(update *CleanProgress) {
	if pr == nil {
		return
	}
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.cleanProgress = update
	pr.notify(pr.listeners, update)
}

// notify must be called with pr.mu held so Unsubscribe cannot close a
// channel mid-send
func (pr *Reporter) notify(listeners []chan interface{}, update interface{}) {
	// Notify all listeners (non-blocking)
	for _, listener := range listeners {
		select {
		case listener <- update:
		default:
			// Skip if channel is full
		}
	}
}

// GetScanProgress returns the current scan progress
func (pr *Reporter) GetScanProgress() *ScanProgress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.scanProgress
}

// GetCleanProgress returns the current clean progress
func (pr *Reporter) GetCleanProgress() *CleanProgress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.cleanProgress
}

// FormatScanProgress returns a human-readable scan progress string
func FormatScanProgress(p *ScanProgress) string {
	if p == nil {
		return "Initializing..."
	}

	elapsed := time.Since(p.StartTime)

	switch p.Phase {
	case PhaseScanning:
		return fmt.Sprintf("Scanning %s... %d/%d categories (%d cached), %s reclaimable [%s]",
			p.Category,
			p.CategoriesDone,
			p.CategoriesTotal,
			p.CachedCategories,
			utils.FormatBytes(p.TotalSize),
			FormatDuration(elapsed))
	case PhaseComplete:
		return fmt.Sprintf("Scan complete: %d items (%s) in %s",
			p.ItemsFound,
			utils.FormatBytes(p.TotalSize),
			FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("Scan error: %v", p.Error)
	default:
		return "Scanning..."
	}
}

// FormatCleanProgress returns a human-readable clean progress string
func FormatCleanProgress(p *CleanProgress) string {
	if p == nil {
		return "Preparing..."
	}

	elapsed := time.Since(p.StartTime)

	switch p.Phase {
	case PhaseCleaning:
		percentage := 0
		if p.ItemsTotal > 0 {
			percentage = (p.ItemsDone * 100) / p.ItemsTotal
		}

		eta := ""
		if p.ItemsDone > 0 && p.ItemsTotal > p.ItemsDone {
			avgTime := elapsed / time.Duration(p.ItemsDone)
			remaining := time.Duration(p.ItemsTotal-p.ItemsDone) * avgTime
			eta = fmt.Sprintf(" ETA: %s", FormatDuration(remaining))
		}

		return fmt.Sprintf("Cleaning... %d/%d items (%d%%) - %s freed%s",
			p.ItemsDone,
			p.ItemsTotal,
			percentage,
			utils.FormatBytes(p.FreedBytes),
			eta)
	case PhaseComplete:
		return fmt.Sprintf("Cleanup complete: %d items (%s) in %s, %d errors",
			p.ItemsDone,
			utils.FormatBytes(p.FreedBytes),
			FormatDuration(elapsed),
			p.ErrorCount)
	case PhaseError:
		return fmt.Sprintf("Cleanup error: %v", p.Error)
	default:
		return "Preparing cleanup..."
	}
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
