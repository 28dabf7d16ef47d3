package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/fenilsonani/devsweep/internal/progress"
	"github.com/fenilsonani/devsweep/internal/types"
	uiutils "github.com/fenilsonani/devsweep/internal/ui/utils"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

// LiveProgress renders scan and cleanup progress on a single terminal line
type LiveProgress struct {
	mu         sync.Mutex
	out        io.Writer
	reporter   *progress.Reporter
	updates    <-chan interface{}
	done       chan struct{}
	lastUpdate time.Time
	termWidth  int
	enabled    bool
	drawn      bool
}

// NewLiveProgress creates a progress line on stderr. It stays silent when
// stderr is not a terminal.
func NewLiveProgress(reporter *progress.Reporter) *LiveProgress {
	width := 80
	fd := int(os.Stderr.Fd())
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		width = w
	}

	return &LiveProgress{
		out:       os.Stderr,
		reporter:  reporter,
		termWidth: width,
		enabled:   term.IsTerminal(fd),
	}
}

// Start subscribes to the reporter and draws updates until Finish
func (lp *LiveProgress) Start() {
	if !lp.enabled || lp.reporter == nil {
		return
	}
	lp.updates = lp.reporter.Subscribe()
	lp.done = make(chan struct{})

	go func() {
		defer close(lp.done)
		for update := range lp.updates {
			lp.Update(update)
		}
	}()
}

// Update draws one progress update, throttled to ten per second
func (lp *LiveProgress) Update(update interface{}) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if !lp.enabled {
		return
	}

	var line string
	final := false
	switch p := update.(type) {
	case *progress.ScanProgress:
		line = progress.FormatScanProgress(p)
		final = p.Phase == progress.PhaseComplete
	case *progress.CleanProgress:
		line = progress.FormatCleanProgress(p)
		final = p.Phase == progress.PhaseComplete
	default:
		return
	}

	now := time.Now()
	if !final && now.Sub(lp.lastUpdate) < 100*time.Millisecond {
		return
	}
	lp.lastUpdate = now

	fmt.Fprintf(lp.out, "\r\033[K%s", uiutils.TruncateString(line, lp.termWidth-1))
	lp.drawn = true
}

// Finish stops listening and clears the progress line
func (lp *LiveProgress) Finish() {
	if lp.updates != nil {
		lp.reporter.Unsubscribe(lp.updates)
		<-lp.done
		lp.updates = nil
	}

	lp.mu.Lock()
	defer lp.mu.Unlock()
	if lp.drawn {
		fmt.Fprint(lp.out, "\r\033[K")
		lp.drawn = false
	}
}

// SetEnabled enables or disables live progress
func (lp *LiveProgress) SetEnabled(enabled bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.enabled = enabled
}

// PrintTree prints scan results as a tree grouped by category and parent
// directory. At most maxItems items are listed per category.
func PrintTree(w io.Writer, results []types.CheckResult, maxItems int) {
	var total uint64
	count := 0

	for _, r := range results {
		if r.IsEmpty() {
			continue
		}
		total += r.TotalSize
		count += len(r.Items)

		fmt.Fprintf(w, "\n╭─ %s (%s)\n", r.Name, utils.FormatBytes(r.TotalSize))

		shown := len(r.Items)
		if maxItems > 0 && shown > maxItems {
			shown = maxItems
		}
		for i, item := range r.Items[:shown] {
			connector := "├"
			if i == shown-1 && shown == len(r.Items) {
				connector = "╰"
			}

			target := item.Path
			if item.HasCommand() {
				target = "$ " + item.CleanupCommand
			} else {
				target = uiutils.TruncatePath(target, 70)
			}
			fmt.Fprintf(w, "%s── %s (%s)  %s\n", connector, item.Kind, utils.FormatBytes(item.SizeBytes), target)
		}
		if shown < len(r.Items) {
			fmt.Fprintf(w, "╰── ... and %d more items\n", len(r.Items)-shown)
		}
	}

	fmt.Fprintf(w, "\n════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "Total: %s items | %s\n", utils.FormatCount(count), utils.FormatBytes(total))
}
