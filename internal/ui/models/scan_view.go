package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/devsweep/internal/progress"
	"github.com/fenilsonani/devsweep/internal/ui/styles"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

// ScanViewModel handles the scanning progress view
type ScanViewModel struct {
	engine    Engine
	useCache  bool
	spinner   spinner.Model
	scanning  bool
	startTime time.Time
	updates   <-chan interface{}
	current   progress.ScanProgress
	found     int
	size      uint64
}

// NewScanViewModel creates a new scan view model
func NewScanViewModel(engine Engine, useCache bool) *ScanViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	return &ScanViewModel{
		engine:    engine,
		useCache:  useCache,
		spinner:   s,
		scanning:  true,
		startTime: time.Now(),
	}
}

// Init subscribes to scan progress and starts the scan
func (m *ScanViewModel) Init() tea.Cmd {
	if pr := m.engine.Progress(); pr != nil {
		m.updates = pr.Subscribe()
	}
	return tea.Batch(
		m.spinner.Tick,
		m.performScan,
		waitForProgress(m.updates),
	)
}

// Update handles messages
func (m *ScanViewModel) Update(msg tea.Msg) (*ScanViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ProgressMsg:
		if p, ok := msg.Update.(*progress.ScanProgress); ok {
			m.current = *p
		}
		return m, waitForProgress(m.updates)

	case ScanCompleteMsg:
		m.scanning = false
		for _, r := range msg.Results {
			m.found += len(r.Items)
			m.size += r.TotalSize
		}
		m.stopUpdates()
		return m, nil
	}

	return m, nil
}

// View renders the scan view
func (m *ScanViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🔍 Scanning"))
	b.WriteString("\n\n")

	if m.scanning {
		b.WriteString(m.spinner.View())
		b.WriteString(" Scanning... ")
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", time.Since(m.startTime).Round(time.Second))))
		b.WriteString("\n\n")

		p := m.current
		if p.CategoriesTotal > 0 {
			b.WriteString(styles.ProgressBar(p.CategoriesDone, p.CategoriesTotal, 40))
			b.WriteString(fmt.Sprintf(" %d/%d categories", p.CategoriesDone, p.CategoriesTotal))
			if p.CachedCategories > 0 {
				b.WriteString(styles.DimStyle.Render(fmt.Sprintf(" (%d cached)", p.CachedCategories)))
			}
			b.WriteString("\n\n")
		}
		if p.Category != "" {
			b.WriteString(styles.DimStyle.Render("Last finished: "))
			b.WriteString(styles.CategoryStyle.Render(styles.GetCategoryIcon(p.Category) + " " + p.Category))
			b.WriteString("\n")
		}
		b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("Found so far: %s items, %s",
			utils.FormatCount(p.ItemsFound), utils.FormatBytes(p.TotalSize))))
	} else {
		b.WriteString(styles.SuccessStyle.Render("✓ Scan Complete!"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("Found %s items totaling %s\n",
			styles.BoldStyle.Render(utils.FormatCount(m.found)),
			styles.FileSizeStyle.Render(utils.FormatBytes(m.size)),
		))
	}

	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Press ctrl+c to cancel"))

	return b.String()
}

func (m *ScanViewModel) performScan() tea.Msg {
	results, err := m.engine.Scan(m.useCache)
	return ScanCompleteMsg{Results: results, Err: err}
}

func (m *ScanViewModel) stopUpdates() {
	if m.updates != nil {
		m.engine.Progress().Unsubscribe(m.updates)
		m.updates = nil
	}
}

// ProgressMsg wraps a *progress.ScanProgress or *progress.CleanProgress
type ProgressMsg struct {
	Update interface{}
}

// waitForProgress blocks for the next progress update. It yields nothing once
// the subscription is closed.
func waitForProgress(ch <-chan interface{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return nil
		}
		return ProgressMsg{Update: update}
	}
}
