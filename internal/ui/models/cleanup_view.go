package models

import (
	"fmt"
	"strings"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/devsweep/internal/progress"
	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/internal/ui/styles"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

// CleanupViewModel handles the cleanup progress view
type CleanupViewModel struct {
	engine        Engine
	items         []types.CleanupItem
	useQuarantine bool
	spinner       spinner.Model
	bar           bprogress.Model
	updates       <-chan interface{}
	current       progress.CleanProgress
	startTime     time.Time
	done          bool
}

// NewCleanupViewModel creates a new cleanup view model
func NewCleanupViewModel(engine Engine, items []types.CleanupItem, useQuarantine bool) *CleanupViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	return &CleanupViewModel{
		engine:        engine,
		items:         items,
		useQuarantine: useQuarantine,
		spinner:       s,
		bar:           bprogress.New(bprogress.WithDefaultGradient()),
		current:       progress.CleanProgress{ItemsTotal: len(items)},
		startTime:     time.Now(),
	}
}

// Init subscribes to cleanup progress and starts the cleanup
func (m *CleanupViewModel) Init() tea.Cmd {
	if pr := m.engine.Progress(); pr != nil {
		m.updates = pr.Subscribe()
	}
	return tea.Batch(
		m.spinner.Tick,
		m.performCleanup,
		waitForProgress(m.updates),
	)
}

// Update handles messages
func (m *CleanupViewModel) Update(msg tea.Msg) (*CleanupViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ProgressMsg:
		if p, ok := msg.Update.(*progress.CleanProgress); ok {
			m.current = *p
		}
		return m, waitForProgress(m.updates)

	case CleanupCompleteMsg:
		m.done = true
		if m.updates != nil {
			m.engine.Progress().Unsubscribe(m.updates)
			m.updates = nil
		}
		return m, nil
	}

	return m, nil
}

// View renders the cleanup view
func (m *CleanupViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🗑️  Cleaning Up"))
	b.WriteString("\n\n")

	if m.done {
		b.WriteString(styles.SuccessStyle.Render("✓ Cleanup Complete!"))
		b.WriteString("\n")
		return b.String()
	}

	verb := "Deleting"
	if m.useQuarantine {
		verb = "Quarantining"
	}
	b.WriteString(m.spinner.View())
	b.WriteString(fmt.Sprintf(" %s items... ", verb))
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", time.Since(m.startTime).Round(time.Second))))
	b.WriteString("\n\n")

	percent := 0.0
	if m.current.ItemsTotal > 0 {
		percent = float64(m.current.ItemsDone) / float64(m.current.ItemsTotal)
	}
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Progress: %d/%d items, %s freed",
		m.current.ItemsDone, m.current.ItemsTotal, utils.FormatBytes(m.current.FreedBytes)))
	if m.current.CurrentItem != "" {
		b.WriteString("\n")
		b.WriteString(styles.DimStyle.Render("Current: " + m.current.CurrentItem))
	}
	if m.current.ErrorCount > 0 {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("%d errors", m.current.ErrorCount)))
	}

	return b.String()
}

func (m *CleanupViewModel) performCleanup() tea.Msg {
	summary, err := m.engine.Clean(m.items, m.useQuarantine)
	return CleanupCompleteMsg{Summary: summary, Err: err}
}
