package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/devsweep/internal/cleaner"
	"github.com/fenilsonani/devsweep/internal/ui/styles"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

// SummaryViewModel handles the summary/results view
type SummaryViewModel struct {
	summary       *cleaner.Summary
	useQuarantine bool
}

// NewSummaryViewModel creates a new summary view model
func NewSummaryViewModel(summary *cleaner.Summary, useQuarantine bool) *SummaryViewModel {
	return &SummaryViewModel{
		summary:       summary,
		useQuarantine: useQuarantine,
	}
}

// Init initializes the summary view
func (m *SummaryViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *SummaryViewModel) Update(msg tea.Msg) (*SummaryViewModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "enter":
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the summary view
func (m *SummaryViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("✨ Cleanup Summary"))
	b.WriteString("\n\n")

	if s := m.summary; s != nil {
		b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("✓ Cleaned %d items", s.Success)))
		b.WriteString("\n")
		b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("Space freed: %s", utils.FormatBytes(s.FreedBytes))))
		b.WriteString("\n\n")

		for _, o := range s.Outcomes {
			if o.OK() {
				b.WriteString(styles.DimStyle.Render("  ✓ " + o.Message))
			} else {
				b.WriteString(styles.ErrorStyle.Render("  ✗ " + o.Message))
			}
			b.WriteString("\n")
		}

		if s.Errors > 0 {
			b.WriteString("\n")
			b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("✗ %d errors occurred", s.Errors)))
			b.WriteString("\n")
		}

		if m.useQuarantine && s.Success > 0 {
			b.WriteString("\n")
			b.WriteString(styles.InfoStyle.Render("Undo with: devsweep undo " + s.RecordID))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("Press q or enter to exit"))

	return b.String()
}
