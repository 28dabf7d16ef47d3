package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/internal/ui/styles"
	uiutils "github.com/fenilsonani/devsweep/internal/ui/utils"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

// RiskLevel represents the risk level of a cleanup
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// ConfirmViewModel handles the confirmation screen
type ConfirmViewModel struct {
	items         []types.CleanupItem
	useQuarantine bool
	cursor        int // 0 = Yes, 1 = Review, 2 = Cancel
	riskLevel     RiskLevel
	width         int
	height        int
}

// NewConfirmViewModel creates a new confirm view model. High-risk batches
// default to Cancel.
func NewConfirmViewModel(items []types.CleanupItem, useQuarantine bool, width, height int) *ConfirmViewModel {
	risk := CalculateRiskLevel(items, useQuarantine)
	defaultCursor := 0
	if risk == RiskHigh {
		defaultCursor = 2
	}

	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	return &ConfirmViewModel{
		items:         items,
		useQuarantine: useQuarantine,
		cursor:        defaultCursor,
		riskLevel:     risk,
		width:         width,
		height:        height,
	}
}

// CalculateRiskLevel grades a batch. Items not safe to delete are high risk.
// Commands and permanent deletes cannot be undone and are medium risk.
func CalculateRiskLevel(items []types.CleanupItem, useQuarantine bool) RiskLevel {
	risk := RiskLow
	for _, item := range items {
		if !item.SafeToDelete {
			return RiskHigh
		}
		if item.HasCommand() || !useQuarantine || item.Warning != "" {
			risk = RiskMedium
		}
	}
	return risk
}

// Init initializes the confirm view
func (m *ConfirmViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ConfirmViewModel) Update(msg tea.Msg) (*ConfirmViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < 2 {
				m.cursor++
			}
		case "tab":
			m.cursor = (m.cursor + 1) % 3
		case "enter":
			switch m.cursor {
			case 0:
				return m, func() tea.Msg { return ConfirmedMsg{} }
			case 1:
				return m, func() tea.Msg { return ReviewSelectionMsg{} }
			case 2:
				return m, tea.Quit
			}
		case "y":
			return m, func() tea.Msg { return ConfirmedMsg{} }
		case "e":
			return m, func() tea.Msg { return ReviewSelectionMsg{} }
		case "n":
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the confirmation view
func (m *ConfirmViewModel) View() string {
	var b strings.Builder

	if warning := uiutils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("⚠️  Confirm Cleanup"))
	b.WriteString("\n\n")

	var totalSize uint64
	commands := 0
	for _, item := range m.items {
		totalSize += item.SizeBytes
		if item.HasCommand() {
			commands++
		}
	}

	verb := "delete"
	if m.useQuarantine {
		verb = "quarantine"
	}
	b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("You are about to %s %d items (%s)",
		verb, len(m.items), utils.FormatBytes(totalSize))))
	b.WriteString("\n\n")

	b.WriteString(styles.SubtitleStyle.Render("Items:"))
	b.WriteString("\n")
	shown := len(m.items)
	if limit := m.height - 18; shown > limit && limit > 0 {
		shown = limit
	}
	for _, item := range m.items[:shown] {
		b.WriteString(fmt.Sprintf("  %-36s %s\n",
			uiutils.TruncateString(item.Kind, 36),
			styles.FileSizeStyle.Render(utils.FormatBytes(item.SizeBytes))))
	}
	if shown < len(m.items) {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  ... and %d more\n", len(m.items)-shown)))
	}
	b.WriteString("\n")

	riskText, riskRender, riskIcon := m.riskDisplay()
	b.WriteString(fmt.Sprintf("Risk Level: %s %s\n", riskIcon, riskRender(riskText)))

	if commands > 0 {
		b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("%d items run a cleanup command and cannot be restored", commands)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.useQuarantine {
		b.WriteString(styles.InfoStyle.Render("Files are moved to quarantine and can be restored with \"devsweep undo\""))
	} else {
		b.WriteString(styles.WarningStyle.Render("⚠️  This action cannot be undone!"))
	}
	b.WriteString("\n\n")

	yesBtn := "[ Yes, clean ]"
	reviewBtn := "[ Review ]"
	cancelBtn := "[ Cancel ]"

	switch m.cursor {
	case 0:
		yesBtn = styles.HighlightStyle.Render(yesBtn)
	case 1:
		reviewBtn = styles.HighlightStyle.Render(reviewBtn)
	case 2:
		cancelBtn = styles.HighlightStyle.Render(cancelBtn)
	}

	b.WriteString(fmt.Sprintf("%s  %s  %s", yesBtn, reviewBtn, cancelBtn))
	b.WriteString("\n\n")

	helpText := "y:confirm  e:edit  n:cancel  ←/→:navigate"
	if m.width < 60 {
		helpText = "y:yes  e:edit  n:no  ←/→"
	}
	b.WriteString(styles.HelpStyle.Render(helpText))

	return b.String()
}

func (m *ConfirmViewModel) riskDisplay() (string, func(...string) string, string) {
	switch m.riskLevel {
	case RiskHigh:
		return "HIGH (includes items not marked safe to delete)", styles.ErrorStyle.Render, "🔴"
	case RiskMedium:
		return "MEDIUM (some items cannot be restored)", styles.WarningStyle.Render, "⚠️"
	default:
		return "LOW (everything can be restored)", styles.SuccessStyle.Render, "✓"
	}
}
