package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/internal/ui/styles"
	uiutils "github.com/fenilsonani/devsweep/internal/ui/utils"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

var (
	panelTitleStyle = lipgloss.NewStyle().
			Foreground(styles.Primary).
			Bold(true).
			Underline(true)

	panelLabelStyle = lipgloss.NewStyle().
			Foreground(styles.Secondary).
			Bold(true)

	panelFooterStyle = lipgloss.NewStyle().
				Foreground(styles.TextDim).
				Italic(true)
)

// InfoRow is one labelled line of an info panel
type InfoRow struct {
	Icon  string
	Label string
	Value string
}

// InfoPanel shows details about the row under the cursor
type InfoPanel struct {
	Title string
	Rows  []InfoRow
	width int
}

func (p *InfoPanel) add(icon, label, value string) {
	p.Rows = append(p.Rows, InfoRow{Icon: icon, Label: label, Value: value})
}

// Render draws the bordered panel, half the terminal wide within [40, 80]
func (p *InfoPanel) Render() string {
	panelWidth := min(max(p.width/2, 40), 80)

	lines := make([]string, 0, len(p.Rows)+4)
	lines = append(lines, panelTitleStyle.Render(p.Title), "")
	for _, row := range p.Rows {
		prefix := ""
		if row.Icon != "" {
			prefix = row.Icon + " "
		}
		lines = append(lines, prefix+panelLabelStyle.Render(row.Label)+": "+row.Value)
	}
	lines = append(lines, "", panelFooterStyle.Render("Press any key to close"))

	return lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(styles.FocusBorder).
		Padding(1, 2).
		Width(panelWidth).
		Render(strings.Join(lines, "\n"))
}

// Overlay centres the panel in a width x height screen
func (p *InfoPanel) Overlay(width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, p.Render())
}

// CategoryInfoPanel describes a scanned category
func CategoryInfoPanel(result types.CheckResult, safetyLevel string, width int) *InfoPanel {
	p := &InfoPanel{Title: "Category Information", width: width}
	p.add(styles.GetCategoryIcon(result.Name), "Category", result.Name)
	p.add("📊", "Items", utils.FormatCount(len(result.Items)))
	p.add("💾", "Total Size", utils.FormatBytes(result.TotalSize))
	p.add("🛡️", "Safety Level", styles.GetSafetyIcon(safetyLevel))

	commands := 0
	for _, item := range result.Items {
		if item.HasCommand() {
			commands++
		}
	}
	if commands > 0 {
		p.add("⚙️", "Commands", fmt.Sprintf("%d items are cleaned by running a command", commands))
	}
	return p
}

// ItemInfoPanel describes one cleanup item
func ItemInfoPanel(item types.CleanupItem, category string, width int) *InfoPanel {
	p := &InfoPanel{Title: "Item Information", width: width}
	p.add("📄", "Kind", item.Kind)
	p.add(styles.GetCategoryIcon(category), "Category", category)
	if item.HasPath() {
		p.add("📁", "Path", uiutils.TruncatePath(item.Path, 60))
	}
	if item.HasCommand() {
		p.add("⚙️", "Command", item.CleanupCommand)
	}
	p.add("💾", "Size", utils.FormatBytes(item.SizeBytes))
	if item.Warning != "" {
		p.add("⚠️", "Warning", item.Warning)
	}
	return p
}
