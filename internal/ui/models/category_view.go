package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/internal/ui/components"
	"github.com/fenilsonani/devsweep/internal/ui/styles"
	uiutils "github.com/fenilsonani/devsweep/internal/ui/utils"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

// SafetyLevel represents the safety level of a category
type SafetyLevel int

const (
	SafetyLow SafetyLevel = iota
	SafetyMedium
	SafetyHigh
)

func (s SafetyLevel) String() string {
	switch s {
	case SafetyHigh:
		return "SAFE"
	case SafetyMedium:
		return "CAUTION"
	case SafetyLow:
		return "RISKY"
	default:
		return "UNKNOWN"
	}
}

// SafetyOf grades a category by its items: any item not safe to delete makes
// it risky, any warning makes it worth a second look
func SafetyOf(result types.CheckResult) SafetyLevel {
	level := SafetyHigh
	for _, item := range result.Items {
		if !item.SafeToDelete {
			return SafetyLow
		}
		if item.Warning != "" {
			level = SafetyMedium
		}
	}
	return level
}

// CategoryItem represents a selectable category
type CategoryItem struct {
	Result      types.CheckResult
	Selected    bool
	SafetyLevel SafetyLevel
}

// CategoryViewModel handles category selection
type CategoryViewModel struct {
	categories []CategoryItem
	cursor     int
	info       *components.InfoPanel
	width      int
	height     int
}

// NewCategoryViewModel lists the non-empty categories in scan order. Safe
// categories start selected.
func NewCategoryViewModel(results []types.CheckResult, width, height int) *CategoryViewModel {
	var categories []CategoryItem
	for _, r := range results {
		if r.IsEmpty() {
			continue
		}
		level := SafetyOf(r)
		categories = append(categories, CategoryItem{
			Result:      r,
			Selected:    level == SafetyHigh,
			SafetyLevel: level,
		})
	}

	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	return &CategoryViewModel{
		categories: categories,
		width:      width,
		height:     height,
	}
}

// Init initializes the category view
func (m *CategoryViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *CategoryViewModel) Update(msg tea.Msg) (*CategoryViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if m.info != nil {
			// any key closes the detail panel
			m.info = nil
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.categories)-1 {
				m.cursor++
			}
		case "g":
			m.cursor = 0
		case "G":
			if len(m.categories) > 0 {
				m.cursor = len(m.categories) - 1
			}
		case "space", " ":
			if m.cursor < len(m.categories) {
				m.categories[m.cursor].Selected = !m.categories[m.cursor].Selected
			}
		case "x":
			if m.cursor < len(m.categories) {
				m.categories[m.cursor].Selected = !m.categories[m.cursor].Selected
				if m.cursor < len(m.categories)-1 {
					m.cursor++
				}
			}
		case "ctrl+a":
			for i := range m.categories {
				m.categories[i].Selected = true
			}
		case "ctrl+d":
			for i := range m.categories {
				m.categories[i].Selected = false
			}
		case "i":
			if m.cursor < len(m.categories) {
				cat := m.categories[m.cursor]
				m.info = components.CategoryInfoPanel(cat.Result, cat.SafetyLevel.String(), m.width)
			}
		case "enter":
			return m, m.proceed()
		}
	}

	return m, nil
}

// View renders the category selection view
func (m *CategoryViewModel) View() string {
	if m.info != nil {
		return m.info.Overlay(m.width, m.height)
	}

	var b strings.Builder

	if warning := uiutils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("📦 Select Categories to Clean"))
	b.WriteString("\n\n")

	if len(m.categories) == 0 {
		b.WriteString(styles.SuccessStyle.Render("✓ Nothing to clean"))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("Press q to quit"))
		return b.String()
	}

	helpText := "↑/↓:navigate  space:toggle  x:toggle+down  ctrl+a:all  ctrl+d:none  i:details  enter:continue"
	if m.width < 80 {
		helpText = "↑/↓:move  space:toggle  enter:continue"
	}
	b.WriteString(styles.HelpStyle.Render(helpText))
	b.WriteString("\n\n")

	for i, cat := range m.categories {
		cursor := "  "
		if i == m.cursor {
			cursor = styles.SelectedStyle.Render("→ ")
		}

		checkbox := styles.UncheckedBox()
		if cat.Selected {
			checkbox = styles.CheckedBox()
		}

		name := cat.Result.Name
		nameStyle := lipgloss.NewStyle().Foreground(styles.GetCategoryColor(name)).Bold(true)
		line := fmt.Sprintf("%s%s %s %s", cursor, checkbox, styles.GetCategoryIcon(name), nameStyle.Render(name))

		safety := cat.SafetyLevel.String()
		safetyStyle := lipgloss.NewStyle().Foreground(styles.GetSafetyColor(safety))
		line += " " + safetyStyle.Render(styles.GetSafetyIcon(safety))

		sizeStyle := lipgloss.NewStyle().Foreground(styles.GetFileSizeColor(cat.Result.TotalSize)).Bold(true)
		line += fmt.Sprintf(" (%s items, %s)",
			styles.DimStyle.Render(utils.FormatCount(len(cat.Result.Items))),
			sizeStyle.Render(utils.FormatBytes(cat.Result.TotalSize)),
		)

		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	selectedCats, selectedItems, selectedSize := m.selection()
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("Selected: %d items, %s",
		selectedItems, utils.FormatBytes(selectedSize))))
	b.WriteString("\n\n")

	statusBar := components.StatusBar{
		View:     "Category Selection",
		Selected: selectedCats,
		Total:    len(m.categories),
		Size:     selectedSize,
		Shortcuts: []components.Shortcut{
			{Key: "↑/↓", Desc: "navigate"},
			{Key: "space", Desc: "toggle"},
			{Key: "enter", Desc: "continue"},
			{Key: "i", Desc: "details"},
			{Key: "?", Desc: "help"},
			{Key: "q", Desc: "quit"},
		},
	}
	b.WriteString(statusBar.Render(m.width))

	return b.String()
}

func (m *CategoryViewModel) selection() (categories, items int, size uint64) {
	for _, cat := range m.categories {
		if cat.Selected {
			categories++
			items += len(cat.Result.Items)
			size += cat.Result.TotalSize
		}
	}
	return categories, items, size
}

// Selected returns the names of the selected categories
func (m *CategoryViewModel) Selected() []string {
	var selected []string
	for _, cat := range m.categories {
		if cat.Selected {
			selected = append(selected, cat.Result.Name)
		}
	}
	return selected
}

func (m *CategoryViewModel) proceed() tea.Cmd {
	selected := m.Selected()
	if len(selected) == 0 {
		return nil
	}
	return func() tea.Msg {
		return CategoriesSelectedMsg{SelectedCategories: selected}
	}
}
