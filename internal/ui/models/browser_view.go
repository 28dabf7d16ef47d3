package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/internal/ui/components"
	"github.com/fenilsonani/devsweep/internal/ui/styles"
	uiutils "github.com/fenilsonani/devsweep/internal/ui/utils"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

// browserRow is one item with the category it came from
type browserRow struct {
	category string
	item     types.CleanupItem
}

// BrowserViewModel handles item selection
type BrowserViewModel struct {
	rows     []browserRow
	selected map[int]bool
	cursor   int
	offset   int
	pageSize int
	info     *components.InfoPanel
	width    int
	height   int
}

// NewBrowserViewModel lists the items of the selected categories. Items safe
// to delete start selected.
func NewBrowserViewModel(results []types.CheckResult, categories []string, width, height int) *BrowserViewModel {
	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}

	m := &BrowserViewModel{
		selected: make(map[int]bool),
		width:    width,
		height:   height,
	}
	for _, r := range results {
		if !wanted[r.Name] {
			continue
		}
		for _, item := range r.Items {
			if item.SafeToDelete {
				m.selected[len(m.rows)] = true
			}
			m.rows = append(m.rows, browserRow{category: r.Name, item: item})
		}
	}

	if m.width == 0 {
		m.width = 80
	}
	if m.height == 0 {
		m.height = 24
	}
	m.pageSize = uiutils.CalculatePageSize(m.height)
	return m
}

// Init initializes the browser view
func (m *BrowserViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *BrowserViewModel) Update(msg tea.Msg) (*BrowserViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pageSize = uiutils.CalculatePageSize(m.height)
		m.clampOffset()

	case tea.KeyMsg:
		if m.info != nil {
			m.info = nil
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "g":
			m.cursor = 0
		case "G":
			if len(m.rows) > 0 {
				m.cursor = len(m.rows) - 1
			}
		case "space", " ":
			if m.cursor < len(m.rows) {
				m.selected[m.cursor] = !m.selected[m.cursor]
			}
		case "ctrl+a":
			for i := range m.rows {
				m.selected[i] = true
			}
		case "ctrl+d":
			m.selected = make(map[int]bool)
		case "i":
			if m.cursor < len(m.rows) {
				row := m.rows[m.cursor]
				m.info = components.ItemInfoPanel(row.item, row.category, m.width)
			}
		case "enter":
			return m, m.proceed()
		}
		m.clampOffset()
	}

	return m, nil
}

// clampOffset keeps the cursor on the visible page
func (m *BrowserViewModel) clampOffset() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.pageSize {
		m.offset = m.cursor - m.pageSize + 1
	}
}

// View renders the browser view
func (m *BrowserViewModel) View() string {
	if m.info != nil {
		return m.info.Overlay(m.width, m.height)
	}

	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("📁 Select Items to Clean"))
	b.WriteString("\n\n")

	end := m.offset + m.pageSize
	if end > len(m.rows) {
		end = len(m.rows)
	}

	pathWidth := m.width - 30
	if pathWidth < 20 {
		pathWidth = 20
	}

	for i := m.offset; i < end; i++ {
		row := m.rows[i]

		cursor := "  "
		if i == m.cursor {
			cursor = styles.SelectedStyle.Render("→ ")
		}

		checkbox := styles.UncheckedBox()
		if m.selected[i] {
			checkbox = styles.CheckedBox()
		}

		target := styles.FilePathStyle.Render(uiutils.TruncatePath(row.item.Path, pathWidth))
		if row.item.HasCommand() {
			target = styles.CommandStyle.Render("$ " + uiutils.TruncateString(row.item.CleanupCommand, pathWidth))
		}

		line := fmt.Sprintf("%s%s %s %s %s",
			cursor,
			checkbox,
			styles.BoldStyle.Render(row.item.Kind),
			styles.FileSizeStyle.Render(utils.FormatBytes(row.item.SizeBytes)),
			target,
		)
		if row.item.Warning != "" {
			line += " " + styles.WarningStyle.Render("⚠")
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	items := m.Selected()
	var size uint64
	for _, item := range items {
		size += item.SizeBytes
	}
	statusBar := components.StatusBar{
		View:     "Items",
		Selected: len(items),
		Total:    len(m.rows),
		Size:     size,
		Shortcuts: []components.Shortcut{
			{Key: "↑/↓", Desc: "navigate"},
			{Key: "space", Desc: "toggle"},
			{Key: "enter", Desc: "continue"},
			{Key: "ctrl+a", Desc: "all"},
			{Key: "ctrl+d", Desc: "none"},
			{Key: "i", Desc: "details"},
			{Key: "esc", Desc: "back"},
		},
	}
	b.WriteString(statusBar.Render(m.width))

	return b.String()
}

// Selected returns the selected items in display order
func (m *BrowserViewModel) Selected() []types.CleanupItem {
	var items []types.CleanupItem
	for i, row := range m.rows {
		if m.selected[i] {
			items = append(items, row.item)
		}
	}
	return items
}

func (m *BrowserViewModel) proceed() tea.Cmd {
	items := m.Selected()
	if len(items) == 0 {
		return nil
	}
	return func() tea.Msg {
		return ItemsSelectedMsg{Items: items}
	}
}
