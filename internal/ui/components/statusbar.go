package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/devsweep/internal/ui/styles"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

var statusBarStyle = lipgloss.NewStyle().
	Foreground(styles.Text).
	Background(styles.BgDark).
	Padding(0, 1)

// Shortcut is a key hint shown on the right of the status bar
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line of the selection views: view name and
// selection on the left, key hints on the right
type StatusBar struct {
	View      string
	Selected  int
	Total     int
	Size      uint64
	Shortcuts []Shortcut
}

// Render draws the bar at the given width. Trailing shortcuts are dropped
// until the bar fits.
func (s StatusBar) Render(width int) string {
	if width <= 0 {
		width = 80
	}

	var left []string
	if s.View != "" {
		left = append(left, styles.BoldStyle.Render(s.View))
	}
	if s.Total > 0 {
		left = append(left, fmt.Sprintf("%d/%d selected", s.Selected, s.Total))
	}
	if s.Size > 0 {
		left = append(left, styles.FileSizeStyle.Render(utils.FormatBytes(s.Size)))
	}
	leftSide := strings.Join(left, " • ")

	hints := make([]string, 0, len(s.Shortcuts))
	for _, sc := range s.Shortcuts {
		hints = append(hints, styles.DimStyle.Render(sc.Key)+":"+sc.Desc)
	}

	// 2 columns of padding, at least 1 space between the halves
	room := width - 2 - lipgloss.Width(leftSide) - 1
	rightSide := strings.Join(hints, " ")
	for len(hints) > 0 && lipgloss.Width(rightSide) > room {
		hints = hints[:len(hints)-1]
		rightSide = strings.Join(hints, " ")
	}

	gap := max(width-2-lipgloss.Width(leftSide)-lipgloss.Width(rightSide), 1)
	return statusBarStyle.Width(width).Render(leftSide + strings.Repeat(" ", gap) + rightSide)
}
