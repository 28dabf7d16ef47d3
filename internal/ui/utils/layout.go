// Package utils holds layout helpers shared by the TUI views.
package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/devsweep/internal/ui/styles"
)

const (
	MinTerminalWidth  = 80
	MinTerminalHeight = 24

	// rows used by titles, status bar and help around a list
	reservedLines = 10
	minPageSize   = 5
	ellipsis      = "..."
)

// TruncatePath shortens path to maxWidth by dropping leading directories,
// keeping as many trailing elements as fit: "/home/u/a/b/c" -> ".../b/c".
func TruncatePath(path string, maxWidth int) string {
	if len(path) <= maxWidth {
		return path
	}
	if maxWidth < 10 {
		return ellipsis
	}

	sep := string(filepath.Separator)
	parts := strings.Split(filepath.Clean(path), sep)
	budget := maxWidth - len(ellipsis)

	kept := 0
	width := 0
	for i := len(parts) - 1; i > 0; i-- {
		w := len(sep) + len(parts[i])
		if width+w > budget {
			break
		}
		width += w
		kept++
	}

	if kept == 0 {
		last := parts[len(parts)-1]
		return ellipsis + last[len(last)-budget:]
	}
	return ellipsis + sep + strings.Join(parts[len(parts)-kept:], sep)
}

// CalculatePageSize returns how many list rows fit in a terminal of the
// given height
func CalculatePageSize(terminalHeight int) int {
	return max(terminalHeight-reservedLines, minPageSize)
}

// IsTerminalTooSmall checks if the terminal is below minimum recommended size
func IsTerminalTooSmall(width, height int) bool {
	return width < MinTerminalWidth || height < MinTerminalHeight
}

// GetSizeWarningBanner returns a warning banner if terminal is too small
func GetSizeWarningBanner(width, height int) string {
	if !IsTerminalTooSmall(width, height) {
		return ""
	}

	warning := styles.WarningStyle.Render(fmt.Sprintf("⚠️  Terminal too small! Recommended: %dx%d or larger",
		MinTerminalWidth, MinTerminalHeight))
	if width > 0 && height > 0 {
		warning += styles.DimStyle.Render(fmt.Sprintf(" (current: %dx%d)", width, height))
	}
	return warning + "\n\n"
}

// TruncateString cuts s to maxLen runes, ending in "..." when shortened
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen < len(ellipsis) {
		return ellipsis
	}
	return string(r[:maxLen-len(ellipsis)]) + ellipsis
}
