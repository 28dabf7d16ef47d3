package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	Primary   = lipgloss.Color("#7C3AED")
	Secondary = lipgloss.Color("#A78BFA")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Danger    = lipgloss.Color("#EF4444")
	Info      = lipgloss.Color("#3B82F6")
	Muted     = lipgloss.Color("#6B7280")
	Text      = lipgloss.Color("#F3F4F6")
	TextDim   = lipgloss.Color("#9CA3AF")
	Border    = lipgloss.Color("#4B5563")
	BgDark    = lipgloss.Color("#1F2937")
	BgLight   = lipgloss.Color("#374151")

	FocusBorder = lipgloss.Color("#8B5CF6")
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			MarginBottom(1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(1, 2)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	CheckboxStyle = lipgloss.NewStyle().
			Foreground(Success)

	CheckboxUncheckedStyle = lipgloss.NewStyle().
				Foreground(Muted)

	FilePathStyle = lipgloss.NewStyle().
			Foreground(Info)

	FileSizeStyle = lipgloss.NewStyle().
			Foreground(Warning)

	CategoryStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(BgDark).
			Padding(0, 1)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(Primary).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(TextDim)

	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Info).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	RecommendedBadgeStyle = lipgloss.NewStyle().
				Foreground(BgDark).
				Background(Success).
				Padding(0, 1).
				Bold(true)

	CommandStyle = lipgloss.NewStyle().
			Foreground(Secondary)
)

// Helper functions
func CheckedBox() string {
	return CheckboxStyle.Render("☑")
}

func UncheckedBox() string {
	return CheckboxUncheckedStyle.Render("☐")
}

// categoryIcons is keyed by detector category name
var categoryIcons = map[string]string{
	"Docker":              "🐳",
	"Homebrew":            "🍺",
	"Node.js/npm/yarn":    "📦",
	"Python":              "🐍",
	"Rust/Cargo":          "🦀",
	"Go":                  "🐹",
	"Java (Gradle/Maven)": "☕",
	"IDE Caches":          "🧰",
	"System Logs":         "📜",
	"Browser Caches":      "🌐",
	"General Caches":      "💾",
	"Trash":               "🗑️",
	"Custom Paths":        "📁",
}

// GetCategoryIcon returns the icon shown next to a category
func GetCategoryIcon(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return "•"
}

// GetCategoryColor returns the color a category name is rendered in
func GetCategoryColor(category string) lipgloss.Color {
	switch category {
	case "Docker", "Trash", "Custom Paths":
		return Warning
	case "System Logs":
		return Info
	default:
		return Secondary
	}
}

// GetSafetyIcon returns the icon for a safety label (SAFE, CAUTION, RISKY)
func GetSafetyIcon(level string) string {
	switch level {
	case "SAFE":
		return "✓ SAFE"
	case "CAUTION":
		return "⚠ CAUTION"
	default:
		return "✗ RISKY"
	}
}

// GetSafetyColor returns the color for a safety label
func GetSafetyColor(level string) lipgloss.Color {
	switch level {
	case "SAFE":
		return Success
	case "CAUTION":
		return Warning
	default:
		return Danger
	}
}

// GetFileSizeColor grades sizes: 1 GB and up is red, 100 MB and up amber
func GetFileSizeColor(size uint64) lipgloss.Color {
	switch {
	case size >= 1<<30:
		return Danger
	case size >= 100<<20:
		return Warning
	default:
		return Info
	}
}

func ProgressBar(current, total int, width int) string {
	if total == 0 {
		return ""
	}

	percent := float64(current) / float64(total)
	filled := int(percent * float64(width))

	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	style := lipgloss.NewStyle().Foreground(Primary)
	return style.Render(bar)
}
