// Package ui holds the interactive terminal interface and the plain
// terminal progress output.
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/devsweep/internal/ui/models"
)

// Options configures an interactive session
type Options = models.Options

// RunInteractive starts the interactive TUI: scan, select, confirm, clean
func RunInteractive(engine models.Engine, opts models.Options) error {
	m := models.NewAppModel(engine, opts)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running interactive mode: %w", err)
	}
	if app, ok := final.(*models.AppModel); ok && app.Err() != nil {
		return app.Err()
	}
	return nil
}
