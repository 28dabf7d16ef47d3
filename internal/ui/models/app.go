package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/devsweep/internal/cleaner"
	"github.com/fenilsonani/devsweep/internal/progress"
	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/internal/ui/styles"
)

// Engine is what the TUI drives
type Engine interface {
	Scan(useCache bool) ([]types.CheckResult, error)
	Clean(items []types.CleanupItem, useQuarantine bool) (*cleaner.Summary, error)
	Progress() *progress.Reporter
}

// Options control a TUI session
type Options struct {
	UseCache      bool
	UseQuarantine bool
}

// ViewState represents the current view in the app
type ViewState int

const (
	ViewScanning ViewState = iota
	ViewCategorySelection
	ViewItemBrowser
	ViewConfirmation
	ViewCleaning
	ViewSummary
	ViewHelp
)

// AppModel is the root model for the interactive TUI
type AppModel struct {
	state         ViewState
	previousState ViewState // For back navigation

	engine  Engine
	opts    Options
	results []types.CheckResult

	scanView     *ScanViewModel
	categoryView *CategoryViewModel
	browserView  *BrowserViewModel
	confirmView  *ConfirmViewModel
	cleanupView  *CleanupViewModel
	summaryView  *SummaryViewModel

	width  int
	height int
	err    error
}

// NewAppModel creates a new app model
func NewAppModel(engine Engine, opts Options) *AppModel {
	return &AppModel{
		state:  ViewScanning,
		engine: engine,
		opts:   opts,
	}
}

// Init initializes the model
func (m *AppModel) Init() tea.Cmd {
	m.scanView = NewScanViewModel(m.engine, m.opts.UseCache)
	return m.scanView.Init()
}

// Err returns the error that stopped the session, if any
func (m *AppModel) Err() error {
	return m.err
}

// State returns the current view
func (m *AppModel) State() ViewState {
	return m.state
}

// Update handles messages
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == ViewHelp {
			m.state = m.previousState
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			// a running cleanup is allowed to finish so its history record is written
			if m.state != ViewCleaning {
				return m, tea.Quit
			}
		case "?":
			m.previousState = m.state
			m.state = ViewHelp
			return m, nil
		case "esc":
			switch m.state {
			case ViewItemBrowser:
				m.state = ViewCategorySelection
				return m, nil
			case ViewConfirmation:
				m.state = ViewItemBrowser
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ScanCompleteMsg:
		if m.scanView != nil {
			m.scanView, _ = m.scanView.Update(msg)
		}
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.results = msg.Results
		m.categoryView = NewCategoryViewModel(m.results, m.width, m.height)
		m.state = ViewCategorySelection
		return m, nil

	case CategoriesSelectedMsg:
		m.browserView = NewBrowserViewModel(m.results, msg.SelectedCategories, m.width, m.height)
		m.state = ViewItemBrowser
		return m, nil

	case ItemsSelectedMsg:
		m.confirmView = NewConfirmViewModel(msg.Items, m.opts.UseQuarantine, m.width, m.height)
		m.state = ViewConfirmation
		return m, nil

	case ConfirmedMsg:
		m.cleanupView = NewCleanupViewModel(m.engine, m.confirmView.items, m.opts.UseQuarantine)
		m.state = ViewCleaning
		return m, m.cleanupView.Init()

	case ReviewSelectionMsg:
		m.state = ViewItemBrowser
		return m, nil

	case CleanupCompleteMsg:
		if m.cleanupView != nil {
			m.cleanupView, _ = m.cleanupView.Update(msg)
		}
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.summaryView = NewSummaryViewModel(msg.Summary, m.opts.UseQuarantine)
		m.state = ViewSummary
		return m, nil
	}

	return m.delegateUpdate(msg)
}

// delegateUpdate delegates the update to the current view
func (m *AppModel) delegateUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			m.scanView, cmd = m.scanView.Update(msg)
		}
	case ViewCategorySelection:
		if m.categoryView != nil {
			m.categoryView, cmd = m.categoryView.Update(msg)
		}
	case ViewItemBrowser:
		if m.browserView != nil {
			m.browserView, cmd = m.browserView.Update(msg)
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			m.confirmView, cmd = m.confirmView.Update(msg)
		}
	case ViewCleaning:
		if m.cleanupView != nil {
			m.cleanupView, cmd = m.cleanupView.Update(msg)
		}
	case ViewSummary:
		if m.summaryView != nil {
			m.summaryView, cmd = m.summaryView.Update(msg)
		}
	}

	return m, cmd
}

// View renders the current view
func (m *AppModel) View() string {
	if m.err != nil {
		return styles.ErrorStyle.Render("Error: "+m.err.Error()) + "\n\nPress q to quit."
	}

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			return m.scanView.View()
		}
	case ViewCategorySelection:
		if m.categoryView != nil {
			return m.categoryView.View()
		}
	case ViewItemBrowser:
		if m.browserView != nil {
			return m.browserView.View()
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			return m.confirmView.View()
		}
	case ViewCleaning:
		if m.cleanupView != nil {
			return m.cleanupView.View()
		}
	case ViewSummary:
		if m.summaryView != nil {
			return m.summaryView.View()
		}
	case ViewHelp:
		return m.renderHelp()
	}

	return "Loading..."
}

// renderHelp renders the help view for the view it was opened from
func (m *AppModel) renderHelp() string {
	var b strings.Builder

	viewName, helpContent := "General", helpGeneral
	switch m.previousState {
	case ViewScanning:
		viewName, helpContent = "Scan View", helpScan
	case ViewCategorySelection:
		viewName, helpContent = "Category Selection", helpCategory
	case ViewItemBrowser:
		viewName, helpContent = "Item Browser", helpBrowser
	case ViewConfirmation:
		viewName, helpContent = "Confirmation", helpConfirm
	case ViewCleaning:
		viewName, helpContent = "Cleanup", helpCleanup
	case ViewSummary:
		viewName, helpContent = "Summary", helpSummary
	}

	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("Help - %s", viewName)))
	b.WriteString("\n\n")
	b.WriteString(helpContent)
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Press any key to close"))

	return b.String()
}

const helpScan = `Scanning developer caches, build artifacts and logs.
Categories whose cached result is still valid are not rescanned.

Actions:
  ctrl+c  - Cancel and exit
  q       - Cancel and exit`

const helpCategory = `Select which categories to clean.

Navigation:
  ↑/k     - Move up
  ↓/j     - Move down
  g / G   - Top / bottom

Selection:
  space   - Toggle category
  x       - Toggle and move down
  ctrl+a  - Select all
  ctrl+d  - Deselect all
  i       - Category details

Actions:
  enter   - Choose items
  q       - Quit`

const helpBrowser = `Choose the individual items to clean.

Navigation               Selection
  ↑/k     Move up          space    Toggle item
  ↓/j     Move down        ctrl+a   Select all
  g / G   Top / bottom     ctrl+d   Deselect all
  i       Item details

Actions
  enter   Continue
  esc     Back`

const helpConfirm = `Review what will be cleaned.

  ←/→/h/l - Switch between buttons
  y       - Yes, proceed
  e       - Edit selection
  n       - Cancel and exit
  esc     - Go back

Quarantined items can be restored with "devsweep undo".`

const helpCleanup = `Cleaning the selected items.
The summary appears when every item has been processed.`

const helpSummary = `Cleanup complete.

  enter / q - Exit`

const helpGeneral = `devsweep - Interactive Mode

  1. Scan        - Find reclaimable space
  2. Categories  - Choose what to clean
  3. Items       - Fine-tune the selection
  4. Confirm     - Review your choices
  5. Clean       - Quarantine or delete
  6. Summary     - See what was freed

Press ? at any time for help on the current view.`

// ScanCompleteMsg carries the results of a scan
type ScanCompleteMsg struct {
	Results []types.CheckResult
	Err     error
}

// CategoriesSelectedMsg is sent when the category selection is confirmed
type CategoriesSelectedMsg struct {
	SelectedCategories []string
}

// ItemsSelectedMsg is sent when the item selection is confirmed
type ItemsSelectedMsg struct {
	Items []types.CleanupItem
}

type ConfirmedMsg struct{}

type ReviewSelectionMsg struct{}

// CleanupCompleteMsg carries the outcome of a cleanup batch
type CleanupCompleteMsg struct {
	Summary *cleaner.Summary
	Err     error
}
