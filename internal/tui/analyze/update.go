package analyze

import (
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Clear previous messages on keypress
		m.errorMessage = ""
		m.statusMessage = ""

		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = msg.Width - 12
		return m, nil

	case usernamesLoadedMsg:
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			m.currentView = viewSetup
			return m, nil
		}
		m.totalUsers = msg.total
		m.totalPages = msg.pages
		m.statusMessage = ""
		return m, waitForEvent(m.events)

	case progressMsg:
		m.completed = msg.completed
		m.cacheHits = msg.cacheHits
		return m, waitForEvent(m.events)

	case pageDoneMsg:
		m.pages = append(m.pages, msg.records)
		return m, waitForEvent(m.events)

	case analysisDoneMsg:
		m.currentView = viewResults
		m.pageIndex = 0
		m.statusMessage = "✓ Analysis complete"
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			return m, nil
		}
		m.statusMessage = "✓ Exported to " + msg.path
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		bar, cmd := m.progressBar.Update(msg)
		m.progressBar = bar.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update focused input
	if m.currentView == viewSetup {
		m.pathInput, cmd = m.pathInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.currentView {
	case viewSetup:
		return m.handleSetupKeys(msg)
	case viewRunning:
		return m.handleRunningKeys(msg)
	case viewResults:
		return m.handleResultsKeys(msg)
	case viewHelp:
		return m.handleHelpKeys(msg)
	}
	return m, nil
}

// handleSetupKeys handles keys on the setup screen
func (m Model) handleSetupKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c", "esc"))):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+b"))):
		m.skipBots = !m.skipBots
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+h"))):
		m.currentView = viewHelp
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			m.errorMessage = "Input path is required"
			return m, nil
		}
		if _, err := os.Stat(path); err != nil {
			m.errorMessage = "Cannot access " + path
			return m, nil
		}

		m.inputPath = path
		m.totalUsers = 0
		m.totalPages = 0
		m.completed = 0
		m.cacheHits = 0
		m.pages = nil
		m.pageIndex = 0
		m.events = make(chan tea.Msg, 64)
		m.currentView = viewRunning

		return m, tea.Batch(
			startAnalysis(m.fetcher, path, m.skipListPath, m.skipBots, m.pageSize, m.events),
			m.spinner.Tick,
		)
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

// handleRunningKeys handles keys while the analysis is in flight
func (m Model) handleRunningKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// handleResultsKeys handles keys on the results screen
func (m Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, key.NewBinding(key.WithKeys("left", "h"))):
		if m.pageIndex > 0 {
			m.pageIndex--
		}
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("right", "l"))):
		if m.pageIndex < len(m.pages)-1 {
			m.pageIndex++
		}
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("e"))):
		return m, exportPage(m)

	case key.Matches(msg, key.NewBinding(key.WithKeys("n"))):
		// New analysis: back to setup with the input preserved
		m.currentView = viewSetup
		m.pathInput.Focus()
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+h"))):
		m.currentView = viewHelp
		return m, nil
	}
	return m, nil
}

// handleHelpKeys handles keys on the help screen
func (m Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))):
		m.quitting = true
		return m, tea.Quit
	default:
		// Any key goes back
		if len(m.pages) > 0 {
			m.currentView = viewResults
		} else {
			m.currentView = viewSetup
		}
		return m, nil
	}
}
