package analyze

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/author-tools/internal/domain"
	"github.com/elsanchez/author-tools/internal/fetcher"
	"github.com/elsanchez/author-tools/internal/pager"
)

// view represents different screens in the TUI
type view int

const (
	viewSetup view = iota
	viewRunning
	viewResults
	viewHelp
)

// Model is the Bubbletea model for the interactive analysis session
type Model struct {
	// Navigation
	currentView view
	width       int
	height      int
	quitting    bool

	// Dependencies
	fetcher      *fetcher.BatchFetcher
	skipListPath string

	// Options
	skipBots bool
	pageSize int

	// Analysis state
	inputPath  string
	totalUsers int
	totalPages int
	completed  int
	cacheHits  int
	pages      [][]domain.AccountRecord
	pageIndex  int
	events     chan tea.Msg

	// Components
	pathInput   textinput.Model
	spinner     spinner.Model
	progressBar progress.Model

	// UI state
	statusMessage string
	errorMessage  string
}

// NewModel creates a new analysis TUI model
func NewModel(batchFetcher *fetcher.BatchFetcher, skipListPath string) Model {
	pathInput := textinput.New()
	pathInput.Placeholder = "Path to username list (one per line)"
	pathInput.Focus()
	pathInput.CharLimit = 256
	pathInput.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		currentView:  viewSetup,
		fetcher:      batchFetcher,
		skipListPath: skipListPath,
		skipBots:     true,
		pageSize:     pager.DefaultPageSize,
		pathInput:    pathInput,
		spinner:      s,
		progressBar:  progress.New(progress.WithDefaultGradient()),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// currentPage returns the records of the page under the cursor
func (m Model) currentPage() []domain.AccountRecord {
	if m.pageIndex < 0 || m.pageIndex >= len(m.pages) {
		return nil
	}
	return m.pages[m.pageIndex]
}
