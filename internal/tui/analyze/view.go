package analyze

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/elsanchez/author-tools/internal/domain"
)

// Styles with adaptive colors for light/dark backgrounds
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"}).
			MarginLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "250"})

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "9"}).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "34", Dark: "10"}).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"})

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "63", Dark: "63"}).
			Padding(1, 2)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "244"})
)

// View renders the current view
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var content string

	switch m.currentView {
	case viewSetup:
		content = m.viewSetup()
	case viewRunning:
		content = m.viewRunning()
	case viewResults:
		content = m.viewResults()
	case viewHelp:
		content = m.viewHelp()
	default:
		content = m.viewSetup()
	}

	// Add status/error messages
	if m.errorMessage != "" {
		content += "\n" + errorStyle.Render("Error: "+m.errorMessage)
	} else if m.statusMessage != "" {
		content += "\n" + successStyle.Render(m.statusMessage)
	}

	return content
}

// viewSetup renders the input form
func (m Model) viewSetup() string {
	title := titleStyle.Render("🔎 Account Analysis")

	var content strings.Builder
	content.WriteString(title + "\n\n")

	form := "Username list:\n" + m.pathInput.View() + "\n\n"

	botsLine := "Skip bot-suffixed usernames: "
	if m.skipBots {
		botsLine += successStyle.Render("yes")
	} else {
		botsLine += errorStyle.Render("no")
	}
	form += botsLine + "\n"
	form += dimStyle.Render(fmt.Sprintf("Page size: %d", m.pageSize))

	content.WriteString(boxStyle.Render(form))
	content.WriteString("\n\n")
	content.WriteString(helpStyle.Render("  enter: start • ctrl+b: toggle bots • ctrl+h: help • esc: quit"))

	return content.String()
}

// viewRunning renders the in-flight progress screen
func (m Model) viewRunning() string {
	title := titleStyle.Render("🔎 Resolving accounts...")

	var content strings.Builder
	content.WriteString(title + "\n\n")

	if m.totalUsers == 0 {
		content.WriteString("  " + m.spinner.View() + " Reading usernames from " + m.inputPath + "\n")
		return content.String()
	}

	percent := float64(m.completed) / float64(m.totalUsers)
	content.WriteString("  " + m.progressBar.ViewAs(percent) + "\n\n")
	content.WriteString(fmt.Sprintf("  %s %d / %d users", m.spinner.View(), m.completed, m.totalUsers))
	content.WriteString(dimStyle.Render(fmt.Sprintf("  (%d from cache)", m.cacheHits)))
	content.WriteString("\n")
	content.WriteString(dimStyle.Render(fmt.Sprintf("  Pages ready: %d/%d", len(m.pages), m.totalPages)))

	return content.String()
}

// viewResults renders one page of results with its year distribution
func (m Model) viewResults() string {
	title := titleStyle.Render(fmt.Sprintf("📋 Results — page %d/%d", m.pageIndex+1, len(m.pages)))

	records := m.currentPage()

	var content strings.Builder
	content.WriteString(title + "\n\n")
	content.WriteString(fmt.Sprintf("  %d users analyzed, %d cache hits\n\n", m.totalUsers, m.cacheHits))

	content.WriteString(m.renderYearDistribution(records))
	content.WriteString("\n")

	// Cap the listing to the visible height
	maxRows := m.height - 18
	if maxRows < 5 {
		maxRows = 5
	}

	shown := records
	truncated := 0
	if len(shown) > maxRows {
		truncated = len(shown) - maxRows
		shown = shown[:maxRows]
	}

	for _, r := range shown {
		year := "????"
		if y := r.CreationYear(); y > 0 {
			year = fmt.Sprintf("%d", y)
		}

		statusIcon := "✓"
		switch r.Status {
		case domain.StatusSuspended:
			statusIcon = "⚠"
		case domain.StatusDeleted:
			statusIcon = "✗"
		}

		line := fmt.Sprintf("  %s %s  %-24s %s", statusIcon, year, r.Username, r.Status)
		if r.Source == domain.SourceEstimated {
			line += dimStyle.Render(" ~")
		}
		content.WriteString(line + "\n")
	}

	if truncated > 0 {
		content.WriteString(dimStyle.Render(fmt.Sprintf("  ... and %d more\n", truncated)))
	}

	content.WriteString("\n")
	content.WriteString(helpStyle.Render("  ←/→: pages • e: export page • n: new analysis • ctrl+h: help • q: quit"))

	return content.String()
}

// renderYearDistribution shows how many accounts on this page were created
// per year, oldest first
func (m Model) renderYearDistribution(records []domain.AccountRecord) string {
	counts := make(map[int]int)
	unknown := 0
	for _, r := range records {
		if y := r.CreationYear(); y > 0 {
			counts[y]++
		} else {
			unknown++
		}
	}

	years := make([]int, 0, len(counts))
	for y := range counts {
		years = append(years, y)
	}
	sort.Ints(years)

	max := 0
	for _, y := range years {
		if counts[y] > max {
			max = counts[y]
		}
	}

	var b strings.Builder
	for _, y := range years {
		width := counts[y] * 30 / max
		if width == 0 {
			width = 1
		}
		b.WriteString(fmt.Sprintf("  %d  %4d  %s\n", y, counts[y], strings.Repeat("█", width)))
	}
	if unknown > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ????  %4d\n", unknown)))
	}

	return b.String()
}

// viewHelp renders the help screen
func (m Model) viewHelp() string {
	title := titleStyle.Render("Help")

	help := `Setup:
  enter      Start the analysis
  ctrl+b     Toggle skipping of bot-suffixed usernames
  esc        Quit

Results:
  ←/→ h/l    Navigate pages
  e          Export usernames of the current page to a text file
  n          Start a new analysis
  q          Quit

Accounts marked ~ have an estimated creation date taken from their
earliest visible post or comment instead of their profile.`

	return title + "\n\n" + boxStyle.Render(help) + "\n\n" + helpStyle.Render("  press any key to go back")
}
