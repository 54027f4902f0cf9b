package analyze

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/author-tools/internal/fetcher"
	"github.com/elsanchez/author-tools/internal/ingest"
	"github.com/elsanchez/author-tools/internal/pager"
)

// Async commands that return tea.Msg

// waitForEvent reads the next message produced by the analysis goroutine
func waitForEvent(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// startAnalysis kicks off the whole pipeline in a background goroutine and
// streams its progress through the events channel. The goroutine owns the
// channel: it closes nothing and the model keeps draining until
// analysisDoneMsg arrives.
func startAnalysis(f *fetcher.BatchFetcher, inputPath, skipListPath string, skipBots bool, pageSize int, events chan tea.Msg) tea.Cmd {
	go func() {
		usernames, err := ingest.ReadUsernameList(inputPath)
		if err != nil {
			events <- usernamesLoadedMsg{err: err}
			return
		}

		skipSet, err := ingest.LoadSkipList(skipListPath)
		if err != nil {
			events <- usernamesLoadedMsg{err: err}
			return
		}

		suffix := ""
		if skipBots {
			suffix = pager.BotSuffix
		}
		usernames = pager.Filter(usernames, skipSet, suffix)
		if len(usernames) == 0 {
			events <- usernamesLoadedMsg{err: fmt.Errorf("no usernames left after filtering")}
			return
		}

		pages := pager.Pages(usernames, pageSize)
		events <- usernamesLoadedMsg{total: len(usernames), pages: len(pages)}

		ctx := context.Background()
		base := 0
		hitsBase := 0
		for i, page := range pages {
			pageBase := base
			pageHits := hitsBase
			result := f.FetchBatch(ctx, page, func(completed, hits int) {
				events <- progressMsg{completed: pageBase + completed, cacheHits: pageHits + hits}
			})
			base += len(page)
			hitsBase += result.CacheHits
			events <- pageDoneMsg{page: i + 1, records: result.Records}
		}

		events <- analysisDoneMsg{}
	}()

	return waitForEvent(events)
}

// exportPage writes the usernames of one results page next to the input file
func exportPage(m Model) tea.Cmd {
	return func() tea.Msg {
		records := m.currentPage()
		if len(records) == 0 {
			return exportDoneMsg{err: fmt.Errorf("nothing to export")}
		}

		lines := make([]string, 0, len(records))
		for _, r := range records {
			lines = append(lines, r.Username)
		}

		base := strings.TrimSuffix(m.inputPath, filepath.Ext(m.inputPath))
		outPath := fmt.Sprintf("%s_page%d.txt", base, m.pageIndex+1)
		if err := ingest.WriteLines(outPath, lines); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: outPath}
	}
}
