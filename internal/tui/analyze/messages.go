package analyze

import "github.com/elsanchez/author-tools/internal/domain"

// Message types for async operations

type usernamesLoadedMsg struct {
	total int
	pages int
	err   error
}

type progressMsg struct {
	completed int
	cacheHits int
}

type pageDoneMsg struct {
	page    int
	records []domain.AccountRecord
}

type analysisDoneMsg struct{}

type exportDoneMsg struct {
	path string
	err  error
}
