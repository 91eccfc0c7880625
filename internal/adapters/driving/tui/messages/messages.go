// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

// SearchRequested is a command to perform a search.
type SearchRequested struct {
	Query   string
	Options domain.SearchOptions
}

// SearchCompleted carries the search response back to the model.
type SearchCompleted struct {
	Response *domain.SearchResponse
	Err      error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewHelp is the help/keybindings view.
	ViewHelp
	// ViewChapters is the paginated chapter list.
	ViewChapters
	// ViewChapter shows the content of one chapter.
	ViewChapter
	// ViewStats shows store and vector index statistics.
	ViewStats
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewHelp:
		return "help"
	case ViewChapters:
		return "chapters"
	case ViewChapter:
		return "chapter"
	case ViewStats:
		return "stats"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// ChaptersLoaded carries one page of the chapter list.
type ChaptersLoaded struct {
	Page *domain.ChapterPage
	Err  error
}

// ChapterSelected asks for a chapter to be opened. Back is the view to
// return to when the chapter view is closed.
type ChapterSelected struct {
	ChapterID int
	Back      ViewType
}

// ChapterLoaded carries a chapter fetched from the store.
type ChapterLoaded struct {
	Chapter *domain.Chapter
	Err     error
}

// StatsLoaded carries store statistics, document info and vector index state.
type StatsLoaded struct {
	Statistics *domain.Statistics
	Document   *domain.DocumentInfo
	Vectors    *domain.VectorStats
	Err        error
}
