// Package tui provides an interactive terminal user interface for chapterdex.
// It is a driving adapter: every action goes through the driving ports.
package tui

import (
	"github.com/custodia-labs/chapterdex/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI calls.
type Ports struct {
	// Search runs ranked searches.
	Search driving.SearchService

	// Chapters lists and reads chapters from the document store.
	Chapters driving.ChapterService

	// Index reports vector index state. Optional.
	Index driving.IndexService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Chapters == nil {
		return ErrMissingChapterService
	}
	return nil
}
