package mcp

import (
	"github.com/custodia-labs/chapterdex/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search runs ranked searches.
	Search driving.SearchService

	// Chapters reads chapters, statistics and document metadata.
	Chapters driving.ChapterService

	// Index reports vector index state. Optional; the vector tools
	// fail with domain.ErrVectorIndexUnavailable without it.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Chapters == nil {
		return ErrMissingChapterService
	}
	return nil
}
