package httpapi

import (
	"github.com/custodia-labs/chapterdex/internal/core/ports/driving"
)

// Ports aggregates the driving ports served over REST.
type Ports struct {
	// Search runs ranked searches.
	Search driving.SearchService

	// Chapters handles chapter CRUD, listing and statistics.
	Chapters driving.ChapterService

	// Index keeps the vector index in step with chapter writes. Optional;
	// without it writes go straight to Chapters and /api/vector-stats
	// answers 503.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Chapters == nil {
		return ErrMissingChapterService
	}
	return nil
}
