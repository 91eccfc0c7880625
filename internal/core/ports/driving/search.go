package driving

import (
	"context"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

// SearchService provides ranked search capabilities to external actors.
type SearchService interface {
	// Search runs the requested search type and returns fused, ranked results.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
}
