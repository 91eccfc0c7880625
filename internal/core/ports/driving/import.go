package driving

import (
	"context"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

// ImportService populates the document store from document-structure files.
type ImportService interface {
	// ImportFiles reads each file in order under one import id.
	ImportFiles(ctx context.Context, paths []string) (*domain.ImportReport, error)
}
