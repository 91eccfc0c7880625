package driving

import (
	"context"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

// IndexService maintains the vector index built from the document store.
type IndexService interface {
	// Rebuild embeds every stored chapter and replaces the vector index.
	Rebuild(ctx context.Context) (*domain.BuildReport, error)

	// UpsertAndIndex stores a chapter and re-embeds it in one step.
	UpsertAndIndex(ctx context.Context, input domain.ChapterInput) error

	// UpsertChaptersAndIndex stores every valid input and re-embeds the stored
	// ones. Rejected inputs are reported in the result, not as an error.
	UpsertChaptersAndIndex(ctx context.Context, inputs []domain.ChapterInput) (*domain.BulkResult, error)

	// DeleteAndUnindex removes a chapter from the store and the vector index.
	DeleteAndUnindex(ctx context.Context, chapterID int) (bool, error)

	// GetVector returns the embedding record for a chapter.
	// Returns domain.ErrNotFound if absent.
	GetVector(ctx context.Context, chapterID int) (*domain.EmbeddingRecord, error)

	// ExpandVocabulary adds known terms to the embedder when supported.
	ExpandVocabulary(ctx context.Context, words []string) (int, error)

	// Stats reports vector index state.
	Stats(ctx context.Context) domain.VectorStats
}
