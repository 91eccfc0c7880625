package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driven"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driving"
	"github.com/custodia-labs/chapterdex/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService keeps the vector index in step with the document store.
// Plain chapter upserts never re-embed; UpsertAndIndex is the explicit path.
// Rebuilds and indexed writes are serialised so a write landing during a
// rebuild is applied after it instead of being replaced by it.
type IndexService struct {
	writeMu sync.Mutex

	chapters driving.ChapterService
	vectors  *VectorIndex
	embedder driven.EmbeddingService
}

// NewIndexService creates a new index service.
func NewIndexService(
	chapters driving.ChapterService, vectors *VectorIndex, embedder driven.EmbeddingService,
) *IndexService {
	return &IndexService{
		chapters: chapters,
		vectors:  vectors,
		embedder: embedder,
	}
}

// Rebuild embeds every stored chapter and replaces the vector index.
func (s *IndexService) Rebuild(ctx context.Context) (*domain.BuildReport, error) {
	if s.vectors == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	chapters, err := s.chapters.AllChapters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return s.vectors.Build(ctx, chapters)
}

// UpsertAndIndex stores a chapter and re-embeds it. When the vector index is
// not ready the chapter is only stored; the next Rebuild picks it up.
func (s *IndexService) UpsertAndIndex(ctx context.Context, input domain.ChapterInput) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.chapters.UpsertChapter(ctx, input); err != nil {
		return err
	}
	if s.vectors == nil {
		return nil
	}

	err := s.vectors.AddOrUpdate(ctx, input.ChapterID, input.Title, input.Content)
	if errors.Is(err, domain.ErrNotReady) {
		logger.Debug("Vector index not ready, chapter %d will be embedded on next build", input.ChapterID)
		return nil
	}
	return err
}

// UpsertChaptersAndIndex stores every valid input and re-embeds the stored
// ones with a single index write. Rejected inputs are reported in the result.
func (s *IndexService) UpsertChaptersAndIndex(
	ctx context.Context, inputs []domain.ChapterInput,
) (*domain.BulkResult, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.chapters.UpsertChapters(ctx, inputs)
	if err != nil || s.vectors == nil || result.SuccessCount == 0 {
		return result, err
	}

	rejected := make(map[int]bool, len(result.Errors))
	for _, e := range result.Errors {
		rejected[e.Index] = true
	}
	stored := make([]domain.Chapter, 0, result.SuccessCount)
	for i, input := range inputs {
		if !rejected[i] {
			stored = append(stored, domain.Chapter{ChapterID: input.ChapterID, Title: input.Title, Content: input.Content})
		}
	}

	err = s.vectors.AddOrUpdateMany(ctx, stored)
	if errors.Is(err, domain.ErrNotReady) {
		logger.Debug("Vector index not ready, %d chapters will be embedded on next build", len(stored))
		return result, nil
	}
	return result, err
}

// DeleteAndUnindex removes a chapter from the store and the vector index.
func (s *IndexService) DeleteAndUnindex(ctx context.Context, chapterID int) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deleted, err := s.chapters.DeleteChapter(ctx, chapterID)
	if err != nil {
		return deleted, err
	}
	if s.vectors != nil {
		if err := s.vectors.Remove(ctx, chapterID); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// GetVector returns the embedding record for a chapter.
func (s *IndexService) GetVector(ctx context.Context, chapterID int) (*domain.EmbeddingRecord, error) {
	if s.vectors == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	return s.vectors.GetVector(ctx, chapterID)
}

// ExpandVocabulary adds known terms when the embedder supports it.
// Existing embeddings are unchanged until the next Rebuild.
func (s *IndexService) ExpandVocabulary(_ context.Context, words []string) (int, error) {
	expander, ok := s.embedder.(driven.VocabularyExpander)
	if !ok {
		return 0, fmt.Errorf("%w: embedding backend has no vocabulary", domain.ErrUnsupportedType)
	}
	added := expander.ExpandVocabulary(words)
	logger.Info("Added %d new words to the vocabulary", added)
	return added, nil
}

// Stats reports vector index state.
func (s *IndexService) Stats(_ context.Context) domain.VectorStats {
	if s.vectors == nil {
		return domain.VectorStats{}
	}
	return s.vectors.Stats()
}
