package driving

import (
	"context"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

// ChapterService is the document store: chapter CRUD, listing,
// keyword search, statistics and document metadata.
type ChapterService interface {
	// UpsertChapter validates and stores a chapter, replacing any chapter
	// with the same ChapterID, and regenerates its search record.
	UpsertChapter(ctx context.Context, input domain.ChapterInput) error

	// UpsertChapters stores every valid input and persists once.
	// Invalid inputs are reported in the result, not returned as an error.
	UpsertChapters(ctx context.Context, inputs []domain.ChapterInput) (*domain.BulkResult, error)

	// GetChapter retrieves a chapter by ChapterID.
	// Returns domain.ErrNotFound if absent.
	GetChapter(ctx context.Context, chapterID int) (*domain.Chapter, error)

	// DeleteChapter removes a chapter and its search record.
	// Returns whether a chapter existed.
	DeleteChapter(ctx context.Context, chapterID int) (bool, error)

	// ListChapters returns one page of chapters sorted by ChapterID,
	// optionally filtered by a case-insensitive substring.
	ListChapters(ctx context.Context, page, limit int, search string) (*domain.ChapterPage, error)

	// SearchChapters performs substring search with relevance scoring.
	SearchChapters(ctx context.Context, query string, limit int) ([]domain.ScoredChapter, error)

	// AllChapters returns every chapter sorted by ChapterID.
	AllChapters(ctx context.Context) ([]domain.Chapter, error)

	// Statistics aggregates counts over all chapters.
	Statistics(ctx context.Context) (*domain.Statistics, error)

	// SetMetadata upserts a metadata value.
	SetMetadata(ctx context.Context, key, value string) error

	// GetMetadata reads a metadata value.
	// Returns domain.ErrNotFound if absent.
	GetMetadata(ctx context.Context, key string) (string, error)

	// DocumentInfo summarises the imported document from metadata.
	DocumentInfo(ctx context.Context) (*domain.DocumentInfo, error)
}
