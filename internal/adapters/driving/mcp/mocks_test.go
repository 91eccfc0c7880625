package mcp

import (
	"context"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	resp      *domain.SearchResponse
	err       error
	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.resp == nil {
		return &domain.SearchResponse{Query: query, Type: opts.Type, Results: []domain.RankedResult{}}, nil
	}
	return m.resp, nil
}

// mockChapterService is a mock implementation of driving.ChapterService.
type mockChapterService struct {
	chapters map[int]*domain.Chapter
	page     *domain.ChapterPage
	stats    *domain.Statistics
	info     *domain.DocumentInfo
	err      error
}

func (m *mockChapterService) UpsertChapter(_ context.Context, _ domain.ChapterInput) error {
	return m.err
}

func (m *mockChapterService) UpsertChapters(
	_ context.Context, inputs []domain.ChapterInput,
) (*domain.BulkResult, error) {
	return &domain.BulkResult{Total: len(inputs), SuccessCount: len(inputs)}, m.err
}

func (m *mockChapterService) GetChapter(_ context.Context, chapterID int) (*domain.Chapter, error) {
	if m.err != nil {
		return nil, m.err
	}
	ch, ok := m.chapters[chapterID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ch, nil
}

func (m *mockChapterService) DeleteChapter(_ context.Context, _ int) (bool, error) {
	return false, m.err
}

func (m *mockChapterService) ListChapters(_ context.Context, _, _ int, _ string) (*domain.ChapterPage, error) {
	return m.page, m.err
}

func (m *mockChapterService) SearchChapters(_ context.Context, _ string, _ int) ([]domain.ScoredChapter, error) {
	return nil, m.err
}

func (m *mockChapterService) AllChapters(_ context.Context) ([]domain.Chapter, error) {
	return nil, m.err
}

func (m *mockChapterService) Statistics(_ context.Context) (*domain.Statistics, error) {
	return m.stats, m.err
}

func (m *mockChapterService) SetMetadata(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockChapterService) GetMetadata(_ context.Context, _ string) (string, error) {
	return "", m.err
}

func (m *mockChapterService) DocumentInfo(_ context.Context) (*domain.DocumentInfo, error) {
	return m.info, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	stats domain.VectorStats
}

func (m *mockIndexService) Rebuild(_ context.Context) (*domain.BuildReport, error) {
	return &domain.BuildReport{}, nil
}

func (m *mockIndexService) UpsertAndIndex(_ context.Context, _ domain.ChapterInput) error {
	return nil
}

func (m *mockIndexService) UpsertChaptersAndIndex(
	_ context.Context, inputs []domain.ChapterInput,
) (*domain.BulkResult, error) {
	return &domain.BulkResult{Total: len(inputs), SuccessCount: len(inputs)}, nil
}

func (m *mockIndexService) DeleteAndUnindex(_ context.Context, _ int) (bool, error) {
	return false, nil
}

func (m *mockIndexService) GetVector(_ context.Context, _ int) (*domain.EmbeddingRecord, error) {
	return nil, domain.ErrNotFound
}

func (m *mockIndexService) ExpandVocabulary(_ context.Context, words []string) (int, error) {
	return len(words), nil
}

func (m *mockIndexService) Stats(_ context.Context) domain.VectorStats {
	return m.stats
}

func newTestPorts() *Ports {
	return &Ports{
		Search:   &mockSearchService{},
		Chapters: &mockChapterService{},
	}
}
