package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driving"
	"github.com/custodia-labs/chapterdex/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Fusion weights for hybrid search.
const (
	SemanticWeight = 0.7
	KeywordWeight  = 0.3
)

// vectorSearcher is the part of the vector index the ranker depends on.
type vectorSearcher interface {
	SemanticSearch(ctx context.Context, query string, limit int) ([]domain.RankedResult, error)
	KeywordSearch(ctx context.Context, query string, limit int) ([]domain.RankedResult, error)
}

// SearchService runs semantic, keyword and hybrid searches and fuses the
// rankings. While the vector index is not ready it answers from the
// document store's substring search instead.
type SearchService struct {
	chapters     driving.ChapterService
	vectors      vectorSearcher
	defaultLimit int
	defaultType  domain.SearchType
}

// NewSearchService creates a new search service.
// The vector index is optional (can be nil); searches then always fall back.
func NewSearchService(chapters driving.ChapterService, vectors *VectorIndex) *SearchService {
	s := &SearchService{
		chapters:     chapters,
		defaultLimit: DefaultSearchLimit,
		defaultType:  domain.SearchTypeHybrid,
	}
	if vectors != nil {
		s.vectors = vectors
	}
	return s
}

// SetDefaults changes the limit and type used when a request leaves them unset.
func (s *SearchService) SetDefaults(limit int, searchType domain.SearchType) {
	if limit > 0 {
		s.defaultLimit = limit
	}
	if searchType.IsValid() {
		s.defaultType = searchType
	}
}

// Search runs the requested search type and returns ranked results.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	searchType := opts.Type
	if searchType == "" {
		searchType = s.defaultType
	}
	if !searchType.IsValid() {
		return nil, fmt.Errorf("%w: search type %q", domain.ErrInvalidInput, opts.Type)
	}

	resp := &domain.SearchResponse{Query: query, Type: searchType, Results: []domain.RankedResult{}}

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return resp, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	logger.Debug("Type: %s, limit: %d", searchType, limit)

	if s.vectors == nil {
		logger.Debug("Vector index not configured, using document store search")
		return s.fallback(ctx, resp, query, limit)
	}

	var results []domain.RankedResult
	var err error

	switch searchType {
	case domain.SearchTypeSemantic:
		results, err = s.vectors.SemanticSearch(ctx, query, limit)
	case domain.SearchTypeKeyword:
		results, err = s.vectors.KeywordSearch(ctx, query, limit)
	default:
		results, err = s.hybridSearch(ctx, query, limit)
	}

	if errors.Is(err, domain.ErrNotReady) {
		logger.Info("Vector index not ready, falling back to document store search")
		return s.fallback(ctx, resp, query, limit)
	}
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, fmt.Errorf("search: %w", err)
	}

	resp.Results = results
	logger.Info("Final results: %d", len(results))
	return resp, nil
}

// hybridSearch runs both vector index searches in parallel at twice the
// limit and fuses them. A failing side degrades to the other side's results,
// except for not-ready and dimension mismatch which are returned as is.
func (s *SearchService) hybridSearch(ctx context.Context, query string, limit int) ([]domain.RankedResult, error) {
	logger.Debug("Hybrid search: running semantic and keyword searches in parallel")

	var semantic, keyword []domain.RankedResult
	var semanticErr, keywordErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		semantic, semanticErr = s.vectors.SemanticSearch(ctx, query, oversample(limit))
	}()

	go func() {
		defer wg.Done()
		keyword, keywordErr = s.vectors.KeywordSearch(ctx, query, oversample(limit))
	}()

	wg.Wait()

	for _, err := range []error{semanticErr, keywordErr} {
		if errors.Is(err, domain.ErrNotReady) || errors.Is(err, domain.ErrDimensionMismatch) {
			return nil, err
		}
	}

	if semanticErr != nil && keywordErr != nil {
		logger.Warn("Hybrid search: both semantic and keyword searches failed")
		return nil, fmt.Errorf("hybrid search: semantic=%w, keyword=%w", semanticErr, keywordErr)
	}
	if semanticErr != nil {
		logger.Warn("Hybrid search: semantic search failed, using keyword results only: %v", semanticErr)
		semantic = nil
	}
	if keywordErr != nil {
		logger.Warn("Hybrid search: keyword search failed, using semantic results only: %v", keywordErr)
		keyword = nil
	}

	logger.Debug("Hybrid search: fusing %d semantic + %d keyword results", len(semantic), len(keyword))
	return fuse(semantic, keyword, limit), nil
}

// oversample doubles the per-side limit, saturating instead of overflowing.
func oversample(limit int) int {
	if limit > math.MaxInt/2 {
		return math.MaxInt
	}
	return limit * 2
}

// fuse merges the two rankings. Semantic hits score similarity*0.7 and keyword
// hits similarity*0.3; a chapter found by both sums the two and is tagged hybrid.
func fuse(semantic, keyword []domain.RankedResult, limit int) []domain.RankedResult {
	combined := make(map[int]*domain.RankedResult, len(semantic)+len(keyword))
	order := make([]int, 0, len(semantic)+len(keyword))

	for _, r := range semantic {
		hit := r
		hit.FinalScore = r.Similarity * SemanticWeight
		hit.SearchType = domain.SearchTypeSemantic
		combined[r.ChapterID] = &hit
		order = append(order, r.ChapterID)
	}

	for _, r := range keyword {
		if existing, ok := combined[r.ChapterID]; ok {
			existing.FinalScore += r.Similarity * KeywordWeight
			existing.SearchType = domain.SearchTypeHybrid
			continue
		}
		hit := r
		hit.FinalScore = r.Similarity * KeywordWeight
		hit.SearchType = domain.SearchTypeKeyword
		combined[r.ChapterID] = &hit
		order = append(order, r.ChapterID)
	}

	results := make([]domain.RankedResult, 0, len(order))
	for _, id := range order {
		results = append(results, *combined[id])
	}

	sortRanked(results, func(r domain.RankedResult) float64 { return r.FinalScore })
	return truncateRanked(results, limit)
}

// fallback answers from the document store's substring search.
func (s *SearchService) fallback(
	ctx context.Context, resp *domain.SearchResponse, query string, limit int,
) (*domain.SearchResponse, error) {
	if s.chapters == nil {
		return nil, domain.ErrSearchUnavailable
	}

	hits, err := s.chapters.SearchChapters(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword fallback: %w", err)
	}

	results := make([]domain.RankedResult, 0, len(hits))
	for i := range hits {
		ch := hits[i].Chapter
		score := float64(hits[i].Score)
		results = append(results, domain.RankedResult{
			ChapterID:  ch.ChapterID,
			Title:      ch.Title,
			Similarity: score,
			FinalScore: score,
			SearchType: domain.SearchTypeKeyword,
			Metadata: domain.ResultMetadata{
				ChapterID:   ch.ChapterID,
				GeneratedAt: ch.UpdatedAt,
			},
		})
	}

	resp.Results = results
	resp.Fallback = true
	logger.Info("Fallback results: %d", len(results))
	return resp, nil
}
