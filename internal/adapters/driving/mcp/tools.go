package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

const defaultToolLimit = 10

// SearchInput is the input schema for the search_documentation tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"the search query, usually Russian documentation terms"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	SearchType string `json:"search_type,omitempty" jsonschema:"semantic, keyword or hybrid (default hybrid)"`
}

// VectorSearchInput is the input schema for the vector_search tool.
type VectorSearchInput struct {
	Query string `json:"query" jsonschema:"the query for semantic similarity search"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search tools.
type SearchOutput struct {
	Query      string               `json:"query"`
	SearchType string               `json:"search_type"`
	Fallback   bool                 `json:"fallback"`
	Results    []SearchResultOutput `json:"results"`
	Count      int                  `json:"count"`
}

// SearchResultOutput represents a single ranked result.
type SearchResultOutput struct {
	ChapterID  int     `json:"chapter_id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
	FinalScore float64 `json:"final_score"`
	SearchType string  `json:"search_type"`
}

// ChapterInput is the input schema for the get_chapter tool.
type ChapterInput struct {
	ChapterID int `json:"chapter_id" jsonschema:"the chapter id"`
}

// ChapterOutput is a chapter with its content flattened to text.
type ChapterOutput struct {
	ChapterID    int    `json:"chapter_id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	PageStart    int    `json:"page_start"`
	ContentLines int    `json:"content_lines"`
	ImagesCount  int    `json:"images_count"`
	TablesCount  int    `json:"tables_count"`
	UpdatedAt    string `json:"updated_at"`
}

// ListChaptersInput is the input schema for the list_chapters tool.
type ListChaptersInput struct {
	Page   int    `json:"page,omitempty" jsonschema:"page number (default 1)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"chapters per page (default 20)"`
	Search string `json:"search,omitempty" jsonschema:"optional case-insensitive filter on title and content"`
}

// ListChaptersOutput is one page of chapter summaries.
type ListChaptersOutput struct {
	Chapters []ChapterSummary `json:"chapters"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Total    int              `json:"total"`
	Pages    int              `json:"pages"`
}

// ChapterSummary lists a chapter without its content.
type ChapterSummary struct {
	ChapterID    int    `json:"chapter_id"`
	Title        string `json:"title"`
	PageStart    int    `json:"page_start"`
	ContentLines int    `json:"content_lines"`
}

// StatisticsOutput mirrors domain.Statistics.
type StatisticsOutput struct {
	TotalChapters       int `json:"total_chapters"`
	ChaptersWithContent int `json:"chapters_with_content"`
	ChaptersWithTables  int `json:"chapters_with_tables"`
	ChaptersWithImages  int `json:"chapters_with_images"`
	TotalContentLines   int `json:"total_content_lines"`
	TotalTables         int `json:"total_tables"`
	TotalImages         int `json:"total_images"`
}

// DocumentInfoOutput summarises the imported document.
// Counts the importer never recorded are omitted.
type DocumentInfoOutput struct {
	Title               string `json:"title"`
	PageCount           int    `json:"page_count,omitempty"`
	FileSize            int    `json:"file_size,omitempty"`
	TotalChapters       int    `json:"total_chapters,omitempty"`
	ChaptersWithContent int    `json:"chapters_with_content,omitempty"`
}

// VectorStatsOutput reports vector index state.
type VectorStatsOutput struct {
	TotalEmbeddings int    `json:"total_embeddings"`
	IsInitialized   bool   `json:"is_initialized"`
	ModelName       string `json:"model_name"`
	Dimension       int    `json:"dimension"`
	VocabularySize  int    `json:"vocabulary_size"`
}

// emptyInput is the input of tools that take no arguments.
type emptyInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documentation",
		Description: "Search the documentation with semantic, keyword or hybrid ranking",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "vector_search",
		Description: "Semantic search over chapter embeddings",
	}, s.handleVectorSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_chapter",
		Description: "Get the content of a chapter by id",
	}, s.handleGetChapter)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_chapters",
		Description: "List chapters with pagination",
	}, s.handleListChapters)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_statistics",
		Description: "Get documentation statistics",
	}, s.handleGetStatistics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document_info",
		Description: "Get information about the imported document",
	}, s.handleGetDocumentInfo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_vector_stats",
		Description: "Get vector index statistics",
	}, s.handleGetVectorStats)
}

// handleSearch handles the search_documentation tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultToolLimit
	}

	opts := domain.SearchOptions{Limit: limit, Type: domain.SearchType(input.SearchType)}
	resp, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, toSearchOutput(resp), nil
}

// handleVectorSearch runs a semantic search and refuses to fall back:
// callers asking for vectors get an error until the index is built.
func (s *Server) handleVectorSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input VectorSearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if s.ports.Index == nil {
		return nil, SearchOutput{}, domain.ErrVectorIndexUnavailable
	}
	if !s.ports.Index.Stats(ctx).IsInitialized {
		return nil, SearchOutput{}, domain.ErrNotReady
	}

	return s.handleSearch(ctx, nil, SearchInput{
		Query:      input.Query,
		Limit:      input.Limit,
		SearchType: string(domain.SearchTypeSemantic),
	})
}

// handleGetChapter handles the get_chapter tool invocation.
func (s *Server) handleGetChapter(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChapterInput,
) (*mcp.CallToolResult, ChapterOutput, error) {
	ch, err := s.ports.Chapters.GetChapter(ctx, input.ChapterID)
	if err != nil {
		return nil, ChapterOutput{}, err
	}

	return nil, ChapterOutput{
		ChapterID:    ch.ChapterID,
		Title:        ch.Title,
		Content:      ch.Content.Flatten(),
		PageStart:    ch.PageStart,
		ContentLines: ch.ContentLines,
		ImagesCount:  ch.ImagesCount,
		TablesCount:  ch.TablesCount,
		UpdatedAt:    ch.UpdatedAt.Format(time.RFC3339),
	}, nil
}

// handleListChapters handles the list_chapters tool invocation.
func (s *Server) handleListChapters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListChaptersInput,
) (*mcp.CallToolResult, ListChaptersOutput, error) {
	page, err := s.ports.Chapters.ListChapters(ctx, input.Page, input.Limit, input.Search)
	if err != nil {
		return nil, ListChaptersOutput{}, err
	}

	output := ListChaptersOutput{
		Chapters: make([]ChapterSummary, len(page.Chapters)),
		Page:     page.Pagination.Page,
		Limit:    page.Pagination.Limit,
		Total:    page.Pagination.Total,
		Pages:    page.Pagination.Pages,
	}
	for i := range page.Chapters {
		output.Chapters[i] = ChapterSummary{
			ChapterID:    page.Chapters[i].ChapterID,
			Title:        page.Chapters[i].Title,
			PageStart:    page.Chapters[i].PageStart,
			ContentLines: page.Chapters[i].ContentLines,
		}
	}

	return nil, output, nil
}

// handleGetStatistics handles the get_statistics tool invocation.
func (s *Server) handleGetStatistics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ emptyInput,
) (*mcp.CallToolResult, StatisticsOutput, error) {
	stats, err := s.ports.Chapters.Statistics(ctx)
	if err != nil {
		return nil, StatisticsOutput{}, err
	}

	return nil, StatisticsOutput(*stats), nil
}

// handleGetDocumentInfo handles the get_document_info tool invocation.
func (s *Server) handleGetDocumentInfo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ emptyInput,
) (*mcp.CallToolResult, DocumentInfoOutput, error) {
	info, err := s.ports.Chapters.DocumentInfo(ctx)
	if err != nil {
		return nil, DocumentInfoOutput{}, err
	}

	return nil, DocumentInfoOutput{
		Title:               info.Title,
		PageCount:           derefInt(info.PageCount),
		FileSize:            derefInt(info.FileSize),
		TotalChapters:       derefInt(info.TotalChapters),
		ChaptersWithContent: derefInt(info.ChaptersWithContent),
	}, nil
}

// handleGetVectorStats handles the get_vector_stats tool invocation.
func (s *Server) handleGetVectorStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ emptyInput,
) (*mcp.CallToolResult, VectorStatsOutput, error) {
	if s.ports.Index == nil {
		return nil, VectorStatsOutput{}, domain.ErrVectorIndexUnavailable
	}

	stats := s.ports.Index.Stats(ctx)
	return nil, VectorStatsOutput{
		TotalEmbeddings: stats.TotalEmbeddings,
		IsInitialized:   stats.IsInitialized,
		ModelName:       stats.Model.Name,
		Dimension:       stats.Model.Dimension,
		VocabularySize:  stats.Model.VocabularySize,
	}, nil
}

func toSearchOutput(resp *domain.SearchResponse) SearchOutput {
	output := SearchOutput{
		Query:      resp.Query,
		SearchType: resp.Type.String(),
		Fallback:   resp.Fallback,
		Results:    make([]SearchResultOutput, len(resp.Results)),
		Count:      len(resp.Results),
	}

	for i := range resp.Results {
		r := resp.Results[i]
		output.Results[i] = SearchResultOutput{
			ChapterID:  r.ChapterID,
			Title:      r.Title,
			Similarity: r.Similarity,
			FinalScore: r.FinalScore,
			SearchType: r.SearchType.String(),
		}
	}
	return output
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
