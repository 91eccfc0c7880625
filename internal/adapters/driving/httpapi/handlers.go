package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

// Query defaults.
const (
	defaultSearchLimit = 10
	defaultPage        = 1
	defaultPageLimit   = 20
)

// BulkRequest is the body of POST /api/chapters/bulk.
type BulkRequest struct {
	Chapters []domain.ChapterInput `json:"chapters"`
}

// HybridSearchData is the data payload of GET /api/hybrid-search.
type HybridSearchData struct {
	Query      string                `json:"query"`
	SearchType domain.SearchType     `json:"search_type"`
	Fallback   bool                  `json:"fallback"`
	Results    []domain.RankedResult `json:"results"`
	Total      int                   `json:"total"`
}

// handleRoot - GET /
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "chapterdex REST API",
		Data: map[string]any{
			"version": Version,
			"endpoints": []string{
				"GET /api/statistics",
				"GET /api/document-info",
				"GET /api/vector-stats",
				"GET /api/search?query=...&limit=...",
				"GET /api/hybrid-search?query=...&limit=...&type=...",
				"GET /api/chapters?page=...&limit=...&search=...",
				"POST /api/chapters/bulk",
				"POST /api/chapter",
				"GET /api/chapter/{id}",
				"PUT /api/chapter/{id}",
				"DELETE /api/chapter/{id}",
			},
		},
	})
}

// handleStatistics - GET /api/statistics
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ports.Chapters.Statistics(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, stats)
}

// handleDocumentInfo - GET /api/document-info
func (s *Server) handleDocumentInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.ports.Chapters.DocumentInfo(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, info)
}

// handleVectorStats - GET /api/vector-stats
func (s *Server) handleVectorStats(w http.ResponseWriter, r *http.Request) {
	if s.ports.Index == nil {
		writeServiceError(w, domain.ErrVectorIndexUnavailable)
		return
	}
	writeData(w, s.ports.Index.Stats(r.Context()))
}

// handleSearch - GET /api/search
// Substring search over the document store.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}
	limit, err := intParam(r, "limit", defaultSearchLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	results, err := s.ports.Chapters.SearchChapters(r.Context(), query, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []domain.ScoredChapter{}
	}
	writeData(w, results)
}

// handleHybridSearch - GET /api/hybrid-search
// Ranked search; type defaults to hybrid.
func (s *Server) handleHybridSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}
	limit, err := intParam(r, "limit", defaultSearchLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	searchType := domain.SearchTypeHybrid
	if raw := q.Get("type"); raw != "" {
		searchType = domain.SearchType(strings.ToLower(raw))
		if !searchType.IsValid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown search type %q", raw))
			return
		}
	}

	resp, err := s.ports.Search.Search(r.Context(), query, domain.SearchOptions{
		Limit: limit,
		Type:  searchType,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	results := resp.Results
	if results == nil {
		results = []domain.RankedResult{}
	}
	writeData(w, HybridSearchData{
		Query:      resp.Query,
		SearchType: searchType,
		Fallback:   resp.Fallback,
		Results:    results,
		Total:      len(results),
	})
}

// handleListChapters - GET /api/chapters
func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page", defaultPage)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	limit, err := intParam(r, "limit", defaultPageLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := s.ports.Chapters.ListChapters(r.Context(), page, limit, r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, result)
}

// handleGetChapter - GET /api/chapter/{id}
func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	chapter, err := s.ports.Chapters.GetChapter(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("chapter %d not found", id))
			return
		}
		writeServiceError(w, err)
		return
	}
	writeData(w, chapter)
}

// handleCreateChapter - POST /api/chapter
func (s *Server) handleCreateChapter(w http.ResponseWriter, r *http.Request) {
	var input domain.ChapterInput
	if !decodeBody(w, r, &input) {
		return
	}
	if err := s.upsert(r, input); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: fmt.Sprintf("chapter %d saved", input.ChapterID),
	})
}

// handleUpdateChapter - PUT /api/chapter/{id}
// The path id wins over any chapter_id in the body.
func (s *Server) handleUpdateChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var input domain.ChapterInput
	if !decodeBody(w, r, &input) {
		return
	}
	input.ChapterID = id

	if err := s.upsert(r, input); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, fmt.Sprintf("chapter %d updated", id))
}

// handleDeleteChapter - DELETE /api/chapter/{id}
func (s *Server) handleDeleteChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var (
		deleted bool
		err     error
	)
	if s.ports.Index != nil {
		deleted, err = s.ports.Index.DeleteAndUnindex(r.Context(), id)
	} else {
		deleted, err = s.ports.Chapters.DeleteChapter(r.Context(), id)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, fmt.Sprintf("chapter %d not found", id))
		return
	}
	writeMessage(w, fmt.Sprintf("chapter %d deleted", id))
}

// handleBulkChapters - POST /api/chapters/bulk
// Rejected inputs are reported in the data payload, not as a failed request.
func (s *Server) handleBulkChapters(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Chapters == nil {
		writeError(w, http.StatusBadRequest, "chapters must be an array")
		return
	}

	var result *domain.BulkResult
	var err error
	if s.ports.Index != nil {
		result, err = s.ports.Index.UpsertChaptersAndIndex(r.Context(), req.Chapters)
	} else {
		result, err = s.ports.Chapters.UpsertChapters(r.Context(), req.Chapters)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, result)
}

func (s *Server) upsert(r *http.Request, input domain.ChapterInput) error {
	if s.ports.Index != nil {
		return s.ports.Index.UpsertAndIndex(r.Context(), input)
	}
	return s.ports.Chapters.UpsertChapter(r.Context(), input)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is required")
		default:
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		}
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "chapter id must be a positive integer")
		return 0, false
	}
	return id, true
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, name)
	}
	return n, nil
}
