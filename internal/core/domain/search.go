package domain

import "time"

// SearchType identifies which retrieval path produced a ranked result.
type SearchType string

// Available search types.
const (
	// SearchTypeSemantic ranks by embedding similarity only.
	SearchTypeSemantic SearchType = "semantic"

	// SearchTypeKeyword ranks by title keyword matches only.
	SearchTypeKeyword SearchType = "keyword"

	// SearchTypeHybrid fuses semantic and keyword rankings.
	SearchTypeHybrid SearchType = "hybrid"
)

// IsValid returns true if the search type is recognised.
func (t SearchType) IsValid() bool {
	switch t {
	case SearchTypeSemantic, SearchTypeKeyword, SearchTypeHybrid:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t SearchType) String() string {
	return string(t)
}

// Description returns a human-readable description of the search type.
func (t SearchType) Description() string {
	switch t {
	case SearchTypeSemantic:
		return "Semantic (vector similarity)"
	case SearchTypeKeyword:
		return "Keyword (title match)"
	case SearchTypeHybrid:
		return "Hybrid (semantic + keyword)"
	default:
		return unknownDescription
	}
}

// AllSearchTypes returns all available search types.
func AllSearchTypes() []SearchType {
	return []SearchType{SearchTypeHybrid, SearchTypeSemantic, SearchTypeKeyword}
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// Type selects the retrieval path. Empty means hybrid.
	Type SearchType
}

// SearchRecord is the lexical index entry derived from a chapter.
type SearchRecord struct {
	ChapterID  int       `json:"chapter_id"`
	SearchText string    `json:"search_text"`
	Keywords   []string  `json:"keywords"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScoredChapter is a keyword search hit from the document store.
type ScoredChapter struct {
	Chapter Chapter `json:"chapter"`
	Score   int     `json:"relevance_score"`
}

// ResultMetadata is the display metadata attached to a vector index hit.
type ResultMetadata struct {
	ChapterID   int       `json:"chapter_id"`
	GeneratedAt time.Time `json:"generated_at"`
}

// RankedResult is a single hit from the vector index or the hybrid ranker.
type RankedResult struct {
	// ChapterID identifies the matched chapter.
	ChapterID int `json:"chapter_id"`

	// Title is the cached chapter title.
	Title string `json:"title"`

	// Similarity is the raw score from the producing search.
	Similarity float64 `json:"similarity"`

	// FinalScore is the fused score used for ranking.
	FinalScore float64 `json:"final_score"`

	// SearchType tells which path produced or merged the hit.
	SearchType SearchType `json:"search_type"`

	// Metadata carries index metadata for display.
	Metadata ResultMetadata `json:"metadata"`
}

// SearchResponse is the outcome of a ranked search request.
type SearchResponse struct {
	// Query is the query as received.
	Query string `json:"query"`

	// Type is the requested search type.
	Type SearchType `json:"type"`

	// Results are ordered by descending FinalScore.
	Results []RankedResult `json:"results"`

	// Fallback is true when the vector index was not ready and the
	// document store keyword search answered instead.
	Fallback bool `json:"fallback"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ChapterPage is a paginated chapter listing.
type ChapterPage struct {
	Chapters   []Chapter  `json:"chapters"`
	Pagination Pagination `json:"pagination"`
}
