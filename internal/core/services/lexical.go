package services

import (
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

// Relevance weights for keyword search over the document store.
const (
	titleMatchScore   = 10
	contentMatchScore = 1
	maxKeywords       = 10
	minKeywordLength  = 4
)

// LexicalIndex maps chapter ids to their precomputed lowercase search text.
// It is not safe for concurrent use; DocumentStore guards it.
type LexicalIndex struct {
	records map[int]domain.SearchRecord
}

// NewLexicalIndex creates an empty lexical index.
func NewLexicalIndex() *LexicalIndex {
	return &LexicalIndex{records: make(map[int]domain.SearchRecord)}
}

// Put regenerates the search record of a chapter.
func (l *LexicalIndex) Put(ch *domain.Chapter, now time.Time) {
	text := BuildSearchText(ch.Title, ch.Content)
	l.records[ch.ChapterID] = domain.SearchRecord{
		ChapterID:  ch.ChapterID,
		SearchText: text,
		Keywords:   ExtractKeywords(text),
		CreatedAt:  now,
	}
}

// Remove drops the search record of a chapter.
func (l *LexicalIndex) Remove(chapterID int) {
	delete(l.records, chapterID)
}

// Get returns the search record of a chapter.
func (l *LexicalIndex) Get(chapterID int) (domain.SearchRecord, bool) {
	rec, ok := l.records[chapterID]
	return rec, ok
}

// Len returns the number of records.
func (l *LexicalIndex) Len() int {
	return len(l.records)
}

// Match returns the ids of records whose search text contains the query.
// The query must already be lowercased.
func (l *LexicalIndex) Match(query string) []int {
	var ids []int
	for id, rec := range l.records {
		if strings.Contains(rec.SearchText, query) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Records exposes the record table for snapshotting.
func (l *LexicalIndex) Records() map[int]domain.SearchRecord {
	return l.records
}

// Replace swaps in a loaded record table.
func (l *LexicalIndex) Replace(records map[int]domain.SearchRecord) {
	if records == nil {
		records = make(map[int]domain.SearchRecord)
	}
	l.records = records
}

// BuildSearchText lowercases title and flattened content joined by a space.
func BuildSearchText(title string, content domain.Content) string {
	return strings.ToLower(title + " " + content.Flatten())
}

// ExtractKeywords returns up to ten lowercase words longer than three
// characters, in order of appearance, with punctuation stripped.
func ExtractKeywords(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	keywords := make([]string, 0, maxKeywords)
	for _, word := range strings.Fields(cleaned) {
		if len([]rune(word)) < minKeywordLength {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// RelevanceScore sums, over the whitespace-separated words of the query,
// ten points for a title substring match and one for a content match.
func RelevanceScore(ch *domain.Chapter, query string) int {
	words := strings.Fields(strings.ToLower(query))
	title := strings.ToLower(ch.Title)

	content := ch.Content.Flatten()
	hasContent := strings.TrimSpace(content) != ""
	content = strings.ToLower(content)

	score := 0
	for _, word := range words {
		if strings.Contains(title, word) {
			score += titleMatchScore
		}
		if hasContent && strings.Contains(content, word) {
			score += contentMatchScore
		}
	}
	return score
}
