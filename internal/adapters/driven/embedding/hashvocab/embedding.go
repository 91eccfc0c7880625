// Package hashvocab provides a deterministic bag-of-known-words embedding service.
//
// Every known term maps to a fixed vector derived from the md5 digest of the
// term. A text embeds as the average of the vectors of the known terms it
// contains, so texts sharing vocabulary point in similar directions. No model
// is loaded and no network is used.
package hashvocab

import (
	"context"
	"crypto/md5" //nolint:gosec // md5 is a term fingerprint, not a security primitive.
	"encoding/hex"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interfaces.
var (
	_ driven.EmbeddingService   = (*EmbeddingService)(nil)
	_ driven.ModelDescriber     = (*EmbeddingService)(nil)
	_ driven.VocabularyExpander = (*EmbeddingService)(nil)
)

// Default configuration values.
const (
	ModelName         = "Simple-Hash-Based-Embeddings"
	DefaultDimensions = 128
)

// BaseVocabulary is the built-in set of known terms.
var BaseVocabulary = []string{
	"поступление", "товар", "склад", "настройка", "mobile", "smarts",
	"панель", "управление", "этикетка", "штрихкод", "принтер", "сканер",
	"документ", "система", "функция", "параметр", "конфигурация",
	"пользователь", "интерфейс", "данные", "база", "поиск", "фильтр",
	"отчет", "статистика", "анализ", "экспорт", "импорт", "синхронизация",
}

// Config holds configuration for the hash vocabulary embedding service.
type Config struct {
	// Dimensions is the embedding vector size (default: 128).
	Dimensions int

	// Vocabulary lists terms known in addition to BaseVocabulary.
	Vocabulary []string
}

// EmbeddingService embeds text by averaging fixed term vectors.
type EmbeddingService struct {
	mu         sync.RWMutex
	dimensions int
	vectors    map[string][]float32
}

// NewEmbeddingService creates a hash vocabulary embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}

	s := &EmbeddingService{
		dimensions: cfg.Dimensions,
		vectors:    make(map[string][]float32, len(BaseVocabulary)+len(cfg.Vocabulary)),
	}
	s.ExpandVocabulary(BaseVocabulary)
	s.ExpandVocabulary(cfg.Vocabulary)
	return s
}

// Embed averages the vectors of the known terms in text.
// Text with no known terms yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	embedding := make([]float32, s.dimensions)
	known := 0
	for _, word := range Tokenize(text) {
		vec, ok := s.vectors[word]
		if !ok {
			continue
		}
		for i := range embedding {
			embedding[i] += vec[i]
		}
		known++
	}

	if known > 0 {
		for i := range embedding {
			embedding[i] /= float32(known)
		}
	}
	return embedding, nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the model name recorded in snapshots.
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// ModelInfo reports the model name, dimension and vocabulary size.
func (s *EmbeddingService) ModelInfo() domain.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.ModelInfo{
		Name:           ModelName,
		Dimension:      s.dimensions,
		IsLoaded:       len(s.vectors) > 0,
		VocabularySize: len(s.vectors),
	}
}

// ExpandVocabulary adds unknown terms and returns how many were added.
// Vectors of terms already known are never recomputed.
func (s *EmbeddingService) ExpandVocabulary(words []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, word := range words {
		term := strings.ToLower(strings.TrimSpace(word))
		if term == "" {
			continue
		}
		if _, ok := s.vectors[term]; ok {
			continue
		}
		s.vectors[term] = TermVector(term, s.dimensions)
		added++
	}
	return added
}

// Ping always succeeds; the service is local.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// TermVector derives the fixed vector of a term from its md5 hex digest.
// Component i is (hex digit i mod 32 - 8) / 8, so every value lies in [-1, 0.875].
func TermVector(term string, dimensions int) []float32 {
	sum := md5.Sum([]byte(term)) //nolint:gosec // see import
	digest := hex.EncodeToString(sum[:])

	vec := make([]float32, dimensions)
	for i := range vec {
		vec[i] = (float32(hexValue(digest[i%len(digest)])) - 8) / 8
	}
	return vec
}

func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return 0
	}
}

// Tokenize lowercases text, replaces every rune that is not a letter, digit,
// underscore or whitespace with a space, and splits on whitespace.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return strings.Fields(cleaned)
}
