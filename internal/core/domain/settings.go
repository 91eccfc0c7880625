package domain

const unknownDescription = "Unknown"

// EmbeddingBackend identifies the implementation behind the embedding contract.
type EmbeddingBackend string

// Available embedding backends.
const (
	// EmbeddingBackendHash is the deterministic bag-of-known-words scheme.
	EmbeddingBackendHash EmbeddingBackend = "hash"

	// EmbeddingBackendOllama is a local Ollama instance.
	EmbeddingBackendOllama EmbeddingBackend = "ollama"

	// EmbeddingBackendOpenAI is any OpenAI-compatible embeddings API.
	EmbeddingBackendOpenAI EmbeddingBackend = "openai"
)

// IsValid returns true if the backend is recognised.
func (b EmbeddingBackend) IsValid() bool {
	switch b {
	case EmbeddingBackendHash, EmbeddingBackendOllama, EmbeddingBackendOpenAI:
		return true
	default:
		return false
	}
}

// IsRemote returns true if the backend calls out over the network.
func (b EmbeddingBackend) IsRemote() bool {
	return b == EmbeddingBackendOllama || b == EmbeddingBackendOpenAI
}

// String returns the string representation.
func (b EmbeddingBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b EmbeddingBackend) Description() string {
	switch b {
	case EmbeddingBackendHash:
		return "Hash vocabulary (deterministic, local)"
	case EmbeddingBackendOllama:
		return "Ollama (local model)"
	case EmbeddingBackendOpenAI:
		return "OpenAI-compatible (remote model)"
	default:
		return unknownDescription
	}
}

// AllEmbeddingBackends returns all available embedding backends.
func AllEmbeddingBackends() []EmbeddingBackend {
	return []EmbeddingBackend{
		EmbeddingBackendHash,
		EmbeddingBackendOllama,
		EmbeddingBackendOpenAI,
	}
}

// StorageBackend identifies where snapshots are persisted.
type StorageBackend string

// Available storage backends.
const (
	// StorageBackendJSON writes one JSON file per snapshot.
	StorageBackendJSON StorageBackend = "json"

	// StorageBackendSQLite keeps every snapshot in one SQLite database.
	StorageBackendSQLite StorageBackend = "sqlite"
)

// IsValid returns true if the storage backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageBackendJSON || b == StorageBackendSQLite
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding backend configuration.
type EmbeddingSettings struct {
	// Backend selects the embedding implementation.
	Backend EmbeddingBackend

	// Dimensions is the embedding vector size.
	Dimensions int

	// Vocabulary lists extra known terms for the hash backend.
	Vocabulary []string

	// Model is the model name for remote backends.
	Model string

	// BaseURL is the API endpoint for remote backends.
	BaseURL string

	// APIKey is the API key for OpenAI-compatible backends.
	APIKey string

	// RateLimit is the sustained request rate for remote backends (per second).
	RateLimit float64

	// Burst is the rate limiter burst size.
	Burst int
}

// IndexSettings holds vector index build configuration.
type IndexSettings struct {
	// Workers is the embedding worker pool size used by Build.
	Workers int
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// DefaultLimit is used when a request does not set a limit.
	DefaultLimit int

	// DefaultType is used when a request does not set a search type.
	DefaultType SearchType
}

// ServerSettings holds serving layer configuration.
type ServerSettings struct {
	// Port is the REST API port.
	Port int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// DataDir is where snapshots are written.
	DataDir string

	// Storage selects the snapshot backend.
	Storage StorageBackend

	// Embedding holds embedding backend settings.
	Embedding EmbeddingSettings

	// Index holds vector index settings.
	Index IndexSettings

	// Search holds search behaviour settings.
	Search SearchSettings

	// Server holds REST server settings.
	Server ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The hash backend needs no external service, so search works out of the box.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageBackendJSON,
		Embedding: EmbeddingSettings{
			Backend:    EmbeddingBackendHash,
			Dimensions: 128,
			RateLimit:  5.0,
			Burst:      10,
		},
		Index: IndexSettings{
			Workers: 4,
		},
		Search: SearchSettings{
			DefaultLimit: 10,
			DefaultType:  SearchTypeHybrid,
		},
		Server: ServerSettings{
			Port: 3001,
		},
	}
}

// DefaultEmbeddingModels returns default models for each remote backend.
func DefaultEmbeddingModels() map[EmbeddingBackend]string {
	return map[EmbeddingBackend]string{
		EmbeddingBackendOllama: "nomic-embed-text",
		EmbeddingBackendOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
