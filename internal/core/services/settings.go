package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driven"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvPrefix prefixes environment overrides. A config key maps to
// EnvPrefix + upper-case key with dots as underscores, so
// "embedding.base_url" is overridden by CHAPTERDEX_EMBEDDING_BASE_URL.
const EnvPrefix = "CHAPTERDEX_"

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir           = "data_dir"
	keyStorageBackend    = "storage.backend"
	keyEmbedBackend      = "embedding.backend"
	keyEmbedDimensions   = "embedding.dimensions"
	keyEmbedVocabulary   = "embedding.vocabulary"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedRateLimit    = "embedding.rate_limit"
	keyEmbedBurst        = "embedding.burst"
	keyIndexWorkers      = "index.workers"
	keySearchLimit       = "search.default_limit"
	keySearchDefaultType = "search.default_type"
	keyServerPort        = "server.port"
)

// SettingsService manages application settings.
// Values come from the environment first, then the config store, then defaults.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.EmbeddingValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
// The validator is optional; without it Validate only checks values.
func NewSettingsService(configStore driven.ConfigStore, validator driven.EmbeddingValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		DataDir: s.getString(keyDataDir, defaults.DataDir),
		Storage: s.getStorage(defaults.Storage),
		Embedding: domain.EmbeddingSettings{
			Backend:    s.getBackend(defaults.Embedding.Backend),
			Dimensions: s.getInt(keyEmbedDimensions, defaults.Embedding.Dimensions),
			Vocabulary: s.getStringSlice(keyEmbedVocabulary),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.getString(keyEmbedBaseURL, ""), // empty means the backend default
			APIKey:     s.getString(keyEmbedAPIKey, ""),
			RateLimit:  s.getFloat(keyEmbedRateLimit, defaults.Embedding.RateLimit),
			Burst:      s.getInt(keyEmbedBurst, defaults.Embedding.Burst),
		},
		Index: domain.IndexSettings{
			Workers: s.getInt(keyIndexWorkers, defaults.Index.Workers),
		},
		Search: domain.SearchSettings{
			DefaultLimit: s.getInt(keySearchLimit, defaults.Search.DefaultLimit),
			DefaultType:  s.getSearchType(defaults.Search.DefaultType),
		},
		Server: domain.ServerSettings{
			Port: s.getInt(keyServerPort, defaults.Server.Port),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyDataDir, settings.DataDir},
		{keyStorageBackend, settings.Storage.String()},
		{keyEmbedBackend, settings.Embedding.Backend.String()},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedRateLimit, settings.Embedding.RateLimit},
		{keyEmbedBurst, settings.Embedding.Burst},
		{keyIndexWorkers, settings.Index.Workers},
		{keySearchLimit, settings.Search.DefaultLimit},
		{keySearchDefaultType, settings.Search.DefaultType.String()},
		{keyServerPort, settings.Server.Port},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if len(settings.Embedding.Vocabulary) > 0 {
		if err := s.configStore.Set(keyEmbedVocabulary, settings.Embedding.Vocabulary); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedVocabulary, err)
		}
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return nil
}

// SetEmbeddingBackend configures the embedding backend.
// An empty model selects the backend's default, and known models set the
// vector dimensions.
func (s *SettingsService) SetEmbeddingBackend(backend domain.EmbeddingBackend, model, baseURL, apiKey string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: embedding backend %q", domain.ErrInvalidInput, backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Backend = backend
	settings.Embedding.BaseURL = baseURL
	settings.Embedding.APIKey = apiKey

	switch {
	case backend == domain.EmbeddingBackendHash:
		settings.Embedding.Model = ""
		settings.Embedding.Dimensions = domain.DefaultAppSettings().Embedding.Dimensions
	case model != "":
		settings.Embedding.Model = model
	default:
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[backend]
	}

	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetDataDir changes where snapshots are written.
func (s *SettingsService) SetDataDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("%w: data directory is empty", domain.ErrInvalidInput)
	}
	return s.configStore.Set(keyDataDir, dir)
}

// Validate checks the current settings are usable. When a validator is
// configured, remote embedding backends are also pinged.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.Backend.IsValid() {
		return fmt.Errorf("%w: embedding backend %q", domain.ErrInvalidInput, settings.Embedding.Backend)
	}
	if settings.Embedding.Backend == domain.EmbeddingBackendHash && settings.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidInput)
	}
	if settings.Embedding.RateLimit <= 0 || settings.Embedding.Burst <= 0 {
		return fmt.Errorf("%w: embedding rate limit and burst must be positive", domain.ErrInvalidInput)
	}
	if settings.Index.Workers <= 0 {
		return fmt.Errorf("%w: index workers must be positive", domain.ErrInvalidInput)
	}
	if settings.Search.DefaultLimit <= 0 {
		return fmt.Errorf("%w: search default limit must be positive", domain.ErrInvalidInput)
	}
	if settings.Server.Port <= 0 || settings.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", domain.ErrInvalidInput, settings.Server.Port)
	}

	if s.validator != nil && settings.Embedding.Backend.IsRemote() {
		return s.validator.ValidateEmbedding(&settings.Embedding)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with environment overrides and defaults.

// envKey maps a config key to its environment variable name.
func envKey(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (s *SettingsService) env(key string) (string, bool) {
	val, ok := s.lookupEnv(envKey(key))
	if !ok || strings.TrimSpace(val) == "" {
		return "", false
	}
	return strings.TrimSpace(val), true
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val, ok := s.env(key); ok {
		return val
	}
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if raw, ok := s.env(key); ok {
		if val, err := strconv.Atoi(raw); err == nil {
			return val
		}
	}
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if raw, ok := s.env(key); ok {
		if val, err := strconv.ParseFloat(raw, 64); err == nil {
			return val
		}
	}
	val := s.configStore.GetFloat(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getStringSlice reads a list; the environment form is comma-separated.
func (s *SettingsService) getStringSlice(key string) []string {
	if raw, ok := s.env(key); ok {
		var out []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return s.configStore.GetStringSlice(key)
}

func (s *SettingsService) getBackend(defaultVal domain.EmbeddingBackend) domain.EmbeddingBackend {
	backend := domain.EmbeddingBackend(s.getString(keyEmbedBackend, ""))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getStorage(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.getString(keyStorageBackend, ""))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getSearchType(defaultVal domain.SearchType) domain.SearchType {
	searchType := domain.SearchType(s.getString(keySearchDefaultType, ""))
	if !searchType.IsValid() {
		return defaultVal
	}
	return searchType
}
