package driving

import "github.com/custodia-labs/chapterdex/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingBackend configures the embedding backend.
	SetEmbeddingBackend(backend domain.EmbeddingBackend, model, baseURL, apiKey string) error

	// SetDataDir changes where snapshots are written.
	SetDataDir(dir string) error

	// Validate checks the current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
