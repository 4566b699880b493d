package driving

import "github.com/custodia-labs/assetrag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings (file, then environment overrides).
	Get() (*domain.AppSettings, error)

	// Set updates one dot-notation key and persists it.
	Set(key, value string) error

	// Validate checks that the effective settings can serve traffic.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Path returns where settings are persisted.
	Path() string
}
