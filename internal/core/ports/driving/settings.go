package driving

import "github.com/custodia-labs/ragchat/internal/core/domain"

// SettingsService resolves application settings from the config file and
// environment.
type SettingsService interface {
	// Load returns validated settings. Invalid settings wrap
	// domain.ErrConfiguration.
	Load() (*domain.Settings, error)

	// Resolve returns settings without validation, for display.
	Resolve() *domain.Settings

	// Set persists a single config file key.
	Set(key, value string) error

	// Get returns the raw config file value for key.
	Get(key string) (any, bool)

	// Keys lists the keys present in the config file.
	Keys() []string

	// Path returns the config file location.
	Path() string
}
