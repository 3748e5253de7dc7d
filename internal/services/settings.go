package services

import (
	"context"
	"errors"

	"github.com/floorreports/apiserver/internal/store"
	"github.com/floorreports/apiserver/types"
)

// Setting keys with built-in defaults.
var settingsDefaults = map[string]string{
	"application_name": "Floor Reports",
	"tagline":          "Executive Insights Platform",
	"refresh_interval": "Hourly",
	"analysis_focus":   "Quality & Throughput",
}

// SettingRepository defines persistence operations for settings.
type SettingRepository interface {
	Get(ctx context.Context, key string) (types.Setting, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) ([]types.Setting, error)
}

// SettingsService reads and writes key/value application settings,
// falling back to defaults for keys that were never written.
type SettingsService struct {
	repo SettingRepository
}

func NewSettingsService(repo SettingRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the stored value or the built-in default for the key.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return settingsDefaults[key], nil
		}
		return "", err
	}
	return setting.Value, nil
}

// Set stores a value. An empty value resets the key to its default.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if value == "" {
		value = settingsDefaults[key]
	}
	return s.repo.Set(ctx, key, value)
}

// Snapshot returns every known setting, overlaying stored values on the
// defaults.
func (s *SettingsService) Snapshot(ctx context.Context) (map[string]string, error) {
	values := make(map[string]string, len(settingsDefaults))
	for key, value := range settingsDefaults {
		values[key] = value
	}

	stored, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, setting := range stored {
		values[setting.Key] = setting.Value
	}
	return values, nil
}
