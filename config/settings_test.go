package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() Settings {
	return Settings{StorageProvider: " GCS ", PhoneRegion: "IN", SessionLifespan: time.Hour, ApiSecret: "unit-test-secret"}
}

func TestSettingsValidate(t *testing.T) {
	s := validSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, StorageProviderGCS, s.StorageProvider)

	s = validSettings()
	s.StorageProvider = "s3"
	assert.Error(t, s.Validate())

	s = validSettings()
	s.PhoneRegion = "IND"
	assert.Error(t, s.Validate())

	s = validSettings()
	s.SessionLifespan = 0
	assert.Error(t, s.Validate())

	s = validSettings()
	s.ApiSecret = "  "
	assert.EqualError(t, s.Validate(), "API_SECRET is required")
}

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "local")
	t.Setenv("GO_ENV", "Production")
	t.Setenv("API_SECRET", "unit-test-secret")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, s.SessionLifespan)
	assert.Equal(t, int64(10485760), s.MaxUploadBytes)
	assert.True(t, s.IsProduction())
}

func TestLoadSettingsRequiresApiSecret(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "local")
	t.Setenv("API_SECRET", "")

	_, err := LoadSettings()
	assert.ErrorContains(t, err, "API_SECRET is required")
}
