package config

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageProviderLocal = "local"
	StorageProviderGCS   = "gcs"
)

// Settings holds the server-level knobs. DB and redis connection settings
// stay plain env vars so the CLI tools can share them.
type Settings struct {
	Port               string        `env:"PORT" env-default:"8080"`
	Environment        string        `env:"GO_ENV" env-default:"development"`
	CorsAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS"`
	RateLimitEnabled   bool          `env:"RATE_LIMIT_ENABLED" env-default:"false"`
	RateLimitMax       int64         `env:"RATE_LIMIT_MAX_REQUESTS" env-default:"600"`
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"60s"`
	SessionLifespan    time.Duration `env:"SESSION_LIFESPAN" env-default:"24h"`
	TokenHourLifespan  int           `env:"TOKEN_HOUR_LIFESPAN" env-default:"24"`
	ApiSecret          string        `env:"API_SECRET"`
	StorageProvider    string        `env:"STORAGE_PROVIDER" env-default:"local"`
	MediaRoot          string        `env:"MEDIA_ROOT" env-default:"./media"`
	MaxUploadBytes     int64         `env:"MAX_UPLOAD_BYTES" env-default:"10485760"`
	PubSubTopic        string        `env:"PUBSUB_TOPIC"`
	PhoneRegion        string        `env:"PHONE_REGION" env-default:"IN"`
	SkipMigrations     bool          `env:"SKIP_MIGRATIONS" env-default:"false"`
}

var (
	settings     *Settings
	settingsOnce sync.Once
)

// LoadSettings reads Settings from the environment, applying env-default tags.
func LoadSettings() (*Settings, error) {
	var s Settings
	if err := cleanenv.ReadEnv(&s); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	s.StorageProvider = strings.ToLower(strings.TrimSpace(s.StorageProvider))
	switch s.StorageProvider {
	case StorageProviderLocal, StorageProviderGCS:
	default:
		return fmt.Errorf("unsupported STORAGE_PROVIDER %q", s.StorageProvider)
	}
	if len(s.PhoneRegion) != 2 {
		return fmt.Errorf("PHONE_REGION must be a two-letter region code, got %q", s.PhoneRegion)
	}
	if s.SessionLifespan <= 0 {
		return fmt.Errorf("SESSION_LIFESPAN must be positive")
	}
	if strings.TrimSpace(s.ApiSecret) == "" {
		return fmt.Errorf("API_SECRET is required")
	}
	return nil
}

func (s *Settings) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(s.Environment), "production")
}

// GetSettings loads settings once per process.
func GetSettings() *Settings {
	settingsOnce.Do(func() {
		s, err := LoadSettings()
		if err != nil {
			log.Fatal(err)
		}
		settings = s
	})
	return settings
}
