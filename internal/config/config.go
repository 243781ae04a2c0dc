package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
)

// ErrMissingCredentials is returned when Spotify credentials are absent
var ErrMissingCredentials = errors.New("missing Spotify credentials")

// Config holds all configuration for the application
type Config struct {
	// Spotify credentials (authorization code flow)
	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`
	SpotifyRedirectURI  string `envconfig:"SPOTIFY_REDIRECT_URI"`

	// Catalog search settings
	SpotifyMarket              string  `envconfig:"SPOTIFY_MARKET" default:"US"`
	SpotifyAPIURL              string  `envconfig:"SPOTIFY_API_URL" default:"https://api.spotify.com/v1"`
	SpotifyRateLimit           float64 `envconfig:"SPOTIFY_RATE_LIMIT" default:"10"` // requests per second
	SpotifyMaxRateLimitRetries int     `envconfig:"SPOTIFY_MAX_RATE_LIMIT_RETRIES" default:"5"`
	SearchLimit                int     `envconfig:"SEARCH_LIMIT" default:"10"`

	// Chart source
	BillboardURL string        `envconfig:"BILLBOARD_URL" default:"https://www.billboard.com/charts/hot-100/"`
	ChartTimeout time.Duration `envconfig:"CHART_TIMEOUT" default:"20s"`

	// Storage (both optional)
	MongodbURL      string `envconfig:"MONGODB_URL"`
	MongodbDatabase string `envconfig:"MONGODB_DATABASE" default:"hitcapsule"`
	ValkeyURL       string `envconfig:"VALKEY_URL"`

	// HTTP API
	Port         string `envconfig:"PORT" default:"8080"`
	GinMode      string `envconfig:"GIN_MODE" default:"release"`
	APIJWTSecret string `envconfig:"API_JWT_SECRET"`

	// Local files
	ArtifactsDir   string `envconfig:"ARTIFACTS_DIR" default:"artifacts"`
	TokenCachePath string `envconfig:"TOKEN_CACHE_PATH"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogFile   string `envconfig:"LOG_FILE"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if cfg.TokenCachePath == "" {
		cfg.TokenCachePath = filepath.Join(xdg.CacheHome, "hitcapsule", "spotify_token.json")
	}

	return &cfg, nil
}

// Validate checks that the Spotify credentials are all present.
// Missing credentials are a configuration error and never retried.
func (c *Config) Validate() error {
	var missing []string
	if c.SpotifyClientID == "" {
		missing = append(missing, "SPOTIFY_CLIENT_ID")
	}
	if c.SpotifyClientSecret == "" {
		missing = append(missing, "SPOTIFY_CLIENT_SECRET")
	}
	if c.SpotifyRedirectURI == "" {
		missing = append(missing, "SPOTIFY_REDIRECT_URI")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	if _, err := url.ParseRequestURI(c.SpotifyRedirectURI); err != nil {
		return fmt.Errorf("invalid SPOTIFY_REDIRECT_URI: %w", err)
	}

	return nil
}

// HasDatabase reports whether a MongoDB archive is configured
func (c *Config) HasDatabase() bool {
	return c.MongodbURL != ""
}

// HasValkey reports whether a Valkey cache is configured
func (c *Config) HasValkey() bool {
	return c.ValkeyURL != ""
}
