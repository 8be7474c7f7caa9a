package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

// Config holds the configuration for the recommender service
type Config struct {
	Server      ServerConfig
	Artifacts   ArtifactsConfig
	Recommender RecommenderConfig
	Chat        ChatConfig
	Sessions    SessionsConfig
	Log         LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr              string        `env:"SERVER_ADDR,default=:8080" validate:"required"`
	ShutdownTimeout   time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
	RateLimitRequests int           `env:"SERVER_RATE_LIMIT,default=120" validate:"gte=0"`
	CORSOrigins       string        `env:"SERVER_CORS_ORIGINS,default=*"`
}

// AllowedOrigins splits the comma separated CORS origin list
func (s ServerConfig) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// ArtifactsConfig locates the fitted model artifacts
type ArtifactsConfig struct {
	Dir             string `env:"ARTIFACTS_DIR,default=./models" validate:"required"`
	CatalogFile     string `env:"ARTIFACTS_CATALOG_FILE,default=catalog.csv" validate:"required"`
	VectorSpaceFile string `env:"ARTIFACTS_VECTORSPACE_FILE,default=vectorspace.json.gz" validate:"required"`
}

// CatalogPath returns the full path of the catalog artifact
func (a ArtifactsConfig) CatalogPath() string {
	return filepath.Join(a.Dir, a.CatalogFile)
}

// VectorSpacePath returns the full path of the vector space artifact
func (a ArtifactsConfig) VectorSpacePath() string {
	return filepath.Join(a.Dir, a.VectorSpaceFile)
}

// RecommenderConfig bounds the result sizes served by the API
type RecommenderConfig struct {
	DefaultN int `env:"RECOMMENDER_DEFAULT_N,default=10" validate:"gt=0"`
	MaxN     int `env:"RECOMMENDER_MAX_N,default=100" validate:"gtefield=DefaultN"`
}

// ChatConfig holds conversational flow settings
type ChatConfig struct {
	PoolSize      int `env:"CHAT_POOL_SIZE,default=25" validate:"gt=0"`
	ShortlistSize int `env:"CHAT_SHORTLIST_SIZE,default=6" validate:"gt=0,ltefield=PoolSize"`
}

// SessionsConfig holds chat session persistence settings
type SessionsConfig struct {
	BadgerDir string        `env:"SESSIONS_BADGER_DIR,default=./data/sessions"`
	TTL       time.Duration `env:"SESSIONS_TTL,default=24h" validate:"gt=0"`
	InMemory  bool          `env:"SESSIONS_IN_MEMORY,default=false"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `env:"LOG_LEVEL,default=info" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `env:"LOG_FORMAT,default=text" validate:"oneof=text json"`
}

var validate = validator.New()

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	var cfg Config
	sections := []interface{}{
		&cfg.Server,
		&cfg.Artifacts,
		&cfg.Recommender,
		&cfg.Chat,
		&cfg.Sessions,
		&cfg.Log,
	}
	for _, section := range sections {
		if _, err := env.UnmarshalFromEnviron(section); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints across all sections
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !c.Sessions.InMemory && c.Sessions.BadgerDir == "" {
		return fmt.Errorf("invalid configuration: SESSIONS_BADGER_DIR is required unless SESSIONS_IN_MEMORY is set")
	}
	return nil
}
