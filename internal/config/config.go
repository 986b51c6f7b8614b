package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	apperrors "github.com/jrsteele09/recharge-dashboard/internal/errors"
)

const envPrefix = "DASHBOARD_"

// Storage backends
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Config holds the dashboard client configuration.
// Every variable is read with the DASHBOARD_ prefix, e.g. DASHBOARD_API_BASE_URL.
type Config struct {
	Env         string `env:"ENV" envDefault:"DEV"`
	AppName     string `env:"APP_NAME" envDefault:"Recharge Dashboard"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:""`

	API     APIConfig
	Session SessionConfig
	Storage StorageConfig
}

// APIConfig describes the REST backend.
type APIConfig struct {
	BaseURL        string        `env:"API_BASE_URL" envDefault:"http://localhost:8080/api"`
	RequestTimeout time.Duration `env:"API_REQUEST_TIMEOUT" envDefault:"30s"`
}

// SessionConfig carries the session timers. GraceWindow and HydrationDelay guard the same
// startup race from two layers and both must stay positive.
type SessionConfig struct {
	GraceWindow    time.Duration `env:"SESSION_GRACE_WINDOW" envDefault:"2s"`
	HydrationDelay time.Duration `env:"SESSION_HYDRATION_DELAY" envDefault:"100ms"`
	RedirectReset  time.Duration `env:"SESSION_REDIRECT_RESET" envDefault:"1s"`
}

// StorageConfig selects where credentials persist between runs.
type StorageConfig struct {
	Backend     string `env:"STORAGE_BACKEND" envDefault:"file"`
	FilePath    string `env:"STORAGE_FILE" envDefault:"./data/storage.json"`
	DatabaseURL string `env:"STORAGE_DATABASE_URL" envDefault:""`
	Namespace   string `env:"STORAGE_NAMESPACE" envDefault:"default"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	// A missing .env file is the normal case.
	_ = godotenv.Load()

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "parse environment: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot express as struct tags.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("API_BASE_URL must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.RequestTimeout <= 0 {
		return invalid("API_REQUEST_TIMEOUT must be > 0")
	}
	if c.Session.GraceWindow <= 0 {
		return invalid("SESSION_GRACE_WINDOW must be > 0")
	}
	if c.Session.HydrationDelay <= 0 {
		return invalid("SESSION_HYDRATION_DELAY must be > 0")
	}
	if c.Session.RedirectReset <= 0 {
		return invalid("SESSION_REDIRECT_RESET must be > 0")
	}

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageFile:
		if strings.TrimSpace(c.Storage.FilePath) == "" {
			return invalid("STORAGE_FILE must not be empty for the file backend")
		}
	case StoragePostgres:
		if strings.TrimSpace(c.Storage.DatabaseURL) == "" {
			return invalid("STORAGE_DATABASE_URL must not be empty for the postgres backend")
		}
	default:
		return invalid("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Namespace) == "" {
		return invalid("STORAGE_NAMESPACE must not be empty")
	}
	return nil
}

// IsDev reports whether the client runs in the development environment.
func (c *Config) IsDev() bool {
	return strings.EqualFold(c.Env, "DEV")
}
