package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port          int           `env:"PORT" envDefault:"4001"`
	Environment   string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	JWTSecret     string        `env:"JWT_SECRET,required,notEmpty"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	CORSOrigins   []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RootEmail     string        `env:"ROOT_EMAIL"`
	RootPassword  string        `env:"ROOT_PASSWORD"`
	UserTokenTTL  time.Duration `env:"USER_TOKEN_TTL" envDefault:"168h"`
	AdminTokenTTL time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"8h"`
	UploadDir     string        `env:"UPLOAD_DIR" envDefault:"./public/uploads/proofs"`
	UploadBaseURL string        `env:"UPLOAD_BASE_URL" envDefault:"/uploads/proofs"`
	UploadMaxSize int64         `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`
	MetricsUser   string        `env:"METRICS_USER"`
	MetricsPass   string        `env:"METRICS_PASS"`
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() {
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
	}
	if c.UserTokenTTL <= 0 || c.AdminTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.UploadMaxSize <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}
