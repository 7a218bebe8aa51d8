package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	BaseURL  string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	HTTP     HTTPConfig
	GRPC     GRPCConfig
	Postgres PostgresConfig
	Auth     AuthConfig

	StorageDir     string        `envconfig:"STORAGE_DIR" default:"uploads"`
	HealthInterval time.Duration `envconfig:"HEALTH_INTERVAL" default:"15s"`
}

type HTTPConfig struct {
	Port         string        `envconfig:"PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

type GRPCConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// PostgresConfig is used when DB_DSN is empty.
type PostgresConfig struct {
	DSN      string `envconfig:"DB_DSN"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"eshop"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

func (p PostgresConfig) ConnString() string {
	if strings.TrimSpace(p.DSN) != "" {
		return p.DSN
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		p.Host, p.User, p.Password, p.Name, p.Port, p.SSLMode)
}

type AuthConfig struct {
	SessionKey         string   `envconfig:"SESSION_KEY" default:"dev-insecure"`
	AdminAPIKey        string   `envconfig:"ADMIN_API_KEY"`
	AdminSecret        string   `envconfig:"JWT_ADMIN_SECRET" default:"dev-admin-secret"`
	AdminAllowedEmails []string `envconfig:"ADMIN_ALLOWED_EMAILS"`
	GoogleClientID     string   `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string   `envconfig:"GOOGLE_CLIENT_SECRET"`
}

// AllowedAdmins returns the admin e-mail allow list, normalized.
func (a AuthConfig) AllowedAdmins() map[string]struct{} {
	out := map[string]struct{}{}
	for _, e := range a.AdminAllowedEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "", "dev", "development":
		return true
	}
	return false
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process configuration: %w", err)
	}
	if k := cfg.Auth.SessionKey; !cfg.IsDev() && (k == "" || k == "dev-insecure") {
		return nil, fmt.Errorf("SESSION_KEY must be set when APP_ENV=%s", cfg.AppEnv)
	}
	if s := cfg.Auth.AdminSecret; !cfg.IsDev() && (s == "" || s == "dev-admin-secret") {
		return nil, fmt.Errorf("JWT_ADMIN_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
	}
	return &cfg, nil
}
