package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server contains all runtime settings for the dmhub service.
type Server struct {
	BindAddr         string        `env:"DMHUB_BIND_ADDR" envDefault:":5000"`
	APIKey           string        `env:"DMHUB_API_KEY"`
	MetricsNamespace string        `env:"DMHUB_METRICS_NAMESPACE" envDefault:"dmhub"`
	ShutdownTimeout  time.Duration `env:"DMHUB_SHUTDOWN_TIMEOUT" envDefault:"15s"`

	StoreBackend string `env:"DMHUB_STORE" envDefault:"auto"`
	DatabaseURL  string `env:"DMHUB_DATABASE_URL"`
	SQLitePath   string `env:"DMHUB_SQLITE_PATH" envDefault:"dmhub.db"`

	NarratorMode    string `env:"DMHUB_NARRATOR" envDefault:"auto"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	NarratorModel   string `env:"DMHUB_NARRATOR_MODEL" envDefault:"claude-3-5-sonnet-latest"`

	// ContextLogChars bounds how much of the session log tail is fed back
	// into the narrator prompt on each turn.
	ContextLogChars int `env:"DMHUB_CONTEXT_LOG_CHARS" envDefault:"4000"`
}

// Client contains settings for the terminal play client.
type Client struct {
	ServerURL    string        `env:"DMHUB_SERVER_URL" envDefault:"http://127.0.0.1:5000"`
	APIKey       string        `env:"DMHUB_API_KEY"`
	CampaignID   int64         `env:"DMHUB_CAMPAIGN_ID" envDefault:"1"`
	WorldID      int64         `env:"DMHUB_WORLD_ID" envDefault:"1"`
	StartupWait  time.Duration `env:"DMHUB_STARTUP_WAIT" envDefault:"30s"`
	PollInterval time.Duration `env:"DMHUB_POLL_INTERVAL" envDefault:"5s"`
}

// LoadServer reads environment variables and validates them.
func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse server env: %w", err)
	}

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)

	if cfg.ShutdownTimeout <= 0 {
		return Server{}, fmt.Errorf("DMHUB_SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.ContextLogChars <= 0 {
		return Server{}, fmt.Errorf("DMHUB_CONTEXT_LOG_CHARS must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.StoreBackend)) {
	case "auto", "postgres", "sqlite", "memory":
	default:
		return Server{}, fmt.Errorf("invalid DMHUB_STORE: %q (expected auto|postgres|sqlite|memory)", cfg.StoreBackend)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.NarratorMode)) {
	case "auto", "anthropic", "mock":
	default:
		return Server{}, fmt.Errorf("invalid DMHUB_NARRATOR: %q (expected auto|anthropic|mock)", cfg.NarratorMode)
	}

	return cfg, nil
}

// LoadClient reads environment variables and validates them.
func LoadClient() (Client, error) {
	var cfg Client
	if err := env.Parse(&cfg); err != nil {
		return Client{}, fmt.Errorf("parse client env: %w", err)
	}

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)

	if cfg.CampaignID <= 0 {
		return Client{}, fmt.Errorf("DMHUB_CAMPAIGN_ID must be positive")
	}
	if cfg.WorldID <= 0 {
		return Client{}, fmt.Errorf("DMHUB_WORLD_ID must be positive")
	}
	if cfg.StartupWait <= 0 {
		return Client{}, fmt.Errorf("DMHUB_STARTUP_WAIT must be positive")
	}
	if cfg.PollInterval <= 0 {
		return Client{}, fmt.Errorf("DMHUB_POLL_INTERVAL must be positive")
	}

	return cfg, nil
}
