// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Responder strategies.
const (
	ResponderRules  = "rules"
	ResponderOpenAI = "openai"
)

// Config holds all application configuration.
type Config struct {
	Port         string
	FrontendURL  string
	StoreBackend string
	DBPath       string
	SessionTTL   time.Duration
	SeedDemoUser bool
	Responder    ResponderConfig
	Simulator    SimulatorConfig
}

// ResponderConfig selects and parameterizes the reply strategy.
type ResponderConfig struct {
	Strategy string
	APIKey   string
	APIBase  string
	Model    string
	Timeout  time.Duration
}

// SimulatorConfig holds the simulated task and reply delays.
type SimulatorConfig struct {
	StartDelay    time.Duration
	CompleteDelay time.Duration
	ReplyDelay    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		FrontendURL:  getEnv("FRONTEND_URL", ""),
		StoreBackend: getEnv("STORE_BACKEND", StoreMemory),
		DBPath:       getEnv("DB_PATH", "./data/vetro.db"),
		SessionTTL:   getEnvDuration("SESSION_TTL", 24*time.Hour),
		SeedDemoUser: getEnvBool("SEED_DEMO_USER", true),
		Responder: ResponderConfig{
			Strategy: getEnv("RESPONDER", ResponderRules),
			APIKey:   getEnv("OPENAI_API_KEY", ""),
			APIBase:  getEnv("OPENAI_API_BASE", ""),
			Model:    getEnv("OPENAI_MODEL", ""),
			Timeout:  getEnvDuration("RESPONDER_TIMEOUT", 30*time.Second),
		},
		Simulator: SimulatorConfig{
			StartDelay:    getEnvDuration("TASK_START_DELAY", 3*time.Second),
			CompleteDelay: getEnvDuration("TASK_COMPLETE_DELAY", 10*time.Second),
			ReplyDelay:    getEnvDuration("AGENT_REPLY_DELAY", 2*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.StoreBackend {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreMemory, StoreSQLite, c.StoreBackend)
	}
	if c.StoreBackend == StoreSQLite && c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty with the sqlite backend")
	}
	switch c.Responder.Strategy {
	case ResponderRules, ResponderOpenAI:
	default:
		return fmt.Errorf("RESPONDER must be %q or %q, got %q", ResponderRules, ResponderOpenAI, c.Responder.Strategy)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.Simulator.StartDelay < 0 || c.Simulator.CompleteDelay < 0 || c.Simulator.ReplyDelay < 0 {
		return fmt.Errorf("simulator delays cannot be negative")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
