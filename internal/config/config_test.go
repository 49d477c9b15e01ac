package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.StoreBackend != StoreMemory {
		t.Errorf("Expected default memory store, got %s", cfg.StoreBackend)
	}
	if cfg.Responder.Strategy != ResponderRules {
		t.Errorf("Expected default rules responder, got %s", cfg.Responder.Strategy)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("Expected default 24h session TTL, got %v", cfg.SessionTTL)
	}
	if !cfg.SeedDemoUser {
		t.Error("Expected demo user seeding on by default")
	}
	if cfg.Simulator.StartDelay != 3*time.Second || cfg.Simulator.CompleteDelay != 10*time.Second || cfg.Simulator.ReplyDelay != 2*time.Second {
		t.Errorf("Unexpected default simulator delays: %+v", cfg.Simulator)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("RESPONDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("SEED_DEMO_USER", "false")
	t.Setenv("TASK_START_DELAY", "500ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", cfg.Port)
	}
	if cfg.StoreBackend != StoreSQLite || cfg.DBPath != "/tmp/test.db" {
		t.Errorf("Store config not applied: %s %s", cfg.StoreBackend, cfg.DBPath)
	}
	if cfg.Responder.Strategy != ResponderOpenAI || cfg.Responder.APIKey != "sk-test" {
		t.Errorf("Responder config not applied: %+v", cfg.Responder)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("Expected 1h TTL, got %v", cfg.SessionTTL)
	}
	if cfg.SeedDemoUser {
		t.Error("Expected demo user seeding disabled")
	}
	if cfg.Simulator.StartDelay != 500*time.Millisecond {
		t.Errorf("Expected 500ms start delay, got %v", cfg.Simulator.StartDelay)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown store backend")
	}
}

func TestLoadRejectsUnknownResponder(t *testing.T) {
	t.Setenv("RESPONDER", "llama")
	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown responder strategy")
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		frontendURL string
		want        bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:3000", true},
		{"https://vetroai.com", false},
	}
	for _, tt := range tests {
		c := &Config{FrontendURL: tt.frontendURL}
		if got := c.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment(%q) = %v, want %v", tt.frontendURL, got, tt.want)
		}
	}
}

func TestGetEnvDurationFallback(t *testing.T) {
	t.Setenv("SESSION_TTL", "not-a-duration")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("Expected fallback TTL on bad value, got %v", cfg.SessionTTL)
	}
}
