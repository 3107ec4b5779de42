package config

import (
	"os"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoadAndValidate(t *testing.T) {
	content := `
source:
  base_url: "https://feed.example.com"
  email: "user@example.com"
  password: "secret"
  headless: true

scan:
  interval: 10s
  resolve_timeout: 15s

stake:
  bankroll: 250.0

dedup:
  mode: ttl
  retention: 48h
  sweep_interval: 6h

telegram:
  bot_token: "test_token"
  chat_id: "-100123"

routing:
  rules:
    - keyword: "pinnacle"
      chat_id: "-100pin"
  category_default: "-100misc"

mirrors:
  stake.com: "stake.bet"

journal:
  enabled: true
  db_path: "./data/test.db"

logging:
  level: "info"
  format: "text"
`
	cfg, err := Load(writeTempConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source.BaseURL != "https://feed.example.com" {
		t.Errorf("unexpected base_url: %q", cfg.Source.BaseURL)
	}
	if cfg.Scan.Interval != 10*time.Second {
		t.Errorf("unexpected scan interval: %v", cfg.Scan.Interval)
	}
	if cfg.Scan.ResolveTimeout != 15*time.Second {
		t.Errorf("unexpected resolve timeout: %v", cfg.Scan.ResolveTimeout)
	}
	if cfg.Stake.Bankroll != 250.0 {
		t.Errorf("unexpected bankroll: %v", cfg.Stake.Bankroll)
	}
	if cfg.Dedup.Retention != 48*time.Hour {
		t.Errorf("unexpected retention: %v", cfg.Dedup.Retention)
	}
	if len(cfg.Routing.Rules) != 1 || cfg.Routing.Rules[0].Keyword != "pinnacle" {
		t.Errorf("unexpected routing rules: %+v", cfg.Routing.Rules)
	}
	if cfg.Mirrors["stake.com"] != "stake.bet" {
		t.Errorf("unexpected mirrors: %+v", cfg.Mirrors)
	}
	if !cfg.Journal.Enabled || cfg.Journal.DBPath != "./data/test.db" {
		t.Errorf("unexpected journal config: %+v", cfg.Journal)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `
source:
  base_url: "https://feed.example.com"
  email: "u@example.com"
  password: "pw"

telegram:
  bot_token: "t"
  chat_id: "-1"
`
	cfg, err := Load(writeTempConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scan.Interval != 10*time.Second {
		t.Errorf("expected default scan interval 10s, got %v", cfg.Scan.Interval)
	}
	if cfg.Scan.NavTimeout != 120*time.Second {
		t.Errorf("expected default nav timeout 120s, got %v", cfg.Scan.NavTimeout)
	}
	if cfg.Dedup.Mode != "ttl" || cfg.Dedup.Retention != 48*time.Hour {
		t.Errorf("unexpected dedup defaults: %+v", cfg.Dedup)
	}
	if cfg.Dedup.Cooldown != 70*time.Second || cfg.Dedup.MaxEntries != 50000 {
		t.Errorf("unexpected cooldown defaults: %+v", cfg.Dedup)
	}
	if cfg.Telegram.APIBaseURL != "https://api.telegram.org" {
		t.Errorf("unexpected telegram api base: %q", cfg.Telegram.APIBaseURL)
	}
	if !cfg.Scan.RequireFresh {
		t.Error("expected require_fresh default true")
	}
	if len(cfg.Scan.FreshMarkers) == 0 {
		t.Error("expected default fresh markers")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed on defaults: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(writeTempConfig(t, `
source:
  base_url: "https://feed.example.com"
  email: "u@example.com"
  password: "pw"

telegram:
  bot_token: "t"
  chat_id: "-1"
`))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base_url", func(c *Config) { c.Source.BaseURL = "" }},
		{"relative base_url", func(c *Config) { c.Source.BaseURL = "feed.example.com" }},
		{"missing email", func(c *Config) { c.Source.Email = "" }},
		{"missing password", func(c *Config) { c.Source.Password = "" }},
		{"scan interval too small", func(c *Config) { c.Scan.Interval = 100 * time.Millisecond }},
		{"non-positive bankroll", func(c *Config) { c.Stake.Bankroll = 0 }},
		{"bad dedup mode", func(c *Config) { c.Dedup.Mode = "lru" }},
		{"cooldown mode without capacity", func(c *Config) {
			c.Dedup.Mode = "cooldown"
			c.Dedup.MaxEntries = 0
		}},
		{"missing bot token", func(c *Config) { c.Telegram.BotToken = "" }},
		{"no destination at all", func(c *Config) {
			c.Telegram.ChatID = ""
			c.Routing.Rules = nil
			c.Routing.CategoryDefault = ""
		}},
		{"rule without keyword", func(c *Config) {
			c.Routing.Rules = []RoutingRule{{ChatID: "-2"}}
		}},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
