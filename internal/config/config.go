package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Source   SourceConfig      `mapstructure:"source"`
	Scan     ScanConfig        `mapstructure:"scan"`
	Stake    StakeConfig       `mapstructure:"stake"`
	Dedup    DedupConfig       `mapstructure:"dedup"`
	Telegram TelegramConfig    `mapstructure:"telegram"`
	Routing  RoutingConfig     `mapstructure:"routing"`
	Mirrors  map[string]string `mapstructure:"mirrors"`
	Journal  JournalConfig     `mapstructure:"journal"`
	Metrics  MetricsConfig     `mapstructure:"metrics"`
	Logging  LoggingConfig     `mapstructure:"logging"`
}

// SourceConfig holds feed site access configuration
type SourceConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Headless bool   `mapstructure:"headless"`
}

// ScanConfig holds scan loop behavior configuration
type ScanConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	NavTimeout     time.Duration `mapstructure:"nav_timeout"`
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout"`
	RestartDelay   time.Duration `mapstructure:"restart_delay"`
	FreshMarkers   []string      `mapstructure:"fresh_markers"`
	RequireFresh   bool          `mapstructure:"require_fresh"`
}

// StakeConfig holds stake allocation configuration
type StakeConfig struct {
	Bankroll float64 `mapstructure:"bankroll"`
}

// DedupConfig holds duplicate suppression configuration
type DedupConfig struct {
	Mode          string        `mapstructure:"mode"`
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
	MaxEntries    int           `mapstructure:"max_entries"`
}

// TelegramConfig holds Telegram delivery configuration
type TelegramConfig struct {
	APIBaseURL     string `mapstructure:"api_base_url"`
	BotToken       string `mapstructure:"bot_token"`
	ChatID         string `mapstructure:"chat_id"`
	ControlEnabled bool   `mapstructure:"control_enabled"`
}

// RoutingRule binds a bookmaker keyword to a destination chat
type RoutingRule struct {
	Keyword string `mapstructure:"keyword"`
	ChatID  string `mapstructure:"chat_id"`
}

// RoutingConfig holds channel routing configuration
type RoutingConfig struct {
	Rules           []RoutingRule `mapstructure:"rules"`
	CategoryDefault string        `mapstructure:"category_default"`
}

// JournalConfig holds delivery journal configuration
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
	MaxRows int    `mapstructure:"max_rows"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("ARBSCAN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Source defaults
	v.SetDefault("source.headless", true)

	// Scan defaults
	v.SetDefault("scan.interval", "10s")
	v.SetDefault("scan.nav_timeout", "120s")
	v.SetDefault("scan.resolve_timeout", "15s")
	v.SetDefault("scan.restart_delay", "10s")
	v.SetDefault("scan.fresh_markers", []string{"сек", "sec"})
	v.SetDefault("scan.require_fresh", true)

	// Stake defaults
	v.SetDefault("stake.bankroll", 100.0)

	// Dedup defaults
	v.SetDefault("dedup.mode", "ttl")
	v.SetDefault("dedup.retention", "48h")
	v.SetDefault("dedup.sweep_interval", "6h")
	v.SetDefault("dedup.cooldown", "70s")
	v.SetDefault("dedup.max_entries", 50000)

	// Telegram defaults
	v.SetDefault("telegram.api_base_url", "https://api.telegram.org")
	v.SetDefault("telegram.control_enabled", false)

	// Journal defaults
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.db_path", "./data/arbscan.db")
	v.SetDefault("journal.max_rows", 100000)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9120")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Source config
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if u, err := url.Parse(c.Source.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("source.base_url must be an absolute URL")
	}
	if c.Source.Email == "" {
		return fmt.Errorf("source.email is required")
	}
	if c.Source.Password == "" {
		return fmt.Errorf("source.password is required")
	}

	// Validate Scan config
	if c.Scan.Interval < time.Second {
		return fmt.Errorf("scan.interval must be at least 1 second")
	}
	if c.Scan.ResolveTimeout < time.Second {
		return fmt.Errorf("scan.resolve_timeout must be at least 1 second")
	}
	if c.Scan.RestartDelay < time.Second {
		return fmt.Errorf("scan.restart_delay must be at least 1 second")
	}

	// Validate Stake config
	if c.Stake.Bankroll <= 0 {
		return fmt.Errorf("stake.bankroll must be positive")
	}

	// Validate Dedup config
	switch c.Dedup.Mode {
	case "ttl":
		if c.Dedup.Retention < time.Minute {
			return fmt.Errorf("dedup.retention must be at least 1 minute")
		}
		if c.Dedup.SweepInterval < time.Minute {
			return fmt.Errorf("dedup.sweep_interval must be at least 1 minute")
		}
	case "cooldown":
		if c.Dedup.Cooldown < time.Second {
			return fmt.Errorf("dedup.cooldown must be at least 1 second")
		}
		if c.Dedup.MaxEntries < 1 {
			return fmt.Errorf("dedup.max_entries must be at least 1")
		}
	default:
		return fmt.Errorf("dedup.mode must be one of: ttl, cooldown")
	}

	// Validate Telegram config
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" && len(c.Routing.Rules) == 0 && c.Routing.CategoryDefault == "" {
		return fmt.Errorf("telegram.chat_id is required when no routing rules are configured")
	}

	// Validate Routing config
	for i, r := range c.Routing.Rules {
		if r.Keyword == "" {
			return fmt.Errorf("routing.rules[%d].keyword is required", i)
		}
		if r.ChatID == "" {
			return fmt.Errorf("routing.rules[%d].chat_id is required", i)
		}
	}

	// Validate Journal config
	if c.Journal.Enabled && c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required when journal is enabled")
	}

	// Validate Metrics config
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen is required when metrics are enabled")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
