package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/elonfeng/postgrade/pkg/controversy"
	"github.com/elonfeng/postgrade/pkg/score"
)

// EnvPrefix prefixes every environment override, e.g. POSTGRADE_DB_PATH.
const EnvPrefix = "POSTGRADE"

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig    `yaml:"database"`
	Scoring  score.Weights     `yaml:"scoring"`
	User     score.UserContext `yaml:"user"`
	Server   ServerConfig      `yaml:"server"`
	Watch    WatchConfig       `yaml:"watch"`
	Alerts   AlertsConfig      `yaml:"alerts"`
	Review   ReviewConfig      `yaml:"review"`
	Logging  LoggingConfig     `yaml:"logging"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port"`
	// Persist stores every scored draft posted to /api/v1/score.
	Persist bool `yaml:"persist"`
}

// WatchConfig configures the feed watcher.
type WatchConfig struct {
	Interval string       `yaml:"interval"`
	Feeds    []FeedItem   `yaml:"feeds"`
	Nitter   NitterConfig `yaml:"nitter"`
	Filter   FilterConfig `yaml:"filter"`
}

// ParseInterval returns the watch interval as time.Duration.
func (w WatchConfig) ParseInterval() time.Duration {
	d, err := time.ParseDuration(w.Interval)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// FeedItem is a single RSS/Atom feed of drafts or posts.
type FeedItem struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// NitterConfig watches accounts through a Nitter instance's RSS.
type NitterConfig struct {
	Enabled  bool     `yaml:"enabled"`
	URL      string   `yaml:"url"`
	Accounts []string `yaml:"accounts"`
}

// FilterConfig narrows which watched posts get scored.
type FilterConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	// MinRiskLevel is the lowest controversy level that triggers an alert.
	MinRiskLevel string        `yaml:"min_risk_level"`
	Slack        SlackConfig   `yaml:"slack"`
	Discord      DiscordConfig `yaml:"discord"`
	Webhook      WebhookConfig `yaml:"webhook"`
}

// MinLevel returns the alert threshold as a RiskLevel.
func (a AlertsConfig) MinLevel() controversy.RiskLevel {
	return controversy.RiskLevel(a.MinRiskLevel)
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ReviewConfig configures the optional LLM review.
type ReviewConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // "openai" or "anthropic"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // custom endpoint (optional)
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./postgrade.db"},
		Scoring:  score.DefaultWeights(),
		User:     score.DefaultUserContext(),
		Server:   ServerConfig{Port: 8080},
		Watch: WatchConfig{
			Interval: "10m",
			Nitter: NitterConfig{
				URL: "https://nitter.net",
			},
		},
		Alerts: AlertsConfig{MinRiskLevel: string(controversy.RiskRisky)},
		Review: ReviewConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// envOverrides is filled by envconfig. Tagged fields are read from the
// prefixed name first and fall back to the bare tag, so OPENAI_API_KEY works
// as well as POSTGRADE_OPENAI_API_KEY.
type envOverrides struct {
	DBPath            string `envconfig:"DB_PATH"`
	Port              int    `envconfig:"PORT"`
	LogLevel          string `envconfig:"LOG_LEVEL"`
	LogFile           string `envconfig:"LOG_FILE"`
	MinRiskLevel      string `envconfig:"MIN_RISK_LEVEL"`
	NitterURL         string `envconfig:"NITTER_URL"`
	SlackWebhookURL   string `envconfig:"SLACK_WEBHOOK_URL"`
	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL"`
	WebhookURL        string `envconfig:"WEBHOOK_URL"`
	WebhookSecret     string `envconfig:"WEBHOOK_SECRET"`
	OpenAIAPIKey      string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey   string `envconfig:"ANTHROPIC_API_KEY"`
}

// Load reads configuration from a YAML file, then .env, then env var overrides.
// An empty path skips the file and starts from Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("process env: %w", err)
	}

	if env.DBPath != "" {
		cfg.Database.Path = env.DBPath
	}
	if env.Port != 0 {
		cfg.Server.Port = env.Port
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	if env.LogFile != "" {
		cfg.Logging.File = env.LogFile
	}
	if env.MinRiskLevel != "" {
		cfg.Alerts.MinRiskLevel = env.MinRiskLevel
	}
	if env.NitterURL != "" {
		cfg.Watch.Nitter.URL = env.NitterURL
	}
	if env.SlackWebhookURL != "" {
		cfg.Alerts.Slack.WebhookURL = env.SlackWebhookURL
		cfg.Alerts.Slack.Enabled = true
	}
	if env.DiscordWebhookURL != "" {
		cfg.Alerts.Discord.WebhookURL = env.DiscordWebhookURL
		cfg.Alerts.Discord.Enabled = true
	}
	if env.WebhookURL != "" {
		cfg.Alerts.Webhook.URL = env.WebhookURL
		cfg.Alerts.Webhook.Enabled = true
	}
	if env.WebhookSecret != "" {
		cfg.Alerts.Webhook.Secret = env.WebhookSecret
	}
	if env.OpenAIAPIKey != "" {
		cfg.Review.APIKey = env.OpenAIAPIKey
		cfg.Review.Enabled = true
		cfg.Review.Provider = "openai"
	}
	if env.AnthropicAPIKey != "" {
		cfg.Review.APIKey = env.AnthropicAPIKey
		cfg.Review.Enabled = true
		cfg.Review.Provider = "anthropic"
		if cfg.Review.Model == "gpt-4o-mini" {
			cfg.Review.Model = "claude-haiku-4-5"
		}
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Alerts.MinLevel() {
	case controversy.RiskSafe, controversy.RiskCaution, controversy.RiskRisky, controversy.RiskDangerous:
	default:
		return fmt.Errorf("alerts.min_risk_level %q is not one of safe, caution, risky, dangerous", c.Alerts.MinRiskLevel)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Scoring.Risk.Budget < 0 {
		return fmt.Errorf("scoring.risk.budget must not be negative")
	}
	switch c.Review.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("review.provider %q is not openai or anthropic", c.Review.Provider)
	}
	return nil
}
