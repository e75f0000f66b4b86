package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/postgrade/pkg/controversy"
	"github.com/elonfeng/postgrade/pkg/score"
)

// clearEnv unsets every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DB_PATH", "PORT", "LOG_LEVEL", "LOG_FILE", "MIN_RISK_LEVEL", "NITTER_URL",
		"SLACK_WEBHOOK_URL", "DISCORD_WEBHOOK_URL", "WEBHOOK_URL", "WEBHOOK_SECRET",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		for _, name := range []string{key, EnvPrefix + "_" + key} {
			// Setenv registers the restore; an empty value would still count as set.
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "postgrade.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./postgrade.db", cfg.Database.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, score.DefaultWeights(), cfg.Scoring)
	assert.Equal(t, score.DefaultUserContext(), cfg.User)
	assert.Equal(t, controversy.RiskRisky, cfg.Alerts.MinLevel())
	assert.Equal(t, 10*time.Minute, cfg.Watch.ParseInterval())
	assert.False(t, cfg.Review.Enabled)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
database:
  path: /tmp/pg.db
scoring:
  risk:
    budget: 20
    link_penalty: 12
user:
  follower_count: 12000
  is_premium: true
watch:
  interval: 2m
  feeds:
    - name: drafts
      url: https://example.com/drafts.xml
  filter:
    exclude: [giveaway]
alerts:
  min_risk_level: caution
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/pg.db", cfg.Database.Path)
	assert.Equal(t, 20.0, cfg.Scoring.Risk.Budget)
	assert.Equal(t, 12.0, cfg.Scoring.Risk.LinkPenalty)
	// untouched fields keep their defaults
	assert.Equal(t, 4.0, cfg.Scoring.Risk.PremiumLinkPenalty)
	assert.Equal(t, 25.0, cfg.Scoring.Content.Max)

	assert.Equal(t, 12000, cfg.User.FollowerCount)
	assert.True(t, cfg.User.IsPremium)
	assert.Equal(t, 2*time.Minute, cfg.Watch.ParseInterval())
	require.Len(t, cfg.Watch.Feeds, 1)
	assert.Equal(t, "drafts", cfg.Watch.Feeds[0].Name)
	assert.Equal(t, []string{"giveaway"}, cfg.Watch.Filter.Exclude)
	assert.Equal(t, controversy.RiskCaution, cfg.Alerts.MinLevel())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRADE_DB_PATH", "/data/env.db")
	t.Setenv("POSTGRADE_PORT", "9090")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.test/x")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/data/env.db", cfg.Database.Path)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Alerts.Slack.Enabled)
	assert.Equal(t, "https://hooks.slack.test/x", cfg.Alerts.Slack.WebhookURL)
	assert.True(t, cfg.Review.Enabled)
	assert.Equal(t, "anthropic", cfg.Review.Provider)
	assert.Equal(t, "sk-ant-test", cfg.Review.APIKey)
	assert.Equal(t, "claude-haiku-4-5", cfg.Review.Model)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeConfig(t, "database: [oops"))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(writeConfig(t, "alerts:\n  min_risk_level: apocalyptic\n"))
	assert.ErrorContains(t, err, "min_risk_level")

	_, err = Load(writeConfig(t, "review:\n  provider: gemini\n"))
	assert.ErrorContains(t, err, "review.provider")
}

func TestWatchConfig_ParseIntervalFallback(t *testing.T) {
	assert.Equal(t, 10*time.Minute, WatchConfig{Interval: "soon"}.ParseInterval())
	assert.Equal(t, 10*time.Minute, WatchConfig{Interval: "-5m"}.ParseInterval())
	assert.Equal(t, 30*time.Second, WatchConfig{Interval: "30s"}.ParseInterval())
}
