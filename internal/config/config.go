package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"apptrack/internal/model"
)

// StatusConfig is one entry of the configurable status vocabulary.
type StatusConfig struct {
	Label string `yaml:"label"`
	Stage string `yaml:"stage"`
}

// TelegramConfig enables the daily digest when a token is present.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// Config keeps runtime settings for the tracker.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`
	LogLevel   string `yaml:"log_level"`
	LogPretty  bool   `yaml:"log_pretty"`

	// DigestSpec is a cron spec for the daily pacing digest.
	// Ignored unless Telegram is configured.
	DigestSpec string         `yaml:"digest_spec"`
	Telegram   TelegramConfig `yaml:"telegram"`

	Cycles       []string       `yaml:"cycles"`
	DefaultCycle string         `yaml:"default_cycle"`
	Tags         []string       `yaml:"tags"`
	Statuses     []StatusConfig `yaml:"statuses"`
}

// Load reads the optional YAML config file (path from APPTRACK_CONFIG)
// and applies environment overrides on top. A missing file is not an
// error; defaults reproduce the stock vocabularies.
func Load() (Config, error) {
	cfg := defaults()

	path := strings.TrimSpace(os.Getenv("APPTRACK_CONFIG"))
	if path == "" {
		path = "apptrack.yaml"
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		ListenAddr:   ":8080",
		DataDir:      "data",
		LogLevel:     "info",
		DigestSpec:   "0 21 * * *",
		Cycles:       []string{"Summer 2024", "Summer 2025"},
		DefaultCycle: "Summer 2025",
		Tags: []string{
			"❤️ Favorite",
			"🌐 Remote",
			"🦸 Hybrid",
			"✈️ Abroad",
		},
		Statuses: []StatusConfig{
			{Label: "🕒 Pending", Stage: "pending"},
			{Label: "🗣️ Interview", Stage: "in_progress"},
			{Label: "👎 Rejected After Interview", Stage: "rejected"},
			{Label: "⛔ Straight Rejection", Stage: "rejected"},
			{Label: "💸 Offer", Stage: "offer"},
			{Label: "🎉 Accepted Offer", Stage: "accepted"},
		},
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("APPTRACK_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("APPTRACK_DATA_DIR")); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("APPTRACK_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("APPTRACK_TELEGRAM_TOKEN")); v != "" {
		cfg.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("APPTRACK_TELEGRAM_CHAT_ID")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
}

func (c Config) validate() error {
	if len(c.Statuses) == 0 {
		return fmt.Errorf("config: at least one status is required")
	}
	for _, s := range c.Statuses {
		if s.Label == "" {
			return fmt.Errorf("config: status with empty label")
		}
		if !model.KnownStage(model.Stage(s.Stage)) {
			return fmt.Errorf("config: status %q has unknown stage %q", s.Label, s.Stage)
		}
	}
	if c.DefaultCycle != "" && !containsFold(c.Cycles, c.DefaultCycle) {
		return fmt.Errorf("config: default cycle %q is not in cycles", c.DefaultCycle)
	}
	return nil
}

// Vocabulary converts the configured statuses and tags into the form
// the store and metrics engine consume.
func (c Config) Vocabulary() model.Vocabulary {
	statuses := make([]model.StatusDef, len(c.Statuses))
	for i, s := range c.Statuses {
		statuses[i] = model.StatusDef{Label: s.Label, Stage: model.Stage(s.Stage)}
	}
	return model.Vocabulary{Statuses: statuses, Tags: c.Tags}
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
