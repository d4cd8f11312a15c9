package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/x360-io/x360/pkg/protocol"
)

// Config is the top-level x360 configuration.
type Config struct {
	Core      CoreConfig                `json:"core"`
	Providers map[string]ProviderConfig `json:"providers"`
	Roles     []protocol.RoleSpec       `json:"roles,omitempty"`
	KB        KBConfig                  `json:"kb"`
	Notify    NotifyConfig              `json:"notify"`
	Briefing  BriefingConfig            `json:"briefing"`
	API       APIConfig                 `json:"api"`
}

// CoreConfig holds daemon-level settings.
type CoreConfig struct {
	DataDir         string `json:"data_dir"`
	DatasetFile     string `json:"dataset_file,omitempty"` // JSON tickets, "" = built-in demo data
	DefaultProvider string `json:"default_provider,omitempty"`
}

// ProviderConfig holds LLM provider settings.
type ProviderConfig struct {
	Type    string `json:"type,omitempty"` // "openai" (default) or "anthropic"
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model"`
}

// KBConfig holds knowledge base settings.
type KBConfig struct {
	Dir        string  `json:"dir"`
	MinScore   float64 `json:"min_score,omitempty"`   // 0 = default
	MaxResults int     `json:"max_results,omitempty"` // 0 = default
}

// NotifyConfig holds outbound notification sink settings.
type NotifyConfig struct {
	Slack    *SlackConfig    `json:"slack,omitempty"`
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

// SlackConfig holds Slack sink settings.
type SlackConfig struct {
	Token          string `json:"token"`
	DefaultChannel string `json:"default_channel,omitempty"`
}

// TelegramConfig holds Telegram sink settings.
type TelegramConfig struct {
	Token         string `json:"token"`
	DefaultChatID int64  `json:"default_chat_id,omitempty"`
}

// BriefingConfig holds the scheduled briefing settings.
type BriefingConfig struct {
	Schedule string `json:"schedule,omitempty"` // cron expression, "" = disabled
}

// APIConfig holds REST API server settings.
type APIConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Key  string `json:"api_key"`
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv builds a minimal config from environment variables with X360_ prefix.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Core: CoreConfig{
			DataDir:     getenv("X360_DATA_DIR", "/data"),
			DatasetFile: os.Getenv("X360_DATASET_FILE"),
		},
		Providers: make(map[string]ProviderConfig),
		KB: KBConfig{
			Dir:        getenv("X360_KB_DIR", "docs"),
			MinScore:   getenvFloat("X360_KB_MIN_SCORE", 0),
			MaxResults: getenvInt("X360_KB_MAX_RESULTS", 0),
		},
		Briefing: BriefingConfig{
			Schedule: os.Getenv("X360_BRIEFING_SCHEDULE"),
		},
		API: APIConfig{
			Host: getenv("X360_API_HOST", "0.0.0.0"),
			Port: getenvInt("X360_API_PORT", 8080),
			Key:  os.Getenv("X360_API_KEY"),
		},
	}

	if apiKey := os.Getenv("X360_ANTHROPIC_API_KEY"); apiKey != "" {
		cfg.Providers["default"] = ProviderConfig{
			Type:   "anthropic",
			APIKey: apiKey,
			Model:  getenv("X360_MODEL", "claude-sonnet-4-20250514"),
		}
	} else if apiKey := os.Getenv("X360_OPENAI_API_KEY"); apiKey != "" {
		cfg.Providers["default"] = ProviderConfig{
			Type:    "openai",
			APIKey:  apiKey,
			BaseURL: os.Getenv("X360_OPENAI_BASE_URL"),
			Model:   getenv("X360_MODEL", "gpt-4o"),
		}
	}

	if token := os.Getenv("X360_SLACK_TOKEN"); token != "" {
		cfg.Notify.Slack = &SlackConfig{
			Token:          token,
			DefaultChannel: os.Getenv("X360_SLACK_CHANNEL"),
		}
	}
	if token := os.Getenv("X360_TELEGRAM_TOKEN"); token != "" {
		cfg.Notify.Telegram = &TelegramConfig{Token: token}
		if id := os.Getenv("X360_TELEGRAM_CHAT_ID"); id != "" {
			n, err := strconv.ParseInt(id, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("config: X360_TELEGRAM_CHAT_ID: invalid integer %q", id)
			}
			cfg.Notify.Telegram.DefaultChatID = n
		}
	}

	return cfg, nil
}

// Validate checks for required fields.
func (c *Config) Validate() error {
	var errs []string

	if c.Core.DataDir == "" {
		errs = append(errs, "core.data_dir is required")
	}

	if len(c.Providers) == 0 {
		errs = append(errs, "at least one provider is required")
	}
	for name, p := range c.Providers {
		if p.APIKey == "" {
			errs = append(errs, fmt.Sprintf("providers.%s.api_key is required", name))
		}
		if p.Model == "" {
			errs = append(errs, fmt.Sprintf("providers.%s.model is required", name))
		}
	}
	if c.Core.DefaultProvider != "" {
		if _, ok := c.Providers[c.Core.DefaultProvider]; !ok {
			errs = append(errs, fmt.Sprintf("core.default_provider references unknown provider %q", c.Core.DefaultProvider))
		}
	}

	for i, r := range c.Roles {
		if !validRole(r.Role) {
			errs = append(errs, fmt.Sprintf("roles[%d].role %q is not briefing, chat, or action", i, r.Role))
		}
		if r.Provider != "" {
			if _, ok := c.Providers[r.Provider]; !ok {
				errs = append(errs, fmt.Sprintf("roles[%d].provider references unknown provider %q", i, r.Provider))
			}
		}
	}

	if c.KB.MinScore < 0 || c.KB.MinScore > 1 {
		errs = append(errs, "kb.min_score must be between 0 and 1")
	}

	if c.Notify.Slack != nil && c.Notify.Slack.Token == "" {
		errs = append(errs, "notify.slack.token is required")
	}
	if c.Notify.Telegram != nil && c.Notify.Telegram.Token == "" {
		errs = append(errs, "notify.telegram.token is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// DefaultProviderName returns the provider roles fall back to.
func (c *Config) DefaultProviderName() string {
	if c.Core.DefaultProvider != "" {
		return c.Core.DefaultProvider
	}
	return "default"
}

func validRole(r protocol.Role) bool {
	switch r {
	case protocol.RoleBriefing, protocol.RoleChat, protocol.RoleAction:
		return true
	}
	return false
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
