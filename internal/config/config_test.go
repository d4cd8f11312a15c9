package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	path := writeConfig(t, `{
		"core": {"data_dir": "/tmp/x360"},
		"providers": {
			"default": {"type": "anthropic", "api_key": "sk-test", "model": "claude-sonnet-4-20250514"}
		},
		"kb": {"dir": "docs", "min_score": 0.4, "max_results": 5},
		"briefing": {"schedule": "0 6 * * *"},
		"api": {"host": "127.0.0.1", "port": 9090, "api_key": "secret"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Core.DataDir != "/tmp/x360" {
		t.Errorf("data_dir = %q", cfg.Core.DataDir)
	}
	if cfg.KB.MinScore != 0.4 || cfg.KB.MaxResults != 5 {
		t.Errorf("kb = %+v", cfg.KB)
	}
	if cfg.Briefing.Schedule != "0 6 * * *" {
		t.Errorf("schedule = %q", cfg.Briefing.Schedule)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("port = %d", cfg.API.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing data dir",
			content: `{"providers": {"default": {"api_key": "k", "model": "m"}}}`,
			wantErr: "core.data_dir is required",
		},
		{
			name:    "no providers",
			content: `{"core": {"data_dir": "/d"}}`,
			wantErr: "at least one provider is required",
		},
		{
			name:    "provider missing key",
			content: `{"core": {"data_dir": "/d"}, "providers": {"p": {"model": "m"}}}`,
			wantErr: "providers.p.api_key is required",
		},
		{
			name:    "unknown default provider",
			content: `{"core": {"data_dir": "/d", "default_provider": "nope"}, "providers": {"p": {"api_key": "k", "model": "m"}}}`,
			wantErr: `unknown provider "nope"`,
		},
		{
			name:    "bad role",
			content: `{"core": {"data_dir": "/d"}, "providers": {"p": {"api_key": "k", "model": "m"}}, "roles": [{"role": "oracle"}]}`,
			wantErr: "not briefing, chat, or action",
		},
		{
			name:    "bad min score",
			content: `{"core": {"data_dir": "/d"}, "providers": {"p": {"api_key": "k", "model": "m"}}, "kb": {"min_score": 1.5}}`,
			wantErr: "kb.min_score",
		},
		{
			name:    "slack without token",
			content: `{"core": {"data_dir": "/d"}, "providers": {"p": {"api_key": "k", "model": "m"}}, "notify": {"slack": {"default_channel": "#ops"}}}`,
			wantErr: "notify.slack.token is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("X360_DATA_DIR", "/var/x360")
	t.Setenv("X360_ANTHROPIC_API_KEY", "sk-env")
	t.Setenv("X360_KB_MIN_SCORE", "0.3")
	t.Setenv("X360_BRIEFING_SCHEDULE", "@hourly")
	t.Setenv("X360_TELEGRAM_TOKEN", "tg-token")
	t.Setenv("X360_TELEGRAM_CHAT_ID", "42")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Core.DataDir != "/var/x360" {
		t.Errorf("data_dir = %q", cfg.Core.DataDir)
	}
	p, ok := cfg.Providers["default"]
	if !ok || p.Type != "anthropic" || p.APIKey != "sk-env" {
		t.Errorf("provider = %+v", p)
	}
	if cfg.KB.MinScore != 0.3 {
		t.Errorf("min_score = %v", cfg.KB.MinScore)
	}
	if cfg.Briefing.Schedule != "@hourly" {
		t.Errorf("schedule = %q", cfg.Briefing.Schedule)
	}
	if cfg.Notify.Telegram == nil || cfg.Notify.Telegram.DefaultChatID != 42 {
		t.Errorf("telegram = %+v", cfg.Notify.Telegram)
	}
}

func TestLoadFromEnvBadChatID(t *testing.T) {
	t.Setenv("X360_TELEGRAM_TOKEN", "tg")
	t.Setenv("X360_TELEGRAM_CHAT_ID", "not-a-number")
	if _, err := LoadFromEnv(); err == nil {
		t.Error("expected error for invalid chat id")
	}
}
