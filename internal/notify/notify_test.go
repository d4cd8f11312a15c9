package notify

import "testing"

func TestPrefixFor(t *testing.T) {
	tests := []struct {
		priority string
		want     string
	}{
		{"urgent", "🚨 "},
		{"critical", "🚨 "},
		{"high", "⚠️ "},
		{"normal", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := prefixFor(tt.priority); got != tt.want {
			t.Errorf("prefixFor(%q) = %q, want %q", tt.priority, got, tt.want)
		}
	}
}

func TestNewSlackRequiresToken(t *testing.T) {
	if _, err := NewSlack("", "#ops", nil); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestNewTelegramRequiresToken(t *testing.T) {
	if _, err := NewTelegram("", 0, nil); err == nil {
		t.Error("expected error for empty token")
	}
}
