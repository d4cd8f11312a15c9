package prompt

import (
	"strings"
	"testing"

	"github.com/x360-io/x360/pkg/protocol"
)

func sampleData() []map[string]any {
	return []map[string]any{
		{
			"id":       "TKT-101",
			"customer": "Globex Inc",
			"status":   "Closed",
			"priority": "High",
			"source":   "Salesforce",
		},
		{
			"id":       "TKT-101",
			"customer": "Globex Inc",
			"status":   "Pending Vendor",
			"priority": "High",
			"source":   "ServiceNow",
		},
	}
}

func TestBuildChatContextDeterministic(t *testing.T) {
	data := sampleData()
	briefing := map[string]any{"summary": "all calm", "items": []any{}}
	history := []protocol.ConversationTurn{
		{Role: "user", Content: "what's broken?"},
		{Role: "agent", Content: "nothing yet"},
	}

	first := BuildChatContext(data, briefing, history)
	for i := 0; i < 10; i++ {
		if got := BuildChatContext(data, briefing, history); got != first {
			t.Fatalf("call %d produced different bytes", i)
		}
	}
}

func TestBuildChatContextSections(t *testing.T) {
	ctx := BuildChatContext(sampleData(), map[string]any{"summary": "s"}, nil)

	for _, section := range []string{"CURRENT DATASET:", "LATEST BRIEFING:", "CONVERSATION HISTORY:"} {
		if !strings.Contains(ctx, section) {
			t.Errorf("missing section %q", section)
		}
	}
	if !strings.Contains(ctx, "TKT-101") {
		t.Error("dataset not serialized into context")
	}
}

func TestRenderHistoryOrderAndLabels(t *testing.T) {
	history := []protocol.ConversationTurn{
		{Role: "user", Content: "first"},
		{Role: "agent", Content: "second"},
		{Role: "user", Content: "third"},
		{Role: "model", Content: "fourth"}, // anything non-user is the agent
	}

	got := RenderHistory(history)
	want := "User: first\nAgent: second\nUser: third\nAgent: fourth"
	if got != want {
		t.Errorf("RenderHistory() = %q, want %q", got, want)
	}
}

func TestBuildChatPrompt(t *testing.T) {
	p := BuildChatPrompt("CTX", "hello")
	if !strings.HasSuffix(p, "USER: hello\n\nAGENT:") {
		t.Errorf("prompt = %q", p)
	}
	if !strings.HasPrefix(p, "CTX") {
		t.Errorf("prompt should start with the context block")
	}
}

func TestBuildActionPromptHasNoHistory(t *testing.T) {
	p := BuildActionPrompt(sampleData(), "close TKT-101")
	if strings.Contains(p, "CONVERSATION HISTORY") {
		t.Error("action prompt must not carry conversation history")
	}
	if !strings.Contains(p, "USER COMMAND: close TKT-101") {
		t.Errorf("prompt = %q", p)
	}
	if !strings.Contains(p, "SYSTEM DATA:") {
		t.Error("action prompt must carry the data snapshot")
	}
}

func TestBuildBriefingPromptEmptySnapshot(t *testing.T) {
	p := BuildBriefingPrompt(nil)
	if !strings.Contains(p, `"summary"`) || !strings.Contains(p, `"items"`) {
		t.Error("briefing prompt must spell out the output shape")
	}
	if BuildBriefingPrompt(nil) != p {
		t.Error("briefing prompt must be deterministic")
	}
}

func TestStableJSONSortsKeys(t *testing.T) {
	m := map[string]any{"zebra": 1, "alpha": 2, "mid": 3}
	out := stableJSON(m)
	if strings.Index(out, "alpha") > strings.Index(out, "zebra") {
		t.Errorf("keys not sorted: %s", out)
	}
}
