package runner

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/x360-io/x360/internal/tool"
	"github.com/x360-io/x360/pkg/protocol"
)

// mockProvider is a test provider that returns a sequence of responses.
type mockProvider struct {
	responses []*protocol.ChatResponse
	callIdx   int
	calls     []protocol.ChatRequest // recorded requests
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Chat(_ context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error) {
	m.calls = append(m.calls, req)
	if m.callIdx >= len(m.responses) {
		return nil, fmt.Errorf("mock: no more responses (call %d)", m.callIdx)
	}
	resp := m.responses[m.callIdx]
	m.callIdx++
	return resp, nil
}

// echoTool returns its "text" parameter.
type echoTool struct{}

func (t *echoTool) Name() string        { return "echo" }
func (t *echoTool) Description() string { return "Echo text" }
func (t *echoTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{
		"text": map[string]any{"type": "string"},
	}}
}
func (t *echoTool) Execute(_ context.Context, params map[string]any) (string, error) {
	v, _ := params["text"].(string)
	return v, nil
}

// failTool always errors.
type failTool struct{}

func (t *failTool) Name() string               { return "fail" }
func (t *failTool) Description() string        { return "Always fails" }
func (t *failTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (t *failTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	return "", fmt.Errorf("boom")
}

func TestRunDirectResponse(t *testing.T) {
	prov := &mockProvider{
		responses: []*protocol.ChatResponse{
			{Content: "Hello!"},
		},
	}
	r := New("test", prov, tool.NewRegistry())

	result, err := r.Run(context.Background(), "You are a test agent.", "Hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "Hello!" {
		t.Errorf("expected 'Hello!', got %q", result.Text)
	}
	if len(prov.calls) != 1 {
		t.Errorf("expected 1 provider call, got %d", len(prov.calls))
	}

	msgs := prov.calls[0].Messages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "system" {
		t.Errorf("expected system message first, got %q", msgs[0].Role)
	}
	if result.Trace == nil || result.Trace.Name != "test" {
		t.Errorf("trace root = %+v", result.Trace)
	}
	if len(result.Trace.Children) != 0 {
		t.Errorf("expected no trace children without tool calls")
	}
}

func TestRunToolCallCycle(t *testing.T) {
	prov := &mockProvider{
		responses: []*protocol.ChatResponse{
			{ToolCalls: []protocol.ToolCall{
				{ID: "c1", Name: "echo", Arguments: map[string]any{"text": "ping"}},
			}},
			{Content: "done"},
		},
	}
	r := New("chat", prov, tool.NewRegistry(&echoTool{}))

	result, err := r.Run(context.Background(), "sys", "go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "done" {
		t.Errorf("got %q, want %q", result.Text, "done")
	}
	if len(prov.calls) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(prov.calls))
	}

	// Second request must carry the assistant tool call and the tool result.
	msgs := prov.calls[1].Messages
	last := msgs[len(msgs)-1]
	if last.Role != "tool" || last.Content != "ping" || last.ToolCallID != "c1" {
		t.Errorf("tool result message = %+v", last)
	}

	// The trace records the tool invocation with its output.
	if len(result.Trace.Children) != 1 {
		t.Fatalf("expected 1 trace child, got %d", len(result.Trace.Children))
	}
	child := result.Trace.Children[0]
	if child.Name != "echo" || child.Text() != "ping" {
		t.Errorf("trace child = %q / %q", child.Name, child.Text())
	}
}

func TestRunToolErrorRecovers(t *testing.T) {
	prov := &mockProvider{
		responses: []*protocol.ChatResponse{
			{ToolCalls: []protocol.ToolCall{{ID: "c1", Name: "fail"}}},
			{Content: "recovered"},
		},
	}
	r := New("chat", prov, tool.NewRegistry(&failTool{}))

	result, err := r.Run(context.Background(), "sys", "go")
	if err != nil {
		t.Fatalf("tool error must not abort the run: %v", err)
	}
	if result.Text != "recovered" {
		t.Errorf("got %q", result.Text)
	}

	msgs := prov.calls[1].Messages
	last := msgs[len(msgs)-1]
	if !strings.HasPrefix(last.Content, "Error:") {
		t.Errorf("tool error not surfaced to model: %q", last.Content)
	}
	if got := result.Trace.Children[0].Text(); !strings.HasPrefix(got, "Error:") {
		t.Errorf("trace text = %q", got)
	}
}

func TestRunMaxIterations(t *testing.T) {
	// Provider keeps asking for tools forever.
	responses := make([]*protocol.ChatResponse, 5)
	for i := range responses {
		responses[i] = &protocol.ChatResponse{ToolCalls: []protocol.ToolCall{
			{ID: fmt.Sprintf("c%d", i), Name: "echo", Arguments: map[string]any{"text": "x"}},
		}}
	}
	prov := &mockProvider{responses: responses}
	r := New("loop", prov, tool.NewRegistry(&echoTool{}))
	r.MaxIterations = 3

	if _, err := r.Run(context.Background(), "sys", "go"); err == nil {
		t.Fatal("expected max iterations error")
	}
	if len(prov.calls) != 3 {
		t.Errorf("expected 3 provider calls, got %d", len(prov.calls))
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prov := &mockProvider{}
	r := New("test", prov, tool.NewRegistry())
	if _, err := r.Run(ctx, "sys", "go"); err == nil {
		t.Fatal("expected context error")
	}
	if len(prov.calls) != 0 {
		t.Errorf("provider should not be called after cancellation")
	}
}
