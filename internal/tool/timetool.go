package tool

import (
	"context"
	"time"
)

// CurrentTimeTool reports the current time so briefing runs can judge
// overdue and due-today deadlines. Now is injectable for tests; when nil,
// time.Now is used.
type CurrentTimeTool struct {
	Now func() time.Time
}

func (t *CurrentTimeTool) Name() string { return "current_time" }
func (t *CurrentTimeTool) Description() string {
	return "Get the current date and time in ISO 8601 format"
}
func (t *CurrentTimeTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *CurrentTimeTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return now().UTC().Format(time.RFC3339), nil
}
