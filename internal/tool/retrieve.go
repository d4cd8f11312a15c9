package tool

import (
	"context"
	"fmt"

	"github.com/x360-io/x360/internal/kb"
)

// RetrieveTool searches the knowledge base for documentation passages.
// Its output format (Score / Document ID / Metadata records) is load-bearing:
// the citation resolver parses it back out of the execution trace.
type RetrieveTool struct {
	KB *kb.Store
}

func (t *RetrieveTool) Name() string { return "retrieve" }
func (t *RetrieveTool) Description() string {
	return "Search documentation and best-practice guides. Use the 'text' parameter with your query."
}
func (t *RetrieveTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string", "description": "Search query"},
		},
		"required": []string{"text"},
	}
}

func (t *RetrieveTool) Execute(_ context.Context, params map[string]any) (string, error) {
	query := getString(params, "text")
	if query == "" {
		return "", fmt.Errorf("retrieve: text is required")
	}
	if t.KB == nil {
		return kb.FormatResults(nil), nil
	}
	return kb.FormatResults(t.KB.Search(query)), nil
}
