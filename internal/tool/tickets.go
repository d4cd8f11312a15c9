package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// QueryTicketsTool finds specific tickets by ID within the request's data
// snapshot. It is bound per request because the snapshot arrives with the
// chat payload; duplicate IDs return every conflicting record.
type QueryTicketsTool struct {
	Data []map[string]any
}

func (t *QueryTicketsTool) Name() string { return "query_tickets" }
func (t *QueryTicketsTool) Description() string {
	return "Find specific tickets by ID from the current dataset, including conflicting records from different source systems"
}
func (t *QueryTicketsTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ticket_ids": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Ticket IDs to look up",
			},
		},
		"required": []string{"ticket_ids"},
	}
}

func (t *QueryTicketsTool) Execute(_ context.Context, params map[string]any) (string, error) {
	ids := getStringSlice(params, "ticket_ids")
	if len(ids) == 0 {
		return "", fmt.Errorf("query_tickets: ticket_ids is required")
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	matches := make([]map[string]any, 0)
	for _, rec := range t.Data {
		if id, ok := rec["id"].(string); ok && wanted[id] {
			matches = append(matches, rec)
		}
	}

	buf, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return "", fmt.Errorf("query_tickets: encode: %w", err)
	}
	return string(buf), nil
}
