// Package prompt assembles the textual context given to the role agents.
// Every builder is a pure function of its inputs: identical inputs produce
// byte-identical output, which upstream caching and tests rely on.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/x360-io/x360/pkg/protocol"
)

// BuildChatContext renders the ASK-mode context block: the raw ticket
// snapshot, the latest briefing, and the conversation transcript, in that
// order. History is rendered verbatim in its original order — no
// truncation happens here, bounding history length is the caller's job.
func BuildChatContext(data []map[string]any, briefing map[string]any, history []protocol.ConversationTurn) string {
	var b strings.Builder

	b.WriteString("CURRENT DATASET:\n")
	b.WriteString(stableJSON(data))
	b.WriteString("\n\nLATEST BRIEFING:\n")
	b.WriteString(stableJSON(briefing))
	b.WriteString("\n\nCONVERSATION HISTORY:\n")
	b.WriteString(RenderHistory(history))

	return b.String()
}

// BuildChatPrompt appends the new operator message to the chat context.
func BuildChatPrompt(context, message string) string {
	return fmt.Sprintf("%s\n\nUSER: %s\n\nAGENT:", context, message)
}

// BuildActionPrompt renders the DO-mode prompt: the data snapshot and the
// single command, nothing else. Conversation history never reaches the
// action agent.
func BuildActionPrompt(data []map[string]any, command string) string {
	var b strings.Builder
	b.WriteString("SYSTEM DATA:\n")
	b.WriteString(stableJSON(data))
	b.WriteString("\n\nUSER COMMAND: ")
	b.WriteString(command)
	b.WriteString("\n\nExecute the requested action and provide clear feedback.")
	return b.String()
}

// BuildBriefingPrompt renders the briefing analysis prompt over the raw
// snapshot. The strict-JSON output contract is spelled out inline because
// the briefing extractor requires the summary/items shape.
func BuildBriefingPrompt(data []map[string]any) string {
	var b strings.Builder
	b.WriteString("Analyze this data from the virtualization layer and generate a morning briefing.\n\nDATA:\n")
	b.WriteString(stableJSON(data))
	b.WriteString(`

Identify:
1. SLA breaches (tickets near or past due date - use the current_time tool to get today's date, then compare with each ticket's dueDate field)
2. Data conflicts (duplicate tickets with same ID but different statuses or priorities)
3. Important insights (patterns, urgent items)

IMPORTANT: Return ONLY valid JSON matching this exact structure (no markdown, no code blocks, just raw JSON):
{
  "summary": "Brief overview of system health",
  "items": [
    {
      "id": "unique_id",
      "type": "SLA_BREACH or DATA_CONFLICT or INSIGHT",
      "title": "Short title",
      "description": "Detailed description",
      "severity": "CRITICAL or HIGH or MEDIUM or LOW",
      "relatedTicketIds": ["ticket_id_1", "ticket_id_2"],
      "suggestedAction": "What to do about it"
    }
  ]
}

Return only the JSON object, nothing else.
`)
	return b.String()
}

// RenderHistory renders the transcript one line per turn, role-labeled,
// preserving insertion order. Any role other than "user" is the agent.
func RenderHistory(history []protocol.ConversationTurn) string {
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		label := "Agent"
		if turn.Role == "user" {
			label = "User"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, turn.Content))
	}
	return strings.Join(lines, "\n")
}

// stableJSON serializes with two-space indentation. encoding/json sorts map
// keys, so the rendering is deterministic for any ticket-like map input.
func stableJSON(v any) string {
	if v == nil {
		return "null"
	}
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(buf)
}
