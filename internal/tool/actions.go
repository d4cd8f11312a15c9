package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/x360-io/x360/internal/notify"
	"github.com/x360-io/x360/internal/snapshot"
)

// The action tools never touch the systems of record. Each one returns a
// structured acknowledgment and appends an audit record; send_notification
// additionally delivers through a notifier when one is configured.

// --- UpdateTicketStatusTool ---

type UpdateTicketStatusTool struct {
	Audit  snapshot.Store
	Logger *slog.Logger
}

func (t *UpdateTicketStatusTool) Name() string { return "update_ticket_status" }
func (t *UpdateTicketStatusTool) Description() string {
	return "Update the status of a ticket"
}
func (t *UpdateTicketStatusTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ticket_id":  map[string]any{"type": "string", "description": "Ticket to update"},
			"new_status": map[string]any{"type": "string", "description": "Target status"},
			"reason":     map[string]any{"type": "string", "description": "Why the status is changing"},
		},
		"required": []string{"ticket_id", "new_status", "reason"},
	}
}

func (t *UpdateTicketStatusTool) Execute(_ context.Context, params map[string]any) (string, error) {
	ticketID := getString(params, "ticket_id")
	newStatus := getString(params, "new_status")
	reason := getString(params, "reason")
	if ticketID == "" || newStatus == "" {
		return "", fmt.Errorf("update_ticket_status: ticket_id and new_status are required")
	}

	logTool(t.Logger, "update_ticket_status", "ticket", ticketID, "status", newStatus)
	audit(t.Audit, t.Logger, snapshot.Action{
		Kind:     snapshot.ActionStatusUpdate,
		TicketID: ticketID,
		Detail:   fmt.Sprintf("%s -> %s: %s", ticketID, newStatus, reason),
	})

	return ack(map[string]any{
		"success":    true,
		"ticket_id":  ticketID,
		"new_status": newStatus,
		"message":    fmt.Sprintf("Ticket %s updated to %s", ticketID, newStatus),
	})
}

// --- TriggerAutomationTool ---

type TriggerAutomationTool struct {
	Audit  snapshot.Store
	Logger *slog.Logger
}

func (t *TriggerAutomationTool) Name() string { return "trigger_automation" }
func (t *TriggerAutomationTool) Description() string {
	return "Trigger a predefined automation"
}
func (t *TriggerAutomationTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"automation_name": map[string]any{"type": "string", "description": "Automation to run"},
			"parameters":      map[string]any{"type": "object", "description": "Automation parameters"},
		},
		"required": []string{"automation_name"},
	}
}

func (t *TriggerAutomationTool) Execute(_ context.Context, params map[string]any) (string, error) {
	name := getString(params, "automation_name")
	if name == "" {
		return "", fmt.Errorf("trigger_automation: automation_name is required")
	}
	args := getMap(params, "parameters")

	detail := name
	if len(args) > 0 {
		buf, _ := json.Marshal(args)
		detail = fmt.Sprintf("%s %s", name, buf)
	}

	logTool(t.Logger, "trigger_automation", "automation", name)
	audit(t.Audit, t.Logger, snapshot.Action{
		Kind:   snapshot.ActionAutomation,
		Detail: detail,
	})

	return ack(map[string]any{
		"success":    true,
		"automation": name,
		"message":    fmt.Sprintf("Automation %s triggered successfully", name),
	})
}

// --- SendNotificationTool ---

type SendNotificationTool struct {
	Audit    snapshot.Store
	Notifier notify.Notifier // nil = simulation only
	Logger   *slog.Logger
}

func (t *SendNotificationTool) Name() string { return "send_notification" }
func (t *SendNotificationTool) Description() string {
	return "Send a notification to a team member or channel"
}
func (t *SendNotificationTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recipient": map[string]any{"type": "string", "description": "Who to notify"},
			"message":   map[string]any{"type": "string", "description": "Notification text"},
			"priority":  map[string]any{"type": "string", "description": "low, normal, high, or urgent"},
		},
		"required": []string{"recipient", "message"},
	}
}

func (t *SendNotificationTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	recipient := getString(params, "recipient")
	message := getString(params, "message")
	priority := getString(params, "priority")
	if priority == "" {
		priority = "normal"
	}
	if recipient == "" || message == "" {
		return "", fmt.Errorf("send_notification: recipient and message are required")
	}

	delivered := false
	if t.Notifier != nil {
		if err := t.Notifier.Send(ctx, recipient, message, priority); err != nil {
			// Delivery failure degrades to simulation; the ack still stands.
			logTool(t.Logger, "send_notification delivery failed", "error", err)
		} else {
			delivered = true
		}
	}

	logTool(t.Logger, "send_notification", "recipient", recipient, "priority", priority, "delivered", delivered)
	audit(t.Audit, t.Logger, snapshot.Action{
		Kind:   snapshot.ActionNotification,
		Detail: fmt.Sprintf("[%s] to %s: %s", priority, recipient, message),
	})

	return ack(map[string]any{
		"success":   true,
		"recipient": recipient,
		"message":   "Notification sent",
	})
}

// --- helpers ---

func ack(v map[string]any) (string, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("action ack: %w", err)
	}
	return string(buf), nil
}

func audit(store snapshot.Store, logger *slog.Logger, a snapshot.Action) {
	if store == nil {
		return
	}
	if err := store.RecordAction(a); err != nil {
		logTool(logger, "audit record failed", "error", err)
	}
}

func logTool(logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(msg, args...)
}
