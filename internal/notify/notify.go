// Package notify delivers operator notifications to chat platforms. The
// send_notification tool always records a simulated acknowledgment; when a
// notifier is configured the message is also delivered for real.
package notify

import "context"

// Notifier is a send-only delivery channel.
type Notifier interface {
	Name() string
	// Send delivers a message. recipient is channel/user addressing in the
	// platform's own terms; an empty recipient falls back to the
	// configured default. priority is advisory ("low".."urgent").
	Send(ctx context.Context, recipient, message, priority string) error
}

// prefixFor renders the advisory priority as a message prefix. Normal
// priority gets no prefix.
func prefixFor(priority string) string {
	switch priority {
	case "urgent", "critical":
		return "🚨 "
	case "high":
		return "⚠️ "
	default:
		return ""
	}
}
