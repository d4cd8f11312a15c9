package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/x360-io/x360/pkg/protocol"
)

// LoadFile reads a ticket dataset from a JSON file (an array of tickets).
func LoadFile(path string) ([]protocol.Ticket, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	var tickets []protocol.Ticket
	if err := json.Unmarshal(data, &tickets); err != nil {
		return nil, fmt.Errorf("snapshot: parse %s: %w", path, err)
	}
	return tickets, nil
}

// DemoData returns the built-in chaos dataset: an overdue critical ticket,
// two ID conflicts across source systems, and a ticket due today. Dates are
// relative to now so SLA analysis stays meaningful.
func DemoData() []protocol.Ticket {
	day := func(offset int) string {
		return time.Now().AddDate(0, 0, offset).Format("2006-01-02")
	}

	return []protocol.Ticket{
		{
			ID: "TKT-99", Customer: "Acme Corp", Title: "Server Outage - Production",
			Status: "Open", Priority: protocol.PriorityCritical,
			CreatedDate: day(-25), DueDate: day(-5), // 5 days overdue
			Source: protocol.SourceJira, Assignee: "Unassigned",
		},
		{
			ID: "TKT-101", Customer: "Globex Inc", Title: "License Renewal Failure",
			Status: "Closed", Priority: protocol.PriorityHigh,
			CreatedDate: day(-2), DueDate: day(5),
			Source: protocol.SourceSalesforce, Assignee: "Sarah Connor",
		},
		{
			// Same ID, conflicting status from another system.
			ID: "TKT-101", Customer: "Globex Inc", Title: "License Renewal Failure",
			Status: "Pending Vendor", Priority: protocol.PriorityHigh,
			CreatedDate: day(-2), DueDate: day(5),
			Source: protocol.SourceServiceNow, Assignee: "Sarah Connor",
		},
		{
			ID: "TKT-105", Customer: "Soylent Corp", Title: "Password Reset Request",
			Status: "Open", Priority: protocol.PriorityLow,
			CreatedDate: day(0), DueDate: day(2),
			Source: protocol.SourceZendesk, Assignee: "Helpdesk Bot",
		},
		{
			ID: "TKT-108", Customer: "Massive Dynamic", Title: "API Latency Spike",
			Status: "Resolved", Priority: protocol.PriorityMedium,
			CreatedDate: day(-1), DueDate: day(1),
			Source: protocol.SourceDatadog, Assignee: "DevOps Team",
		},
		{
			// Conflicts with the Datadog record on both status and priority.
			ID: "TKT-108", Customer: "Massive Dynamic", Title: "API Latency Spike",
			Status: "Open", Priority: protocol.PriorityCritical,
			CreatedDate: day(-1), DueDate: day(1),
			Source: protocol.SourcePagerDuty, Assignee: "OnCall Eng",
		},
		{
			ID: "TKT-112", Customer: "Initech", Title: "Printer Load Letter Error",
			Status: "Open", Priority: protocol.PriorityMedium,
			CreatedDate: day(-10), DueDate: day(0), // due today
			Source: protocol.SourceServiceNow, Assignee: "Michael Bolton",
		},
	}
}
