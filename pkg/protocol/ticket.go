package protocol

// TicketPriority is the ordered priority scale shared by all source systems.
type TicketPriority string

const (
	PriorityLow      TicketPriority = "Low"
	PriorityMedium   TicketPriority = "Medium"
	PriorityHigh     TicketPriority = "High"
	PriorityCritical TicketPriority = "Critical"
)

// Rank returns the position of the priority in the Low < Medium < High < Critical
// ordering. Unknown priorities rank below Low.
func (p TicketPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 0
	}
}

// TicketSource identifies the system of record a ticket was aggregated from.
type TicketSource string

const (
	SourceServiceNow TicketSource = "ServiceNow"
	SourceSalesforce TicketSource = "Salesforce"
	SourceJira       TicketSource = "Jira"
	SourceZendesk    TicketSource = "Zendesk"
	SourceDatadog    TicketSource = "Datadog"
	SourcePagerDuty  TicketSource = "PagerDuty"
)

// Ticket is a single record from the virtualization layer. Tickets are NOT
// unique by ID across a snapshot: the same ID may appear more than once with
// divergent status or priority when source systems disagree. That is a data
// conflict, which is valid input everywhere in this codebase.
type Ticket struct {
	ID          string         `json:"id"`
	Customer    string         `json:"customer"`
	Title       string         `json:"title"`
	Status      string         `json:"status"`
	Priority    TicketPriority `json:"priority"`
	CreatedDate string         `json:"createdDate"`
	DueDate     string         `json:"dueDate"`
	Source      TicketSource   `json:"source"`
	Assignee    string         `json:"assignee"`
}

// Map converts the ticket to the raw map shape the agent pipelines consume.
func (t Ticket) Map() map[string]any {
	return map[string]any{
		"id":          t.ID,
		"customer":    t.Customer,
		"title":       t.Title,
		"status":      t.Status,
		"priority":    string(t.Priority),
		"createdDate": t.CreatedDate,
		"dueDate":     t.DueDate,
		"source":      string(t.Source),
		"assignee":    t.Assignee,
	}
}
