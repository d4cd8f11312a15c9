package protocol

// BriefingItemType classifies what a briefing item is reporting.
type BriefingItemType string

const (
	ItemSLABreach    BriefingItemType = "SLA_BREACH"
	ItemDataConflict BriefingItemType = "DATA_CONFLICT"
	ItemInsight      BriefingItemType = "INSIGHT"
)

// Severity is the ordered severity scale for briefing items,
// CRITICAL > HIGH > MEDIUM > LOW.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Rank returns the severity position, highest first (CRITICAL = 4).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// BriefingItem is a single derived finding from the briefing agent:
// an SLA breach, a cross-system data conflict, or an insight.
// Immutable once returned; this core does not persist it.
type BriefingItem struct {
	ID               string           `json:"id"`
	Type             BriefingItemType `json:"type"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Severity         Severity         `json:"severity"`
	RelatedTicketIDs []string         `json:"relatedTicketIds"`
	SuggestedAction  string           `json:"suggestedAction,omitempty"`
}

// Briefing is the full result of a briefing analysis over a ticket snapshot.
type Briefing struct {
	Summary string         `json:"summary"`
	Items   []BriefingItem `json:"items"`
}
