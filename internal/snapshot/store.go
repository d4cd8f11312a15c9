// Package snapshot persists the aggregated ticket snapshot and the audit
// trail of simulated DO-mode actions. The snapshot is read-only to the
// agent pipelines; writes happen only when a new dataset is loaded.
package snapshot

import (
	"time"

	"github.com/x360-io/x360/pkg/protocol"
)

// Store is the persistence interface for the snapshot and action audit.
type Store interface {
	// ReplaceAll swaps the entire snapshot for a new set of tickets.
	// Duplicate ticket IDs are stored as-is: conflicts are data, not errors.
	ReplaceAll(tickets []protocol.Ticket) error
	// All returns every ticket in the snapshot.
	All() ([]protocol.Ticket, error)
	// ByIDs returns every record whose ID is in ids, duplicates included.
	ByIDs(ids []string) ([]protocol.Ticket, error)
	// Count returns the number of records in the snapshot.
	Count() (int, error)
	// RecordAction appends a simulated action to the audit trail.
	RecordAction(a Action) error
	// Actions returns the most recent audit records, newest first.
	Actions(limit int) ([]Action, error)
}

// ActionKind names the simulated operation an audit record describes.
type ActionKind string

const (
	ActionStatusUpdate ActionKind = "status_update"
	ActionAutomation   ActionKind = "automation"
	ActionNotification ActionKind = "notification"
)

// Action is one audit record of a simulated DO-mode operation. Nothing is
// written back to the systems of record; the trail is the only side effect.
type Action struct {
	ID        string     `json:"id"`
	Kind      ActionKind `json:"kind"`
	TicketID  string     `json:"ticketId,omitempty"`
	Detail    string     `json:"detail"`
	CreatedAt time.Time  `json:"createdAt"`
}
