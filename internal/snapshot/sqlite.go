package snapshot

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/x360-io/x360/pkg/protocol"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: open: %w", err)
	}

	// WAL for concurrent reads while a dataset reload is in flight
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot store: wal: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	// ticket_id is deliberately NOT a primary key: the same ID can appear
	// from several source systems with conflicting fields.
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			row_id       TEXT PRIMARY KEY,
			ticket_id    TEXT NOT NULL,
			customer     TEXT NOT NULL DEFAULT '',
			title        TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT '',
			priority     TEXT NOT NULL DEFAULT '',
			created_date TEXT NOT NULL DEFAULT '',
			due_date     TEXT NOT NULL DEFAULT '',
			source       TEXT NOT NULL DEFAULT '',
			assignee     TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS actions (
			id         TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			ticket_id  TEXT NOT NULL DEFAULT '',
			detail     TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tickets_ticket_id ON tickets(ticket_id);
		CREATE INDEX IF NOT EXISTS idx_actions_created ON actions(created_at);
	`)
	if err != nil {
		return fmt.Errorf("snapshot store: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ReplaceAll(tickets []protocol.Ticket) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("snapshot store: replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tickets`); err != nil {
		return fmt.Errorf("snapshot store: clear: %w", err)
	}
	for _, t := range tickets {
		_, err := tx.Exec(`
			INSERT INTO tickets (row_id, ticket_id, customer, title, status, priority, created_date, due_date, source, assignee)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), t.ID, t.Customer, t.Title, t.Status, string(t.Priority),
			t.CreatedDate, t.DueDate, string(t.Source), t.Assignee)
		if err != nil {
			return fmt.Errorf("snapshot store: insert %s: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("snapshot store: commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) All() ([]protocol.Ticket, error) {
	return s.query(`SELECT ticket_id, customer, title, status, priority, created_date, due_date, source, assignee FROM tickets ORDER BY ticket_id, source`)
}

func (s *SQLiteStore) ByIDs(ids []string) ([]protocol.Ticket, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.query(
		fmt.Sprintf(`SELECT ticket_id, customer, title, status, priority, created_date, due_date, source, assignee FROM tickets WHERE ticket_id IN (%s) ORDER BY ticket_id, source`, placeholders),
		args...)
}

func (s *SQLiteStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tickets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("snapshot store: count: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) RecordAction(a Action) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO actions (id, kind, ticket_id, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, string(a.Kind), a.TicketID, a.Detail, a.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("snapshot store: record action: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Actions(limit int) ([]Action, error) {
	q := `SELECT id, kind, ticket_id, detail, created_at FROM actions ORDER BY created_at DESC`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: actions: %w", err)
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		var a Action
		var kind, createdAt string
		if err := rows.Scan(&a.ID, &kind, &a.TicketID, &a.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("snapshot store: scan action: %w", err)
		}
		a.Kind = ActionKind(kind)
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// DB returns the underlying database connection (for testing or cleanup).
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) query(q string, args ...any) ([]protocol.Ticket, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: query: %w", err)
	}
	defer rows.Close()

	var out []protocol.Ticket
	for rows.Next() {
		var t protocol.Ticket
		var priority, source string
		if err := rows.Scan(&t.ID, &t.Customer, &t.Title, &t.Status, &priority,
			&t.CreatedDate, &t.DueDate, &source, &t.Assignee); err != nil {
			return nil, fmt.Errorf("snapshot store: scan: %w", err)
		}
		t.Priority = protocol.TicketPriority(priority)
		t.Source = protocol.TicketSource(source)
		out = append(out, t)
	}
	return out, rows.Err()
}
