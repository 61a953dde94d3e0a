package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/audit"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const eventColumns = "id, timestamp, category, action, severity, actor_id, actor_email, actor_role, resource_id, resource_type, description, ip_address, user_agent, metadata"

// SQLiteStore implements the audit Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an Event. Audit rows are insert-only.
// PRE: event is valid
// POST: Event row is inserted
func (s *SQLiteStore) Save(ctx context.Context, event domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (`+eventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp.Format(dateLayout), string(event.Category),
		string(event.Action), string(event.Severity), event.ActorID, event.ActorEmail,
		event.ActorRole, event.ResourceID, event.ResourceType, event.Description,
		event.IPAddress, event.UserAgent, event.Metadata)
	return err
}

// GetByID retrieves an Event by its ID.
// PRE: id is non-empty
// POST: Returns the event or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM audit_log WHERE id = ?", id)
	e, err := scanEvent(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Event{}, fmt.Errorf("audit event not found: %w", err)
	}
	return e, err
}

// List returns events matching the filter.
// PRE: limit > 0
// POST: Returns up to limit events, newest first
func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error) {
	query := "SELECT " + eventColumns + " FROM audit_log WHERE 1=1"
	var args []any
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}
	if filter.Severity != "" {
		query += " AND severity = ?"
		args = append(args, filter.Severity)
	}
	if filter.ActorID != "" {
		query += " AND actor_id = ?"
		args = append(args, filter.ActorID)
	}
	if filter.ResourceID != "" {
		query += " AND resource_id = ?"
		args = append(args, filter.ResourceID)
	}
	if filter.FromDate != "" {
		query += " AND timestamp >= ?"
		args = append(args, filter.FromDate)
	}
	if filter.ToDate != "" {
		query += " AND timestamp <= ?"
		args = append(args, filter.ToDate)
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// scanEvent extracts an Event from a row scanner function.
func scanEvent(scan func(dest ...interface{}) error) (domain.Event, error) {
	var e domain.Event
	var timestamp string
	err := scan(&e.ID, &timestamp, &e.Category, &e.Action, &e.Severity,
		&e.ActorID, &e.ActorEmail, &e.ActorRole, &e.ResourceID, &e.ResourceType,
		&e.Description, &e.IPAddress, &e.UserAgent, &e.Metadata)
	if err != nil {
		return domain.Event{}, err
	}
	e.Timestamp, _ = time.Parse(dateLayout, timestamp)
	return e, nil
}
