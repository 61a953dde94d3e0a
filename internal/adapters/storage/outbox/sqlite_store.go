package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/outbox"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const entryColumns = "id, action_type, payload, status, attempts, max_attempts, last_attempted_at, created_at, external_id, error_message"

// SQLiteStore implements the outbox Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Entry by its ID.
// PRE: id is non-empty
// POST: Returns the entry or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM outbox WHERE id = ?", id)
	e, err := scanEntry(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Entry{}, fmt.Errorf("outbox entry not found: %w", err)
	}
	return e, err
}

// Save persists an Entry.
// PRE: entry has been validated
// POST: Entry is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	var lastAttemptedAt interface{}
	if !e.LastAttemptedAt.IsZero() {
		lastAttemptedAt = e.LastAttemptedAt.Format(dateLayout)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (`+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, attempts=excluded.attempts,
		   last_attempted_at=excluded.last_attempted_at,
		   external_id=excluded.external_id, error_message=excluded.error_message`,
		e.ID, e.ActionType, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		lastAttemptedAt, e.CreatedAt.Format(dateLayout), e.ExternalID, e.ErrorMessage)
	return err
}

// Delete removes an Entry. Callers only delete terminal entries.
// PRE: id is non-empty
// POST: Entry row is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM outbox WHERE id = ?", id)
	return err
}

// ListPending returns entries awaiting delivery, oldest first.
// PRE: limit > 0
// POST: Returns up to limit entries with status pending or retrying
func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM outbox WHERE status IN (?, ?) ORDER BY created_at ASC LIMIT ?",
		domain.StatusPending, domain.StatusRetrying, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListFailed returns entries that have exhausted their attempts.
// PRE: limit > 0
// POST: Returns up to limit failed entries, most recently attempted first
func (s *SQLiteStore) ListFailed(ctx context.Context, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM outbox WHERE status = ? AND attempts >= max_attempts ORDER BY last_attempted_at DESC LIMIT ?",
		domain.StatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListByActionType returns entries for one delivery channel.
// PRE: actionType is non-empty; status may be empty
// POST: Returns matching entries oldest first, up to limit
func (s *SQLiteStore) ListByActionType(ctx context.Context, actionType, status string, limit int) ([]domain.Entry, error) {
	query := "SELECT " + entryColumns + " FROM outbox WHERE action_type = ?"
	args := []any{actionType}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// CountByStatus returns how many entries sit in each status.
// PRE: none
// POST: Returns a status -> count map covering only statuses present
func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM outbox GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// scanEntry extracts an Entry from a row scanner function.
func scanEntry(scan func(dest ...interface{}) error) (domain.Entry, error) {
	var e domain.Entry
	var lastAttemptedAt sql.NullString
	var createdAt string
	err := scan(&e.ID, &e.ActionType, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&lastAttemptedAt, &createdAt, &e.ExternalID, &e.ErrorMessage)
	if err != nil {
		return domain.Entry{}, err
	}
	if lastAttemptedAt.Valid && lastAttemptedAt.String != "" {
		e.LastAttemptedAt, _ = time.Parse(dateLayout, lastAttemptedAt.String)
	}
	e.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]domain.Entry, error) {
	var results []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}
