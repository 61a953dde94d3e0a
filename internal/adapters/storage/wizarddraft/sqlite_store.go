package wizarddraft

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const draftColumns = "id, kind, account_id, record_id, step, fields, created_at, updated_at"

// SQLiteStore implements the wizard draft Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new wizard draft store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Record by its ID.
// PRE: id is non-empty
// POST: Returns the record or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+draftColumns+" FROM wizard_draft WHERE id = ?", id)
	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return Record{}, fmt.Errorf("wizard draft not found: %w", err)
	}
	return rec, err
}

// Save persists a Record. Fields are stored as a JSON object.
// PRE: record has an ID, kind, and account
// POST: Record is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return err
	}
	var recordID interface{}
	if rec.RecordID != "" {
		recordID = rec.RecordID
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO wizard_draft (`+draftColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   step=excluded.step, fields=excluded.fields, updated_at=excluded.updated_at`,
		rec.ID, rec.Kind, rec.AccountID, recordID, rec.Step, string(fields),
		rec.CreatedAt.Format(dateLayout), rec.UpdatedAt.Format(dateLayout))
	return err
}

// Delete removes a Record.
// PRE: id is non-empty
// POST: Record row is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM wizard_draft WHERE id = ?", id)
	return err
}

// FindByOwner returns the account's draft for one wizard kind, if any.
// PRE: accountID and kind are non-empty
// POST: Returns the most recently updated draft, or false
func (s *SQLiteStore) FindByOwner(ctx context.Context, accountID, kind string) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+draftColumns+" FROM wizard_draft WHERE account_id = ? AND kind = ? ORDER BY updated_at DESC LIMIT 1",
		accountID, kind)
	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// DeleteStale removes drafts not touched since the cutoff.
// PRE: cutoff is in the past
// POST: Returns the number of drafts removed
func (s *SQLiteStore) DeleteStale(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM wizard_draft WHERE updated_at < ?", cutoff.Format(dateLayout))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// scanRecord extracts a Record from a row scanner function.
func scanRecord(scan func(dest ...interface{}) error) (Record, error) {
	var rec Record
	var recordID sql.NullString
	var fields, createdAt, updatedAt string
	err := scan(&rec.ID, &rec.Kind, &rec.AccountID, &recordID, &rec.Step, &fields, &createdAt, &updatedAt)
	if err != nil {
		return Record{}, err
	}
	rec.RecordID = recordID.String
	if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
		return Record{}, fmt.Errorf("corrupt fields column: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	rec.UpdatedAt, _ = time.Parse(dateLayout, updatedAt)
	return rec, nil
}
