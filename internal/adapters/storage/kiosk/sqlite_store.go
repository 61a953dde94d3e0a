package kiosk

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/kiosk"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const sessionColumns = "id, account_id, event_id, service_date, started_at, ended_at"

// SQLiteStore implements the kiosk Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new kiosk session store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Session by its ID.
// PRE: id is non-empty
// POST: Returns the session or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM kiosk_session WHERE id = ?", id)
	sess, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Session{}, fmt.Errorf("kiosk session not found: %w", err)
	}
	return sess, err
}

// Save persists a Session.
// PRE: session has been validated
// POST: Session is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, sess domain.Session) error {
	var eventID, serviceDate, endedAt interface{}
	if sess.EventID != "" {
		eventID = sess.EventID
	}
	if sess.ServiceDate != "" {
		serviceDate = sess.ServiceDate
	}
	if !sess.EndedAt.IsZero() {
		endedAt = sess.EndedAt.Format(dateLayout)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kiosk_session (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET ended_at=excluded.ended_at`,
		sess.ID, sess.AccountID, eventID, serviceDate,
		sess.StartedAt.Format(dateLayout), endedAt)
	return err
}

// FindActiveByAccount returns the account's live session, if any.
// PRE: accountID is non-empty
// POST: Returns the newest session with no end time, or false
func (s *SQLiteStore) FindActiveByAccount(ctx context.Context, accountID string) (domain.Session, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM kiosk_session WHERE account_id = ? AND ended_at IS NULL ORDER BY started_at DESC LIMIT 1",
		accountID)
	sess, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	return sess, true, nil
}

// scanSession extracts a Session from a row scanner function.
func scanSession(scan func(dest ...interface{}) error) (domain.Session, error) {
	var sess domain.Session
	var eventID, serviceDate, endedAt sql.NullString
	var startedAt string
	err := scan(&sess.ID, &sess.AccountID, &eventID, &serviceDate, &startedAt, &endedAt)
	if err != nil {
		return domain.Session{}, err
	}
	sess.EventID = eventID.String
	sess.ServiceDate = serviceDate.String
	sess.StartedAt, _ = time.Parse(dateLayout, startedAt)
	if endedAt.Valid && endedAt.String != "" {
		sess.EndedAt, _ = time.Parse(dateLayout, endedAt.String)
	}
	return sess, nil
}
