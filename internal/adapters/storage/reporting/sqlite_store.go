package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/reporting"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const requestColumns = "id, kind, member_id, requested_by, status, format, period_start, period_end, requested_at, completed_at, downloaded_at, expired_at, file_path, file_size, ip_address, user_agent"

// SQLiteStore implements the reporting Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new report request store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Request by its ID.
// PRE: id is non-empty
// POST: Returns the request or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Request, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM report_request WHERE id = ?", id)
	req, err := scanRequest(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Request{}, fmt.Errorf("report request not found: %w", err)
	}
	return req, err
}

// Save persists a Request.
// PRE: request has been validated
// POST: Request is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, req domain.Request) error {
	var memberID, periodStart, periodEnd interface{}
	if req.MemberID != "" {
		memberID = req.MemberID
	}
	if !req.PeriodStart.IsZero() {
		periodStart = req.PeriodStart.Format(dateLayout)
	}
	if !req.PeriodEnd.IsZero() {
		periodEnd = req.PeriodEnd.Format(dateLayout)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO report_request (`+requestColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, completed_at=excluded.completed_at,
		   downloaded_at=excluded.downloaded_at, expired_at=excluded.expired_at,
		   file_path=excluded.file_path, file_size=excluded.file_size`,
		req.ID, req.Kind, memberID, req.RequestedBy, req.Status, req.Format,
		periodStart, periodEnd, req.RequestedAt.Format(dateLayout),
		optionalTime(req.CompletedAt), optionalTime(req.DownloadedAt), optionalTime(req.ExpiredAt),
		req.FilePath, req.FileSize, req.IPAddress, req.UserAgent)
	return err
}

// Delete removes a Request.
// PRE: id is non-empty
// POST: Request row is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM report_request WHERE id = ?", id)
	return err
}

// ListByRequester returns an account's requests, newest first.
// PRE: accountID is non-empty
// POST: Returns the account's requests ordered by requested_at descending
func (s *SQLiteStore) ListByRequester(ctx context.Context, accountID string) ([]domain.Request, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+requestColumns+" FROM report_request WHERE requested_by = ? ORDER BY requested_at DESC",
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

// ListExpired returns ready requests whose download window has passed.
// PRE: none
// POST: Returns requests with status 'ready' and expired_at before now
func (s *SQLiteStore) ListExpired(ctx context.Context, now time.Time) ([]domain.Request, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+requestColumns+" FROM report_request WHERE status = ? AND expired_at IS NOT NULL AND expired_at < ?",
		domain.StatusReady, now.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

// scanRequest extracts a Request from a row scanner function.
func scanRequest(scan func(dest ...interface{}) error) (domain.Request, error) {
	var req domain.Request
	var memberID, periodStart, periodEnd, completedAt, downloadedAt, expiredAt sql.NullString
	var requestedAt string
	err := scan(&req.ID, &req.Kind, &memberID, &req.RequestedBy, &req.Status, &req.Format,
		&periodStart, &periodEnd, &requestedAt, &completedAt, &downloadedAt, &expiredAt,
		&req.FilePath, &req.FileSize, &req.IPAddress, &req.UserAgent)
	if err != nil {
		return domain.Request{}, err
	}
	req.MemberID = memberID.String
	if periodStart.Valid && periodStart.String != "" {
		req.PeriodStart, _ = time.Parse(dateLayout, periodStart.String)
	}
	if periodEnd.Valid && periodEnd.String != "" {
		req.PeriodEnd, _ = time.Parse(dateLayout, periodEnd.String)
	}
	req.RequestedAt, _ = time.Parse(dateLayout, requestedAt)
	req.CompletedAt = parseOptional(completedAt)
	req.DownloadedAt = parseOptional(downloadedAt)
	req.ExpiredAt = parseOptional(expiredAt)
	return req, nil
}

func scanRequests(rows *sql.Rows) ([]domain.Request, error) {
	var results []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, req)
	}
	return results, rows.Err()
}

func optionalTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func parseOptional(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, v.String)
	if err != nil {
		return nil
	}
	return &t
}
