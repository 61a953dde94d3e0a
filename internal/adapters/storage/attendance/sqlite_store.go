package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/attendance"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const checkInColumns = "id, member_id, guest_name, event_id, service_date, method, checked_in_at, undone_at"

// SQLiteStore implements the attendance Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new attendance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a CheckIn by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.CheckIn, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+checkInColumns+" FROM check_in WHERE id = ?", id)
	entity, err := scanCheckIn(row.Scan)
	if err == sql.ErrNoRows {
		return domain.CheckIn{}, fmt.Errorf("check-in not found: %w", err)
	}
	return entity, err
}

// Save persists a CheckIn to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.CheckIn) error {
	var memberID, eventID, serviceDate, undoneAt interface{}
	if entity.MemberID != "" {
		memberID = entity.MemberID
	}
	if entity.EventID != "" {
		eventID = entity.EventID
	}
	if entity.ServiceDate != "" {
		serviceDate = entity.ServiceDate
	}
	if !entity.UndoneAt.IsZero() {
		undoneAt = entity.UndoneAt.Format(dateLayout)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO check_in (`+checkInColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   member_id=excluded.member_id, guest_name=excluded.guest_name,
		   event_id=excluded.event_id, service_date=excluded.service_date,
		   method=excluded.method, checked_in_at=excluded.checked_in_at,
		   undone_at=excluded.undone_at`,
		entity.ID, memberID, entity.GuestName, eventID, serviceDate,
		entity.Method, entity.CheckedInAt.Format(dateLayout), undoneAt)
	return err
}

// Delete removes a CheckIn from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM check_in WHERE id = ?", id)
	return err
}

// List retrieves CheckIns based on the filter.
// PRE: filter has valid parameters
// POST: Returns matching entities newest first
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.CheckIn, error) {
	query := "SELECT " + checkInColumns + " FROM check_in WHERE 1=1"
	var args []any

	if !filter.IncludeUndone {
		query += " AND undone_at IS NULL"
	}
	if filter.Method != "" {
		query += " AND method = ?"
		args = append(args, filter.Method)
	}
	query += " ORDER BY checked_in_at DESC LIMIT ? OFFSET ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCheckIns(rows)
}

// ListByMemberID returns a member's check-ins, newest first.
// PRE: memberID is non-empty
// POST: Returns the member's check-ins including undone ones
func (s *SQLiteStore) ListByMemberID(ctx context.Context, memberID string) ([]domain.CheckIn, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+checkInColumns+" FROM check_in WHERE member_id = ? ORDER BY checked_in_at DESC", memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCheckIns(rows)
}

// ListByEventID returns live check-ins for an event.
// PRE: eventID is non-empty
// POST: Returns check-ins not undone, oldest first
func (s *SQLiteStore) ListByEventID(ctx context.Context, eventID string) ([]domain.CheckIn, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+checkInColumns+" FROM check_in WHERE event_id = ? AND undone_at IS NULL ORDER BY checked_in_at ASC", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCheckIns(rows)
}

// ListByServiceDate returns live check-ins for a service date.
// PRE: date is YYYY-MM-DD
// POST: Returns check-ins not undone, oldest first
func (s *SQLiteStore) ListByServiceDate(ctx context.Context, date string) ([]domain.CheckIn, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+checkInColumns+" FROM check_in WHERE service_date = ? AND undone_at IS NULL ORDER BY checked_in_at ASC", date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCheckIns(rows)
}

// ListByDateRange returns live check-ins between two instants.
// PRE: start and end are RFC3339 timestamps, start <= end
// POST: Returns check-ins in [start, end), oldest first
func (s *SQLiteStore) ListByDateRange(ctx context.Context, start string, end string) ([]domain.CheckIn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+checkInColumns+` FROM check_in
		 WHERE checked_in_at >= ? AND checked_in_at < ? AND undone_at IS NULL
		 ORDER BY checked_in_at ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCheckIns(rows)
}

// FindActive returns the member's live check-in for the given target.
// PRE: memberID is non-empty, one of eventID/serviceDate is set
// POST: Returns the check-in and true, or false if none
func (s *SQLiteStore) FindActive(ctx context.Context, memberID, eventID, serviceDate string) (domain.CheckIn, bool, error) {
	query := "SELECT " + checkInColumns + " FROM check_in WHERE member_id = ? AND undone_at IS NULL"
	args := []any{memberID}
	if eventID != "" {
		query += " AND event_id = ?"
		args = append(args, eventID)
	} else {
		query += " AND service_date = ?"
		args = append(args, serviceDate)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	entity, err := scanCheckIn(row.Scan)
	if err == sql.ErrNoRows {
		return domain.CheckIn{}, false, nil
	}
	if err != nil {
		return domain.CheckIn{}, false, err
	}
	return entity, true, nil
}

// CountByEventID counts live check-ins for an event.
// PRE: eventID is non-empty
// POST: Returns count >= 0
func (s *SQLiteStore) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM check_in WHERE event_id = ? AND undone_at IS NULL", eventID).Scan(&count)
	return count, err
}

// scanCheckIn extracts a CheckIn from a row scanner function.
func scanCheckIn(scan func(dest ...interface{}) error) (domain.CheckIn, error) {
	var entity domain.CheckIn
	var memberID, eventID, serviceDate, undoneAt sql.NullString
	var checkedInAt string
	err := scan(
		&entity.ID,
		&memberID,
		&entity.GuestName,
		&eventID,
		&serviceDate,
		&entity.Method,
		&checkedInAt,
		&undoneAt,
	)
	if err != nil {
		return domain.CheckIn{}, err
	}
	entity.MemberID = memberID.String
	entity.EventID = eventID.String
	entity.ServiceDate = serviceDate.String
	entity.CheckedInAt, _ = time.Parse(dateLayout, checkedInAt)
	if undoneAt.Valid && undoneAt.String != "" {
		entity.UndoneAt, _ = time.Parse(dateLayout, undoneAt.String)
	}
	return entity, nil
}

func scanCheckIns(rows *sql.Rows) ([]domain.CheckIn, error) {
	var results []domain.CheckIn
	for rows.Next() {
		entity, err := scanCheckIn(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
