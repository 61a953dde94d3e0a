package event

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/event"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const eventColumns = "id, title, location, starts_at, ends_at, capacity, status, created_at"
const regColumns = "id, event_id, member_id, status, registered_at"

// SQLiteStore implements the event Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Event by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM event WHERE id = ?", id)
	entity, err := scanEvent(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Event{}, fmt.Errorf("event not found: %w", err)
	}
	return entity, err
}

// Save persists an Event to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event (`+eventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, location=excluded.location,
		   starts_at=excluded.starts_at, ends_at=excluded.ends_at,
		   capacity=excluded.capacity, status=excluded.status`,
		entity.ID, entity.Title, entity.Location,
		entity.StartsAt.Format(dateLayout), entity.EndsAt.Format(dateLayout),
		entity.Capacity, entity.Status, entity.CreatedAt.Format(dateLayout))
	return err
}

// Delete removes an Event and its registrations.
// PRE: id is non-empty
// POST: Event and registration rows are removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM registration WHERE event_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM event WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// List retrieves Events based on the filter, soonest first.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Event, error) {
	query := "SELECT " + eventColumns + " FROM event"
	var args []any
	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY starts_at ASC LIMIT ? OFFSET ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListBetween returns events overlapping the [start, end) window.
// PRE: start and end are RFC3339 timestamps
// POST: Returns events whose range intersects the window
func (s *SQLiteStore) ListBetween(ctx context.Context, start, end string) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM event WHERE starts_at < ? AND ends_at > ? ORDER BY starts_at ASC",
		end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// GetRegistration retrieves a Registration by its ID.
// PRE: id is non-empty
// POST: Returns the registration or an error if not found
func (s *SQLiteStore) GetRegistration(ctx context.Context, id string) (domain.Registration, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+regColumns+" FROM registration WHERE id = ?", id)
	reg, err := scanRegistration(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Registration{}, fmt.Errorf("registration not found: %w", err)
	}
	return reg, err
}

// SaveRegistration persists a Registration.
// PRE: registration has been validated
// POST: Registration is persisted (insert or update)
func (s *SQLiteStore) SaveRegistration(ctx context.Context, reg domain.Registration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registration (`+regColumns+`)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status=excluded.status`,
		reg.ID, reg.EventID, reg.MemberID, reg.Status, reg.RegisteredAt.Format(dateLayout))
	return err
}

// ListRegistrations returns all registrations for an event, earliest first.
// PRE: eventID is non-empty
// POST: Returns registrations ordered by registration time
func (s *SQLiteStore) ListRegistrations(ctx context.Context, eventID string) ([]domain.Registration, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+regColumns+" FROM registration WHERE event_id = ? ORDER BY registered_at ASC", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, reg)
	}
	return results, rows.Err()
}

// ListRegistrationsForMember returns every registration a member holds.
// PRE: memberID is non-empty
// POST: Returns registrations oldest first
func (s *SQLiteStore) ListRegistrationsForMember(ctx context.Context, memberID string) ([]domain.Registration, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+regColumns+" FROM registration WHERE member_id = ? ORDER BY registered_at ASC", memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, reg)
	}
	return results, rows.Err()
}

// FindRegistration returns a member's registration for an event, if any.
// PRE: eventID and memberID are non-empty
// POST: Returns the registration and true, or false if none
func (s *SQLiteStore) FindRegistration(ctx context.Context, eventID, memberID string) (domain.Registration, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+regColumns+" FROM registration WHERE event_id = ? AND member_id = ?", eventID, memberID)
	reg, err := scanRegistration(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Registration{}, false, nil
	}
	if err != nil {
		return domain.Registration{}, false, err
	}
	return reg, true, nil
}

// CountActiveRegistrations counts registrations with status 'registered'.
// PRE: eventID is non-empty
// POST: Returns count >= 0
func (s *SQLiteStore) CountActiveRegistrations(ctx context.Context, eventID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registration WHERE event_id = ? AND status = ?",
		eventID, domain.RegStatusRegistered).Scan(&count)
	return count, err
}

// scanEvent extracts an Event from a row scanner function.
func scanEvent(scan func(dest ...interface{}) error) (domain.Event, error) {
	var entity domain.Event
	var startsAt, endsAt, createdAt string
	err := scan(
		&entity.ID,
		&entity.Title,
		&entity.Location,
		&startsAt,
		&endsAt,
		&entity.Capacity,
		&entity.Status,
		&createdAt,
	)
	if err != nil {
		return domain.Event{}, err
	}
	entity.StartsAt, _ = time.Parse(dateLayout, startsAt)
	entity.EndsAt, _ = time.Parse(dateLayout, endsAt)
	entity.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	return entity, nil
}

func scanEvents(rows *sql.Rows) ([]domain.Event, error) {
	var results []domain.Event
	for rows.Next() {
		entity, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// scanRegistration extracts a Registration from a row scanner function.
func scanRegistration(scan func(dest ...interface{}) error) (domain.Registration, error) {
	var reg domain.Registration
	var registeredAt string
	err := scan(&reg.ID, &reg.EventID, &reg.MemberID, &reg.Status, &registeredAt)
	if err != nil {
		return domain.Registration{}, err
	}
	reg.RegisteredAt, _ = time.Parse(dateLayout, registeredAt)
	return reg, nil
}
