package ministry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/ministry"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const ministryColumns = "id, name, description, leader, roles, created_at"
const assignmentColumns = "id, assignee_kind, assignee_id, ministry_id, event_id, role, starts_at, ends_at, created_at"

// SQLiteStore implements the ministry Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ministry store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Ministry by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Ministry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+ministryColumns+" FROM ministry WHERE id = ?", id)
	entity, err := scanMinistry(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Ministry{}, fmt.Errorf("ministry not found: %w", err)
	}
	return entity, err
}

// Save persists a Ministry. Roles are stored as a JSON array.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Ministry) error {
	roles, err := json.Marshal(entity.Roles)
	if err != nil {
		return err
	}
	var leader interface{}
	if entity.Leader != "" {
		leader = entity.Leader
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ministry (`+ministryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, description=excluded.description,
		   leader=excluded.leader, roles=excluded.roles`,
		entity.ID, entity.Name, entity.Description, leader, string(roles),
		entity.CreatedAt.Format(dateLayout))
	return err
}

// Delete removes a Ministry and its assignments.
// PRE: id is non-empty
// POST: Ministry and assignment rows are removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM assignment WHERE ministry_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM ministry WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns all ministries ordered by name.
// PRE: none
// POST: Returns every ministry
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Ministry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+ministryColumns+" FROM ministry ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Ministry
	for rows.Next() {
		entity, err := scanMinistry(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// GetAssignment retrieves an Assignment by its ID.
// PRE: id is non-empty
// POST: Returns the assignment or an error if not found
func (s *SQLiteStore) GetAssignment(ctx context.Context, id string) (domain.Assignment, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+assignmentColumns+" FROM assignment WHERE id = ?", id)
	a, err := scanAssignment(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Assignment{}, fmt.Errorf("assignment not found: %w", err)
	}
	return a, err
}

// SaveAssignment persists an Assignment.
// PRE: assignment has been validated
// POST: Assignment is persisted (insert or update)
func (s *SQLiteStore) SaveAssignment(ctx context.Context, a domain.Assignment) error {
	var ministryID, eventID, startsAt, endsAt interface{}
	if a.MinistryID != "" {
		ministryID = a.MinistryID
	}
	if a.EventID != "" {
		eventID = a.EventID
	}
	if !a.StartsAt.IsZero() {
		startsAt = a.StartsAt.Format(dateLayout)
	}
	if !a.EndsAt.IsZero() {
		endsAt = a.EndsAt.Format(dateLayout)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assignment (`+assignmentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   assignee_kind=excluded.assignee_kind, assignee_id=excluded.assignee_id,
		   ministry_id=excluded.ministry_id, event_id=excluded.event_id,
		   role=excluded.role, starts_at=excluded.starts_at, ends_at=excluded.ends_at`,
		a.ID, a.AssigneeKind, a.AssigneeID, ministryID, eventID, a.Role,
		startsAt, endsAt, a.CreatedAt.Format(dateLayout))
	return err
}

// DeleteAssignment removes an Assignment.
// PRE: id is non-empty
// POST: Assignment row is removed
func (s *SQLiteStore) DeleteAssignment(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM assignment WHERE id = ?", id)
	return err
}

// ListAssignments retrieves assignments based on the filter.
// PRE: filter has valid parameters
// POST: Returns matching assignments oldest first
func (s *SQLiteStore) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]domain.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM assignment WHERE 1=1"
	var args []any
	if filter.MinistryID != "" {
		query += " AND ministry_id = ?"
		args = append(args, filter.MinistryID)
	}
	if filter.EventID != "" {
		query += " AND event_id = ?"
		args = append(args, filter.EventID)
	}
	if filter.Role != "" {
		query += " AND role = ?"
		args = append(args, filter.Role)
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// ListAssignmentsForAssignee returns every assignment held by one assignee.
// PRE: kind and assigneeID are non-empty
// POST: Returns the assignee's assignments oldest first
func (s *SQLiteStore) ListAssignmentsForAssignee(ctx context.Context, kind, assigneeID string) ([]domain.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+assignmentColumns+" FROM assignment WHERE assignee_kind = ? AND assignee_id = ? ORDER BY created_at ASC",
		kind, assigneeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// scanMinistry extracts a Ministry from a row scanner function.
func scanMinistry(scan func(dest ...interface{}) error) (domain.Ministry, error) {
	var entity domain.Ministry
	var leader sql.NullString
	var roles, createdAt string
	err := scan(&entity.ID, &entity.Name, &entity.Description, &leader, &roles, &createdAt)
	if err != nil {
		return domain.Ministry{}, err
	}
	entity.Leader = leader.String
	if err := json.Unmarshal([]byte(roles), &entity.Roles); err != nil {
		return domain.Ministry{}, fmt.Errorf("corrupt roles column: %w", err)
	}
	entity.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	return entity, nil
}

// scanAssignment extracts an Assignment from a row scanner function.
func scanAssignment(scan func(dest ...interface{}) error) (domain.Assignment, error) {
	var a domain.Assignment
	var ministryID, eventID, startsAt, endsAt sql.NullString
	var createdAt string
	err := scan(&a.ID, &a.AssigneeKind, &a.AssigneeID, &ministryID, &eventID, &a.Role, &startsAt, &endsAt, &createdAt)
	if err != nil {
		return domain.Assignment{}, err
	}
	a.MinistryID = ministryID.String
	a.EventID = eventID.String
	if startsAt.Valid && startsAt.String != "" {
		a.StartsAt, _ = time.Parse(dateLayout, startsAt.String)
	}
	if endsAt.Valid && endsAt.String != "" {
		a.EndsAt, _ = time.Parse(dateLayout, endsAt.String)
	}
	a.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	return a, nil
}

func scanAssignments(rows *sql.Rows) ([]domain.Assignment, error) {
	var results []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}
