package member

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/member"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const memberColumns = "id, name, email, phone, address_line1, address_line2, address_city, address_postcode, emergency_name, emergency_phone, emergency_relation, ministry_id, status, joined_at"

// SQLiteStore implements the member Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new member store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE id = ?", id)
	entity, err := scanMemberRow(row)
	if err == sql.ErrNoRows {
		return domain.Member{}, fmt.Errorf("member not found: %w", err)
	}
	return entity, err
}

// GetByEmail retrieves a Member by email (case-insensitive).
// PRE: email is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE email = ? COLLATE NOCASE", email)
	entity, err := scanMemberRow(row)
	if err == sql.ErrNoRows {
		return domain.Member{}, fmt.Errorf("member not found: %w", err)
	}
	return entity, err
}

// Save persists a Member to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Member) error {
	var ministryID interface{}
	if entity.MinistryID != "" {
		ministryID = entity.MinistryID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO member (`+memberColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, email=excluded.email, phone=excluded.phone,
		   address_line1=excluded.address_line1, address_line2=excluded.address_line2,
		   address_city=excluded.address_city, address_postcode=excluded.address_postcode,
		   emergency_name=excluded.emergency_name, emergency_phone=excluded.emergency_phone,
		   emergency_relation=excluded.emergency_relation,
		   ministry_id=excluded.ministry_id, status=excluded.status, joined_at=excluded.joined_at`,
		entity.ID, entity.Name, entity.Email, entity.Phone,
		entity.Address.Line1, entity.Address.Line2, entity.Address.City, entity.Address.Postcode,
		entity.EmergencyContact.Name, entity.EmergencyContact.Phone, entity.EmergencyContact.Relation,
		ministryID, entity.Status, entity.JoinedAt.Format(dateLayout))
	return err
}

// Delete removes a Member from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM family_member WHERE member_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM member WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// SearchByName finds members whose name matches the query (case-insensitive LIKE).
// PRE: query is non-empty, limit > 0
// POST: Returns matching members ordered by name
func (s *SQLiteStore) SearchByName(ctx context.Context, query string, limit int) ([]domain.Member, error) {
	q := "SELECT " + memberColumns + " FROM member WHERE name LIKE ? AND status != 'ARCHIVED' ORDER BY name LIMIT ?"
	rows, err := s.db.QueryContext(ctx, q, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMembers(rows)
}

// listWhereClause builds the WHERE clause and args for List/Count queries.
func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if filter.MinistryID != "" {
		where += " AND ministry_id = ?"
		args = append(args, filter.MinistryID)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		where += " AND (name LIKE ? OR email LIKE ?)"
		term := "%" + filter.Search + "%"
		args = append(args, term, term)
	}
	return where, args
}

// sortClause returns a safe ORDER BY clause. Only allowed columns are accepted.
func sortClause(filter ListFilter) string {
	allowed := map[string]string{
		"name": "name", "email": "email",
		"status": "status", "joined": "joined_at",
	}
	col, ok := allowed[filter.Sort]
	if !ok {
		return " ORDER BY name ASC"
	}
	dir := "ASC"
	if filter.Dir == "desc" {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir
}

// Count returns the total number of members matching the filter.
// PRE: filter has valid parameters
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM member"+where, args...).Scan(&count)
	return count, err
}

// List retrieves a list of Members based on the filter.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
	where, args := listWhereClause(filter)
	query := "SELECT " + memberColumns + " FROM member" + where
	query += sortClause(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMembers(rows)
}

// ListFamily returns a member's family members ordered by position.
// PRE: memberID is non-empty
// POST: Returns family members in insertion order
func (s *SQLiteStore) ListFamily(ctx context.Context, memberID string) ([]domain.FamilyMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, member_id, first_name, last_name, relation, birth_year, position
		 FROM family_member WHERE member_id = ? ORDER BY position ASC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.FamilyMember
	for rows.Next() {
		var f domain.FamilyMember
		if err := rows.Scan(&f.ID, &f.MemberID, &f.FirstName, &f.LastName, &f.Relation, &f.BirthYear, &f.Position); err != nil {
			return nil, err
		}
		results = append(results, f)
	}
	return results, rows.Err()
}

// ReplaceFamily overwrites a member's family members in one transaction.
// PRE: every family member belongs to memberID
// POST: family_member rows match the given slice, positions follow slice order
func (s *SQLiteStore) ReplaceFamily(ctx context.Context, memberID string, family []domain.FamilyMember) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM family_member WHERE member_id = ?", memberID); err != nil {
		return err
	}
	for i, f := range family {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO family_member (id, member_id, first_name, last_name, relation, birth_year, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			f.ID, memberID, f.FirstName, f.LastName, f.Relation, f.BirthYear, i)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// scanTarget abstracts *sql.Row and *sql.Rows.
type scanTarget interface {
	Scan(dest ...any) error
}

func scanMember(t scanTarget) (domain.Member, error) {
	var entity domain.Member
	var ministryID sql.NullString
	var joinedAt string
	err := t.Scan(
		&entity.ID,
		&entity.Name,
		&entity.Email,
		&entity.Phone,
		&entity.Address.Line1,
		&entity.Address.Line2,
		&entity.Address.City,
		&entity.Address.Postcode,
		&entity.EmergencyContact.Name,
		&entity.EmergencyContact.Phone,
		&entity.EmergencyContact.Relation,
		&ministryID,
		&entity.Status,
		&joinedAt,
	)
	if err != nil {
		return domain.Member{}, err
	}
	if ministryID.Valid {
		entity.MinistryID = ministryID.String
	}
	entity.JoinedAt, _ = time.Parse(dateLayout, joinedAt)
	return entity, nil
}

func scanMemberRow(row *sql.Row) (domain.Member, error) {
	return scanMember(row)
}

func scanMembers(rows *sql.Rows) ([]domain.Member, error) {
	var results []domain.Member
	for rows.Next() {
		entity, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
