package account

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/account"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const accountColumns = "id, email, password_hash, role, member_id, status, created_at, failed_logins, locked_until, password_change_required"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new AccountStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE id = ?", id)
	entity, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Account{}, fmt.Errorf("account not found: %w", err)
	}
	return entity, err
}

// GetByEmail retrieves an Account by email.
// PRE: email is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE email = ? COLLATE NOCASE", email)
	entity, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Account{}, fmt.Errorf("account not found: %w", err)
	}
	return entity, err
}

// GetByMemberID returns the account linked to a member, if one exists.
// PRE: memberID is non-empty
// POST: Returns the account and true, or false if none
func (s *SQLiteStore) GetByMemberID(ctx context.Context, memberID string) (domain.Account, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE member_id = ?", memberID)
	entity, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Account{}, false, nil
	}
	if err != nil {
		return domain.Account{}, false, err
	}
	return entity, true, nil
}

// Save persists an Account to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	var lockedUntil interface{}
	if !entity.LockedUntil.IsZero() {
		lockedUntil = entity.LockedUntil.Format(dateLayout)
	}
	var memberID interface{}
	if entity.MemberID != "" {
		memberID = entity.MemberID
	}
	passwordChangeRequired := 0
	if entity.PasswordChangeRequired {
		passwordChangeRequired = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO account (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   email=excluded.email, password_hash=excluded.password_hash, role=excluded.role,
		   member_id=excluded.member_id, status=excluded.status,
		   failed_logins=excluded.failed_logins, locked_until=excluded.locked_until,
		   password_change_required=excluded.password_change_required`,
		entity.ID, entity.Email, entity.PasswordHash, entity.Role, memberID, entity.Status,
		entity.CreatedAt.Format(dateLayout), entity.FailedLogins, lockedUntil, passwordChangeRequired)
	return err
}

// Delete removes an Account from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM account WHERE id = ?", id)
	return err
}

// List retrieves Accounts based on the filter.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Account, error) {
	var queryBuilder strings.Builder
	var args []interface{}

	queryBuilder.WriteString("SELECT " + accountColumns + " FROM account")

	if filter.Role != "" {
		queryBuilder.WriteString(" WHERE role = ?")
		args = append(args, filter.Role)
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC LIMIT ? OFFSET ?")
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Account
	for rows.Next() {
		entity, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, nil
}

// Count returns the total number of accounts.
// PRE: none
// POST: Returns total account count
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&count)
	return count, err
}

// SaveActivationToken persists an activation token.
// PRE: token fields are populated
// POST: Token is persisted (insert or update)
func (s *SQLiteStore) SaveActivationToken(ctx context.Context, token domain.ActivationToken) error {
	used := 0
	if token.Used {
		used = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activation_token (id, account_id, token, expires_at, used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET used=excluded.used`,
		token.ID, token.AccountID, token.Token,
		token.ExpiresAt.Format(dateLayout), used, token.CreatedAt.Format(dateLayout))
	return err
}

// GetActivationTokenByToken retrieves a token by its secret value.
// PRE: token is non-empty
// POST: Returns the token or an error if not found
func (s *SQLiteStore) GetActivationTokenByToken(ctx context.Context, token string) (domain.ActivationToken, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, account_id, token, expires_at, used, created_at FROM activation_token WHERE token = ?", token)

	var t domain.ActivationToken
	var expiresAt, createdAt string
	var used int
	err := row.Scan(&t.ID, &t.AccountID, &t.Token, &expiresAt, &used, &createdAt)
	if err == sql.ErrNoRows {
		return domain.ActivationToken{}, fmt.Errorf("activation token not found: %w", err)
	}
	if err != nil {
		return domain.ActivationToken{}, err
	}
	t.Used = used != 0
	t.ExpiresAt, _ = parseTime(expiresAt)
	t.CreatedAt, _ = parseTime(createdAt)
	return t, nil
}

// InvalidateTokensForAccount marks all of an account's tokens used.
// PRE: accountID is non-empty
// POST: No live token remains for the account
func (s *SQLiteStore) InvalidateTokensForAccount(ctx context.Context, accountID string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE activation_token SET used = 1 WHERE account_id = ?", accountID)
	return err
}

// scanAccount extracts an Account from a row scanner function.
func scanAccount(scan func(dest ...interface{}) error) (domain.Account, error) {
	var entity domain.Account
	var createdAt string
	var memberID, lockedUntil sql.NullString
	var passwordChangeRequired int
	err := scan(
		&entity.ID,
		&entity.Email,
		&entity.PasswordHash,
		&entity.Role,
		&memberID,
		&entity.Status,
		&createdAt,
		&entity.FailedLogins,
		&lockedUntil,
		&passwordChangeRequired,
	)
	if err != nil {
		return domain.Account{}, err
	}
	if memberID.Valid {
		entity.MemberID = memberID.String
	}
	entity.PasswordChangeRequired = passwordChangeRequired != 0
	entity.CreatedAt, _ = parseTime(createdAt)
	if lockedUntil.Valid && lockedUntil.String != "" {
		entity.LockedUntil, _ = parseTime(lockedUntil.String)
	}
	return entity, nil
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
