package consent

import (
	"context"
	"database/sql"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/consent"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const consentColumns = "id, member_id, type, granted, granted_at, revoked_at, source, ip_address, user_agent, version"

// SQLiteStore implements the consent Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new consent store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists a Consent.
// PRE: consent is valid
// POST: Consent is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, c domain.Consent) error {
	_, err := s.db.ExecContext(ctx, upsertSQL, saveArgs(c)...)
	return err
}

// SaveAll persists several consents in one transaction.
// PRE: every consent is valid
// POST: All consents are persisted, or none on error
func (s *SQLiteStore) SaveAll(ctx context.Context, values []domain.Consent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range values {
		if _, err := tx.ExecContext(ctx, upsertSQL, saveArgs(c)...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListByMemberID returns every consent record for a member.
// PRE: memberID is non-empty
// POST: Returns the member's consents, newest grant first
func (s *SQLiteStore) ListByMemberID(ctx context.Context, memberID string) ([]domain.Consent, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+consentColumns+" FROM consent WHERE member_id = ? ORDER BY granted_at DESC",
		memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Consent
	for rows.Next() {
		c, err := scanConsent(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// GetLatestByType returns the member's most recent consent of one type.
// PRE: memberID and consentType are non-empty
// POST: Returns the newest matching consent, or false
func (s *SQLiteStore) GetLatestByType(ctx context.Context, memberID string, consentType domain.Type) (domain.Consent, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+consentColumns+" FROM consent WHERE member_id = ? AND type = ? ORDER BY granted_at DESC LIMIT 1",
		memberID, string(consentType))
	c, err := scanConsent(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Consent{}, false, nil
	}
	if err != nil {
		return domain.Consent{}, false, err
	}
	return c, true, nil
}

// HasValidConsent reports whether the member currently holds a granted,
// unrevoked consent of the given type.
// PRE: memberID and consentType are non-empty
// POST: Returns true only for a granted consent with no revocation
func (s *SQLiteStore) HasValidConsent(ctx context.Context, memberID string, consentType domain.Type) (bool, error) {
	c, found, err := s.GetLatestByType(ctx, memberID, consentType)
	if err != nil || !found {
		return false, err
	}
	return c.IsValid(), nil
}

const upsertSQL = `INSERT INTO consent (` + consentColumns + `)
	 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	 ON CONFLICT(id) DO UPDATE SET
	   granted=excluded.granted, revoked_at=excluded.revoked_at`

func saveArgs(c domain.Consent) []any {
	var revokedAt interface{}
	if c.RevokedAt != nil {
		revokedAt = c.RevokedAt.Format(dateLayout)
	}
	return []any{
		c.ID, c.MemberID, string(c.Type), c.Granted, c.GrantedAt.Format(dateLayout),
		revokedAt, c.Source, c.IPAddress, c.UserAgent, c.Version,
	}
}

// scanConsent extracts a Consent from a row scanner function.
func scanConsent(scan func(dest ...interface{}) error) (domain.Consent, error) {
	var c domain.Consent
	var grantedAt string
	var revokedAt sql.NullString
	err := scan(&c.ID, &c.MemberID, &c.Type, &c.Granted, &grantedAt, &revokedAt,
		&c.Source, &c.IPAddress, &c.UserAgent, &c.Version)
	if err != nil {
		return domain.Consent{}, err
	}
	c.GrantedAt, _ = time.Parse(dateLayout, grantedAt)
	if revokedAt.Valid && revokedAt.String != "" {
		t, _ := time.Parse(dateLayout, revokedAt.String)
		c.RevokedAt = &t
	}
	return c, nil
}
