package vote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/vote"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const voteColumns = "id, title, description, options, start_at, end_at, status, created_by, created_at"

// SQLiteStore implements the vote Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new vote store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Vote by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Vote, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+voteColumns+" FROM vote WHERE id = ?", id)
	entity, err := scanVote(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Vote{}, fmt.Errorf("vote not found: %w", err)
	}
	return entity, err
}

// Save persists a Vote to the database. Options are stored as a JSON array.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Vote) error {
	options, err := json.Marshal(entity.Options)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO vote (`+voteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, description=excluded.description, options=excluded.options,
		   start_at=excluded.start_at, end_at=excluded.end_at, status=excluded.status`,
		entity.ID, entity.Title, entity.Description, string(options),
		entity.StartAt.Format(dateLayout), entity.EndAt.Format(dateLayout),
		entity.Status, entity.CreatedBy, entity.CreatedAt.Format(dateLayout))
	return err
}

// Delete removes a Vote and its ballots from the database.
// PRE: id is non-empty
// POST: Vote, ballots, and receipts with the given vote id are removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM ballot WHERE vote_id = ?",
		"DELETE FROM ballot_receipt WHERE vote_id = ?",
		"DELETE FROM vote WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// List retrieves Votes based on the filter, newest first.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Vote, error) {
	query := "SELECT " + voteColumns + " FROM vote"
	var args []any
	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Vote
	for rows.Next() {
		entity, err := scanVote(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// SaveBallot records a ballot and the member's receipt atomically.
// PRE: ballot has been validated against the vote
// POST: Ballot row (anonymous) and receipt row exist, or ErrAlreadyBalloted
func (s *SQLiteStore) SaveBallot(ctx context.Context, ballot domain.Ballot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO ballot_receipt (vote_id, member_id, cast_at) VALUES (?, ?, ?)",
		ballot.VoteID, ballot.MemberID, ballot.CastAt.Format(dateLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return domain.ErrAlreadyBalloted
		}
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO ballot (id, vote_id, option, cast_at) VALUES (?, ?, ?, ?)",
		ballot.ID, ballot.VoteID, ballot.Option, ballot.CastAt.Format(dateLayout))
	if err != nil {
		return err
	}
	return tx.Commit()
}

// HasVoted reports whether a receipt exists for the member.
// PRE: voteID and memberID are non-empty
// POST: Returns true if the member has cast a ballot on this vote
func (s *SQLiteStore) HasVoted(ctx context.Context, voteID, memberID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ballot_receipt WHERE vote_id = ? AND member_id = ?",
		voteID, memberID).Scan(&count)
	return count > 0, err
}

// ListBallots returns all ballots for a vote.
// PRE: voteID is non-empty
// POST: Returns anonymous ballots in cast order
func (s *SQLiteStore) ListBallots(ctx context.Context, voteID string) ([]domain.Ballot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, vote_id, option, cast_at FROM ballot WHERE vote_id = ? ORDER BY cast_at ASC", voteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Ballot
	for rows.Next() {
		var b domain.Ballot
		var castAt string
		if err := rows.Scan(&b.ID, &b.VoteID, &b.Option, &castAt); err != nil {
			return nil, err
		}
		b.CastAt, _ = time.Parse(dateLayout, castAt)
		results = append(results, b)
	}
	return results, rows.Err()
}

// scanVote extracts a Vote from a row scanner function.
func scanVote(scan func(dest ...interface{}) error) (domain.Vote, error) {
	var entity domain.Vote
	var options, startAt, endAt, createdAt string
	err := scan(
		&entity.ID,
		&entity.Title,
		&entity.Description,
		&options,
		&startAt,
		&endAt,
		&entity.Status,
		&entity.CreatedBy,
		&createdAt,
	)
	if err != nil {
		return domain.Vote{}, err
	}
	if err := json.Unmarshal([]byte(options), &entity.Options); err != nil {
		return domain.Vote{}, fmt.Errorf("corrupt options column: %w", err)
	}
	entity.StartAt, _ = time.Parse(dateLayout, startAt)
	entity.EndAt, _ = time.Parse(dateLayout, endAt)
	entity.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	return entity, nil
}
