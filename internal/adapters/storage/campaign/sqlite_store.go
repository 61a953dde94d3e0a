package campaign

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/campaign"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const campaignColumns = "id, name, message, fields, recipients, status, start_at, created_by, created_at"

// SQLiteStore implements the campaign Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new campaign store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Campaign by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Campaign, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+campaignColumns+" FROM campaign WHERE id = ?", id)
	entity, err := scanCampaign(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Campaign{}, fmt.Errorf("campaign not found: %w", err)
	}
	return entity, err
}

// Save persists a Campaign. Fields and recipients are stored as JSON.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Campaign) error {
	fields, err := json.Marshal(entity.Fields)
	if err != nil {
		return err
	}
	recipients, err := json.Marshal(entity.Recipients)
	if err != nil {
		return err
	}
	var startAt interface{}
	if !entity.StartAt.IsZero() {
		startAt = entity.StartAt.Format(dateLayout)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO campaign (`+campaignColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, message=excluded.message, fields=excluded.fields,
		   recipients=excluded.recipients, status=excluded.status, start_at=excluded.start_at`,
		entity.ID, entity.Name, entity.Message, string(fields), string(recipients),
		entity.Status, startAt, entity.CreatedBy, entity.CreatedAt.Format(dateLayout))
	return err
}

// Delete removes a Campaign and its responses.
// PRE: id is non-empty
// POST: Campaign and response rows are removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM campaign_response WHERE campaign_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM campaign WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// List retrieves Campaigns based on the filter, newest first.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Campaign, error) {
	query := "SELECT " + campaignColumns + " FROM campaign"
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

	var results []domain.Campaign
	for rows.Next() {
		entity, err := scanCampaign(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// GetResponse returns a member's response for a campaign, if any.
// PRE: campaignID and memberID are non-empty
// POST: Returns the response and true, or false if none
func (s *SQLiteStore) GetResponse(ctx context.Context, campaignID, memberID string) (domain.Response, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, campaign_id, member_id, answers, completed, updated_at
		 FROM campaign_response WHERE campaign_id = ? AND member_id = ?`, campaignID, memberID)
	resp, err := scanResponse(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Response{}, false, nil
	}
	if err != nil {
		return domain.Response{}, false, err
	}
	return resp, true, nil
}

// SaveResponse persists a Response. Answers are stored as a JSON object.
// PRE: resp belongs to an existing campaign
// POST: Response is persisted (insert or update)
func (s *SQLiteStore) SaveResponse(ctx context.Context, resp domain.Response) error {
	answers, err := json.Marshal(resp.Answers)
	if err != nil {
		return err
	}
	completed := 0
	if resp.Completed {
		completed = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO campaign_response (id, campaign_id, member_id, answers, completed, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(campaign_id, member_id) DO UPDATE SET
		   answers=excluded.answers, completed=excluded.completed, updated_at=excluded.updated_at`,
		resp.ID, resp.CampaignID, resp.MemberID, string(answers), completed,
		resp.UpdatedAt.Format(dateLayout))
	return err
}

// ListResponses returns all responses for a campaign.
// PRE: campaignID is non-empty
// POST: Returns responses ordered by last update
func (s *SQLiteStore) ListResponses(ctx context.Context, campaignID string) ([]domain.Response, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, campaign_id, member_id, answers, completed, updated_at
		 FROM campaign_response WHERE campaign_id = ? ORDER BY updated_at ASC`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Response
	for rows.Next() {
		resp, err := scanResponse(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, resp)
	}
	return results, rows.Err()
}

// ListResponsesForMember returns every response a member has given across
// campaigns.
// PRE: memberID is non-empty
// POST: Returns responses oldest first
func (s *SQLiteStore) ListResponsesForMember(ctx context.Context, memberID string) ([]domain.Response, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, campaign_id, member_id, answers, completed, updated_at
		 FROM campaign_response WHERE member_id = ? ORDER BY updated_at ASC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Response
	for rows.Next() {
		resp, err := scanResponse(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, resp)
	}
	return results, rows.Err()
}

// CountResponses returns total and completed response counts for a campaign.
// PRE: campaignID is non-empty
// POST: completed <= total
func (s *SQLiteStore) CountResponses(ctx context.Context, campaignID string) (int, int, error) {
	var total, completed int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(completed), 0)
		 FROM campaign_response WHERE campaign_id = ?`, campaignID).Scan(&total, &completed)
	return total, completed, err
}

// scanCampaign extracts a Campaign from a row scanner function.
func scanCampaign(scan func(dest ...interface{}) error) (domain.Campaign, error) {
	var entity domain.Campaign
	var fields, recipients, createdAt string
	var startAt sql.NullString
	err := scan(
		&entity.ID,
		&entity.Name,
		&entity.Message,
		&fields,
		&recipients,
		&entity.Status,
		&startAt,
		&entity.CreatedBy,
		&createdAt,
	)
	if err != nil {
		return domain.Campaign{}, err
	}
	if err := json.Unmarshal([]byte(fields), &entity.Fields); err != nil {
		return domain.Campaign{}, fmt.Errorf("corrupt fields column: %w", err)
	}
	if err := json.Unmarshal([]byte(recipients), &entity.Recipients); err != nil {
		return domain.Campaign{}, fmt.Errorf("corrupt recipients column: %w", err)
	}
	if startAt.Valid && startAt.String != "" {
		entity.StartAt, _ = time.Parse(dateLayout, startAt.String)
	}
	entity.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	return entity, nil
}

// scanResponse extracts a Response from a row scanner function.
func scanResponse(scan func(dest ...interface{}) error) (domain.Response, error) {
	var resp domain.Response
	var answers, updatedAt string
	var completed int
	err := scan(&resp.ID, &resp.CampaignID, &resp.MemberID, &answers, &completed, &updatedAt)
	if err != nil {
		return domain.Response{}, err
	}
	if err := json.Unmarshal([]byte(answers), &resp.Answers); err != nil {
		return domain.Response{}, fmt.Errorf("corrupt answers column: %w", err)
	}
	resp.Completed = completed != 0
	resp.UpdatedAt, _ = time.Parse(dateLayout, updatedAt)
	return resp, nil
}
