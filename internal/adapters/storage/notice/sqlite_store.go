package notice

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/notice"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const noticeColumns = "id, type, status, title, content, created_by, published_by, target_id, author_name, show_author, color, pinned, pinned_at, visible_from, visible_until, created_at, updated_at, published_at"

// SQLiteStore implements the notice Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new notice store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Notice by its ID.
// PRE: id is non-empty
// POST: Returns the notice or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Notice, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+noticeColumns+" FROM notice WHERE id = ?", id)
	n, err := scanNotice(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Notice{}, fmt.Errorf("notice not found: %w", err)
	}
	return n, err
}

// Save persists a Notice.
// PRE: notice has been validated
// POST: Notice is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, n domain.Notice) error {
	var publishedBy, targetID interface{}
	if n.PublishedBy != "" {
		publishedBy = n.PublishedBy
	}
	if n.TargetID != "" {
		targetID = n.TargetID
	}
	color := n.Color
	if color == "" {
		color = domain.ColorGold
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notice (`+noticeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   type=excluded.type, status=excluded.status, title=excluded.title,
		   content=excluded.content, published_by=excluded.published_by,
		   target_id=excluded.target_id, author_name=excluded.author_name,
		   show_author=excluded.show_author, color=excluded.color,
		   pinned=excluded.pinned, pinned_at=excluded.pinned_at,
		   visible_from=excluded.visible_from, visible_until=excluded.visible_until,
		   updated_at=excluded.updated_at, published_at=excluded.published_at`,
		n.ID, n.Type, n.Status, n.Title, n.Content, n.CreatedBy, publishedBy, targetID,
		n.AuthorName, boolToInt(n.ShowAuthor), color, boolToInt(n.Pinned),
		optionalTime(n.PinnedAt), optionalTime(n.VisibleFrom), optionalTime(n.VisibleUntil),
		n.CreatedAt.Format(dateLayout), optionalTime(n.UpdatedAt), optionalTime(n.PublishedAt))
	return err
}

// Delete removes a Notice.
// PRE: id is non-empty
// POST: Notice row is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM notice WHERE id = ?", id)
	return err
}

// List retrieves notices based on the filter.
// PRE: filter has valid parameters
// POST: Returns matching notices, pinned first, then newest
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Notice, error) {
	query := "SELECT " + noticeColumns + " FROM notice WHERE 1=1"
	var args []any
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.TargetID != "" {
		query += " AND target_id = ?"
		args = append(args, filter.TargetID)
	}
	query += " ORDER BY pinned DESC, pinned_at DESC, created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotices(rows)
}

// ListPublished returns published notices of one type currently inside their
// visibility window. targetID narrows ministry/event notices to one board.
// PRE: noticeType is valid; targetID may be empty
// POST: Returns visible notices, pinned first, then most recently published
func (s *SQLiteStore) ListPublished(ctx context.Context, noticeType, targetID string, now time.Time) ([]domain.Notice, error) {
	nowStr := now.UTC().Format(dateLayout)
	query := `SELECT ` + noticeColumns + ` FROM notice
		 WHERE status = ? AND type = ?
		 AND (visible_from IS NULL OR visible_from <= ?)
		 AND (visible_until IS NULL OR visible_until >= ?)`
	args := []any{domain.StatusPublished, noticeType, nowStr, nowStr}
	if targetID != "" {
		query += " AND target_id = ?"
		args = append(args, targetID)
	}
	query += " ORDER BY pinned DESC, pinned_at DESC, published_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotices(rows)
}

// scanNotice extracts a Notice from a row scanner function.
func scanNotice(scan func(dest ...interface{}) error) (domain.Notice, error) {
	var n domain.Notice
	var publishedBy, targetID sql.NullString
	var showAuthor, pinned int
	var pinnedAt, visibleFrom, visibleUntil, updatedAt, publishedAt sql.NullString
	var createdAt string
	err := scan(&n.ID, &n.Type, &n.Status, &n.Title, &n.Content, &n.CreatedBy,
		&publishedBy, &targetID, &n.AuthorName, &showAuthor, &n.Color, &pinned,
		&pinnedAt, &visibleFrom, &visibleUntil, &createdAt, &updatedAt, &publishedAt)
	if err != nil {
		return domain.Notice{}, err
	}
	n.PublishedBy = publishedBy.String
	n.TargetID = targetID.String
	n.ShowAuthor = showAuthor != 0
	n.Pinned = pinned != 0
	n.PinnedAt = parseOptional(pinnedAt)
	n.VisibleFrom = parseOptional(visibleFrom)
	n.VisibleUntil = parseOptional(visibleUntil)
	n.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	n.UpdatedAt = parseOptional(updatedAt)
	n.PublishedAt = parseOptional(publishedAt)
	return n, nil
}

func scanNotices(rows *sql.Rows) ([]domain.Notice, error) {
	var results []domain.Notice
	for rows.Next() {
		n, err := scanNotice(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, n)
	}
	return results, rows.Err()
}

func optionalTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}

func parseOptional(v sql.NullString) time.Time {
	if !v.Valid || v.String == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, v.String)
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
