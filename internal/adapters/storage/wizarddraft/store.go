package wizarddraft

import (
	"context"
	"time"
)

// Record is a persisted wizard draft: the collected fields plus the step the
// user was last on, so an interrupted wizard resumes where it left off.
type Record struct {
	ID        string
	Kind      string
	AccountID string
	RecordID  string // record being edited, empty in create mode
	Step      string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists wizard drafts.
type Store interface {
	GetByID(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, value Record) error
	Delete(ctx context.Context, id string) error

	// FindByOwner returns the account's draft for one wizard kind, if any.
	FindByOwner(ctx context.Context, accountID, kind string) (Record, bool, error)

	// DeleteStale removes drafts not touched since the cutoff. Returns the
	// number removed.
	DeleteStale(ctx context.Context, cutoff time.Time) (int, error)
}
