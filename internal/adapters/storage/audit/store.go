package audit

import (
	"context"

	domain "parish/internal/domain/audit"
)

// Store persists audit Events. Events are append-only; there is no update
// or delete path.
type Store interface {
	Save(ctx context.Context, event domain.Event) error
	GetByID(ctx context.Context, id string) (domain.Event, error)

	// List returns events matching the filter, newest first, up to limit.
	List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error)
}

// Filter carries query parameters for listing audit events. Empty fields
// match everything.
type Filter struct {
	Category   string
	Action     string
	Severity   string
	ActorID    string
	ResourceID string
	FromDate   string // RFC 3339, inclusive
	ToDate     string // RFC 3339, inclusive
}
