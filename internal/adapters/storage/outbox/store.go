package outbox

import (
	"context"

	domain "parish/internal/domain/outbox"
)

// Store persists outbox Entry state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	Save(ctx context.Context, value domain.Entry) error
	Delete(ctx context.Context, id string) error

	// ListPending returns entries awaiting delivery (pending or retrying),
	// oldest first, up to limit.
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListFailed returns entries that have exhausted their attempts.
	ListFailed(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListByActionType returns entries for one delivery channel, optionally
	// narrowed to a status.
	ListByActionType(ctx context.Context, actionType, status string, limit int) ([]domain.Entry, error)

	// CountByStatus returns how many entries sit in each status.
	CountByStatus(ctx context.Context) (map[string]int, error)
}
