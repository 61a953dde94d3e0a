package reporting

import (
	"context"
	"time"

	domain "parish/internal/domain/reporting"
)

// Store persists report Request state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Request, error)
	Save(ctx context.Context, value domain.Request) error
	Delete(ctx context.Context, id string) error

	// ListByRequester returns an account's requests, newest first.
	ListByRequester(ctx context.Context, accountID string) ([]domain.Request, error)

	// ListExpired returns ready requests whose download window has passed.
	ListExpired(ctx context.Context, now time.Time) ([]domain.Request, error)
}
