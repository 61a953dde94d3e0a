package kiosk

import (
	"context"

	domain "parish/internal/domain/kiosk"
)

// Store persists kiosk Session state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Save(ctx context.Context, value domain.Session) error

	// FindActiveByAccount returns the account's live session, if any.
	FindActiveByAccount(ctx context.Context, accountID string) (domain.Session, bool, error)
}
