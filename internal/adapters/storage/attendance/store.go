package attendance

import (
	"context"

	domain "parish/internal/domain/attendance"
)

// Store persists CheckIn state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.CheckIn, error)
	Save(ctx context.Context, value domain.CheckIn) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.CheckIn, error)
	ListByMemberID(ctx context.Context, memberID string) ([]domain.CheckIn, error)
	ListByEventID(ctx context.Context, eventID string) ([]domain.CheckIn, error)
	ListByServiceDate(ctx context.Context, date string) ([]domain.CheckIn, error)
	ListByDateRange(ctx context.Context, start string, end string) ([]domain.CheckIn, error)

	// FindActive returns the member's live (not undone) check-in for the
	// given event or service date, if one exists.
	FindActive(ctx context.Context, memberID, eventID, serviceDate string) (domain.CheckIn, bool, error)

	// CountByEventID counts live check-ins for an event.
	CountByEventID(ctx context.Context, eventID string) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit         int
	Offset        int
	Method        string
	IncludeUndone bool
}
