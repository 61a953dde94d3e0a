package event

import (
	"context"

	domain "parish/internal/domain/event"
)

// Store persists Event and Registration state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Save(ctx context.Context, value domain.Event) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Event, error)
	ListBetween(ctx context.Context, start, end string) ([]domain.Event, error)

	GetRegistration(ctx context.Context, id string) (domain.Registration, error)
	SaveRegistration(ctx context.Context, reg domain.Registration) error
	ListRegistrations(ctx context.Context, eventID string) ([]domain.Registration, error)
	FindRegistration(ctx context.Context, eventID, memberID string) (domain.Registration, bool, error)

	// ListRegistrationsForMember returns every registration a member holds,
	// oldest first.
	ListRegistrationsForMember(ctx context.Context, memberID string) ([]domain.Registration, error)

	// CountActiveRegistrations counts registrations with status 'registered'.
	CountActiveRegistrations(ctx context.Context, eventID string) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
	Status string
}
