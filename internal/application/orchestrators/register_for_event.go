package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parish/internal/domain/event"
	"parish/internal/domain/member"

	"github.com/google/uuid"
)

// RegistrationStore defines the event store interface needed by registration
// orchestrators.
type RegistrationStore interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	GetRegistration(ctx context.Context, id string) (event.Registration, error)
	SaveRegistration(ctx context.Context, reg event.Registration) error
	ListRegistrations(ctx context.Context, eventID string) ([]event.Registration, error)
	FindRegistration(ctx context.Context, eventID, memberID string) (event.Registration, bool, error)
	CountActiveRegistrations(ctx context.Context, eventID string) (int, error)
}

// RegistrationMemberStore defines the member store interface needed by
// registration orchestrators.
type RegistrationMemberStore interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// Registration errors.
var ErrAlreadyRegistered = errors.New("member is already registered for this event")

// RegisterForEventInput carries input for the registration orchestrator.
type RegisterForEventInput struct {
	EventID  string
	MemberID string
}

// RegisterForEventDeps holds dependencies for RegisterForEvent.
type RegisterForEventDeps struct {
	EventStore  RegistrationStore
	MemberStore RegistrationMemberStore
	Now         func() time.Time
}

// ExecuteRegisterForEvent registers a member for a published event,
// waitlisting them when the event is at capacity.
// PRE: Event is published; member is active with no live registration
// POST: Registration persisted with status registered or waitlisted
// INVARIANT: Active registrations never exceed capacity (capacity > 0)
func ExecuteRegisterForEvent(ctx context.Context, input RegisterForEventInput, deps RegisterForEventDeps) (event.Registration, error) {
	if input.EventID == "" || input.MemberID == "" {
		return event.Registration{}, errors.New("event and member are required")
	}

	e, err := deps.EventStore.GetByID(ctx, input.EventID)
	if err != nil {
		return event.Registration{}, errors.New("event not found")
	}

	m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
	if err != nil {
		return event.Registration{}, errors.New("member not found")
	}
	if !m.IsActive() {
		return event.Registration{}, ErrMemberNotActive
	}

	if existing, found, err := deps.EventStore.FindRegistration(ctx, input.EventID, input.MemberID); err != nil {
		return event.Registration{}, err
	} else if found && existing.Status != event.RegStatusCancelled {
		return event.Registration{}, ErrAlreadyRegistered
	}

	active, err := deps.EventStore.CountActiveRegistrations(ctx, input.EventID)
	if err != nil {
		return event.Registration{}, err
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	reg, err := e.Register(input.MemberID, active, now)
	if err != nil {
		return event.Registration{}, err
	}
	reg.ID = uuid.New().String()

	if err := deps.EventStore.SaveRegistration(ctx, reg); err != nil {
		return event.Registration{}, err
	}

	slog.Info("event_event", "event", "member_registered", "event_id", e.ID,
		"member_id", input.MemberID, "status", reg.Status)
	return reg, nil
}

// CancelRegistrationInput carries input for the cancellation orchestrator.
type CancelRegistrationInput struct {
	RegistrationID string
}

// CancelRegistrationDeps holds dependencies for CancelRegistration.
type CancelRegistrationDeps struct {
	EventStore RegistrationStore
}

// ExecuteCancelRegistration cancels a registration and, when the cancelled
// registration held a spot, promotes the earliest waitlisted member into it.
// PRE: Registration is registered or waitlisted
// POST: Registration cancelled; at most one waitlisted registration promoted
func ExecuteCancelRegistration(ctx context.Context, input CancelRegistrationInput, deps CancelRegistrationDeps) error {
	if input.RegistrationID == "" {
		return errors.New("registration ID is required")
	}

	reg, err := deps.EventStore.GetRegistration(ctx, input.RegistrationID)
	if err != nil {
		return errors.New("registration not found")
	}
	heldSpot := reg.Status == event.RegStatusRegistered

	if err := reg.Cancel(); err != nil {
		return err
	}
	if err := deps.EventStore.SaveRegistration(ctx, reg); err != nil {
		return err
	}
	slog.Info("event_event", "event", "registration_cancelled", "registration_id", reg.ID, "event_id", reg.EventID)

	if !heldSpot {
		return nil
	}

	regs, err := deps.EventStore.ListRegistrations(ctx, reg.EventID)
	if err != nil {
		return err
	}
	next, found := event.NextPromotable(regs)
	if !found {
		return nil
	}
	if err := next.Promote(); err != nil {
		return err
	}
	if err := deps.EventStore.SaveRegistration(ctx, next); err != nil {
		return err
	}

	slog.Info("event_event", "event", "registration_promoted", "registration_id", next.ID,
		"event_id", next.EventID, "member_id", next.MemberID)
	return nil
}

// MarkAttendedInput carries input for marking a registration attended.
type MarkAttendedInput struct {
	RegistrationID string
}

// MarkAttendedDeps holds dependencies for MarkAttended.
type MarkAttendedDeps struct {
	EventStore RegistrationStore
}

// ExecuteMarkAttended records that a registered member showed up.
// PRE: Registration is registered
// POST: Registration status is attended
func ExecuteMarkAttended(ctx context.Context, input MarkAttendedInput, deps MarkAttendedDeps) error {
	if input.RegistrationID == "" {
		return errors.New("registration ID is required")
	}

	reg, err := deps.EventStore.GetRegistration(ctx, input.RegistrationID)
	if err != nil {
		return errors.New("registration not found")
	}
	if err := reg.MarkAttended(); err != nil {
		return err
	}
	return deps.EventStore.SaveRegistration(ctx, reg)
}
