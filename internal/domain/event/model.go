package event

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength = 200
)

// Event status constants.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusCancelled = "cancelled"
)

// Registration status constants.
const (
	RegStatusRegistered = "registered"
	RegStatusWaitlisted = "waitlisted"
	RegStatusCancelled  = "cancelled"
	RegStatusAttended   = "attended"
)

// Domain errors
var (
	ErrNotPublished  = errors.New("event is not published")
	ErrEventFull     = errors.New("event is at capacity")
	ErrNotRegistered = errors.New("registration is not active")
)

// Event is a service, class, or gathering members can register for.
// Capacity zero means unlimited.
type Event struct {
	ID        string
	Title     string
	Location  string
	StartsAt  time.Time
	EndsAt    time.Time
	Capacity  int
	Status    string
	CreatedAt time.Time
}

// Registration links a member to an event.
type Registration struct {
	ID           string
	EventID      string
	MemberID     string
	Status       string
	RegisteredAt time.Time
}

// Validate checks if the Event has valid data.
// PRE: Event struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("event title cannot be empty")
	}
	if len(e.Title) > MaxTitleLength {
		return errors.New("event title cannot exceed 200 characters")
	}
	if e.StartsAt.IsZero() || e.EndsAt.IsZero() {
		return errors.New("event times must be set")
	}
	if !e.StartsAt.Before(e.EndsAt) {
		return errors.New("event start must be before end")
	}
	if e.Capacity < 0 {
		return errors.New("event capacity cannot be negative")
	}
	if e.Status != StatusDraft && e.Status != StatusPublished && e.Status != StatusCancelled {
		return errors.New("status must be 'draft', 'published', or 'cancelled'")
	}
	return nil
}

// Overlaps returns true if this event's time range intersects another's.
// INVARIANT: Event is not mutated
func (e *Event) Overlaps(other *Event) bool {
	return e.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(e.EndsAt)
}

// Register creates a registration for a member, waitlisting when the event is
// at capacity. activeCount is the number of current registered (not
// waitlisted, not cancelled) registrations.
// PRE: Event is published
// POST: Returns a registration with status registered or waitlisted
func (e *Event) Register(memberID string, activeCount int, at time.Time) (Registration, error) {
	if e.Status != StatusPublished {
		return Registration{}, ErrNotPublished
	}
	status := RegStatusRegistered
	if e.Capacity > 0 && activeCount >= e.Capacity {
		status = RegStatusWaitlisted
	}
	return Registration{
		EventID:      e.ID,
		MemberID:     memberID,
		Status:       status,
		RegisteredAt: at,
	}, nil
}

// Cancel marks a registration cancelled.
// PRE: Registration is registered or waitlisted
// POST: Status is cancelled
func (r *Registration) Cancel() error {
	if r.Status != RegStatusRegistered && r.Status != RegStatusWaitlisted {
		return ErrNotRegistered
	}
	r.Status = RegStatusCancelled
	return nil
}

// MarkAttended records that the member showed up.
// PRE: Registration is registered
// POST: Status is attended
func (r *Registration) MarkAttended() error {
	if r.Status != RegStatusRegistered {
		return ErrNotRegistered
	}
	r.Status = RegStatusAttended
	return nil
}

// Promote moves a waitlisted registration to registered, used when a spot
// frees up.
// PRE: Registration is waitlisted
// POST: Status is registered
func (r *Registration) Promote() error {
	if r.Status != RegStatusWaitlisted {
		return ErrNotRegistered
	}
	r.Status = RegStatusRegistered
	return nil
}

// NextPromotable returns the earliest waitlisted registration by registration
// time, or false if none.
func NextPromotable(regs []Registration) (Registration, bool) {
	var best Registration
	found := false
	for _, r := range regs {
		if r.Status != RegStatusWaitlisted {
			continue
		}
		if !found || r.RegisteredAt.Before(best.RegisteredAt) {
			best = r
			found = true
		}
	}
	return best, found
}
