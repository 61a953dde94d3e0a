package kiosk

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrEmptyAccountID = errors.New("kiosk must be tied to a launching account")
	ErrEmptyTarget    = errors.New("kiosk must target an event or a service date")
	ErrNotActive      = errors.New("kiosk session is not active")
	ErrAlreadyActive  = errors.New("kiosk session is already active")
)

// Session represents an active kiosk mode session.
// Kiosk mode locks the foyer tablet to check-in for one event or service;
// exiting requires the launching account's password or a staff login.
type Session struct {
	ID          string
	AccountID   string // The account that launched kiosk mode
	EventID     string
	ServiceDate string // YYYY-MM-DD, for standing services without an event record
	StartedAt   time.Time
	EndedAt     time.Time
}

// Validate checks if the Session has valid data.
// PRE: Session struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Session) Validate() error {
	if s.AccountID == "" {
		return ErrEmptyAccountID
	}
	if s.EventID == "" && s.ServiceDate == "" {
		return ErrEmptyTarget
	}
	if s.ServiceDate != "" {
		if _, err := time.Parse("2006-01-02", s.ServiceDate); err != nil {
			return errors.New("service date must be YYYY-MM-DD")
		}
	}
	if s.StartedAt.IsZero() {
		return errors.New("started_at cannot be zero")
	}
	return nil
}

// IsActive returns true if the kiosk session is currently active.
// INVARIANT: Session fields are not mutated
func (s *Session) IsActive() bool {
	return s.EndedAt.IsZero()
}

// End terminates the kiosk session.
// PRE: Session is currently active
// POST: EndedAt is set
func (s *Session) End(at time.Time) error {
	if !s.IsActive() {
		return ErrNotActive
	}
	s.EndedAt = at
	return nil
}
