package attendance

import (
	"errors"
	"strings"
	"time"
)

// Check-in method constants.
const (
	MethodManual = "manual"
	MethodKiosk  = "kiosk"
	MethodQR     = "qr"
)

// Domain errors
var (
	ErrNoSubject      = errors.New("check-in needs a member or a guest name")
	ErrAlreadyUndone  = errors.New("check-in is already undone")
	ErrUndoWindowOver = errors.New("check-in can no longer be undone")
)

// UndoWindow is how long after check-in an undo is accepted. Late undos are
// corrections the office makes directly, not a kiosk affordance.
const UndoWindow = 15 * time.Minute

// CheckIn records one person present at an event or service. Either MemberID
// or GuestName is set; guests have no member record.
type CheckIn struct {
	ID          string
	MemberID    string
	GuestName   string
	EventID     string
	ServiceDate string // YYYY-MM-DD
	Method      string
	CheckedInAt time.Time
	UndoneAt    time.Time
}

// Validate checks if the CheckIn has valid data.
// PRE: CheckIn struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: exactly one of MemberID/GuestName identifies the subject
func (c *CheckIn) Validate() error {
	if c.MemberID == "" && strings.TrimSpace(c.GuestName) == "" {
		return ErrNoSubject
	}
	if c.EventID == "" && c.ServiceDate == "" {
		return errors.New("check-in needs an event or a service date")
	}
	if c.ServiceDate != "" {
		if _, err := time.Parse("2006-01-02", c.ServiceDate); err != nil {
			return errors.New("service date must be YYYY-MM-DD")
		}
	}
	switch c.Method {
	case MethodManual, MethodKiosk, MethodQR:
	default:
		return errors.New("method must be 'manual', 'kiosk', or 'qr'")
	}
	if c.CheckedInAt.IsZero() {
		return errors.New("check-in time must be set")
	}
	return nil
}

// IsGuest returns true for a guest check-in.
// INVARIANT: CheckIn is not mutated
func (c *CheckIn) IsGuest() bool {
	return c.MemberID == ""
}

// IsUndone returns true if the check-in has been undone.
// INVARIANT: CheckIn is not mutated
func (c *CheckIn) IsUndone() bool {
	return !c.UndoneAt.IsZero()
}

// Undo reverses a recent check-in.
// PRE: CheckIn is not already undone and is inside the undo window
// POST: UndoneAt is set
func (c *CheckIn) Undo(at time.Time) error {
	if c.IsUndone() {
		return ErrAlreadyUndone
	}
	if at.Sub(c.CheckedInAt) > UndoWindow {
		return ErrUndoWindowOver
	}
	c.UndoneAt = at
	return nil
}
