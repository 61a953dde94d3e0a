package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parish/internal/domain/attendance"
	"parish/internal/domain/member"

	"github.com/google/uuid"
)

// CheckInAttendanceStore defines the attendance store interface needed by check-in.
type CheckInAttendanceStore interface {
	Save(ctx context.Context, c attendance.CheckIn) error
	FindActive(ctx context.Context, memberID, eventID, serviceDate string) (attendance.CheckIn, bool, error)
}

// CheckInMemberStore defines the member store interface needed by check-in.
type CheckInMemberStore interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	SearchByName(ctx context.Context, query string, limit int) ([]member.Member, error)
}

// Check-in errors.
var (
	ErrAlreadyCheckedIn = errors.New("already checked in for this service")
	ErrMemberNotActive  = errors.New("member is not active")
)

// CheckInInput carries input for the check-in orchestrator. Exactly one of
// MemberID or GuestName identifies the subject; exactly one of EventID or
// ServiceDate identifies the occasion.
type CheckInInput struct {
	MemberID    string
	GuestName   string
	EventID     string
	ServiceDate string // YYYY-MM-DD
	Method      string // manual, kiosk, qr
}

// CheckInDeps holds dependencies for CheckIn.
type CheckInDeps struct {
	AttendanceStore CheckInAttendanceStore
	MemberStore     CheckInMemberStore
	Now             func() time.Time // injectable for testing
}

// ExecuteCheckIn records a member or guest check-in for a service or event.
// PRE: Subject and occasion are identified; member (if any) exists and is active
// POST: A live check-in exists for the subject and occasion
// INVARIANT: At most one live check-in per member per occasion
func ExecuteCheckIn(ctx context.Context, input CheckInInput, deps CheckInDeps) (attendance.CheckIn, error) {
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	if input.MemberID != "" {
		m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
		if err != nil {
			return attendance.CheckIn{}, errors.New("member not found")
		}
		if !m.IsActive() {
			return attendance.CheckIn{}, ErrMemberNotActive
		}
		_, exists, err := deps.AttendanceStore.FindActive(ctx, input.MemberID, input.EventID, input.ServiceDate)
		if err != nil {
			return attendance.CheckIn{}, err
		}
		if exists {
			return attendance.CheckIn{}, ErrAlreadyCheckedIn
		}
	}

	c := attendance.CheckIn{
		ID:          uuid.New().String(),
		MemberID:    input.MemberID,
		GuestName:   input.GuestName,
		EventID:     input.EventID,
		ServiceDate: input.ServiceDate,
		Method:      input.Method,
		CheckedInAt: now,
	}
	if err := c.Validate(); err != nil {
		return attendance.CheckIn{}, err
	}

	if err := deps.AttendanceStore.Save(ctx, c); err != nil {
		return attendance.CheckIn{}, err
	}

	slog.Info("attendance_event", "event", "checked_in", "check_in_id", c.ID,
		"member_id", c.MemberID, "guest", c.IsGuest(), "method", c.Method)
	return c, nil
}

// SearchMembersInput carries input for name-based member search at the
// check-in desk.
type SearchMembersInput struct {
	Query string
	Limit int
}

// SearchMembersDeps holds dependencies for SearchMembers.
type SearchMembersDeps struct {
	MemberStore CheckInMemberStore
}

// ExecuteSearchMembers returns a shortlist of members matching a name prefix.
// PRE: Query is non-empty after trimming
// POST: Returns up to Limit matching non-archived members
func ExecuteSearchMembers(ctx context.Context, input SearchMembersInput, deps SearchMembersDeps) ([]member.Member, error) {
	if input.Query == "" {
		return nil, errors.New("search query is required")
	}
	limit := input.Limit
	if limit <= 0 || limit > 20 {
		limit = 10
	}
	return deps.MemberStore.SearchByName(ctx, input.Query, limit)
}

// UndoCheckInStore defines the attendance store interface needed by undo.
type UndoCheckInStore interface {
	GetByID(ctx context.Context, id string) (attendance.CheckIn, error)
	Save(ctx context.Context, c attendance.CheckIn) error
}

// UndoCheckInInput carries input for the undo orchestrator.
type UndoCheckInInput struct {
	CheckInID string
}

// UndoCheckInDeps holds dependencies for UndoCheckIn.
type UndoCheckInDeps struct {
	AttendanceStore UndoCheckInStore
	Now             func() time.Time
}

// ExecuteUndoCheckIn reverses a mistaken check-in within the undo window.
// PRE: CheckInID refers to a live check-in within the window
// POST: Check-in is marked undone; the row is kept for the audit trail
func ExecuteUndoCheckIn(ctx context.Context, input UndoCheckInInput, deps UndoCheckInDeps) error {
	if input.CheckInID == "" {
		return errors.New("check-in ID is required")
	}

	c, err := deps.AttendanceStore.GetByID(ctx, input.CheckInID)
	if err != nil {
		return errors.New("check-in not found")
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	if err := c.Undo(now); err != nil {
		return err
	}

	if err := deps.AttendanceStore.Save(ctx, c); err != nil {
		return err
	}

	slog.Info("attendance_event", "event", "check_in_undone", "check_in_id", c.ID, "member_id", c.MemberID)
	return nil
}
