package ministry

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Assignee kinds: a volunteer (member) or a physical resource (room, van,
// sound desk).
const (
	AssigneeVolunteer = "volunteer"
	AssigneeResource  = "resource"
)

// Domain errors
var (
	ErrOverlap      = errors.New("assignee already has an overlapping assignment")
	ErrEmptyRole    = errors.New("assignment role is required")
	ErrEmptyTarget  = errors.New("assignment needs a ministry or event")
	ErrAlreadyEnded = errors.New("assignment has already ended")
)

// Ministry is a named team or configuration area: worship, youth, hospitality.
type Ministry struct {
	ID          string
	Name        string
	Description string
	Leader      string // member ID, optional
	Roles       []string
	CreatedAt   time.Time
}

// Assignment places a volunteer or resource into a role, either for a
// ministry generally or for one event's time window.
type Assignment struct {
	ID           string
	AssigneeKind string
	AssigneeID   string
	MinistryID   string
	EventID      string
	Role         string
	StartsAt     time.Time
	EndsAt       time.Time
	CreatedAt    time.Time
}

// Validate checks if the Ministry has valid data.
// PRE: Ministry struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (m *Ministry) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("ministry name cannot be empty")
	}
	if len(m.Name) > MaxNameLength {
		return errors.New("ministry name cannot exceed 100 characters")
	}
	seen := make(map[string]bool, len(m.Roles))
	for _, role := range m.Roles {
		key := strings.ToLower(strings.TrimSpace(role))
		if key == "" {
			return errors.New("ministry roles cannot be empty")
		}
		if seen[key] {
			return errors.New("ministry roles must be unique")
		}
		seen[key] = true
	}
	return nil
}

// HasRole returns true if the role is declared on the ministry
// (case-insensitive).
// INVARIANT: Ministry is not mutated
func (m *Ministry) HasRole(role string) bool {
	want := strings.ToLower(strings.TrimSpace(role))
	for _, r := range m.Roles {
		if strings.ToLower(strings.TrimSpace(r)) == want {
			return true
		}
	}
	return false
}

// Validate checks if the Assignment has valid data.
// PRE: Assignment struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (a *Assignment) Validate() error {
	if a.AssigneeKind != AssigneeVolunteer && a.AssigneeKind != AssigneeResource {
		return errors.New("assignee kind must be 'volunteer' or 'resource'")
	}
	if a.AssigneeID == "" {
		return errors.New("assignment must name an assignee")
	}
	if a.MinistryID == "" && a.EventID == "" {
		return ErrEmptyTarget
	}
	if strings.TrimSpace(a.Role) == "" {
		return ErrEmptyRole
	}
	if !a.StartsAt.IsZero() && !a.EndsAt.IsZero() && !a.StartsAt.Before(a.EndsAt) {
		return errors.New("assignment start must be before end")
	}
	return nil
}

// Overlaps returns true if two assignments for the same assignee intersect
// in time. Open-ended assignments (zero times) conflict with everything for
// the same assignee.
// INVARIANT: Assignment is not mutated
func (a *Assignment) Overlaps(other *Assignment) bool {
	if a.AssigneeID != other.AssigneeID || a.AssigneeKind != other.AssigneeKind {
		return false
	}
	if a.StartsAt.IsZero() || a.EndsAt.IsZero() || other.StartsAt.IsZero() || other.EndsAt.IsZero() {
		return true
	}
	return a.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(a.EndsAt)
}

// FirstConflict returns the first existing assignment that overlaps the
// candidate, or false if none do.
func FirstConflict(candidate *Assignment, existing []Assignment) (Assignment, bool) {
	for _, other := range existing {
		if candidate.ID != "" && candidate.ID == other.ID {
			continue
		}
		if candidate.Overlaps(&other) {
			return other, true
		}
	}
	return Assignment{}, false
}
