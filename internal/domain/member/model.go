package member

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Business rule constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusArchived = "archived"
)

// phonePattern: country code prefix plus exactly ten digits.
var phonePattern = regexp.MustCompile(`^\+[0-9]{1,3}[0-9]{10}$`)

// Domain errors
var (
	ErrAlreadyArchived = errors.New("member is already archived")
	ErrNotArchived     = errors.New("member is not archived")
	ErrInvalidPhone    = errors.New("phone must be a country code followed by a 10-digit number")
)

// Address is a member's postal address.
type Address struct {
	Line1    string
	Line2    string
	City     string
	Postcode string
}

// EmergencyContact is the person to call for a member.
type EmergencyContact struct {
	Name     string
	Phone    string
	Relation string
}

// Member holds state for a congregation member.
type Member struct {
	ID               string
	Name             string
	Email            string
	Phone            string
	Address          Address
	EmergencyContact EmergencyContact
	MinistryID       string
	Status           string
	JoinedAt         time.Time
}

// FamilyMember is a household member recorded during onboarding. Ordered by
// Position, which preserves the order they were entered.
type FamilyMember struct {
	ID        string
	MemberID  string
	FirstName string
	LastName  string
	Relation  string
	BirthYear int
	Position  int
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Email must contain '@', Name must not be empty
func (m *Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("member name cannot be empty")
	}
	if len(m.Name) > MaxNameLength {
		return errors.New("member name cannot exceed 100 characters")
	}
	if !strings.Contains(m.Email, "@") {
		return errors.New("member email must be valid")
	}
	if m.Phone != "" && !phonePattern.MatchString(m.Phone) {
		return ErrInvalidPhone
	}
	if m.Status != StatusActive && m.Status != StatusInactive && m.Status != StatusArchived {
		return errors.New("status must be 'active', 'inactive', or 'archived'")
	}
	return nil
}

// Validate checks required family member fields.
// PRE: FamilyMember struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (f *FamilyMember) Validate() error {
	if strings.TrimSpace(f.FirstName) == "" {
		return errors.New("family member first name cannot be empty")
	}
	if f.MemberID == "" {
		return errors.New("family member must belong to a member")
	}
	return nil
}

// IsActive returns true if the member is currently active.
// INVARIANT: Status field is not mutated
func (m *Member) IsActive() bool {
	return m.Status == StatusActive
}

// IsArchived returns true if the member is archived.
// INVARIANT: Status field is not mutated
func (m *Member) IsArchived() bool {
	return m.Status == StatusArchived
}

// Archive sets the member status to archived.
// PRE: Member is not already archived
// POST: Status is set to archived
func (m *Member) Archive() error {
	if m.Status == StatusArchived {
		return ErrAlreadyArchived
	}
	m.Status = StatusArchived
	return nil
}

// Restore sets the member status back to active.
// PRE: Member is currently archived
// POST: Status is set to active
func (m *Member) Restore() error {
	if m.Status != StatusArchived {
		return ErrNotArchived
	}
	m.Status = StatusActive
	return nil
}
