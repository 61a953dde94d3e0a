package consent

import (
	"time"

	"github.com/google/uuid"
)

// Type represents the type of consent given.
type Type string

const (
	TypeTerms      Type = "terms"
	TypePhotos     Type = "photos"
	TypeSMSUpdates Type = "sms_updates"
)

// Consent represents a member's consent record, captured during onboarding
// and revocable afterwards.
type Consent struct {
	ID        string     `json:"id"`
	MemberID  string     `json:"member_id"`
	Type      Type       `json:"type"`
	Granted   bool       `json:"granted"`
	GrantedAt time.Time  `json:"granted_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	Source    string     `json:"source"`
	IPAddress string     `json:"ip_address"`
	UserAgent string     `json:"user_agent"`
	Version   string     `json:"version"`
}

// NewConsent creates a new consent record.
// PRE: memberID and consentType are non-empty
// POST: Returns a Consent with the given timestamp and granted=true
func NewConsent(memberID string, consentType Type, at time.Time, source, ipAddress, userAgent, version string) Consent {
	return Consent{
		ID:        uuid.New().String(),
		MemberID:  memberID,
		Type:      consentType,
		Granted:   true,
		GrantedAt: at,
		Source:    source,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Version:   version,
	}
}

// Revoke marks the consent as revoked.
// PRE: Consent was previously granted and not already revoked
// POST: RevokedAt is set, Granted is false
func (c *Consent) Revoke(at time.Time) error {
	if !c.Granted {
		return ErrConsentNotGranted
	}
	if c.RevokedAt != nil {
		return ErrConsentAlreadyRevoked
	}
	c.RevokedAt = &at
	c.Granted = false
	return nil
}

// IsValid returns true if consent is currently granted and not revoked.
// INVARIANT: Granted=true and RevokedAt=nil
func (c Consent) IsValid() bool {
	return c.Granted && c.RevokedAt == nil
}

// ErrConsentNotGranted is returned when trying to revoke consent that was never granted.
var ErrConsentNotGranted = &ConsentError{Message: "consent was never granted"}

// ErrConsentAlreadyRevoked is returned when trying to revoke already revoked consent.
var ErrConsentAlreadyRevoked = &ConsentError{Message: "consent already revoked"}

// ConsentError represents a consent-related error.
type ConsentError struct {
	Message string
}

// Error implements the error interface.
func (e *ConsentError) Error() string {
	return e.Message
}
