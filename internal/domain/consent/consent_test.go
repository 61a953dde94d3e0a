package consent_test

import (
	"testing"
	"time"

	"parish/internal/domain/consent"
)

// TestNewConsent tests that fresh consents are granted and stamped.
func TestNewConsent(t *testing.T) {
	at := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	c := consent.NewConsent("m1", consent.TypeSMSUpdates, at, "onboarding", "203.0.113.9", "Mozilla/5.0", "v2")

	if c.ID == "" {
		t.Error("consent ID not generated")
	}
	if !c.IsValid() {
		t.Error("new consent is not valid")
	}
	if !c.GrantedAt.Equal(at) || c.MemberID != "m1" || c.Type != consent.TypeSMSUpdates {
		t.Errorf("consent fields wrong: %+v", c)
	}
}

// TestRevoke tests the revoke transition.
func TestRevoke(t *testing.T) {
	at := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	c := consent.NewConsent("m1", consent.TypePhotos, at, "onboarding", "", "", "v1")

	if err := c.Revoke(at.Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if c.IsValid() {
		t.Error("revoked consent still valid")
	}
	if err := c.Revoke(at.Add(2 * time.Hour)); err != consent.ErrConsentAlreadyRevoked {
		t.Errorf("second Revoke error = %v, want ErrConsentAlreadyRevoked", err)
	}

	never := consent.Consent{ID: "c2", MemberID: "m1", Type: consent.TypeTerms}
	if err := never.Revoke(at); err != consent.ErrConsentNotGranted {
		t.Errorf("Revoke ungranted error = %v, want ErrConsentNotGranted", err)
	}
}
