package consent

import (
	"context"

	domain "parish/internal/domain/consent"
)

// Store persists Consent records.
type Store interface {
	Save(ctx context.Context, value domain.Consent) error

	// SaveAll persists several consents atomically. Used when onboarding
	// collects terms, photo, and SMS consents in one submission.
	SaveAll(ctx context.Context, values []domain.Consent) error

	// ListByMemberID returns every consent record for a member, newest first.
	ListByMemberID(ctx context.Context, memberID string) ([]domain.Consent, error)

	// GetLatestByType returns the member's most recent consent of one type.
	GetLatestByType(ctx context.Context, memberID string, consentType domain.Type) (domain.Consent, bool, error)

	// HasValidConsent reports whether the member currently holds a granted,
	// unrevoked consent of the given type.
	HasValidConsent(ctx context.Context, memberID string, consentType domain.Type) (bool, error)
}
