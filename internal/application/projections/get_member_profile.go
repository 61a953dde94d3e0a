package projections

import (
	"context"
	"errors"

	"parish/internal/domain/attendance"
	"parish/internal/domain/consent"
	"parish/internal/domain/event"
	"parish/internal/domain/member"
)

// ProfileMemberStore defines the member store interface needed by GetMemberProfile.
type ProfileMemberStore interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	ListFamily(ctx context.Context, memberID string) ([]member.FamilyMember, error)
}

// ProfileConsentStore defines the consent store interface needed by GetMemberProfile.
type ProfileConsentStore interface {
	GetLatestByType(ctx context.Context, memberID string, consentType consent.Type) (consent.Consent, bool, error)
}

// ProfileAttendanceStore defines the attendance store interface needed by GetMemberProfile.
type ProfileAttendanceStore interface {
	ListByMemberID(ctx context.Context, memberID string) ([]attendance.CheckIn, error)
}

// ProfileEventStore defines the event store interface needed by GetMemberProfile.
type ProfileEventStore interface {
	ListRegistrationsForMember(ctx context.Context, memberID string) ([]event.Registration, error)
}

// GetMemberProfileQuery carries query parameters.
type GetMemberProfileQuery struct {
	MemberID       string
	RecentCheckIns int // how many recent check-ins to include, default 10
}

// ConsentStanding summarises whether one consent type currently holds.
type ConsentStanding struct {
	Type    consent.Type
	Granted bool
	Version string
}

// GetMemberProfileResult carries the query result.
type GetMemberProfileResult struct {
	Member        member.Member
	Family        []member.FamilyMember
	Consents      []ConsentStanding
	CheckIns      []attendance.CheckIn
	Registrations []event.Registration
}

// GetMemberProfileDeps holds dependencies for GetMemberProfile.
type GetMemberProfileDeps struct {
	MemberStore     ProfileMemberStore
	ConsentStore    ProfileConsentStore
	AttendanceStore ProfileAttendanceStore
	EventStore      ProfileEventStore
}

// ErrMemberNotFound is returned when the profile subject does not exist.
var ErrMemberNotFound = errors.New("member not found")

// QueryGetMemberProfile assembles one member's profile page: core record,
// family, current consent standing, recent attendance, and registrations.
// PRE: MemberID is non-empty
// POST: Returns the assembled profile or ErrMemberNotFound
func QueryGetMemberProfile(ctx context.Context, query GetMemberProfileQuery, deps GetMemberProfileDeps) (GetMemberProfileResult, error) {
	m, err := deps.MemberStore.GetByID(ctx, query.MemberID)
	if err != nil {
		return GetMemberProfileResult{}, ErrMemberNotFound
	}

	result := GetMemberProfileResult{Member: m}

	result.Family, err = deps.MemberStore.ListFamily(ctx, m.ID)
	if err != nil {
		return GetMemberProfileResult{}, err
	}

	for _, t := range []consent.Type{consent.TypeTerms, consent.TypePhotos, consent.TypeSMSUpdates} {
		standing := ConsentStanding{Type: t}
		if c, found, err := deps.ConsentStore.GetLatestByType(ctx, m.ID, t); err != nil {
			return GetMemberProfileResult{}, err
		} else if found {
			standing.Granted = c.IsValid()
			standing.Version = c.Version
		}
		result.Consents = append(result.Consents, standing)
	}

	checkIns, err := deps.AttendanceStore.ListByMemberID(ctx, m.ID)
	if err != nil {
		return GetMemberProfileResult{}, err
	}
	limit := query.RecentCheckIns
	if limit <= 0 {
		limit = 10
	}
	if len(checkIns) > limit {
		checkIns = checkIns[:limit]
	}
	result.CheckIns = checkIns

	result.Registrations, err = deps.EventStore.ListRegistrationsForMember(ctx, m.ID)
	if err != nil {
		return GetMemberProfileResult{}, err
	}

	return result, nil
}
