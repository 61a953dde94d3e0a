package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"parish/internal/domain/consent"
	"parish/internal/domain/member"
	"parish/internal/wizard"
)

type fakeOnboardingMemberStore struct {
	byEmail map[string]member.Member
	saved   []member.Member
	family  map[string][]member.FamilyMember
}

func newFakeOnboardingMemberStore() *fakeOnboardingMemberStore {
	return &fakeOnboardingMemberStore{
		byEmail: map[string]member.Member{},
		family:  map[string][]member.FamilyMember{},
	}
}

func (f *fakeOnboardingMemberStore) GetByEmail(_ context.Context, email string) (member.Member, error) {
	m, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return member.Member{}, errors.New("not found")
	}
	return m, nil
}

func (f *fakeOnboardingMemberStore) Save(_ context.Context, m member.Member) error {
	f.byEmail[strings.ToLower(m.Email)] = m
	f.saved = append(f.saved, m)
	return nil
}

func (f *fakeOnboardingMemberStore) ReplaceFamily(_ context.Context, memberID string, family []member.FamilyMember) error {
	f.family[memberID] = family
	return nil
}

type fakeConsentStore struct {
	saved []consent.Consent
}

func (f *fakeConsentStore) SaveAll(_ context.Context, values []consent.Consent) error {
	f.saved = append(f.saved, values...)
	return nil
}

func onboardingSession(t *testing.T, members *fakeOnboardingMemberStore, consents *fakeConsentStore) *wizard.Session {
	t.Helper()
	submitter := &OnboardingSubmitter{
		Members:   members,
		Consents:  consents,
		Source:    "onboarding_web",
		IPAddress: "203.0.113.9",
		UserAgent: "test",
		Version:   "2026-01",
		Now:       func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) },
	}
	s, err := wizard.StartSession(context.Background(), wizard.Config{
		Definition: OnboardingDefinition(),
		Submitter:  submitter,
		ToPayload:  OnboardingPayload,
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return s
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func advanceTo(t *testing.T, s *wizard.Session, want wizard.StepID) {
	t.Helper()
	if err := s.Advance(); err != nil {
		t.Fatalf("advance from %s: %v (%s)", s.Step().ID, err, s.Err())
	}
	if s.Step().ID != want {
		t.Fatalf("expected step %s, got %s", want, s.Step().ID)
	}
}

func TestOnboardingWithoutFamily(t *testing.T) {
	members := newFakeOnboardingMemberStore()
	consents := &fakeConsentStore{}
	s := onboardingSession(t, members, consents)

	mustDo(t, s.Update(map[string]any{"name": "Ana Silva"}))
	advanceTo(t, s, StepOnboardContact)
	mustDo(t, s.Update(map[string]any{"email": "ana@example.com", "phone": "+64211234567"}))
	advanceTo(t, s, StepOnboardFamilyAsk)
	advanceTo(t, s, StepOnboardConsent) // no family: branch skipped entirely
	mustDo(t, s.Update(map[string]any{"consent_terms": true, "consent_sms": true}))
	advanceTo(t, s, StepOnboardReview)

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v (%s)", err, s.Err())
	}
	if s.State() != wizard.StateSucceeded {
		t.Fatalf("expected succeeded state, got %s", s.State())
	}

	if len(members.saved) != 1 {
		t.Fatalf("expected 1 member saved, got %d", len(members.saved))
	}
	m := members.saved[0]
	if m.Name != "Ana Silva" || m.Phone != "+64211234567" {
		t.Errorf("member fields wrong: %+v", m)
	}
	if len(members.family[m.ID]) != 0 {
		t.Errorf("expected no family, got %d", len(members.family[m.ID]))
	}

	byType := map[consent.Type]bool{}
	for _, c := range consents.saved {
		byType[c.Type] = c.Granted
	}
	if !byType[consent.TypeTerms] || !byType[consent.TypeSMSUpdates] || byType[consent.TypePhotos] {
		t.Errorf("consent grants wrong: %v", byType)
	}
}

func TestOnboardingFamilyLoop(t *testing.T) {
	members := newFakeOnboardingMemberStore()
	consents := &fakeConsentStore{}
	s := onboardingSession(t, members, consents)

	mustDo(t, s.Update(map[string]any{"name": "Ben Kahu"}))
	advanceTo(t, s, StepOnboardContact)
	mustDo(t, s.Update(map[string]any{"email": "ben@example.com"}))
	advanceTo(t, s, StepOnboardFamilyAsk)
	mustDo(t, s.Update(map[string]any{"has_family": true}))
	advanceTo(t, s, StepOnboardFamilyAdd)

	mustDo(t, s.Update(map[string]any{"family_first_name": "Mia"}))
	mustDo(t, s.SetPath("family", []any{
		map[string]any{"first_name": "Mia", "relation": "daughter"},
	}))
	advanceTo(t, s, StepOnboardFamilyList)

	// One more entry: the list step loops back to the add step.
	mustDo(t, s.Update(map[string]any{"add_another": true}))
	advanceTo(t, s, StepOnboardFamilyAdd)
	mustDo(t, s.Update(map[string]any{"family_first_name": "Tom"}))
	mustDo(t, s.SetPath("family", []any{
		map[string]any{"first_name": "Mia", "relation": "daughter"},
		map[string]any{"first_name": "Tom", "relation": "son"},
	}))
	advanceTo(t, s, StepOnboardFamilyList)
	advanceTo(t, s, StepOnboardConsent)
	mustDo(t, s.Update(map[string]any{"consent_terms": true}))
	advanceTo(t, s, StepOnboardReview)

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v (%s)", err, s.Err())
	}

	m := members.saved[0]
	family := members.family[m.ID]
	if len(family) != 2 {
		t.Fatalf("expected 2 family members, got %d", len(family))
	}
	if family[0].FirstName != "Mia" || family[1].FirstName != "Tom" {
		t.Errorf("family entry order lost: %+v", family)
	}
	if family[0].Position != 0 || family[1].Position != 1 {
		t.Errorf("family positions wrong: %d, %d", family[0].Position, family[1].Position)
	}
}

func TestOnboardingDuplicateEmailReturnsToContact(t *testing.T) {
	members := newFakeOnboardingMemberStore()
	members.byEmail["taken@example.com"] = member.Member{ID: "m0", Email: "taken@example.com"}
	consents := &fakeConsentStore{}
	s := onboardingSession(t, members, consents)

	mustDo(t, s.Update(map[string]any{"name": "Cara Reid"}))
	advanceTo(t, s, StepOnboardContact)
	mustDo(t, s.Update(map[string]any{"email": "taken@example.com"}))
	advanceTo(t, s, StepOnboardFamilyAsk)
	advanceTo(t, s, StepOnboardConsent)
	mustDo(t, s.Update(map[string]any{"consent_terms": true}))
	advanceTo(t, s, StepOnboardReview)

	if err := s.Submit(context.Background()); err == nil {
		t.Fatal("expected duplicate email to fail submit")
	}
	if s.State() != wizard.StateFailed {
		t.Errorf("expected failed state, got %s", s.State())
	}
	if s.Step().ID != StepOnboardContact {
		t.Errorf("expected session returned to contact step, got %s", s.Step().ID)
	}
	if len(members.saved) != 0 {
		t.Errorf("expected no member saved, got %d", len(members.saved))
	}
}
