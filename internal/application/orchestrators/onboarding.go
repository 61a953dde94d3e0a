package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"parish/internal/domain/consent"
	"parish/internal/domain/member"
	"parish/internal/wizard"

	"github.com/google/uuid"
)

// Onboarding wizard steps.
const (
	StepOnboardProfile    wizard.StepID = "profile"
	StepOnboardContact    wizard.StepID = "contact"
	StepOnboardFamilyAsk  wizard.StepID = "family_intro"
	StepOnboardFamilyAdd  wizard.StepID = "family_add"
	StepOnboardFamilyList wizard.StepID = "family_list"
	StepOnboardConsent    wizard.StepID = "consent"
	StepOnboardReview     wizard.StepID = "review"
)

// OnboardingDefinition declares the member onboarding wizard: profile and
// contact details, an optional re-enterable family loop, consent collection,
// and a review step. The family loop is declared with backward edges: the list
// step returns to the add step while add_another is set.
func OnboardingDefinition() *wizard.Definition {
	return &wizard.Definition{
		Kind: "onboarding",
		Steps: []wizard.Step{
			{
				ID:     StepOnboardProfile,
				Title:  "Your details",
				Fields: []string{"name"},
				Validate: wizard.All(
					wizard.NonEmpty("name", "Full name"),
					wizard.MaxLen("name", "Full name", member.MaxNameLength),
				),
			},
			{
				ID:     StepOnboardContact,
				Title:  "Contact",
				Fields: []string{"email", "phone", "address"},
				Validate: wizard.All(
					wizard.NonEmpty("email", "Email"),
					emailShape("email"),
					optionalPhone("phone"),
				),
			},
			{
				ID:       StepOnboardFamilyAsk,
				Title:    "Family",
				Fields:   []string{"has_family"},
				Validate: wizard.Always(),
			},
			{
				ID:       StepOnboardFamilyAdd,
				Title:    "Add family member",
				Optional: true,
				Fields:   []string{"family_first_name", "family_last_name", "family_relation", "family_birth_year"},
				Validate: wizard.NonEmpty("family_first_name", "First name"),
			},
			{
				ID:       StepOnboardFamilyList,
				Title:    "Your household",
				Optional: true,
				Fields:   []string{"family", "add_another"},
				Validate: familyEntries("family"),
			},
			{
				ID:       StepOnboardConsent,
				Title:    "Consent",
				Fields:   []string{"consent_terms", "consent_photos", "consent_sms"},
				Validate: wizard.Checked("consent_terms", "The terms of membership"),
			},
			{
				ID:       StepOnboardReview,
				Title:    "Review",
				Validate: wizard.Always(),
			},
		},
		Edges: []wizard.Edge{
			{From: StepOnboardFamilyAsk, To: StepOnboardFamilyAdd, When: "has_family"},
			{From: StepOnboardFamilyAsk, To: StepOnboardConsent},
			{From: StepOnboardFamilyList, To: StepOnboardFamilyAdd, When: "add_another"},
		},
	}
}

// OnboardingPayload projects the onboarding draft to the submission payload.
// Per-entry scratch fields from the add step are dropped; only the accumulated
// family list travels.
func OnboardingPayload(d *wizard.Draft) map[string]any {
	payload := map[string]any{
		"name":  strings.TrimSpace(d.Str("name")),
		"email": strings.TrimSpace(d.Str("email")),
	}
	if phone := strings.TrimSpace(d.Str("phone")); phone != "" {
		payload["phone"] = phone
	}
	if addr, ok := d.Get("address").(map[string]any); ok && len(addr) > 0 {
		payload["address"] = addr
	}
	if family := d.List("family"); len(family) > 0 {
		payload["family"] = family
	}
	payload["consent_terms"] = d.Bool("consent_terms")
	payload["consent_photos"] = d.Bool("consent_photos")
	payload["consent_sms"] = d.Bool("consent_sms")
	return payload
}

// OnboardingMemberStore defines the member store interface needed on submit.
type OnboardingMemberStore interface {
	GetByEmail(ctx context.Context, email string) (member.Member, error)
	Save(ctx context.Context, m member.Member) error
	ReplaceFamily(ctx context.Context, memberID string, family []member.FamilyMember) error
}

// OnboardingConsentStore defines the consent store interface needed on submit.
type OnboardingConsentStore interface {
	SaveAll(ctx context.Context, values []consent.Consent) error
}

// OnboardingSubmitter commits a finished onboarding draft: one member, their
// family members in entry order, and the consent records. It implements
// wizard.Submitter.
type OnboardingSubmitter struct {
	Members   OnboardingMemberStore
	Consents  OnboardingConsentStore
	Source    string // consent source, e.g. "onboarding_web"
	IPAddress string
	UserAgent string
	Version   string // terms version in force
	Now       func() time.Time
}

// Submit creates the member and dependent records from the payload.
// PRE: payload passed every step validator
// POST: Member, family, and consents persisted; returns the new member ID
// INVARIANT: Family members keep the order they were entered in
func (s *OnboardingSubmitter) Submit(ctx context.Context, payload map[string]any) (wizard.SubmitResult, error) {
	email, _ := payload["email"].(string)
	if _, err := s.Members.GetByEmail(ctx, email); err == nil {
		return wizard.SubmitResult{}, &wizard.SubmitError{
			Message: "a member with this email already exists",
			Fields:  map[string]string{"email": "already in use"},
		}
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	name, _ := payload["name"].(string)
	phone, _ := payload["phone"].(string)
	m := member.Member{
		ID:       uuid.New().String(),
		Name:     name,
		Email:    email,
		Phone:    phone,
		Status:   member.StatusActive,
		JoinedAt: now,
	}
	if addr, ok := payload["address"].(map[string]any); ok {
		m.Address = member.Address{
			Line1:    str(addr["line1"]),
			Line2:    str(addr["line2"]),
			City:     str(addr["city"]),
			Postcode: str(addr["postcode"]),
		}
	}
	if err := m.Validate(); err != nil {
		return wizard.SubmitResult{}, &wizard.SubmitError{Message: err.Error()}
	}

	var family []member.FamilyMember
	if entries, ok := payload["family"].([]map[string]any); ok {
		for i, entry := range entries {
			f := member.FamilyMember{
				ID:        uuid.New().String(),
				MemberID:  m.ID,
				FirstName: str(entry["first_name"]),
				LastName:  str(entry["last_name"]),
				Relation:  str(entry["relation"]),
				BirthYear: num(entry["birth_year"]),
				Position:  i,
			}
			if err := f.Validate(); err != nil {
				return wizard.SubmitResult{}, &wizard.SubmitError{
					Message: fmt.Sprintf("family member %d: %s", i+1, err.Error()),
					Fields:  map[string]string{"family": err.Error()},
				}
			}
			family = append(family, f)
		}
	}

	if err := s.Members.Save(ctx, m); err != nil {
		return wizard.SubmitResult{}, err
	}
	if len(family) > 0 {
		if err := s.Members.ReplaceFamily(ctx, m.ID, family); err != nil {
			return wizard.SubmitResult{}, err
		}
	}

	consents := []consent.Consent{
		newGrant(m.ID, consent.TypeTerms, true, now, s),
		newGrant(m.ID, consent.TypePhotos, truthy(payload["consent_photos"]), now, s),
		newGrant(m.ID, consent.TypeSMSUpdates, truthy(payload["consent_sms"]), now, s),
	}
	if err := s.Consents.SaveAll(ctx, consents); err != nil {
		return wizard.SubmitResult{}, err
	}

	slog.Info("member_event", "event", "member_onboarded", "member_id", m.ID, "family_count", len(family))
	record := map[string]any{"id": m.ID, "name": m.Name, "email": m.Email}
	return wizard.SubmitResult{ID: m.ID, Record: record}, nil
}

func newGrant(memberID string, t consent.Type, granted bool, now time.Time, s *OnboardingSubmitter) consent.Consent {
	c := consent.NewConsent(memberID, t, now, s.Source, s.IPAddress, s.UserAgent, s.Version)
	c.Granted = granted
	return c
}

// emailShape requires a plausible email address.
func emailShape(field string) wizard.Validator {
	return func(d *wizard.Draft) error {
		v := strings.TrimSpace(d.Str(field))
		at := strings.Index(v, "@")
		if at <= 0 || at == len(v)-1 {
			return errors.New("Email must be a valid address")
		}
		return nil
	}
}

// optionalPhone validates the phone only when one was entered.
func optionalPhone(field string) wizard.Validator {
	phone := wizard.Phone(field, "Phone")
	return func(d *wizard.Draft) error {
		if strings.TrimSpace(d.Str(field)) == "" {
			return nil
		}
		return phone(d)
	}
}

// familyEntries requires every accumulated family entry to carry a first name.
func familyEntries(field string) wizard.Validator {
	return func(d *wizard.Draft) error {
		for i, entry := range d.List(field) {
			if strings.TrimSpace(str(entry["first_name"])) == "" {
				return fmt.Errorf("family member %d needs a first name", i+1)
			}
		}
		return nil
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func truthy(v any) bool {
	b, _ := v.(bool)
	return b
}
