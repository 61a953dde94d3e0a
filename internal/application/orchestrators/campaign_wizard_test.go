package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	memberstore "parish/internal/adapters/storage/member"
	"parish/internal/domain/campaign"
	"parish/internal/domain/member"
	"parish/internal/wizard"
)

func campaignWizardSession(t *testing.T, store *fakeCampaignStore, editID string) *wizard.Session {
	t.Helper()
	submitter := &CampaignSubmitter{
		Campaigns: store,
		CreatedBy: "acct1",
		EditID:    editID,
		Now:       func() time.Time { return campaignLaunchTime.Add(-24 * time.Hour) },
	}
	s, err := wizard.StartSession(context.Background(), wizard.Config{
		Definition: CampaignDefinition(),
		Submitter:  submitter,
		ToPayload:  CampaignPayload,
		Records:    submitter,
		RecordID:   editID,
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return s
}

func TestCampaignWizardCreate(t *testing.T) {
	store := newFakeCampaignStore()
	s := campaignWizardSession(t, store, "")

	mustDo(t, s.Update(map[string]any{
		"name":    "Emergency contacts",
		"message": "Kia ora, we are updating our records.",
	}))
	advanceTo(t, s, StepCampaignRecipients)
	mustDo(t, s.Update(map[string]any{"recipients": []string{"m1", "m2"}}))
	advanceTo(t, s, StepCampaignFields)
	mustDo(t, s.SetPath("fields", []any{
		map[string]any{"key": "contact_name", "prompt": "Who should we contact?", "kind": campaign.KindText},
		map[string]any{"key": "contact_phone", "prompt": "Their phone number?", "kind": campaign.KindText},
	}))
	advanceTo(t, s, StepCampaignReview)

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v (%s)", err, s.Err())
	}

	c, err := store.GetByID(context.Background(), s.Result().ID)
	if err != nil {
		t.Fatalf("saved campaign not found: %v", err)
	}
	if c.Status != campaign.StatusDraft {
		t.Errorf("expected draft, got %s", c.Status)
	}
	if len(c.Recipients) != 2 || len(c.Fields) != 2 {
		t.Errorf("campaign contents wrong: %+v", c)
	}
	for i, f := range c.Fields {
		if f.Position != i {
			t.Errorf("field %s position = %d, want %d", f.Key, f.Position, i)
		}
	}
}

func TestCampaignWizardDuplicateFieldKeyBlocked(t *testing.T) {
	store := newFakeCampaignStore()
	s := campaignWizardSession(t, store, "")

	mustDo(t, s.Update(map[string]any{
		"name":    "Emergency contacts",
		"message": "Kia ora, we are updating our records.",
	}))
	advanceTo(t, s, StepCampaignRecipients)
	mustDo(t, s.Update(map[string]any{"recipients": []string{"m1"}}))
	advanceTo(t, s, StepCampaignFields)
	mustDo(t, s.SetPath("fields", []any{
		map[string]any{"key": "age", "prompt": "How old are you?", "kind": campaign.KindNumber},
		map[string]any{"key": "age", "prompt": "Still how old?", "kind": campaign.KindNumber},
	}))

	if err := s.Advance(); err == nil {
		t.Fatal("expected duplicate field keys to block the fields step")
	}
	if s.Step().ID != StepCampaignFields {
		t.Errorf("expected session held on the fields step, got %s", s.Step().ID)
	}
}

func TestCampaignWizardEditNonDraftRejected(t *testing.T) {
	store := newFakeCampaignStore()
	c := draftCampaign("m1")
	c.Status = campaign.StatusRunning
	store.campaigns["camp1"] = c
	s := campaignWizardSession(t, store, "camp1")

	advanceTo(t, s, StepCampaignRecipients)
	advanceTo(t, s, StepCampaignFields)
	advanceTo(t, s, StepCampaignReview)

	if err := s.Submit(context.Background()); err == nil {
		t.Fatal("expected edit of a running campaign to be rejected")
	}
	if store.campaigns["camp1"].Status != campaign.StatusRunning {
		t.Error("expected the running campaign untouched")
	}
}

type fakeReferenceMemberStore struct {
	members   []member.Member
	err       error
	gotFilter memberstore.ListFilter
}

func (f *fakeReferenceMemberStore) List(_ context.Context, filter memberstore.ListFilter) ([]member.Member, error) {
	f.gotFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.members, nil
}

func TestLoadCampaignReference(t *testing.T) {
	members := &fakeReferenceMemberStore{members: []member.Member{
		{ID: "m1", Name: "Ana", Email: "ana@example.com", Status: member.StatusActive},
	}}

	ref := LoadCampaignReference(context.Background(), members)
	if len(ref.Members) != 1 {
		t.Errorf("expected 1 member, got %d", len(ref.Members))
	}
	if members.gotFilter.Status != member.StatusActive {
		t.Errorf("expected active-only filter, got %q", members.gotFilter.Status)
	}
	if len(ref.Kinds) != 4 {
		t.Errorf("expected 4 answer kinds, got %v", ref.Kinds)
	}
}

func TestLoadCampaignReferenceLenientOnStoreError(t *testing.T) {
	members := &fakeReferenceMemberStore{err: errors.New("db locked")}

	ref := LoadCampaignReference(context.Background(), members)
	if len(ref.Members) != 0 {
		t.Errorf("expected empty member list, got %d", len(ref.Members))
	}
	if len(ref.Kinds) == 0 {
		t.Error("expected answer kinds still populated")
	}
}
