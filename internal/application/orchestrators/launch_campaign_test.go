package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"parish/internal/domain/campaign"
	"parish/internal/domain/consent"
	"parish/internal/domain/featureflag"
	"parish/internal/domain/member"
	"parish/internal/domain/outbox"
)

type fakeCampaignStore struct {
	campaigns map[string]campaign.Campaign
	responses map[string]campaign.Response // campaignID + "/" + memberID
}

func newFakeCampaignStore() *fakeCampaignStore {
	return &fakeCampaignStore{
		campaigns: map[string]campaign.Campaign{},
		responses: map[string]campaign.Response{},
	}
}

func (f *fakeCampaignStore) GetByID(_ context.Context, id string) (campaign.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return campaign.Campaign{}, errors.New("not found")
	}
	return c, nil
}

func (f *fakeCampaignStore) Save(_ context.Context, c campaign.Campaign) error {
	f.campaigns[c.ID] = c
	return nil
}

func (f *fakeCampaignStore) SaveResponse(_ context.Context, resp campaign.Response) error {
	f.responses[resp.CampaignID+"/"+resp.MemberID] = resp
	return nil
}

func (f *fakeCampaignStore) GetResponse(_ context.Context, campaignID, memberID string) (campaign.Response, bool, error) {
	resp, ok := f.responses[campaignID+"/"+memberID]
	return resp, ok, nil
}

func (f *fakeCampaignStore) CountResponses(_ context.Context, campaignID string) (int, int, error) {
	total, completed := 0, 0
	for _, resp := range f.responses {
		if resp.CampaignID != campaignID {
			continue
		}
		total++
		if resp.Completed {
			completed++
		}
	}
	return total, completed, nil
}

type fakeCampaignMemberStore struct {
	members map[string]member.Member
}

func (f *fakeCampaignMemberStore) GetByID(_ context.Context, id string) (member.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return member.Member{}, errors.New("not found")
	}
	return m, nil
}

type fakeCampaignConsentStore struct {
	smsConsent map[string]bool
}

func (f *fakeCampaignConsentStore) HasValidConsent(_ context.Context, memberID string, _ consent.Type) (bool, error) {
	return f.smsConsent[memberID], nil
}

type fakeOutboxStore struct {
	entries []outbox.Entry
}

func (f *fakeOutboxStore) Save(_ context.Context, value outbox.Entry) error {
	f.entries = append(f.entries, value)
	return nil
}

type fakeFlagStore struct {
	flags map[string]featureflag.FeatureFlag
}

func (f *fakeFlagStore) GetByKey(_ context.Context, key string) (featureflag.FeatureFlag, error) {
	flag, ok := f.flags[key]
	if !ok {
		return featureflag.FeatureFlag{}, errors.New("not found")
	}
	return flag, nil
}

var campaignLaunchTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func draftCampaign(recipients ...string) campaign.Campaign {
	return campaign.Campaign{
		ID:      "camp1",
		Name:    "Emergency contacts",
		Message: "Kia ora from St Andrew's, we are updating our records.",
		Fields: []campaign.Field{
			{Key: "contact_name", Prompt: "Who should we contact in an emergency?", Kind: campaign.KindText, Position: 0},
			{Key: "contact_phone", Prompt: "What is their phone number?", Kind: campaign.KindText, Position: 1},
		},
		Recipients: recipients,
		Status:     campaign.StatusDraft,
		CreatedBy:  "acct1",
		CreatedAt:  campaignLaunchTime.Add(-24 * time.Hour),
	}
}

func launchFixture(recipients ...string) (*fakeCampaignStore, *fakeOutboxStore, LaunchCampaignDeps) {
	store := newFakeCampaignStore()
	store.campaigns["camp1"] = draftCampaign(recipients...)
	members := &fakeCampaignMemberStore{members: map[string]member.Member{
		"m1": {ID: "m1", Name: "Ana", Email: "ana@example.com", Phone: "+64211111111", Status: member.StatusActive},
		"m2": {ID: "m2", Name: "Ben", Email: "ben@example.com", Phone: "+64222222222", Status: member.StatusActive},
		"m3": {ID: "m3", Name: "Cara", Email: "cara@example.com", Status: member.StatusActive}, // no phone
		"m4": {ID: "m4", Name: "Dee", Email: "dee@example.com", Phone: "+64244444444", Status: member.StatusArchived},
	}}
	consents := &fakeCampaignConsentStore{smsConsent: map[string]bool{"m1": true, "m2": false, "m3": true, "m4": true}}
	ob := &fakeOutboxStore{}
	flags := &fakeFlagStore{flags: map[string]featureflag.FeatureFlag{
		FlagCampaigns: {Key: FlagCampaigns, EnabledAdmin: true, EnabledStaff: true},
	}}
	deps := LaunchCampaignDeps{
		CampaignStore: store,
		MemberStore:   members,
		ConsentStore:  consents,
		OutboxStore:   ob,
		FlagStore:     flags,
		Now:           func() time.Time { return campaignLaunchTime },
	}
	return store, ob, deps
}

func TestLaunchCampaignQueuesDeliverableRecipients(t *testing.T) {
	store, ob, deps := launchFixture("m1", "m2", "m3", "m4", "m5")

	result, err := ExecuteLaunchCampaign(context.Background(), LaunchCampaignInput{
		CampaignID: "camp1", ActorRole: "staff",
	}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Queued != 1 {
		t.Errorf("expected 1 queued delivery, got %d", result.Queued)
	}
	wantSkips := map[string]string{
		"m2": "no SMS consent",
		"m3": "no phone number",
		"m4": "member is not active",
		"m5": "member not found",
	}
	for memberID, reason := range wantSkips {
		if result.Skipped[memberID] != reason {
			t.Errorf("skip reason for %s: want %q, got %q", memberID, reason, result.Skipped[memberID])
		}
	}

	if store.campaigns["camp1"].Status != campaign.StatusRunning {
		t.Errorf("expected campaign running, got %s", store.campaigns["camp1"].Status)
	}
	if len(ob.entries) != 1 {
		t.Fatalf("expected 1 outbox entry, got %d", len(ob.entries))
	}
	entry := ob.entries[0]
	if entry.ActionType != outbox.ActionTypeSMS || entry.MaxAttempts != 5 {
		t.Errorf("outbox entry misconfigured: %+v", entry)
	}
	if _, ok := store.responses["camp1/m1"]; !ok {
		t.Error("expected an empty response row for the deliverable recipient")
	}
}

func TestLaunchCampaignFlagGate(t *testing.T) {
	_, _, deps := launchFixture("m1")

	_, err := ExecuteLaunchCampaign(context.Background(), LaunchCampaignInput{
		CampaignID: "camp1", ActorRole: "member",
	}, deps)
	if err != ErrCampaignsDisabled {
		t.Errorf("expected ErrCampaignsDisabled, got %v", err)
	}
}

func TestLaunchCampaignBetaOverride(t *testing.T) {
	_, _, deps := launchFixture("m1")
	flags := deps.FlagStore.(*fakeFlagStore)
	flags.flags[FlagCampaigns] = featureflag.FeatureFlag{Key: FlagCampaigns, BetaOverride: true}

	_, err := ExecuteLaunchCampaign(context.Background(), LaunchCampaignInput{
		CampaignID: "camp1", ActorRole: "member", IsBetaTester: true,
	}, deps)
	if err != nil {
		t.Errorf("expected beta tester to pass the gate, got %v", err)
	}
}

func TestLaunchCampaignNoDeliverableRecipients(t *testing.T) {
	store, ob, deps := launchFixture("m3", "m4")

	_, err := ExecuteLaunchCampaign(context.Background(), LaunchCampaignInput{
		CampaignID: "camp1", ActorRole: "admin",
	}, deps)
	if err != ErrNoDeliverable {
		t.Fatalf("expected ErrNoDeliverable, got %v", err)
	}
	if store.campaigns["camp1"].Status != campaign.StatusDraft {
		t.Errorf("expected campaign left in draft, got %s", store.campaigns["camp1"].Status)
	}
	if len(ob.entries) != 0 {
		t.Errorf("expected no outbox entries, got %d", len(ob.entries))
	}
}

func TestCancelCampaign(t *testing.T) {
	store, _, _ := launchFixture("m1")

	err := ExecuteCancelCampaign(context.Background(), CancelCampaignInput{CampaignID: "camp1"},
		CancelCampaignDeps{CampaignStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.campaigns["camp1"].Status != campaign.StatusCancelled {
		t.Errorf("expected campaign cancelled, got %s", store.campaigns["camp1"].Status)
	}
}
