package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"parish/internal/domain/campaign"
	"parish/internal/domain/consent"
	"parish/internal/domain/featureflag"
	"parish/internal/domain/member"
	"parish/internal/domain/outbox"

	"github.com/google/uuid"
)

// FlagCampaigns is the feature flag key gating the campaign feature.
const FlagCampaigns = "campaigns"

// Launch errors.
var (
	ErrCampaignsDisabled = errors.New("campaigns are not enabled for this role")
	ErrNoDeliverable     = errors.New("no recipient can receive this campaign")
)

// SMSPayload is the JSON structure queued on the outbox for SMS delivery.
type SMSPayload struct {
	To         string `json:"to"`
	Body       string `json:"body"`
	CampaignID string `json:"campaign_id,omitempty"`
	MemberID   string `json:"member_id,omitempty"`
}

// LaunchCampaignStore defines the campaign store interface needed by launch.
type LaunchCampaignStore interface {
	GetByID(ctx context.Context, id string) (campaign.Campaign, error)
	Save(ctx context.Context, c campaign.Campaign) error
	SaveResponse(ctx context.Context, resp campaign.Response) error
}

// LaunchMemberStore defines the member store interface needed by launch.
type LaunchMemberStore interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// LaunchConsentStore defines the consent store interface needed by launch.
type LaunchConsentStore interface {
	HasValidConsent(ctx context.Context, memberID string, consentType consent.Type) (bool, error)
}

// LaunchOutboxStore defines the outbox store interface needed by launch.
type LaunchOutboxStore interface {
	Save(ctx context.Context, value outbox.Entry) error
}

// LaunchFlagStore defines the feature flag store interface needed by launch.
type LaunchFlagStore interface {
	GetByKey(ctx context.Context, key string) (featureflag.FeatureFlag, error)
}

// LaunchCampaignInput carries input for the launch orchestrator.
type LaunchCampaignInput struct {
	CampaignID   string
	ActorRole    string
	IsBetaTester bool
}

// LaunchCampaignDeps holds dependencies for LaunchCampaign.
type LaunchCampaignDeps struct {
	CampaignStore LaunchCampaignStore
	MemberStore   LaunchMemberStore
	ConsentStore  LaunchConsentStore
	OutboxStore   LaunchOutboxStore
	FlagStore     LaunchFlagStore
	Now           func() time.Time
}

// LaunchResult summarizes a launch: how many intro messages were queued and
// which recipients were skipped with the reason.
type LaunchResult struct {
	Queued  int
	Skipped map[string]string // member ID -> reason
}

// ExecuteLaunchCampaign starts a draft campaign: every reachable recipient
// gets the intro message followed by the first question, queued on the outbox
// so a gateway outage never loses them. Recipients without a phone, without
// SMS consent, or no longer active are skipped, not failed.
// PRE: Campaign is draft or scheduled; the campaigns flag is on for the actor
// POST: Campaign is running; one outbox SMS entry and one empty response row
// per deliverable recipient
func ExecuteLaunchCampaign(ctx context.Context, input LaunchCampaignInput, deps LaunchCampaignDeps) (LaunchResult, error) {
	flag, err := deps.FlagStore.GetByKey(ctx, FlagCampaigns)
	if err != nil || !flag.EnabledForRole(input.ActorRole, input.IsBetaTester) {
		return LaunchResult{}, ErrCampaignsDisabled
	}

	c, err := deps.CampaignStore.GetByID(ctx, input.CampaignID)
	if err != nil {
		return LaunchResult{}, errors.New("campaign not found")
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	first, err := c.NextField(nil)
	if err != nil {
		return LaunchResult{}, err
	}

	result := LaunchResult{Skipped: map[string]string{}}
	type delivery struct {
		memberID string
		payload  string
	}
	var deliveries []delivery
	for _, memberID := range c.Recipients {
		m, err := deps.MemberStore.GetByID(ctx, memberID)
		if err != nil {
			result.Skipped[memberID] = "member not found"
			continue
		}
		if !m.IsActive() {
			result.Skipped[memberID] = "member is not active"
			continue
		}
		if m.Phone == "" {
			result.Skipped[memberID] = "no phone number"
			continue
		}
		ok, err := deps.ConsentStore.HasValidConsent(ctx, memberID, consent.TypeSMSUpdates)
		if err != nil {
			return LaunchResult{}, err
		}
		if !ok {
			result.Skipped[memberID] = "no SMS consent"
			continue
		}

		body := c.Message + "\n" + first.Prompt
		raw, err := json.Marshal(SMSPayload{
			To: m.Phone, Body: body, CampaignID: c.ID, MemberID: memberID,
		})
		if err != nil {
			return LaunchResult{}, err
		}
		deliveries = append(deliveries, delivery{memberID: memberID, payload: string(raw)})
	}
	if len(deliveries) == 0 {
		return LaunchResult{}, ErrNoDeliverable
	}

	if err := c.Launch(now); err != nil {
		return LaunchResult{}, err
	}
	if err := deps.CampaignStore.Save(ctx, c); err != nil {
		return LaunchResult{}, err
	}

	for _, d := range deliveries {
		entry := outbox.Entry{
			ID:          uuid.New().String(),
			ActionType:  outbox.ActionTypeSMS,
			Payload:     d.payload,
			Status:      outbox.StatusPending,
			MaxAttempts: 5,
			CreatedAt:   now,
		}
		if err := deps.OutboxStore.Save(ctx, entry); err != nil {
			return result, err
		}
		resp := campaign.Response{
			ID:         uuid.New().String(),
			CampaignID: c.ID,
			MemberID:   d.memberID,
			UpdatedAt:  now,
		}
		if err := deps.CampaignStore.SaveResponse(ctx, resp); err != nil {
			return result, err
		}
		result.Queued++
	}

	slog.Info("campaign_event", "event", "campaign_launched", "campaign_id", c.ID,
		"queued", result.Queued, "skipped", len(result.Skipped))
	return result, nil
}

// CancelCampaignInput carries input for cancelling a campaign.
type CancelCampaignInput struct {
	CampaignID string
}

// CancelCampaignDeps holds dependencies for CancelCampaign.
type CancelCampaignDeps struct {
	CampaignStore LaunchCampaignStore
}

// ExecuteCancelCampaign stops an unfinished campaign. Already-queued outbox
// entries still drain; no further prompts are sent because answers against a
// cancelled campaign are rejected.
// PRE: Campaign is draft, scheduled, or running
// POST: Campaign status is cancelled
func ExecuteCancelCampaign(ctx context.Context, input CancelCampaignInput, deps CancelCampaignDeps) error {
	c, err := deps.CampaignStore.GetByID(ctx, input.CampaignID)
	if err != nil {
		return errors.New("campaign not found")
	}
	if err := c.Cancel(); err != nil {
		return err
	}
	if err := deps.CampaignStore.Save(ctx, c); err != nil {
		return err
	}
	slog.Info("campaign_event", "event", "campaign_cancelled", "campaign_id", c.ID)
	return nil
}
