package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"parish/internal/domain/campaign"
	"parish/internal/domain/member"
	"parish/internal/domain/outbox"

	"github.com/google/uuid"
)

// RecordResponseCampaignStore defines the campaign store interface needed by
// the inbound-answer orchestrator.
type RecordResponseCampaignStore interface {
	GetByID(ctx context.Context, id string) (campaign.Campaign, error)
	Save(ctx context.Context, c campaign.Campaign) error
	GetResponse(ctx context.Context, campaignID, memberID string) (campaign.Response, bool, error)
	SaveResponse(ctx context.Context, resp campaign.Response) error
	CountResponses(ctx context.Context, campaignID string) (total int, completed int, err error)
}

// RecordResponseMemberStore defines the member store interface needed by the
// inbound-answer orchestrator.
type RecordResponseMemberStore interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// Inbound-answer errors.
var ErrNotARecipient = errors.New("member is not a recipient of this campaign")

// RecordResponseInput carries one inbound SMS answer, already resolved to a
// campaign and member by the webhook layer.
type RecordResponseInput struct {
	CampaignID string
	MemberID   string
	Answer     string
}

// RecordResponseDeps holds dependencies for RecordResponse.
type RecordResponseDeps struct {
	CampaignStore RecordResponseCampaignStore
	MemberStore   RecordResponseMemberStore
	OutboxStore   LaunchOutboxStore
	Now           func() time.Time
}

// RecordResponseResult reports what the answer landed on and what happens
// next.
type RecordResponseResult struct {
	Field     campaign.Field // the field the answer was stored under
	Completed bool           // this recipient has now answered everything
	Done      bool           // every recipient has completed; campaign closed
}

// ExecuteRecordResponse applies an inbound answer to the campaign's earliest
// unanswered field for that recipient, queues the next prompt when one
// remains, and completes the campaign once every recipient has finished.
// PRE: Campaign is running and the member is one of its recipients
// POST: Answer stored; next prompt queued or response marked completed
func ExecuteRecordResponse(ctx context.Context, input RecordResponseInput, deps RecordResponseDeps) (RecordResponseResult, error) {
	c, err := deps.CampaignStore.GetByID(ctx, input.CampaignID)
	if err != nil {
		return RecordResponseResult{}, errors.New("campaign not found")
	}

	resp, found, err := deps.CampaignStore.GetResponse(ctx, input.CampaignID, input.MemberID)
	if err != nil {
		return RecordResponseResult{}, err
	}
	if !found {
		return RecordResponseResult{}, ErrNotARecipient
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	field, err := c.RecordAnswer(&resp, input.Answer, now)
	if err != nil {
		return RecordResponseResult{}, err
	}
	if err := deps.CampaignStore.SaveResponse(ctx, resp); err != nil {
		return RecordResponseResult{}, err
	}

	result := RecordResponseResult{Field: field, Completed: resp.Completed}
	slog.Info("campaign_event", "event", "answer_recorded", "campaign_id", c.ID,
		"member_id", input.MemberID, "field", field.Key, "completed", resp.Completed)

	if !resp.Completed {
		if err := queueNextPrompt(ctx, &c, &resp, input.MemberID, now, deps); err != nil {
			return result, err
		}
		return result, nil
	}

	total, completed, err := deps.CampaignStore.CountResponses(ctx, c.ID)
	if err != nil {
		return result, err
	}
	if completed < total {
		return result, nil
	}
	c.Status = campaign.StatusCompleted
	if err := deps.CampaignStore.Save(ctx, c); err != nil {
		return result, err
	}
	result.Done = true
	slog.Info("campaign_event", "event", "campaign_completed", "campaign_id", c.ID, "responses", total)
	return result, nil
}

func queueNextPrompt(ctx context.Context, c *campaign.Campaign, resp *campaign.Response, memberID string, now time.Time, deps RecordResponseDeps) error {
	next, err := c.NextField(resp)
	if err != nil {
		return err
	}
	m, err := deps.MemberStore.GetByID(ctx, memberID)
	if err != nil || m.Phone == "" {
		// The recipient was reachable at launch; losing the phone mid-campaign
		// just stops their prompts.
		slog.Warn("campaign_prompt_unreachable", "campaign_id", c.ID, "member_id", memberID)
		return nil
	}
	raw, err := json.Marshal(SMSPayload{
		To: m.Phone, Body: next.Prompt, CampaignID: c.ID, MemberID: memberID,
	})
	if err != nil {
		return err
	}
	entry := outbox.Entry{
		ID:          uuid.New().String(),
		ActionType:  outbox.ActionTypeSMS,
		Payload:     string(raw),
		Status:      outbox.StatusPending,
		MaxAttempts: 5,
		CreatedAt:   now,
	}
	return deps.OutboxStore.Save(ctx, entry)
}
