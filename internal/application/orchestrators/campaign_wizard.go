package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	memberstore "parish/internal/adapters/storage/member"
	"parish/internal/domain/campaign"
	"parish/internal/domain/member"
	"parish/internal/wizard"

	"github.com/google/uuid"
)

// Campaign wizard steps.
const (
	StepCampaignBasics     wizard.StepID = "basics"
	StepCampaignRecipients wizard.StepID = "recipients"
	StepCampaignFields     wizard.StepID = "fields"
	StepCampaignReview     wizard.StepID = "review"
)

// CampaignDefinition declares the SMS campaign builder wizard: name and intro
// message, the member IDs to collect from, the ordered field prompts, and a
// review step.
func CampaignDefinition() *wizard.Definition {
	return &wizard.Definition{
		Kind: "campaign",
		Steps: []wizard.Step{
			{
				ID:     StepCampaignBasics,
				Title:  "Campaign",
				Fields: []string{"name", "message"},
				Validate: wizard.All(
					wizard.NonEmpty("name", "Campaign name"),
					wizard.MaxLen("name", "Campaign name", campaign.MaxNameLength),
					wizard.NonEmpty("message", "Intro message"),
					wizard.MaxLen("message", "Intro message", campaign.MaxMessageLength),
				),
			},
			{
				ID:       StepCampaignRecipients,
				Title:    "Who to text",
				Fields:   []string{"recipients"},
				Validate: recipientList("recipients"),
			},
			{
				ID:       StepCampaignFields,
				Title:    "What to collect",
				Fields:   []string{"fields"},
				Validate: campaignFieldList("fields"),
			},
			{
				ID:       StepCampaignReview,
				Title:    "Review",
				Validate: wizard.Always(),
			},
		},
	}
}

// CampaignPayload projects the campaign draft to the submission payload.
func CampaignPayload(d *wizard.Draft) map[string]any {
	payload := map[string]any{
		"name":       strings.TrimSpace(d.Str("name")),
		"message":    strings.TrimSpace(d.Str("message")),
		"recipients": d.Strings("recipients"),
	}
	if fields := d.List("fields"); len(fields) > 0 {
		payload["fields"] = fields
	}
	return payload
}

// CampaignReference is the data the builder shows while the operator picks
// recipients: active members and the answer kinds a question can use.
type CampaignReference struct {
	Members []member.Member
	Kinds   []string
}

// CampaignReferenceMemberStore defines the member store interface needed for
// recipient picking.
type CampaignReferenceMemberStore interface {
	List(ctx context.Context, filter memberstore.ListFilter) ([]member.Member, error)
}

// LoadCampaignReference loads the builder's reference data. Loading is
// lenient: a store error leaves the member list empty rather than blocking
// the wizard.
func LoadCampaignReference(ctx context.Context, members CampaignReferenceMemberStore) CampaignReference {
	ref := CampaignReference{
		Kinds: []string{campaign.KindText, campaign.KindNumber, campaign.KindDate, campaign.KindYesNo},
	}
	list, err := members.List(ctx, memberstore.ListFilter{Status: member.StatusActive, Limit: 500})
	if err != nil {
		slog.Warn("campaign_reference_members_unavailable", "error", err)
		return ref
	}
	ref.Members = list
	return ref
}

// CampaignWizardStore defines the campaign store interface needed by the
// campaign builder.
type CampaignWizardStore interface {
	GetByID(ctx context.Context, id string) (campaign.Campaign, error)
	Save(ctx context.Context, c campaign.Campaign) error
}

// CampaignSubmitter commits a finished campaign draft as a draft campaign;
// launching is a separate, explicit action. It implements wizard.Submitter.
type CampaignSubmitter struct {
	Campaigns CampaignWizardStore
	CreatedBy string // account ID of the builder
	EditID    string // campaign being edited, empty in create mode
	Now       func() time.Time
}

// Submit creates or updates the campaign from the payload.
// PRE: payload passed every step validator
// POST: Campaign persisted with status draft (create) or status kept (edit)
func (s *CampaignSubmitter) Submit(ctx context.Context, payload map[string]any) (wizard.SubmitResult, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	c := campaign.Campaign{
		ID:        uuid.New().String(),
		Status:    campaign.StatusDraft,
		CreatedBy: s.CreatedBy,
		CreatedAt: now,
	}
	if s.EditID != "" {
		existing, err := s.Campaigns.GetByID(ctx, s.EditID)
		if err != nil {
			return wizard.SubmitResult{}, &wizard.SubmitError{Message: "campaign no longer exists"}
		}
		if existing.Status != campaign.StatusDraft {
			return wizard.SubmitResult{}, &wizard.SubmitError{Message: "only a draft campaign can be edited"}
		}
		c = existing
	}

	c.Name = str(payload["name"])
	c.Message = str(payload["message"])
	c.Recipients = stringSlice(payload["recipients"])
	c.Fields = c.Fields[:0]
	if entries, ok := payload["fields"].([]map[string]any); ok {
		for i, entry := range entries {
			c.Fields = append(c.Fields, campaign.Field{
				Key:      strings.TrimSpace(str(entry["key"])),
				Prompt:   strings.TrimSpace(str(entry["prompt"])),
				Kind:     str(entry["kind"]),
				Position: i,
			})
		}
	}

	if err := c.Validate(); err != nil {
		return wizard.SubmitResult{}, &wizard.SubmitError{Message: err.Error()}
	}
	if err := s.Campaigns.Save(ctx, c); err != nil {
		return wizard.SubmitResult{}, err
	}

	slog.Info("campaign_event", "event", "campaign_saved", "campaign_id", c.ID,
		"recipients", len(c.Recipients), "fields", len(c.Fields))
	record := map[string]any{
		"id": c.ID, "name": c.Name, "status": c.Status,
		"recipient_count": len(c.Recipients), "field_count": len(c.Fields),
	}
	return wizard.SubmitResult{ID: c.ID, Record: record}, nil
}

// LoadRecord fetches an existing campaign as a draft record for edit mode.
// PRE: id refers to an existing campaign
// POST: Returns the campaign's editable fields keyed by draft field name
func (s *CampaignSubmitter) LoadRecord(ctx context.Context, id string) (map[string]any, error) {
	c, err := s.Campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fields := make([]map[string]any, 0, len(c.Fields))
	for _, f := range c.Fields {
		fields = append(fields, map[string]any{"key": f.Key, "prompt": f.Prompt, "kind": f.Kind})
	}
	return map[string]any{
		"name":       c.Name,
		"message":    c.Message,
		"recipients": append([]string(nil), c.Recipients...),
		"fields":     fields,
	}, nil
}

// recipientList requires at least one recipient.
func recipientList(field string) wizard.Validator {
	return func(d *wizard.Draft) error {
		if len(d.Strings(field)) == 0 {
			return fmt.Errorf("Pick at least one recipient")
		}
		return nil
	}
}

// campaignFieldList requires at least one field, each with a key, a prompt,
// and a known kind. Duplicate keys are caught here so the builder sees the
// error on the owning step rather than at submit.
func campaignFieldList(field string) wizard.Validator {
	return func(d *wizard.Draft) error {
		entries := d.List(field)
		if len(entries) == 0 {
			return fmt.Errorf("Add at least one question")
		}
		seen := make(map[string]bool, len(entries))
		for i, entry := range entries {
			key := strings.TrimSpace(str(entry["key"]))
			if key == "" {
				return fmt.Errorf("question %d needs a key", i+1)
			}
			if seen[key] {
				return fmt.Errorf("question %d reuses the key %q", i+1, key)
			}
			seen[key] = true
			if strings.TrimSpace(str(entry["prompt"])) == "" {
				return fmt.Errorf("question %d needs a prompt", i+1)
			}
			switch str(entry["kind"]) {
			case campaign.KindText, campaign.KindNumber, campaign.KindDate, campaign.KindYesNo:
			default:
				return fmt.Errorf("question %d has an unknown answer kind", i+1)
			}
		}
		return nil
	}
}
