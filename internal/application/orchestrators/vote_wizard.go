package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"parish/internal/domain/vote"
	"parish/internal/wizard"

	"github.com/google/uuid"
)

// Vote wizard steps.
const (
	StepVoteDetails  wizard.StepID = "details"
	StepVoteOptions  wizard.StepID = "options"
	StepVoteSchedule wizard.StepID = "schedule"
	StepVoteReview   wizard.StepID = "review"
)

// VoteDefinition declares the vote editor wizard. The schedule validator runs
// against the injected clock on every pass, so a start time that slips into
// the past between step exit and submit fails the submit-time re-validation.
func VoteDefinition(clock wizard.Clock) *wizard.Definition {
	return &wizard.Definition{
		Kind: "vote",
		Steps: []wizard.Step{
			{
				ID:     StepVoteDetails,
				Title:  "What is being decided",
				Fields: []string{"title", "description"},
				Validate: wizard.All(
					wizard.NonEmpty("title", "Title"),
					wizard.MaxLen("title", "Title", vote.MaxTitleLen),
				),
			},
			{
				ID:       StepVoteOptions,
				Title:    "Choices",
				Fields:   []string{"options"},
				Validate: wizard.Options("options", "Choices"),
			},
			{
				ID:       StepVoteSchedule,
				Title:    "Voting window",
				Fields:   []string{"start_at", "end_at"},
				Validate: wizard.Schedule("start_at", "end_at", clock),
			},
			{
				ID:       StepVoteReview,
				Title:    "Review",
				Validate: wizard.Always(),
			},
		},
	}
}

// VotePayload projects the vote draft to the submission payload. Times are
// normalized to RFC 3339.
func VotePayload(d *wizard.Draft) map[string]any {
	payload := map[string]any{
		"title":   strings.TrimSpace(d.Str("title")),
		"options": d.Strings("options"),
	}
	if desc := strings.TrimSpace(d.Str("description")); desc != "" {
		payload["description"] = desc
	}
	if t, err := wizard.ParseDraftTime(d.Str("start_at")); err == nil {
		payload["start_at"] = t.Format(time.RFC3339)
	}
	if t, err := wizard.ParseDraftTime(d.Str("end_at")); err == nil {
		payload["end_at"] = t.Format(time.RFC3339)
	}
	return payload
}

// VoteWizardStore defines the vote store interface needed by the vote wizard.
type VoteWizardStore interface {
	GetByID(ctx context.Context, id string) (vote.Vote, error)
	Save(ctx context.Context, v vote.Vote) error
}

// VoteSubmitter commits a finished vote draft. In edit mode it carries the
// vote being edited and preserves its status and provenance. It implements
// wizard.Submitter.
type VoteSubmitter struct {
	Votes     VoteWizardStore
	CreatedBy string // account ID of the editor
	EditID    string // vote being edited, empty in create mode
	Now       func() time.Time
}

// Submit creates or updates the vote from the payload.
// PRE: payload passed every step validator, including submit-time schedule
// re-validation
// POST: Vote persisted as SCHEDULED (create) or with its status kept (edit)
func (s *VoteSubmitter) Submit(ctx context.Context, payload map[string]any) (wizard.SubmitResult, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	v := vote.Vote{
		ID:        uuid.New().String(),
		Status:    vote.StatusScheduled,
		CreatedBy: s.CreatedBy,
		CreatedAt: now,
	}
	if s.EditID != "" {
		existing, err := s.Votes.GetByID(ctx, s.EditID)
		if err != nil {
			return wizard.SubmitResult{}, &wizard.SubmitError{Message: "vote no longer exists"}
		}
		if existing.Status != vote.StatusScheduled {
			return wizard.SubmitResult{}, &wizard.SubmitError{Message: "only a scheduled vote can be edited"}
		}
		v = existing
	}

	v.Title = str(payload["title"])
	v.Description = str(payload["description"])
	v.Options = stringSlice(payload["options"])
	if t, err := time.Parse(time.RFC3339, str(payload["start_at"])); err == nil {
		v.StartAt = t
	}
	if t, err := time.Parse(time.RFC3339, str(payload["end_at"])); err == nil {
		v.EndAt = t
	}

	if err := v.Validate(); err != nil {
		return wizard.SubmitResult{}, &wizard.SubmitError{Message: err.Error()}
	}
	if err := s.Votes.Save(ctx, v); err != nil {
		return wizard.SubmitResult{}, err
	}

	slog.Info("vote_event", "event", "vote_saved", "vote_id", v.ID, "edit", s.EditID != "")
	record := map[string]any{
		"id": v.ID, "title": v.Title, "options": v.Options,
		"start_at": v.StartAt.Format(time.RFC3339), "end_at": v.EndAt.Format(time.RFC3339),
		"status": v.Status,
	}
	return wizard.SubmitResult{ID: v.ID, Record: record}, nil
}

// LoadRecord fetches an existing vote as a draft record for edit mode.
// PRE: id refers to an existing vote
// POST: Returns the vote's editable fields keyed by draft field name
func (s *VoteSubmitter) LoadRecord(ctx context.Context, id string) (map[string]any, error) {
	v, err := s.Votes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"title":       v.Title,
		"description": v.Description,
		"options":     append([]string(nil), v.Options...),
		"start_at":    v.StartAt.Format(time.RFC3339),
		"end_at":      v.EndAt.Format(time.RFC3339),
	}, nil
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, str)
		}
		return out
	}
	return nil
}
