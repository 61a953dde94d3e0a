package campaign

import (
	"errors"
	"strings"
	"time"
)

// Status constants for the campaign lifecycle.
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Field value kinds a data-collection prompt can expect.
const (
	KindText   = "text"
	KindNumber = "number"
	KindDate   = "date"
	KindYesNo  = "yesno"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength    = 100
	MaxMessageLength = 480 // three concatenated SMS segments
)

// Domain errors
var (
	ErrNotDraft         = errors.New("campaign is not a draft")
	ErrNotRunning       = errors.New("campaign is not running")
	ErrNoRecipients     = errors.New("campaign has no recipients")
	ErrNoFields         = errors.New("campaign has no fields to collect")
	ErrAllFieldsAnswered = errors.New("recipient has answered every field")
)

// Field is one question in a data-collection campaign: a stable key, the
// prompt texted to the recipient, and the kind of value expected. Fields are
// asked in Position order.
type Field struct {
	Key      string
	Prompt   string
	Kind     string
	Position int
}

// Campaign is an SMS data-collection campaign: an intro message, an ordered
// list of fields to collect, and the member IDs to collect from.
type Campaign struct {
	ID         string
	Name       string
	Message    string
	Fields     []Field
	Recipients []string
	Status     string
	StartAt    time.Time
	CreatedBy  string
	CreatedAt  time.Time
}

// Response holds one recipient's collected answers, keyed by field key.
type Response struct {
	ID         string
	CampaignID string
	MemberID   string
	Answers    map[string]string
	UpdatedAt  time.Time
	Completed  bool
}

// Validate checks if the Campaign has valid data.
// PRE: Campaign struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: field keys are unique and non-empty; at least one recipient
func (c *Campaign) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("campaign name cannot be empty")
	}
	if len(c.Name) > MaxNameLength {
		return errors.New("campaign name cannot exceed 100 characters")
	}
	if strings.TrimSpace(c.Message) == "" {
		return errors.New("campaign message cannot be empty")
	}
	if len(c.Message) > MaxMessageLength {
		return errors.New("campaign message cannot exceed 480 characters")
	}
	if len(c.Fields) == 0 {
		return ErrNoFields
	}
	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		key := strings.TrimSpace(f.Key)
		if key == "" {
			return errors.New("campaign field key cannot be empty")
		}
		if seen[key] {
			return errors.New("campaign field keys must be unique")
		}
		seen[key] = true
		if strings.TrimSpace(f.Prompt) == "" {
			return errors.New("campaign field prompt cannot be empty")
		}
		switch f.Kind {
		case KindText, KindNumber, KindDate, KindYesNo:
		default:
			return errors.New("campaign field kind must be 'text', 'number', 'date', or 'yesno'")
		}
	}
	if len(c.Recipients) == 0 {
		return ErrNoRecipients
	}
	switch c.Status {
	case StatusDraft, StatusScheduled, StatusRunning, StatusCompleted, StatusCancelled:
	default:
		return errors.New("invalid campaign status")
	}
	return nil
}

// Launch transitions a draft campaign to running.
// PRE: Status is draft and the campaign validates
// POST: Status is running, StartAt is set
func (c *Campaign) Launch(at time.Time) error {
	if c.Status != StatusDraft && c.Status != StatusScheduled {
		return ErrNotDraft
	}
	if err := c.Validate(); err != nil {
		return err
	}
	c.Status = StatusRunning
	c.StartAt = at
	return nil
}

// Cancel stops a campaign that has not completed.
// PRE: Status is draft, scheduled, or running
// POST: Status is cancelled
func (c *Campaign) Cancel() error {
	switch c.Status {
	case StatusDraft, StatusScheduled, StatusRunning:
		c.Status = StatusCancelled
		return nil
	}
	return errors.New("campaign is already finished")
}

// NextField returns the earliest field (by Position) the response has not yet
// answered.
// INVARIANT: Campaign and Response are not mutated
func (c *Campaign) NextField(resp *Response) (Field, error) {
	for _, f := range c.Fields {
		if resp == nil || resp.Answers[f.Key] == "" {
			return f, nil
		}
	}
	return Field{}, ErrAllFieldsAnswered
}

// RecordAnswer applies an inbound answer to the earliest unanswered field and
// marks the response completed when every field has a value.
// PRE: Campaign is running; answer is non-empty
// POST: Answer stored under the next field's key; Completed updated
func (c *Campaign) RecordAnswer(resp *Response, answer string, at time.Time) (Field, error) {
	if c.Status != StatusRunning {
		return Field{}, ErrNotRunning
	}
	if strings.TrimSpace(answer) == "" {
		return Field{}, errors.New("answer cannot be empty")
	}
	field, err := c.NextField(resp)
	if err != nil {
		return Field{}, err
	}
	if resp.Answers == nil {
		resp.Answers = map[string]string{}
	}
	resp.Answers[field.Key] = strings.TrimSpace(answer)
	resp.UpdatedAt = at
	if _, err := c.NextField(resp); err == ErrAllFieldsAnswered {
		resp.Completed = true
	}
	return field, nil
}
