package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Session states. A session starts Editing, passes through Validating and
// Submitting on submit, and ends Succeeded; Failed returns to Editing on the
// next mutation.
type State string

const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Session errors.
var (
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	ErrSessionClosed  = errors.New("session has already succeeded")
)

// SubmitResult is the collaborator's acknowledgement of a submission.
type SubmitResult struct {
	ID     string
	Record map[string]any
}

// SubmitError is a rejection from the collaborator. Message is surfaced to
// the user verbatim. Fields optionally maps draft field names to per-field
// reasons, letting the session return the user to the step owning the
// rejected field.
type SubmitError struct {
	Message string
	Fields  map[string]string
}

func (e *SubmitError) Error() string { return e.Message }

// Submitter is the sole state-changing collaborator call.
type Submitter interface {
	Submit(ctx context.Context, payload map[string]any) (SubmitResult, error)
}

// ReferenceLoader fetches read-only reference lists (members, field catalogs)
// used to populate step choices. Load failures are not fatal to the wizard.
type ReferenceLoader interface {
	LoadReference(ctx context.Context, kind string) ([]map[string]any, error)
}

// RecordLoader fetches the existing record an edit-mode wizard starts from.
type RecordLoader interface {
	LoadRecord(ctx context.Context, id string) (map[string]any, error)
}

// PayloadFunc is the pure draft-to-wire projection run at commit time:
// datetime-local strings become RFC 3339, empty optionals are dropped, nested
// arrays are assembled. It must not mutate the draft.
type PayloadFunc func(d *Draft) map[string]any

// Config assembles a Session.
type Config struct {
	Definition *Definition
	Submitter  Submitter
	ToPayload  PayloadFunc
	// Clock defaults to SystemClock.
	Clock Clock
	// Reference and ReferenceKinds preload choice lists at start.
	Reference      ReferenceLoader
	ReferenceKinds []string
	// Records plus RecordID switch the session to edit mode: the record is
	// loaded into the draft and snapshotted for change detection.
	Records  RecordLoader
	RecordID string
}

// Session drives one wizard from first step to submission: it owns the draft,
// the sequencer, the original snapshot (edit mode), and the submit state
// machine.
type Session struct {
	def       *Definition
	seq       *Sequencer
	draft     *Draft
	snapshot  *Snapshot
	state     State
	lastError string
	toPayload PayloadFunc
	submitter Submitter
	reference map[string][]map[string]any
	result    SubmitResult
}

// StartSession creates a session, loading reference data leniently and, in
// edit mode, the existing record. A reference load failure degrades to an
// empty list; an existing-record load failure is fatal and no session is
// returned.
func StartSession(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	s := &Session{
		def:       cfg.Definition,
		seq:       NewSequencer(cfg.Definition),
		draft:     NewDraft(),
		state:     StateEditing,
		toPayload: cfg.ToPayload,
		submitter: cfg.Submitter,
		reference: map[string][]map[string]any{},
	}
	for _, kind := range cfg.ReferenceKinds {
		records, err := cfg.Reference.LoadReference(ctx, kind)
		if err != nil {
			slog.Warn("wizard_reference_load_failed", "wizard", cfg.Definition.Kind, "kind", kind, "error", err)
			records = nil
		}
		s.reference[kind] = records
	}
	if cfg.RecordID != "" {
		record, err := cfg.Records.LoadRecord(ctx, cfg.RecordID)
		if err != nil {
			return nil, fmt.Errorf("load record %s: %w", cfg.RecordID, err)
		}
		s.draft = FromRecord(record)
		s.snapshot = s.draft.Snapshot()
	}
	return s, nil
}

// State returns the session state.
func (s *Session) State() State { return s.state }

// Err returns the last submission or validation failure message, or "".
func (s *Session) Err() string { return s.lastError }

// Result returns the collaborator's acknowledgement after Succeeded.
func (s *Session) Result() SubmitResult { return s.result }

// Step returns the active step.
func (s *Session) Step() Step { return s.seq.Current() }

// Position returns the 1-based step ordinal and total count.
func (s *Session) Position() (int, int) { return s.seq.Position() }

// Reference returns a preloaded reference list (possibly empty).
func (s *Session) Reference(kind string) []map[string]any { return s.reference[kind] }

// Draft exposes the working draft for rendering. Mutate through Update.
func (s *Session) Draft() *Draft { return s.draft }

// Update merges partial field values into the draft. Rejected while a submit
// is in flight and after success; a Failed session returns to Editing.
func (s *Session) Update(partial map[string]any) error {
	switch s.state {
	case StateValidating, StateSubmitting:
		return ErrSubmitInFlight
	case StateSucceeded:
		return ErrSessionClosed
	case StateFailed:
		s.state = StateEditing
	}
	s.draft.Update(partial)
	return nil
}

// SetPath writes one dotted-path value (nested sub-objects) under the same
// state rules as Update.
func (s *Session) SetPath(path string, value any) error {
	if err := s.checkEditable(); err != nil {
		return err
	}
	s.draft.Set(path, value)
	return nil
}

// Advance moves to the next step, gated by the active step's validator.
func (s *Session) Advance() error {
	if err := s.checkEditable(); err != nil {
		return err
	}
	return s.seq.Advance(s.draft)
}

// Retreat moves to the previous traversed step.
func (s *Session) Retreat() error {
	if err := s.checkEditable(); err != nil {
		return err
	}
	s.seq.Retreat()
	return nil
}

// Skip bypasses the active optional step, clearing its fields.
func (s *Session) Skip() error {
	if err := s.checkEditable(); err != nil {
		return err
	}
	return s.seq.Skip(s.draft)
}

// HasChanges reports whether an edit-mode draft differs from the original
// snapshot. Create-mode sessions have no snapshot and always report false.
func (s *Session) HasChanges() bool {
	if s.snapshot == nil || s.draft == nil {
		return false
	}
	return s.snapshot.Changed(s.draft)
}

// Submit runs the full validation pass, projects the draft to the wire
// payload, and calls the collaborator. Validation failures are local: no
// network call is made, the session returns to Editing at the failing step.
// A collaborator rejection moves the session to Failed with the message
// retained verbatim and the user returned to the step owning the rejected
// field (or the last step when not field-attributable). On success the draft
// is discarded and the session is Succeeded.
func (s *Session) Submit(ctx context.Context) error {
	switch s.state {
	case StateValidating, StateSubmitting:
		return ErrSubmitInFlight
	case StateSucceeded:
		return ErrSessionClosed
	}

	// Full re-validation of every step, not just the last: time-dependent
	// predicates can go stale between step exit and submit.
	s.state = StateValidating
	if err := s.validateAll(); err != nil {
		s.state = StateEditing
		s.lastError = err.Error()
		var invalid *StepInvalidError
		if errors.As(err, &invalid) {
			_ = s.seq.JumpTo(invalid.Step)
		}
		return err
	}

	s.state = StateSubmitting
	result, err := s.submitter.Submit(ctx, s.toPayload(s.draft))
	if err != nil {
		s.state = StateFailed
		s.lastError = err.Error()
		s.returnToFailingStep(err)
		return err
	}

	s.state = StateSucceeded
	s.lastError = ""
	s.result = result
	s.draft = nil
	s.snapshot = nil
	return nil
}

func (s *Session) checkEditable() error {
	switch s.state {
	case StateValidating, StateSubmitting:
		return ErrSubmitInFlight
	case StateSucceeded:
		return ErrSessionClosed
	case StateFailed:
		s.state = StateEditing
	}
	return nil
}

// validateAll runs every step validator against the full draft. An optional
// step whose owned fields are all empty was skipped and is not validated.
func (s *Session) validateAll() error {
	for _, step := range s.def.Steps {
		if step.Validate == nil {
			continue
		}
		if step.Optional && s.stepEmpty(step) {
			continue
		}
		if err := step.Validate(s.draft); err != nil {
			return &StepInvalidError{Step: step.ID, Reason: err.Error()}
		}
	}
	return nil
}

func (s *Session) stepEmpty(step Step) bool {
	for _, field := range step.Fields {
		switch v := s.draft.Get(field).(type) {
		case nil:
		case string:
			if strings.TrimSpace(v) != "" {
				return false
			}
		case bool:
			if v {
				return false
			}
		case []string:
			if len(v) > 0 {
				return false
			}
		case []any:
			if len(v) > 0 {
				return false
			}
		case []map[string]any:
			if len(v) > 0 {
				return false
			}
		case map[string]any:
			if len(v) > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (s *Session) returnToFailingStep(err error) {
	var submitErr *SubmitError
	if errors.As(err, &submitErr) {
		for _, step := range s.def.Steps {
			for _, field := range step.Fields {
				if _, rejected := submitErr.Fields[field]; rejected {
					_ = s.seq.JumpTo(step.ID)
					return
				}
			}
		}
	}
	_ = s.seq.JumpTo(s.def.Steps[len(s.def.Steps)-1].ID)
}
