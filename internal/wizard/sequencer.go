package wizard

import (
	"errors"
	"fmt"
)

// Sequencer errors.
var (
	ErrLastStep    = errors.New("no next step; submit instead")
	ErrNotOptional = errors.New("step is not optional")
	ErrUnknownStep = errors.New("unknown step")
)

// StepInvalidError reports that the active step's validator rejected the
// draft, blocking Advance. Reason is the validator's human-readable message.
type StepInvalidError struct {
	Step   StepID
	Reason string
}

func (e *StepInvalidError) Error() string {
	return fmt.Sprintf("step %s: %s", e.Step, e.Reason)
}

// StepID identifies one node in a wizard's navigable sequence.
type StepID string

// Step is one node in the sequencer's path.
type Step struct {
	ID       StepID
	Title    string
	Optional bool
	// Fields are the draft fields this step owns. Skip clears them; a failed
	// submission whose rejected field is owned here returns the user to this
	// step.
	Fields   []string
	Validate Validator
}

// Edge is a labeled transition between steps. When names a boolean draft
// field: the edge is taken when the field is true, and the signal is consumed
// (reset to false) on traversal. An edge with an empty When is the step's
// default successor, overriding declared order. Edges may point backwards,
// which is how the one re-enterable branch loop (add item -> list -> add
// another) is declared rather than hand-rolled per wizard.
type Edge struct {
	From StepID
	To   StepID
	When string
}

// Definition declares a wizard: its ordered steps and any non-linear edges.
// Steps without a matching edge fall through to the next step in declared
// order.
type Definition struct {
	Kind  string
	Steps []Step
	Edges []Edge
}

// StepByID returns the declared step, or false if unknown.
func (def *Definition) StepByID(id StepID) (Step, bool) {
	for _, s := range def.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// StepOwning returns the first step (in declared order) owning the given
// draft field, or false.
func (def *Definition) StepOwning(field string) (Step, bool) {
	for _, s := range def.Steps {
		for _, f := range s.Fields {
			if f == field {
				return s, true
			}
		}
	}
	return Step{}, false
}

func (def *Definition) indexOf(id StepID) int {
	for i, s := range def.Steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Sequencer tracks the current position in a wizard definition and answers
// next/previous/skip questions. It records the path actually traversed so
// Retreat is branch-aware.
type Sequencer struct {
	def     *Definition
	current int
	history []int
}

// NewSequencer starts a sequencer at the definition's first step.
// PRE: def has at least one step
func NewSequencer(def *Definition) *Sequencer {
	return &Sequencer{def: def}
}

// Current returns the active step.
func (s *Sequencer) Current() Step {
	return s.def.Steps[s.current]
}

// Position returns the 1-based ordinal of the active step and the total step
// count, for progress indicators.
func (s *Sequencer) Position() (int, int) {
	return s.current + 1, len(s.def.Steps)
}

// AtFirst reports whether the sequencer is at the first step with no history
// (Retreat would be a no-op).
func (s *Sequencer) AtFirst() bool {
	return len(s.history) == 0
}

// CanAdvance reports whether the active step's validator accepts the draft.
func (s *Sequencer) CanAdvance(d *Draft) bool {
	step := s.Current()
	return step.Validate == nil || step.Validate(d) == nil
}

// Advance moves to the next step. A step with an unmet validator blocks
// Advance entirely (StepInvalidError; observable state unchanged). Labeled
// edges whose signal field is true win over the default successor; the signal
// is consumed on traversal. On the final step Advance returns ErrLastStep and
// the caller submits instead.
func (s *Sequencer) Advance(d *Draft) error {
	step := s.Current()
	if step.Validate != nil {
		if err := step.Validate(d); err != nil {
			return &StepInvalidError{Step: step.ID, Reason: err.Error()}
		}
	}
	return s.move(d)
}

// Skip bypasses an optional step: its owned fields are cleared to empty
// defaults and the sequencer advances without running the validator.
func (s *Sequencer) Skip(d *Draft) error {
	step := s.Current()
	if !step.Optional {
		return ErrNotOptional
	}
	d.Clear(step.Fields...)
	return s.move(d)
}

// Retreat returns to the previous step along the traversed path. At the first
// step it is a no-op.
func (s *Sequencer) Retreat() {
	if len(s.history) == 0 {
		return
	}
	s.current = s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
}

// JumpTo moves directly to a declared step, clearing traversal history. Used
// when a failed submission returns the user to the step owning the rejected
// field.
func (s *Sequencer) JumpTo(id StepID) error {
	idx := s.def.indexOf(id)
	if idx < 0 {
		return ErrUnknownStep
	}
	s.current = idx
	s.history = nil
	return nil
}

func (s *Sequencer) move(d *Draft) error {
	next, consumed, ok := s.next(d)
	if !ok {
		return ErrLastStep
	}
	if consumed != "" {
		d.Update(map[string]any{consumed: false})
	}
	s.history = append(s.history, s.current)
	s.current = next
	return nil
}

// next resolves the successor of the current step: first a labeled edge whose
// signal is set, then the default edge, then declared order.
func (s *Sequencer) next(d *Draft) (idx int, consumed string, ok bool) {
	from := s.Current().ID
	defaultTo := -1
	for _, e := range s.def.Edges {
		if e.From != from {
			continue
		}
		if e.When == "" {
			defaultTo = s.def.indexOf(e.To)
			continue
		}
		if d.Bool(e.When) {
			return s.def.indexOf(e.To), e.When, true
		}
	}
	if defaultTo >= 0 {
		return defaultTo, "", true
	}
	if s.current+1 < len(s.def.Steps) {
		return s.current + 1, "", true
	}
	return 0, "", false
}
