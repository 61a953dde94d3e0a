package wizard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"parish/internal/wizard"
)

type fakeSubmitter struct {
	payloads []map[string]any
	err      error
}

func (f *fakeSubmitter) Submit(_ context.Context, payload map[string]any) (wizard.SubmitResult, error) {
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return wizard.SubmitResult{}, f.err
	}
	return wizard.SubmitResult{ID: "rec-1", Record: payload}, nil
}

type fakeLoader struct {
	reference map[string][]map[string]any
	refErr    error
	record    map[string]any
	recordErr error
}

func (f *fakeLoader) LoadReference(_ context.Context, kind string) ([]map[string]any, error) {
	if f.refErr != nil {
		return nil, f.refErr
	}
	return f.reference[kind], nil
}

func (f *fakeLoader) LoadRecord(_ context.Context, id string) (map[string]any, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	return f.record, nil
}

func voteTestDefinition(clock wizard.Clock) *wizard.Definition {
	return &wizard.Definition{
		Kind: "vote",
		Steps: []wizard.Step{
			{ID: "details", Fields: []string{"title"}, Validate: wizard.NonEmpty("title", "title")},
			{ID: "options", Fields: []string{"options"}, Validate: wizard.Options("options", "options")},
			{ID: "schedule", Fields: []string{"startAt", "endAt"}, Validate: wizard.Schedule("startAt", "endAt", clock)},
			{ID: "review", Fields: nil},
		},
	}
}

func identityPayload(d *wizard.Draft) map[string]any { return d.Fields() }

// TestSessionCreateFlow tests a create-mode session end to end: step
// navigation under validation gates, then a successful submission.
func TestSessionCreateFlow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := wizard.FixedClock{At: now}
	sub := &fakeSubmitter{}
	sess, err := wizard.StartSession(context.Background(), wizard.Config{
		Definition: voteTestDefinition(clock),
		Submitter:  sub,
		ToPayload:  identityPayload,
		Clock:      clock,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := sess.Advance(); err == nil {
		t.Fatal("Advance with empty title accepted")
	}

	mustDo(t, sess.Update(map[string]any{"title": "Board Election"}))
	mustDo(t, sess.Advance())
	mustDo(t, sess.Update(map[string]any{"options": []string{"A", "B"}}))
	mustDo(t, sess.Advance())
	mustDo(t, sess.Update(map[string]any{
		"startAt": now.Add(time.Hour).Format("2006-01-02T15:04"),
		"endAt":   now.Add(2 * time.Hour).Format("2006-01-02T15:04"),
	}))
	mustDo(t, sess.Advance())

	if err := sess.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sess.State() != wizard.StateSucceeded {
		t.Errorf("state = %s, want succeeded", sess.State())
	}
	if sess.Draft() != nil {
		t.Error("draft not discarded after success")
	}
	if len(sub.payloads) != 1 {
		t.Fatalf("submitter called %d times, want 1", len(sub.payloads))
	}
	if got := sub.payloads[0]["title"]; got != "Board Election" {
		t.Errorf("payload title = %v", got)
	}
}

// TestSessionEditFlow tests the edit-mode scenario: load existing record,
// change detection on edit, submission carries the edited value.
func TestSessionEditFlow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := wizard.FixedClock{At: now}
	sub := &fakeSubmitter{}
	loader := &fakeLoader{record: map[string]any{
		"title":   "Board Election",
		"options": []string{"A", "B"},
		"startAt": now.Add(time.Hour).Format("2006-01-02T15:04"),
		"endAt":   now.Add(2 * time.Hour).Format("2006-01-02T15:04"),
		"status":  "SCHEDULED",
	}}
	sess, err := wizard.StartSession(context.Background(), wizard.Config{
		Definition: voteTestDefinition(clock),
		Submitter:  sub,
		ToPayload:  identityPayload,
		Clock:      clock,
		Records:    loader,
		RecordID:   "vote-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if sess.HasChanges() {
		t.Error("freshly loaded session reports changes")
	}
	mustDo(t, sess.Update(map[string]any{"title": "Board Election 2024"}))
	if !sess.HasChanges() {
		t.Error("edit not reported by change detector")
	}

	if err := sess.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := sub.payloads[0]["title"]; got != "Board Election 2024" {
		t.Errorf("payload title = %v, want edited value", got)
	}
	if sess.State() != wizard.StateSucceeded {
		t.Errorf("state = %s, want succeeded", sess.State())
	}
}

// TestSessionEditLoadFailure tests that an existing-record load failure is
// fatal before any step renders.
func TestSessionEditLoadFailure(t *testing.T) {
	loader := &fakeLoader{recordErr: errors.New("record gone")}
	_, err := wizard.StartSession(context.Background(), wizard.Config{
		Definition: voteTestDefinition(wizard.SystemClock),
		Submitter:  &fakeSubmitter{},
		ToPayload:  identityPayload,
		Records:    loader,
		RecordID:   "vote-1",
	})
	if err == nil {
		t.Fatal("load failure did not abort session start")
	}
}

// TestSessionReferenceLoadDegrades tests that reference-data failures degrade
// to empty lists instead of blocking the wizard.
func TestSessionReferenceLoadDegrades(t *testing.T) {
	loader := &fakeLoader{refErr: errors.New("catalog unavailable")}
	sess, err := wizard.StartSession(context.Background(), wizard.Config{
		Definition:     voteTestDefinition(wizard.SystemClock),
		Submitter:      &fakeSubmitter{},
		ToPayload:      identityPayload,
		Reference:      loader,
		ReferenceKinds: []string{"members"},
	})
	if err != nil {
		t.Fatalf("reference failure was fatal: %v", err)
	}
	if got := sess.Reference("members"); len(got) != 0 {
		t.Errorf("Reference(members) = %v, want empty", got)
	}
}

// TestSubmitRevalidatesStaleSchedule tests that submit re-runs every step's
// validator: a schedule valid at step-exit time is rejected once the clock
// passes the start, with no network call made.
func TestSubmitRevalidatesStaleSchedule(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &tickingClock{at: now}
	sub := &fakeSubmitter{}
	sess, err := wizard.StartSession(context.Background(), wizard.Config{
		Definition: voteTestDefinition(clock),
		Submitter:  sub,
		ToPayload:  identityPayload,
		Clock:      clock,
	})
	if err != nil {
		t.Fatal(err)
	}
	mustDo(t, sess.Update(map[string]any{
		"title":   "Board Election",
		"options": []string{"A", "B"},
		"startAt": now.Add(time.Minute).Format("2006-01-02T15:04"),
		"endAt":   now.Add(time.Hour).Format("2006-01-02T15:04"),
	}))
	mustDo(t, sess.Advance()) // details
	mustDo(t, sess.Advance()) // options
	mustDo(t, sess.Advance()) // schedule passes at step-exit time

	clock.at = now.Add(2 * time.Minute) // user lingers; start slips into the past
	err = sess.Submit(context.Background())
	if err == nil {
		t.Fatal("stale schedule accepted at submit time")
	}
	if len(sub.payloads) != 0 {
		t.Error("validation failure reached the network")
	}
	if sess.State() != wizard.StateEditing {
		t.Errorf("state = %s, want editing (local failure is recoverable)", sess.State())
	}
	if got := sess.Step().ID; got != "schedule" {
		t.Errorf("returned to step %s, want schedule", got)
	}
}

// TestSubmitFailureRecovery tests the conflict scenario: the collaborator
// rejects, the session lands in Failed with the message retained, the user is
// returned to the step owning the rejected field, and no draft data is lost.
func TestSubmitFailureRecovery(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := wizard.FixedClock{At: now}
	sub := &fakeSubmitter{err: &wizard.SubmitError{
		Message: "a vote with this title already exists",
		Fields:  map[string]string{"title": "already exists"},
	}}
	sess, err := wizard.StartSession(context.Background(), wizard.Config{
		Definition: voteTestDefinition(clock),
		Submitter:  sub,
		ToPayload:  identityPayload,
		Clock:      clock,
	})
	if err != nil {
		t.Fatal(err)
	}
	mustDo(t, sess.Update(map[string]any{
		"title":   "Board Election",
		"options": []string{"A", "B"},
		"startAt": now.Add(time.Hour).Format("2006-01-02T15:04"),
		"endAt":   now.Add(2 * time.Hour).Format("2006-01-02T15:04"),
	}))

	if err := sess.Submit(context.Background()); err == nil {
		t.Fatal("rejected submission reported success")
	}
	if sess.State() != wizard.StateFailed {
		t.Errorf("state = %s, want failed", sess.State())
	}
	if got := sess.Err(); got != "a vote with this title already exists" {
		t.Errorf("Err() = %q, want collaborator message verbatim", got)
	}
	if got := sess.Step().ID; got != "details" {
		t.Errorf("returned to step %s, want details (owner of title)", got)
	}
	if got := sess.Draft().Str("title"); got != "Board Election" {
		t.Errorf("draft title = %q, data lost on failure", got)
	}
	if got := sess.Draft().Strings("options"); len(got) != 2 {
		t.Errorf("draft options = %v, data lost on failure", got)
	}

	// Next mutation returns the session to Editing; resubmission is manual.
	sub.err = nil
	mustDo(t, sess.Update(map[string]any{"title": "Board Election 2026"}))
	if sess.State() != wizard.StateEditing {
		t.Errorf("state after edit = %s, want editing", sess.State())
	}
	if err := sess.Submit(context.Background()); err != nil {
		t.Fatalf("resubmission: %v", err)
	}
	if sess.State() != wizard.StateSucceeded {
		t.Errorf("state = %s, want succeeded", sess.State())
	}
}

// TestSubmitNotFieldAttributable tests fallback to the last step when the
// failure names no draft field.
func TestSubmitNotFieldAttributable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := wizard.FixedClock{At: now}
	sub := &fakeSubmitter{err: errors.New("upstream unavailable")}
	sess, err := wizard.StartSession(context.Background(), wizard.Config{
		Definition: voteTestDefinition(clock),
		Submitter:  sub,
		ToPayload:  identityPayload,
		Clock:      clock,
	})
	if err != nil {
		t.Fatal(err)
	}
	mustDo(t, sess.Update(map[string]any{
		"title":   "Board Election",
		"options": []string{"A", "B"},
		"startAt": now.Add(time.Hour).Format("2006-01-02T15:04"),
		"endAt":   now.Add(2 * time.Hour).Format("2006-01-02T15:04"),
	}))
	if err := sess.Submit(context.Background()); err == nil {
		t.Fatal("failure reported success")
	}
	if got := sess.Step().ID; got != "review" {
		t.Errorf("returned to step %s, want review (last step)", got)
	}
}

// TestSessionClosedAfterSuccess tests that a succeeded session accepts no
// further mutation or submission.
func TestSessionClosedAfterSuccess(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := wizard.FixedClock{At: now}
	sess, err := wizard.StartSession(context.Background(), wizard.Config{
		Definition: voteTestDefinition(clock),
		Submitter:  &fakeSubmitter{},
		ToPayload:  identityPayload,
		Clock:      clock,
	})
	if err != nil {
		t.Fatal(err)
	}
	mustDo(t, sess.Update(map[string]any{
		"title":   "Board Election",
		"options": []string{"A", "B"},
		"startAt": now.Add(time.Hour).Format("2006-01-02T15:04"),
		"endAt":   now.Add(2 * time.Hour).Format("2006-01-02T15:04"),
	}))
	if err := sess.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := sess.Update(map[string]any{"title": "late"}); !errors.Is(err, wizard.ErrSessionClosed) {
		t.Errorf("Update after success error = %v, want ErrSessionClosed", err)
	}
	if err := sess.Submit(context.Background()); !errors.Is(err, wizard.ErrSessionClosed) {
		t.Errorf("Submit after success error = %v, want ErrSessionClosed", err)
	}
}

// tickingClock is adjustable between calls, unlike FixedClock.
type tickingClock struct {
	at time.Time
}

func (c *tickingClock) Now() time.Time { return c.at }

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

// stateObservingSubmitter records the session state at the moment the
// collaborator is called.
type stateObservingSubmitter struct {
	session  *wizard.Session
	observed wizard.State
}

func (f *stateObservingSubmitter) Submit(_ context.Context, payload map[string]any) (wizard.SubmitResult, error) {
	f.observed = f.session.State()
	return wizard.SubmitResult{ID: "rec-1", Record: payload}, nil
}

// TestSubmitStateMachine verifies the submit states in order: validators run
// while the session is validating, the collaborator is called while it is
// submitting, and the session ends succeeded.
func TestSubmitStateMachine(t *testing.T) {
	var sess *wizard.Session
	var duringValidation []wizard.State
	def := &wizard.Definition{
		Kind: "vote",
		Steps: []wizard.Step{{
			ID:     "details",
			Fields: []string{"title"},
			Validate: func(d *wizard.Draft) error {
				duringValidation = append(duringValidation, sess.State())
				return nil
			},
		}},
	}
	sub := &stateObservingSubmitter{}
	sess, err := wizard.StartSession(context.Background(), wizard.Config{
		Definition: def,
		Submitter:  sub,
		ToPayload:  identityPayload,
	})
	if err != nil {
		t.Fatal(err)
	}
	sub.session = sess

	mustDo(t, sess.Update(map[string]any{"title": "AGM date"}))
	if err := sess.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(duringValidation) != 1 || duringValidation[0] != wizard.StateValidating {
		t.Errorf("validator saw states %v, want [validating]", duringValidation)
	}
	if sub.observed != wizard.StateSubmitting {
		t.Errorf("collaborator saw state %s, want submitting", sub.observed)
	}
	if sess.State() != wizard.StateSucceeded {
		t.Errorf("final state = %s, want succeeded", sess.State())
	}
}
