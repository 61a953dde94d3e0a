package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"parish/internal/domain/event"
	"parish/internal/domain/ministry"
)

type fakeMinistryStore struct {
	ministries  map[string]ministry.Ministry
	assignments map[string]ministry.Assignment
}

func newFakeMinistryStore() *fakeMinistryStore {
	return &fakeMinistryStore{
		ministries:  map[string]ministry.Ministry{},
		assignments: map[string]ministry.Assignment{},
	}
}

func (f *fakeMinistryStore) GetByID(_ context.Context, id string) (ministry.Ministry, error) {
	m, ok := f.ministries[id]
	if !ok {
		return ministry.Ministry{}, errors.New("not found")
	}
	return m, nil
}

func (f *fakeMinistryStore) SaveAssignment(_ context.Context, a ministry.Assignment) error {
	f.assignments[a.ID] = a
	return nil
}

func (f *fakeMinistryStore) DeleteAssignment(_ context.Context, id string) error {
	delete(f.assignments, id)
	return nil
}

func (f *fakeMinistryStore) GetAssignment(_ context.Context, id string) (ministry.Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return ministry.Assignment{}, errors.New("not found")
	}
	return a, nil
}

func (f *fakeMinistryStore) ListAssignmentsForAssignee(_ context.Context, kind, assigneeID string) ([]ministry.Assignment, error) {
	var out []ministry.Assignment
	for _, a := range f.assignments {
		if a.AssigneeKind == kind && a.AssigneeID == assigneeID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeAssignmentEventStore struct {
	events map[string]event.Event
}

func (f *fakeAssignmentEventStore) GetByID(_ context.Context, id string) (event.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return event.Event{}, errors.New("not found")
	}
	return e, nil
}

var (
	shiftStart = time.Date(2026, 7, 5, 9, 0, 0, 0, time.UTC)
	shiftEnd   = time.Date(2026, 7, 5, 12, 0, 0, 0, time.UTC)
)

func assignmentFixture() (*fakeMinistryStore, *fakeAssignmentEventStore) {
	store := newFakeMinistryStore()
	store.ministries["min1"] = ministry.Ministry{
		ID: "min1", Name: "Welcome Team", Roles: []string{"greeter", "usher"},
	}
	events := &fakeAssignmentEventStore{events: map[string]event.Event{
		"e1": {
			ID: "e1", Title: "Morning Service", Status: event.StatusPublished,
			StartsAt: shiftStart, EndsAt: shiftEnd,
		},
	}}
	return store, events
}

func TestAssignVolunteer(t *testing.T) {
	store, events := assignmentFixture()

	a, err := ExecuteAssignVolunteer(context.Background(), AssignVolunteerInput{
		AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m1",
		MinistryID: "min1", Role: "greeter",
		StartsAt: shiftStart, EndsAt: shiftEnd,
	}, AssignVolunteerDeps{MinistryStore: store, EventStore: events})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.assignments[a.ID]; !ok {
		t.Error("expected assignment persisted")
	}
}

func TestAssignVolunteerUndeclaredRole(t *testing.T) {
	store, events := assignmentFixture()

	_, err := ExecuteAssignVolunteer(context.Background(), AssignVolunteerInput{
		AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m1",
		MinistryID: "min1", Role: "sound_desk",
		StartsAt: shiftStart, EndsAt: shiftEnd,
	}, AssignVolunteerDeps{MinistryStore: store, EventStore: events})
	if err == nil {
		t.Fatal("expected undeclared role to be rejected")
	}
}

func TestAssignVolunteerOverlapRejected(t *testing.T) {
	store, events := assignmentFixture()
	store.assignments["a1"] = ministry.Assignment{
		ID: "a1", AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m1",
		MinistryID: "min1", Role: "greeter",
		StartsAt: shiftStart, EndsAt: shiftEnd,
	}

	_, err := ExecuteAssignVolunteer(context.Background(), AssignVolunteerInput{
		AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m1",
		MinistryID: "min1", Role: "usher",
		StartsAt: shiftStart.Add(time.Hour), EndsAt: shiftEnd.Add(time.Hour),
	}, AssignVolunteerDeps{MinistryStore: store, EventStore: events})

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Conflict.ID != "a1" {
		t.Errorf("expected conflict with a1, got %s", conflict.Conflict.ID)
	}
}

func TestAssignVolunteerEventWindowDefaults(t *testing.T) {
	store, events := assignmentFixture()

	a, err := ExecuteAssignVolunteer(context.Background(), AssignVolunteerInput{
		AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m2",
		EventID: "e1", Role: "usher",
	}, AssignVolunteerDeps{MinistryStore: store, EventStore: events})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.StartsAt.Equal(shiftStart) || !a.EndsAt.Equal(shiftEnd) {
		t.Errorf("expected assignment to take the event window, got %v..%v", a.StartsAt, a.EndsAt)
	}
}

func TestRemoveAssignment(t *testing.T) {
	store, _ := assignmentFixture()
	store.assignments["a1"] = ministry.Assignment{
		ID: "a1", AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m1",
		MinistryID: "min1", Role: "greeter",
	}

	err := ExecuteRemoveAssignment(context.Background(), RemoveAssignmentInput{AssignmentID: "a1"},
		RemoveAssignmentDeps{MinistryStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.assignments["a1"]; ok {
		t.Error("expected assignment removed")
	}
}
