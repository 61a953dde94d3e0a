package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"parish/internal/domain/event"
	"parish/internal/domain/member"
)

type fakeEventStore struct {
	events        map[string]event.Event
	registrations map[string]event.Registration
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{
		events:        map[string]event.Event{},
		registrations: map[string]event.Registration{},
	}
}

func (f *fakeEventStore) GetByID(_ context.Context, id string) (event.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return event.Event{}, errors.New("not found")
	}
	return e, nil
}

func (f *fakeEventStore) GetRegistration(_ context.Context, id string) (event.Registration, error) {
	r, ok := f.registrations[id]
	if !ok {
		return event.Registration{}, errors.New("not found")
	}
	return r, nil
}

func (f *fakeEventStore) SaveRegistration(_ context.Context, reg event.Registration) error {
	f.registrations[reg.ID] = reg
	return nil
}

func (f *fakeEventStore) ListRegistrations(_ context.Context, eventID string) ([]event.Registration, error) {
	var out []event.Registration
	for _, r := range f.registrations {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeEventStore) FindRegistration(_ context.Context, eventID, memberID string) (event.Registration, bool, error) {
	for _, r := range f.registrations {
		if r.EventID == eventID && r.MemberID == memberID {
			return r, true, nil
		}
	}
	return event.Registration{}, false, nil
}

func (f *fakeEventStore) CountActiveRegistrations(_ context.Context, eventID string) (int, error) {
	count := 0
	for _, r := range f.registrations {
		if r.EventID == eventID && r.Status == event.RegStatusRegistered {
			count++
		}
	}
	return count, nil
}

type fakeRegMemberStore struct {
	members map[string]member.Member
}

func (f *fakeRegMemberStore) GetByID(_ context.Context, id string) (member.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return member.Member{}, errors.New("not found")
	}
	return m, nil
}

func registrationFixture(capacity int) (*fakeEventStore, *fakeRegMemberStore) {
	store := newFakeEventStore()
	store.events["e1"] = event.Event{
		ID: "e1", Title: "Parish Picnic", Status: event.StatusPublished,
		Capacity: capacity,
		StartsAt: time.Date(2026, 6, 6, 11, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 6, 6, 15, 0, 0, 0, time.UTC),
	}
	members := &fakeRegMemberStore{members: map[string]member.Member{
		"m1": {ID: "m1", Name: "Ana", Email: "ana@example.com", Status: member.StatusActive},
		"m2": {ID: "m2", Name: "Ben", Email: "ben@example.com", Status: member.StatusActive},
		"m3": {ID: "m3", Name: "Cara", Email: "cara@example.com", Status: member.StatusActive},
	}}
	return store, members
}

func TestRegisterWaitlistsAtCapacity(t *testing.T) {
	store, members := registrationFixture(2)
	deps := RegisterForEventDeps{EventStore: store, MemberStore: members}

	statuses := map[string]string{}
	for _, memberID := range []string{"m1", "m2", "m3"} {
		reg, err := ExecuteRegisterForEvent(context.Background(), RegisterForEventInput{
			EventID: "e1", MemberID: memberID,
		}, deps)
		if err != nil {
			t.Fatalf("register %s: %v", memberID, err)
		}
		statuses[memberID] = reg.Status
	}

	if statuses["m1"] != event.RegStatusRegistered || statuses["m2"] != event.RegStatusRegistered {
		t.Errorf("expected first two registered, got %v", statuses)
	}
	if statuses["m3"] != event.RegStatusWaitlisted {
		t.Errorf("expected m3 waitlisted, got %s", statuses["m3"])
	}
}

func TestRegisterTwiceRejected(t *testing.T) {
	store, members := registrationFixture(10)
	deps := RegisterForEventDeps{EventStore: store, MemberStore: members}
	input := RegisterForEventInput{EventID: "e1", MemberID: "m1"}

	if _, err := ExecuteRegisterForEvent(context.Background(), input, deps); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if _, err := ExecuteRegisterForEvent(context.Background(), input, deps); err != ErrAlreadyRegistered {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestCancelPromotesEarliestWaitlisted(t *testing.T) {
	store, members := registrationFixture(1)
	deps := RegisterForEventDeps{EventStore: store, MemberStore: members}

	var held string
	for i, memberID := range []string{"m1", "m2", "m3"} {
		reg, err := ExecuteRegisterForEvent(context.Background(), RegisterForEventInput{
			EventID: "e1", MemberID: memberID,
		}, deps)
		if err != nil {
			t.Fatalf("register %s: %v", memberID, err)
		}
		if i == 0 {
			held = reg.ID
		}
		// Spread RegisteredAt so the waitlist has a stable order.
		reg.RegisteredAt = time.Date(2026, 6, 1, 10, i, 0, 0, time.UTC)
		store.registrations[reg.ID] = reg
	}

	err := ExecuteCancelRegistration(context.Background(), CancelRegistrationInput{
		RegistrationID: held,
	}, CancelRegistrationDeps{EventStore: store})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	byMember := map[string]string{}
	for _, r := range store.registrations {
		byMember[r.MemberID] = r.Status
	}
	if byMember["m1"] != event.RegStatusCancelled {
		t.Errorf("expected m1 cancelled, got %s", byMember["m1"])
	}
	if byMember["m2"] != event.RegStatusRegistered {
		t.Errorf("expected m2 promoted, got %s", byMember["m2"])
	}
	if byMember["m3"] != event.RegStatusWaitlisted {
		t.Errorf("expected m3 still waitlisted, got %s", byMember["m3"])
	}
}

func TestCancelWaitlistedDoesNotPromote(t *testing.T) {
	store, members := registrationFixture(1)
	deps := RegisterForEventDeps{EventStore: store, MemberStore: members}

	var waitlisted string
	for _, memberID := range []string{"m1", "m2", "m3"} {
		reg, err := ExecuteRegisterForEvent(context.Background(), RegisterForEventInput{
			EventID: "e1", MemberID: memberID,
		}, deps)
		if err != nil {
			t.Fatalf("register %s: %v", memberID, err)
		}
		if memberID == "m2" {
			waitlisted = reg.ID
		}
	}

	err := ExecuteCancelRegistration(context.Background(), CancelRegistrationInput{
		RegistrationID: waitlisted,
	}, CancelRegistrationDeps{EventStore: store})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	count, _ := store.CountActiveRegistrations(context.Background(), "e1")
	if count != 1 {
		t.Errorf("expected 1 active registration after waitlist cancel, got %d", count)
	}
}
