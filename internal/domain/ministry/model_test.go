package ministry_test

import (
	"testing"
	"time"

	"parish/internal/domain/ministry"
)

// TestMinistryValidation tests validation of Ministry.
func TestMinistryValidation(t *testing.T) {
	tests := []struct {
		name     string
		ministry ministry.Ministry
		wantErr  bool
	}{
		{"valid", ministry.Ministry{ID: "1", Name: "Worship", Roles: []string{"vocalist", "sound"}}, false},
		{"no roles is fine", ministry.Ministry{ID: "1", Name: "Prayer"}, false},
		{"empty name", ministry.Ministry{ID: "1", Name: " "}, true},
		{"duplicate roles", ministry.Ministry{ID: "1", Name: "Worship", Roles: []string{"Sound", "sound"}}, true},
		{"empty role", ministry.Ministry{ID: "1", Name: "Worship", Roles: []string{"vocalist", " "}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ministry.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Ministry.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestHasRole tests case-insensitive role lookup.
func TestHasRole(t *testing.T) {
	m := ministry.Ministry{ID: "1", Name: "Worship", Roles: []string{"Vocalist", "Sound"}}
	if !m.HasRole("sound") {
		t.Error("HasRole(sound) = false")
	}
	if m.HasRole("drums") {
		t.Error("HasRole(drums) = true")
	}
}

// TestAssignmentValidation tests validation of Assignment.
func TestAssignmentValidation(t *testing.T) {
	start := time.Date(2026, 4, 5, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		a       ministry.Assignment
		wantErr bool
	}{
		{
			"valid volunteer",
			ministry.Assignment{AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m1", EventID: "e1", Role: "usher", StartsAt: start, EndsAt: start.Add(time.Hour)},
			false,
		},
		{
			"valid open-ended ministry assignment",
			ministry.Assignment{AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m1", MinistryID: "w1", Role: "vocalist"},
			false,
		},
		{
			"bad kind",
			ministry.Assignment{AssigneeKind: "robot", AssigneeID: "m1", EventID: "e1", Role: "usher"},
			true,
		},
		{
			"no target",
			ministry.Assignment{AssigneeKind: ministry.AssigneeResource, AssigneeID: "van-1", Role: "transport"},
			true,
		},
		{
			"no role",
			ministry.Assignment{AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m1", EventID: "e1", Role: " "},
			true,
		},
		{
			"inverted window",
			ministry.Assignment{AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m1", EventID: "e1", Role: "usher", StartsAt: start, EndsAt: start.Add(-time.Hour)},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Assignment.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestFirstConflict tests overlap detection for the same assignee.
func TestFirstConflict(t *testing.T) {
	start := time.Date(2026, 4, 5, 9, 0, 0, 0, time.UTC)
	existing := []ministry.Assignment{
		{ID: "a1", AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m1", EventID: "e1", Role: "usher", StartsAt: start, EndsAt: start.Add(2 * time.Hour)},
		{ID: "a2", AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m2", EventID: "e1", Role: "usher", StartsAt: start, EndsAt: start.Add(2 * time.Hour)},
	}

	overlap := ministry.Assignment{
		AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m1", EventID: "e2",
		Role: "greeter", StartsAt: start.Add(time.Hour), EndsAt: start.Add(3 * time.Hour),
	}
	got, found := ministry.FirstConflict(&overlap, existing)
	if !found || got.ID != "a1" {
		t.Errorf("FirstConflict = %v/%v, want a1", got.ID, found)
	}

	clear := ministry.Assignment{
		AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m1", EventID: "e2",
		Role: "greeter", StartsAt: start.Add(2 * time.Hour), EndsAt: start.Add(3 * time.Hour),
	}
	if _, found := ministry.FirstConflict(&clear, existing); found {
		t.Error("back-to-back assignment reported as conflict")
	}

	otherMember := ministry.Assignment{
		AssigneeKind: ministry.AssigneeVolunteer, AssigneeID: "m3", EventID: "e2",
		Role: "greeter", StartsAt: start, EndsAt: start.Add(time.Hour),
	}
	if _, found := ministry.FirstConflict(&otherMember, existing); found {
		t.Error("different assignee reported as conflict")
	}

	// Updating an assignment must not conflict with itself.
	self := existing[0]
	if _, found := ministry.FirstConflict(&self, existing); found {
		t.Error("assignment conflicts with itself on update")
	}
}
