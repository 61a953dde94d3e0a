package attendance_test

import (
	"testing"
	"time"

	"parish/internal/domain/attendance"
)

func memberCheckIn() attendance.CheckIn {
	return attendance.CheckIn{
		ID:          "c1",
		MemberID:    "m1",
		EventID:     "e1",
		Method:      attendance.MethodKiosk,
		CheckedInAt: time.Date(2026, 4, 5, 9, 0, 0, 0, time.UTC),
	}
}

// TestCheckInValidation tests validation of CheckIn.
func TestCheckInValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*attendance.CheckIn)
		wantErr bool
	}{
		{"valid member check-in", func(*attendance.CheckIn) {}, false},
		{"valid guest check-in", func(c *attendance.CheckIn) { c.MemberID = ""; c.GuestName = "Visitor Jane" }, false},
		{"valid service check-in", func(c *attendance.CheckIn) { c.EventID = ""; c.ServiceDate = "2026-04-05" }, false},
		{"no subject", func(c *attendance.CheckIn) { c.MemberID = ""; c.GuestName = " " }, true},
		{"no target", func(c *attendance.CheckIn) { c.EventID = "" }, true},
		{"bad service date", func(c *attendance.CheckIn) { c.EventID = ""; c.ServiceDate = "05/04/2026" }, true},
		{"bad method", func(c *attendance.CheckIn) { c.Method = "phone" }, true},
		{"zero time", func(c *attendance.CheckIn) { c.CheckedInAt = time.Time{} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := memberCheckIn()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckIn.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestUndo tests the undo window and double-undo protection.
func TestUndo(t *testing.T) {
	c := memberCheckIn()
	inside := c.CheckedInAt.Add(5 * time.Minute)

	if err := c.Undo(inside); err != nil {
		t.Fatalf("Undo inside window: %v", err)
	}
	if !c.IsUndone() {
		t.Error("IsUndone() = false after Undo")
	}
	if err := c.Undo(inside); err != attendance.ErrAlreadyUndone {
		t.Errorf("second Undo error = %v, want ErrAlreadyUndone", err)
	}

	late := memberCheckIn()
	after := late.CheckedInAt.Add(attendance.UndoWindow + time.Minute)
	if err := late.Undo(after); err != attendance.ErrUndoWindowOver {
		t.Errorf("late Undo error = %v, want ErrUndoWindowOver", err)
	}
}

// TestIsGuest tests guest detection.
func TestIsGuest(t *testing.T) {
	c := memberCheckIn()
	if c.IsGuest() {
		t.Error("member check-in reported as guest")
	}
	c.MemberID = ""
	c.GuestName = "Visitor Jane"
	if !c.IsGuest() {
		t.Error("guest check-in not reported as guest")
	}
}
