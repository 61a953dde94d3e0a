package wizard_test

import (
	"strings"
	"testing"
	"time"

	"parish/internal/wizard"
)

func draftWith(fields map[string]any) *wizard.Draft {
	d := wizard.NewDraft()
	d.Update(fields)
	return d
}

// TestNonEmpty tests the trimmed non-empty validator.
func TestNonEmpty(t *testing.T) {
	v := wizard.NonEmpty("name", "name")
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"filled", "Grace", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v(draftWith(map[string]any{"name": tt.value}))
			if (err != nil) != tt.wantErr {
				t.Errorf("NonEmpty(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

// TestPhone tests the country-code-prefixed 10-digit pattern.
func TestPhone(t *testing.T) {
	v := wizard.Phone("phone", "phone number")
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid nz", "+642112345678", false},
		{"valid us", "+12025550134", false},
		{"missing plus", "642112345678", true},
		{"too short", "+6421123", true},
		{"letters", "+64two12345678", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v(draftWith(map[string]any{"phone": tt.value}))
			if (err != nil) != tt.wantErr {
				t.Errorf("Phone(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

// TestPassword tests the composite password rule: length, lower, upper, digit.
func TestPassword(t *testing.T) {
	v := wizard.Password("password")
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid", "Abcdef12", false},
		{"too short", "Ab1", true},
		{"no upper", "abcdef12", true},
		{"no lower", "ABCDEF12", true},
		{"no digit", "Abcdefgh", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v(draftWith(map[string]any{"password": tt.value}))
			if (err != nil) != tt.wantErr {
				t.Errorf("Password(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

// TestEqualsAndChecked tests confirmation and consent validators.
func TestEqualsAndChecked(t *testing.T) {
	eq := wizard.Equals("password", "confirm", "password confirmation")
	if err := eq(draftWith(map[string]any{"password": "a", "confirm": "a"})); err != nil {
		t.Errorf("matching confirmation rejected: %v", err)
	}
	if err := eq(draftWith(map[string]any{"password": "a", "confirm": "b"})); err == nil {
		t.Error("mismatched confirmation accepted")
	}

	ck := wizard.Checked("terms", "terms of membership")
	if err := ck(draftWith(map[string]any{"terms": true})); err != nil {
		t.Errorf("checked consent rejected: %v", err)
	}
	if err := ck(draftWith(map[string]any{"terms": false})); err == nil {
		t.Error("unchecked consent accepted")
	}
}

// TestOptionsBounds tests option-count boundaries: 1 invalid, 2 valid,
// 10 valid, 11 invalid.
func TestOptionsBounds(t *testing.T) {
	v := wizard.Options("options", "options")
	makeOpts := func(n int) []string {
		opts := make([]string, n)
		for i := range opts {
			opts[i] = "Option " + string(rune('A'+i))
		}
		return opts
	}
	tests := []struct {
		count   int
		wantErr string
	}{
		{1, "at least 2"},
		{2, ""},
		{10, ""},
		{11, "maximum of 10"},
	}
	for _, tt := range tests {
		err := v(draftWith(map[string]any{"options": makeOpts(tt.count)}))
		if tt.wantErr == "" {
			if err != nil {
				t.Errorf("%d options: unexpected error %v", tt.count, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%d options: error = %v, want reason containing %q", tt.count, err, tt.wantErr)
		}
	}
}

// TestOptionsUniqueness tests case-insensitive, whitespace-trimmed
// duplicate detection.
func TestOptionsUniqueness(t *testing.T) {
	v := wizard.Options("options", "options")
	tests := []struct {
		name    string
		options []string
		wantErr bool
	}{
		{"distinct", []string{"Yes", "No"}, false},
		{"exact duplicate", []string{"Yes", "Yes"}, true},
		{"case duplicate", []string{"Yes", "yes"}, true},
		{"trimmed case duplicate", []string{"Yes", "yes "}, true},
		{"empty element", []string{"Yes", "  "}, true},
		{"overlong element", []string{"Yes", strings.Repeat("x", 101)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v(draftWith(map[string]any{"options": tt.options}))
			if (err != nil) != tt.wantErr {
				t.Errorf("Options(%v) error = %v, wantErr %v", tt.options, err, tt.wantErr)
			}
			if tt.name == "case duplicate" && err != nil && !strings.Contains(err.Error(), "unique") {
				t.Errorf("duplicate reason = %q, want mention of uniqueness", err.Error())
			}
		})
	}
}

// TestSchedule tests the cross-field start/end window validator against an
// injected clock.
func TestSchedule(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := wizard.FixedClock{At: now}
	v := wizard.Schedule("startAt", "endAt", clock)

	fmtLocal := func(t time.Time) string { return t.Format("2006-01-02T15:04") }

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"valid window", now.Add(time.Hour), now.Add(2 * time.Hour), false},
		{"start equals end", now.Add(time.Hour), now.Add(time.Hour), true},
		{"start one minute before end", now.Add(time.Hour), now.Add(time.Hour + time.Minute), false},
		{"start in the past", now.Add(-time.Hour), now.Add(time.Hour), true},
		{"start is now", now, now.Add(time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := draftWith(map[string]any{
				"startAt": fmtLocal(tt.start),
				"endAt":   fmtLocal(tt.end),
			})
			err := v(d)
			if (err != nil) != tt.wantErr {
				t.Errorf("Schedule error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestScheduleGoesStale tests that a window valid at step-exit time fails
// once the clock passes the start (re-validation at submit time).
func TestScheduleGoesStale(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := draftWith(map[string]any{
		"startAt": start.Format("2006-01-02T15:04"),
		"endAt":   start.Add(time.Hour).Format("2006-01-02T15:04"),
	})

	early := wizard.Schedule("startAt", "endAt", wizard.FixedClock{At: start.Add(-time.Hour)})
	if err := early(d); err != nil {
		t.Fatalf("window invalid at step-exit time: %v", err)
	}

	late := wizard.Schedule("startAt", "endAt", wizard.FixedClock{At: start.Add(time.Minute)})
	if err := late(d); err == nil {
		t.Fatal("stale window accepted at submit time")
	}
}

// TestParseDraftTime tests both accepted timestamp shapes.
func TestParseDraftTime(t *testing.T) {
	if _, err := wizard.ParseDraftTime("2026-03-01T12:00"); err != nil {
		t.Errorf("datetime-local form rejected: %v", err)
	}
	if _, err := wizard.ParseDraftTime("2026-03-01T12:00:00Z"); err != nil {
		t.Errorf("RFC 3339 form rejected: %v", err)
	}
	if _, err := wizard.ParseDraftTime("next tuesday"); err == nil {
		t.Error("garbage timestamp accepted")
	}
}
