package wizard_test

import (
	"testing"

	"parish/internal/wizard"
)

// TestDraftUpdateShallowMerge tests that Update merges without clobbering
// sibling fields.
func TestDraftUpdateShallowMerge(t *testing.T) {
	d := wizard.NewDraft()
	d.Update(map[string]any{"firstName": "Ana", "lastName": "Reed"})
	d.Update(map[string]any{"firstName": "Anna"})

	if got := d.Str("firstName"); got != "Anna" {
		t.Errorf("firstName = %q, want %q", got, "Anna")
	}
	if got := d.Str("lastName"); got != "Reed" {
		t.Errorf("lastName = %q, want %q (sibling clobbered)", got, "Reed")
	}
}

// TestDraftSetNestedPath tests dotted-path writes into compound fields.
func TestDraftSetNestedPath(t *testing.T) {
	d := wizard.NewDraft()
	d.Set("address.city", "Te Aroha")
	d.Set("address.line1", "12 Church St")

	if got := d.Str("address.city"); got != "Te Aroha" {
		t.Errorf("address.city = %q, want %q", got, "Te Aroha")
	}
	if got := d.Str("address.line1"); got != "12 Church St" {
		t.Errorf("address.line1 = %q, want %q", got, "12 Church St")
	}
}

// TestDraftClear tests that Clear resets fields to empty defaults.
func TestDraftClear(t *testing.T) {
	d := wizard.NewDraft()
	d.Update(map[string]any{
		"nickname":  "Sparky",
		"consented": true,
		"tags":      []string{"choir"},
	})
	d.Clear("nickname", "consented", "tags")

	if got := d.Str("nickname"); got != "" {
		t.Errorf("nickname = %q, want empty", got)
	}
	if d.Bool("consented") {
		t.Error("consented = true, want false")
	}
	if got := d.Strings("tags"); len(got) != 0 {
		t.Errorf("tags = %v, want empty", got)
	}
}

// TestDraftFromRecordIsolation tests that mutating a draft does not leak into
// the source record.
func TestDraftFromRecordIsolation(t *testing.T) {
	record := map[string]any{
		"title":   "Board Election",
		"options": []string{"A", "B"},
	}
	d := wizard.FromRecord(record)
	opts := d.Strings("options")
	opts[0] = "Z"
	d.Update(map[string]any{"title": "Changed"})

	if record["title"] != "Board Election" {
		t.Errorf("source record title mutated: %v", record["title"])
	}
	if src := record["options"].([]string); src[0] != "A" {
		t.Errorf("source record options mutated: %v", src)
	}
}

// TestChangeDetector tests snapshot comparison, including the round-trip
// property: mutating back to snapshot values reports no changes.
func TestChangeDetector(t *testing.T) {
	d := wizard.FromRecord(map[string]any{
		"title":   "Board Election",
		"options": []string{"A", "B"},
	})
	snap := d.Snapshot()

	if snap.Changed(d) {
		t.Fatal("unmodified draft reported as changed")
	}

	d.Update(map[string]any{"title": "Board Election 2024"})
	if !snap.Changed(d) {
		t.Fatal("title edit not detected")
	}

	d.Update(map[string]any{"title": "Board Election"})
	if snap.Changed(d) {
		t.Fatal("draft restored to snapshot values still reported as changed")
	}
}

// TestChangeDetectorArrays tests order-sensitive structural comparison for
// array-valued fields.
func TestChangeDetectorArrays(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		want    bool
	}{
		{"identical", []string{"A", "B"}, false},
		{"reordered", []string{"B", "A"}, true},
		{"element edited", []string{"A", "C"}, true},
		{"element added", []string{"A", "B", "C"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := wizard.FromRecord(map[string]any{"options": []string{"A", "B"}})
			snap := d.Snapshot()
			d.Update(map[string]any{"options": tt.options})
			if got := snap.Changed(d); got != tt.want {
				t.Errorf("Changed() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestChangeDetectorNested tests comparison of nested sub-objects.
func TestChangeDetectorNested(t *testing.T) {
	d := wizard.FromRecord(map[string]any{
		"address": map[string]any{"city": "Te Aroha", "line1": "12 Church St"},
	})
	snap := d.Snapshot()

	d.Set("address.city", "Paeroa")
	if !snap.Changed(d) {
		t.Fatal("nested field edit not detected")
	}
	d.Set("address.city", "Te Aroha")
	if snap.Changed(d) {
		t.Fatal("restored nested field still reported as changed")
	}
}
