package reporting_test

import (
	"strings"
	"testing"
	"time"

	"parish/internal/domain/reporting"
)

func pendingRequest() *reporting.Request {
	now := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	return reporting.NewRequest("r1", reporting.KindAttendance, "", "acct-1", reporting.FormatCSV, now, "203.0.113.9", "Mozilla/5.0")
}

// TestRequestValidation tests validation of report requests.
func TestRequestValidation(t *testing.T) {
	now := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		mutate  func(*reporting.Request)
		wantErr bool
	}{
		{"valid", func(*reporting.Request) {}, false},
		{"empty id", func(r *reporting.Request) { r.ID = "" }, true},
		{"empty requester", func(r *reporting.Request) { r.RequestedBy = "" }, true},
		{"bad kind", func(r *reporting.Request) { r.Kind = "payroll" }, true},
		{"member data without member", func(r *reporting.Request) { r.Kind = reporting.KindMemberData }, true},
		{"member data with member", func(r *reporting.Request) { r.Kind = reporting.KindMemberData; r.MemberID = "m1" }, false},
		{"bad format", func(r *reporting.Request) { r.Format = "pdf" }, true},
		{"xlsx format", func(r *reporting.Request) { r.Format = reporting.FormatXLSX }, false},
		{"inverted period", func(r *reporting.Request) { r.PeriodStart = now; r.PeriodEnd = now.Add(-time.Hour) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := pendingRequest()
			tt.mutate(r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Request.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidateDefaultsFormat tests that format defaults to CSV.
func TestValidateDefaultsFormat(t *testing.T) {
	r := pendingRequest()
	r.Format = ""
	if err := r.Validate(); err != nil {
		t.Fatal(err)
	}
	if r.Format != reporting.FormatCSV {
		t.Errorf("Format = %s, want csv", r.Format)
	}
}

// TestLifecycle tests the pending to downloaded lifecycle.
func TestLifecycle(t *testing.T) {
	now := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	r := pendingRequest()

	if err := r.MarkReady("/tmp/x.csv", 10, now); err != reporting.ErrInvalidStatus {
		t.Errorf("MarkReady from pending error = %v, want ErrInvalidStatus", err)
	}
	if err := r.MarkProcessing(); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := r.MarkDownloaded(now); err != reporting.ErrNotReady {
		t.Errorf("MarkDownloaded from processing error = %v, want ErrNotReady", err)
	}
	if err := r.MarkReady("/tmp/x.csv", 2048, now); err != nil {
		t.Fatalf("MarkReady: %v", err)
	}
	if !r.CanDownload(now) {
		t.Error("ready report not downloadable")
	}
	if r.CanDownload(now.Add(8 * 24 * time.Hour)) {
		t.Error("expired report still downloadable")
	}
	if err := r.MarkDownloaded(now.Add(time.Hour)); err != nil {
		t.Fatalf("MarkDownloaded: %v", err)
	}
	if r.Status != reporting.StatusDownloaded || r.DownloadedAt == nil {
		t.Errorf("download not recorded: %+v", r)
	}
}

// TestMemberDataToJSON tests serialization of the member export payload.
func TestMemberDataToJSON(t *testing.T) {
	now := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	d := reporting.MemberData{
		Member: reporting.MemberRecord{ID: "m1", Name: "Jane Doe", Email: "jane@parish.test", JoinedAt: now},
		Consents: []reporting.ConsentRecord{
			{ID: "c1", Type: "photos", Granted: true, GrantedAt: now, Version: "v1"},
		},
		ExportMetadata: reporting.Metadata{ExportDate: now, Format: "json", Version: "1", RecordCount: 2},
	}
	b, err := d.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"jane@parish.test"`, `"photos"`, `"export_metadata"`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("JSON missing %s", want)
		}
	}
}
