package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"parish/internal/adapters/reports"
	financestore "parish/internal/adapters/storage/finance"
	memberstore "parish/internal/adapters/storage/member"
	"parish/internal/domain/account"
	"parish/internal/domain/attendance"
	"parish/internal/domain/campaign"
	"parish/internal/domain/consent"
	"parish/internal/domain/event"
	"parish/internal/domain/finance"
	"parish/internal/domain/member"
	"parish/internal/domain/reporting"

	"github.com/google/uuid"
)

// ReportRequestStore defines the reporting store interface needed by report
// orchestrators.
type ReportRequestStore interface {
	GetByID(ctx context.Context, id string) (reporting.Request, error)
	Save(ctx context.Context, r reporting.Request) error
	ListExpired(ctx context.Context, now time.Time) ([]reporting.Request, error)
}

// ReportDataStores bundles the read access a report build needs. Only the
// stores a kind touches are consulted.
type ReportDataStores struct {
	Members interface {
		GetByID(ctx context.Context, id string) (member.Member, error)
		List(ctx context.Context, filter memberstore.ListFilter) ([]member.Member, error)
		ListFamily(ctx context.Context, memberID string) ([]member.FamilyMember, error)
	}
	Accounts interface {
		GetByMemberID(ctx context.Context, memberID string) (account.Account, bool, error)
	}
	Attendance interface {
		ListByMemberID(ctx context.Context, memberID string) ([]attendance.CheckIn, error)
		ListByDateRange(ctx context.Context, start, end string) ([]attendance.CheckIn, error)
	}
	Events interface {
		GetByID(ctx context.Context, id string) (event.Event, error)
		ListRegistrationsForMember(ctx context.Context, memberID string) ([]event.Registration, error)
	}
	Consents interface {
		ListByMemberID(ctx context.Context, memberID string) ([]consent.Consent, error)
	}
	Campaigns interface {
		ListResponsesForMember(ctx context.Context, memberID string) ([]campaign.Response, error)
	}
	Finance interface {
		ListPayments(ctx context.Context, filter financestore.PaymentFilter) ([]finance.Payment, error)
	}
}

// RequestReportInput carries input for creating a report request.
type RequestReportInput struct {
	Kind        string
	MemberID    string // member_data only
	RequestedBy string // account ID
	Format      string
	PeriodStart time.Time
	PeriodEnd   time.Time
	IPAddress   string
	UserAgent   string
}

// RequestReportDeps holds dependencies for RequestReport.
type RequestReportDeps struct {
	ReportStore ReportRequestStore
	Now         func() time.Time
}

// ExecuteRequestReport records a report request in pending state. Generation
// happens separately so a slow build never blocks the requester.
// PRE: Kind is a known kind; member_data requests carry the subject member
// POST: Pending request persisted
func ExecuteRequestReport(ctx context.Context, input RequestReportInput, deps RequestReportDeps) (reporting.Request, error) {
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	format := input.Format
	if input.Kind == reporting.KindMemberData {
		// Data exports are always the full JSON payload.
		format = reporting.FormatJSON
	}
	r := reporting.NewRequest(uuid.New().String(), input.Kind, input.MemberID,
		input.RequestedBy, format, now, input.IPAddress, input.UserAgent)
	r.PeriodStart = input.PeriodStart
	r.PeriodEnd = input.PeriodEnd
	if err := r.Validate(); err != nil {
		return reporting.Request{}, err
	}

	if err := deps.ReportStore.Save(ctx, *r); err != nil {
		return reporting.Request{}, err
	}
	slog.Info("report_event", "event", "report_requested", "request_id", r.ID, "kind", r.Kind)
	return *r, nil
}

// GenerateReportInput carries input for building a requested report.
type GenerateReportInput struct {
	RequestID string
}

// GenerateReportDeps holds dependencies for GenerateReport.
type GenerateReportDeps struct {
	ReportStore ReportRequestStore
	Data        ReportDataStores
	Dir         string // directory report files are written under
	Now         func() time.Time
}

// ExecuteGenerateReport builds the file for a pending request and marks it
// ready for download. The file gets a random name so its URL cannot be
// guessed.
// PRE: Request is pending
// POST: Request is ready with the file on disk, or back in pending with the
// error logged
func ExecuteGenerateReport(ctx context.Context, input GenerateReportInput, deps GenerateReportDeps) (reporting.Request, error) {
	r, err := deps.ReportStore.GetByID(ctx, input.RequestID)
	if err != nil {
		return reporting.Request{}, errors.New("report request not found")
	}
	if err := r.MarkProcessing(); err != nil {
		return reporting.Request{}, err
	}
	if err := deps.ReportStore.Save(ctx, r); err != nil {
		return reporting.Request{}, err
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	path := filepath.Join(deps.Dir, uuid.New().String()+"."+r.Format)
	size, err := buildReportFile(ctx, &r, path, now, deps.Data)
	if err != nil {
		slog.Error("report_build_failed", "request_id", r.ID, "kind", r.Kind, "error", err)
		r.Status = reporting.StatusPending
		if saveErr := deps.ReportStore.Save(ctx, r); saveErr != nil {
			return reporting.Request{}, saveErr
		}
		return reporting.Request{}, err
	}

	if err := r.MarkReady(path, size, now); err != nil {
		return reporting.Request{}, err
	}
	if err := deps.ReportStore.Save(ctx, r); err != nil {
		return reporting.Request{}, err
	}
	slog.Info("report_event", "event", "report_ready", "request_id", r.ID,
		"kind", r.Kind, "size_bytes", size)
	return r, nil
}

func buildReportFile(ctx context.Context, r *reporting.Request, path string, now time.Time, data ReportDataStores) (int64, error) {
	switch r.Kind {
	case reporting.KindAttendance:
		return buildAttendanceReport(ctx, r, path, data)
	case reporting.KindFinance:
		return buildFinanceReport(ctx, r, path, data)
	case reporting.KindMembers:
		return buildMembersReport(ctx, r, path, data)
	case reporting.KindMemberData:
		return buildMemberDataExport(ctx, r, path, now, data)
	}
	return 0, fmt.Errorf("unknown report kind: %s", r.Kind)
}

func buildAttendanceReport(ctx context.Context, r *reporting.Request, path string, data ReportDataStores) (int64, error) {
	var start, end string
	if !r.PeriodStart.IsZero() {
		start = r.PeriodStart.Format("2006-01-02")
	}
	if !r.PeriodEnd.IsZero() {
		end = r.PeriodEnd.Format("2006-01-02")
	}
	checkIns, err := data.Attendance.ListByDateRange(ctx, start, end)
	if err != nil {
		return 0, err
	}

	table := reports.Table{
		Sheet:   "Attendance",
		Headers: []string{"Member ID", "Guest", "Event ID", "Service Date", "Method", "Checked In At"},
	}
	for _, c := range checkIns {
		table.Rows = append(table.Rows, []string{
			c.MemberID, c.GuestName, c.EventID, c.ServiceDate, c.Method,
			c.CheckedInAt.Format(time.RFC3339),
		})
	}
	return reports.Write(r.Format, path, table)
}

func buildFinanceReport(ctx context.Context, r *reporting.Request, path string, data ReportDataStores) (int64, error) {
	filter := financestore.PaymentFilter{}
	if !r.PeriodStart.IsZero() {
		filter.Start = r.PeriodStart.Format(time.RFC3339)
	}
	if !r.PeriodEnd.IsZero() {
		filter.End = r.PeriodEnd.Format(time.RFC3339)
	}
	payments, err := data.Finance.ListPayments(ctx, filter)
	if err != nil {
		return 0, err
	}

	table := reports.Table{
		Sheet:   "Payments",
		Headers: []string{"Payment ID", "Member ID", "Fund", "Amount", "Currency", "Method", "Reference", "Received At"},
	}
	for _, p := range payments {
		table.Rows = append(table.Rows, []string{
			p.ID, p.MemberID, p.Fund, p.Money().Display(), p.Currency,
			p.Method, p.Reference, p.ReceivedAt.Format(time.RFC3339),
		})
	}
	return reports.Write(r.Format, path, table)
}

func buildMembersReport(ctx context.Context, r *reporting.Request, path string, data ReportDataStores) (int64, error) {
	members, err := data.Members.List(ctx, memberstore.ListFilter{})
	if err != nil {
		return 0, err
	}

	table := reports.Table{
		Sheet:   "Members",
		Headers: []string{"ID", "Name", "Email", "Phone", "Status", "Joined"},
	}
	for _, m := range members {
		table.Rows = append(table.Rows, []string{
			m.ID, m.Name, m.Email, m.Phone, m.Status, m.JoinedAt.Format("2006-01-02"),
		})
	}
	return reports.Write(r.Format, path, table)
}

// buildMemberDataExport assembles one member's full data export. Ballots are
// deliberately absent: votes are secret and never attributed to a member.
func buildMemberDataExport(ctx context.Context, r *reporting.Request, path string, now time.Time, data ReportDataStores) (int64, error) {
	m, err := data.Members.GetByID(ctx, r.MemberID)
	if err != nil {
		return 0, errors.New("member not found")
	}

	export := reporting.MemberData{
		Member: reporting.MemberRecord{
			ID: m.ID, Name: m.Name, Email: m.Email, Phone: m.Phone,
			Status: m.Status, JoinedAt: m.JoinedAt,
		},
	}

	if acct, found, err := data.Accounts.GetByMemberID(ctx, m.ID); err != nil {
		return 0, err
	} else if found {
		export.Account = &reporting.AccountRecord{
			ID: acct.ID, Email: acct.Email, Role: acct.Role,
			Status: acct.Status, CreatedAt: acct.CreatedAt,
		}
	}

	family, err := data.Members.ListFamily(ctx, m.ID)
	if err != nil {
		return 0, err
	}
	for _, f := range family {
		export.Family = append(export.Family, reporting.FamilyRecord{
			ID: f.ID, FirstName: f.FirstName, LastName: f.LastName,
			Relation: f.Relation, BirthYear: f.BirthYear,
		})
	}

	checkIns, err := data.Attendance.ListByMemberID(ctx, m.ID)
	if err != nil {
		return 0, err
	}
	for _, c := range checkIns {
		export.Attendance = append(export.Attendance, reporting.AttendanceRecord{
			ID: c.ID, EventID: c.EventID, ServiceDate: c.ServiceDate,
			Method: c.Method, CheckedInAt: c.CheckedInAt,
		})
	}

	regs, err := data.Events.ListRegistrationsForMember(ctx, m.ID)
	if err != nil {
		return 0, err
	}
	for _, reg := range regs {
		record := reporting.RegistrationRecord{
			ID: reg.ID, EventID: reg.EventID, Status: reg.Status,
			RegisteredAt: reg.RegisteredAt,
		}
		if e, err := data.Events.GetByID(ctx, reg.EventID); err == nil {
			record.EventTitle = e.Title
		}
		export.Registrations = append(export.Registrations, record)
	}

	consents, err := data.Consents.ListByMemberID(ctx, m.ID)
	if err != nil {
		return 0, err
	}
	for _, c := range consents {
		export.Consents = append(export.Consents, reporting.ConsentRecord{
			ID: c.ID, Type: string(c.Type), Granted: c.Granted,
			GrantedAt: c.GrantedAt, RevokedAt: c.RevokedAt, Version: c.Version,
		})
	}

	responses, err := data.Campaigns.ListResponsesForMember(ctx, m.ID)
	if err != nil {
		return 0, err
	}
	for _, resp := range responses {
		for key, answer := range resp.Answers {
			export.Responses = append(export.Responses, reporting.ResponseRecord{
				ID: resp.ID, CampaignID: resp.CampaignID, FieldKey: key,
				Answer: answer, ReceivedAt: resp.UpdatedAt,
			})
		}
	}

	payments, err := data.Finance.ListPayments(ctx, financestore.PaymentFilter{MemberID: m.ID})
	if err != nil {
		return 0, err
	}
	for _, p := range payments {
		export.Payments = append(export.Payments, reporting.PaymentRecord{
			ID: p.ID, Amount: p.Amount, Currency: p.Currency, Fund: p.Fund,
			Method: p.Method, ReceivedAt: p.ReceivedAt,
		})
	}

	export.ExportMetadata = reporting.Metadata{
		ExportDate: now,
		Format:     reporting.FormatJSON,
		Version:    "1",
		RecordCount: 1 + len(export.Family) + len(export.Attendance) +
			len(export.Registrations) + len(export.Consents) +
			len(export.Responses) + len(export.Payments),
	}

	raw, err := export.ToJSON()
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return 0, err
	}
	return int64(len(raw)), nil
}

// DownloadReportInput carries input for downloading a ready report.
type DownloadReportInput struct {
	RequestID   string
	RequestedBy string // account ID asking for the file
}

// DownloadReportDeps holds dependencies for DownloadReport.
type DownloadReportDeps struct {
	ReportStore ReportRequestStore
	Now         func() time.Time
}

// ExecuteDownloadReport hands out the file path for a ready report and marks
// it downloaded. Only the requester may download.
// PRE: Request is ready, unexpired, and owned by the caller
// POST: Request marked downloaded
func ExecuteDownloadReport(ctx context.Context, input DownloadReportInput, deps DownloadReportDeps) (reporting.Request, error) {
	r, err := deps.ReportStore.GetByID(ctx, input.RequestID)
	if err != nil {
		return reporting.Request{}, errors.New("report request not found")
	}
	if r.RequestedBy != input.RequestedBy {
		return reporting.Request{}, errors.New("report belongs to another account")
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	if !r.CanDownload(now) {
		return reporting.Request{}, reporting.ErrNotReady
	}
	if err := r.MarkDownloaded(now); err != nil {
		return reporting.Request{}, err
	}
	if err := deps.ReportStore.Save(ctx, r); err != nil {
		return reporting.Request{}, err
	}
	slog.Info("report_event", "event", "report_downloaded", "request_id", r.ID, "kind", r.Kind)
	return r, nil
}

// ExpireReportsDeps holds dependencies for the expiry sweeper.
type ExpireReportsDeps struct {
	ReportStore ReportRequestStore
	Now         func() time.Time
}

// ExecuteExpireReports removes files for ready reports whose download window
// has passed. Run periodically.
// PRE: none
// POST: Expired requests marked expired and their files deleted
func ExecuteExpireReports(ctx context.Context, deps ExpireReportsDeps) (int, error) {
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	expired, err := deps.ReportStore.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	var swept int
	for _, r := range expired {
		if r.FilePath != "" {
			if err := os.Remove(r.FilePath); err != nil && !os.IsNotExist(err) {
				slog.Error("report_file_remove_failed", "request_id", r.ID, "error", err)
				continue
			}
		}
		r.Status = reporting.StatusExpired
		r.FilePath = ""
		if err := deps.ReportStore.Save(ctx, r); err != nil {
			return swept, err
		}
		swept++
	}
	if swept > 0 {
		slog.Info("report_event", "event", "reports_expired", "count", swept)
	}
	return swept, nil
}
