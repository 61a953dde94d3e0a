package web

import (
	"net/http"
	"path/filepath"
	"time"

	"parish/internal/adapters/http/middleware"
	"parish/internal/application/orchestrators"
	"parish/internal/domain/audit"
	"parish/internal/domain/reporting"
)

// reportData bundles the store access a report build reads from.
func reportData() orchestrators.ReportDataStores {
	return orchestrators.ReportDataStores{
		Members:    stores.MemberStore,
		Accounts:   stores.AccountStore,
		Attendance: stores.AttendanceStore,
		Events:     stores.EventStore,
		Consents:   stores.ConsentStore,
		Campaigns:  stores.CampaignStore,
		Finance:    stores.FinanceStore,
	}
}

// handleReports handles GET /api/reports (the caller's requests) and POST
// (request a new report).
func handleReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		requests, err := stores.ReportStore.ListByRequester(ctx, sess.AccountID)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, requests)

	case "POST":
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		var body struct {
			Kind        string `json:"kind"`
			MemberID    string `json:"member_id"`
			Format      string `json:"format"`
			PeriodStart string `json:"period_start"` // RFC3339
			PeriodEnd   string `json:"period_end"`   // RFC3339
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		switch body.Kind {
		case reporting.KindMemberData:
			// Members may export their own data; staff anyone's.
			own := memberIDForSession(r, sess.AccountID)
			if body.MemberID == "" {
				body.MemberID = own
			}
			if body.MemberID != own && !middleware.IsStaffOrAdmin(ctx) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		default:
			if !middleware.IsStaffOrAdmin(ctx) {
				http.Error(w, "staff access required", http.StatusForbidden)
				return
			}
		}

		var periodStart, periodEnd time.Time
		if body.PeriodStart != "" {
			var err error
			if periodStart, err = time.Parse(time.RFC3339, body.PeriodStart); err != nil {
				http.Error(w, "period_start must be RFC3339", http.StatusBadRequest)
				return
			}
		}
		if body.PeriodEnd != "" {
			var err error
			if periodEnd, err = time.Parse(time.RFC3339, body.PeriodEnd); err != nil {
				http.Error(w, "period_end must be RFC3339", http.StatusBadRequest)
				return
			}
		}

		req, err := orchestrators.ExecuteRequestReport(ctx, orchestrators.RequestReportInput{
			Kind:        body.Kind,
			MemberID:    body.MemberID,
			RequestedBy: sess.AccountID,
			Format:      body.Format,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			IPAddress:   clientIP(r),
			UserAgent:   r.UserAgent(),
		}, orchestrators.RequestReportDeps{ReportStore: stores.ReportStore})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		category := audit.CategorySystem
		if body.Kind == reporting.KindMemberData {
			category = audit.CategoryPrivacy
		}
		recordAudit(r, auditActor(sess, category, audit.ActionExport).
			WithResource("report", req.ID).WithDescription("report requested: "+req.Kind))
		writeJSON(w, http.StatusCreated, req)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleGenerateReport handles POST /api/reports/{id}/generate: builds the
// file for a pending request inline. Deployments with a worker let the outbox
// loop call the same orchestrator instead.
func handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	requestID := pathPart(r, 2)

	req, err := stores.ReportStore.GetByID(r.Context(), requestID)
	if err != nil {
		http.Error(w, "report request not found", http.StatusNotFound)
		return
	}
	if req.RequestedBy != sess.AccountID && !middleware.IsStaffOrAdmin(r.Context()) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	req, err = orchestrators.ExecuteGenerateReport(r.Context(), orchestrators.GenerateReportInput{
		RequestID: requestID,
	}, orchestrators.GenerateReportDeps{
		ReportStore: stores.ReportStore,
		Data:        reportData(),
		Dir:         ReportsDir,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// handleDownloadReport handles GET /api/reports/{id}/download. Only the
// requester gets the file, and only while the request is ready.
func handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	requestID := pathPart(r, 2)

	req, err := orchestrators.ExecuteDownloadReport(r.Context(), orchestrators.DownloadReportInput{
		RequestID:   requestID,
		RequestedBy: sess.AccountID,
	}, orchestrators.DownloadReportDeps{ReportStore: stores.ReportStore})
	if err == reporting.ErrNotReady {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategoryPrivacy, audit.ActionDownload).
		WithResource("report", req.ID))

	contentType := "application/octet-stream"
	if req.Format == reporting.FormatJSON {
		contentType = "application/json"
	} else if req.Format == reporting.FormatCSV {
		contentType = "text/csv"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+filepath.Base(req.FilePath)+`"`)
	http.ServeFile(w, r, req.FilePath)
}
