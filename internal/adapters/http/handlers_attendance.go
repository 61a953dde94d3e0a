package web

import (
	"net/http"
	"strings"

	"parish/internal/application/orchestrators"
	"parish/internal/application/projections"
	"parish/internal/domain/attendance"
	"parish/internal/domain/audit"
)

// handleCheckIn handles POST /api/checkins: a member or guest check-in for a
// service or event.
func handleCheckIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireStaff(w, r); !ok {
		return
	}

	var input orchestrators.CheckInInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}
		input.MemberID = r.FormValue("member_id")
		input.GuestName = r.FormValue("guest_name")
		input.EventID = r.FormValue("event_id")
		input.ServiceDate = r.FormValue("service_date")
		input.Method = r.FormValue("method")
	} else if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if input.Method == "" {
		input.Method = attendance.MethodManual
	}

	checkIn, err := orchestrators.ExecuteCheckIn(r.Context(), input, orchestrators.CheckInDeps{
		AttendanceStore: stores.AttendanceStore,
		MemberStore:     stores.MemberStore,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, checkIn)
}

// handleUndoCheckIn handles POST /api/checkins/{id}/undo.
func handleUndoCheckIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireStaff(w, r); !ok {
		return
	}

	err := orchestrators.ExecuteUndoCheckIn(r.Context(), orchestrators.UndoCheckInInput{
		CheckInID: pathPart(r, 2),
	}, orchestrators.UndoCheckInDeps{AttendanceStore: stores.AttendanceStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAttendanceToday handles GET /api/attendance/today.
func handleAttendanceToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireStaff(w, r); !ok {
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = timeNow().Format("2006-01-02")
	}
	checkIns, err := stores.AttendanceStore.ListByServiceDate(r.Context(), date)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service_date": date,
		"check_ins":    checkIns,
		"count":        len(checkIns),
	})
}

// handleAttendanceSummary handles GET /api/attendance/summary?start=&end=.
func handleAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireStaff(w, r); !ok {
		return
	}

	result, err := projections.QueryGetAttendanceSummary(r.Context(), projections.GetAttendanceSummaryQuery{
		Start: r.URL.Query().Get("start"),
		End:   r.URL.Query().Get("end"),
	}, projections.GetAttendanceSummaryDeps{AttendanceStore: stores.AttendanceStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleKioskLaunch handles POST /api/kiosk/launch. The foyer tablet goes
// into kiosk mode under the signed-in staff account.
func handleKioskLaunch(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	var body struct {
		EventID     string `json:"event_id"`
		ServiceDate string `json:"service_date"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	session, err := orchestrators.ExecuteLaunchKiosk(r.Context(), orchestrators.LaunchKioskInput{
		AccountID:   sess.AccountID,
		EventID:     body.EventID,
		ServiceDate: body.ServiceDate,
	}, orchestrators.LaunchKioskDeps{
		AccountStore: stores.AccountStore,
		SessionStore: stores.KioskStore,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategoryAttendance, audit.ActionCreate).
		WithResource("kiosk_session", session.ID).WithDescription("kiosk launched"))
	writeJSON(w, http.StatusCreated, session)
}

// handleKioskExit handles POST /api/kiosk/exit. Leaving kiosk mode requires
// the operator's password so an attendee cannot reach the full app.
func handleKioskExit(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	err := orchestrators.ExecuteExitKiosk(r.Context(), orchestrators.ExitKioskInput{
		AccountID: sess.AccountID,
		Password:  body.Password,
	}, orchestrators.ExitKioskDeps{
		AccountStore: stores.AccountStore,
		SessionStore: stores.KioskStore,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleKioskCheckIn handles POST /api/kiosk/checkin: self check-in from the
// foyer tablet while a kiosk session is live for the operator account.
func handleKioskCheckIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	if _, live, err := stores.KioskStore.FindActiveByAccount(r.Context(), sess.AccountID); err != nil {
		internalError(w, err)
		return
	} else if !live {
		http.Error(w, "kiosk mode is not active", http.StatusForbidden)
		return
	}

	var body struct {
		MemberID    string `json:"member_id"`
		GuestName   string `json:"guest_name"`
		EventID     string `json:"event_id"`
		ServiceDate string `json:"service_date"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	checkIn, err := orchestrators.ExecuteCheckIn(r.Context(), orchestrators.CheckInInput{
		MemberID:    body.MemberID,
		GuestName:   body.GuestName,
		EventID:     body.EventID,
		ServiceDate: body.ServiceDate,
		Method:      attendance.MethodKiosk,
	}, orchestrators.CheckInDeps{
		AttendanceStore: stores.AttendanceStore,
		MemberStore:     stores.MemberStore,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, checkIn)
}
