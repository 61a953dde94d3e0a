package web

import (
	"net/http"

	"parish/internal/application/projections"
)

// handleDashboard handles GET /api/dashboard: the landing-page summary for
// the caller's role.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	result, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardQuery{
		Role: sess.Role,
	}, projections.GetDashboardDeps{
		MemberStore:     stores.MemberStore,
		AttendanceStore: stores.AttendanceStore,
		EventStore:      stores.EventStore,
		VoteStore:       stores.VoteStore,
		NoticeStore:     stores.NoticeStore,
		OutboxStore:     stores.OutboxStore,
		Now:             timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
