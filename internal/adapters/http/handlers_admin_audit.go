package web

import (
	"net/http"

	auditstore "parish/internal/adapters/storage/audit"
)

// handleAdminAudit handles GET /api/admin/audit: the audit trail, newest
// first, with optional filters.
func handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	q := r.URL.Query()
	events, err := stores.AuditStore.List(r.Context(), auditstore.Filter{
		Category:   q.Get("category"),
		Action:     q.Get("action"),
		Severity:   q.Get("severity"),
		ActorID:    q.Get("actor_id"),
		ResourceID: q.Get("resource_id"),
		FromDate:   q.Get("from"),
		ToDate:     q.Get("to"),
	}, queryInt(r, "limit", 100, 500))
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}
