package web

import (
	"net/http"
	"time"
)

// handleAdminPerf handles GET /api/admin/perf: request and query timings over
// the last window.
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	minutes := queryInt(r, "minutes", 15, 24*60)
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, queryInt(r, "top", 10, 100)))
}
