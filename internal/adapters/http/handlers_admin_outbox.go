package web

import (
	"net/http"

	"parish/internal/application/orchestrators"
	"parish/internal/domain/audit"
)

// handleAdminOutbox handles GET /api/admin/outbox: queue counts plus the
// entries in one status.
func handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	ctx := r.Context()

	counts, err := stores.OutboxStore.CountByStatus(ctx)
	if err != nil {
		internalError(w, err)
		return
	}

	limit := queryInt(r, "limit", 50, 200)
	status := r.URL.Query().Get("status")
	actionType := r.URL.Query().Get("action_type")

	var entries any
	switch {
	case actionType != "":
		entries, err = stores.OutboxStore.ListByActionType(ctx, actionType, status, limit)
	case status == "failed":
		entries, err = stores.OutboxStore.ListFailed(ctx, limit)
	default:
		entries, err = stores.OutboxStore.ListPending(ctx, limit)
	}
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"counts":  counts,
		"entries": entries,
	})
}

// handleOutboxRetry handles POST /api/admin/outbox/{id}/retry: one immediate
// delivery attempt for a stuck entry. The executors registered on the shared
// processor decide how each action type goes out.
func handleOutboxRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	entryID := pathPart(r, 3)

	if outboxProcessor == nil {
		http.Error(w, "no delivery processor configured", http.StatusServiceUnavailable)
		return
	}
	if err := outboxProcessor.ProcessSingle(r.Context(), entryID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategorySystem, audit.ActionUpdate).
		WithResource("outbox_entry", entryID).WithDescription("manual retry"))
	w.WriteHeader(http.StatusNoContent)
}

// handleOutboxAbandon handles POST /api/admin/outbox/{id}/abandon: gives up on
// an entry for good.
func handleOutboxAbandon(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	entryID := pathPart(r, 3)

	processor := outboxProcessor
	if processor == nil {
		processor = orchestrators.NewOutboxProcessor(stores.OutboxStore, nil)
	}
	if err := processor.AbandonEntry(r.Context(), entryID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategorySystem, audit.ActionUpdate).
		WithResource("outbox_entry", entryID).WithDescription("entry abandoned").
		WithSeverity(audit.SeverityWarning))
	w.WriteHeader(http.StatusNoContent)
}

// outboxProcessor is set at startup once delivery executors exist.
var outboxProcessor *orchestrators.OutboxProcessor

// SetOutboxProcessor wires the shared delivery processor used by the manual
// retry endpoint.
func SetOutboxProcessor(p *orchestrators.OutboxProcessor) {
	outboxProcessor = p
}
