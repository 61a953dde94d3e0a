package web

import (
	"errors"
	"net/http"
	"time"

	ministrystore "parish/internal/adapters/storage/ministry"
	"parish/internal/application/orchestrators"
	"parish/internal/domain/audit"
	"parish/internal/domain/ministry"
)

// handleMinistries handles GET /api/ministries (list) and POST (create).
func handleMinistries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		if _, ok := requireSession(w, r); !ok {
			return
		}
		ministries, err := stores.MinistryStore.List(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ministries)

	case "POST":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		var body struct {
			Name        string   `json:"name"`
			Description string   `json:"description"`
			Leader      string   `json:"leader"`
			Roles       []string `json:"roles"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		m := ministry.Ministry{
			ID:          generateID(),
			Name:        body.Name,
			Description: body.Description,
			Leader:      body.Leader,
			Roles:       body.Roles,
			CreatedAt:   timeNow(),
		}
		if err := m.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.MinistryStore.Save(ctx, m); err != nil {
			internalError(w, err)
			return
		}

		recordAudit(r, auditActor(sess, audit.CategorySystem, audit.ActionCreate).
			WithResource("ministry", m.ID).WithDescription("ministry created"))
		writeJSON(w, http.StatusCreated, m)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleMinistryDetail handles GET /api/ministries/{id}, PUT, and DELETE.
func handleMinistryDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ministryID := pathPart(r, 2)

	switch r.Method {
	case "GET":
		if _, ok := requireSession(w, r); !ok {
			return
		}
		m, err := stores.MinistryStore.GetByID(ctx, ministryID)
		if err != nil {
			http.Error(w, "ministry not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, m)

	case "PUT":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		m, err := stores.MinistryStore.GetByID(ctx, ministryID)
		if err != nil {
			http.Error(w, "ministry not found", http.StatusNotFound)
			return
		}
		var body struct {
			Name        string   `json:"name"`
			Description string   `json:"description"`
			Leader      string   `json:"leader"`
			Roles       []string `json:"roles"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if body.Name != "" {
			m.Name = body.Name
		}
		m.Description = body.Description
		m.Leader = body.Leader
		if body.Roles != nil {
			m.Roles = body.Roles
		}
		if err := m.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.MinistryStore.Save(ctx, m); err != nil {
			internalError(w, err)
			return
		}

		recordAudit(r, auditActor(sess, audit.CategorySystem, audit.ActionUpdate).
			WithResource("ministry", m.ID))
		writeJSON(w, http.StatusOK, m)

	case "DELETE":
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}
		assignments, err := stores.MinistryStore.ListAssignments(ctx, ministrystore.AssignmentFilter{
			MinistryID: ministryID,
		})
		if err != nil {
			internalError(w, err)
			return
		}
		if len(assignments) > 0 {
			http.Error(w, "ministry still has assignments", http.StatusConflict)
			return
		}
		if err := stores.MinistryStore.Delete(ctx, ministryID); err != nil {
			internalError(w, err)
			return
		}

		recordAudit(r, auditActor(sess, audit.CategorySystem, audit.ActionDelete).
			WithResource("ministry", ministryID))
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAssignments handles GET /api/assignments (list) and POST (create).
func handleAssignments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		if _, ok := requireStaff(w, r); !ok {
			return
		}
		assignments, err := stores.MinistryStore.ListAssignments(ctx, ministrystore.AssignmentFilter{
			MinistryID: r.URL.Query().Get("ministry_id"),
			EventID:    r.URL.Query().Get("event_id"),
			Role:       r.URL.Query().Get("role"),
		})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, assignments)

	case "POST":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		var body struct {
			AssigneeKind string `json:"assignee_kind"`
			AssigneeID   string `json:"assignee_id"`
			MinistryID   string `json:"ministry_id"`
			EventID      string `json:"event_id"`
			Role         string `json:"role"`
			StartsAt     string `json:"starts_at"` // RFC3339, optional
			EndsAt       string `json:"ends_at"`   // RFC3339, optional
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		var startsAt, endsAt time.Time
		if body.StartsAt != "" {
			var err error
			startsAt, err = time.Parse(time.RFC3339, body.StartsAt)
			if err != nil {
				http.Error(w, "starts_at must be RFC3339", http.StatusBadRequest)
				return
			}
		}
		if body.EndsAt != "" {
			var err error
			endsAt, err = time.Parse(time.RFC3339, body.EndsAt)
			if err != nil {
				http.Error(w, "ends_at must be RFC3339", http.StatusBadRequest)
				return
			}
		}

		a, err := orchestrators.ExecuteAssignVolunteer(ctx, orchestrators.AssignVolunteerInput{
			AssigneeKind: body.AssigneeKind,
			AssigneeID:   body.AssigneeID,
			MinistryID:   body.MinistryID,
			EventID:      body.EventID,
			Role:         body.Role,
			StartsAt:     startsAt,
			EndsAt:       endsAt,
		}, orchestrators.AssignVolunteerDeps{
			MinistryStore: stores.MinistryStore,
			EventStore:    stores.EventStore,
		})
		var conflict *orchestrators.ConflictError
		if errors.As(err, &conflict) {
			http.Error(w, conflict.Error(), http.StatusConflict)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		recordAudit(r, auditActor(sess, audit.CategorySystem, audit.ActionCreate).
			WithResource("assignment", a.ID))
		writeJSON(w, http.StatusCreated, a)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleRemoveAssignment handles DELETE /api/assignments/{id}.
func handleRemoveAssignment(w http.ResponseWriter, r *http.Request) {
	if r.Method != "DELETE" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	assignmentID := pathPart(r, 2)

	err := orchestrators.ExecuteRemoveAssignment(r.Context(), orchestrators.RemoveAssignmentInput{
		AssignmentID: assignmentID,
	}, orchestrators.RemoveAssignmentDeps{MinistryStore: stores.MinistryStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategorySystem, audit.ActionDelete).
		WithResource("assignment", assignmentID))
	w.WriteHeader(http.StatusNoContent)
}
