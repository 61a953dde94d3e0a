package web

import (
	"net/http"
	"time"

	"parish/internal/adapters/http/middleware"
	eventstore "parish/internal/adapters/storage/event"
	"parish/internal/application/orchestrators"
	"parish/internal/domain/audit"
	"parish/internal/domain/event"
)

type eventBody struct {
	Title    string `json:"title"`
	Location string `json:"location"`
	StartsAt string `json:"starts_at"` // RFC3339
	EndsAt   string `json:"ends_at"`   // RFC3339
	Capacity int    `json:"capacity"`
	Status   string `json:"status"`
}

// handleEvents handles GET /api/events (list) and POST (create).
func handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		if _, ok := requireSession(w, r); !ok {
			return
		}
		status := r.URL.Query().Get("status")
		if !middleware.IsStaffOrAdmin(ctx) && status == "" {
			// Members only see what is open to them.
			status = event.StatusPublished
		}
		events, err := stores.EventStore.List(ctx, eventstore.ListFilter{
			Status: status,
			Limit:  queryInt(r, "limit", 50, 200),
		})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)

	case "POST":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		var body eventBody
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		e, err := eventFromBody(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		e.ID = generateID()
		e.CreatedAt = timeNow()
		if e.Status == "" {
			e.Status = event.StatusDraft
		}
		if err := e.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.EventStore.Save(ctx, e); err != nil {
			internalError(w, err)
			return
		}

		recordAudit(r, auditActor(sess, audit.CategorySystem, audit.ActionCreate).
			WithResource("event", e.ID).WithDescription("event created"))
		writeJSON(w, http.StatusCreated, e)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleEventDetail handles GET /api/events/{id}, PUT (update), and DELETE.
func handleEventDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := pathPart(r, 2)

	switch r.Method {
	case "GET":
		if _, ok := requireSession(w, r); !ok {
			return
		}
		e, err := stores.EventStore.GetByID(ctx, eventID)
		if err != nil {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		registered, err := stores.EventStore.CountActiveRegistrations(ctx, eventID)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"event":      e,
			"registered": registered,
		})

	case "PUT":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		e, err := stores.EventStore.GetByID(ctx, eventID)
		if err != nil {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		var body eventBody
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		updated, err := eventFromBody(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		updated.ID = e.ID
		updated.CreatedAt = e.CreatedAt
		if updated.Status == "" {
			updated.Status = e.Status
		}
		if err := updated.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.EventStore.Save(ctx, updated); err != nil {
			internalError(w, err)
			return
		}

		recordAudit(r, auditActor(sess, audit.CategorySystem, audit.ActionUpdate).
			WithResource("event", e.ID))
		writeJSON(w, http.StatusOK, updated)

	case "DELETE":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		e, err := stores.EventStore.GetByID(ctx, eventID)
		if err != nil {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		if e.Status != event.StatusDraft {
			// Published events are cancelled, never erased, so registrations
			// keep their history.
			e.Status = event.StatusCancelled
			if err := stores.EventStore.Save(ctx, e); err != nil {
				internalError(w, err)
				return
			}
		} else if err := stores.EventStore.Delete(ctx, e.ID); err != nil {
			internalError(w, err)
			return
		}

		recordAudit(r, auditActor(sess, audit.CategorySystem, audit.ActionDelete).
			WithResource("event", e.ID))
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleEventRegister handles POST /api/events/{id}/register. Members register
// themselves; staff may pass a member_id to register on someone's behalf.
func handleEventRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var body struct {
		MemberID string `json:"member_id"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	memberID := body.MemberID
	if memberID == "" || !middleware.IsStaffOrAdmin(r.Context()) {
		memberID = memberIDForSession(r, sess.AccountID)
	}
	if memberID == "" {
		http.Error(w, "no member record linked to this account", http.StatusForbidden)
		return
	}

	reg, err := orchestrators.ExecuteRegisterForEvent(r.Context(), orchestrators.RegisterForEventInput{
		EventID:  pathPart(r, 2),
		MemberID: memberID,
	}, orchestrators.RegisterForEventDeps{
		EventStore:  stores.EventStore,
		MemberStore: stores.MemberStore,
	})
	if err == orchestrators.ErrAlreadyRegistered {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// handleEventRegistrations handles GET /api/events/{id}/registrations.
func handleEventRegistrations(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireStaff(w, r); !ok {
		return
	}

	regs, err := stores.EventStore.ListRegistrations(r.Context(), pathPart(r, 2))
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, regs)
}

// handleCancelRegistration handles POST /api/registrations/{id}/cancel. The
// registered member or staff may cancel; cancelling a held spot promotes the
// first waitlisted member.
func handleCancelRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	regID := pathPart(r, 2)

	if !middleware.IsStaffOrAdmin(r.Context()) {
		reg, err := stores.EventStore.GetRegistration(r.Context(), regID)
		if err != nil || reg.MemberID != memberIDForSession(r, sess.AccountID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	err := orchestrators.ExecuteCancelRegistration(r.Context(), orchestrators.CancelRegistrationInput{
		RegistrationID: regID,
	}, orchestrators.CancelRegistrationDeps{EventStore: stores.EventStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMarkAttended handles POST /api/registrations/{id}/attended.
func handleMarkAttended(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireStaff(w, r); !ok {
		return
	}

	err := orchestrators.ExecuteMarkAttended(r.Context(), orchestrators.MarkAttendedInput{
		RegistrationID: pathPart(r, 2),
	}, orchestrators.MarkAttendedDeps{EventStore: stores.EventStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func eventFromBody(body eventBody) (event.Event, error) {
	e := event.Event{
		Title:    body.Title,
		Location: body.Location,
		Capacity: body.Capacity,
		Status:   body.Status,
	}
	if body.StartsAt != "" {
		t, err := time.Parse(time.RFC3339, body.StartsAt)
		if err != nil {
			return event.Event{}, err
		}
		e.StartsAt = t
	}
	if body.EndsAt != "" {
		t, err := time.Parse(time.RFC3339, body.EndsAt)
		if err != nil {
			return event.Event{}, err
		}
		e.EndsAt = t
	}
	return e, nil
}
