package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	wizarddraftstore "parish/internal/adapters/storage/wizarddraft"
	"parish/internal/application/orchestrators"
	"parish/internal/wizard"
)

// termsVersion is the terms-of-use version recorded on onboarding consents.
var termsVersion = "2026-01"

// liveWizard is one in-flight wizard session tied to the account that
// started it. mu serializes access to the session, which is not safe for
// concurrent use; lastTouched drives idle eviction.
type liveWizard struct {
	mu          sync.Mutex
	session     *wizard.Session
	kind        string
	accountID   string
	recordID    string
	draftID     string // persisted draft row, created lazily
	lastTouched time.Time
}

var (
	wizardMu      sync.Mutex
	liveWizards   = map[string]*liveWizard{}
	wizardMaxIdle = 2 * time.Hour
)

// campaignReferenceLoader adapts the campaign builder's reference data to the
// wizard's loader interface.
type campaignReferenceLoader struct{}

func (campaignReferenceLoader) LoadReference(ctx context.Context, kind string) ([]map[string]any, error) {
	ref := orchestrators.LoadCampaignReference(ctx, stores.MemberStore)
	switch kind {
	case "members":
		records := make([]map[string]any, 0, len(ref.Members))
		for _, m := range ref.Members {
			records = append(records, map[string]any{
				"id":    m.ID,
				"name":  m.Name,
				"phone": m.Phone,
			})
		}
		return records, nil
	case "field_kinds":
		records := make([]map[string]any, 0, len(ref.Kinds))
		for _, k := range ref.Kinds {
			records = append(records, map[string]any{"kind": k})
		}
		return records, nil
	}
	return nil, nil
}

// wizardConfig builds the session config for one wizard kind.
func wizardConfig(r *http.Request, accountID, kind, recordID string) (wizard.Config, bool) {
	switch kind {
	case "onboarding":
		return wizard.Config{
			Definition: orchestrators.OnboardingDefinition(),
			Submitter: &orchestrators.OnboardingSubmitter{
				Members:   stores.MemberStore,
				Consents:  stores.ConsentStore,
				Source:    "onboarding_web",
				IPAddress: clientIP(r),
				UserAgent: r.UserAgent(),
				Version:   termsVersion,
				Now:       timeNow,
			},
			ToPayload: orchestrators.OnboardingPayload,
		}, true

	case "vote":
		submitter := &orchestrators.VoteSubmitter{
			Votes:     stores.VoteStore,
			CreatedBy: accountID,
			EditID:    recordID,
			Now:       timeNow,
		}
		return wizard.Config{
			Definition: orchestrators.VoteDefinition(wizard.SystemClock),
			Submitter:  submitter,
			ToPayload:  orchestrators.VotePayload,
			Records:    submitter,
			RecordID:   recordID,
		}, true

	case "campaign":
		submitter := &orchestrators.CampaignSubmitter{
			Campaigns: stores.CampaignStore,
			CreatedBy: accountID,
			EditID:    recordID,
			Now:       timeNow,
		}
		return wizard.Config{
			Definition:     orchestrators.CampaignDefinition(),
			Submitter:      submitter,
			ToPayload:      orchestrators.CampaignPayload,
			Records:        submitter,
			RecordID:       recordID,
			Reference:      campaignReferenceLoader{},
			ReferenceKinds: []string{"members", "field_kinds"},
		}, true
	}
	return wizard.Config{}, false
}

// wizardView is the session state returned after every wizard call. Callers
// hold lw.mu.
func wizardView(id string, lw *liveWizard) map[string]any {
	s := lw.session
	step := s.Step()
	pos, total := s.Position()
	// A succeeded session has discarded its draft.
	fields := map[string]any{}
	if d := s.Draft(); d != nil {
		fields = d.Fields()
	}
	view := map[string]any{
		"session_id": id,
		"kind":       lw.kind,
		"state":      string(s.State()),
		"step": map[string]any{
			"id":       string(step.ID),
			"title":    step.Title,
			"optional": step.Optional,
			"fields":   step.Fields,
		},
		"position":    pos,
		"total":       total,
		"fields":      fields,
		"has_changes": s.HasChanges(),
	}
	if msg := s.Err(); msg != "" {
		view["error"] = msg
	}
	if s.State() == wizard.StateSucceeded {
		view["result_id"] = s.Result().ID
	}
	return view
}

// findLiveWizard returns the caller's session or writes the failure.
func findLiveWizard(w http.ResponseWriter, r *http.Request, accountID string) (string, *liveWizard, bool) {
	id := pathPart(r, 3)
	wizardMu.Lock()
	lw, ok := liveWizards[id]
	wizardMu.Unlock()
	if !ok || lw.accountID != accountID {
		http.Error(w, "wizard session not found", http.StatusNotFound)
		return "", nil, false
	}
	return id, lw, true
}

// persistWizardDraft saves the session's fields so an interrupted wizard can
// be resumed later.
func persistWizardDraft(ctx context.Context, id string, lw *liveWizard) {
	rec := wizarddraftstore.Record{
		ID:        lw.draftID,
		Kind:      lw.kind,
		AccountID: lw.accountID,
		RecordID:  lw.recordID,
		Step:      string(lw.session.Step().ID),
		Fields:    lw.session.Draft().Fields(),
		UpdatedAt: timeNow(),
	}
	if rec.ID == "" {
		rec.ID = generateID()
		rec.CreatedAt = rec.UpdatedAt
		lw.draftID = rec.ID
	}
	if err := stores.WizardDraftStore.Save(ctx, rec); err == nil {
		return
	}
	// A failed draft write loses resumability, not the live session.
}

// handleWizardStart handles POST /api/wizards/{kind}: starts a session, or
// resumes the caller's saved draft of that kind.
func handleWizardStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	kind := pathPart(r, 2)

	var body struct {
		RecordID string `json:"record_id"`
		Resume   bool   `json:"resume"`
	}
	if r.ContentLength > 0 {
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
	}

	cfg, known := wizardConfig(r, sess.AccountID, kind, body.RecordID)
	if !known {
		http.Error(w, "unknown wizard kind", http.StatusNotFound)
		return
	}

	session, err := wizard.StartSession(r.Context(), cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lw := &liveWizard{
		session:     session,
		kind:        kind,
		accountID:   sess.AccountID,
		recordID:    body.RecordID,
		lastTouched: timeNow(),
	}

	if body.Resume && body.RecordID == "" {
		rec, found, err := stores.WizardDraftStore.FindByOwner(r.Context(), sess.AccountID, kind)
		if err != nil {
			internalError(w, err)
			return
		}
		if found {
			if err := session.Update(rec.Fields); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			lw.draftID = rec.ID
			// Walk forward to the step the draft was saved on. The walk
			// stops early if the restored fields no longer validate; the
			// bound covers re-enterable branch cycles.
			for i := 0; i < 2*len(cfg.Definition.Steps); i++ {
				if string(session.Step().ID) == rec.Step || session.Advance() != nil {
					break
				}
			}
		}
	}

	id := generateID()
	wizardMu.Lock()
	for sid, other := range liveWizards {
		if timeNow().Sub(other.lastTouched) > wizardMaxIdle {
			delete(liveWizards, sid)
		}
	}
	liveWizards[id] = lw
	wizardMu.Unlock()

	lw.mu.Lock()
	defer lw.mu.Unlock()
	writeJSON(w, http.StatusCreated, wizardView(id, lw))
}

// handleWizardSession handles GET /api/wizards/sessions/{id} and DELETE
// (discard, removing any saved draft).
func handleWizardSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	id, lw, ok := findLiveWizard(w, r, sess.AccountID)
	if !ok {
		return
	}
	lw.mu.Lock()
	defer lw.mu.Unlock()

	switch r.Method {
	case "GET":
		lw.lastTouched = timeNow()
		writeJSON(w, http.StatusOK, wizardView(id, lw))

	case "DELETE":
		if lw.draftID != "" {
			if err := stores.WizardDraftStore.Delete(r.Context(), lw.draftID); err != nil {
				internalError(w, err)
				return
			}
		}
		wizardMu.Lock()
		delete(liveWizards, id)
		wizardMu.Unlock()
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleWizardStep handles POST /api/wizards/sessions/{id}/{action} where
// action is update, advance, retreat, skip, or submit.
func handleWizardStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	id, lw, ok := findLiveWizard(w, r, sess.AccountID)
	if !ok {
		return
	}
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.lastTouched = timeNow()

	var err error
	switch pathPart(r, 4) {
	case "update":
		var body struct {
			Fields map[string]any `json:"fields"`
		}
		if decErr := strictDecode(r, &body); decErr != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err = lw.session.Update(body.Fields); err == nil {
			persistWizardDraft(r.Context(), id, lw)
		}

	case "advance":
		if err = lw.session.Advance(); err == nil {
			persistWizardDraft(r.Context(), id, lw)
		}

	case "retreat":
		err = lw.session.Retreat()

	case "skip":
		if err = lw.session.Skip(); err == nil {
			persistWizardDraft(r.Context(), id, lw)
		}

	case "submit":
		err = lw.session.Submit(r.Context())
		if err == nil && lw.session.State() == wizard.StateSucceeded && lw.draftID != "" {
			if delErr := stores.WizardDraftStore.Delete(r.Context(), lw.draftID); delErr == nil {
				lw.draftID = ""
			}
		}

	default:
		http.Error(w, "unknown wizard action", http.StatusNotFound)
		return
	}

	if err != nil {
		// Validation and submission rejections live on the session; the
		// view carries the message alongside the step to return to.
		writeJSON(w, http.StatusUnprocessableEntity, wizardView(id, lw))
		return
	}
	writeJSON(w, http.StatusOK, wizardView(id, lw))
}
