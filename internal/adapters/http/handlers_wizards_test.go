package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"parish/internal/domain/vote"
)

// startVoteWizard opens a vote wizard session and returns its id.
func startVoteWizard(t *testing.T, srv *httptest.Server, cookie *http.Cookie, body any) string {
	t.Helper()
	status, view := doJSON(t, srv, "POST", "/api/wizards/vote", body, cookie)
	if status != http.StatusCreated {
		t.Fatalf("start wizard status = %d", status)
	}
	id, _ := view["session_id"].(string)
	if id == "" {
		t.Fatal("start response missing session_id")
	}
	return id
}

// TestVoteWizardSubmitSucceeds walks the vote wizard over HTTP from start to
// a successful submit, then reads the succeeded session back.
func TestVoteWizardSubmitSucceeds(t *testing.T) {
	srv, s := newTestServer(t)
	cookie := signIn(t, s, "acc-wiz", "wiz@parish.local", "staff", "")
	id := startVoteWizard(t, srv, cookie, nil)
	base := "/api/wizards/sessions/" + id

	steps := []map[string]any{
		{"title": "AGM date", "description": "Pick the Saturday"},
		{"options": []string{"June 6", "June 13"}},
		{
			"start_at": time.Now().Add(time.Hour).Format(time.RFC3339),
			"end_at":   time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		},
	}
	for _, fields := range steps {
		if status, _ := doJSON(t, srv, "POST", base+"/update", map[string]any{"fields": fields}, cookie); status != http.StatusOK {
			t.Fatalf("update status = %d", status)
		}
		if status, view := doJSON(t, srv, "POST", base+"/advance", nil, cookie); status != http.StatusOK {
			t.Fatalf("advance status = %d: %v", status, view["error"])
		}
	}

	status, view := doJSON(t, srv, "POST", base+"/submit", nil, cookie)
	if status != http.StatusOK {
		t.Fatalf("submit status = %d: %v", status, view["error"])
	}
	if view["state"] != "succeeded" {
		t.Errorf("state = %v, want succeeded", view["state"])
	}
	if rid, _ := view["result_id"].(string); rid == "" {
		t.Error("submit response missing result_id")
	}
	if _, ok := view["fields"].(map[string]any); !ok {
		t.Errorf("fields = %T, want object", view["fields"])
	}

	// The succeeded session stays readable until discarded.
	status, view = doJSON(t, srv, "GET", base, nil, cookie)
	if status != http.StatusOK {
		t.Fatalf("get after submit status = %d", status)
	}
	if view["state"] != "succeeded" {
		t.Errorf("state after submit = %v, want succeeded", view["state"])
	}
}

// TestVoteWizardEditReportsChanges tests the unsaved-changes flag on an
// edit-mode session: false on load, true after a mutation.
func TestVoteWizardEditReportsChanges(t *testing.T) {
	srv, s := newTestServer(t)
	cookie := signIn(t, s, "acc-wiz2", "wiz2@parish.local", "staff", "")

	err := s.VoteStore.Save(context.Background(), vote.Vote{
		ID: "v-edit", Title: "Roof fund", Options: []string{"Yes", "No"},
		StartAt: time.Now().Add(time.Hour), EndAt: time.Now().Add(48 * time.Hour),
		Status: vote.StatusScheduled, CreatedBy: "acc-wiz2", CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	id := startVoteWizard(t, srv, cookie, map[string]any{"record_id": "v-edit"})
	base := "/api/wizards/sessions/" + id

	_, view := doJSON(t, srv, "GET", base, nil, cookie)
	if view["has_changes"] != false {
		t.Errorf("has_changes on load = %v, want false", view["has_changes"])
	}

	status, view := doJSON(t, srv, "POST", base+"/update",
		map[string]any{"fields": map[string]any{"title": "Roof fund appeal"}}, cookie)
	if status != http.StatusOK {
		t.Fatalf("update status = %d", status)
	}
	if view["has_changes"] != true {
		t.Errorf("has_changes after edit = %v, want true", view["has_changes"])
	}
}

// TestWizardConcurrentUpdates hammers one session from several goroutines.
// All requests must complete; the session serializes them.
func TestWizardConcurrentUpdates(t *testing.T) {
	srv, s := newTestServer(t)
	cookie := signIn(t, s, "acc-wiz3", "wiz3@parish.local", "staff", "")
	id := startVoteWizard(t, srv, cookie, nil)
	base := "/api/wizards/sessions/" + id

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := http.NewRequest("POST", srv.URL+base+"/update",
				strings.NewReader(`{"fields":{"title":"draft"}}`))
			if err != nil {
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.AddCookie(cookie)
			if resp, err := http.DefaultClient.Do(req); err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	status, view := doJSON(t, srv, "GET", base, nil, cookie)
	if status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	if got, _ := view["fields"].(map[string]any); got["title"] != "draft" {
		t.Errorf("title = %v, want draft", got["title"])
	}
}

// TestWizardIdleEviction tests that eviction follows activity, not session
// age: a touched session survives the sweep, an idle one does not.
func TestWizardIdleEviction(t *testing.T) {
	srv, s := newTestServer(t)
	cookie := signIn(t, s, "acc-wiz4", "wiz4@parish.local", "staff", "")
	id := startVoteWizard(t, srv, cookie, nil)
	base := "/api/wizards/sessions/" + id

	backdate := func() {
		wizardMu.Lock()
		liveWizards[id].lastTouched = time.Now().Add(-3 * time.Hour)
		wizardMu.Unlock()
	}

	// Activity refreshes the idle clock, so the next start's sweep keeps it.
	backdate()
	if status, _ := doJSON(t, srv, "POST", base+"/update",
		map[string]any{"fields": map[string]any{"title": "still here"}}, cookie); status != http.StatusOK {
		t.Fatalf("update status = %d", status)
	}
	startVoteWizard(t, srv, cookie, nil)
	if status, _ := doJSON(t, srv, "GET", base, nil, cookie); status != http.StatusOK {
		t.Fatalf("active session evicted, get status = %d", status)
	}

	// Left idle past the limit, the same sweep drops it.
	backdate()
	startVoteWizard(t, srv, cookie, nil)
	if status, _ := doJSON(t, srv, "GET", base, nil, cookie); status != http.StatusNotFound {
		t.Fatalf("idle session still reachable, get status = %d", status)
	}
}
