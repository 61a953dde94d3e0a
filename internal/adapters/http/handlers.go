package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"parish/internal/adapters/http/middleware"
	"parish/internal/domain/audit"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// renderMarkdown converts markdown to sanitised HTML.
func renderMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// pathPart returns the nth segment of the URL path, or "".
func pathPart(r *http.Request, n int) string {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if n < 0 || n >= len(parts) {
		return ""
	}
	return parts[n]
}

// queryInt parses an integer query parameter with a default and upper bound.
func queryInt(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requireSession returns the session or writes a 401.
func requireSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireStaff returns the session if the caller is staff or admin, else
// writes the failure response.
func requireStaff(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return middleware.Session{}, false
	}
	if !middleware.IsStaffOrAdmin(r.Context()) {
		http.Error(w, "staff access required", http.StatusForbidden)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireAdmin returns the session if the caller is an admin, else writes the
// failure response.
func requireAdmin(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return middleware.Session{}, false
	}
	if !middleware.IsAdmin(r.Context()) {
		http.Error(w, "admin access required", http.StatusForbidden)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireFeatureAPI gates an endpoint on a feature flag for the caller's role.
// Unknown flags fail open so a missing seed row never takes a feature down.
func requireFeatureAPI(w http.ResponseWriter, r *http.Request, sess middleware.Session, key string) bool {
	flag, err := stores.FeatureFlagStore.GetByKey(r.Context(), key)
	if err != nil {
		return true
	}
	if !flag.EnabledForRole(sess.Role, BetaTesters[sess.Email]) {
		http.Error(w, "feature not available", http.StatusForbidden)
		return false
	}
	return true
}

// recordAudit persists an audit event, logging rather than failing the
// request when the write does not land.
func recordAudit(r *http.Request, event audit.Event) {
	event = event.WithRequest(clientIP(r), r.UserAgent())
	if err := stores.AuditStore.Save(r.Context(), event); err != nil {
		slog.Error("audit_write_failed", "action", string(event.Action), "error", err)
	}
}

// auditActor builds the base audit event for the session's identity.
func auditActor(sess middleware.Session, category audit.Category, action audit.Action) audit.Event {
	return audit.NewEvent(sess.AccountID, sess.Email, sess.Role, category, action)
}
