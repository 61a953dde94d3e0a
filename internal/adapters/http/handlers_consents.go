package web

import (
	"net/http"

	"parish/internal/adapters/http/middleware"
	"parish/internal/domain/audit"
	"parish/internal/domain/consent"
)

// consentTypes are the consents the parish collects, in display order.
var consentTypes = []consent.Type{consent.TypeTerms, consent.TypePhotos, consent.TypeSMSUpdates}

// handleMemberConsents handles GET /api/members/{id}/consents and POST
// (grant or revoke). Members manage their own consents; staff anyone's.
func handleMemberConsents(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	memberID := pathPart(r, 2)

	if !middleware.IsStaffOrAdmin(r.Context()) &&
		memberIDForSession(r, sess.AccountID) != memberID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	switch r.Method {
	case "GET":
		consents, err := stores.ConsentStore.ListByMemberID(r.Context(), memberID)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, consents)

	case "POST":
		var body struct {
			Type    string `json:"type"`
			Granted bool   `json:"granted"`
			Version string `json:"version"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		var known bool
		for _, t := range consentTypes {
			if consent.Type(body.Type) == t {
				known = true
			}
		}
		if !known {
			http.Error(w, "unknown consent type", http.StatusBadRequest)
			return
		}

		c := consent.NewConsent(memberID, consent.Type(body.Type), timeNow(),
			"web", clientIP(r), r.UserAgent(), body.Version)
		if !body.Granted {
			now := timeNow()
			c.Granted = false
			c.RevokedAt = &now
		}
		if err := stores.ConsentStore.Save(r.Context(), c); err != nil {
			internalError(w, err)
			return
		}

		verb := "granted"
		if !body.Granted {
			verb = "revoked"
		}
		recordAudit(r, auditActor(sess, audit.CategoryPrivacy, audit.ActionUpdate).
			WithResource("member", memberID).
			WithDescription("consent "+body.Type+" "+verb))
		writeJSON(w, http.StatusCreated, c)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
