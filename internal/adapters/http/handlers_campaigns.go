package web

import (
	"net/http"
	"strings"

	campaignstore "parish/internal/adapters/storage/campaign"
	"parish/internal/application/orchestrators"
	"parish/internal/application/projections"
	"parish/internal/domain/audit"
	"parish/internal/domain/campaign"
)

// handleCampaigns handles GET /api/campaigns.
func handleCampaigns(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	if !requireFeatureAPI(w, r, sess, "campaigns") {
		return
	}

	campaigns, err := stores.CampaignStore.List(r.Context(), campaignstore.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  queryInt(r, "limit", 50, 200),
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

// handleCampaignProgress handles GET /api/campaigns/{id}: the campaign plus
// how far its recipients have come.
func handleCampaignProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	if !requireFeatureAPI(w, r, sess, "campaigns") {
		return
	}

	result, err := projections.QueryGetCampaignProgress(r.Context(), projections.GetCampaignProgressQuery{
		CampaignID: pathPart(r, 2),
	}, projections.GetCampaignProgressDeps{CampaignStore: stores.CampaignStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCampaignLaunch handles POST /api/campaigns/{id}/launch.
func handleCampaignLaunch(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	campaignID := pathPart(r, 2)

	result, err := orchestrators.ExecuteLaunchCampaign(r.Context(), orchestrators.LaunchCampaignInput{
		CampaignID:   campaignID,
		ActorRole:    sess.Role,
		IsBetaTester: BetaTesters[sess.Email],
	}, orchestrators.LaunchCampaignDeps{
		CampaignStore: stores.CampaignStore,
		MemberStore:   stores.MemberStore,
		ConsentStore:  stores.ConsentStore,
		OutboxStore:   stores.OutboxStore,
		FlagStore:     stores.FeatureFlagStore,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategoryCampaign, audit.ActionUpdate).
		WithResource("campaign", campaignID).WithDescription("campaign launched"))
	writeJSON(w, http.StatusOK, result)
}

// handleCampaignCancel handles POST /api/campaigns/{id}/cancel.
func handleCampaignCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	campaignID := pathPart(r, 2)

	err := orchestrators.ExecuteCancelCampaign(r.Context(), orchestrators.CancelCampaignInput{
		CampaignID: campaignID,
	}, orchestrators.CancelCampaignDeps{CampaignStore: stores.CampaignStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategoryCampaign, audit.ActionUpdate).
		WithResource("campaign", campaignID).WithDescription("campaign cancelled"))
	w.WriteHeader(http.StatusNoContent)
}

// normalizePhone reduces a phone number to digits with an optional leading +.
func normalizePhone(raw string) string {
	var b strings.Builder
	for i, ch := range raw {
		if ch == '+' && i == 0 {
			b.WriteRune(ch)
			continue
		}
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// resolveInboundSender finds the running campaign and recipient matching an
// inbound phone number. A member in two running campaigns answers the one
// launched first.
func resolveInboundSender(r *http.Request, phone string) (campaignID, memberID string) {
	running, err := stores.CampaignStore.List(r.Context(), campaignstore.ListFilter{
		Status: campaign.StatusRunning,
	})
	if err != nil {
		return "", ""
	}
	want := normalizePhone(phone)
	if want == "" {
		return "", ""
	}
	for _, c := range running {
		for _, recipientID := range c.Recipients {
			m, err := stores.MemberStore.GetByID(r.Context(), recipientID)
			if err != nil {
				continue
			}
			if normalizePhone(m.Phone) == want {
				return c.ID, m.ID
			}
		}
	}
	return "", ""
}

// handleSMSInbound handles POST /api/sms/inbound: the gateway's callback for
// member replies. Authenticated by a shared token, not a session.
func handleSMSInbound(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if SMSWebhookToken == "" || r.Header.Get("X-Webhook-Token") != SMSWebhookToken {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var body struct {
		From string `json:"from"`
		Body string `json:"body"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	campaignID, memberID := resolveInboundSender(r, body.From)
	if campaignID == "" {
		// Nothing to attribute the reply to. Acknowledge so the gateway
		// does not retry.
		w.WriteHeader(http.StatusOK)
		return
	}

	result, err := orchestrators.ExecuteRecordResponse(r.Context(), orchestrators.RecordResponseInput{
		CampaignID: campaignID,
		MemberID:   memberID,
		Answer:     strings.TrimSpace(body.Body),
	}, orchestrators.RecordResponseDeps{
		CampaignStore: stores.CampaignStore,
		MemberStore:   stores.MemberStore,
		OutboxStore:   stores.OutboxStore,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"field":     result.Field.Key,
		"completed": result.Completed,
		"done":      result.Done,
	})
}
