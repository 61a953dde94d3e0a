package web

import (
	"net/http"

	"parish/internal/domain/audit"
	"parish/internal/domain/featureflag"
)

// handleFeatureFlags handles GET /api/admin/flags (list) and PUT (save one).
func handleFeatureFlags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		flags, err := stores.FeatureFlagStore.List(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, flags)

	case "PUT":
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}
		var body struct {
			Key           string `json:"key"`
			EnabledAdmin  bool   `json:"enabled_admin"`
			EnabledStaff  bool   `json:"enabled_staff"`
			EnabledMember bool   `json:"enabled_member"`
			BetaOverride  bool   `json:"beta_override"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		flag, err := stores.FeatureFlagStore.GetByKey(ctx, body.Key)
		if err != nil {
			// Saving an unknown key registers it. Defaults are seeded at
			// startup, so this is the escape hatch for new features.
			flag = featureflag.FeatureFlag{Key: body.Key}
		}
		flag.EnabledAdmin = body.EnabledAdmin
		flag.EnabledStaff = body.EnabledStaff
		flag.EnabledMember = body.EnabledMember
		flag.BetaOverride = body.BetaOverride
		if flag.Key == "" {
			http.Error(w, featureflag.ErrMissingKey.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.FeatureFlagStore.Save(ctx, flag); err != nil {
			internalError(w, err)
			return
		}

		recordAudit(r, auditActor(sess, audit.CategorySystem, audit.ActionUpdate).
			WithResource("feature_flag", flag.Key).WithDescription("feature flag saved"))
		writeJSON(w, http.StatusOK, flag)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
