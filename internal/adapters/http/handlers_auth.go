package web

import (
	"errors"
	"net/http"
	"strings"

	"parish/internal/adapters/http/middleware"
	accountStore "parish/internal/adapters/storage/account"
	"parish/internal/application/orchestrators"
	"parish/internal/domain/audit"
)

// handleLogin handles POST /api/login.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var input orchestrators.LoginInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}
		input.Email = r.FormValue("email")
		input.Password = r.FormValue("password")
	} else if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
	})
	if err != nil {
		event := audit.NewEvent("", input.Email, "", audit.CategorySecurity, audit.ActionLogin).
			WithSeverity(audit.SeverityWarning).WithDescription("login rejected")
		recordAudit(r, event)
		status := http.StatusUnauthorized
		if errors.Is(err, orchestrators.ErrAccountLocked) {
			status = http.StatusLocked
		}
		http.Error(w, err.Error(), status)
		return
	}

	token, err := sessions.Create(result.AccountID, result.Email, result.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)

	recordAudit(r, audit.NewEvent(result.AccountID, result.Email, result.Role,
		audit.CategorySecurity, audit.ActionLogin))

	writeJSON(w, http.StatusOK, map[string]any{
		"account_id":               result.AccountID,
		"member_id":                result.MemberID,
		"email":                    result.Email,
		"role":                     result.Role,
		"password_change_required": result.PasswordChangeRequired,
	})
}

// handleLogout handles POST /api/logout.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie("parish_session"); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)

	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		recordAudit(r, auditActor(sess, audit.CategorySecurity, audit.ActionLogout))
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChangePassword handles POST /api/account/password.
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		AccountID:       sess.AccountID,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	}, orchestrators.ChangePasswordDeps{AccountStore: stores.AccountStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategoryAccount, audit.ActionUpdate).
		WithDescription("password changed"))
	w.WriteHeader(http.StatusNoContent)
}

// handleActivateAccount handles POST /api/activate: an invited member picks a
// password using the emailed token.
func handleActivateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var input orchestrators.ActivateAccountInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}
		input.Token = r.FormValue("token")
		input.Password = r.FormValue("password")
	} else if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	accountID, err := orchestrators.ExecuteActivateAccount(r.Context(), input,
		orchestrators.ActivateAccountDeps{AccountStore: stores.AccountStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	event := audit.NewEvent(accountID, "", "", audit.CategoryAccount, audit.ActionUpdate).
		WithDescription("account activated")
	recordAudit(r, event)
	writeJSON(w, http.StatusOK, map[string]string{"account_id": accountID})
}

// handleAccounts handles GET /api/admin/accounts (list) and POST (create or
// invite).
func handleAccounts(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case "GET":
		accounts, err := stores.AccountStore.List(ctx, accountStore.ListFilter{
			Role:  r.URL.Query().Get("role"),
			Limit: queryInt(r, "limit", 100, 500),
		})
		if err != nil {
			internalError(w, err)
			return
		}
		// Hashes stay server-side.
		type accountView struct {
			ID       string `json:"id"`
			Email    string `json:"email"`
			Role     string `json:"role"`
			MemberID string `json:"member_id,omitempty"`
			Status   string `json:"status"`
		}
		views := make([]accountView, 0, len(accounts))
		for _, a := range accounts {
			views = append(views, accountView{
				ID: a.ID, Email: a.Email, Role: a.Role,
				MemberID: a.MemberID, Status: a.Status,
			})
		}
		writeJSON(w, http.StatusOK, views)

	case "POST":
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
			MemberID string `json:"member_id"`
			Invite   bool   `json:"invite"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		var accountID string
		var err error
		if body.Invite {
			accountID, err = orchestrators.ExecuteInviteMember(ctx, orchestrators.InviteMemberInput{
				Email: body.Email, MemberID: body.MemberID, Role: body.Role,
			}, orchestrators.InviteMemberDeps{
				AccountStore: stores.AccountStore,
				OutboxStore:  stores.OutboxStore,
				BaseURL:      BaseURL,
			})
		} else {
			accountID, err = orchestrators.ExecuteCreateAccount(ctx, orchestrators.CreateAccountInput{
				Email: body.Email, Password: body.Password,
				Role: body.Role, MemberID: body.MemberID,
			}, orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore})
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		recordAudit(r, auditActor(sess, audit.CategoryAccount, audit.ActionCreate).
			WithResource("account", accountID))
		writeJSON(w, http.StatusCreated, map[string]string{"id": accountID})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleChangeRole handles POST /api/admin/accounts/{id}/role.
func handleChangeRole(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	accountID := pathPart(r, 3)

	var body struct {
		Role string `json:"role"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	acct, err := stores.AccountStore.GetByID(r.Context(), accountID)
	if err != nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	if acct.ID == sess.AccountID {
		http.Error(w, "cannot change your own role", http.StatusBadRequest)
		return
	}
	if err := acct.ChangeRole(body.Role); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := stores.AccountStore.Save(r.Context(), acct); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategoryAccount, audit.ActionUpdate).
		WithResource("account", acct.ID).
		WithDescription("role changed to "+body.Role).
		WithSeverity(audit.SeverityWarning))
	w.WriteHeader(http.StatusNoContent)
}

// handleDevModeImpersonate handles POST /api/devmode/impersonate. An admin
// temporarily takes on another role to preview the app as that role sees it.
func handleDevModeImpersonate(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteDevModeImpersonate(orchestrators.DevModeImpersonateInput{
		TargetRole:    body.Role,
		CurrentRole:   sess.Role,
		AccountID:     sess.AccountID,
		Email:         sess.Email,
		RealAccountID: sess.RealAccountID,
		RealRole:      sess.RealRole,
		RealEmail:     sess.RealEmail,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	cookie, err := r.Cookie("parish_session")
	if err != nil {
		http.Error(w, "no session cookie", http.StatusUnauthorized)
		return
	}
	updated := sess
	updated.Role = result.Role
	updated.RealAccountID = result.RealAccountID
	updated.RealEmail = result.RealEmail
	updated.RealRole = result.RealRole
	if !sessions.Update(cookie.Value, updated) {
		http.Error(w, "session expired", http.StatusUnauthorized)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategorySecurity, audit.ActionUpdate).
		WithDescription("impersonating role "+result.Role).
		WithSeverity(audit.SeverityWarning))
	writeJSON(w, http.StatusOK, map[string]string{"role": result.Role})
}

// handleDevModeRestore handles POST /api/devmode/restore.
func handleDevModeRestore(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	result, err := orchestrators.ExecuteDevModeRestore(orchestrators.DevModeRestoreInput{
		CurrentRole:   sess.Role,
		RealAccountID: sess.RealAccountID,
		RealEmail:     sess.RealEmail,
		RealRole:      sess.RealRole,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cookie, err := r.Cookie("parish_session")
	if err != nil {
		http.Error(w, "no session cookie", http.StatusUnauthorized)
		return
	}
	restored := middleware.Session{
		AccountID: result.AccountID,
		Email:     result.Email,
		Role:      result.Role,
		CreatedAt: sess.CreatedAt,
	}
	if !sessions.Update(cookie.Value, restored) {
		http.Error(w, "session expired", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"role": result.Role})
}
