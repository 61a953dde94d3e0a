package web

import "net/http"

// registerRoutes attaches every API handler. Collection endpoints get exact
// paths; item endpoints share a prefix router that dispatches on the path
// segment after the ID.
func registerRoutes(mux *http.ServeMux) {
	// Auth and accounts
	mux.HandleFunc("/api/login", handleLogin)
	mux.HandleFunc("/api/logout", handleLogout)
	mux.HandleFunc("/api/change-password", handleChangePassword)
	mux.HandleFunc("/api/activate", handleActivateAccount)
	mux.HandleFunc("/api/accounts", handleAccounts)
	mux.HandleFunc("/api/admin/accounts/", routeAdminAccounts)
	mux.HandleFunc("/api/devmode/impersonate", handleDevModeImpersonate)
	mux.HandleFunc("/api/devmode/restore", handleDevModeRestore)

	// Dashboard
	mux.HandleFunc("/api/dashboard", handleDashboard)

	// Members
	mux.HandleFunc("/api/members", handleMembers)
	mux.HandleFunc("/api/members/", routeMembers)
	mux.HandleFunc("/api/admin/members/import", handleImportMembers)

	// Attendance and kiosk
	mux.HandleFunc("/api/checkins", handleCheckIn)
	mux.HandleFunc("/api/checkins/", routeCheckIns)
	mux.HandleFunc("/api/attendance/today", handleAttendanceToday)
	mux.HandleFunc("/api/attendance/summary", handleAttendanceSummary)
	mux.HandleFunc("/api/kiosk/launch", handleKioskLaunch)
	mux.HandleFunc("/api/kiosk/exit", handleKioskExit)
	mux.HandleFunc("/api/kiosk/checkin", handleKioskCheckIn)

	// Votes
	mux.HandleFunc("/api/votes", handleVotes)
	mux.HandleFunc("/api/votes/", routeVotes)

	// Campaigns and the SMS gateway callback
	mux.HandleFunc("/api/campaigns", handleCampaigns)
	mux.HandleFunc("/api/campaigns/", routeCampaigns)
	mux.HandleFunc("/api/sms/inbound", handleSMSInbound)

	// Finance
	mux.HandleFunc("/api/finance/payments", handlePayments)
	mux.HandleFunc("/api/finance/expenses", handleExpenses)
	mux.HandleFunc("/api/finance/budgets", handleBudgets)

	// Events and registrations
	mux.HandleFunc("/api/events", handleEvents)
	mux.HandleFunc("/api/events/", routeEvents)
	mux.HandleFunc("/api/registrations/", routeRegistrations)

	// Ministries and assignments
	mux.HandleFunc("/api/ministries", handleMinistries)
	mux.HandleFunc("/api/ministries/", handleMinistryDetail)
	mux.HandleFunc("/api/assignments", handleAssignments)
	mux.HandleFunc("/api/assignments/", handleRemoveAssignment)

	// Notices
	mux.HandleFunc("/api/notices", handleNotices)
	mux.HandleFunc("/api/notices/", routeNotices)
	mux.HandleFunc("/api/board", handleNoticeBoard)

	// Reports
	mux.HandleFunc("/api/reports", handleReports)
	mux.HandleFunc("/api/reports/", routeReports)

	// Wizards
	mux.HandleFunc("/api/wizards/sessions/", routeWizardSessions)
	mux.HandleFunc("/api/wizards/", handleWizardStart)

	// Admin
	mux.HandleFunc("/api/admin/flags", handleFeatureFlags)
	mux.HandleFunc("/api/admin/audit", handleAdminAudit)
	mux.HandleFunc("/api/admin/perf", handleAdminPerf)
	mux.HandleFunc("/api/admin/outbox", handleAdminOutbox)
	mux.HandleFunc("/api/admin/outbox/", routeAdminOutbox)
}

func routeAdminAccounts(w http.ResponseWriter, r *http.Request) {
	switch pathPart(r, 4) {
	case "role":
		handleChangeRole(w, r)
	default:
		http.NotFound(w, r)
	}
}

func routeMembers(w http.ResponseWriter, r *http.Request) {
	if pathPart(r, 2) == "search" {
		handleMemberSearch(w, r)
		return
	}
	switch pathPart(r, 3) {
	case "":
		handleMemberProfile(w, r)
	case "archive":
		handleArchiveMember(w, r)
	case "restore":
		handleRestoreMember(w, r)
	case "consents":
		handleMemberConsents(w, r)
	default:
		http.NotFound(w, r)
	}
}

func routeCheckIns(w http.ResponseWriter, r *http.Request) {
	if pathPart(r, 3) == "undo" {
		handleUndoCheckIn(w, r)
		return
	}
	http.NotFound(w, r)
}

func routeVotes(w http.ResponseWriter, r *http.Request) {
	switch pathPart(r, 3) {
	case "":
		if r.Method == "DELETE" {
			handleDeleteVote(w, r)
			return
		}
		handleVoteDetail(w, r)
	case "ballot":
		handleCastBallot(w, r)
	case "results":
		handleVoteResults(w, r)
	default:
		http.NotFound(w, r)
	}
}

func routeCampaigns(w http.ResponseWriter, r *http.Request) {
	switch pathPart(r, 3) {
	case "":
		handleCampaignProgress(w, r)
	case "launch":
		handleCampaignLaunch(w, r)
	case "cancel":
		handleCampaignCancel(w, r)
	default:
		http.NotFound(w, r)
	}
}

func routeEvents(w http.ResponseWriter, r *http.Request) {
	switch pathPart(r, 3) {
	case "":
		handleEventDetail(w, r)
	case "register":
		handleEventRegister(w, r)
	case "registrations":
		handleEventRegistrations(w, r)
	default:
		http.NotFound(w, r)
	}
}

func routeRegistrations(w http.ResponseWriter, r *http.Request) {
	switch pathPart(r, 3) {
	case "cancel":
		handleCancelRegistration(w, r)
	case "attended":
		handleMarkAttended(w, r)
	default:
		http.NotFound(w, r)
	}
}

func routeNotices(w http.ResponseWriter, r *http.Request) {
	switch pathPart(r, 3) {
	case "":
		handleNoticeDetail(w, r)
	case "publish":
		handlePublishNotice(w, r)
	case "pin", "unpin":
		handlePinNotice(w, r)
	default:
		http.NotFound(w, r)
	}
}

func routeReports(w http.ResponseWriter, r *http.Request) {
	switch pathPart(r, 3) {
	case "generate":
		handleGenerateReport(w, r)
	case "download":
		handleDownloadReport(w, r)
	default:
		http.NotFound(w, r)
	}
}

func routeWizardSessions(w http.ResponseWriter, r *http.Request) {
	if pathPart(r, 4) == "" {
		handleWizardSession(w, r)
		return
	}
	handleWizardStep(w, r)
}

func routeAdminOutbox(w http.ResponseWriter, r *http.Request) {
	switch pathPart(r, 4) {
	case "retry":
		handleOutboxRetry(w, r)
	case "abandon":
		handleOutboxAbandon(w, r)
	default:
		http.NotFound(w, r)
	}
}
