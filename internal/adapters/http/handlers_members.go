package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"parish/internal/application/listutil"
	"parish/internal/application/orchestrators"
	"parish/internal/application/projections"
	"parish/internal/domain/audit"
)

// handleMembers handles GET /api/members: one page of the directory with
// search, filters, and sorting.
func handleMembers(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireStaff(w, r); !ok {
		return
	}

	lp := listutil.ParseListParams(r.URL.Query(),
		[]string{"name", "email", "status", "joined_at"},
		[]string{"status", "ministry_id"},
	)

	result, err := projections.QueryGetMemberList(r.Context(), projections.GetMemberListQuery{
		Status:     lp.Filters["status"],
		MinistryID: lp.Filters["ministry_id"],
		Search:     lp.Search,
		Sort:       lp.Sort,
		Dir:        lp.Dir,
		Page:       lp.Page,
		PerPage:    lp.PerPage,
	}, projections.GetMemberListDeps{MemberStore: stores.MemberStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleMemberProfile handles GET /api/members/{id}. Staff see any profile;
// members only their own.
func handleMemberProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	memberID := pathPart(r, 2)

	if sess.Role == "member" {
		acct, err := stores.AccountStore.GetByID(r.Context(), sess.AccountID)
		if err != nil || acct.MemberID != memberID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	result, err := projections.QueryGetMemberProfile(r.Context(), projections.GetMemberProfileQuery{
		MemberID: memberID,
	}, projections.GetMemberProfileDeps{
		MemberStore:     stores.MemberStore,
		ConsentStore:    stores.ConsentStore,
		AttendanceStore: stores.AttendanceStore,
		EventStore:      stores.EventStore,
	})
	if err == projections.ErrMemberNotFound {
		http.Error(w, "member not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleMemberSearch handles GET /api/members/search?q= for check-in and
// assignment pickers.
func handleMemberSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireStaff(w, r); !ok {
		return
	}

	members, err := orchestrators.ExecuteSearchMembers(r.Context(), orchestrators.SearchMembersInput{
		Query: r.URL.Query().Get("q"),
		Limit: queryInt(r, "limit", 10, 50),
	}, orchestrators.SearchMembersDeps{MemberStore: stores.MemberStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// handleArchiveMember handles POST /api/members/{id}/archive.
func handleArchiveMember(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	memberID := pathPart(r, 2)

	err := orchestrators.ExecuteArchiveMember(r.Context(), orchestrators.ArchiveMemberInput{
		MemberID: memberID,
	}, orchestrators.ArchiveMemberDeps{MemberStore: stores.MemberStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategoryMember, audit.ActionUpdate).
		WithResource("member", memberID).WithDescription("member archived"))
	w.WriteHeader(http.StatusNoContent)
}

// handleRestoreMember handles POST /api/members/{id}/restore.
func handleRestoreMember(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	memberID := pathPart(r, 2)

	err := orchestrators.ExecuteRestoreMember(r.Context(), orchestrators.RestoreMemberInput{
		MemberID: memberID,
	}, orchestrators.RestoreMemberDeps{MemberStore: stores.MemberStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategoryMember, audit.ActionUpdate).
		WithResource("member", memberID).WithDescription("member restored"))
	w.WriteHeader(http.StatusNoContent)
}

// handleImportMembers handles POST /api/admin/members/import. The body is the
// CSV itself; dry_run and update query parameters control the mode.
func handleImportMembers(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	result, err := orchestrators.ExecuteImportMembers(r.Context(), orchestrators.ImportMembersInput{
		Reader:         r.Body,
		AdminAccountID: sess.AccountID,
		DryRun:         r.URL.Query().Get("dry_run") == "true",
		UpdateMode:     r.URL.Query().Get("update") == "true",
	}, orchestrators.ImportMembersDeps{
		MemberStore: stores.MemberStore,
		GenerateID:  generateID,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategoryMember, audit.ActionCreate).
		WithDescription("CSV import").
		WithMetadata(importSummaryJSON(result)))
	writeJSON(w, http.StatusOK, result)
}

func importSummaryJSON(result orchestrators.ImportMembersResult) string {
	raw, err := json.Marshal(map[string]int{
		"total":   result.Total,
		"created": result.Created,
		"updated": result.Updated,
		"skipped": result.Skipped,
		"errors":  len(result.Errors),
	})
	if err != nil {
		return fmt.Sprintf(`{"total":%d}`, result.Total)
	}
	return string(raw)
}
