package web

import (
	"net/http"

	votestore "parish/internal/adapters/storage/vote"
	"parish/internal/application/orchestrators"
	"parish/internal/domain/audit"
	"parish/internal/domain/vote"
)

// memberIDForSession resolves the member record linked to the caller's
// account. Empty when the account is staff-only.
func memberIDForSession(r *http.Request, accountID string) string {
	acct, err := stores.AccountStore.GetByID(r.Context(), accountID)
	if err != nil {
		return ""
	}
	return acct.MemberID
}

// handleVotes handles GET /api/votes: votes visible to the caller.
func handleVotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSession(w, r); !ok {
		return
	}

	filter := votestore.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  queryInt(r, "limit", 50, 200),
	}
	votes, err := stores.VoteStore.List(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, votes)
}

// handleVoteDetail handles GET /api/votes/{id}, including whether the caller
// has already voted.
func handleVoteDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	v, err := stores.VoteStore.GetByID(r.Context(), pathPart(r, 2))
	if err != nil {
		http.Error(w, "vote not found", http.StatusNotFound)
		return
	}

	hasVoted := false
	if memberID := memberIDForSession(r, sess.AccountID); memberID != "" {
		hasVoted, err = stores.VoteStore.HasVoted(r.Context(), v.ID, memberID)
		if err != nil {
			internalError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"vote":      v,
		"has_voted": hasVoted,
	})
}

// handleCastBallot handles POST /api/votes/{id}/ballot.
func handleCastBallot(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	memberID := memberIDForSession(r, sess.AccountID)
	if memberID == "" {
		http.Error(w, "no member record linked to this account", http.StatusForbidden)
		return
	}

	var body struct {
		Option string `json:"option"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	voteID := pathPart(r, 2)
	err := orchestrators.ExecuteCastBallot(r.Context(), orchestrators.CastBallotInput{
		VoteID:   voteID,
		MemberID: memberID,
		Option:   body.Option,
	}, orchestrators.CastBallotDeps{
		VoteStore:   stores.VoteStore,
		MemberStore: stores.MemberStore,
	})
	if err == vote.ErrAlreadyBalloted {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The audit row records that the member voted, never what they chose.
	recordAudit(r, auditActor(sess, audit.CategoryVote, audit.ActionCreate).
		WithResource("vote", voteID).WithDescription("ballot cast"))
	w.WriteHeader(http.StatusNoContent)
}

// handleVoteResults handles GET /api/votes/{id}/results.
func handleVoteResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSession(w, r); !ok {
		return
	}

	result, err := orchestrators.ExecuteTallyVote(r.Context(), orchestrators.TallyVoteInput{
		VoteID: pathPart(r, 2),
	}, orchestrators.TallyVoteDeps{VoteStore: stores.VoteStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDeleteVote handles DELETE /api/votes/{id}. Only scheduled votes may
// be removed; anything that reached the ballot box stays.
func handleDeleteVote(w http.ResponseWriter, r *http.Request) {
	if r.Method != "DELETE" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	v, err := stores.VoteStore.GetByID(r.Context(), pathPart(r, 2))
	if err != nil {
		http.Error(w, "vote not found", http.StatusNotFound)
		return
	}
	if v.Status != vote.StatusScheduled {
		http.Error(w, "only scheduled votes can be deleted", http.StatusConflict)
		return
	}
	if err := stores.VoteStore.Delete(r.Context(), v.ID); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategoryVote, audit.ActionDelete).
		WithResource("vote", v.ID))
	w.WriteHeader(http.StatusNoContent)
}
