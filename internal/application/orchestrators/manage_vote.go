package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	votestore "parish/internal/adapters/storage/vote"
	"parish/internal/domain/member"
	"parish/internal/domain/vote"

	"github.com/google/uuid"
)

// VoteLifecycleStore defines the vote store interface needed by lifecycle
// orchestrators.
type VoteLifecycleStore interface {
	GetByID(ctx context.Context, id string) (vote.Vote, error)
	Save(ctx context.Context, v vote.Vote) error
	List(ctx context.Context, filter votestore.ListFilter) ([]vote.Vote, error)
}

// OpenCloseVotesDeps holds dependencies for the window-driven sweeper.
type OpenCloseVotesDeps struct {
	VoteStore VoteLifecycleStore
	Now       func() time.Time
}

// ExecuteOpenCloseVotes opens scheduled votes whose window has started and
// closes open votes whose window has ended. Run periodically.
// PRE: none
// POST: Every vote's status matches its window at the sweep instant
func ExecuteOpenCloseVotes(ctx context.Context, deps OpenCloseVotesDeps) error {
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	scheduled, err := deps.VoteStore.List(ctx, votestore.ListFilter{Status: vote.StatusScheduled})
	if err != nil {
		return err
	}
	for _, v := range scheduled {
		if !v.WindowContains(now) {
			continue
		}
		if err := v.Open(now); err != nil {
			continue
		}
		if err := deps.VoteStore.Save(ctx, v); err != nil {
			slog.Error("vote_open_failed", "vote_id", v.ID, "error", err)
			continue
		}
		slog.Info("vote_event", "event", "vote_opened", "vote_id", v.ID)
	}

	open, err := deps.VoteStore.List(ctx, votestore.ListFilter{Status: vote.StatusOpen})
	if err != nil {
		return err
	}
	for _, v := range open {
		if now.Before(v.EndAt) {
			continue
		}
		if err := v.Close(); err != nil {
			continue
		}
		if err := deps.VoteStore.Save(ctx, v); err != nil {
			slog.Error("vote_close_failed", "vote_id", v.ID, "error", err)
			continue
		}
		slog.Info("vote_event", "event", "vote_closed", "vote_id", v.ID)
	}
	return nil
}

// BallotStore defines the ballot store interface needed by CastBallot.
type BallotStore interface {
	GetByID(ctx context.Context, id string) (vote.Vote, error)
	SaveBallot(ctx context.Context, b vote.Ballot) error
}

// CastBallotMemberStore defines the member store interface needed by CastBallot.
type CastBallotMemberStore interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// CastBallotInput carries input for the cast-ballot orchestrator.
type CastBallotInput struct {
	VoteID   string
	MemberID string
	Option   string
}

// CastBallotDeps holds dependencies for CastBallot.
type CastBallotDeps struct {
	VoteStore   BallotStore
	MemberStore CastBallotMemberStore
	Now         func() time.Time
}

// ExecuteCastBallot records one member's ballot on an open vote. The stored
// ballot is anonymous; the member is only recorded on the receipt that
// enforces one ballot per member.
// PRE: Vote is open, option is on the ballot, member is active and has not voted
// POST: Ballot and receipt persisted atomically
func ExecuteCastBallot(ctx context.Context, input CastBallotInput, deps CastBallotDeps) error {
	if input.VoteID == "" || input.MemberID == "" || input.Option == "" {
		return errors.New("vote, member, and option are required")
	}

	v, err := deps.VoteStore.GetByID(ctx, input.VoteID)
	if err != nil {
		return errors.New("vote not found")
	}
	if v.Status != vote.StatusOpen {
		return vote.ErrNotOpen
	}

	m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
	if err != nil {
		return errors.New("member not found")
	}
	if !m.IsActive() {
		return ErrMemberNotActive
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	b := vote.Ballot{
		ID:       uuid.New().String(),
		VoteID:   v.ID,
		MemberID: input.MemberID,
		Option:   input.Option,
		CastAt:   now,
	}
	if err := b.Validate(&v); err != nil {
		return err
	}

	if err := deps.VoteStore.SaveBallot(ctx, b); err != nil {
		return err
	}

	// Member identity is deliberately absent from this log line.
	slog.Info("vote_event", "event", "ballot_cast", "vote_id", v.ID)
	return nil
}

// TallyVoteStore defines the store interface needed by TallyVote.
type TallyVoteStore interface {
	GetByID(ctx context.Context, id string) (vote.Vote, error)
	ListBallots(ctx context.Context, voteID string) ([]vote.Ballot, error)
}

// TallyVoteInput carries input for the tally orchestrator.
type TallyVoteInput struct {
	VoteID string
}

// TallyVoteDeps holds dependencies for TallyVote.
type TallyVoteDeps struct {
	VoteStore TallyVoteStore
}

// ExecuteTallyVote counts a closed vote's ballots. Ties are reported in the
// winner set, never broken.
// PRE: Vote exists and is closed
// POST: Returns per-option counts and the winner set
func ExecuteTallyVote(ctx context.Context, input TallyVoteInput, deps TallyVoteDeps) (vote.Result, error) {
	if input.VoteID == "" {
		return vote.Result{}, errors.New("vote ID is required")
	}

	v, err := deps.VoteStore.GetByID(ctx, input.VoteID)
	if err != nil {
		return vote.Result{}, errors.New("vote not found")
	}
	if v.Status != vote.StatusClosed {
		return vote.Result{}, errors.New("results are available once the vote closes")
	}

	ballots, err := deps.VoteStore.ListBallots(ctx, v.ID)
	if err != nil {
		return vote.Result{}, err
	}
	return vote.Tally(&v, ballots), nil
}
