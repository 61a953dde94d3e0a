package vote

import (
	"context"

	domain "parish/internal/domain/vote"
)

// Store persists Vote and Ballot state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Vote, error)
	Save(ctx context.Context, value domain.Vote) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Vote, error)

	// SaveBallot records a ballot and the member's receipt atomically. The
	// ballot row carries no member reference; the receipt enforces one vote
	// per member without linking the member to a choice. Returns
	// domain.ErrAlreadyBalloted when a receipt already exists.
	SaveBallot(ctx context.Context, ballot domain.Ballot) error

	// HasVoted reports whether a receipt exists for the member.
	HasVoted(ctx context.Context, voteID, memberID string) (bool, error)

	// ListBallots returns all ballots for a vote. MemberID is always empty
	// on returned ballots.
	ListBallots(ctx context.Context, voteID string) ([]domain.Ballot, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
	Status string
}
