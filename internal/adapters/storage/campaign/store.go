package campaign

import (
	"context"

	domain "parish/internal/domain/campaign"
)

// Store persists Campaign and Response state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Campaign, error)
	Save(ctx context.Context, value domain.Campaign) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Campaign, error)

	GetResponse(ctx context.Context, campaignID, memberID string) (domain.Response, bool, error)
	SaveResponse(ctx context.Context, resp domain.Response) error
	ListResponses(ctx context.Context, campaignID string) ([]domain.Response, error)

	// ListResponsesForMember returns every response a member has given across
	// campaigns, oldest first.
	ListResponsesForMember(ctx context.Context, memberID string) ([]domain.Response, error)

	// CountResponses returns total and completed response counts for a campaign.
	CountResponses(ctx context.Context, campaignID string) (total int, completed int, err error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
	Status string
}
