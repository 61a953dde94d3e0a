package projections

import (
	"context"
	"errors"

	"parish/internal/domain/campaign"
)

// ProgressCampaignStore defines the campaign store interface needed by
// GetCampaignProgress.
type ProgressCampaignStore interface {
	GetByID(ctx context.Context, id string) (campaign.Campaign, error)
	ListResponses(ctx context.Context, campaignID string) ([]campaign.Response, error)
}

// GetCampaignProgressQuery carries query parameters.
type GetCampaignProgressQuery struct {
	CampaignID string
}

// FieldProgress counts answers collected for one campaign field.
type FieldProgress struct {
	Key      string
	Prompt   string
	Answered int
}

// GetCampaignProgressResult carries the query result.
type GetCampaignProgressResult struct {
	Campaign   campaign.Campaign
	Recipients int
	Started    int // recipients with at least one answer
	Completed  int
	Fields     []FieldProgress
}

// GetCampaignProgressDeps holds dependencies for GetCampaignProgress.
type GetCampaignProgressDeps struct {
	CampaignStore ProgressCampaignStore
}

// QueryGetCampaignProgress reports how far an SMS campaign has come: overall
// recipient completion and per-field answer counts.
// PRE: CampaignID is non-empty
// POST: Fields follow the campaign's field order
func QueryGetCampaignProgress(ctx context.Context, query GetCampaignProgressQuery, deps GetCampaignProgressDeps) (GetCampaignProgressResult, error) {
	if query.CampaignID == "" {
		return GetCampaignProgressResult{}, errors.New("campaign ID is required")
	}

	c, err := deps.CampaignStore.GetByID(ctx, query.CampaignID)
	if err != nil {
		return GetCampaignProgressResult{}, errors.New("campaign not found")
	}

	responses, err := deps.CampaignStore.ListResponses(ctx, c.ID)
	if err != nil {
		return GetCampaignProgressResult{}, err
	}

	result := GetCampaignProgressResult{
		Campaign:   c,
		Recipients: len(c.Recipients),
	}
	answered := map[string]int{}
	for _, resp := range responses {
		if len(resp.Answers) > 0 {
			result.Started++
		}
		if resp.Completed {
			result.Completed++
		}
		for key := range resp.Answers {
			answered[key]++
		}
	}
	for _, f := range c.Fields {
		result.Fields = append(result.Fields, FieldProgress{
			Key:      f.Key,
			Prompt:   f.Prompt,
			Answered: answered[f.Key],
		})
	}
	return result, nil
}
