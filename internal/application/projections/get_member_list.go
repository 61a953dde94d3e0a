package projections

import (
	"context"

	memberstore "parish/internal/adapters/storage/member"
	"parish/internal/application/listutil"
	"parish/internal/domain/member"
)

// MemberListStore defines the member store interface needed by GetMemberList.
type MemberListStore interface {
	List(ctx context.Context, filter memberstore.ListFilter) ([]member.Member, error)
	Count(ctx context.Context, filter memberstore.ListFilter) (int, error)
}

// GetMemberListQuery carries query parameters.
type GetMemberListQuery struct {
	Status     string
	MinistryID string
	Search     string
	Sort       string
	Dir        string
	Page       int
	PerPage    int
}

// GetMemberListResult carries the query result.
type GetMemberListResult struct {
	Members  []member.Member
	PageInfo listutil.PageInfo
}

// GetMemberListDeps holds dependencies for GetMemberList.
type GetMemberListDeps struct {
	MemberStore MemberListStore
}

// QueryGetMemberList retrieves one page of the member directory.
// PRE: Page and PerPage are positive
// POST: Returns the page plus pagination metadata for the same filter
func QueryGetMemberList(ctx context.Context, query GetMemberListQuery, deps GetMemberListDeps) (GetMemberListResult, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	perPage := query.PerPage
	if perPage < 1 {
		perPage = listutil.DefaultPerPage
	}

	filter := memberstore.ListFilter{
		Status:     query.Status,
		MinistryID: query.MinistryID,
		Search:     query.Search,
		Sort:       query.Sort,
		Dir:        query.Dir,
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	}

	members, err := deps.MemberStore.List(ctx, filter)
	if err != nil {
		return GetMemberListResult{}, err
	}

	countFilter := filter
	countFilter.Limit = 0
	countFilter.Offset = 0
	total, err := deps.MemberStore.Count(ctx, countFilter)
	if err != nil {
		return GetMemberListResult{}, err
	}

	return GetMemberListResult{
		Members:  members,
		PageInfo: listutil.NewPageInfo(page, perPage, total),
	}, nil
}
