package projections

import (
	"context"
	"time"

	memberstore "parish/internal/adapters/storage/member"
	votestore "parish/internal/adapters/storage/vote"
	"parish/internal/domain/attendance"
	"parish/internal/domain/event"
	"parish/internal/domain/member"
	"parish/internal/domain/notice"
	"parish/internal/domain/vote"
)

// DashboardMemberStore defines the member store interface needed by GetDashboard.
type DashboardMemberStore interface {
	Count(ctx context.Context, filter memberstore.ListFilter) (int, error)
}

// DashboardAttendanceStore defines the attendance store interface needed by GetDashboard.
type DashboardAttendanceStore interface {
	ListByServiceDate(ctx context.Context, date string) ([]attendance.CheckIn, error)
}

// DashboardEventStore defines the event store interface needed by GetDashboard.
type DashboardEventStore interface {
	ListBetween(ctx context.Context, start, end string) ([]event.Event, error)
}

// DashboardVoteStore defines the vote store interface needed by GetDashboard.
type DashboardVoteStore interface {
	List(ctx context.Context, filter votestore.ListFilter) ([]vote.Vote, error)
}

// DashboardNoticeStore defines the notice store interface needed by GetDashboard.
type DashboardNoticeStore interface {
	ListPublished(ctx context.Context, noticeType, targetID string, now time.Time) ([]notice.Notice, error)
}

// DashboardOutboxStore defines the outbox store interface needed by GetDashboard.
type DashboardOutboxStore interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// GetDashboardQuery carries query parameters.
type GetDashboardQuery struct {
	Role string // pending delivery counts are admin-only
}

// GetDashboardResult carries the dashboard counters and headline lists.
type GetDashboardResult struct {
	ActiveMembers  int
	CheckInsToday  int
	UpcomingEvents []event.Event
	OpenVotes      []vote.Vote
	Notices        []notice.Notice
	OutboxPending  int // admin only, zero otherwise
	OutboxFailed   int // admin only, zero otherwise
}

// GetDashboardDeps holds dependencies for GetDashboard.
type GetDashboardDeps struct {
	MemberStore     DashboardMemberStore
	AttendanceStore DashboardAttendanceStore
	EventStore      DashboardEventStore
	VoteStore       DashboardVoteStore
	NoticeStore     DashboardNoticeStore
	OutboxStore     DashboardOutboxStore
	Now             func() time.Time
}

// QueryGetDashboard assembles the landing-page summary: headcounts, today's
// attendance, the next two weeks of events, open votes, and the live parish
// notice board.
// PRE: none
// POST: Returns the summary; delivery queue counters only for admins
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps) (GetDashboardResult, error) {
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	var result GetDashboardResult
	var err error

	result.ActiveMembers, err = deps.MemberStore.Count(ctx, memberstore.ListFilter{Status: member.StatusActive})
	if err != nil {
		return GetDashboardResult{}, err
	}

	today, err := deps.AttendanceStore.ListByServiceDate(ctx, now.Format("2006-01-02"))
	if err != nil {
		return GetDashboardResult{}, err
	}
	result.CheckInsToday = len(today)

	result.UpcomingEvents, err = deps.EventStore.ListBetween(ctx,
		now.Format(time.RFC3339), now.Add(14*24*time.Hour).Format(time.RFC3339))
	if err != nil {
		return GetDashboardResult{}, err
	}

	result.OpenVotes, err = deps.VoteStore.List(ctx, votestore.ListFilter{Status: vote.StatusOpen})
	if err != nil {
		return GetDashboardResult{}, err
	}

	result.Notices, err = deps.NoticeStore.ListPublished(ctx, notice.TypeParishWide, "", now)
	if err != nil {
		return GetDashboardResult{}, err
	}

	if query.Role == "admin" {
		counts, err := deps.OutboxStore.CountByStatus(ctx)
		if err != nil {
			return GetDashboardResult{}, err
		}
		result.OutboxPending = counts["pending"] + counts["retrying"]
		result.OutboxFailed = counts["failed"]
	}

	return result, nil
}
