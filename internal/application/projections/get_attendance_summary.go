package projections

import (
	"context"
	"errors"
	"sort"

	"parish/internal/domain/attendance"
)

// SummaryAttendanceStore defines the attendance store interface needed by
// GetAttendanceSummary.
type SummaryAttendanceStore interface {
	ListByDateRange(ctx context.Context, start, end string) ([]attendance.CheckIn, error)
}

// GetAttendanceSummaryQuery carries query parameters.
type GetAttendanceSummaryQuery struct {
	Start string // YYYY-MM-DD, inclusive
	End   string // YYYY-MM-DD, inclusive
}

// DayAttendance is one service date's headcount.
type DayAttendance struct {
	ServiceDate string
	Members     int
	Guests      int
}

// GetAttendanceSummaryResult carries the query result.
type GetAttendanceSummaryResult struct {
	Days     []DayAttendance
	ByMethod map[string]int
	Total    int
}

// GetAttendanceSummaryDeps holds dependencies for GetAttendanceSummary.
type GetAttendanceSummaryDeps struct {
	AttendanceStore SummaryAttendanceStore
}

// QueryGetAttendanceSummary aggregates check-ins over a date range into
// per-service headcounts and a method breakdown. Undone check-ins never reach
// this query; the store filters them.
// PRE: Start and End are YYYY-MM-DD dates
// POST: Days are sorted ascending by service date
func QueryGetAttendanceSummary(ctx context.Context, query GetAttendanceSummaryQuery, deps GetAttendanceSummaryDeps) (GetAttendanceSummaryResult, error) {
	if query.Start == "" || query.End == "" {
		return GetAttendanceSummaryResult{}, errors.New("start and end dates are required")
	}

	checkIns, err := deps.AttendanceStore.ListByDateRange(ctx, query.Start, query.End)
	if err != nil {
		return GetAttendanceSummaryResult{}, err
	}

	byDay := map[string]*DayAttendance{}
	byMethod := map[string]int{}
	for _, c := range checkIns {
		day, ok := byDay[c.ServiceDate]
		if !ok {
			day = &DayAttendance{ServiceDate: c.ServiceDate}
			byDay[c.ServiceDate] = day
		}
		if c.GuestName != "" {
			day.Guests++
		} else {
			day.Members++
		}
		byMethod[c.Method]++
	}

	result := GetAttendanceSummaryResult{ByMethod: byMethod, Total: len(checkIns)}
	for _, day := range byDay {
		result.Days = append(result.Days, *day)
	}
	sort.Slice(result.Days, func(i, j int) bool {
		return result.Days[i].ServiceDate < result.Days[j].ServiceDate
	})
	return result, nil
}
