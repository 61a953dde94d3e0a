package ministry

import (
	"context"

	domain "parish/internal/domain/ministry"
)

// Store persists Ministry and Assignment state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Ministry, error)
	Save(ctx context.Context, value domain.Ministry) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Ministry, error)

	GetAssignment(ctx context.Context, id string) (domain.Assignment, error)
	SaveAssignment(ctx context.Context, a domain.Assignment) error
	DeleteAssignment(ctx context.Context, id string) error
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]domain.Assignment, error)

	// ListAssignmentsForAssignee returns every assignment held by one
	// volunteer or resource, for conflict checks.
	ListAssignmentsForAssignee(ctx context.Context, kind, assigneeID string) ([]domain.Assignment, error)
}

// AssignmentFilter carries filtering parameters for ListAssignments.
type AssignmentFilter struct {
	MinistryID string
	EventID    string
	Role       string
}
