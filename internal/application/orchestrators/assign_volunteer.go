package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"parish/internal/domain/event"
	"parish/internal/domain/ministry"

	"github.com/google/uuid"
)

// AssignmentStore defines the ministry store interface needed by assignment
// orchestrators.
type AssignmentStore interface {
	GetByID(ctx context.Context, id string) (ministry.Ministry, error)
	SaveAssignment(ctx context.Context, a ministry.Assignment) error
	DeleteAssignment(ctx context.Context, id string) error
	GetAssignment(ctx context.Context, id string) (ministry.Assignment, error)
	ListAssignmentsForAssignee(ctx context.Context, kind, assigneeID string) ([]ministry.Assignment, error)
}

// AssignmentEventStore defines the event store interface needed when an
// assignment targets one event.
type AssignmentEventStore interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

// ConflictError reports a rejected assignment and the existing assignment it
// collides with.
type ConflictError struct {
	Conflict ministry.Assignment
}

func (e *ConflictError) Error() string {
	target := e.Conflict.MinistryID
	if e.Conflict.EventID != "" {
		target = e.Conflict.EventID
	}
	return fmt.Sprintf("assignee already holds an overlapping assignment (%s as %s)", target, e.Conflict.Role)
}

// AssignVolunteerInput carries input for the assignment orchestrator.
type AssignVolunteerInput struct {
	AssigneeKind string // volunteer, resource
	AssigneeID   string
	MinistryID   string
	EventID      string
	Role         string
	StartsAt     time.Time
	EndsAt       time.Time
}

// AssignVolunteerDeps holds dependencies for AssignVolunteer.
type AssignVolunteerDeps struct {
	MinistryStore AssignmentStore
	EventStore    AssignmentEventStore
	Now           func() time.Time
}

// ExecuteAssignVolunteer places a volunteer or resource into a role, rejecting
// assignments that overlap an existing one for the same assignee.
// PRE: Target ministry/event exists; role is declared on the ministry
// POST: Assignment persisted, or ConflictError naming the collision
func ExecuteAssignVolunteer(ctx context.Context, input AssignVolunteerInput, deps AssignVolunteerDeps) (ministry.Assignment, error) {
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	a := ministry.Assignment{
		ID:           uuid.New().String(),
		AssigneeKind: input.AssigneeKind,
		AssigneeID:   input.AssigneeID,
		MinistryID:   input.MinistryID,
		EventID:      input.EventID,
		Role:         input.Role,
		StartsAt:     input.StartsAt,
		EndsAt:       input.EndsAt,
		CreatedAt:    now,
	}
	if err := a.Validate(); err != nil {
		return ministry.Assignment{}, err
	}

	if input.MinistryID != "" {
		min, err := deps.MinistryStore.GetByID(ctx, input.MinistryID)
		if err != nil {
			return ministry.Assignment{}, errors.New("ministry not found")
		}
		if len(min.Roles) > 0 && !min.HasRole(input.Role) {
			return ministry.Assignment{}, fmt.Errorf("role %q is not declared on %s", input.Role, min.Name)
		}
	}
	if input.EventID != "" {
		e, err := deps.EventStore.GetByID(ctx, input.EventID)
		if err != nil {
			return ministry.Assignment{}, errors.New("event not found")
		}
		// Event-scoped assignments default to the event's window.
		if a.StartsAt.IsZero() && a.EndsAt.IsZero() {
			a.StartsAt = e.StartsAt
			a.EndsAt = e.EndsAt
		}
	}

	existing, err := deps.MinistryStore.ListAssignmentsForAssignee(ctx, input.AssigneeKind, input.AssigneeID)
	if err != nil {
		return ministry.Assignment{}, err
	}
	if conflict, found := ministry.FirstConflict(&a, existing); found {
		return ministry.Assignment{}, &ConflictError{Conflict: conflict}
	}

	if err := deps.MinistryStore.SaveAssignment(ctx, a); err != nil {
		return ministry.Assignment{}, err
	}

	slog.Info("ministry_event", "event", "assignment_created", "assignment_id", a.ID,
		"assignee_id", a.AssigneeID, "role", a.Role)
	return a, nil
}

// RemoveAssignmentInput carries input for removing an assignment.
type RemoveAssignmentInput struct {
	AssignmentID string
}

// RemoveAssignmentDeps holds dependencies for RemoveAssignment.
type RemoveAssignmentDeps struct {
	MinistryStore AssignmentStore
}

// ExecuteRemoveAssignment deletes an assignment.
// PRE: AssignmentID refers to an existing assignment
// POST: Assignment row is removed
func ExecuteRemoveAssignment(ctx context.Context, input RemoveAssignmentInput, deps RemoveAssignmentDeps) error {
	if input.AssignmentID == "" {
		return errors.New("assignment ID is required")
	}
	a, err := deps.MinistryStore.GetAssignment(ctx, input.AssignmentID)
	if err != nil {
		return errors.New("assignment not found")
	}
	if err := deps.MinistryStore.DeleteAssignment(ctx, a.ID); err != nil {
		return err
	}
	slog.Info("ministry_event", "event", "assignment_removed", "assignment_id", a.ID)
	return nil
}
