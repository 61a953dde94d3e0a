package member

import (
	"context"

	domain "parish/internal/domain/member"
)

// Store persists Member state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Member, error)
	GetByEmail(ctx context.Context, email string) (domain.Member, error)
	Save(ctx context.Context, value domain.Member) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Member, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	SearchByName(ctx context.Context, query string, limit int) ([]domain.Member, error)

	// ListFamily returns a member's family members ordered by position.
	ListFamily(ctx context.Context, memberID string) ([]domain.FamilyMember, error)

	// ReplaceFamily overwrites a member's family members in one transaction,
	// preserving the order of the given slice.
	ReplaceFamily(ctx context.Context, memberID string, family []domain.FamilyMember) error
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit      int
	Offset     int
	MinistryID string
	Status     string
	Search     string
	Sort       string
	Dir        string
}
