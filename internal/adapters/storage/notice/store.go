package notice

import (
	"context"
	"time"

	domain "parish/internal/domain/notice"
)

// Store persists Notice state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Notice, error)
	Save(ctx context.Context, value domain.Notice) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Notice, error)

	// ListPublished returns published notices of one type inside their
	// visibility window. targetID narrows ministry/event boards.
	ListPublished(ctx context.Context, noticeType, targetID string, now time.Time) ([]domain.Notice, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Type     string
	Status   string
	TargetID string
	Limit    int
	Offset   int
}
