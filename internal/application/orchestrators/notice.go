package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parish/internal/domain/event"
	"parish/internal/domain/ministry"
	"parish/internal/domain/notice"
)

// Notice orchestrator errors.
var (
	ErrNoticeWindowInverted = errors.New("visible-until must come after visible-from")
	ErrNoticeWindowClosed   = errors.New("the visibility window has already closed")
	ErrNoticeTargetUnknown  = errors.New("notice target was not found")
	ErrNoticeEventCancelled = errors.New("cannot post a notice for a cancelled event")
	ErrPinDraftNotice       = errors.New("only a published notice can be pinned")
)

// NoticeStoreForOrchestrator defines the store interface needed by notice orchestrators.
type NoticeStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (notice.Notice, error)
	Save(ctx context.Context, n notice.Notice) error
}

// MinistryFinderForNotice resolves the target of a ministry notice.
type MinistryFinderForNotice interface {
	GetByID(ctx context.Context, id string) (ministry.Ministry, error)
}

// EventFinderForNotice resolves the target of an event notice.
type EventFinderForNotice interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

// resolveNoticeTarget checks that a targeted notice points at something real.
// Parish-wide notices have no target. An event notice on a cancelled event is
// rejected; the event page it would appear on no longer exists for members.
func resolveNoticeTarget(ctx context.Context, n notice.Notice, ministries MinistryFinderForNotice, events EventFinderForNotice) error {
	switch n.Type {
	case notice.TypeMinistry:
		if _, err := ministries.GetByID(ctx, n.TargetID); err != nil {
			return ErrNoticeTargetUnknown
		}
	case notice.TypeEvent:
		ev, err := events.GetByID(ctx, n.TargetID)
		if err != nil {
			return ErrNoticeTargetUnknown
		}
		if ev.Status == event.StatusCancelled {
			return ErrNoticeEventCancelled
		}
	}
	return nil
}

func windowInverted(from, until time.Time) bool {
	return !from.IsZero() && !until.IsZero() && !until.After(from)
}

// --- Create Notice ---

// CreateNoticeInput carries input for the create notice orchestrator.
type CreateNoticeInput struct {
	Type         string
	Title        string
	Content      string
	TargetID     string
	AuthorName   string
	ShowAuthor   bool
	Color        string
	VisibleFrom  time.Time
	VisibleUntil time.Time
	CreatedBy    string // AccountID of creator
}

// CreateNoticeDeps holds dependencies for CreateNotice.
type CreateNoticeDeps struct {
	NoticeStore NoticeStoreForOrchestrator
	Ministries  MinistryFinderForNotice
	Events      EventFinderForNotice
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteCreateNotice creates a new notice in draft status.
// PRE: Title, Content, Type must be non-empty; CreatedBy must be non-empty;
// a ministry or event notice must name an existing, non-cancelled target
// POST: Notice created in draft status with generated ID
func ExecuteCreateNotice(ctx context.Context, input CreateNoticeInput, deps CreateNoticeDeps) (notice.Notice, error) {
	if input.CreatedBy == "" {
		return notice.Notice{}, errors.New("creator account ID is required")
	}
	if windowInverted(input.VisibleFrom, input.VisibleUntil) {
		return notice.Notice{}, ErrNoticeWindowInverted
	}

	color := input.Color
	if color == "" {
		color = notice.ColorGold
	}

	n := notice.Notice{
		ID:           deps.GenerateID(),
		Type:         input.Type,
		Status:       notice.StatusDraft,
		Title:        input.Title,
		Content:      input.Content,
		CreatedBy:    input.CreatedBy,
		TargetID:     input.TargetID,
		AuthorName:   input.AuthorName,
		ShowAuthor:   input.ShowAuthor,
		Color:        color,
		VisibleFrom:  input.VisibleFrom,
		VisibleUntil: input.VisibleUntil,
		CreatedAt:    deps.Now(),
	}

	if err := n.Validate(); err != nil {
		return notice.Notice{}, err
	}
	if err := resolveNoticeTarget(ctx, n, deps.Ministries, deps.Events); err != nil {
		return notice.Notice{}, err
	}

	if err := deps.NoticeStore.Save(ctx, n); err != nil {
		return notice.Notice{}, err
	}

	slog.Info("notice_event", "event", "notice_created", "notice_id", n.ID, "type", n.Type, "created_by", input.CreatedBy)
	return n, nil
}

// --- Edit Notice ---

// EditNoticeInput carries input for the edit notice orchestrator.
type EditNoticeInput struct {
	NoticeID     string
	Title        string
	Content      string
	Type         string
	TargetID     string
	AuthorName   string
	ShowAuthor   bool
	Color        string
	VisibleFrom  time.Time
	VisibleUntil time.Time
	// ClearVisibleFrom and ClearVisibleUntil signal explicit clearing of the window.
	ClearVisibleFrom  bool
	ClearVisibleUntil bool
}

// EditNoticeDeps holds dependencies for EditNotice.
type EditNoticeDeps struct {
	NoticeStore NoticeStoreForOrchestrator
	Ministries  MinistryFinderForNotice
	Events      EventFinderForNotice
	Now         func() time.Time
}

// ExecuteEditNotice updates fields on an existing notice.
// Partial-update semantics:
//   - Title, Content, Type, TargetID, Color: only updated when the input value
//     is non-empty (cannot be cleared).
//   - AuthorName, ShowAuthor: always overwritten.
//   - VisibleFrom, VisibleUntil: overwritten when non-zero; cleared only when
//     the matching Clear flag is set.
//
// PRE: NoticeID must be non-empty; notice must exist; a retargeted notice must
// still resolve to an existing, non-cancelled target
// POST: Notice fields updated, UpdatedAt set
func ExecuteEditNotice(ctx context.Context, input EditNoticeInput, deps EditNoticeDeps) (notice.Notice, error) {
	if input.NoticeID == "" {
		return notice.Notice{}, errors.New("notice ID is required")
	}

	n, err := deps.NoticeStore.GetByID(ctx, input.NoticeID)
	if err != nil {
		return notice.Notice{}, err
	}

	if input.Title != "" {
		n.Title = input.Title
	}
	if input.Content != "" {
		n.Content = input.Content
	}
	retargeted := false
	if input.Type != "" && input.Type != n.Type {
		n.Type = input.Type
		retargeted = true
	}
	if input.TargetID != "" && input.TargetID != n.TargetID {
		n.TargetID = input.TargetID
		retargeted = true
	}
	n.AuthorName = input.AuthorName
	n.ShowAuthor = input.ShowAuthor
	if input.Color != "" {
		n.Color = input.Color
	}
	switch {
	case input.ClearVisibleFrom:
		n.VisibleFrom = time.Time{}
	case !input.VisibleFrom.IsZero():
		n.VisibleFrom = input.VisibleFrom
	}
	switch {
	case input.ClearVisibleUntil:
		n.VisibleUntil = time.Time{}
	case !input.VisibleUntil.IsZero():
		n.VisibleUntil = input.VisibleUntil
	}
	if windowInverted(n.VisibleFrom, n.VisibleUntil) {
		return notice.Notice{}, ErrNoticeWindowInverted
	}
	n.UpdatedAt = deps.Now()

	if err := n.Validate(); err != nil {
		return notice.Notice{}, err
	}
	if retargeted {
		if err := resolveNoticeTarget(ctx, n, deps.Ministries, deps.Events); err != nil {
			return notice.Notice{}, err
		}
	}

	if err := deps.NoticeStore.Save(ctx, n); err != nil {
		return notice.Notice{}, err
	}

	slog.Info("notice_event", "event", "notice_edited", "notice_id", n.ID, "title", n.Title)
	return n, nil
}

// --- Publish Notice ---

// PublishNoticeInput carries input for the publish notice orchestrator.
type PublishNoticeInput struct {
	NoticeID    string
	PublisherID string // AccountID of publisher
}

// PublishNoticeDeps holds dependencies for PublishNotice.
type PublishNoticeDeps struct {
	NoticeStore NoticeStoreForOrchestrator
	Now         func() time.Time
}

// ExecutePublishNotice publishes a draft notice.
// PRE: NoticeID and PublisherID must be non-empty; notice must exist, be in
// draft status, and its visibility window must not already be over
// POST: Notice status set to published, PublishedBy and PublishedAt set
func ExecutePublishNotice(ctx context.Context, input PublishNoticeInput, deps PublishNoticeDeps) (notice.Notice, error) {
	if input.NoticeID == "" {
		return notice.Notice{}, errors.New("notice ID is required")
	}
	if input.PublisherID == "" {
		return notice.Notice{}, errors.New("publisher ID is required")
	}

	n, err := deps.NoticeStore.GetByID(ctx, input.NoticeID)
	if err != nil {
		return notice.Notice{}, err
	}

	now := deps.Now()
	if !n.VisibleUntil.IsZero() && now.After(n.VisibleUntil) {
		return notice.Notice{}, ErrNoticeWindowClosed
	}
	if err := n.Publish(input.PublisherID, now); err != nil {
		return notice.Notice{}, err
	}

	if err := deps.NoticeStore.Save(ctx, n); err != nil {
		return notice.Notice{}, err
	}

	slog.Info("notice_event", "event", "notice_published", "notice_id", n.ID, "published_by", input.PublisherID)
	return n, nil
}

// --- Pin/Unpin Notice ---

// PinNoticeInput carries input for the pin/unpin notice orchestrator.
type PinNoticeInput struct {
	NoticeID string
	Pinned   bool // true = pin, false = unpin
}

// PinNoticeDeps holds dependencies for PinNotice.
type PinNoticeDeps struct {
	NoticeStore NoticeStoreForOrchestrator
	Now         func() time.Time
}

// ExecutePinNotice pins or unpins a notice. Pinning is a board affordance, so
// only a published notice can be pinned; drafts are not on the board.
// PRE: NoticeID must be non-empty; notice must exist; pin requires published
// POST: Pinned/PinnedAt updated, UpdatedAt set
func ExecutePinNotice(ctx context.Context, input PinNoticeInput, deps PinNoticeDeps) (notice.Notice, error) {
	if input.NoticeID == "" {
		return notice.Notice{}, errors.New("notice ID is required")
	}

	n, err := deps.NoticeStore.GetByID(ctx, input.NoticeID)
	if err != nil {
		return notice.Notice{}, err
	}

	if input.Pinned {
		if !n.IsPublished() {
			return notice.Notice{}, ErrPinDraftNotice
		}
		if err := n.Pin(deps.Now()); err != nil {
			return notice.Notice{}, err
		}
	} else {
		if err := n.Unpin(); err != nil {
			return notice.Notice{}, err
		}
	}
	n.UpdatedAt = deps.Now()

	if err := deps.NoticeStore.Save(ctx, n); err != nil {
		return notice.Notice{}, err
	}

	action := "notice_pinned"
	if !input.Pinned {
		action = "notice_unpinned"
	}
	slog.Info("notice_event", "event", action, "notice_id", n.ID)
	return n, nil
}
