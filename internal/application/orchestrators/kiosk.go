package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parish/internal/domain/account"
	"parish/internal/domain/kiosk"

	"github.com/google/uuid"
)

// KioskAccountStore defines the account store interface needed by kiosk orchestrators.
type KioskAccountStore interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// KioskSessionStore defines the session store interface needed by kiosk orchestrators.
type KioskSessionStore interface {
	Save(ctx context.Context, s kiosk.Session) error
	FindActiveByAccount(ctx context.Context, accountID string) (kiosk.Session, bool, error)
}

// LaunchKioskInput carries input for launching kiosk mode.
type LaunchKioskInput struct {
	AccountID   string
	EventID     string
	ServiceDate string // YYYY-MM-DD
}

// LaunchKioskDeps holds dependencies for LaunchKiosk.
type LaunchKioskDeps struct {
	AccountStore KioskAccountStore
	SessionStore KioskSessionStore
	Now          func() time.Time
}

// ExecuteLaunchKiosk opens a kiosk session tied to the launching account and
// one occasion (event or service date).
// PRE: Account is staff or admin with no live session
// POST: A live kiosk session exists and is persisted
func ExecuteLaunchKiosk(ctx context.Context, input LaunchKioskInput, deps LaunchKioskDeps) (kiosk.Session, error) {
	if input.AccountID == "" {
		return kiosk.Session{}, errors.New("account ID is required")
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return kiosk.Session{}, errors.New("account not found")
	}
	if !acct.IsStaffOrAdmin() {
		return kiosk.Session{}, errors.New("only staff or admin can launch kiosk mode")
	}

	if _, active, err := deps.SessionStore.FindActiveByAccount(ctx, input.AccountID); err != nil {
		return kiosk.Session{}, err
	} else if active {
		return kiosk.Session{}, kiosk.ErrAlreadyActive
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	session := kiosk.Session{
		ID:          uuid.New().String(),
		AccountID:   input.AccountID,
		EventID:     input.EventID,
		ServiceDate: input.ServiceDate,
		StartedAt:   now,
	}
	if err := session.Validate(); err != nil {
		return kiosk.Session{}, err
	}
	if err := deps.SessionStore.Save(ctx, session); err != nil {
		return kiosk.Session{}, err
	}

	slog.Info("kiosk_event", "event", "kiosk_launched", "session_id", session.ID, "account_id", input.AccountID)
	return session, nil
}

// ExitKioskInput carries input for exiting kiosk mode. The operator's password
// is required so an unattended kiosk cannot be closed by a passer-by.
type ExitKioskInput struct {
	AccountID string
	Password  string
}

// ExitKioskDeps holds dependencies for ExitKiosk.
type ExitKioskDeps struct {
	AccountStore KioskAccountStore
	SessionStore KioskSessionStore
	Now          func() time.Time
}

// ExecuteExitKiosk verifies the operator's password and ends the live session.
// PRE: Account has a live kiosk session; password matches
// POST: Session is ended
func ExecuteExitKiosk(ctx context.Context, input ExitKioskInput, deps ExitKioskDeps) error {
	if input.AccountID == "" {
		return errors.New("account ID is required")
	}
	if input.Password == "" {
		return errors.New("password is required to exit kiosk mode")
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return errors.New("account not found")
	}
	if err := acct.CheckPassword(input.Password); err != nil {
		return errors.New("invalid password")
	}

	session, active, err := deps.SessionStore.FindActiveByAccount(ctx, input.AccountID)
	if err != nil {
		return err
	}
	if !active {
		return kiosk.ErrNotActive
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	if err := session.End(now); err != nil {
		return err
	}
	if err := deps.SessionStore.Save(ctx, session); err != nil {
		return err
	}

	slog.Info("kiosk_event", "event", "kiosk_exited", "session_id", session.ID, "account_id", input.AccountID)
	return nil
}
