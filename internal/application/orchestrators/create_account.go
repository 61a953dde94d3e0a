package orchestrators

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"parish/internal/domain/account"
	"parish/internal/domain/outbox"

	"github.com/google/uuid"
)

// ActivationTokenTTL is how long an invite link stays usable.
const ActivationTokenTTL = 72 * time.Hour

// AccountStoreForCreate defines the store interface needed by account
// creation orchestrators.
type AccountStoreForCreate interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context) (int, error)
	SaveActivationToken(ctx context.Context, token account.ActivationToken) error
	GetActivationTokenByToken(ctx context.Context, token string) (account.ActivationToken, error)
	InvalidateTokensForAccount(ctx context.Context, accountID string) error
}

// Account creation errors.
var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	Email                  string
	Password               string
	Role                   string
	MemberID               string // linked member record, empty for staff-only accounts
	PasswordChangeRequired bool
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStoreForCreate
	Now          func() time.Time
}

// ExecuteCreateAccount creates an active account with a known password.
// PRE: Valid email, password >= 12 chars, valid role
// POST: Account created with hashed password
// INVARIANT: Email must be unique
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (string, error) {
	if input.Email == "" {
		return "", errors.New("email cannot be empty")
	}
	if input.Password == "" {
		return "", errors.New("password cannot be empty")
	}
	if input.Role == "" {
		return "", errors.New("role cannot be empty")
	}

	if _, err := deps.AccountStore.GetByEmail(ctx, input.Email); err == nil {
		return "", ErrEmailAlreadyExists
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	acct := account.Account{
		ID:                     uuid.New().String(),
		Email:                  input.Email,
		Role:                   input.Role,
		MemberID:               input.MemberID,
		Status:                 account.StatusActive,
		CreatedAt:              now,
		PasswordChangeRequired: input.PasswordChangeRequired,
	}
	if err := acct.Validate(); err != nil {
		return "", err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return "", err
	}

	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return "", err
	}

	slog.Info("auth_event", "event", "account_created", "email", input.Email, "role", input.Role)
	return acct.ID, nil
}

// InviteMemberInput carries input for inviting a member to create a login.
type InviteMemberInput struct {
	Email    string
	MemberID string
	Role     string // defaults to member
}

// InviteMemberDeps holds dependencies for InviteMember.
type InviteMemberDeps struct {
	AccountStore AccountStoreForCreate
	OutboxStore  LaunchOutboxStore
	BaseURL      string // e.g. https://app.standrews.org.nz
	Now          func() time.Time
}

// ExecuteInviteMember creates a pending account for a member and queues the
// activation email. The account has no password until the member activates.
// PRE: Email is unused; member exists
// POST: Pending account, activation token, and queued email persisted
func ExecuteInviteMember(ctx context.Context, input InviteMemberInput, deps InviteMemberDeps) (string, error) {
	if input.Email == "" || input.MemberID == "" {
		return "", errors.New("email and member are required")
	}
	if _, err := deps.AccountStore.GetByEmail(ctx, input.Email); err == nil {
		return "", ErrEmailAlreadyExists
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	role := input.Role
	if role == "" {
		role = account.RoleMember
	}

	acct := account.Account{
		ID:        uuid.New().String(),
		Email:     input.Email,
		Role:      role,
		MemberID:  input.MemberID,
		Status:    account.StatusPendingActivation,
		CreatedAt: now,
	}
	if err := acct.Validate(); err != nil {
		return "", err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return "", err
	}

	token := account.ActivationToken{
		ID:        uuid.New().String(),
		AccountID: acct.ID,
		Token:     newActivationToken(),
		ExpiresAt: now.Add(ActivationTokenTTL),
		CreatedAt: now,
	}
	if err := deps.AccountStore.SaveActivationToken(ctx, token); err != nil {
		return "", err
	}

	link := deps.BaseURL + "/activate?token=" + token.Token
	raw, err := json.Marshal(EmailOutboxPayload{
		To:      []string{acct.Email},
		Subject: "Set up your parish account",
		HTML: "<p>You have been invited to the parish community site.</p>" +
			"<p><a href=\"" + link + "\">Choose a password</a> to finish setting up. " +
			"The link is valid for three days.</p>",
	})
	if err != nil {
		return "", err
	}
	entry := outbox.Entry{
		ID:          uuid.New().String(),
		ActionType:  outbox.ActionTypeEmail,
		Payload:     string(raw),
		Status:      outbox.StatusPending,
		MaxAttempts: 5,
		CreatedAt:   now,
	}
	if err := deps.OutboxStore.Save(ctx, entry); err != nil {
		return "", err
	}

	slog.Info("auth_event", "event", "member_invited", "account_id", acct.ID, "member_id", input.MemberID)
	return acct.ID, nil
}

// ActivateAccountInput carries input for account activation.
type ActivateAccountInput struct {
	Token    string
	Password string
}

// ActivateAccountDeps holds dependencies for ActivateAccount.
type ActivateAccountDeps struct {
	AccountStore AccountStoreForCreate
	Now          func() time.Time
}

// ExecuteActivateAccount finishes an invite: the member sets their password
// and the account goes active. The token is single-use.
// PRE: Token is unused and unexpired; password meets length rules
// POST: Account active with the chosen password; all tokens invalidated
func ExecuteActivateAccount(ctx context.Context, input ActivateAccountInput, deps ActivateAccountDeps) (string, error) {
	if input.Token == "" {
		return "", account.ErrTokenInvalid
	}

	token, err := deps.AccountStore.GetActivationTokenByToken(ctx, input.Token)
	if err != nil || token.Used {
		return "", account.ErrTokenInvalid
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	if token.IsExpired(now) {
		return "", account.ErrTokenExpired
	}

	acct, err := deps.AccountStore.GetByID(ctx, token.AccountID)
	if err != nil {
		return "", account.ErrTokenInvalid
	}
	if err := acct.Activate(); err != nil {
		return "", err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return "", err
	}

	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return "", err
	}
	if err := deps.AccountStore.InvalidateTokensForAccount(ctx, acct.ID); err != nil {
		return "", err
	}

	slog.Info("auth_event", "event", "account_activated", "account_id", acct.ID)
	return acct.ID, nil
}

// ExecuteSeedAdmin creates a default admin account if no accounts exist.
// PRE: Database is initialized
// POST: Admin account created if count == 0
func ExecuteSeedAdmin(ctx context.Context, deps CreateAccountDeps, email, password string) error {
	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err = ExecuteCreateAccount(ctx, CreateAccountInput{
		Email:                  email,
		Password:               password,
		Role:                   account.RoleAdmin,
		PasswordChangeRequired: true,
	}, deps)
	if err != nil {
		return err
	}

	slog.Info("auth_event", "event", "admin_seeded", "email", email)
	return nil
}

// newActivationToken returns a 64-hex-char random token.
func newActivationToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("activation token entropy unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}
