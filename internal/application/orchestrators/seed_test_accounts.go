package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parish/internal/domain/account"
	"parish/internal/domain/member"

	"github.com/google/uuid"
)

// TestAccountSeedDeps holds stores needed for test account seeding.
type TestAccountSeedDeps struct {
	AccountStore testAcctAccountStore
	MemberStore  testAcctMemberStore
	Now          func() time.Time
}

type testAcctAccountStore interface {
	Save(ctx context.Context, a account.Account) error
	GetByEmail(ctx context.Context, email string) (account.Account, error)
}

type testAcctMemberStore interface {
	Save(ctx context.Context, m member.Member) error
}

// testAccountDef defines a single test account to seed.
type testAccountDef struct {
	Email      string
	Password   string
	Role       string
	MemberName string
}

// testAccounts returns the list of test accounts to seed.
func testAccounts() []testAccountDef {
	return []testAccountDef{
		{
			Email:      "office+admin@standrews.org.nz",
			Password:   "Psalm100+admin!",
			Role:       account.RoleAdmin,
			MemberName: "", // admin doesn't need a member record
		},
		{
			Email:      "office+staff@standrews.org.nz",
			Password:   "Psalm100+staff!",
			Role:       account.RoleStaff,
			MemberName: "Test Staff",
		},
		{
			Email:      "office+member@standrews.org.nz",
			Password:   "Psalm100+member!",
			Role:       account.RoleMember,
			MemberName: "Test Member",
		},
	}
}

// ExecuteSeedTestAccounts creates test accounts for each role if they don't
// already exist. Idempotent: accounts are skipped when the email is taken.
// PRE: Database is migrated, admin seed has run.
// POST: One test account per role, with member records for non-admin roles.
func ExecuteSeedTestAccounts(ctx context.Context, deps TestAccountSeedDeps) error {
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	created := 0
	for _, def := range testAccounts() {
		if _, err := deps.AccountStore.GetByEmail(ctx, def.Email); err == nil {
			continue
		}

		acct := account.Account{
			ID:        uuid.New().String(),
			Email:     def.Email,
			Role:      def.Role,
			Status:    account.StatusActive,
			CreatedAt: now,
		}
		if err := acct.SetPassword(def.Password); err != nil {
			return fmt.Errorf("seed test account %s: set password: %w", def.Email, err)
		}

		if def.MemberName != "" {
			m := member.Member{
				ID:       uuid.New().String(),
				Name:     def.MemberName,
				Email:    def.Email,
				Status:   member.StatusActive,
				JoinedAt: now,
			}
			if err := deps.MemberStore.Save(ctx, m); err != nil {
				return fmt.Errorf("seed test member %s: save: %w", def.MemberName, err)
			}
			acct.MemberID = m.ID
		}

		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			return fmt.Errorf("seed test account %s: save: %w", def.Email, err)
		}

		created++
		slog.Info("seed_event", "event", "test_account_created", "email", def.Email, "role", def.Role)
	}

	if created > 0 {
		slog.Info("seed_event", "event", "test_accounts_seeded", "created", created)
	}
	return nil
}
