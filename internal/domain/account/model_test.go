package account_test

import (
	"testing"
	"time"

	"parish/internal/domain/account"
)

// TestAccountValidation tests validation of Account.
func TestAccountValidation(t *testing.T) {
	tests := []struct {
		name    string
		account account.Account
		wantErr bool
	}{
		{"valid admin", account.Account{Email: "admin@parish.test", Role: account.RoleAdmin}, false},
		{"valid member", account.Account{Email: "jane@parish.test", Role: account.RoleMember, MemberID: "m1"}, false},
		{"empty email", account.Account{Email: " ", Role: account.RoleAdmin}, true},
		{"no at sign", account.Account{Email: "admin.parish.test", Role: account.RoleAdmin}, true},
		{"bad role", account.Account{Email: "admin@parish.test", Role: "deacon"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Account.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestPasswordRoundTrip tests SetPassword and CheckPassword.
func TestPasswordRoundTrip(t *testing.T) {
	a := account.Account{Email: "jane@parish.test", Role: account.RoleMember}

	if err := a.SetPassword("short"); err != account.ErrPasswordTooShort {
		t.Errorf("short password error = %v, want ErrPasswordTooShort", err)
	}
	if err := a.SetPassword(""); err != account.ErrEmptyPassword {
		t.Errorf("empty password error = %v, want ErrEmptyPassword", err)
	}

	if err := a.SetPassword("correct-horse-battery"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := a.CheckPassword("correct-horse-battery"); err != nil {
		t.Errorf("CheckPassword(correct) = %v", err)
	}
	if err := a.CheckPassword("wrong-password-here"); err != account.ErrWrongPassword {
		t.Errorf("CheckPassword(wrong) = %v, want ErrWrongPassword", err)
	}
}

// TestLockout tests failed-login counting and lockout.
func TestLockout(t *testing.T) {
	a := account.Account{Email: "jane@parish.test", Role: account.RoleMember}
	for i := 0; i < 4; i++ {
		a.RecordFailedLogin()
	}
	if a.IsLocked() {
		t.Error("account locked before 5 failures")
	}
	a.RecordFailedLogin()
	if !a.IsLocked() {
		t.Error("account not locked after 5 failures")
	}
	a.ResetFailedLogins()
	if a.IsLocked() || a.FailedLogins != 0 {
		t.Error("reset did not clear lockout")
	}
}

// TestActivation tests the pending to active transition.
func TestActivation(t *testing.T) {
	a := account.Account{Email: "jane@parish.test", Role: account.RoleMember, Status: account.StatusPendingActivation}
	if !a.IsPendingActivation() {
		t.Fatal("expected pending account")
	}
	if err := a.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := a.Activate(); err != account.ErrAlreadyActivated {
		t.Errorf("second Activate error = %v, want ErrAlreadyActivated", err)
	}
}

// TestActivationToken tests token expiry and invalidation.
func TestActivationToken(t *testing.T) {
	now := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	tok := account.ActivationToken{ID: "t1", AccountID: "a1", Token: "abc", ExpiresAt: now.Add(24 * time.Hour)}

	if tok.IsExpired(now) {
		t.Error("fresh token reported expired")
	}
	if !tok.IsExpired(now.Add(25 * time.Hour)) {
		t.Error("stale token not reported expired")
	}
	tok.Invalidate()
	if !tok.Used {
		t.Error("Invalidate did not mark token used")
	}
}

// TestRoleHelpers tests IsAdmin and IsStaffOrAdmin.
func TestRoleHelpers(t *testing.T) {
	staff := account.Account{Role: account.RoleStaff}
	if staff.IsAdmin() {
		t.Error("staff reported as admin")
	}
	if !staff.IsStaffOrAdmin() {
		t.Error("staff not reported as staff-or-admin")
	}
	member := account.Account{Role: account.RoleMember}
	if member.IsStaffOrAdmin() {
		t.Error("member reported as staff-or-admin")
	}
}
