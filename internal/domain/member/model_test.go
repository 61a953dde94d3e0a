package member_test

import (
	"testing"

	"parish/internal/domain/member"
)

// TestMemberValidation tests validation of Member.
func TestMemberValidation(t *testing.T) {
	tests := []struct {
		name    string
		member  member.Member
		wantErr bool
	}{
		{
			name: "valid member",
			member: member.Member{
				ID:     "123",
				Name:   "Grace Li",
				Email:  "grace@example.com",
				Phone:  "+642112345678",
				Status: member.StatusActive,
			},
			wantErr: false,
		},
		{
			name: "valid member without phone",
			member: member.Member{
				ID:     "123",
				Name:   "Grace Li",
				Email:  "grace@example.com",
				Status: member.StatusArchived,
			},
			wantErr: false,
		},
		{
			name: "empty name",
			member: member.Member{
				ID:     "123",
				Name:   "",
				Email:  "grace@example.com",
				Status: member.StatusActive,
			},
			wantErr: true,
		},
		{
			name: "invalid email",
			member: member.Member{
				ID:     "123",
				Name:   "Grace Li",
				Email:  "invalid-email",
				Status: member.StatusActive,
			},
			wantErr: true,
		},
		{
			name: "malformed phone",
			member: member.Member{
				ID:     "123",
				Name:   "Grace Li",
				Email:  "grace@example.com",
				Phone:  "0211234567",
				Status: member.StatusActive,
			},
			wantErr: true,
		},
		{
			name: "invalid status",
			member: member.Member{
				ID:     "123",
				Name:   "Grace Li",
				Email:  "grace@example.com",
				Status: "invalid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.member.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Member.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestFamilyMemberValidation tests validation of FamilyMember.
func TestFamilyMemberValidation(t *testing.T) {
	tests := []struct {
		name    string
		fm      member.FamilyMember
		wantErr bool
	}{
		{"valid", member.FamilyMember{ID: "1", MemberID: "m1", FirstName: "Tom"}, false},
		{"first name only is enough", member.FamilyMember{ID: "1", MemberID: "m1", FirstName: "May"}, false},
		{"empty first name", member.FamilyMember{ID: "1", MemberID: "m1", FirstName: " "}, true},
		{"missing member", member.FamilyMember{ID: "1", FirstName: "Tom"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fm.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("FamilyMember.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestMemberArchiveRestore tests status transitions.
func TestMemberArchiveRestore(t *testing.T) {
	m := member.Member{ID: "1", Name: "Grace Li", Email: "grace@example.com", Status: member.StatusActive}

	if err := m.Archive(); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if !m.IsArchived() {
		t.Error("IsArchived() = false after Archive")
	}
	if err := m.Archive(); err != member.ErrAlreadyArchived {
		t.Errorf("second Archive() error = %v, want ErrAlreadyArchived", err)
	}
	if err := m.Restore(); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if !m.IsActive() {
		t.Error("IsActive() = false after Restore")
	}
	if err := m.Restore(); err != member.ErrNotArchived {
		t.Errorf("Restore() on active error = %v, want ErrNotArchived", err)
	}
}
