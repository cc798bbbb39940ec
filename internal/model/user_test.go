package model

import "testing"

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleEditor, true},
		{RoleEditor, RoleAdmin, false},
		{RoleEditor, RoleEditor, true},
		// Unknown roles fail-closed.
		{"unknown", RoleEditor, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
		{"", RoleEditor, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
		{string(make([]byte, 73)), true},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}

func TestValidateUser(t *testing.T) {
	u := User{ID: NewID(), Email: "a@example.com", Role: RoleEditor}
	if err := Validate(u); err != nil {
		t.Fatalf("valid user: %v", err)
	}

	u.Role = "owner"
	if err := Validate(u); err == nil {
		t.Error("expected error for unknown role")
	}

	u.Role = RoleAdmin
	u.Email = "not-an-email"
	if err := Validate(u); err == nil {
		t.Error("expected error for invalid email")
	}
}
