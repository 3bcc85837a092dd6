package auth

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleViewer, PermPatternRead, true},
		{RoleViewer, PermAuditRead, true},
		{RoleViewer, PermPatternPlay, false},
		{RoleViewer, PermPatternManage, false},
		{RoleOperator, PermPatternPlay, true},
		{RoleOperator, PermPatternManage, false},
		{RoleAdmin, PermPatternManage, true},
		{RoleAdmin, PermPatternPlay, true},
		{"nonexistent", PermPatternRead, false},
	}
	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.perm); got != tt.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestPermissionsForRole(t *testing.T) {
	perms := PermissionsForRole(RoleAdmin)
	if len(perms) != 4 {
		t.Errorf("admin permissions = %v", perms)
	}

	perms[0] = "mutated"
	if PermissionsForRole(RoleAdmin)[0] == "mutated" {
		t.Error("PermissionsForRole should return a copy")
	}

	if PermissionsForRole("nonexistent") != nil {
		t.Error("unknown role should have no permissions")
	}
}

func TestIsValidRole(t *testing.T) {
	for _, r := range ValidRoles {
		if !IsValidRole(r) {
			t.Errorf("IsValidRole(%q) = false", r)
		}
	}
	if IsValidRole("panel") {
		t.Error("IsValidRole(panel) = true")
	}
}
