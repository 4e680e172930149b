package entity

import "testing"

func TestParseRole(t *testing.T) {
	for _, role := range AllRoles {
		parsed, err := ParseRole(role.String())
		if err != nil {
			t.Errorf("ParseRole(%q) failed: %v", role, err)
		}
		if parsed != role {
			t.Errorf("expected %q, got %q", role, parsed)
		}
	}

	for _, s := range []string{"", "owner", "Admin", "superuser"} {
		if _, err := ParseRole(s); err == nil {
			t.Errorf("expected ParseRole(%q) to fail", s)
		}
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleAdmin.Valid() || !RoleMember.Valid() || !RoleViewer.Valid() {
		t.Error("expected the closed set to be valid")
	}
	if Role("root").Valid() {
		t.Error("expected an unknown role to be invalid")
	}
}
