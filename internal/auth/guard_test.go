package auth

import (
	"testing"

	"github.com/hitoshi/tkdadmin/internal/model"
)

func TestAuthenticate(t *testing.T) {
	if _, ok := Authenticate(nil).(Unauthenticated); !ok {
		t.Error("Authenticate(nil) should be Unauthenticated")
	}
	u := activeUser(model.RoleCoachingStaff)
	d, ok := Authenticate(u).(Authorized)
	if !ok {
		t.Fatal("Authenticate(user) should be Authorized")
	}
	if d.User != u {
		t.Error("Authorized.User should be the same user")
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		user     *model.User
		required model.Role
		want     string
	}{
		{"no user", nil, model.RoleCoachingStaff, "unauthenticated"},
		{"operator to admin", activeUser(model.RoleOperator), model.RoleAdmin, "forbidden"},
		{"admin to super_admin", activeUser(model.RoleAdmin), model.RoleSuperAdmin, "forbidden"},
		{"admin to admin", activeUser(model.RoleAdmin), model.RoleAdmin, "authorized"},
		{"super_admin to operator", activeUser(model.RoleSuperAdmin), model.RoleOperator, "authorized"},
		{"unknown stored role", activeUser(model.Role("legacy")), model.RoleCoachingStaff, "forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecisionName(Authorize(tt.user, tt.required)); got != tt.want {
				t.Errorf("Authorize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthorize_ForbiddenCarriesRequiredRole(t *testing.T) {
	d, ok := Authorize(activeUser(model.RoleOperator), model.RoleAdmin).(Forbidden)
	if !ok {
		t.Fatal("expected Forbidden")
	}
	if d.Required != model.RoleAdmin {
		t.Errorf("Required = %q, want %q", d.Required, model.RoleAdmin)
	}
	if d.User == nil || d.User.Role != model.RoleOperator {
		t.Errorf("User = %+v, want operator", d.User)
	}
}
